package interfaces

import "context"

// MediaSource downloads the bytes behind a document image token. The platform
// client satisfies it.
type MediaSource interface {
	DownloadMedia(ctx context.Context, token string) ([]byte, string, error)
}

// BlobStore persists re-hosted images under a storage key.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
}
