package noop

import (
	"context"

	"github.com/goliatone/go-feishu2md/pkg/interfaces"
)

// BlobStore returns a store that accepts writes and never returns data.
func BlobStore() interfaces.BlobStore {
	return blobStore{}
}

type blobStore struct{}

func (blobStore) Put(context.Context, string, []byte, string) error {
	return nil
}

func (blobStore) Get(context.Context, string) ([]byte, error) {
	return nil, nil
}
