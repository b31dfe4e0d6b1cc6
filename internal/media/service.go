// Package media turns document image tokens into URLs. Proxy mode points at
// the server's image endpoint. Hosted mode downloads each image once and
// copies it into a blob store.
package media

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-repository-cache/cache"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-feishu2md/internal/logging"
	"github.com/goliatone/go-feishu2md/pkg/interfaces"
)

var (
	// ErrSourceUnavailable reports that no media source has been configured.
	ErrSourceUnavailable = errors.New("media: source unavailable")
	// ErrBlobStoreRequired reports hosted mode without a blob store.
	ErrBlobStoreRequired = errors.New("media: hosted mode requires a blob store")
	// ErrEmptyToken rejects blank image tokens.
	ErrEmptyToken = errors.New("media: image token is required")
)

// Mode selects how tokens are turned into URLs.
type Mode string

const (
	ModeProxy  Mode = "proxy"
	ModeHosted Mode = "hosted"
)

const (
	DefaultProxyPrefix = "/api/image/"
	DefaultKeyPrefix   = "feishu-images/"
	DefaultWorkers     = 4
)

// Config controls URL shapes and download fan-out.
type Config struct {
	Mode          Mode
	ProxyPrefix   string
	PublicBaseURL string
	KeyPrefix     string
	Workers       int
}

// Image is a downloaded document image.
type Image struct {
	Token       string
	Extension   string
	ContentType string
	Data        []byte
}

// FileName is the token with the sniffed extension, e.g. "boxcn123.png".
func (i *Image) FileName() string {
	return i.Token + "." + i.Extension
}

// Service resolves and downloads document images.
type Service interface {
	// Resolve maps each distinct token to the URL that should replace it.
	Resolve(ctx context.Context, tokens []string) (map[string]string, error)
	// Fetch downloads a single image, consulting the cache first.
	Fetch(ctx context.Context, token string) (*Image, error)
	// FetchAll downloads the distinct tokens in first-seen order.
	FetchAll(ctx context.Context, tokens []string) ([]*Image, error)
}

// ServiceOption customises the media service.
type ServiceOption func(*service)

// WithCache reads downloaded images through svc. Expiry and capacity are
// whatever svc was configured with.
func WithCache(svc cache.CacheService) ServiceOption {
	return func(s *service) {
		s.cache = svc
	}
}

// WithBlobStore sets the store used in hosted mode.
func WithBlobStore(store interfaces.BlobStore) ServiceOption {
	return func(s *service) {
		s.store = store
	}
}

// WithLogger sets the service logger.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type service struct {
	source interfaces.MediaSource
	store  interfaces.BlobStore
	cache  cache.CacheService
	logger interfaces.Logger
	cfg    Config
}

// NewService builds a media service over source. Empty config values fall
// back to proxy mode defaults.
func NewService(source interfaces.MediaSource, cfg Config, opts ...ServiceOption) Service {
	if cfg.Mode == "" {
		cfg.Mode = ModeProxy
	}
	if cfg.ProxyPrefix == "" {
		cfg.ProxyPrefix = DefaultProxyPrefix
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	s := &service{
		source: source,
		cfg:    cfg,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Resolve(ctx context.Context, tokens []string) (map[string]string, error) {
	distinct := unique(tokens)
	urls := make(map[string]string, len(distinct))
	if len(distinct) == 0 {
		return urls, nil
	}

	if s.cfg.Mode != ModeHosted {
		for _, token := range distinct {
			urls[token] = s.cfg.ProxyPrefix + token
		}
		return urls, nil
	}

	if s.store == nil {
		return nil, ErrBlobStoreRequired
	}
	images, err := s.FetchAll(ctx, distinct)
	if err != nil {
		return nil, err
	}
	for _, image := range images {
		key := ObjectKey(s.cfg.KeyPrefix, image)
		if err := s.store.Put(ctx, key, image.Data, image.ContentType); err != nil {
			return nil, fmt.Errorf("media: store %s: %w", key, err)
		}
		urls[image.Token] = publicURL(s.cfg.PublicBaseURL, key)
	}
	s.logger.Info("media.images.hosted", "count", len(images))
	return urls, nil
}

func (s *service) Fetch(ctx context.Context, token string) (*Image, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrEmptyToken
	}
	if s.source == nil {
		return nil, ErrSourceUnavailable
	}
	if s.cache == nil {
		return s.download(ctx, token)
	}
	return cache.GetOrFetch(ctx, s.cache, cacheKey(token), func(ctx context.Context) (*Image, error) {
		return s.download(ctx, token)
	})
}

func (s *service) download(ctx context.Context, token string) (*Image, error) {
	data, _, err := s.source.DownloadMedia(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("media: download %s: %w", token, err)
	}
	extension, contentType := Detect(data)
	s.logger.Debug("media.image.downloaded", "token", token, "bytes", len(data), "content_type", contentType)
	return &Image{
		Token:       token,
		Extension:   extension,
		ContentType: contentType,
		Data:        data,
	}, nil
}

// FetchAll downloads with at most Workers requests in flight. The first
// failure cancels the remaining downloads.
func (s *service) FetchAll(ctx context.Context, tokens []string) ([]*Image, error) {
	distinct := unique(tokens)
	images := make([]*Image, len(distinct))

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(s.cfg.Workers)
	for i, token := range distinct {
		group.Go(func() error {
			image, err := s.Fetch(ctx, token)
			if err != nil {
				return err
			}
			images[i] = image
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return images, nil
}

// ObjectKey is the blob store key for a hosted image.
func ObjectKey(prefix string, image *Image) string {
	return prefix + image.FileName()
}

func publicURL(base, key string) string {
	if base == "" {
		return "/" + key
	}
	return strings.TrimRight(base, "/") + "/" + key
}

func cacheKey(token string) string {
	return "media:image:" + token
}

func unique(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if token == "" {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}
