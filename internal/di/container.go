package di

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-feishu2md/internal/adapters/noop"
	documentscmd "github.com/goliatone/go-feishu2md/internal/commands/documents"
	"github.com/goliatone/go-feishu2md/internal/convert"
	"github.com/goliatone/go-feishu2md/internal/feishu"
	httpapi "github.com/goliatone/go-feishu2md/internal/http"
	"github.com/goliatone/go-feishu2md/internal/logging"
	"github.com/goliatone/go-feishu2md/internal/logging/console"
	"github.com/goliatone/go-feishu2md/internal/logging/gologger"
	"github.com/goliatone/go-feishu2md/internal/markdown"
	"github.com/goliatone/go-feishu2md/internal/media"
	"github.com/goliatone/go-feishu2md/internal/runtimeconfig"
	"github.com/goliatone/go-feishu2md/internal/share"
	"github.com/goliatone/go-feishu2md/pkg/interfaces"
)

const mediaCacheShardSize = 32

// Container wires module dependencies from the runtime configuration.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	httpClient     *http.Client

	documents   convert.DocumentSource
	mediaSource interfaces.MediaSource
	mediaCache  repocache.CacheService
	blobStore   interfaces.BlobStore

	bunDB         *bun.DB
	ownsDB        bool
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer
	shareRepo     share.Repository

	mediaSvc   media.Service
	convertSvc convert.Service
	shareSvc   share.Service
	parser     interfaces.MarkdownParser

	commandRegistry documentscmd.CommandRegistry
	commandOptions  []documentscmd.Option
	commands        *documentscmd.HandlerSet

	api *httpapi.API
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the provider built from the logging config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		if provider != nil {
			c.loggerProvider = provider
		}
	}
}

// WithHTTPClient sets the client used for open platform calls.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Container) {
		c.httpClient = client
	}
}

// WithDocumentSource replaces the platform client as document source.
func WithDocumentSource(source convert.DocumentSource) Option {
	return func(c *Container) {
		c.documents = source
	}
}

// WithMediaSource replaces the platform client as image source.
func WithMediaSource(source interfaces.MediaSource) Option {
	return func(c *Container) {
		c.mediaSource = source
	}
}

// WithMediaCache overrides the cache service downloaded images are read through.
func WithMediaCache(cache repocache.CacheService) Option {
	return func(c *Container) {
		c.mediaCache = cache
	}
}

// WithBlobStore overrides the filesystem store used in hosted media mode.
func WithBlobStore(store interfaces.BlobStore) Option {
	return func(c *Container) {
		c.blobStore = store
	}
}

// WithBunDB injects the database used by the bun share provider. The container
// does not close injected databases.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithCache overrides the repository cache used by the bun share provider.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithShareRepository overrides the configured share repository.
func WithShareRepository(repo share.Repository) Option {
	return func(c *Container) {
		c.shareRepo = repo
	}
}

// WithCommandRegistry registers the document commands with reg.
func WithCommandRegistry(reg documentscmd.CommandRegistry) Option {
	return func(c *Container) {
		c.commandRegistry = reg
	}
}

// WithDocumentCommandOptions forwards options to the document command registration.
func WithDocumentCommandOptions(opts ...documentscmd.Option) Option {
	return func(c *Container) {
		c.commandOptions = append(c.commandOptions, opts...)
	}
}

// NewContainer validates cfg and builds every service.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{Config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	steps := []func() error{
		c.configureLoggerProvider,
		c.configurePlatform,
		c.configureMedia,
		c.configureShare,
		c.configureConvert,
		c.configureCommands,
		c.configureHTTP,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			_ = c.Close()
			return nil, err
		}
	}

	logging.RootLogger(c.loggerProvider).Debug("container.configured",
		"media_mode", c.Config.Media.Mode,
		"share_enabled", c.shareSvc != nil,
		"share_provider", c.Config.Share.Provider,
	)
	return c, nil
}

func (c *Container) configureLoggerProvider() error {
	if c.loggerProvider != nil {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(c.Config.Logging.Provider)) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     c.Config.Logging.Level,
			Format:    c.Config.Logging.Format,
			AddSource: c.Config.Logging.AddSource,
			Focus:     c.Config.Logging.Focus,
		})
		if err != nil {
			return fmt.Errorf("configure logger: %w", err)
		}
		c.loggerProvider = provider
	default:
		level, err := console.ParseLevel(c.Config.Logging.Level)
		if err != nil {
			return fmt.Errorf("configure logger: %w", err)
		}
		c.loggerProvider = console.NewProvider(console.Options{MinLevel: &level})
	}
	return nil
}

func (c *Container) configurePlatform() error {
	if c.documents != nil && c.mediaSource != nil {
		return nil
	}
	clientOpts := []feishu.Option{feishu.WithLogger(logging.FeishuLogger(c.loggerProvider))}
	if c.httpClient != nil {
		clientOpts = append(clientOpts, feishu.WithHTTPClient(c.httpClient))
	}
	client, err := feishu.NewClient(feishu.Config{
		AppID:     c.Config.Feishu.AppID,
		AppSecret: c.Config.Feishu.AppSecret,
		BaseURL:   c.Config.Feishu.BaseURL,
		PageSize:  c.Config.Feishu.PageSize,
		Timeout:   c.Config.Feishu.Timeout,
	}, clientOpts...)
	if err != nil {
		return err
	}
	if c.documents == nil {
		c.documents = client
	}
	if c.mediaSource == nil {
		c.mediaSource = client
	}
	return nil
}

func (c *Container) configureMedia() error {
	cfg := c.Config.Media
	if c.mediaCache == nil && cfg.CacheTTL > 0 {
		cacheCfg := repocache.DefaultConfig()
		cacheCfg.TTL = cfg.CacheTTL
		cacheCfg.Capacity = cfg.CacheCapacity
		// sturdyc splits capacity evenly across shards.
		cacheCfg.NumShards = min(cacheCfg.NumShards, max(1, cfg.CacheCapacity/mediaCacheShardSize))
		cacheCfg.EarlyRefresh = nil
		cacheCfg.MissingRecordStorage = false
		service, err := repocache.NewCacheService(cacheCfg)
		if err != nil {
			return fmt.Errorf("configure media cache: %w", err)
		}
		c.mediaCache = service
	}

	mode := media.Mode(strings.ToLower(strings.TrimSpace(cfg.Mode)))
	if c.blobStore == nil {
		if mode == media.ModeHosted {
			store, err := media.NewFileStore(cfg.BlobDir)
			if err != nil {
				return err
			}
			c.blobStore = store
		} else {
			c.blobStore = noop.BlobStore()
		}
	}

	mediaOpts := []media.ServiceOption{
		media.WithBlobStore(c.blobStore),
		media.WithLogger(logging.MediaLogger(c.loggerProvider)),
	}
	if c.mediaCache != nil {
		mediaOpts = append(mediaOpts, media.WithCache(c.mediaCache))
	}
	c.mediaSvc = media.NewService(c.mediaSource, media.Config{
		Mode:          mode,
		ProxyPrefix:   cfg.ProxyPrefix,
		PublicBaseURL: cfg.PublicBaseURL,
		KeyPrefix:     cfg.KeyPrefix,
		Workers:       cfg.Workers,
	},
		mediaOpts...,
	)
	return nil
}

func (c *Container) configureShare() error {
	cfg := c.Config.Share
	if !cfg.Enabled {
		return nil
	}
	logger := logging.ShareLogger(c.loggerProvider)

	if c.shareRepo == nil {
		switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
		case runtimeconfig.ShareProviderBun:
			repo, err := c.bunShareRepository(cfg)
			if err != nil {
				return err
			}
			c.shareRepo = repo
		default:
			c.shareRepo = share.NewMemoryRepository()
		}
	}

	c.shareSvc = share.NewService(c.shareRepo,
		share.WithTTL(cfg.TTL),
		share.WithLogger(logger),
	)
	return nil
}

func (c *Container) bunShareRepository(cfg runtimeconfig.ShareConfig) (*share.BunRepository, error) {
	if c.bunDB == nil {
		db, err := openBunDB(cfg.Driver, cfg.DSN)
		if err != nil {
			return nil, err
		}
		c.bunDB = db
		c.ownsDB = true
	}

	var repo *share.BunRepository
	if cfg.Cache.Enabled {
		c.configureCacheDefaults(cfg.Cache.TTL)
		repo = share.NewBunRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
	} else {
		repo = share.NewBunRepository(c.bunDB)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := repo.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate share store: %w", err)
	}
	return repo, nil
}

func (c *Container) configureCacheDefaults(ttl time.Duration) {
	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if ttl > 0 {
			cfg.TTL = ttl
		}
		service, err := repocache.NewCacheService(cfg)
		if err == nil {
			c.cacheService = service
		}
	}
	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
}

func openBunDB(driver, dsn string) (*bun.DB, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case runtimeconfig.ShareDriverPostgres:
		sqldb, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return bun.NewDB(sqldb, pgdialect.New()), nil
	default:
		sqldb, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		sqldb.SetMaxOpenConns(1)
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	}
}

func (c *Container) configureConvert() error {
	c.convertSvc = convert.NewService(c.documents, c.mediaSvc,
		convert.WithLogger(logging.ConvertLogger(c.loggerProvider)),
	)
	c.parser = markdown.NewGoldmarkParser(c.parseOptions())
	return nil
}

func (c *Container) configureCommands() error {
	set, err := documentscmd.RegisterDocumentCommands(c.commandRegistry, c.convertSvc, c.shareSvc, c.loggerProvider, c.commandOptions...)
	if err != nil {
		return err
	}
	c.commands = set
	return nil
}

func (c *Container) configureHTTP() error {
	opts := []httpapi.Option{
		httpapi.WithBasePath(c.Config.Server.APIBasePath),
		httpapi.WithShareBasePath(c.Config.Server.ShareBasePath),
		httpapi.WithConvertService(c.convertSvc),
		httpapi.WithMediaService(c.mediaSvc),
		httpapi.WithMarkdownParser(c.parser, c.parseOptions()),
		httpapi.WithLogger(logging.HTTPLogger(c.loggerProvider)),
	}
	if c.shareSvc != nil {
		opts = append(opts, httpapi.WithShareService(c.shareSvc))
	}
	c.api = httpapi.NewAPI(opts...)
	return nil
}

func (c *Container) parseOptions() interfaces.ParseOptions {
	return interfaces.ParseOptions{
		Extensions: c.Config.Markdown.Extensions,
		HardWraps:  c.Config.Markdown.HardWraps,
		SafeMode:   c.Config.Markdown.SafeMode,
	}
}

// Close releases the share database when the container opened it.
func (c *Container) Close() error {
	if c == nil || c.bunDB == nil || !c.ownsDB {
		return nil
	}
	err := c.bunDB.Close()
	c.bunDB = nil
	return err
}

// LoggerProvider returns the configured logger provider.
func (c *Container) LoggerProvider() interfaces.LoggerProvider { return c.loggerProvider }

// MediaService returns the image service.
func (c *Container) MediaService() media.Service { return c.mediaSvc }

// ConvertService returns the conversion service.
func (c *Container) ConvertService() convert.Service { return c.convertSvc }

// ShareService returns the share service, or nil when sharing is disabled.
func (c *Container) ShareService() share.Service { return c.shareSvc }

// MarkdownParser returns the share view renderer.
func (c *Container) MarkdownParser() interfaces.MarkdownParser { return c.parser }

// BlobStore returns the hosted image store. Proxy mode uses a no-op store.
func (c *Container) BlobStore() interfaces.BlobStore { return c.blobStore }

// Commands returns the registered document command handlers.
func (c *Container) Commands() *documentscmd.HandlerSet { return c.commands }

// API returns the HTTP adapter.
func (c *Container) API() *httpapi.API { return c.api }
