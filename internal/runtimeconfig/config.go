package runtimeconfig

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

var ErrFeishuCredentialsRequired = errors.New("feishu2md config: feishu app id and app secret are required")
var ErrMediaModeUnknown = errors.New("feishu2md config: media mode is invalid")

// ErrMediaBlobDirRequired ensures hosted images have somewhere to live.
var ErrMediaCacheCapacityInvalid = errors.New("feishu2md config: media cache capacity must be positive")
var ErrMediaBlobDirRequired = errors.New("feishu2md config: hosted media mode requires a blob directory")
var ErrShareProviderUnknown = errors.New("feishu2md config: share provider is invalid")
var ErrShareDriverUnknown = errors.New("feishu2md config: share driver is invalid")
var ErrShareDSNRequired = errors.New("feishu2md config: bun share provider requires a DSN")
var ErrShareTTLInvalid = errors.New("feishu2md config: share TTL must be positive")
var ErrLoggingProviderRequired = errors.New("feishu2md config: logging provider is required")
var ErrLoggingProviderUnknown = errors.New("feishu2md config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("feishu2md config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("feishu2md config: logging format is invalid")

// ErrEnvValueInvalid reports an environment variable that could not be parsed.
var ErrEnvValueInvalid = errors.New("feishu2md config: environment value is invalid")

const (
	MediaModeProxy  = "proxy"
	MediaModeHosted = "hosted"

	ShareProviderMemory = "memory"
	ShareProviderBun    = "bun"

	ShareDriverSQLite   = "sqlite3"
	ShareDriverPostgres = "postgres"
)

// Config aggregates platform credentials and adapter bindings for the converter.
type Config struct {
	Feishu   FeishuConfig
	Media    MediaConfig
	Share    ShareConfig
	Server   ServerConfig
	Markdown MarkdownConfig
	Logging  LoggingConfig
}

// FeishuConfig holds open platform credentials and transport settings.
type FeishuConfig struct {
	AppID     string
	AppSecret string
	BaseURL   string
	PageSize  int
	Timeout   time.Duration
}

// MediaConfig controls how image tokens become URLs.
type MediaConfig struct {
	Mode          string
	ProxyPrefix   string
	BlobDir       string
	PublicBaseURL string
	KeyPrefix     string
	Workers       int
	CacheTTL      time.Duration
	// CacheCapacity bounds how many downloaded images stay cached.
	CacheCapacity int
}

// ShareConfig selects the share store.
type ShareConfig struct {
	Enabled  bool
	Provider string
	Driver   string
	DSN      string
	TTL      time.Duration
	// PurgeInterval schedules expired share cleanup. Zero disables it.
	PurgeInterval time.Duration
	Cache         CacheConfig
}

// CacheConfig captures the share read cache toggles.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// ServerConfig captures the HTTP listener settings.
type ServerConfig struct {
	Addr          string
	APIBasePath   string
	ShareBasePath string
}

// MarkdownConfig configures the share view renderer.
type MarkdownConfig struct {
	Extensions []string
	HardWraps  bool
	SafeMode   bool
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// DefaultConfig returns defaults suitable for a local server in proxy mode.
func DefaultConfig() Config {
	return Config{
		Feishu: FeishuConfig{
			BaseURL:  "https://open.feishu.cn",
			PageSize: 500,
			Timeout:  30 * time.Second,
		},
		Media: MediaConfig{
			Mode:          MediaModeProxy,
			ProxyPrefix:   "/api/image/",
			KeyPrefix:     "feishu-images/",
			Workers:       4,
			CacheTTL:      10 * time.Minute,
			CacheCapacity: 256,
		},
		Share: ShareConfig{
			Enabled:       true,
			Provider:      ShareProviderMemory,
			Driver:        ShareDriverSQLite,
			TTL:           30 * 24 * time.Hour,
			PurgeInterval: time.Hour,
			Cache: CacheConfig{
				Enabled: false,
				TTL:     time.Minute,
			},
		},
		Server: ServerConfig{
			Addr:          ":8080",
			APIBasePath:   "/api",
			ShareBasePath: "/s/",
		},
		Markdown: MarkdownConfig{
			Extensions: []string{"gfm", "linkify", "tasklist"},
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
			Format:   "",
		},
	}
}

// FromEnv overlays values from the process environment onto cfg.
func FromEnv(cfg Config) (Config, error) {
	return FromLookup(cfg, os.LookupEnv)
}

// FromLookup overlays values returned by lookup onto cfg. Unset variables keep
// the existing value.
func FromLookup(cfg Config, lookup func(string) (string, bool)) (Config, error) {
	str := func(key string, target *string) {
		if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
			*target = strings.TrimSpace(value)
		}
	}
	str("FEISHU_APP_ID", &cfg.Feishu.AppID)
	str("FEISHU_APP_SECRET", &cfg.Feishu.AppSecret)
	str("FEISHU_BASE_URL", &cfg.Feishu.BaseURL)
	str("MEDIA_MODE", &cfg.Media.Mode)
	str("MEDIA_BLOB_DIR", &cfg.Media.BlobDir)
	str("MEDIA_PUBLIC_BASE_URL", &cfg.Media.PublicBaseURL)
	str("SHARE_PROVIDER", &cfg.Share.Provider)
	str("SHARE_DRIVER", &cfg.Share.Driver)
	str("SHARE_DSN", &cfg.Share.DSN)
	str("SERVER_ADDR", &cfg.Server.Addr)
	str("LOG_PROVIDER", &cfg.Logging.Provider)
	str("LOG_LEVEL", &cfg.Logging.Level)
	str("LOG_FORMAT", &cfg.Logging.Format)

	if value, ok := lookup("SHARE_TTL"); ok && strings.TrimSpace(value) != "" {
		ttl, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			return cfg, fmt.Errorf("%w: SHARE_TTL: %v", ErrEnvValueInvalid, err)
		}
		cfg.Share.TTL = ttl
	}
	if value, ok := lookup("MEDIA_WORKERS"); ok && strings.TrimSpace(value) != "" {
		workers, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return cfg, fmt.Errorf("%w: MEDIA_WORKERS: %v", ErrEnvValueInvalid, err)
		}
		cfg.Media.Workers = workers
	}
	if value, ok := lookup("MEDIA_CACHE_CAPACITY"); ok && strings.TrimSpace(value) != "" {
		capacity, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return cfg, fmt.Errorf("%w: MEDIA_CACHE_CAPACITY: %v", ErrEnvValueInvalid, err)
		}
		cfg.Media.CacheCapacity = capacity
	}
	if value, ok := lookup("SHARE_ENABLED"); ok && strings.TrimSpace(value) != "" {
		enabled, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return cfg, fmt.Errorf("%w: SHARE_ENABLED: %v", ErrEnvValueInvalid, err)
		}
		cfg.Share.Enabled = enabled
	}
	return cfg, nil
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.Feishu.AppID) == "" || strings.TrimSpace(cfg.Feishu.AppSecret) == "" {
		return ErrFeishuCredentialsRequired
	}

	switch mode := normalize(cfg.Media.Mode); mode {
	case "", MediaModeProxy:
	case MediaModeHosted:
		if strings.TrimSpace(cfg.Media.BlobDir) == "" {
			return ErrMediaBlobDirRequired
		}
	default:
		return fmt.Errorf("%w: %s", ErrMediaModeUnknown, mode)
	}

	if cfg.Media.CacheTTL > 0 && cfg.Media.CacheCapacity <= 0 {
		return ErrMediaCacheCapacityInvalid
	}

	if cfg.Share.Enabled {
		switch provider := normalize(cfg.Share.Provider); provider {
		case "", ShareProviderMemory:
		case ShareProviderBun:
			if driver := normalize(cfg.Share.Driver); driver != ShareDriverSQLite && driver != ShareDriverPostgres {
				return fmt.Errorf("%w: %s", ErrShareDriverUnknown, driver)
			}
			if strings.TrimSpace(cfg.Share.DSN) == "" {
				return ErrShareDSNRequired
			}
		default:
			return fmt.Errorf("%w: %s", ErrShareProviderUnknown, provider)
		}
		if cfg.Share.TTL <= 0 {
			return ErrShareTTLInvalid
		}
	}

	provider := normalize(cfg.Logging.Provider)
	if provider == "" {
		return ErrLoggingProviderRequired
	}
	if !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
