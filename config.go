package feishu2md

import "github.com/goliatone/go-feishu2md/internal/runtimeconfig"

var (
	ErrFeishuCredentialsRequired = runtimeconfig.ErrFeishuCredentialsRequired
	ErrMediaModeUnknown          = runtimeconfig.ErrMediaModeUnknown
	ErrMediaBlobDirRequired      = runtimeconfig.ErrMediaBlobDirRequired
	ErrShareProviderUnknown      = runtimeconfig.ErrShareProviderUnknown
	ErrShareDriverUnknown        = runtimeconfig.ErrShareDriverUnknown
	ErrShareDSNRequired          = runtimeconfig.ErrShareDSNRequired
	ErrShareTTLInvalid           = runtimeconfig.ErrShareTTLInvalid
	ErrLoggingProviderRequired   = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown    = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid       = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid      = runtimeconfig.ErrLoggingFormatInvalid
	ErrEnvValueInvalid           = runtimeconfig.ErrEnvValueInvalid
)

type (
	Config         = runtimeconfig.Config
	FeishuConfig   = runtimeconfig.FeishuConfig
	MediaConfig    = runtimeconfig.MediaConfig
	ShareConfig    = runtimeconfig.ShareConfig
	CacheConfig    = runtimeconfig.CacheConfig
	ServerConfig   = runtimeconfig.ServerConfig
	MarkdownConfig = runtimeconfig.MarkdownConfig
	LoggingConfig  = runtimeconfig.LoggingConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// ConfigFromEnv returns DefaultConfig overlaid with the process environment.
func ConfigFromEnv() (Config, error) {
	return runtimeconfig.FromEnv(runtimeconfig.DefaultConfig())
}
