// Package bootstrap builds the converter module for the command line tools.
package bootstrap

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	feishu2md "github.com/goliatone/go-feishu2md"
	documentscmd "github.com/goliatone/go-feishu2md/internal/commands/documents"
	"github.com/goliatone/go-feishu2md/internal/di"
	"github.com/goliatone/go-feishu2md/internal/logging"
	"github.com/goliatone/go-feishu2md/internal/logging/console"
	"github.com/goliatone/go-feishu2md/internal/runtimeconfig"
	"github.com/goliatone/go-feishu2md/pkg/interfaces"
)

// Options captures configuration for CLI bootstraps.
type Options struct {
	// LogLevel overrides LOG_LEVEL for the console provider.
	LogLevel string
	// LogWriter receives console log output. Defaults to stderr.
	LogWriter io.Writer
	// DisableShare turns the share store off regardless of the environment.
	DisableShare bool
	// LoggerProvider replaces the console provider.
	LoggerProvider interfaces.LoggerProvider
	// CommandOptions are forwarded to the document command registration.
	CommandOptions []documentscmd.Option
	// ModuleOptions are appended to the container options.
	ModuleOptions []di.Option
	// Lookup replaces the process environment, mainly for tests.
	Lookup func(string) (string, bool)
}

// Module wraps the converter module and the pieces the CLIs use directly.
type Module struct {
	Module   *feishu2md.Module
	Commands *documentscmd.HandlerSet
	Logger   interfaces.Logger
	Config   feishu2md.Config
}

// Close releases the module resources.
func (m *Module) Close() error {
	if m == nil || m.Module == nil {
		return nil
	}
	return m.Module.Close()
}

// LoadConfig returns the default configuration overlaid with the environment.
func LoadConfig(opts Options) (feishu2md.Config, error) {
	lookup := opts.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	cfg, err := runtimeconfig.FromLookup(runtimeconfig.DefaultConfig(), lookup)
	if err != nil {
		return cfg, err
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		cfg.Logging.Level = level
	}
	if opts.DisableShare {
		cfg.Share.Enabled = false
	}
	return cfg, nil
}

// BuildModule constructs a module configured from the environment.
func BuildModule(opts Options) (*Module, error) {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	provider := opts.LoggerProvider
	if provider == nil && strings.EqualFold(strings.TrimSpace(cfg.Logging.Provider), "console") {
		level, err := console.ParseLevel(cfg.Logging.Level)
		if err != nil {
			return nil, err
		}
		writer := opts.LogWriter
		if writer == nil {
			writer = os.Stderr
		}
		provider = console.NewProvider(console.Options{
			Writer:   writer,
			MinLevel: &level,
			Color:    !color.NoColor,
		})
	}

	diOpts := []di.Option{}
	if provider != nil {
		diOpts = append(diOpts, di.WithLoggerProvider(provider))
	}
	if len(opts.CommandOptions) > 0 {
		diOpts = append(diOpts, di.WithDocumentCommandOptions(opts.CommandOptions...))
	}

	diOpts = append(diOpts, opts.ModuleOptions...)

	module, err := feishu2md.New(cfg, diOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialise feishu2md module: %w", err)
	}

	return &Module{
		Module:   module,
		Commands: module.Commands(),
		Logger:   logging.RootLogger(module.Container().LoggerProvider()),
		Config:   cfg,
	}, nil
}
