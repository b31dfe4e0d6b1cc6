package documentscmd

import (
	"context"
	"errors"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-feishu2md/internal/commands"
	"github.com/goliatone/go-feishu2md/internal/convert"
	"github.com/goliatone/go-feishu2md/internal/share"
	"github.com/goliatone/go-feishu2md/pkg/interfaces"
)

// CommandRegistry is the minimal registration contract expected when wiring command handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// CronRegistrar matches the function signature used by go-command registries.
type CronRegistrar func(command.HandlerConfig, any) error

// HandlerSet groups the document command handlers produced by RegisterDocumentCommands.
// Share and Purge are nil when no share service is configured.
type HandlerSet struct {
	Export *ExportDocumentHandler
	Share  *ShareDocumentHandler
	Purge  *PurgeExpiredSharesHandler
}

// Option customises handler wiring during registration.
type Option func(*options)

type options struct {
	exportOpts        []ExportOption
	shareObserver     func(ShareReport)
	exportHandlerOpts []commands.HandlerOption[ExportDocumentCommand]
	shareHandlerOpts  []commands.HandlerOption[ShareDocumentCommand]
	purgeHandlerOpts  []commands.HandlerOption[PurgeExpiredSharesCommand]
}

// WithExportOptions forwards export behaviour options (output writer, observer, clock).
func WithExportOptions(opts ...ExportOption) Option {
	return func(cfg *options) {
		cfg.exportOpts = append(cfg.exportOpts, opts...)
	}
}

// WithShareObserver receives a report for every stored share.
func WithShareObserver(fn func(ShareReport)) Option {
	return func(cfg *options) {
		cfg.shareObserver = fn
	}
}

// WithExportHandlerOptions forwards options to the ExportDocumentHandler constructor.
func WithExportHandlerOptions(opts ...commands.HandlerOption[ExportDocumentCommand]) Option {
	return func(cfg *options) {
		cfg.exportHandlerOpts = append(cfg.exportHandlerOpts, opts...)
	}
}

// WithShareHandlerOptions forwards options to the ShareDocumentHandler constructor.
func WithShareHandlerOptions(opts ...commands.HandlerOption[ShareDocumentCommand]) Option {
	return func(cfg *options) {
		cfg.shareHandlerOpts = append(cfg.shareHandlerOpts, opts...)
	}
}

// WithPurgeHandlerOptions forwards options to the PurgeExpiredSharesHandler constructor.
func WithPurgeHandlerOptions(opts ...commands.HandlerOption[PurgeExpiredSharesCommand]) Option {
	return func(cfg *options) {
		cfg.purgeHandlerOpts = append(cfg.purgeHandlerOpts, opts...)
	}
}

// RegisterDocumentCommands builds document command handlers and registers them with the provided
// registry. A HandlerSet containing the constructed handlers is returned so callers can wire
// additional integrations (CLI, cron) as needed.
func RegisterDocumentCommands(reg CommandRegistry, converter convert.Service, shares share.Service, provider interfaces.LoggerProvider, opts ...Option) (*HandlerSet, error) {
	if converter == nil {
		return nil, errors.New("document command registration: convert service is nil")
	}

	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	logger := commands.CommandLogger(provider, "documents")

	set := &HandlerSet{
		Export: NewExportDocumentHandler(converter, logger, cfg.exportOpts, cfg.exportHandlerOpts...),
	}
	if shares != nil {
		set.Share = NewShareDocumentHandler(converter, shares, logger, cfg.shareObserver, cfg.shareHandlerOpts...)
		set.Purge = NewPurgeExpiredSharesHandler(shares, logger, cfg.purgeHandlerOpts...)
	}

	if reg != nil {
		for _, handler := range set.handlers() {
			if err := reg.RegisterCommand(handler); err != nil {
				return nil, err
			}
		}
	}
	return set, nil
}

func (s *HandlerSet) handlers() []any {
	out := []any{s.Export}
	if s.Share != nil {
		out = append(out, s.Share)
	}
	if s.Purge != nil {
		out = append(out, s.Purge)
	}
	return out
}

// RegisterPurgeCron wires the purge handler into a cron registrar. The handler is executed with a
// background context.
func RegisterPurgeCron(reg CronRegistrar, handler *PurgeExpiredSharesHandler, cfg command.HandlerConfig) error {
	if reg == nil || handler == nil {
		return nil
	}
	return reg(cfg, func() error {
		return handler.Execute(context.Background(), PurgeExpiredSharesCommand{})
	})
}
