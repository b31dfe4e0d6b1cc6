package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-feishu2md/pkg/interfaces"
)

const (
	rootModule     = "feishu2md"
	convertModule  = "feishu2md.convert"
	feishuModule   = "feishu2md.feishu"
	mediaModule    = "feishu2md.media"
	shareModule    = "feishu2md.share"
	httpModule     = "feishu2md.http"
	commandsModule = "feishu2md.commands"
)

const (
	fieldDocumentType  = "doc_type"
	fieldDocumentToken = "doc_token"
)

// ModuleLogger returns the provider's logger for module with a "module" field
// attached. A nil provider yields a no-op logger.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// RootLogger returns the top-level namespace used by the façade and CLIs.
func RootLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, rootModule)
}

// ConvertLogger returns the namespace for the conversion pipeline.
func ConvertLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, convertModule)
}

// FeishuLogger returns the namespace for the open platform client.
func FeishuLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, feishuModule)
}

// MediaLogger returns the namespace for image resolution.
func MediaLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, mediaModule)
}

// ShareLogger returns the namespace for the share store.
func ShareLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, shareModule)
}

// HTTPLogger returns the namespace for the HTTP surface.
func HTTPLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, httpModule)
}

// CommandsLogger returns the namespace for command handlers.
func CommandsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, commandsModule)
}

// WithDocumentContext tags the logger with the document family and token being
// processed. Empty values are skipped.
func WithDocumentContext(logger interfaces.Logger, docType, token string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(docType); trimmed != "" {
		fields[fieldDocumentType] = trimmed
	}
	if trimmed := strings.TrimSpace(token); trimmed != "" {
		fields[fieldDocumentToken] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that discards every entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}

// NoOpProvider returns a provider whose loggers discard every entry.
func NoOpProvider() interfaces.LoggerProvider {
	return noopProvider{}
}

type noopProvider struct{}

func (noopProvider) GetLogger(string) interfaces.Logger {
	return noopLogger{}
}
