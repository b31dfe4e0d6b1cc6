package documentscmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-feishu2md/internal/commands"
	"github.com/goliatone/go-feishu2md/internal/convert"
	"github.com/goliatone/go-feishu2md/internal/logging"
	"github.com/goliatone/go-feishu2md/internal/markdown"
	"github.com/goliatone/go-feishu2md/internal/media"
	"github.com/goliatone/go-feishu2md/internal/share"
	"github.com/goliatone/go-feishu2md/pkg/interfaces"
)

const (
	exportOperation = "documents.export"
	shareOperation  = "documents.share"
	purgeOperation  = "shares.purge_expired"

	filePerm = 0o644
	dirPerm  = 0o755
)

var (
	// ErrShareStoreUnavailable is returned when sharing is requested without a share service.
	ErrShareStoreUnavailable = errors.New("documents command: share store unavailable")
)

var (
	_ command.Commander[ExportDocumentCommand]     = (*ExportDocumentHandler)(nil)
	_ command.Commander[ShareDocumentCommand]      = (*ShareDocumentHandler)(nil)
	_ command.Commander[PurgeExpiredSharesCommand] = (*PurgeExpiredSharesHandler)(nil)
)

// ExportReport describes a completed export.
type ExportReport struct {
	Title      string
	DocumentID string
	// Path is empty when the Markdown went to the output writer.
	Path   string
	Images []string
}

// ShareReport describes a stored share.
type ShareReport struct {
	Code      string
	Title     string
	ExpiresAt time.Time
}

// ExportDocumentHandler converts documents and writes Markdown plus images to disk.
type ExportDocumentHandler struct {
	inner *commands.Handler[ExportDocumentCommand]
}

// ExportOption customises the export handler.
type ExportOption func(*exportConfig)

type exportConfig struct {
	stdout   io.Writer
	now      func() time.Time
	observer func(ExportReport)
}

// WithOutput sets the writer used when a command asks for Stdout.
func WithOutput(w io.Writer) ExportOption {
	return func(cfg *exportConfig) {
		if w != nil {
			cfg.stdout = w
		}
	}
}

// WithExportClock overrides the export timestamp source used for front matter.
func WithExportClock(now func() time.Time) ExportOption {
	return func(cfg *exportConfig) {
		if now != nil {
			cfg.now = now
		}
	}
}

// WithExportObserver receives a report after every successful export.
func WithExportObserver(fn func(ExportReport)) ExportOption {
	return func(cfg *exportConfig) {
		cfg.observer = fn
	}
}

// NewExportDocumentHandler creates a handler bound to the conversion service.
func NewExportDocumentHandler(service convert.Service, logger interfaces.Logger, exportOpts []ExportOption, opts ...commands.HandlerOption[ExportDocumentCommand]) *ExportDocumentHandler {
	baseLogger := commands.EnsureLogger(logger)
	cfg := exportConfig{stdout: os.Stdout, now: time.Now}
	for _, opt := range exportOpts {
		if opt != nil {
			opt(&cfg)
		}
	}

	exec := func(ctx context.Context, msg ExportDocumentCommand) error {
		result, images, err := exportContent(ctx, service, msg)
		if err != nil {
			return err
		}

		body := result.Markdown
		if msg.FrontMatter {
			body, err = markdown.WithFrontMatter(markdown.FrontMatter{
				Title:    result.Title,
				Source:   result.SourceURL,
				Token:    result.DocumentID,
				Revision: result.RevisionID,
				Exported: cfg.now().UTC(),
			}, body)
			if err != nil {
				return err
			}
		}

		report := ExportReport{Title: result.Title, DocumentID: result.DocumentID}
		for _, image := range images {
			target := filepath.Join(msg.OutputDir, msg.ImageDir, image.FileName())
			if err := writeFile(target, image.Data); err != nil {
				return err
			}
			report.Images = append(report.Images, target)
		}

		if msg.Stdout {
			if _, err := io.WriteString(cfg.stdout, body); err != nil {
				return fmt.Errorf("write markdown: %w", err)
			}
		} else {
			report.Path = filepath.Join(msg.OutputDir, convert.FileBase(result.Title, result.DocumentID)+".md")
			if err := writeFile(report.Path, []byte(body)); err != nil {
				return err
			}
		}

		logging.WithFields(baseLogger, map[string]any{
			"document_id": result.DocumentID,
			"path":        report.Path,
			"image_count": len(report.Images),
		}).Info("documents.command.export.completed")
		if cfg.observer != nil {
			cfg.observer(report)
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[ExportDocumentCommand]{
		commands.WithLogger[ExportDocumentCommand](baseLogger),
		commands.WithOperation[ExportDocumentCommand](exportOperation),
		commands.WithMessageFields(func(msg ExportDocumentCommand) map[string]any {
			fields := map[string]any{
				"url": msg.URL,
			}
			if msg.OutputDir != "" {
				fields["output_dir"] = msg.OutputDir
			}
			if msg.ImageDir != "" {
				fields["image_dir"] = msg.ImageDir
			}
			if msg.FrontMatter {
				fields["front_matter"] = true
			}
			if msg.Stdout {
				fields["stdout"] = true
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[ExportDocumentCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ExportDocumentHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ExportDocumentCommand].
func (h *ExportDocumentHandler) Execute(ctx context.Context, msg ExportDocumentCommand) error {
	return h.inner.Execute(ctx, msg)
}

func exportContent(ctx context.Context, service convert.Service, msg ExportDocumentCommand) (*convert.Result, []*media.Image, error) {
	if msg.ImageDir == "" {
		result, err := service.Convert(ctx, msg.URL)
		return result, nil, err
	}
	// Links inside the Markdown are relative to the Markdown file, so the
	// rewrite uses ImageDir while the files land under OutputDir/ImageDir.
	return service.Localize(ctx, msg.URL, filepath.ToSlash(msg.ImageDir))
}

func writeFile(target string, data []byte) error {
	if dir := filepath.Dir(target); dir != "" {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(target, data, filePerm); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	return nil
}

// ShareDocumentHandler converts a document and stores it for sharing.
type ShareDocumentHandler struct {
	inner *commands.Handler[ShareDocumentCommand]
}

// NewShareDocumentHandler creates a handler bound to the conversion and share services.
// observer, when set, receives the stored share.
func NewShareDocumentHandler(converter convert.Service, shares share.Service, logger interfaces.Logger, observer func(ShareReport), opts ...commands.HandlerOption[ShareDocumentCommand]) *ShareDocumentHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg ShareDocumentCommand) error {
		if shares == nil {
			return ErrShareStoreUnavailable
		}
		result, err := converter.Convert(ctx, msg.URL)
		if err != nil {
			return err
		}
		title := msg.Title
		if title == "" {
			title = result.Title
		}
		doc, err := shares.Save(ctx, share.SaveInput{Title: title, Markdown: result.Markdown})
		if err != nil {
			return err
		}
		baseLogger.Info("documents.command.share.completed", "code", doc.Code, "document_id", result.DocumentID)
		if observer != nil {
			observer(ShareReport{Code: doc.Code, Title: doc.Title, ExpiresAt: doc.ExpiresAt})
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[ShareDocumentCommand]{
		commands.WithLogger[ShareDocumentCommand](baseLogger),
		commands.WithOperation[ShareDocumentCommand](shareOperation),
		commands.WithMessageFields(func(msg ShareDocumentCommand) map[string]any {
			return map[string]any{"url": msg.URL}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[ShareDocumentCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ShareDocumentHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ShareDocumentCommand].
func (h *ShareDocumentHandler) Execute(ctx context.Context, msg ShareDocumentCommand) error {
	return h.inner.Execute(ctx, msg)
}

// PurgeExpiredSharesHandler deletes expired shares.
type PurgeExpiredSharesHandler struct {
	inner *commands.Handler[PurgeExpiredSharesCommand]
}

// NewPurgeExpiredSharesHandler creates a handler bound to the share service.
func NewPurgeExpiredSharesHandler(shares share.Service, logger interfaces.Logger, opts ...commands.HandlerOption[PurgeExpiredSharesCommand]) *PurgeExpiredSharesHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, _ PurgeExpiredSharesCommand) error {
		if shares == nil {
			return ErrShareStoreUnavailable
		}
		removed, err := shares.PurgeExpired(ctx)
		if err != nil {
			return err
		}
		baseLogger.Info("documents.command.purge.completed", "removed_count", removed)
		return nil
	}

	handlerOpts := []commands.HandlerOption[PurgeExpiredSharesCommand]{
		commands.WithLogger[PurgeExpiredSharesCommand](baseLogger),
		commands.WithOperation[PurgeExpiredSharesCommand](purgeOperation),
		commands.WithTelemetry(commands.DefaultTelemetry[PurgeExpiredSharesCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &PurgeExpiredSharesHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[PurgeExpiredSharesCommand].
func (h *PurgeExpiredSharesHandler) Execute(ctx context.Context, msg PurgeExpiredSharesCommand) error {
	return h.inner.Execute(ctx, msg)
}
