package documentscmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-feishu2md/internal/links"
)

const (
	exportDocumentMessageType = "feishu2md.documents.export"
	shareDocumentMessageType  = "feishu2md.documents.share"
	purgeSharesMessageType    = "feishu2md.shares.purge_expired"
)

// ExportDocumentCommand converts a document and writes the Markdown to disk or
// to the handler's output writer.
type ExportDocumentCommand struct {
	// URL is the Feishu/Lark document or wiki link.
	URL string `json:"url"`
	// OutputDir receives the Markdown file. Ignored when Stdout is set.
	OutputDir string `json:"output_dir,omitempty"`
	// ImageDir, relative to OutputDir, receives downloaded images. Empty keeps
	// the configured image URLs instead of downloading.
	ImageDir string `json:"image_dir,omitempty"`
	// FrontMatter prefixes the Markdown with a YAML metadata block.
	FrontMatter bool `json:"front_matter,omitempty"`
	// Stdout writes the Markdown to the handler output instead of a file.
	Stdout bool `json:"stdout,omitempty"`
}

// Type implements command.Message.
func (ExportDocumentCommand) Type() string { return exportDocumentMessageType }

// Validate ensures the URL is a recognised document link and the image
// directory stays inside the output directory.
func (cmd ExportDocumentCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.URL, validation.Required, validation.By(documentURL)),
		validation.Field(&cmd.ImageDir, validation.By(func(value any) error {
			dir, _ := value.(string)
			if strings.HasPrefix(dir, "/") || strings.Contains(dir, "..") {
				return validation.NewError("feishu2md.documents.export.image_dir_invalid", "image directory must be relative to the output directory")
			}
			return nil
		})),
	)
}

// ShareDocumentCommand converts a document and stores it in the share store.
type ShareDocumentCommand struct {
	URL string `json:"url"`
	// Title overrides the document title on the share page.
	Title string `json:"title,omitempty"`
}

// Type implements command.Message.
func (ShareDocumentCommand) Type() string { return shareDocumentMessageType }

// Validate ensures the URL is a recognised document link.
func (cmd ShareDocumentCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.URL, validation.Required, validation.By(documentURL)),
	)
}

// PurgeExpiredSharesCommand removes shared documents past their expiry.
type PurgeExpiredSharesCommand struct{}

// Type implements command.Message.
func (PurgeExpiredSharesCommand) Type() string { return purgeSharesMessageType }

// Validate implements the go-command validation hook.
func (PurgeExpiredSharesCommand) Validate() error { return nil }

func documentURL(value any) error {
	raw, _ := value.(string)
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	if _, err := links.Classify(raw); err != nil {
		return validation.NewError("feishu2md.documents.url_invalid", "must be a docs, docx or wiki document URL")
	}
	return nil
}
