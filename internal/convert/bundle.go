package convert

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-slug"
)

const (
	ContentTypeMarkdown = "text/markdown; charset=utf-8"
	ContentTypeZip      = "application/zip"
)

// Bundle is a downloadable export: a single Markdown file, or a zip archive
// holding the Markdown file next to its images.
type Bundle struct {
	FileName    string
	ContentType string
	Data        []byte
	Images      int
}

func (s *service) Export(ctx context.Context, rawURL string) (*Bundle, error) {
	result, images, err := s.Localize(ctx, rawURL, "")
	if err != nil {
		return nil, err
	}

	name := FileBase(result.Title, result.DocumentID)
	if len(images) == 0 {
		return &Bundle{
			FileName:    name + ".md",
			ContentType: ContentTypeMarkdown,
			Data:        []byte(result.Markdown),
		}, nil
	}

	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	for _, image := range images {
		if err := writeEntry(writer, image.FileName(), image.Data); err != nil {
			return nil, err
		}
	}
	if err := writeEntry(writer, name+".md", []byte(result.Markdown)); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("convert: close archive: %w", err)
	}

	s.logger.Debug("convert.bundle.created", "file", name+".zip", "images", len(images), "bytes", buf.Len())
	return &Bundle{
		FileName:    name + ".zip",
		ContentType: ContentTypeZip,
		Data:        buf.Bytes(),
		Images:      len(images),
	}, nil
}

// FileBase derives a file name stem from the document title, falling back to
// the document id when the title has no usable characters.
func FileBase(title, documentID string) string {
	normalized, err := slug.Normalize(strings.TrimSpace(title))
	if err != nil || normalized == "" {
		return documentID
	}
	return normalized
}

func writeEntry(writer *zip.Writer, name string, data []byte) error {
	entry, err := writer.Create(name)
	if err != nil {
		return fmt.Errorf("convert: create archive entry %s: %w", name, err)
	}
	if _, err := entry.Write(data); err != nil {
		return fmt.Errorf("convert: write archive entry %s: %w", name, err)
	}
	return nil
}
