// Package convert turns a document URL into Markdown: it classifies the link,
// resolves wiki nodes, fetches the block tree, renders it and rewrites image
// tokens.
package convert

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-feishu2md/docx"
	"github.com/goliatone/go-feishu2md/internal/feishu"
	"github.com/goliatone/go-feishu2md/internal/links"
	"github.com/goliatone/go-feishu2md/internal/logging"
	"github.com/goliatone/go-feishu2md/internal/media"
	"github.com/goliatone/go-feishu2md/internal/render"
	"github.com/goliatone/go-feishu2md/pkg/interfaces"
)

const (
	unsupportedTypeCode = "CONVERT_UNSUPPORTED_DOC_TYPE"
	fetchFailedCode     = "CONVERT_FETCH_FAILED"
	wikiFailedCode      = "CONVERT_WIKI_RESOLVE_FAILED"
	mediaFailedCode     = "CONVERT_MEDIA_FAILED"
	notFoundCode        = "CONVERT_DOCUMENT_NOT_FOUND"

	legacyDocsMessage = "Legacy 'docs' format is not supported, only 'docx' is supported"
)

var (
	// ErrUnsupportedDocType rejects legacy docs and wiki nodes that do not wrap
	// a docx document.
	ErrUnsupportedDocType = errors.New("convert: unsupported document type")
	// ErrSourceRequired is returned when no document source is configured.
	ErrSourceRequired = errors.New("convert: document source is required")
)

// DocumentSource fetches documents from the platform. *feishu.Client
// satisfies it.
type DocumentSource interface {
	GetDocxContent(ctx context.Context, documentID string) (docx.Document, []docx.Block, error)
	GetWikiNode(ctx context.Context, token string) (feishu.WikiNode, error)
}

// Result is a converted document.
type Result struct {
	SourceURL  string
	DocType    links.DocType
	DocumentID string
	RevisionID int
	Title      string
	Markdown   string
	// ImageTokens lists image tokens in document order, duplicates kept.
	ImageTokens []string
}

// Service converts document URLs.
type Service interface {
	// Render fetches and renders the document, leaving image tokens in place.
	Render(ctx context.Context, rawURL string) (*Result, error)
	// Convert renders the document and rewrites image tokens to URLs.
	Convert(ctx context.Context, rawURL string) (*Result, error)
	// Localize renders the document, downloads its images and points each
	// image at dir/{token}.{ext}.
	Localize(ctx context.Context, rawURL, dir string) (*Result, []*media.Image, error)
	// Export packages the document for download.
	Export(ctx context.Context, rawURL string) (*Bundle, error)
}

// ServiceOption configures the service at construction time.
type ServiceOption func(*service)

// WithLogger sets the service logger.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type service struct {
	source DocumentSource
	media  media.Service
	logger interfaces.Logger
}

// NewService constructs a conversion service.
func NewService(source DocumentSource, images media.Service, opts ...ServiceOption) Service {
	s := &service{
		source: source,
		media:  images,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Render(ctx context.Context, rawURL string) (*Result, error) {
	if s.source == nil {
		return nil, ErrSourceRequired
	}
	start := time.Now()

	link, err := links.Classify(rawURL)
	if err != nil {
		return nil, err
	}
	logger := logging.WithDocumentContext(s.logger, string(link.Type), link.Token)

	documentID, err := s.resolve(ctx, link, logger)
	if err != nil {
		return nil, err
	}

	doc, blocks, err := s.source.GetDocxContent(ctx, documentID)
	if err != nil {
		logger.Error("convert.document.fetch_failed", "document_id", documentID, "error", err)
		return nil, fetchError(err, "fetch document content")
	}

	rendered := render.RenderDocument(doc, blocks)
	logger.Info("convert.document.rendered",
		"document_id", documentID,
		"title", doc.Title,
		"blocks", len(blocks),
		"images", len(rendered.ImageTokens),
		"elapsed", time.Since(start),
	)

	return &Result{
		SourceURL:   rawURL,
		DocType:     link.Type,
		DocumentID:  documentID,
		RevisionID:  doc.RevisionID,
		Title:       doc.Title,
		Markdown:    rendered.Markdown,
		ImageTokens: rendered.ImageTokens,
	}, nil
}

func (s *service) Convert(ctx context.Context, rawURL string) (*Result, error) {
	result, err := s.Render(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if len(result.ImageTokens) == 0 || s.media == nil {
		return result, nil
	}

	urls, err := s.media.Resolve(ctx, result.ImageTokens)
	if err != nil {
		return nil, mediaError(err)
	}
	result.Markdown = media.Rewrite(result.Markdown, result.ImageTokens, urls)
	return result, nil
}

func (s *service) Localize(ctx context.Context, rawURL, dir string) (*Result, []*media.Image, error) {
	result, err := s.Render(ctx, rawURL)
	if err != nil {
		return nil, nil, err
	}
	if len(result.ImageTokens) == 0 {
		return result, nil, nil
	}
	if s.media == nil {
		return nil, nil, mediaError(media.ErrSourceUnavailable)
	}

	images, err := s.media.FetchAll(ctx, result.ImageTokens)
	if err != nil {
		return nil, nil, mediaError(err)
	}
	local := make(map[string]string, len(images))
	for _, image := range images {
		local[image.Token] = path.Join(dir, image.FileName())
	}
	result.Markdown = media.Rewrite(result.Markdown, result.ImageTokens, local)
	return result, images, nil
}

// resolve maps the link to a docx document id, following wiki nodes.
func (s *service) resolve(ctx context.Context, link links.Link, logger interfaces.Logger) (string, error) {
	switch link.Type {
	case links.DocTypeDocs:
		return "", unsupported(legacyDocsMessage)
	case links.DocTypeWiki:
		node, err := s.source.GetWikiNode(ctx, link.Token)
		if err != nil {
			logger.Error("convert.wiki.resolve_failed", "error", err)
			return "", goerrors.Wrap(err, categoryFor(err), "resolve wiki node").WithTextCode(wikiFailedCode)
		}
		logger.Debug("convert.wiki.resolved", "obj_type", node.ObjType, "obj_token", node.ObjToken)
		switch links.DocType(node.ObjType) {
		case links.DocTypeDocx:
			return node.ObjToken, nil
		case links.DocTypeDocs, "doc":
			return "", unsupported(legacyDocsMessage)
		default:
			return "", unsupported(fmt.Sprintf("wiki node wraps unsupported document type %q", node.ObjType))
		}
	default:
		return link.Token, nil
	}
}

func unsupported(message string) error {
	return goerrors.Wrap(ErrUnsupportedDocType, goerrors.CategoryValidation, message).
		WithTextCode(unsupportedTypeCode)
}

func fetchError(err error, message string) error {
	if goerrors.IsWrapped(err) {
		return err
	}
	code := fetchFailedCode
	if errors.Is(err, feishu.ErrNotFound) {
		code = notFoundCode
	}
	return goerrors.Wrap(err, categoryFor(err), message).WithTextCode(code)
}

func mediaError(err error) error {
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryExternal, "resolve document images").WithTextCode(mediaFailedCode)
}

func categoryFor(err error) goerrors.Category {
	if errors.Is(err, feishu.ErrNotFound) {
		return goerrors.CategoryNotFound
	}
	return goerrors.CategoryExternal
}
