package share

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-feishu2md/internal/identity"
	"github.com/goliatone/go-feishu2md/internal/logging"
	"github.com/goliatone/go-feishu2md/internal/markdown"
	"github.com/goliatone/go-feishu2md/pkg/interfaces"
)

const (
	codeBytes       = 4
	maxCodeAttempts = 5

	notFoundCode        = "SHARE_NOT_FOUND"
	markdownMissingCode = "SHARE_MARKDOWN_REQUIRED"
	invalidInputCode    = "SHARE_INVALID_INPUT"
)

// Service stores and retrieves shared documents.
type Service interface {
	Save(ctx context.Context, input SaveInput) (*Document, error)
	Get(ctx context.Context, code string) (*Document, error)
	PurgeExpired(ctx context.Context) (int, error)
}

// CodeGenerator produces candidate share codes.
type CodeGenerator func() (string, error)

// ServiceOption configures the service at construction time.
type ServiceOption func(*service)

// WithTTL overrides how long saved documents stay readable.
func WithTTL(ttl time.Duration) ServiceOption {
	return func(s *service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock overrides the clock used to stamp and expire records.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCodeGenerator overrides share code generation.
func WithCodeGenerator(gen CodeGenerator) ServiceOption {
	return func(s *service) {
		if gen != nil {
			s.codes = gen
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type service struct {
	repo   Repository
	ttl    time.Duration
	now    func() time.Time
	codes  CodeGenerator
	logger interfaces.Logger
}

// NewService constructs a share service backed by repo.
func NewService(repo Repository, opts ...ServiceOption) Service {
	s := &service{
		repo:   repo,
		ttl:    DefaultTTL,
		now:    time.Now,
		codes:  RandomCode,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save stores the document under a fresh code. A blank title falls back to
// the front matter title, then to DefaultTitle.
func (s *service) Save(ctx context.Context, input SaveInput) (*Document, error) {
	if strings.TrimSpace(input.Markdown) == "" {
		return nil, goerrors.Wrap(ErrMarkdownRequired, goerrors.CategoryValidation, "markdown is required").
			WithTextCode(markdownMissingCode)
	}
	if err := input.Validate(); err != nil {
		return nil, goerrors.FromOzzoValidation(err, "invalid share input").
			WithTextCode(invalidInputCode)
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = markdown.Title(input.Markdown)
	}
	if title == "" {
		title = DefaultTitle
	}

	now := s.now().UTC()
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.codes()
		if err != nil {
			return nil, fmt.Errorf("share: generate code: %w", err)
		}
		doc := &Document{
			ID:        identity.ShareUUID(code),
			Code:      code,
			Title:     title,
			Markdown:  input.Markdown,
			CreatedAt: now,
			ExpiresAt: now.Add(s.ttl),
		}
		created, err := s.repo.Create(ctx, doc)
		if errors.Is(err, ErrCodeTaken) {
			s.logger.Warn("share.code.collision", "code", code, "attempt", attempt+1)
			continue
		}
		if err != nil {
			return nil, err
		}
		s.logger.Info("share.document.saved", "code", code, "title", title, "expires_at", created.ExpiresAt)
		return created, nil
	}
	return nil, fmt.Errorf("%w after %d attempts", ErrCodeTaken, maxCodeAttempts)
}

// Get returns a readable document. Expired documents are reported as not
// found even before they are purged.
func (s *service) Get(ctx context.Context, code string) (*Document, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil, notFound(fmt.Errorf("%w: empty code", ErrDocumentNotFound))
	}
	doc, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrDocumentNotFound) {
			return nil, notFound(err)
		}
		return nil, err
	}
	if doc.Expired(s.now().UTC()) {
		return nil, notFound(fmt.Errorf("%w: %s expired", ErrDocumentNotFound, code))
	}
	return doc, nil
}

func (s *service) PurgeExpired(ctx context.Context) (int, error) {
	removed, err := s.repo.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return removed, err
	}
	s.logger.Info("share.documents.purged", "count", removed)
	return removed, nil
}

// RandomCode returns eight lowercase hex characters from crypto/rand.
func RandomCode() (string, error) {
	buf := make([]byte, codeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func notFound(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryNotFound, "shared document not found").
		WithTextCode(notFoundCode)
}
