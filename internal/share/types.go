// Package share keeps converted Markdown documents under short codes for a
// limited time so they can be viewed or downloaded through a link.
package share

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	// DefaultTTL is how long a shared document stays readable.
	DefaultTTL = 30 * 24 * time.Hour
	// DefaultTitle names documents saved without a title.
	DefaultTitle = "Untitled"

	maxTitleLength = 512
)

var (
	// ErrDocumentNotFound reports an unknown or expired share code.
	ErrDocumentNotFound = errors.New("share: document not found")
	// ErrMarkdownRequired rejects saves without content.
	ErrMarkdownRequired = errors.New("share: markdown is required")
	// ErrCodeTaken reports a code collision on create.
	ErrCodeTaken = errors.New("share: code already in use")
)

// Document is a shared Markdown document.
type Document struct {
	bun.BaseModel `bun:"table:share_documents,alias:sd"`

	ID        uuid.UUID `bun:",pk,type:uuid"           json:"-"`
	Code      string    `bun:"code,notnull,unique"     json:"id"`
	Title     string    `bun:"title,notnull"           json:"title"`
	Markdown  string    `bun:"markdown,notnull"        json:"markdown"`
	CreatedAt time.Time `bun:"created_at,notnull"      json:"created_at"`
	ExpiresAt time.Time `bun:"expires_at,notnull"      json:"expires_at"`
}

// Expired reports whether the document is no longer readable at now.
func (d *Document) Expired(now time.Time) bool {
	return !now.Before(d.ExpiresAt)
}

func (d *Document) clone() *Document {
	if d == nil {
		return nil
	}
	copied := *d
	return &copied
}

// SaveInput is the payload accepted by Service.Save.
type SaveInput struct {
	Title    string `json:"title"`
	Markdown string `json:"markdown"`
}

// Validate checks field limits. Blank markdown is reported separately by Save
// as ErrMarkdownRequired.
func (in SaveInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Markdown, validation.Required),
		validation.Field(&in.Title, validation.RuneLength(0, maxTitleLength)),
	)
}
