// Package links classifies Feishu/Lark document URLs and decodes link targets
// embedded in document content.
package links

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	goerrors "github.com/goliatone/go-errors"
)

// DocType names the document families addressable by URL.
type DocType string

const (
	DocTypeDocs DocType = "docs"
	DocTypeDocx DocType = "docx"
	DocTypeWiki DocType = "wiki"
)

const invalidURLCode = "INVALID_DOCUMENT_URL"

// ErrInvalidURL reports input that is not a Feishu/Lark document URL.
var ErrInvalidURL = errors.New("links: invalid feishu/larksuite document URL")

var documentPattern = regexp.MustCompile(`^https://[\w.-]+/(docs|docx|wiki)/([a-zA-Z0-9]+)`)

// Link identifies a document by family and token.
type Link struct {
	Type  DocType
	Token string
}

// Classify extracts the document type and token from a document URL.
func Classify(raw string) (Link, error) {
	match := documentPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if len(match) != 3 {
		return Link{}, goerrors.Wrap(ErrInvalidURL, goerrors.CategoryValidation, "document url not recognised").
			WithTextCode(invalidURLCode)
	}
	return Link{Type: DocType(match[1]), Token: match[2]}, nil
}

// Unescape percent-decodes a URL, returning the raw input when decoding fails
// or yields invalid UTF-8. Plus signs are kept as-is.
func Unescape(raw string) string {
	decoded, err := url.PathUnescape(raw)
	if err != nil || !utf8.ValidString(decoded) {
		return raw
	}
	return decoded
}
