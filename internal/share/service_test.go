package share

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-feishu2md/internal/identity"
)

func sequentialCodes(codes ...string) CodeGenerator {
	idx := 0
	return func() (string, error) {
		if idx >= len(codes) {
			return "", errors.New("out of codes")
		}
		code := codes[idx]
		idx++
		return code, nil
	}
}

func TestServiceSaveAndGet(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	svc := NewService(NewMemoryRepository(),
		WithClock(func() time.Time { return now }),
		WithCodeGenerator(sequentialCodes("a1b2c3d4")),
	)

	doc, err := svc.Save(ctx, SaveInput{Title: "  Notes ", Markdown: "# Notes\n"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if doc.Code != "a1b2c3d4" || doc.Title != "Notes" {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if doc.ID != identity.ShareUUID("a1b2c3d4") {
		t.Fatalf("expected deterministic id, got %s", doc.ID)
	}
	if !doc.ExpiresAt.Equal(now.Add(DefaultTTL)) {
		t.Fatalf("expected expiry %v, got %v", now.Add(DefaultTTL), doc.ExpiresAt)
	}

	fetched, err := svc.Get(ctx, "A1B2C3D4")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if fetched.Markdown != "# Notes\n" {
		t.Fatalf("unexpected markdown %q", fetched.Markdown)
	}
}

func TestServiceSaveTitleFallbacks(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository(), WithCodeGenerator(sequentialCodes("00000001", "00000002")))

	fromMeta, err := svc.Save(ctx, SaveInput{Markdown: "---\ntitle: Meta Title\n---\nbody\n"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if fromMeta.Title != "Meta Title" {
		t.Fatalf("expected front matter title, got %q", fromMeta.Title)
	}

	untitled, err := svc.Save(ctx, SaveInput{Markdown: "body\n"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if untitled.Title != DefaultTitle {
		t.Fatalf("expected %q, got %q", DefaultTitle, untitled.Title)
	}
}

func TestServiceSaveRequiresMarkdown(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	_, err := svc.Save(context.Background(), SaveInput{Title: "x", Markdown: "  \n"})
	if !errors.Is(err, ErrMarkdownRequired) {
		t.Fatalf("expected ErrMarkdownRequired, got %v", err)
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
}

func TestServiceSaveRetriesCollisions(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	svc := NewService(repo, WithCodeGenerator(sequentialCodes("aaaaaaaa", "aaaaaaaa", "bbbbbbbb")))

	if _, err := svc.Save(ctx, SaveInput{Markdown: "one"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	second, err := svc.Save(ctx, SaveInput{Markdown: "two"})
	if err != nil {
		t.Fatalf("Save after collision: %v", err)
	}
	if second.Code != "bbbbbbbb" {
		t.Fatalf("expected retry to pick the next code, got %q", second.Code)
	}
}

func TestServiceGetExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	repo := NewMemoryRepository()
	svc := NewService(repo,
		WithTTL(time.Hour),
		WithClock(func() time.Time { return now }),
		WithCodeGenerator(sequentialCodes("cafebabe")),
	)
	if _, err := svc.Save(ctx, SaveInput{Markdown: "x"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	now = now.Add(time.Hour)
	_, err := svc.Get(ctx, "cafebabe")
	if !errors.Is(err, ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound for expired share, got %v", err)
	}
	if !goerrors.IsCategory(err, goerrors.CategoryNotFound) {
		t.Fatalf("expected not found category, got %v", err)
	}

	removed, err := svc.PurgeExpired(ctx)
	if err != nil || removed != 1 {
		t.Fatalf("PurgeExpired returned %d, %v", removed, err)
	}
}

func TestServiceGetUnknown(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	for _, code := range []string{"", "00000000"} {
		if _, err := svc.Get(context.Background(), code); !errors.Is(err, ErrDocumentNotFound) {
			t.Fatalf("expected ErrDocumentNotFound for %q, got %v", code, err)
		}
	}
}

func TestRandomCode(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9a-f]{8}$`)
	for range 10 {
		code, err := RandomCode()
		if err != nil {
			t.Fatalf("RandomCode: %v", err)
		}
		if !pattern.MatchString(code) {
			t.Fatalf("unexpected code %q", code)
		}
	}
}
