package share

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryRepository_CreateGetDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	now := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)

	doc := &Document{Code: "abc", Title: "T", Markdown: "m", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	if _, err := repo.Create(ctx, doc); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := repo.Create(ctx, doc); !errors.Is(err, ErrCodeTaken) {
		t.Fatalf("expected ErrCodeTaken, got %v", err)
	}

	doc.Title = "mutated"
	fetched, err := repo.GetByCode(ctx, "abc")
	if err != nil {
		t.Fatalf("GetByCode() error = %v", err)
	}
	if fetched.Title != "T" {
		t.Fatalf("expected stored copy to be isolated, got %q", fetched.Title)
	}

	if removed, _ := repo.DeleteExpired(ctx, now); removed != 0 {
		t.Fatalf("expected nothing removed before expiry, got %d", removed)
	}
	if removed, _ := repo.DeleteExpired(ctx, now.Add(time.Hour)); removed != 1 {
		t.Fatalf("expected one removal at expiry, got %d", removed)
	}
	if _, err := repo.GetByCode(ctx, "abc"); !errors.Is(err, ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}
