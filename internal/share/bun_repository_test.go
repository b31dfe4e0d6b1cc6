package share_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-feishu2md/internal/identity"
	"github.com/goliatone/go-feishu2md/internal/share"
	"github.com/goliatone/go-feishu2md/pkg/testsupport"
)

func TestBunRepository_WithService(t *testing.T) {
	ctx := context.Background()
	db := testsupport.NewSQLiteBunDB(t)

	repo := share.NewBunRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	now := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	codes := []string{"0a0b0c0d", "1a1b1c1d"}
	svc := share.NewService(repo,
		share.WithTTL(time.Hour),
		share.WithClock(func() time.Time { return now }),
		share.WithCodeGenerator(func() (string, error) {
			code := codes[0]
			codes = codes[1:]
			return code, nil
		}),
	)

	first, err := svc.Save(ctx, share.SaveInput{Title: "First", Markdown: "# First\n"})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	now = now.Add(30 * time.Minute)
	if _, err := svc.Save(ctx, share.SaveInput{Title: "Second", Markdown: "# Second\n"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	fetched, err := svc.Get(ctx, first.Code)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if fetched.Title != "First" || fetched.Markdown != "# First\n" {
		t.Fatalf("unexpected document: %+v", fetched)
	}

	now = now.Add(45 * time.Minute)
	removed, err := svc.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("PurgeExpired() error = %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected one expired document, got %d", removed)
	}
	if _, err := repo.GetByCode(ctx, first.Code); !errors.Is(err, share.ErrDocumentNotFound) {
		t.Fatalf("expected purged document to be gone, got %v", err)
	}
	if _, err := svc.Get(ctx, "1a1b1c1d"); err != nil {
		t.Fatalf("expected second document to survive, got %v", err)
	}
}

func TestBunRepository_WithCache(t *testing.T) {
	ctx := context.Background()
	db := testsupport.NewSQLiteBunDB(t)

	cacheCfg := repocache.DefaultConfig()
	cacheCfg.TTL = time.Minute
	cacheSvc, err := repocache.NewCacheService(cacheCfg)
	if err != nil {
		t.Fatalf("cache service: %v", err)
	}
	repo := share.NewBunRepositoryWithCache(db, cacheSvc, repocache.NewDefaultKeySerializer())
	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	now := time.Now().UTC()
	doc := &share.Document{ID: identity.ShareUUID("feedface"), Code: "feedface", Title: "Cached", Markdown: "x", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	if _, err := repo.Create(ctx, doc); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := repo.Create(ctx, &share.Document{ID: identity.ShareUUID("dup"), Code: "feedface", Title: "dup", Markdown: "y", CreatedAt: now, ExpiresAt: now}); !errors.Is(err, share.ErrCodeTaken) {
		t.Fatalf("expected ErrCodeTaken, got %v", err)
	}

	for range 2 {
		fetched, err := repo.GetByCode(ctx, "feedface")
		if err != nil {
			t.Fatalf("GetByCode() error = %v", err)
		}
		if fetched.Title != "Cached" {
			t.Fatalf("unexpected title %q", fetched.Title)
		}
	}
	if err := repo.InvalidateCache(ctx); err != nil {
		t.Fatalf("InvalidateCache() error = %v", err)
	}
}

// claimCodeHook inserts a document with the same code right after the
// repository checks whether the code is free.
type claimCodeHook struct {
	db    *bun.DB
	code  string
	fired bool
}

func (h *claimCodeHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *claimCodeHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if h.fired || !strings.Contains(event.Query, "EXISTS") {
		return
	}
	h.fired = true
	now := time.Now().UTC()
	_, _ = h.db.NewInsert().Model(&share.Document{
		ID:        identity.ShareUUID(h.code),
		Code:      h.code,
		Title:     "Other writer",
		Markdown:  "taken",
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}).Exec(ctx)
}

func TestBunRepository_CreateReportsConcurrentCodeClaim(t *testing.T) {
	ctx := context.Background()
	db := testsupport.NewSQLiteBunDB(t)
	repo := share.NewBunRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	hook := &claimCodeHook{db: db, code: "race0001"}
	db.AddQueryHook(hook)

	now := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	_, err := repo.Create(ctx, &share.Document{
		ID:        identity.ShareUUID("race0001"),
		Code:      "race0001",
		Title:     "Mine",
		Markdown:  "# Mine\n",
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	})
	if !hook.fired {
		t.Fatal("expected the code to be claimed after the existence check")
	}
	if !errors.Is(err, share.ErrCodeTaken) {
		t.Fatalf("expected ErrCodeTaken, got %v", err)
	}
}

func TestBunRepository_ServiceRetriesConcurrentCodeClaim(t *testing.T) {
	ctx := context.Background()
	db := testsupport.NewSQLiteBunDB(t)
	repo := share.NewBunRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	db.AddQueryHook(&claimCodeHook{db: db, code: "race0001"})

	codes := []string{"race0001", "free0002"}
	svc := share.NewService(repo, share.WithCodeGenerator(func() (string, error) {
		code := codes[0]
		codes = codes[1:]
		return code, nil
	}))

	doc, err := svc.Save(ctx, share.SaveInput{Title: "Mine", Markdown: "# Mine\n"})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if doc.Code != "free0002" {
		t.Fatalf("expected retry with the next code, got %q", doc.Code)
	}
}
