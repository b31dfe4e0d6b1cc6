package share

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	cache "github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/lib/pq"
	"github.com/uptrace/bun"
)

const documentNamespace = "share_document"

// BunRepository persists shared documents through go-repository-bun, with
// optional read caching.
type BunRepository struct {
	db           *bun.DB
	repo         repository.Repository[*Document]
	cacheService cache.CacheService
	cachePrefix  string
}

var _ Repository = (*BunRepository)(nil)

// NewBunRepository creates a share repository without caching.
func NewBunRepository(db *bun.DB) *BunRepository {
	return NewBunRepositoryWithCache(db, nil, nil)
}

// NewBunRepositoryWithCache creates a share repository with caching services.
func NewBunRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunRepository {
	base := NewDocumentRepository(db)
	var svc cache.CacheService
	if cacheService != nil && serializer != nil {
		base = repositorycache.New(base, cacheService, serializer)
		svc = cacheService
	}
	prefix := ""
	if svc != nil {
		prefix = documentNamespace + cache.KeySeparator
	}
	return &BunRepository{
		db:           db,
		repo:         base,
		cacheService: svc,
		cachePrefix:  prefix,
	}
}

// Migrate creates the share table and its expiry index when missing.
func (r *BunRepository) Migrate(ctx context.Context) error {
	if r.db == nil {
		return errors.New("share: bun repository requires a database")
	}
	if _, err := r.db.NewCreateTable().Model((*Document)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("share: create table: %w", err)
	}
	if _, err := r.db.NewCreateIndex().
		Model((*Document)(nil)).
		Index("share_documents_expires_at_idx").
		Column("expires_at").
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("share: create expiry index: %w", err)
	}
	return nil
}

func (r *BunRepository) Create(ctx context.Context, doc *Document) (*Document, error) {
	if r.db != nil {
		exists, err := r.db.NewSelect().Model((*Document)(nil)).Where("code = ?", doc.Code).Exists(ctx)
		if err != nil {
			return nil, fmt.Errorf("share repository error: %w", err)
		}
		if exists {
			return nil, fmt.Errorf("%w: %s", ErrCodeTaken, doc.Code)
		}
	}
	// A concurrent writer can take the code between the check and the insert.
	record, err := r.repo.Create(ctx, doc)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrCodeTaken, doc.Code)
		}
		return nil, err
	}
	return record, nil
}

func (r *BunRepository) GetByCode(ctx context.Context, code string) (*Document, error) {
	record, err := r.repo.GetByIdentifier(ctx, code)
	if err != nil {
		return nil, mapRepositoryError(err, code)
	}
	return record, nil
}

func (r *BunRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	if r.db == nil {
		return 0, errors.New("share: bun repository requires a database")
	}
	res, err := r.db.NewDelete().
		Model((*Document)(nil)).
		Where("expires_at <= ?", now).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("share: delete expired: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		if err := r.InvalidateCache(ctx); err != nil {
			return int(affected), err
		}
	}
	return int(affected), nil
}

func (r *BunRepository) InvalidateCache(ctx context.Context) error {
	if r.cacheService == nil || r.cachePrefix == "" {
		return nil
	}
	return r.cacheService.DeleteByPrefix(ctx, r.cachePrefix)
}

func mapRepositoryError(err error, code string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, code)
	}
	return fmt.Errorf("share repository error: %w", err)
}

func isUniqueViolation(err error) bool {
	if repository.IsDuplicatedKey(err) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}
