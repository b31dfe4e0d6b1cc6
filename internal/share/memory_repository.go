package share

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryRepository stores shared documents in-memory.
type MemoryRepository struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository constructs an in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		docs: make(map[string]*Document),
	}
}

// Create stores a copy of doc. Codes are unique.
func (r *MemoryRepository) Create(_ context.Context, doc *Document) (*Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[doc.Code]; ok {
		return nil, fmt.Errorf("%w: %s", ErrCodeTaken, doc.Code)
	}
	r.docs[doc.Code] = doc.clone()
	return doc.clone(), nil
}

// GetByCode returns the stored document or ErrDocumentNotFound.
func (r *MemoryRepository) GetByCode(_ context.Context, code string) (*Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, code)
	}
	return doc.clone(), nil
}

func (r *MemoryRepository) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for code, doc := range r.docs {
		if doc.Expired(now) {
			delete(r.docs, code)
			removed++
		}
	}
	return removed, nil
}
