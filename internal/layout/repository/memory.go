package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/fekuna/omnipos-layout-service/internal/layout"
	"github.com/fekuna/omnipos-layout-service/internal/layout/dto"
	"github.com/fekuna/omnipos-layout-service/internal/model"
)

var _ layout.Repository = (*MemoryRepository)(nil)

// MemoryRepository keeps layouts in process. It enforces the same
// one-default-per-scope rule as the SQL unique index, so it is usable for
// tests and for running the service without a database.
type MemoryRepository struct {
	mu      sync.RWMutex
	layouts map[string]*model.GridLayout
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{layouts: map[string]*model.GridLayout{}}
}

func (r *MemoryRepository) Create(_ context.Context, l *model.GridLayout) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.layouts[l.ID]; ok {
		return fmt.Errorf("create layout %s: duplicate id: %w", l.ID, model.ErrInvalidInput)
	}
	if l.IsDefault && r.otherDefaultLocked(l) {
		return fmt.Errorf("create layout: %w", model.ErrExclusivityConflict)
	}
	r.layouts[l.ID] = l.Clone()
	return nil
}

func (r *MemoryRepository) FindByID(_ context.Context, id string) (*model.GridLayout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.layouts[id]
	if !ok {
		return nil, fmt.Errorf("layout %s: %w", id, model.ErrNotFound)
	}
	return l.Clone(), nil
}

func (r *MemoryRepository) FindAll(_ context.Context, f *dto.LayoutFilters) ([]model.GridLayout, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.GridLayout
	for _, l := range r.layouts {
		if matches(l, f) {
			out = append(out, *l.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsDefault != out[j].IsDefault {
			return out[i].IsDefault
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})

	total := len(out)
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		start := (page - 1) * f.PageSize
		if start > total {
			start = total
		}
		end := start + f.PageSize
		if end > total {
			end = total
		}
		out = out[start:end]
	}
	return out, total, nil
}

func matches(l *model.GridLayout, f *dto.LayoutFilters) bool {
	if f.MerchantID != "" && l.MerchantID != f.MerchantID {
		return false
	}
	switch f.Scope {
	case dto.ScopeShared:
		if l.ScopeTillID != nil {
			return false
		}
	case dto.ScopeTill:
		if l.ScopeTillID == nil || *l.ScopeTillID != f.TillID {
			return false
		}
	}
	if f.FilterType != "" {
		if string(l.Filter.Type) != f.FilterType {
			return false
		}
		if f.FilterType == string(model.FilterCategory) && f.CategoryID != nil && l.Filter.CategoryID != *f.CategoryID {
			return false
		}
	}
	if f.IsDefault != nil && l.IsDefault != *f.IsDefault {
		return false
	}
	if f.NameQuery != "" && !strings.Contains(strings.ToLower(l.Name), strings.ToLower(f.NameQuery)) {
		return false
	}
	return true
}

func (r *MemoryRepository) Update(_ context.Context, l *model.GridLayout) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkRevisionLocked(l); err != nil {
		return err
	}
	if l.IsDefault && r.otherDefaultLocked(l) {
		return fmt.Errorf("update layout: %w", model.ErrExclusivityConflict)
	}
	l.Revision++
	r.layouts[l.ID] = l.Clone()
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.layouts[id]; !ok {
		return fmt.Errorf("layout %s: %w", id, model.ErrNotFound)
	}
	delete(r.layouts, id)
	return nil
}

func (r *MemoryRepository) ApplyDefault(_ context.Context, l *model.GridLayout, create bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if create {
		if _, ok := r.layouts[l.ID]; ok {
			return fmt.Errorf("create layout %s: duplicate id: %w", l.ID, model.ErrInvalidInput)
		}
	} else if err := r.checkRevisionLocked(l); err != nil {
		return err
	}

	key := l.ScopeKey()
	for id, other := range r.layouts {
		if id != l.ID && other.IsDefault && other.ScopeKey() == key {
			other.IsDefault = false
			other.Revision++
			other.UpdatedAt = l.UpdatedAt
		}
	}

	l.IsDefault = true
	if !create {
		l.Revision++
	}
	r.layouts[l.ID] = l.Clone()
	return nil
}

func (r *MemoryRepository) CountDefaults(_ context.Context, scopeKey string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, l := range r.layouts {
		if l.IsDefault && l.ScopeKey() == scopeKey {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) checkRevisionLocked(l *model.GridLayout) error {
	cur, ok := r.layouts[l.ID]
	if !ok {
		return fmt.Errorf("layout %s: %w", l.ID, model.ErrNotFound)
	}
	if cur.Revision != l.Revision {
		return fmt.Errorf("layout %s revision %d: %w", l.ID, l.Revision, model.ErrOptimisticLock)
	}
	return nil
}

func (r *MemoryRepository) otherDefaultLocked(l *model.GridLayout) bool {
	key := l.ScopeKey()
	for id, other := range r.layouts {
		if id != l.ID && other.IsDefault && other.ScopeKey() == key {
			return true
		}
	}
	return false
}
