package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-layout-service/internal/layout/dto"
	"github.com/fekuna/omnipos-layout-service/internal/layout/repository"
	"github.com/fekuna/omnipos-layout-service/internal/model"
	"github.com/fekuna/omnipos-layout-service/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func seedLayout(t *testing.T, repo *repository.MemoryRepository, id string, till *string, filter model.Filter, isDefault bool) *model.GridLayout {
	t.Helper()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	l := &model.GridLayout{
		BaseModel:   model.BaseModel{ID: id, CreatedAt: now, UpdatedAt: now},
		MerchantID:  "m1",
		ScopeTillID: till,
		Name:        "Layout " + id,
		Columns:     4,
		Items:       model.LayoutItems{},
		Version:     model.CurrentLayoutVersion,
		IsDefault:   isDefault,
		Filter:      filter,
	}
	require.NoError(t, repo.Create(context.Background(), l))
	return l
}

func defaultsIn(t *testing.T, repo *repository.MemoryRepository, scope model.Scope) []string {
	t.Helper()
	isDefault := true
	f := &dto.LayoutFilters{
		MerchantID: scope.MerchantID,
		Scope:      dto.ScopeShared,
		FilterType: string(scope.Filter.Type),
		CategoryID: scope.Filter.CategoryIDPtr(),
		IsDefault:  &isDefault,
	}
	if scope.TillID != nil {
		f.Scope = dto.ScopeTill
		f.TillID = *scope.TillID
	}
	layouts, _, err := repo.FindAll(context.Background(), f)
	require.NoError(t, err)
	ids := make([]string, len(layouts))
	for i, l := range layouts {
		ids[i] = l.ID
	}
	return ids
}

// conflictRepo fails the first ApplyDefault calls with a conflict.
type conflictRepo struct {
	*repository.MemoryRepository
	conflicts int
	calls     int
}

func (r *conflictRepo) ApplyDefault(ctx context.Context, l *model.GridLayout, create bool) error {
	r.calls++
	if r.conflicts > 0 {
		r.conflicts--
		return model.ErrExclusivityConflict
	}
	return r.MemoryRepository.ApplyDefault(ctx, l, create)
}

// overcountRepo reports extra defaults for the first n counts.
type overcountRepo struct {
	*repository.MemoryRepository
	overcounts int
	applies    int
}

func (r *overcountRepo) ApplyDefault(ctx context.Context, l *model.GridLayout, create bool) error {
	r.applies++
	return r.MemoryRepository.ApplyDefault(ctx, l, create)
}

func (r *overcountRepo) CountDefaults(ctx context.Context, key string) (int, error) {
	n, err := r.MemoryRepository.CountDefaults(ctx, key)
	if r.overcounts > 0 {
		r.overcounts--
		n++
	}
	return n, err
}

type failingLocker struct{ err error }

func (l failingLocker) Lock(context.Context, string) (func(), error) { return nil, l.err }

func TestEnforcer_ApplyDefaultKeepsOneDefaultPerScope(t *testing.T) {
	repo := repository.NewMemoryRepository()
	e := NewEnforcer(repo, nil, logger.NewNop())
	ctx := context.Background()

	seedLayout(t, repo, "a", nil, model.AllFilter(), true)
	seedLayout(t, repo, "b", nil, model.AllFilter(), false)
	seedLayout(t, repo, "fav", nil, model.FavoritesFilter(), true)

	b, err := repo.FindByID(ctx, "b")
	require.NoError(t, err)
	require.NoError(t, e.ApplyDefault(ctx, b, false))

	assert.Equal(t, []string{"b"}, defaultsIn(t, repo, model.Scope{MerchantID: "m1", Filter: model.AllFilter()}))
	assert.Equal(t, []string{"fav"}, defaultsIn(t, repo, model.Scope{MerchantID: "m1", Filter: model.FavoritesFilter()}),
		"a different filter is a different scope")
}

func TestEnforcer_ScopeChangeLeavesOldScope(t *testing.T) {
	repo := repository.NewMemoryRepository()
	e := NewEnforcer(repo, nil, logger.NewNop())
	ctx := context.Background()

	seedLayout(t, repo, "shared-default", nil, model.AllFilter(), true)
	seedLayout(t, repo, "till-default", strPtr("till-1"), model.AllFilter(), true)
	seedLayout(t, repo, "mover", nil, model.AllFilter(), false)

	mover, err := repo.FindByID(ctx, "mover")
	require.NoError(t, err)
	mover.ScopeTillID = strPtr("till-1")
	require.NoError(t, e.ApplyDefault(ctx, mover, false))

	assert.Equal(t, []string{"shared-default"}, defaultsIn(t, repo, model.Scope{MerchantID: "m1", Filter: model.AllFilter()}))
	assert.Equal(t, []string{"mover"}, defaultsIn(t, repo, model.Scope{MerchantID: "m1", TillID: strPtr("till-1"), Filter: model.AllFilter()}))
}

func TestEnforcer_RetriesOnceOnConflict(t *testing.T) {
	repo := &conflictRepo{MemoryRepository: repository.NewMemoryRepository(), conflicts: 1}
	e := NewEnforcer(repo, nil, logger.NewNop())

	l := &model.GridLayout{
		BaseModel:  model.BaseModel{ID: "new"},
		MerchantID: "m1",
		Name:       "New",
		Columns:    4,
		Filter:     model.AllFilter(),
		IsDefault:  true,
	}
	require.NoError(t, e.ApplyDefault(context.Background(), l, true))
	assert.Equal(t, 2, repo.calls)
}

func TestEnforcer_SurfacesPersistentConflict(t *testing.T) {
	repo := &conflictRepo{MemoryRepository: repository.NewMemoryRepository(), conflicts: 5}
	e := NewEnforcer(repo, nil, logger.NewNop())

	l := &model.GridLayout{BaseModel: model.BaseModel{ID: "new"}, MerchantID: "m1", Name: "N", Columns: 4, Filter: model.AllFilter()}
	err := e.ApplyDefault(context.Background(), l, true)
	assert.ErrorIs(t, err, model.ErrExclusivityConflict)
	assert.Equal(t, 2, repo.calls)
}

func TestEnforcer_CorrectsViolationFoundAfterWrite(t *testing.T) {
	mem := repository.NewMemoryRepository()
	repo := &overcountRepo{MemoryRepository: mem, overcounts: 1}
	e := NewEnforcer(repo, nil, logger.NewNop())

	seedLayout(t, mem, "a", nil, model.AllFilter(), false)
	a, _ := mem.FindByID(context.Background(), "a")

	require.NoError(t, e.ApplyDefault(context.Background(), a, false))
	assert.Equal(t, 2, repo.applies, "one corrective re-apply")
}

func TestEnforcer_FailedCorrectionIsSurfaced(t *testing.T) {
	mem := repository.NewMemoryRepository()
	repo := &overcountRepo{MemoryRepository: mem, overcounts: 2}
	e := NewEnforcer(repo, nil, logger.NewNop())

	seedLayout(t, mem, "a", nil, model.AllFilter(), false)
	a, _ := mem.FindByID(context.Background(), "a")

	err := e.ApplyDefault(context.Background(), a, false)
	assert.ErrorIs(t, err, model.ErrExclusivityConflict)
}

func TestEnforcer_LockFailureFallsBackToStore(t *testing.T) {
	repo := repository.NewMemoryRepository()
	e := NewEnforcer(repo, failingLocker{err: errors.New("redis down")}, logger.NewNop())

	seedLayout(t, repo, "a", nil, model.AllFilter(), false)
	a, _ := repo.FindByID(context.Background(), "a")
	require.NoError(t, e.ApplyDefault(context.Background(), a, false))
}

func TestEnforcer_CanceledContextStops(t *testing.T) {
	repo := repository.NewMemoryRepository()
	e := NewEnforcer(repo, failingLocker{err: context.Canceled}, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := &model.GridLayout{BaseModel: model.BaseModel{ID: "x"}, MerchantID: "m1", Name: "X", Columns: 4, Filter: model.AllFilter()}
	err := e.ApplyDefault(ctx, l, true)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEnforcer_ConcurrentWritersLeaveOneDefault(t *testing.T) {
	repo := repository.NewMemoryRepository()
	e := NewEnforcer(repo, nil, logger.NewNop())

	ids := []string{"a", "b", "c", "d", "e"}
	for _, id := range ids {
		seedLayout(t, repo, id, strPtr("till-1"), model.AllFilter(), false)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for {
				l, err := repo.FindByID(context.Background(), id)
				if err != nil {
					return
				}
				err = e.ApplyDefault(context.Background(), l, false)
				if !errors.Is(err, model.ErrOptimisticLock) {
					return
				}
			}
		}(id)
	}
	wg.Wait()

	scope := model.Scope{MerchantID: "m1", TillID: strPtr("till-1"), Filter: model.AllFilter()}
	assert.Len(t, defaultsIn(t, repo, scope), 1)
}
