package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-layout-service/internal/editsession"
	"github.com/fekuna/omnipos-layout-service/internal/layout/dto"
	"github.com/fekuna/omnipos-layout-service/internal/layout/repository"
	"github.com/fekuna/omnipos-layout-service/internal/model"
	"github.com/fekuna/omnipos-layout-service/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUseCase() (*layoutUseCase, *repository.MemoryRepository) {
	repo := repository.NewMemoryRepository()
	uc := NewLayoutUseCase(repo, nil, nil, logger.NewNop()).(*layoutUseCase)
	return uc, repo
}

// staleRepo rejects the first Update calls as stale.
type staleRepo struct {
	*repository.MemoryRepository
	stale   int
	updates int
}

func (r *staleRepo) Update(ctx context.Context, l *model.GridLayout) error {
	r.updates++
	if r.stale > 0 {
		r.stale--
		return model.ErrOptimisticLock
	}
	return r.MemoryRepository.Update(ctx, l)
}

func TestSaveLayout_CreateAndReplace(t *testing.T) {
	uc, _ := newTestUseCase()
	ctx := context.Background()

	created, err := uc.SaveLayout(ctx, &dto.SaveLayoutInput{
		MerchantID: "m1",
		Name:       "  Lunch ",
		Columns:    5,
		Items:      []model.LayoutItem{{ID: "i1", RefID: "p1", Width: 1, Height: 1}},
		Filter:     model.AllFilter(),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Lunch", created.Name)
	assert.Equal(t, model.CurrentLayoutVersion, created.Version)

	replaced, err := uc.SaveLayout(ctx, &dto.SaveLayoutInput{
		ID:         created.ID,
		MerchantID: "m1",
		Name:       "Dinner",
		Columns:    6,
		Filter:     model.FavoritesFilter(),
	})
	require.NoError(t, err)
	assert.Equal(t, "Dinner", replaced.Name)
	assert.Equal(t, 1, replaced.Revision)
	assert.Equal(t, model.FavoritesFilter(), replaced.Filter)

	_, err = uc.SaveLayout(ctx, &dto.SaveLayoutInput{MerchantID: "m1", Name: "", Columns: 4, Filter: model.AllFilter()})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestSaveLayout_OtherMerchantIsNotFound(t *testing.T) {
	uc, repo := newTestUseCase()
	seedLayout(t, repo, "a", nil, model.AllFilter(), false)

	_, err := uc.SaveLayout(context.Background(), &dto.SaveLayoutInput{
		ID: "a", MerchantID: "m2", Name: "Mine", Columns: 4, Filter: model.AllFilter(),
	})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestSetDefault_ReplacesPreviousDefault(t *testing.T) {
	uc, repo := newTestUseCase()
	ctx := context.Background()

	seedLayout(t, repo, "morning", strPtr("till-1"), model.AllFilter(), true)
	seedLayout(t, repo, "evening", strPtr("till-1"), model.AllFilter(), false)

	got, err := uc.SetDefault(ctx, "m1", "evening")
	require.NoError(t, err)
	assert.True(t, got.IsDefault)

	morning, err := uc.GetLayout(ctx, "m1", "morning")
	require.NoError(t, err)
	assert.False(t, morning.IsDefault)

	resolved, err := uc.ResolveLayout(ctx, &dto.ResolveInput{MerchantID: "m1", TillID: strPtr("till-1"), Filter: model.AllFilter()})
	require.NoError(t, err)
	assert.Equal(t, "evening", resolved.ID)
}

func TestSetDefault_TillNamedLikeSharedScopeKeepsSharedDefault(t *testing.T) {
	uc, repo := newTestUseCase()
	ctx := context.Background()

	seedLayout(t, repo, "house", nil, model.AllFilter(), true)

	for _, till := range []string{"*", "shared", "x|all"} {
		_, err := uc.SaveLayout(ctx, &dto.SaveLayoutInput{
			MerchantID:  "m1",
			ScopeTillID: strPtr(till),
			Name:        "Odd " + till,
			Columns:     4,
			IsDefault:   true,
			Filter:      model.AllFilter(),
		})
		require.NoError(t, err, till)
	}

	house, err := uc.GetLayout(ctx, "m1", "house")
	require.NoError(t, err)
	assert.True(t, house.IsDefault)

	resolved, err := uc.ResolveLayout(ctx, &dto.ResolveInput{MerchantID: "m1", TillID: strPtr("till-9"), Filter: model.AllFilter()})
	require.NoError(t, err)
	assert.Equal(t, "house", resolved.ID)

	for _, till := range []string{"*", "shared", "x|all"} {
		assert.Len(t, defaultsIn(t, repo, model.Scope{MerchantID: "m1", TillID: strPtr(till), Filter: model.AllFilter()}), 1, till)
	}
}

func TestClearDefault_LeavesSiblingsAlone(t *testing.T) {
	uc, repo := newTestUseCase()
	ctx := context.Background()

	seedLayout(t, repo, "a", nil, model.AllFilter(), true)
	seedLayout(t, repo, "b", nil, model.AllFilter(), false)

	got, err := uc.ClearDefault(ctx, "m1", "a")
	require.NoError(t, err)
	assert.False(t, got.IsDefault)

	b, _ := uc.GetLayout(ctx, "m1", "b")
	assert.False(t, b.IsDefault)

	// clearing again is a no-op
	again, err := uc.ClearDefault(ctx, "m1", "a")
	require.NoError(t, err)
	assert.Equal(t, got.Revision, again.Revision)
}

func TestUpdateLayout_MoveToSharedScope(t *testing.T) {
	uc, repo := newTestUseCase()
	ctx := context.Background()

	seedLayout(t, repo, "shared", nil, model.AllFilter(), true)
	seedLayout(t, repo, "till", strPtr("till-1"), model.AllFilter(), true)

	var shared *string
	isDefault := true
	got, err := uc.UpdateLayout(ctx, "m1", "till", &dto.LayoutPatch{ScopeTillID: &shared, IsDefault: &isDefault})
	require.NoError(t, err)
	assert.Nil(t, got.ScopeTillID)

	old, _ := uc.GetLayout(ctx, "m1", "shared")
	assert.False(t, old.IsDefault, "the moved layout took over the shared default")
}

func TestWithRetry_StaleRevisionIsRetried(t *testing.T) {
	repo := &staleRepo{MemoryRepository: repository.NewMemoryRepository(), stale: 2}
	uc := NewLayoutUseCase(repo, nil, nil, logger.NewNop())
	seedLayout(t, repo.MemoryRepository, "a", nil, model.AllFilter(), false)

	name := "Renamed"
	got, err := uc.UpdateLayout(context.Background(), "m1", "a", &dto.LayoutPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, 3, repo.updates)
}

func TestWithRetry_GivesUp(t *testing.T) {
	repo := &staleRepo{MemoryRepository: repository.NewMemoryRepository(), stale: 10}
	uc := NewLayoutUseCase(repo, nil, nil, logger.NewNop())
	seedLayout(t, repo.MemoryRepository, "a", nil, model.AllFilter(), false)

	name := "Renamed"
	_, err := uc.UpdateLayout(context.Background(), "m1", "a", &dto.LayoutPatch{Name: &name})
	assert.ErrorIs(t, err, model.ErrOptimisticLock)
	assert.Equal(t, maxWriteRetries, repo.updates)
}

func TestResolveLayout(t *testing.T) {
	ctx := context.Background()
	till := strPtr("till-1")

	t.Run("till default wins over shared", func(t *testing.T) {
		uc, repo := newTestUseCase()
		seedLayout(t, repo, "shared", nil, model.AllFilter(), true)
		seedLayout(t, repo, "mine", till, model.AllFilter(), true)

		got, err := uc.ResolveLayout(ctx, &dto.ResolveInput{MerchantID: "m1", TillID: till, Filter: model.AllFilter()})
		require.NoError(t, err)
		assert.Equal(t, "mine", got.ID)
	})

	t.Run("falls back to shared default", func(t *testing.T) {
		uc, repo := newTestUseCase()
		seedLayout(t, repo, "shared", nil, model.AllFilter(), true)
		seedLayout(t, repo, "other-till", strPtr("till-2"), model.AllFilter(), true)

		got, err := uc.ResolveLayout(ctx, &dto.ResolveInput{MerchantID: "m1", TillID: till, Filter: model.AllFilter()})
		require.NoError(t, err)
		assert.Equal(t, "shared", got.ID)
	})

	t.Run("explicit pick overrides defaults", func(t *testing.T) {
		uc, repo := newTestUseCase()
		seedLayout(t, repo, "mine", till, model.AllFilter(), true)
		seedLayout(t, repo, "picked", nil, model.FavoritesFilter(), false)

		got, err := uc.ResolveLayout(ctx, &dto.ResolveInput{
			MerchantID: "m1", TillID: till, Filter: model.AllFilter(), ExplicitLayoutID: "picked",
		})
		require.NoError(t, err)
		assert.Equal(t, "picked", got.ID)
	})

	t.Run("missing explicit pick falls through", func(t *testing.T) {
		uc, repo := newTestUseCase()
		seedLayout(t, repo, "mine", till, model.AllFilter(), true)

		got, err := uc.ResolveLayout(ctx, &dto.ResolveInput{
			MerchantID: "m1", TillID: till, Filter: model.AllFilter(), ExplicitLayoutID: "deleted",
		})
		require.NoError(t, err)
		assert.Equal(t, "mine", got.ID)
	})

	t.Run("explicit pick of another merchant is ignored", func(t *testing.T) {
		uc, repo := newTestUseCase()
		l := seedLayout(t, repo, "foreign", nil, model.AllFilter(), false)
		l.MerchantID = "m2"
		require.NoError(t, repo.Update(ctx, l))

		got, err := uc.ResolveLayout(ctx, &dto.ResolveInput{MerchantID: "m1", Filter: model.AllFilter(), ExplicitLayoutID: "foreign"})
		require.NoError(t, err)
		assert.Empty(t, got.ID)
	})

	t.Run("filter is part of the scope", func(t *testing.T) {
		uc, repo := newTestUseCase()
		seedLayout(t, repo, "drinks", till, model.CategoryFilter("drinks"), true)

		got, err := uc.ResolveLayout(ctx, &dto.ResolveInput{MerchantID: "m1", TillID: till, Filter: model.CategoryFilter("food")})
		require.NoError(t, err)
		assert.Empty(t, got.ID)
		assert.Equal(t, model.CategoryFilter("food"), got.Filter)
	})

	t.Run("nothing saved gives the empty layout", func(t *testing.T) {
		uc, _ := newTestUseCase()

		got, err := uc.ResolveLayout(ctx, &dto.ResolveInput{MerchantID: "m1", TillID: till, Filter: model.AllFilter()})
		require.NoError(t, err)
		assert.Equal(t, model.DefaultGridColumns, got.Columns)
		assert.Empty(t, got.Items)
		assert.Equal(t, model.CurrentLayoutVersion, got.Version)
	})

	t.Run("merchant is required", func(t *testing.T) {
		uc, _ := newTestUseCase()
		_, err := uc.ResolveLayout(ctx, &dto.ResolveInput{Filter: model.AllFilter()})
		assert.ErrorIs(t, err, model.ErrInvalidInput)
	})
}

func TestCloneLayout(t *testing.T) {
	ctx := context.Background()

	t.Run("copies into another till as non default", func(t *testing.T) {
		uc, repo := newTestUseCase()
		src := seedLayout(t, repo, "src", strPtr("till-1"), model.FavoritesFilter(), true)
		src.Items = model.LayoutItems{{ID: "i1", RefID: "p1", X: 1, Y: 2, Width: 1, Height: 1}}
		require.NoError(t, repo.Update(ctx, src))

		dup, err := uc.CloneLayout(ctx, &dto.CloneInput{MerchantID: "m1", SourceLayoutID: "src", TargetTillID: strPtr("till-2")})
		require.NoError(t, err)
		assert.NotEqual(t, "src", dup.ID)
		assert.Equal(t, "till-2", *dup.ScopeTillID)
		assert.False(t, dup.IsDefault)
		assert.Equal(t, src.Name, dup.Name)
		assert.Equal(t, model.FavoritesFilter(), dup.Filter)
		require.Len(t, dup.Items, 1)
		assert.Equal(t, "p1", dup.Items[0].RefID)

		orig, _ := uc.GetLayout(ctx, "m1", "src")
		assert.True(t, orig.IsDefault)
	})

	t.Run("shared target", func(t *testing.T) {
		uc, repo := newTestUseCase()
		seedLayout(t, repo, "src", strPtr("till-1"), model.AllFilter(), false)

		dup, err := uc.CloneLayout(ctx, &dto.CloneInput{MerchantID: "m1", SourceLayoutID: "src", Name: "Copy"})
		require.NoError(t, err)
		assert.Nil(t, dup.ScopeTillID)
		assert.Equal(t, "Copy", dup.Name)
	})

	t.Run("same scope is rejected", func(t *testing.T) {
		uc, repo := newTestUseCase()
		seedLayout(t, repo, "src", strPtr("till-1"), model.AllFilter(), false)

		_, err := uc.CloneLayout(ctx, &dto.CloneInput{MerchantID: "m1", SourceLayoutID: "src", TargetTillID: strPtr("till-1")})
		assert.ErrorIs(t, err, model.ErrInvalidTarget)
	})

	t.Run("missing source", func(t *testing.T) {
		uc, _ := newTestUseCase()
		_, err := uc.CloneLayout(ctx, &dto.CloneInput{MerchantID: "m1", SourceLayoutID: "nope"})
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestMoveItem(t *testing.T) {
	uc, repo := newTestUseCase()
	ctx := context.Background()

	l := seedLayout(t, repo, "grid", nil, model.AllFilter(), false)
	l.Items = model.LayoutItems{{ID: "i1", RefID: "p1", Width: 1, Height: 1}}
	require.NoError(t, repo.Update(ctx, l))

	got, err := uc.MoveItem(ctx, &dto.MoveItemInput{MerchantID: "m1", LayoutID: "grid", ItemID: "i1", X: 2, Y: 3})
	require.NoError(t, err)
	assert.Equal(t, model.Point{X: 2, Y: 3}, got.Items[0].Position())

	_, err = uc.MoveItem(ctx, &dto.MoveItemInput{MerchantID: "m1", LayoutID: "grid", ItemID: "i1", X: 0.5, Y: 0})
	assert.ErrorIs(t, err, model.ErrInvalidGeometry)

	_, err = uc.MoveItem(ctx, &dto.MoveItemInput{MerchantID: "m1", LayoutID: "grid", ItemID: "ghost", X: 1, Y: 1})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestGridCommitter_PersistsSessionDrag(t *testing.T) {
	uc, repo := newTestUseCase()
	ctx := context.Background()

	l := seedLayout(t, repo, "grid", nil, model.AllFilter(), false)
	l.Items = model.LayoutItems{{ID: "i1", RefID: "p1", Width: 1, Height: 1}}
	require.NoError(t, repo.Update(ctx, l))

	s := editsession.New(GridCommitter(uc, "m1", "grid"), editsession.Options{
		Canvas:   model.Size{Width: 4, Height: 10},
		Debounce: 5 * time.Millisecond,
		Snap:     1,
	})
	defer s.Close()
	s.Track(l.Items)

	var mu sync.Mutex
	var outcomes []editsession.Outcome
	done := make(chan struct{}, 1)
	s.Subscribe(func(o editsession.Outcome) {
		mu.Lock()
		outcomes = append(outcomes, o)
		mu.Unlock()
		done <- struct{}{}
	})

	require.NoError(t, s.Begin("i1", model.Point{X: 0.4, Y: 0.4}))
	_, err := s.Move(model.Point{X: 9.2, Y: 2.6})
	require.NoError(t, err)
	require.NoError(t, s.End())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("commit was never delivered")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, outcomes, 1)
	assert.NoError(t, outcomes[0].Err)
	assert.Equal(t, model.Point{X: 3, Y: 2}, outcomes[0].Position)

	stored, err := uc.GetLayout(ctx, "m1", "grid")
	require.NoError(t, err)
	assert.Equal(t, model.Point{X: 3, Y: 2}, stored.Items[0].Position())
}

func TestDeleteLayout(t *testing.T) {
	uc, repo := newTestUseCase()
	ctx := context.Background()
	seedLayout(t, repo, "a", nil, model.AllFilter(), true)

	assert.ErrorIs(t, uc.DeleteLayout(ctx, "m2", "a"), model.ErrNotFound)
	require.NoError(t, uc.DeleteLayout(ctx, "m1", "a"))

	got, err := uc.ResolveLayout(ctx, &dto.ResolveInput{MerchantID: "m1", Filter: model.AllFilter(), ExplicitLayoutID: "a"})
	require.NoError(t, err)
	assert.Empty(t, got.ID)
}

func TestSearchLayouts_FallsBackToRepository(t *testing.T) {
	uc, repo := newTestUseCase()
	seedLayout(t, repo, "a", nil, model.AllFilter(), false)
	b := seedLayout(t, repo, "b", nil, model.AllFilter(), false)
	b.Name = "Breakfast menu"
	require.NoError(t, repo.Update(context.Background(), b))

	got, total, err := uc.SearchLayouts(context.Background(), "m1", "breakfast", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)

	_, _, err = uc.SearchLayouts(context.Background(), "", "x", 1, 10)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestLayoutDocument_CarriesNoDefaultFlag(t *testing.T) {
	l := &model.GridLayout{
		BaseModel:   model.BaseModel{ID: "l1"},
		MerchantID:  "m1",
		ScopeTillID: strPtr("till-1"),
		Name:        "Bar",
		IsDefault:   true,
		Filter:      model.CategoryFilter("c1"),
	}

	b, err := json.Marshal(newLayoutDocument(l))
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &doc))

	assert.NotContains(t, doc, "is_default")
	assert.Equal(t, "Bar", doc["name"])
	assert.Equal(t, "category", doc["filter_type"])
	assert.Equal(t, "c1", doc["category_id"])
}
