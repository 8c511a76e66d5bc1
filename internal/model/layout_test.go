package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name       string
		filterType string
		categoryID string
		want       Filter
		wantErr    bool
	}{
		{"empty is all", "", "", AllFilter(), false},
		{"legacy all", "", "0", AllFilter(), false},
		{"legacy favorites", "", "-1", FavoritesFilter(), false},
		{"bare category id", "", "cat-9", CategoryFilter("cat-9"), false},
		{"explicit favorites", "favorites", "", FavoritesFilter(), false},
		{"explicit category", "category", "cat-1", CategoryFilter("cat-1"), false},
		{"category without id", "category", "", Filter{}, true},
		{"all ignores category", "all", "cat-1", AllFilter(), false},
		{"unknown type", "popular", "", Filter{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFilter(tt.filterType, tt.categoryID)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScopeKey(t *testing.T) {
	shared := Scope{MerchantID: "m1", Filter: AllFilter()}
	till := Scope{MerchantID: "m1", TillID: strPtr("till-1"), Filter: CategoryFilter("c1")}

	assert.Equal(t, "2:m1|shared|all", shared.Key())
	assert.Equal(t, "2:m1|till:6:till-1|category:2:c1", till.Key())
	assert.NotEqual(t, till.Key(), Scope{MerchantID: "m1", TillID: strPtr("till-1"), Filter: CategoryFilter("c2")}.Key())
	assert.True(t, shared.Shared())
	assert.False(t, till.Shared())
}

func TestScopeKey_DistinctScopesNeverCollide(t *testing.T) {
	scopes := []Scope{
		{MerchantID: "m1", Filter: AllFilter()},
		{MerchantID: "m1", TillID: strPtr("*"), Filter: AllFilter()},
		{MerchantID: "m1", TillID: strPtr("shared"), Filter: AllFilter()},
		{MerchantID: "m1", TillID: strPtr("x|all"), Filter: AllFilter()},
		{MerchantID: "m1|x", Filter: AllFilter()},
		{MerchantID: "m1|shared", Filter: AllFilter()},
		{MerchantID: "m1", TillID: strPtr("x"), Filter: AllFilter()},
		{MerchantID: "m1", TillID: strPtr("x"), Filter: FavoritesFilter()},
		{MerchantID: "m1", TillID: strPtr("x"), Filter: CategoryFilter("c|1")},
		{MerchantID: "m1", TillID: strPtr("x|category:c"), Filter: CategoryFilter("1")},
		{MerchantID: "m1", Filter: CategoryFilter("all")},
	}

	seen := make(map[string]int)
	for i, s := range scopes {
		key := s.Key()
		if j, ok := seen[key]; ok {
			t.Fatalf("scopes %d and %d share key %q", j, i, key)
		}
		seen[key] = i
	}
}

func TestScopeSameTarget(t *testing.T) {
	a := Scope{MerchantID: "m1", TillID: strPtr("t1")}
	assert.True(t, a.SameTarget(Scope{MerchantID: "m1", TillID: strPtr("t1")}))
	assert.False(t, a.SameTarget(Scope{MerchantID: "m1", TillID: strPtr("t2")}))
	assert.False(t, a.SameTarget(Scope{MerchantID: "m1"}))
	assert.False(t, a.SameTarget(Scope{MerchantID: "m2", TillID: strPtr("t1")}))
	assert.True(t, Scope{MerchantID: "m1"}.SameTarget(Scope{MerchantID: "m1"}))
}

func TestGridLayoutValidate(t *testing.T) {
	valid := func() *GridLayout {
		return &GridLayout{
			MerchantID: "m1",
			Name:       "Lunch",
			Columns:    4,
			Items:      LayoutItems{{ID: "i1", X: 0, Y: 0, Width: 1, Height: 1}},
			Filter:     AllFilter(),
		}
	}

	require.NoError(t, valid().Validate())

	l := valid()
	l.Name = "  "
	assert.ErrorIs(t, l.Validate(), ErrInvalidInput)

	l = valid()
	l.Columns = 0
	assert.ErrorIs(t, l.Validate(), ErrInvalidInput)

	l = valid()
	l.ScopeTillID = strPtr("")
	assert.ErrorIs(t, l.Validate(), ErrInvalidInput)

	l = valid()
	l.Items[0].Width = 0
	assert.ErrorIs(t, l.Validate(), ErrInvalidGeometry)

	// overlapping items are allowed
	l = valid()
	l.Items = append(l.Items, LayoutItem{ID: "i2", X: 0, Y: 0, Width: 2, Height: 2})
	assert.NoError(t, l.Validate())
}

func TestGridLayoutClone(t *testing.T) {
	orig := &GridLayout{ScopeTillID: strPtr("t1"), Items: LayoutItems{{ID: "a", Width: 1, Height: 1}}}
	c := orig.Clone()

	*c.ScopeTillID = "t2"
	c.Items[0].X = 5

	assert.Equal(t, "t1", *orig.ScopeTillID)
	assert.Equal(t, 0.0, orig.Items[0].X)
}

func TestEmptyLayout(t *testing.T) {
	l := EmptyLayout(Scope{MerchantID: "m1", TillID: strPtr("t1"), Filter: FavoritesFilter()})
	assert.Equal(t, DefaultGridColumns, l.Columns)
	assert.Empty(t, l.Items)
	assert.Equal(t, CurrentLayoutVersion, l.Version)
	assert.False(t, l.IsDefault)
	assert.Equal(t, FavoritesFilter(), l.Filter)
	assert.Empty(t, l.ID)
}
