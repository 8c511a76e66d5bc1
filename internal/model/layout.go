package model

import (
	"fmt"
	"strconv"
	"strings"
)

// CurrentLayoutVersion is stamped on every layout written by this service.
const CurrentLayoutVersion = "2"

const DefaultGridColumns = 4

type FilterType string

const (
	FilterAll       FilterType = "all"
	FilterFavorites FilterType = "favorites"
	FilterCategory  FilterType = "category"
)

// Filter selects which products a grid shows. Only the category variant
// carries a payload.
type Filter struct {
	Type       FilterType `json:"filter_type"`
	CategoryID string     `json:"category_id,omitempty"`
}

func AllFilter() Filter       { return Filter{Type: FilterAll} }
func FavoritesFilter() Filter { return Filter{Type: FilterFavorites} }
func CategoryFilter(categoryID string) Filter {
	return Filter{Type: FilterCategory, CategoryID: categoryID}
}

func (f Filter) Validate() error {
	switch f.Type {
	case FilterAll, FilterFavorites:
		if f.CategoryID != "" {
			return fmt.Errorf("%w: filter %q does not take a category", ErrInvalidInput, f.Type)
		}
	case FilterCategory:
		if strings.TrimSpace(f.CategoryID) == "" {
			return fmt.Errorf("%w: category filter requires a category id", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown filter type %q", ErrInvalidInput, f.Type)
	}
	return nil
}

func (f Filter) String() string {
	if f.Type == FilterCategory {
		return string(f.Type) + ":" + f.CategoryID
	}
	return string(f.Type)
}

// CategoryIDPtr is the nullable column form of the category payload.
func (f Filter) CategoryIDPtr() *string {
	if f.Type != FilterCategory {
		return nil
	}
	id := f.CategoryID
	return &id
}

// Scope identifies the set of layouts that compete for default status.
// A nil TillID is the shared scope.
type Scope struct {
	MerchantID string
	TillID     *string
	Filter     Filter
}

func (s Scope) Shared() bool { return s.TillID == nil }

// Key is the canonical string form, stored in the scope_key column. Every
// caller-supplied id is length-prefixed, so two distinct scopes never share
// a key whatever the ids contain: "2:m1|shared|all",
// "2:m1|till:6:till-1|category:2:c1".
func (s Scope) Key() string {
	var b strings.Builder
	writeKeyPart(&b, s.MerchantID)
	b.WriteString("|")
	if s.TillID == nil {
		b.WriteString("shared")
	} else {
		b.WriteString("till:")
		writeKeyPart(&b, *s.TillID)
	}
	b.WriteString("|")
	b.WriteString(string(s.Filter.Type))
	if s.Filter.Type == FilterCategory {
		b.WriteString(":")
		writeKeyPart(&b, s.Filter.CategoryID)
	}
	return b.String()
}

func writeKeyPart(b *strings.Builder, part string) {
	b.WriteString(strconv.Itoa(len(part)))
	b.WriteString(":")
	b.WriteString(part)
}

// SameTarget reports whether two scopes point at the same till (or both at
// the shared pool) for the same merchant.
func (s Scope) SameTarget(o Scope) bool {
	if s.MerchantID != o.MerchantID {
		return false
	}
	if s.TillID == nil || o.TillID == nil {
		return s.TillID == nil && o.TillID == nil
	}
	return *s.TillID == *o.TillID
}

type GridLayout struct {
	BaseModel
	MerchantID  string      `json:"merchant_id"`
	ScopeTillID *string     `json:"scope_till_id"`
	Name        string      `json:"name"`
	Columns     int         `json:"columns"`
	Items       LayoutItems `json:"items"`
	Version     string      `json:"version"`
	IsDefault   bool        `json:"is_default"`
	Filter      Filter      `json:"filter"`
	IsShared    bool        `json:"is_shared"`
	Revision    int         `json:"revision"`
}

func (l *GridLayout) Scope() Scope {
	return Scope{MerchantID: l.MerchantID, TillID: l.ScopeTillID, Filter: l.Filter}
}

func (l *GridLayout) ScopeKey() string { return l.Scope().Key() }

// Validate checks everything that must hold before a layout is written.
func (l *GridLayout) Validate() error {
	if strings.TrimSpace(l.MerchantID) == "" {
		return fmt.Errorf("%w: merchant id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("%w: layout name is required", ErrInvalidInput)
	}
	if l.Columns <= 0 {
		return fmt.Errorf("%w: columns must be positive", ErrInvalidInput)
	}
	if l.ScopeTillID != nil && *l.ScopeTillID == "" {
		return fmt.Errorf("%w: till id must not be empty", ErrInvalidInput)
	}
	if err := l.Filter.Validate(); err != nil {
		return err
	}
	for _, it := range l.Items {
		if err := it.ValidateCell(); err != nil {
			return err
		}
	}
	return nil
}

// ItemIndex returns the position of an item in Items or -1.
func (l *GridLayout) ItemIndex(itemID string) int {
	for i := range l.Items {
		if l.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy.
func (l *GridLayout) Clone() *GridLayout {
	c := *l
	if l.ScopeTillID != nil {
		till := *l.ScopeTillID
		c.ScopeTillID = &till
	}
	c.Items = append(LayoutItems(nil), l.Items...)
	if c.Items == nil {
		c.Items = LayoutItems{}
	}
	return &c
}

// EmptyLayout is the built-in fallback when no default exists for a scope.
func EmptyLayout(scope Scope) *GridLayout {
	return &GridLayout{
		MerchantID:  scope.MerchantID,
		ScopeTillID: scope.TillID,
		Name:        "Default",
		Columns:     DefaultGridColumns,
		Items:       LayoutItems{},
		Version:     CurrentLayoutVersion,
		Filter:      scope.Filter,
	}
}

// Legacy clients encode the filter in the category id alone.
const (
	legacyAllCategory       = "0"
	legacyFavoritesCategory = "-1"
)

// ParseFilter builds a Filter from wire fields. With no explicit type the
// legacy sentinel ids select all or favorites; any other id is a category.
func ParseFilter(filterType, categoryID string) (Filter, error) {
	var f Filter
	switch FilterType(filterType) {
	case "":
		switch categoryID {
		case "", legacyAllCategory:
			f = AllFilter()
		case legacyFavoritesCategory:
			f = FavoritesFilter()
		default:
			f = CategoryFilter(categoryID)
		}
	case FilterAll:
		f = AllFilter()
	case FilterFavorites:
		f = FavoritesFilter()
	case FilterCategory:
		f = CategoryFilter(categoryID)
	default:
		f = Filter{Type: FilterType(filterType)}
	}
	return f, f.Validate()
}
