package dto

import "github.com/fekuna/omnipos-layout-service/internal/model"

// SaveLayoutInput creates a layout when ID is empty, otherwise replaces the
// editable fields of an existing one.
type SaveLayoutInput struct {
	ID          string
	MerchantID  string
	ScopeTillID *string
	Name        string
	Columns     int
	Items       []model.LayoutItem
	IsDefault   bool
	Filter      model.Filter
	IsShared    bool
}

// LayoutPatch updates only the non-nil fields.
type LayoutPatch struct {
	Name        *string
	ScopeTillID **string
	Columns     *int
	Items       *[]model.LayoutItem
	IsDefault   *bool
	Filter      *model.Filter
	IsShared    *bool
}

type ResolveInput struct {
	MerchantID       string
	TillID           *string
	Filter           model.Filter
	ExplicitLayoutID string
}

type CloneInput struct {
	MerchantID     string
	SourceLayoutID string
	TargetTillID   *string // nil clones into the shared scope
	Name           string  // optional, defaults to the source name
}

type MoveItemInput struct {
	MerchantID string
	LayoutID   string
	ItemID     string
	X          float64
	Y          float64
}
