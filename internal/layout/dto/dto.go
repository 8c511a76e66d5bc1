package dto

// TillScope selects layouts by their till binding.
type TillScope int

const (
	ScopeAll    TillScope = iota // every layout of the merchant
	ScopeShared                  // scope_till_id IS NULL
	ScopeTill                    // scope_till_id = TillID
)

type LayoutFilters struct {
	MerchantID string
	Scope      TillScope
	TillID     string
	FilterType string  // empty means any
	CategoryID *string // only used with FilterType = category
	IsDefault  *bool
	NameQuery  string
	Page       int
	PageSize   int
}
