package handler

import (
	"time"

	"github.com/fekuna/omnipos-layout-service/internal/model"
)

const ServiceName = "omnipos.layout.v1.LayoutService"

type Item struct {
	Id     string  `json:"id"`
	RefId  string  `json:"ref_id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Layout struct {
	Id          string `json:"id"`
	MerchantId  string `json:"merchant_id"`
	ScopeTillId string `json:"scope_till_id,omitempty"`
	Name        string `json:"name"`
	Columns     int32  `json:"columns"`
	Items       []Item `json:"items"`
	Version     string `json:"version"`
	IsDefault   bool   `json:"is_default"`
	FilterType  string `json:"filter_type"`
	CategoryId  string `json:"category_id,omitempty"`
	IsShared    bool   `json:"is_shared"`
	Revision    int32  `json:"revision"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

type LayoutResponse struct {
	Layout *Layout `json:"layout"`
}

type ResolveLayoutRequest struct {
	TillId           string `json:"till_id"`
	FilterType       string `json:"filter_type"`
	CategoryId       string `json:"category_id"`
	ExplicitLayoutId string `json:"explicit_layout_id"`
}

type SaveLayoutRequest struct {
	Id          string `json:"id"`
	ScopeTillId string `json:"scope_till_id"`
	Name        string `json:"name"`
	Columns     int32  `json:"columns"`
	Items       []Item `json:"items"`
	IsDefault   bool   `json:"is_default"`
	FilterType  string `json:"filter_type"`
	CategoryId  string `json:"category_id"`
	IsShared    bool   `json:"is_shared"`
}

type LayoutIDRequest struct {
	Id string `json:"id"`
}

type ListLayoutsRequest struct {
	Scope      string `json:"scope"` // all | shared | till
	TillId     string `json:"till_id"`
	FilterType string `json:"filter_type"`
	CategoryId string `json:"category_id"`
	Page       int32  `json:"page"`
	PageSize   int32  `json:"page_size"`
}

type SearchLayoutsRequest struct {
	Query    string `json:"query"`
	Page     int32  `json:"page"`
	PageSize int32  `json:"page_size"`
}

type ListLayoutsResponse struct {
	Layouts []*Layout `json:"layouts"`
	Total   int32     `json:"total"`
}

type CloneLayoutRequest struct {
	Id           string `json:"id"`
	TargetTillId string `json:"target_till_id"` // empty clones into the shared scope
	Name         string `json:"name"`
}

type MoveItemRequest struct {
	LayoutId string  `json:"layout_id"`
	ItemId   string  `json:"item_id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

type Empty struct{}

func mapModelToProto(m *model.GridLayout) *Layout {
	if m == nil {
		return nil
	}

	items := make([]Item, len(m.Items))
	for i, it := range m.Items {
		items[i] = Item{Id: it.ID, RefId: it.RefID, X: it.X, Y: it.Y, Width: it.Width, Height: it.Height}
	}

	tillID := ""
	if m.ScopeTillID != nil {
		tillID = *m.ScopeTillID
	}

	return &Layout{
		Id:          m.ID,
		MerchantId:  m.MerchantID,
		ScopeTillId: tillID,
		Name:        m.Name,
		Columns:     int32(m.Columns),
		Items:       items,
		Version:     m.Version,
		IsDefault:   m.IsDefault,
		FilterType:  string(m.Filter.Type),
		CategoryId:  m.Filter.CategoryID,
		IsShared:    m.IsShared,
		Revision:    int32(m.Revision),
		CreatedAt:   formatTime(m.CreatedAt),
		UpdatedAt:   formatTime(m.UpdatedAt),
	}
}

func mapItems(items []Item) []model.LayoutItem {
	out := make([]model.LayoutItem, len(items))
	for i, it := range items {
		out[i] = model.LayoutItem{ID: it.Id, RefID: it.RefId, X: it.X, Y: it.Y, Width: it.Width, Height: it.Height}
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
