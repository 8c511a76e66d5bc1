package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/fekuna/omnipos-layout-service/internal/auth"
	"github.com/fekuna/omnipos-layout-service/internal/layout/dto"
	"github.com/fekuna/omnipos-layout-service/internal/model"
	"github.com/fekuna/omnipos-layout-service/internal/pkg/httpx"
	"github.com/gin-gonic/gin"
)

type itemBody struct {
	ID     string  `json:"id"`
	RefID  string  `json:"ref_id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type saveLayoutBody struct {
	ScopeTillID *string      `json:"scope_till_id"`
	Name        string       `json:"name" binding:"required"`
	Columns     int          `json:"columns"`
	Items       []itemBody   `json:"items"`
	IsDefault   bool         `json:"is_default"`
	FilterType  string       `json:"filter_type"`
	CategoryID  httpx.FlexID `json:"category_id"`
	IsShared    bool         `json:"is_shared"`
}

// patchLayoutBody keeps scope_till_id raw so an explicit null (move to the
// shared pool) differs from an absent field.
type patchLayoutBody struct {
	ScopeTillID json.RawMessage `json:"scope_till_id"`
	Name        *string         `json:"name"`
	Columns     *int            `json:"columns"`
	Items       *[]itemBody     `json:"items"`
	IsDefault   *bool           `json:"is_default"`
	FilterType  *string         `json:"filter_type"`
	CategoryID  *httpx.FlexID   `json:"category_id"`
	IsShared    *bool           `json:"is_shared"`
}

type cloneBody struct {
	TargetTillID *string `json:"target_till_id"`
	Name         string  `json:"name"`
}

type positionBody struct {
	X *float64 `json:"x" binding:"required"`
	Y *float64 `json:"y" binding:"required"`
}

type listBody struct {
	Data     []*Layout `json:"data"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
}

// RegisterRoutes mounts the REST surface under r.
func (h *LayoutHandler) RegisterRoutes(r gin.IRouter) {
	layouts := r.Group("/layouts")
	{
		layouts.GET("", h.httpList)
		layouts.GET("/search", h.httpSearch)
		layouts.GET("/resolve", h.httpResolve)
		layouts.GET("/:id", h.httpGet)
		layouts.POST("", h.httpCreate)
		layouts.PUT("/:id", h.httpReplace)
		layouts.PATCH("/:id", h.httpPatch)
		layouts.DELETE("/:id", h.httpDelete)
		layouts.POST("/:id/default", h.httpSetDefault)
		layouts.DELETE("/:id/default", h.httpClearDefault)
		layouts.POST("/:id/clone", h.httpClone)
		layouts.PATCH("/:id/items/:itemId/position", h.httpMoveItem)
	}
}

func toItems(in []itemBody) []model.LayoutItem {
	out := make([]model.LayoutItem, len(in))
	for i, it := range in {
		out[i] = model.LayoutItem{ID: it.ID, RefID: it.RefID, X: it.X, Y: it.Y, Width: it.Width, Height: it.Height}
	}
	return out
}

func (h *LayoutHandler) httpResolve(c *gin.Context) {
	merchantID := auth.GetMerchantID(c.Request.Context())

	filter, err := model.ParseFilter(c.Query("filter_type"), c.Query("category_id"))
	if err != nil {
		httpx.Error(c, err)
		return
	}

	l, err := h.uc.ResolveLayout(c.Request.Context(), &dto.ResolveInput{
		MerchantID:       merchantID,
		TillID:           optionalString(c.Query("till_id")),
		Filter:           filter,
		ExplicitLayoutID: c.Query("layout_id"),
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, mapModelToProto(l))
}

func (h *LayoutHandler) httpList(c *gin.Context) {
	merchantID := auth.GetMerchantID(c.Request.Context())
	page, pageSize := httpx.Page(c)

	filters := &dto.LayoutFilters{
		MerchantID: merchantID,
		Page:       page,
		PageSize:   pageSize,
	}
	switch c.Query("scope") {
	case "shared":
		filters.Scope = dto.ScopeShared
	case "till":
		tillID := c.Query("till_id")
		if tillID == "" {
			httpx.BadRequest(c, "till_id is required for till scope")
			return
		}
		filters.Scope = dto.ScopeTill
		filters.TillID = tillID
	}
	if ft, cat := c.Query("filter_type"), c.Query("category_id"); ft != "" || cat != "" {
		filter, err := model.ParseFilter(ft, cat)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		filters.FilterType = string(filter.Type)
		filters.CategoryID = filter.CategoryIDPtr()
	}
	if v := c.Query("is_default"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			httpx.BadRequest(c, "invalid is_default")
			return
		}
		filters.IsDefault = &b
	}

	layouts, total, err := h.uc.ListLayouts(c.Request.Context(), filters)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, toListBody(layouts, total, page, pageSize))
}

func (h *LayoutHandler) httpSearch(c *gin.Context) {
	merchantID := auth.GetMerchantID(c.Request.Context())
	page, pageSize := httpx.Page(c)

	layouts, total, err := h.uc.SearchLayouts(c.Request.Context(), merchantID, c.Query("q"), page, pageSize)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, toListBody(layouts, total, page, pageSize))
}

func (h *LayoutHandler) httpGet(c *gin.Context) {
	l, err := h.uc.GetLayout(c.Request.Context(), auth.GetMerchantID(c.Request.Context()), c.Param("id"))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, mapModelToProto(l))
}

func (h *LayoutHandler) httpCreate(c *gin.Context) {
	h.save(c, "", http.StatusCreated)
}

func (h *LayoutHandler) httpReplace(c *gin.Context) {
	h.save(c, c.Param("id"), http.StatusOK)
}

func (h *LayoutHandler) save(c *gin.Context, id string, okStatus int) {
	var body saveLayoutBody
	if err := c.ShouldBindJSON(&body); err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}

	filter, err := model.ParseFilter(body.FilterType, string(body.CategoryID))
	if err != nil {
		httpx.Error(c, err)
		return
	}

	columns := body.Columns
	if columns == 0 {
		columns = model.DefaultGridColumns
	}

	l, err := h.uc.SaveLayout(c.Request.Context(), &dto.SaveLayoutInput{
		ID:          id,
		MerchantID:  auth.GetMerchantID(c.Request.Context()),
		ScopeTillID: body.ScopeTillID,
		Name:        body.Name,
		Columns:     columns,
		Items:       toItems(body.Items),
		IsDefault:   body.IsDefault,
		Filter:      filter,
		IsShared:    body.IsShared,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(okStatus, mapModelToProto(l))
}

func (h *LayoutHandler) httpPatch(c *gin.Context) {
	var body patchLayoutBody
	if err := c.ShouldBindJSON(&body); err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}

	patch := &dto.LayoutPatch{
		Name:      body.Name,
		Columns:   body.Columns,
		IsDefault: body.IsDefault,
		IsShared:  body.IsShared,
	}
	if len(body.ScopeTillID) > 0 {
		var till *string
		if err := json.Unmarshal(body.ScopeTillID, &till); err != nil {
			httpx.BadRequest(c, "invalid scope_till_id")
			return
		}
		patch.ScopeTillID = &till
	}
	if body.Items != nil {
		items := toItems(*body.Items)
		patch.Items = &items
	}
	if body.FilterType != nil || body.CategoryID != nil {
		var ft, cat string
		if body.FilterType != nil {
			ft = *body.FilterType
		}
		if body.CategoryID != nil {
			cat = string(*body.CategoryID)
		}
		filter, err := model.ParseFilter(ft, cat)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		patch.Filter = &filter
	}

	l, err := h.uc.UpdateLayout(c.Request.Context(), auth.GetMerchantID(c.Request.Context()), c.Param("id"), patch)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, mapModelToProto(l))
}

func (h *LayoutHandler) httpDelete(c *gin.Context) {
	if err := h.uc.DeleteLayout(c.Request.Context(), auth.GetMerchantID(c.Request.Context()), c.Param("id")); err != nil {
		httpx.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *LayoutHandler) httpSetDefault(c *gin.Context) {
	l, err := h.uc.SetDefault(c.Request.Context(), auth.GetMerchantID(c.Request.Context()), c.Param("id"))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, mapModelToProto(l))
}

func (h *LayoutHandler) httpClearDefault(c *gin.Context) {
	l, err := h.uc.ClearDefault(c.Request.Context(), auth.GetMerchantID(c.Request.Context()), c.Param("id"))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, mapModelToProto(l))
}

func (h *LayoutHandler) httpClone(c *gin.Context) {
	var body cloneBody
	if err := c.ShouldBindJSON(&body); err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}

	l, err := h.uc.CloneLayout(c.Request.Context(), &dto.CloneInput{
		MerchantID:     auth.GetMerchantID(c.Request.Context()),
		SourceLayoutID: c.Param("id"),
		TargetTillID:   body.TargetTillID,
		Name:           body.Name,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapModelToProto(l))
}

func (h *LayoutHandler) httpMoveItem(c *gin.Context) {
	var body positionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}

	l, err := h.uc.MoveItem(c.Request.Context(), &dto.MoveItemInput{
		MerchantID: auth.GetMerchantID(c.Request.Context()),
		LayoutID:   c.Param("id"),
		ItemID:     c.Param("itemId"),
		X:          *body.X,
		Y:          *body.Y,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, mapModelToProto(l))
}

func toListBody(layouts []model.GridLayout, total, page, pageSize int) listBody {
	data := make([]*Layout, len(layouts))
	for i := range layouts {
		data[i] = mapModelToProto(&layouts[i])
	}
	return listBody{Data: data, Total: total, Page: page, PageSize: pageSize}
}
