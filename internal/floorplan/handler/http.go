package handler

import (
	"net/http"

	"github.com/fekuna/omnipos-layout-service/internal/auth"
	"github.com/fekuna/omnipos-layout-service/internal/floorplan/dto"
	"github.com/fekuna/omnipos-layout-service/internal/model"
	"github.com/fekuna/omnipos-layout-service/internal/pkg/httpx"
	"github.com/gin-gonic/gin"
)

type roomBody struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type createTableBody struct {
	Name   string  `json:"name" binding:"required"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width" binding:"required"`
	Height float64 `json:"height" binding:"required"`
	Status string  `json:"status"`
}

type positionBody struct {
	X *float64 `json:"x" binding:"required"`
	Y *float64 `json:"y" binding:"required"`
}

type statusBody struct {
	Status string `json:"status" binding:"required"`
}

func (h *FloorPlanHandler) RegisterRoutes(r gin.IRouter) {
	rooms := r.Group("/rooms")
	{
		rooms.GET("", h.httpListRooms)
		rooms.POST("", h.httpCreateRoom)
		rooms.GET("/:id", h.httpGetRoom)
		rooms.PATCH("/:id", h.httpUpdateRoom)
		rooms.DELETE("/:id", h.httpDeleteRoom)
		rooms.GET("/:id/floor-plan", h.httpFloorPlan)
		rooms.GET("/:id/tables", h.httpListTables)
		rooms.POST("/:id/tables", h.httpCreateTable)
	}

	tables := r.Group("/tables")
	{
		tables.GET("/:id", h.httpGetTable)
		tables.PATCH("/:id", h.httpUpdateTable)
		tables.DELETE("/:id", h.httpDeleteTable)
		tables.PATCH("/:id/position", h.httpMoveTable)
		tables.PATCH("/:id/status", h.httpSetStatus)
	}
}

func (h *FloorPlanHandler) httpListRooms(c *gin.Context) {
	rooms, err := h.uc.ListRooms(c.Request.Context(), auth.GetMerchantID(c.Request.Context()))
	if err != nil {
		httpx.Error(c, err)
		return
	}

	data := make([]*Room, len(rooms))
	for i := range rooms {
		data[i] = mapRoomToProto(&rooms[i])
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}

func (h *FloorPlanHandler) httpCreateRoom(c *gin.Context) {
	var body roomBody
	if err := c.ShouldBindJSON(&body); err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}
	if body.Name == nil {
		httpx.BadRequest(c, "name is required")
		return
	}

	room, err := h.uc.CreateRoom(c.Request.Context(), &dto.CreateRoomInput{
		MerchantID:  auth.GetMerchantID(c.Request.Context()),
		Name:        *body.Name,
		Description: body.Description,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapRoomToProto(room))
}

func (h *FloorPlanHandler) httpGetRoom(c *gin.Context) {
	room, err := h.uc.GetRoom(c.Request.Context(), auth.GetMerchantID(c.Request.Context()), c.Param("id"))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, mapRoomToProto(room))
}

func (h *FloorPlanHandler) httpUpdateRoom(c *gin.Context) {
	var body roomBody
	if err := c.ShouldBindJSON(&body); err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}

	room, err := h.uc.UpdateRoom(c.Request.Context(), &dto.UpdateRoomInput{
		ID:          c.Param("id"),
		MerchantID:  auth.GetMerchantID(c.Request.Context()),
		Name:        body.Name,
		Description: body.Description,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, mapRoomToProto(room))
}

func (h *FloorPlanHandler) httpDeleteRoom(c *gin.Context) {
	if err := h.uc.DeleteRoom(c.Request.Context(), auth.GetMerchantID(c.Request.Context()), c.Param("id")); err != nil {
		httpx.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *FloorPlanHandler) httpFloorPlan(c *gin.Context) {
	fp, err := h.uc.GetFloorPlan(c.Request.Context(), auth.GetMerchantID(c.Request.Context()), c.Param("id"))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, mapFloorPlan(fp))
}

func (h *FloorPlanHandler) httpListTables(c *gin.Context) {
	filters := &dto.TableFilters{
		MerchantID: auth.GetMerchantID(c.Request.Context()),
		RoomID:     c.Param("id"),
	}
	if s := c.Query("status"); s != "" {
		st := model.TableStatus(s)
		filters.Status = &st
	}

	tables, err := h.uc.ListTables(c.Request.Context(), filters)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": mapTables(tables)})
}

func (h *FloorPlanHandler) httpCreateTable(c *gin.Context) {
	var body createTableBody
	if err := c.ShouldBindJSON(&body); err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}

	t, err := h.uc.CreateTable(c.Request.Context(), &dto.CreateTableInput{
		MerchantID: auth.GetMerchantID(c.Request.Context()),
		RoomID:     c.Param("id"),
		Name:       body.Name,
		X:          body.X,
		Y:          body.Y,
		Width:      body.Width,
		Height:     body.Height,
		Status:     model.TableStatus(body.Status),
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapTableToProto(t))
}

func (h *FloorPlanHandler) httpGetTable(c *gin.Context) {
	t, err := h.uc.GetTable(c.Request.Context(), auth.GetMerchantID(c.Request.Context()), c.Param("id"))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, mapTableToProto(t))
}

func (h *FloorPlanHandler) httpUpdateTable(c *gin.Context) {
	var body UpdateTableRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}

	t, err := h.uc.UpdateTable(c.Request.Context(), &dto.UpdateTableInput{
		ID:         c.Param("id"),
		MerchantID: auth.GetMerchantID(c.Request.Context()),
		RoomID:     body.RoomId,
		Name:       body.Name,
		Width:      body.Width,
		Height:     body.Height,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, mapTableToProto(t))
}

func (h *FloorPlanHandler) httpDeleteTable(c *gin.Context) {
	if err := h.uc.DeleteTable(c.Request.Context(), auth.GetMerchantID(c.Request.Context()), c.Param("id")); err != nil {
		httpx.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *FloorPlanHandler) httpMoveTable(c *gin.Context) {
	var body positionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}

	t, err := h.uc.MoveTable(c.Request.Context(), &dto.MoveTableInput{
		ID:         c.Param("id"),
		MerchantID: auth.GetMerchantID(c.Request.Context()),
		X:          *body.X,
		Y:          *body.Y,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, mapTableToProto(t))
}

func (h *FloorPlanHandler) httpSetStatus(c *gin.Context) {
	var body statusBody
	if err := c.ShouldBindJSON(&body); err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}

	t, err := h.uc.SetTableStatus(c.Request.Context(), &dto.SetTableStatusInput{
		ID:         c.Param("id"),
		MerchantID: auth.GetMerchantID(c.Request.Context()),
		Status:     model.TableStatus(body.Status),
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, mapTableToProto(t))
}
