package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fekuna/omnipos-layout-service/internal/auth"
	"github.com/fekuna/omnipos-layout-service/internal/floorplan/repository"
	"github.com/fekuna/omnipos-layout-service/internal/floorplan/usecase"
	"github.com/fekuna/omnipos-layout-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-layout-service/internal/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func newTestHandler() *FloorPlanHandler {
	uc := usecase.NewFloorPlanUseCase(repository.NewMemoryRepository(), logger.NewNop())
	return NewFloorPlanHandler(uc, logger.NewNop())
}

func newRouter(h *FloorPlanHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r.Group("/api/v1", middleware.MerchantContext()))
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body interface{}, out interface{}) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(auth.MerchantHeader, "m1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if out != nil && w.Code < 300 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
	}
	return w.Code
}

func TestHTTP_FloorPlanFlow(t *testing.T) {
	r := newRouter(newTestHandler())

	var room Room
	require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/api/v1/rooms", map[string]interface{}{"name": "Patio"}, &room))

	var t1, t2 Table
	require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/api/v1/rooms/"+room.Id+"/tables",
		map[string]interface{}{"name": "T1", "x": 100, "y": 100, "width": 80, "height": 80}, &t1))
	require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/api/v1/rooms/"+room.Id+"/tables",
		map[string]interface{}{"name": "T2", "x": 300, "y": 100, "width": 80, "height": 80}, &t2))
	assert.Equal(t, "available", t1.Status)

	var moved Table
	require.Equal(t, http.StatusOK, do(t, r, http.MethodPatch, "/api/v1/tables/"+t2.Id+"/position",
		map[string]interface{}{"x": 400, "y": 260}, &moved))
	assert.Equal(t, 400.0, moved.X)

	var plan FloorPlanResponse
	require.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/api/v1/rooms/"+room.Id+"/floor-plan", nil, &plan))
	assert.Len(t, plan.Tables, 2)
	assert.Equal(t, Bounds{MinX: 60, MinY: 60, MaxX: 520, MaxY: 380}, plan.Bounds)

	var busy Table
	require.Equal(t, http.StatusOK, do(t, r, http.MethodPatch, "/api/v1/tables/"+t1.Id+"/status",
		map[string]interface{}{"status": "occupied"}, &busy))
	assert.Equal(t, "occupied", busy.Status)

	var list struct {
		Data []*Table `json:"data"`
	}
	require.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/api/v1/rooms/"+room.Id+"/tables?status=occupied", nil, &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, t1.Id, list.Data[0].Id)

	assert.Equal(t, http.StatusNoContent, do(t, r, http.MethodDelete, "/api/v1/rooms/"+room.Id, nil, nil))
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/api/v1/tables/"+t1.Id, nil, nil))
}

func TestHTTP_FloorPlanErrors(t *testing.T) {
	r := newRouter(newTestHandler())

	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodPost, "/api/v1/rooms", map[string]interface{}{}, nil))
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/api/v1/rooms/ghost/floor-plan", nil, nil))

	var room Room
	require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/api/v1/rooms", map[string]interface{}{"name": "Bar"}, &room))

	assert.Equal(t, http.StatusUnprocessableEntity, do(t, r, http.MethodPost, "/api/v1/rooms/"+room.Id+"/tables",
		map[string]interface{}{"name": "T1", "width": 80, "height": 80, "status": "exploded"}, nil))
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodPost, "/api/v1/rooms/"+room.Id+"/tables",
		map[string]interface{}{"name": "T1"}, nil))
	assert.Equal(t, http.StatusUnprocessableEntity, do(t, r, http.MethodGet, "/api/v1/rooms/"+room.Id+"/tables?status=nope", nil, nil))
}

func TestGRPC_Tables(t *testing.T) {
	h := newTestHandler()

	_, err := h.ListRooms(context.Background(), &ListRoomsRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	ctx := auth.WithMerchantID(context.Background(), "m1")
	room, err := h.CreateRoom(ctx, &CreateRoomRequest{Name: "Main"})
	require.NoError(t, err)

	created, err := h.CreateTable(ctx, &CreateTableRequest{RoomId: room.Room.Id, Name: "T1", Width: 60, Height: 60})
	require.NoError(t, err)

	moved, err := h.MoveTable(ctx, &MoveTableRequest{Id: created.Table.Id, X: 10, Y: 20})
	require.NoError(t, err)
	assert.Equal(t, 20.0, moved.Table.Y)

	_, err = h.SetTableStatus(ctx, &SetTableStatusRequest{Id: created.Table.Id, Status: "bogus"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = h.GetTable(auth.WithMerchantID(context.Background(), "m2"), &IDRequest{Id: created.Table.Id})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = h.DeleteTable(ctx, &IDRequest{Id: created.Table.Id})
	require.NoError(t, err)
}
