package handler

import (
	"time"

	"github.com/fekuna/omnipos-layout-service/internal/model"
)

const ServiceName = "omnipos.layout.v1.FloorPlanService"

type Room struct {
	Id          string `json:"id"`
	MerchantId  string `json:"merchant_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

type Table struct {
	Id        string  `json:"id"`
	RoomId    string  `json:"room_id"`
	Name      string  `json:"name"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"created_at,omitempty"`
	UpdatedAt string  `json:"updated_at,omitempty"`
}

type Bounds struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

type IDRequest struct {
	Id string `json:"id"`
}

type CreateRoomRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type UpdateRoomRequest struct {
	Id          string  `json:"id"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type RoomResponse struct {
	Room *Room `json:"room"`
}

type ListRoomsRequest struct{}

type ListRoomsResponse struct {
	Rooms []*Room `json:"rooms"`
}

type CreateTableRequest struct {
	RoomId string  `json:"room_id"`
	Name   string  `json:"name"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Status string  `json:"status"`
}

type UpdateTableRequest struct {
	Id     string   `json:"id"`
	RoomId *string  `json:"room_id"`
	Name   *string  `json:"name"`
	Width  *float64 `json:"width"`
	Height *float64 `json:"height"`
}

type MoveTableRequest struct {
	Id string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

type SetTableStatusRequest struct {
	Id     string `json:"id"`
	Status string `json:"status"`
}

type ListTablesRequest struct {
	RoomId string `json:"room_id"`
	Status string `json:"status"`
}

type TableResponse struct {
	Table *Table `json:"table"`
}

type ListTablesResponse struct {
	Tables []*Table `json:"tables"`
}

type FloorPlanResponse struct {
	Room   *Room    `json:"room"`
	Tables []*Table `json:"tables"`
	Bounds Bounds   `json:"bounds"`
}

type Empty struct{}

func mapRoomToProto(r *model.Room) *Room {
	if r == nil {
		return nil
	}
	out := &Room{
		Id:         r.ID,
		MerchantId: r.MerchantID,
		Name:       r.Name,
		CreatedAt:  formatTime(r.CreatedAt),
		UpdatedAt:  formatTime(r.UpdatedAt),
	}
	if r.Description != nil {
		out.Description = *r.Description
	}
	return out
}

func mapTableToProto(t *model.Table) *Table {
	if t == nil {
		return nil
	}
	return &Table{
		Id:        t.ID,
		RoomId:    t.RoomID,
		Name:      t.Name,
		X:         t.X,
		Y:         t.Y,
		Width:     t.Width,
		Height:    t.Height,
		Status:    string(t.Status),
		CreatedAt: formatTime(t.CreatedAt),
		UpdatedAt: formatTime(t.UpdatedAt),
	}
}

func mapTables(tables []model.Table) []*Table {
	out := make([]*Table, len(tables))
	for i := range tables {
		out[i] = mapTableToProto(&tables[i])
	}
	return out
}

func mapFloorPlan(fp *model.FloorPlan) *FloorPlanResponse {
	return &FloorPlanResponse{
		Room:   mapRoomToProto(fp.Room),
		Tables: mapTables(fp.Tables),
		Bounds: Bounds{MinX: fp.Bounds.MinX, MinY: fp.Bounds.MinY, MaxX: fp.Bounds.MaxX, MaxY: fp.Bounds.MaxY},
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
