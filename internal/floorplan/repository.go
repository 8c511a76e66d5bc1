package floorplan

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-layout-service/internal/floorplan/dto"
	"github.com/fekuna/omnipos-layout-service/internal/model"
)

// Repository stores rooms and the tables placed in them. Finders return
// model.ErrNotFound for unknown ids.
type Repository interface {
	CreateRoom(ctx context.Context, room *model.Room) error
	FindRoomByID(ctx context.Context, id string) (*model.Room, error)
	FindRooms(ctx context.Context, merchantID string) ([]model.Room, error)
	UpdateRoom(ctx context.Context, room *model.Room) error
	// DeleteRoom removes the room and every table in it.
	DeleteRoom(ctx context.Context, id string) error

	CreateTable(ctx context.Context, table *model.Table) error
	FindTableByID(ctx context.Context, id string) (*model.Table, error)
	FindTables(ctx context.Context, filters *dto.TableFilters) ([]model.Table, error)
	UpdateTable(ctx context.Context, table *model.Table) error
	UpdatePosition(ctx context.Context, id string, x, y float64, at time.Time) error
	UpdateStatus(ctx context.Context, id string, status model.TableStatus, at time.Time) error
	DeleteTable(ctx context.Context, id string) error
}
