package floorplan

import (
	"context"

	"github.com/fekuna/omnipos-layout-service/internal/floorplan/dto"
	"github.com/fekuna/omnipos-layout-service/internal/model"
)

type UseCase interface {
	CreateRoom(ctx context.Context, input *dto.CreateRoomInput) (*model.Room, error)
	GetRoom(ctx context.Context, merchantID, id string) (*model.Room, error)
	ListRooms(ctx context.Context, merchantID string) ([]model.Room, error)
	UpdateRoom(ctx context.Context, input *dto.UpdateRoomInput) (*model.Room, error)
	DeleteRoom(ctx context.Context, merchantID, id string) error

	CreateTable(ctx context.Context, input *dto.CreateTableInput) (*model.Table, error)
	GetTable(ctx context.Context, merchantID, id string) (*model.Table, error)
	ListTables(ctx context.Context, filters *dto.TableFilters) ([]model.Table, error)
	UpdateTable(ctx context.Context, input *dto.UpdateTableInput) (*model.Table, error)
	MoveTable(ctx context.Context, input *dto.MoveTableInput) (*model.Table, error)
	SetTableStatus(ctx context.Context, input *dto.SetTableStatusInput) (*model.Table, error)
	DeleteTable(ctx context.Context, merchantID, id string) error

	GetFloorPlan(ctx context.Context, merchantID, roomID string) (*model.FloorPlan, error)
}
