package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-layout-service/internal/floorplan"
	"github.com/fekuna/omnipos-layout-service/internal/floorplan/dto"
	"github.com/fekuna/omnipos-layout-service/internal/model"
	"github.com/fekuna/omnipos-layout-service/internal/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// canvasMargin is the padding added around the tables of a floor plan.
const canvasMargin = 40

type floorPlanUseCase struct {
	repo   floorplan.Repository
	logger logger.ZapLogger
	now    func() time.Time
}

func NewFloorPlanUseCase(repo floorplan.Repository, log logger.ZapLogger) floorplan.UseCase {
	return &floorPlanUseCase{
		repo:   repo,
		logger: log,
		now:    time.Now,
	}
}

func (uc *floorPlanUseCase) CreateRoom(ctx context.Context, input *dto.CreateRoomInput) (*model.Room, error) {
	name := strings.TrimSpace(input.Name)
	if input.MerchantID == "" || name == "" {
		return nil, fmt.Errorf("%w: merchant id and room name are required", model.ErrInvalidInput)
	}

	now := uc.now()
	room := &model.Room{
		BaseModel: model.BaseModel{
			ID:        uuid.New().String(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		MerchantID:  input.MerchantID,
		Name:        name,
		Description: input.Description,
	}

	if err := uc.repo.CreateRoom(ctx, room); err != nil {
		uc.logger.Error("failed to create room", zap.String("merchant_id", input.MerchantID), zap.Error(err))
		return nil, err
	}
	return room, nil
}

func (uc *floorPlanUseCase) GetRoom(ctx context.Context, merchantID, id string) (*model.Room, error) {
	room, err := uc.repo.FindRoomByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if room.MerchantID != merchantID {
		return nil, fmt.Errorf("room %s: %w", id, model.ErrNotFound)
	}
	return room, nil
}

func (uc *floorPlanUseCase) ListRooms(ctx context.Context, merchantID string) ([]model.Room, error) {
	if merchantID == "" {
		return nil, fmt.Errorf("%w: merchant id is required", model.ErrInvalidInput)
	}
	return uc.repo.FindRooms(ctx, merchantID)
}

func (uc *floorPlanUseCase) UpdateRoom(ctx context.Context, input *dto.UpdateRoomInput) (*model.Room, error) {
	room, err := uc.GetRoom(ctx, input.MerchantID, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: room name is required", model.ErrInvalidInput)
		}
		room.Name = name
	}
	if input.Description != nil {
		room.Description = input.Description
	}
	room.UpdatedAt = uc.now()

	if err := uc.repo.UpdateRoom(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

// DeleteRoom removes the room together with all of its tables.
func (uc *floorPlanUseCase) DeleteRoom(ctx context.Context, merchantID, id string) error {
	if _, err := uc.GetRoom(ctx, merchantID, id); err != nil {
		return err
	}
	if err := uc.repo.DeleteRoom(ctx, id); err != nil {
		uc.logger.Error("failed to delete room", zap.String("room_id", id), zap.Error(err))
		return err
	}
	return nil
}

func (uc *floorPlanUseCase) CreateTable(ctx context.Context, input *dto.CreateTableInput) (*model.Table, error) {
	if _, err := uc.GetRoom(ctx, input.MerchantID, input.RoomID); err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = model.TableAvailable
	}

	now := uc.now()
	t := &model.Table{
		BaseModel: model.BaseModel{
			ID:        uuid.New().String(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		MerchantID: input.MerchantID,
		RoomID:     input.RoomID,
		Name:       strings.TrimSpace(input.Name),
		X:          input.X,
		Y:          input.Y,
		Width:      input.Width,
		Height:     input.Height,
		Status:     status,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	if err := uc.repo.CreateTable(ctx, t); err != nil {
		uc.logger.Error("failed to create table", zap.String("room_id", input.RoomID), zap.Error(err))
		return nil, err
	}
	return t, nil
}

func (uc *floorPlanUseCase) GetTable(ctx context.Context, merchantID, id string) (*model.Table, error) {
	t, err := uc.repo.FindTableByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.MerchantID != merchantID {
		return nil, fmt.Errorf("table %s: %w", id, model.ErrNotFound)
	}
	return t, nil
}

func (uc *floorPlanUseCase) ListTables(ctx context.Context, filters *dto.TableFilters) ([]model.Table, error) {
	if filters.MerchantID == "" {
		return nil, fmt.Errorf("%w: merchant id is required", model.ErrInvalidInput)
	}
	if filters.Status != nil && !filters.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown table status %q", model.ErrInvalidInput, *filters.Status)
	}
	return uc.repo.FindTables(ctx, filters)
}

func (uc *floorPlanUseCase) UpdateTable(ctx context.Context, input *dto.UpdateTableInput) (*model.Table, error) {
	t, err := uc.GetTable(ctx, input.MerchantID, input.ID)
	if err != nil {
		return nil, err
	}

	if input.RoomID != nil && *input.RoomID != t.RoomID {
		if _, err := uc.GetRoom(ctx, input.MerchantID, *input.RoomID); err != nil {
			return nil, err
		}
		t.RoomID = *input.RoomID
	}
	if input.Name != nil {
		t.Name = strings.TrimSpace(*input.Name)
	}
	if input.Width != nil {
		t.Width = *input.Width
	}
	if input.Height != nil {
		t.Height = *input.Height
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	t.UpdatedAt = uc.now()

	if err := uc.repo.UpdateTable(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// MoveTable stores a new top-left position. It is the committer behind
// floor plan edit sessions, so it only writes the coordinates.
func (uc *floorPlanUseCase) MoveTable(ctx context.Context, input *dto.MoveTableInput) (*model.Table, error) {
	t, err := uc.GetTable(ctx, input.MerchantID, input.ID)
	if err != nil {
		return nil, err
	}

	t.X, t.Y = input.X, input.Y
	if err := t.Item().Validate(); err != nil {
		return nil, err
	}
	t.UpdatedAt = uc.now()

	if err := uc.repo.UpdatePosition(ctx, t.ID, t.X, t.Y, t.UpdatedAt); err != nil {
		uc.logger.Error("failed to move table", zap.String("table_id", t.ID), zap.Error(err))
		return nil, err
	}
	return t, nil
}

func (uc *floorPlanUseCase) SetTableStatus(ctx context.Context, input *dto.SetTableStatusInput) (*model.Table, error) {
	if !input.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown table status %q", model.ErrInvalidInput, input.Status)
	}

	t, err := uc.GetTable(ctx, input.MerchantID, input.ID)
	if err != nil {
		return nil, err
	}
	if t.Status == input.Status {
		return t, nil
	}

	t.Status = input.Status
	t.UpdatedAt = uc.now()
	if err := uc.repo.UpdateStatus(ctx, t.ID, t.Status, t.UpdatedAt); err != nil {
		return nil, err
	}
	return t, nil
}

func (uc *floorPlanUseCase) DeleteTable(ctx context.Context, merchantID, id string) error {
	if _, err := uc.GetTable(ctx, merchantID, id); err != nil {
		return err
	}
	return uc.repo.DeleteTable(ctx, id)
}

func (uc *floorPlanUseCase) GetFloorPlan(ctx context.Context, merchantID, roomID string) (*model.FloorPlan, error) {
	room, err := uc.GetRoom(ctx, merchantID, roomID)
	if err != nil {
		return nil, err
	}

	tables, err := uc.repo.FindTables(ctx, &dto.TableFilters{MerchantID: merchantID, RoomID: roomID})
	if err != nil {
		return nil, err
	}

	items := make([]model.LayoutItem, len(tables))
	for i := range tables {
		items[i] = tables[i].Item()
	}

	return &model.FloorPlan{
		Room:   room,
		Tables: tables,
		Bounds: model.CanvasBounds(items, canvasMargin),
	}, nil
}
