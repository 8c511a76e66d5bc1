package handler

import (
	"context"

	"github.com/fekuna/omnipos-layout-service/internal/auth"
	"github.com/fekuna/omnipos-layout-service/internal/floorplan"
	"github.com/fekuna/omnipos-layout-service/internal/floorplan/dto"
	"github.com/fekuna/omnipos-layout-service/internal/model"
	"github.com/fekuna/omnipos-layout-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-layout-service/internal/pkg/rpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type FloorPlanHandler struct {
	uc     floorplan.UseCase
	logger logger.ZapLogger
}

func NewFloorPlanHandler(uc floorplan.UseCase, log logger.ZapLogger) *FloorPlanHandler {
	return &FloorPlanHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *FloorPlanHandler) RegisterGRPC(s grpc.ServiceRegistrar) {
	rpc.Register(s, ServiceName, h,
		rpc.Unary(ServiceName, "CreateRoom", h.CreateRoom),
		rpc.Unary(ServiceName, "GetRoom", h.GetRoom),
		rpc.Unary(ServiceName, "ListRooms", h.ListRooms),
		rpc.Unary(ServiceName, "UpdateRoom", h.UpdateRoom),
		rpc.Unary(ServiceName, "DeleteRoom", h.DeleteRoom),
		rpc.Unary(ServiceName, "GetFloorPlan", h.GetFloorPlan),
		rpc.Unary(ServiceName, "CreateTable", h.CreateTable),
		rpc.Unary(ServiceName, "GetTable", h.GetTable),
		rpc.Unary(ServiceName, "ListTables", h.ListTables),
		rpc.Unary(ServiceName, "UpdateTable", h.UpdateTable),
		rpc.Unary(ServiceName, "MoveTable", h.MoveTable),
		rpc.Unary(ServiceName, "SetTableStatus", h.SetTableStatus),
		rpc.Unary(ServiceName, "DeleteTable", h.DeleteTable),
	)
}

func merchantFrom(ctx context.Context) (string, error) {
	merchantID := auth.GetMerchantID(ctx)
	if merchantID == "" {
		return "", status.Error(codes.Unauthenticated, "missing merchant")
	}
	return merchantID, nil
}

func (h *FloorPlanHandler) CreateRoom(ctx context.Context, req *CreateRoomRequest) (*RoomResponse, error) {
	merchantID, err := merchantFrom(ctx)
	if err != nil {
		return nil, err
	}

	room, err := h.uc.CreateRoom(ctx, &dto.CreateRoomInput{
		MerchantID:  merchantID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return nil, rpc.Error(err)
	}
	return &RoomResponse{Room: mapRoomToProto(room)}, nil
}

func (h *FloorPlanHandler) GetRoom(ctx context.Context, req *IDRequest) (*RoomResponse, error) {
	merchantID, err := merchantFrom(ctx)
	if err != nil {
		return nil, err
	}

	room, err := h.uc.GetRoom(ctx, merchantID, req.Id)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return &RoomResponse{Room: mapRoomToProto(room)}, nil
}

func (h *FloorPlanHandler) ListRooms(ctx context.Context, _ *ListRoomsRequest) (*ListRoomsResponse, error) {
	merchantID, err := merchantFrom(ctx)
	if err != nil {
		return nil, err
	}

	rooms, err := h.uc.ListRooms(ctx, merchantID)
	if err != nil {
		return nil, rpc.Error(err)
	}

	protos := make([]*Room, len(rooms))
	for i := range rooms {
		protos[i] = mapRoomToProto(&rooms[i])
	}
	return &ListRoomsResponse{Rooms: protos}, nil
}

func (h *FloorPlanHandler) UpdateRoom(ctx context.Context, req *UpdateRoomRequest) (*RoomResponse, error) {
	merchantID, err := merchantFrom(ctx)
	if err != nil {
		return nil, err
	}

	room, err := h.uc.UpdateRoom(ctx, &dto.UpdateRoomInput{
		ID:          req.Id,
		MerchantID:  merchantID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return nil, rpc.Error(err)
	}
	return &RoomResponse{Room: mapRoomToProto(room)}, nil
}

func (h *FloorPlanHandler) DeleteRoom(ctx context.Context, req *IDRequest) (*Empty, error) {
	merchantID, err := merchantFrom(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.uc.DeleteRoom(ctx, merchantID, req.Id); err != nil {
		h.logger.Error("failed to delete room", zap.String("room_id", req.Id), zap.Error(err))
		return nil, rpc.Error(err)
	}
	return &Empty{}, nil
}

func (h *FloorPlanHandler) GetFloorPlan(ctx context.Context, req *IDRequest) (*FloorPlanResponse, error) {
	merchantID, err := merchantFrom(ctx)
	if err != nil {
		return nil, err
	}

	fp, err := h.uc.GetFloorPlan(ctx, merchantID, req.Id)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return mapFloorPlan(fp), nil
}

func (h *FloorPlanHandler) CreateTable(ctx context.Context, req *CreateTableRequest) (*TableResponse, error) {
	merchantID, err := merchantFrom(ctx)
	if err != nil {
		return nil, err
	}

	t, err := h.uc.CreateTable(ctx, &dto.CreateTableInput{
		MerchantID: merchantID,
		RoomID:     req.RoomId,
		Name:       req.Name,
		X:          req.X,
		Y:          req.Y,
		Width:      req.Width,
		Height:     req.Height,
		Status:     model.TableStatus(req.Status),
	})
	if err != nil {
		return nil, rpc.Error(err)
	}
	return &TableResponse{Table: mapTableToProto(t)}, nil
}

func (h *FloorPlanHandler) GetTable(ctx context.Context, req *IDRequest) (*TableResponse, error) {
	merchantID, err := merchantFrom(ctx)
	if err != nil {
		return nil, err
	}

	t, err := h.uc.GetTable(ctx, merchantID, req.Id)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return &TableResponse{Table: mapTableToProto(t)}, nil
}

func (h *FloorPlanHandler) ListTables(ctx context.Context, req *ListTablesRequest) (*ListTablesResponse, error) {
	merchantID, err := merchantFrom(ctx)
	if err != nil {
		return nil, err
	}

	filters := &dto.TableFilters{MerchantID: merchantID, RoomID: req.RoomId}
	if req.Status != "" {
		st := model.TableStatus(req.Status)
		filters.Status = &st
	}

	tables, err := h.uc.ListTables(ctx, filters)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return &ListTablesResponse{Tables: mapTables(tables)}, nil
}

func (h *FloorPlanHandler) UpdateTable(ctx context.Context, req *UpdateTableRequest) (*TableResponse, error) {
	merchantID, err := merchantFrom(ctx)
	if err != nil {
		return nil, err
	}

	t, err := h.uc.UpdateTable(ctx, &dto.UpdateTableInput{
		ID:         req.Id,
		MerchantID: merchantID,
		RoomID:     req.RoomId,
		Name:       req.Name,
		Width:      req.Width,
		Height:     req.Height,
	})
	if err != nil {
		return nil, rpc.Error(err)
	}
	return &TableResponse{Table: mapTableToProto(t)}, nil
}

func (h *FloorPlanHandler) MoveTable(ctx context.Context, req *MoveTableRequest) (*TableResponse, error) {
	merchantID, err := merchantFrom(ctx)
	if err != nil {
		return nil, err
	}

	t, err := h.uc.MoveTable(ctx, &dto.MoveTableInput{
		ID:         req.Id,
		MerchantID: merchantID,
		X:          req.X,
		Y:          req.Y,
	})
	if err != nil {
		return nil, rpc.Error(err)
	}
	return &TableResponse{Table: mapTableToProto(t)}, nil
}

func (h *FloorPlanHandler) SetTableStatus(ctx context.Context, req *SetTableStatusRequest) (*TableResponse, error) {
	merchantID, err := merchantFrom(ctx)
	if err != nil {
		return nil, err
	}

	t, err := h.uc.SetTableStatus(ctx, &dto.SetTableStatusInput{
		ID:         req.Id,
		MerchantID: merchantID,
		Status:     model.TableStatus(req.Status),
	})
	if err != nil {
		return nil, rpc.Error(err)
	}
	return &TableResponse{Table: mapTableToProto(t)}, nil
}

func (h *FloorPlanHandler) DeleteTable(ctx context.Context, req *IDRequest) (*Empty, error) {
	merchantID, err := merchantFrom(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.uc.DeleteTable(ctx, merchantID, req.Id); err != nil {
		return nil, rpc.Error(err)
	}
	return &Empty{}, nil
}
