package handler

import (
	"context"

	"github.com/fekuna/omnipos-layout-service/internal/auth"
	"github.com/fekuna/omnipos-layout-service/internal/layout"
	"github.com/fekuna/omnipos-layout-service/internal/layout/dto"
	"github.com/fekuna/omnipos-layout-service/internal/model"
	"github.com/fekuna/omnipos-layout-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-layout-service/internal/pkg/rpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type LayoutHandler struct {
	uc     layout.UseCase
	logger logger.ZapLogger
}

func NewLayoutHandler(uc layout.UseCase, log logger.ZapLogger) *LayoutHandler {
	return &LayoutHandler{
		uc:     uc,
		logger: log,
	}
}

// RegisterGRPC exposes the layout service on s.
func (h *LayoutHandler) RegisterGRPC(s grpc.ServiceRegistrar) {
	rpc.Register(s, ServiceName, h,
		rpc.Unary(ServiceName, "ResolveLayout", h.ResolveLayout),
		rpc.Unary(ServiceName, "SaveLayout", h.SaveLayout),
		rpc.Unary(ServiceName, "GetLayout", h.GetLayout),
		rpc.Unary(ServiceName, "ListLayouts", h.ListLayouts),
		rpc.Unary(ServiceName, "SearchLayouts", h.SearchLayouts),
		rpc.Unary(ServiceName, "SetDefault", h.SetDefault),
		rpc.Unary(ServiceName, "ClearDefault", h.ClearDefault),
		rpc.Unary(ServiceName, "CloneLayout", h.CloneLayout),
		rpc.Unary(ServiceName, "MoveItem", h.MoveItem),
		rpc.Unary(ServiceName, "DeleteLayout", h.DeleteLayout),
	)
}

func merchantFrom(ctx context.Context) (string, error) {
	merchantID := auth.GetMerchantID(ctx)
	if merchantID == "" {
		return "", status.Error(codes.Unauthenticated, "missing merchant")
	}
	return merchantID, nil
}

func (h *LayoutHandler) ResolveLayout(ctx context.Context, req *ResolveLayoutRequest) (*LayoutResponse, error) {
	merchantID, err := merchantFrom(ctx)
	if err != nil {
		return nil, err
	}

	filter, err := model.ParseFilter(req.FilterType, req.CategoryId)
	if err != nil {
		return nil, rpc.Error(err)
	}

	l, err := h.uc.ResolveLayout(ctx, &dto.ResolveInput{
		MerchantID:       merchantID,
		TillID:           optionalString(req.TillId),
		Filter:           filter,
		ExplicitLayoutID: req.ExplicitLayoutId,
	})
	if err != nil {
		h.logger.Error("failed to resolve layout", zap.Error(err))
		return nil, rpc.Error(err)
	}

	return &LayoutResponse{Layout: mapModelToProto(l)}, nil
}

func (h *LayoutHandler) SaveLayout(ctx context.Context, req *SaveLayoutRequest) (*LayoutResponse, error) {
	merchantID, err := merchantFrom(ctx)
	if err != nil {
		return nil, err
	}

	filter, err := model.ParseFilter(req.FilterType, req.CategoryId)
	if err != nil {
		return nil, rpc.Error(err)
	}

	l, err := h.uc.SaveLayout(ctx, &dto.SaveLayoutInput{
		ID:          req.Id,
		MerchantID:  merchantID,
		ScopeTillID: optionalString(req.ScopeTillId),
		Name:        req.Name,
		Columns:     int(req.Columns),
		Items:       mapItems(req.Items),
		IsDefault:   req.IsDefault,
		Filter:      filter,
		IsShared:    req.IsShared,
	})
	if err != nil {
		h.logger.Error("failed to save layout", zap.String("layout_id", req.Id), zap.Error(err))
		return nil, rpc.Error(err)
	}

	return &LayoutResponse{Layout: mapModelToProto(l)}, nil
}

func (h *LayoutHandler) GetLayout(ctx context.Context, req *LayoutIDRequest) (*LayoutResponse, error) {
	merchantID, err := merchantFrom(ctx)
	if err != nil {
		return nil, err
	}

	l, err := h.uc.GetLayout(ctx, merchantID, req.Id)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return &LayoutResponse{Layout: mapModelToProto(l)}, nil
}

func (h *LayoutHandler) ListLayouts(ctx context.Context, req *ListLayoutsRequest) (*ListLayoutsResponse, error) {
	merchantID, err := merchantFrom(ctx)
	if err != nil {
		return nil, err
	}

	filters := &dto.LayoutFilters{
		MerchantID: merchantID,
		Page:       int(req.Page),
		PageSize:   int(req.PageSize),
	}
	switch req.Scope {
	case "shared":
		filters.Scope = dto.ScopeShared
	case "till":
		if req.TillId == "" {
			return nil, status.Error(codes.InvalidArgument, "till_id is required for till scope")
		}
		filters.Scope = dto.ScopeTill
		filters.TillID = req.TillId
	}
	if req.FilterType != "" || req.CategoryId != "" {
		filter, err := model.ParseFilter(req.FilterType, req.CategoryId)
		if err != nil {
			return nil, rpc.Error(err)
		}
		filters.FilterType = string(filter.Type)
		filters.CategoryID = filter.CategoryIDPtr()
	}

	layouts, count, err := h.uc.ListLayouts(ctx, filters)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return toListResponse(layouts, count), nil
}

func (h *LayoutHandler) SearchLayouts(ctx context.Context, req *SearchLayoutsRequest) (*ListLayoutsResponse, error) {
	merchantID, err := merchantFrom(ctx)
	if err != nil {
		return nil, err
	}

	layouts, count, err := h.uc.SearchLayouts(ctx, merchantID, req.Query, int(req.Page), int(req.PageSize))
	if err != nil {
		return nil, rpc.Error(err)
	}
	return toListResponse(layouts, count), nil
}

func (h *LayoutHandler) SetDefault(ctx context.Context, req *LayoutIDRequest) (*LayoutResponse, error) {
	merchantID, err := merchantFrom(ctx)
	if err != nil {
		return nil, err
	}

	l, err := h.uc.SetDefault(ctx, merchantID, req.Id)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return &LayoutResponse{Layout: mapModelToProto(l)}, nil
}

func (h *LayoutHandler) ClearDefault(ctx context.Context, req *LayoutIDRequest) (*LayoutResponse, error) {
	merchantID, err := merchantFrom(ctx)
	if err != nil {
		return nil, err
	}

	l, err := h.uc.ClearDefault(ctx, merchantID, req.Id)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return &LayoutResponse{Layout: mapModelToProto(l)}, nil
}

func (h *LayoutHandler) CloneLayout(ctx context.Context, req *CloneLayoutRequest) (*LayoutResponse, error) {
	merchantID, err := merchantFrom(ctx)
	if err != nil {
		return nil, err
	}

	l, err := h.uc.CloneLayout(ctx, &dto.CloneInput{
		MerchantID:     merchantID,
		SourceLayoutID: req.Id,
		TargetTillID:   optionalString(req.TargetTillId),
		Name:           req.Name,
	})
	if err != nil {
		h.logger.Error("failed to clone layout", zap.String("layout_id", req.Id), zap.Error(err))
		return nil, rpc.Error(err)
	}
	return &LayoutResponse{Layout: mapModelToProto(l)}, nil
}

func (h *LayoutHandler) MoveItem(ctx context.Context, req *MoveItemRequest) (*LayoutResponse, error) {
	merchantID, err := merchantFrom(ctx)
	if err != nil {
		return nil, err
	}

	l, err := h.uc.MoveItem(ctx, &dto.MoveItemInput{
		MerchantID: merchantID,
		LayoutID:   req.LayoutId,
		ItemID:     req.ItemId,
		X:          req.X,
		Y:          req.Y,
	})
	if err != nil {
		return nil, rpc.Error(err)
	}
	return &LayoutResponse{Layout: mapModelToProto(l)}, nil
}

func (h *LayoutHandler) DeleteLayout(ctx context.Context, req *LayoutIDRequest) (*Empty, error) {
	merchantID, err := merchantFrom(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.uc.DeleteLayout(ctx, merchantID, req.Id); err != nil {
		return nil, rpc.Error(err)
	}
	return &Empty{}, nil
}

func toListResponse(layouts []model.GridLayout, count int) *ListLayoutsResponse {
	protos := make([]*Layout, len(layouts))
	for i := range layouts {
		protos[i] = mapModelToProto(&layouts[i])
	}
	return &ListLayoutsResponse{
		Layouts: protos,
		Total:   int32(count),
	}
}
