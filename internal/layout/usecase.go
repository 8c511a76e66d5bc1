package layout

import (
	"context"

	"github.com/fekuna/omnipos-layout-service/internal/layout/dto"
	"github.com/fekuna/omnipos-layout-service/internal/model"
)

type UseCase interface {
	ResolveLayout(ctx context.Context, input *dto.ResolveInput) (*model.GridLayout, error)
	SaveLayout(ctx context.Context, input *dto.SaveLayoutInput) (*model.GridLayout, error)
	UpdateLayout(ctx context.Context, merchantID, id string, patch *dto.LayoutPatch) (*model.GridLayout, error)
	SetDefault(ctx context.Context, merchantID, id string) (*model.GridLayout, error)
	ClearDefault(ctx context.Context, merchantID, id string) (*model.GridLayout, error)
	CloneLayout(ctx context.Context, input *dto.CloneInput) (*model.GridLayout, error)
	GetLayout(ctx context.Context, merchantID, id string) (*model.GridLayout, error)
	ListLayouts(ctx context.Context, filters *dto.LayoutFilters) ([]model.GridLayout, int, error)
	SearchLayouts(ctx context.Context, merchantID, query string, page, pageSize int) ([]model.GridLayout, int, error)
	MoveItem(ctx context.Context, input *dto.MoveItemInput) (*model.GridLayout, error)
	DeleteLayout(ctx context.Context, merchantID, id string) error
}
