package layout

import (
	"context"

	"github.com/fekuna/omnipos-layout-service/internal/layout/dto"
	"github.com/fekuna/omnipos-layout-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, l *model.GridLayout) error
	FindByID(ctx context.Context, id string) (*model.GridLayout, error)
	FindAll(ctx context.Context, filters *dto.LayoutFilters) ([]model.GridLayout, int, error)
	// Update is revision checked: l.Revision must match the stored row and is
	// bumped on success.
	Update(ctx context.Context, l *model.GridLayout) error
	Delete(ctx context.Context, id string) error

	// ApplyDefault writes l as the default of its scope and clears every
	// other default sharing l's scope key in one atomic step.
	ApplyDefault(ctx context.Context, l *model.GridLayout, create bool) error
	// CountDefaults returns how many records of scopeKey are default.
	CountDefaults(ctx context.Context, scopeKey string) (int, error)
}
