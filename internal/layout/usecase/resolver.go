package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/fekuna/omnipos-layout-service/internal/layout"
	"github.com/fekuna/omnipos-layout-service/internal/layout/dto"
	"github.com/fekuna/omnipos-layout-service/internal/model"
)

// Resolver picks the effective layout for a till and filter. Lookups always
// go to the repository; there is no cached "current default".
type Resolver struct {
	repo layout.Repository
}

func NewResolver(repo layout.Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve applies, in order: an existing explicit pick, the till's default,
// the shared default, then the built-in empty layout.
func (r *Resolver) Resolve(ctx context.Context, in *dto.ResolveInput) (*model.GridLayout, error) {
	if in.MerchantID == "" {
		return nil, fmt.Errorf("%w: merchant id is required", model.ErrInvalidInput)
	}
	if err := in.Filter.Validate(); err != nil {
		return nil, err
	}

	if in.ExplicitLayoutID != "" {
		l, err := r.repo.FindByID(ctx, in.ExplicitLayoutID)
		switch {
		case err == nil && l.MerchantID == in.MerchantID:
			return l, nil
		case err != nil && !errors.Is(err, model.ErrNotFound):
			return nil, err
		}
	}

	if in.TillID != nil && *in.TillID != "" {
		l, err := r.findDefault(ctx, in, dto.ScopeTill)
		if err != nil || l != nil {
			return l, err
		}
	}

	l, err := r.findDefault(ctx, in, dto.ScopeShared)
	if err != nil || l != nil {
		return l, err
	}

	return model.EmptyLayout(model.Scope{MerchantID: in.MerchantID, TillID: in.TillID, Filter: in.Filter}), nil
}

func (r *Resolver) findDefault(ctx context.Context, in *dto.ResolveInput, scope dto.TillScope) (*model.GridLayout, error) {
	isDefault := true
	f := &dto.LayoutFilters{
		MerchantID: in.MerchantID,
		Scope:      scope,
		FilterType: string(in.Filter.Type),
		CategoryID: in.Filter.CategoryIDPtr(),
		IsDefault:  &isDefault,
		Page:       1,
		PageSize:   1,
	}
	if scope == dto.ScopeTill {
		f.TillID = *in.TillID
	}

	layouts, _, err := r.repo.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(layouts) == 0 {
		return nil, nil
	}
	return &layouts[0], nil
}
