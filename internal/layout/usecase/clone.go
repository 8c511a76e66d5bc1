package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-layout-service/internal/layout"
	"github.com/fekuna/omnipos-layout-service/internal/layout/dto"
	"github.com/fekuna/omnipos-layout-service/internal/model"
	"github.com/google/uuid"
)

// Cloner copies a layout into another till (or the shared pool). Clones are
// never default, so the Enforcer is not involved.
type Cloner struct {
	repo layout.Repository
	now  func() time.Time
}

func NewCloner(repo layout.Repository) *Cloner {
	return &Cloner{repo: repo, now: time.Now}
}

func (c *Cloner) CloneToScope(ctx context.Context, in *dto.CloneInput) (*model.GridLayout, error) {
	if in.TargetTillID != nil && *in.TargetTillID == "" {
		return nil, fmt.Errorf("%w: target till id must not be empty", model.ErrInvalidInput)
	}

	src, err := c.repo.FindByID(ctx, in.SourceLayoutID)
	if err != nil {
		return nil, err
	}
	if src.MerchantID != in.MerchantID {
		return nil, fmt.Errorf("layout %s: %w", in.SourceLayoutID, model.ErrNotFound)
	}

	target := model.Scope{MerchantID: in.MerchantID, TillID: in.TargetTillID, Filter: src.Filter}
	if target.SameTarget(src.Scope()) {
		return nil, fmt.Errorf("%w: layout %s already belongs to that scope", model.ErrInvalidTarget, src.ID)
	}

	name := in.Name
	if name == "" {
		name = src.Name
	}

	now := c.now()
	dup := src.Clone()
	dup.BaseModel = model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now}
	dup.ScopeTillID = target.TillID
	dup.Name = name
	dup.IsDefault = false
	dup.IsShared = false
	dup.Revision = 0

	if err := c.repo.Create(ctx, dup); err != nil {
		return nil, err
	}
	return dup, nil
}
