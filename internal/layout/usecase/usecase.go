package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-layout-service/internal/layout"
	"github.com/fekuna/omnipos-layout-service/internal/layout/dto"
	"github.com/fekuna/omnipos-layout-service/internal/model"
	"github.com/fekuna/omnipos-layout-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-layout-service/internal/pkg/search"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	layoutIndex     = "grid_layouts"
	maxWriteRetries = 3
)

type layoutUseCase struct {
	repo     layout.Repository
	enforcer *Enforcer
	resolver *Resolver
	cloner   *Cloner
	es       *search.Client
	logger   logger.ZapLogger
	now      func() time.Time
}

// NewLayoutUseCase wires the layout operations. locker and es may be nil.
func NewLayoutUseCase(repo layout.Repository, locker Locker, es *search.Client, log logger.ZapLogger) layout.UseCase {
	return &layoutUseCase{
		repo:     repo,
		enforcer: NewEnforcer(repo, locker, log),
		resolver: NewResolver(repo),
		cloner:   NewCloner(repo),
		es:       es,
		logger:   log,
		now:      time.Now,
	}
}

func (uc *layoutUseCase) ResolveLayout(ctx context.Context, input *dto.ResolveInput) (*model.GridLayout, error) {
	return uc.resolver.Resolve(ctx, input)
}

func (uc *layoutUseCase) SaveLayout(ctx context.Context, input *dto.SaveLayoutInput) (*model.GridLayout, error) {
	if input.ID == "" {
		return uc.createLayout(ctx, input)
	}

	var saved *model.GridLayout
	err := uc.withRetry(ctx, input.MerchantID, input.ID, func(l *model.GridLayout) error {
		l.ScopeTillID = input.ScopeTillID
		l.Name = strings.TrimSpace(input.Name)
		l.Columns = input.Columns
		l.Items = model.LayoutItems(input.Items)
		l.IsDefault = input.IsDefault
		l.Filter = input.Filter
		l.IsShared = input.IsShared
		l.Version = model.CurrentLayoutVersion
		if err := l.Validate(); err != nil {
			return err
		}
		saved = l
		return uc.write(ctx, l, false)
	})
	if err != nil {
		return nil, err
	}

	go uc.syncToElastic(context.Background(), saved)
	return saved, nil
}

func (uc *layoutUseCase) createLayout(ctx context.Context, input *dto.SaveLayoutInput) (*model.GridLayout, error) {
	now := uc.now()
	items := model.LayoutItems(input.Items)
	if items == nil {
		items = model.LayoutItems{}
	}

	l := &model.GridLayout{
		BaseModel:   model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		MerchantID:  input.MerchantID,
		ScopeTillID: input.ScopeTillID,
		Name:        strings.TrimSpace(input.Name),
		Columns:     input.Columns,
		Items:       items,
		Version:     model.CurrentLayoutVersion,
		IsDefault:   input.IsDefault,
		Filter:      input.Filter,
		IsShared:    input.IsShared,
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}

	if err := uc.write(ctx, l, true); err != nil {
		uc.logger.Error("failed to create layout", zap.String("merchant_id", l.MerchantID), zap.Error(err))
		return nil, err
	}

	go uc.syncToElastic(context.Background(), l)
	return l, nil
}

// write routes default records through the Enforcer.
func (uc *layoutUseCase) write(ctx context.Context, l *model.GridLayout, create bool) error {
	l.UpdatedAt = uc.now()
	if l.IsDefault {
		return uc.enforcer.ApplyDefault(ctx, l, create)
	}
	if create {
		return uc.repo.Create(ctx, l)
	}
	return uc.repo.Update(ctx, l)
}

// withRetry loads the layout, applies mutate and retries on stale revisions.
func (uc *layoutUseCase) withRetry(ctx context.Context, merchantID, id string, mutate func(l *model.GridLayout) error) error {
	var err error
	for attempt := 0; attempt < maxWriteRetries; attempt++ {
		var l *model.GridLayout
		l, err = uc.GetLayout(ctx, merchantID, id)
		if err != nil {
			return err
		}
		err = mutate(l)
		if !errors.Is(err, model.ErrOptimisticLock) {
			return err
		}
		uc.logger.Debug("stale layout revision, retrying", zap.String("layout_id", id), zap.Int("attempt", attempt+1))
	}
	return err
}

func (uc *layoutUseCase) UpdateLayout(ctx context.Context, merchantID, id string, patch *dto.LayoutPatch) (*model.GridLayout, error) {
	var saved *model.GridLayout
	err := uc.withRetry(ctx, merchantID, id, func(l *model.GridLayout) error {
		if patch.Name != nil {
			l.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.ScopeTillID != nil {
			l.ScopeTillID = *patch.ScopeTillID
		}
		if patch.Columns != nil {
			l.Columns = *patch.Columns
		}
		if patch.Items != nil {
			l.Items = model.LayoutItems(*patch.Items)
		}
		if patch.IsDefault != nil {
			l.IsDefault = *patch.IsDefault
		}
		if patch.Filter != nil {
			l.Filter = *patch.Filter
		}
		if patch.IsShared != nil {
			l.IsShared = *patch.IsShared
		}
		if err := l.Validate(); err != nil {
			return err
		}
		saved = l
		return uc.write(ctx, l, false)
	})
	if err != nil {
		return nil, err
	}

	go uc.syncToElastic(context.Background(), saved)
	return saved, nil
}

func (uc *layoutUseCase) SetDefault(ctx context.Context, merchantID, id string) (*model.GridLayout, error) {
	var saved *model.GridLayout
	err := uc.withRetry(ctx, merchantID, id, func(l *model.GridLayout) error {
		l.IsDefault = true
		saved = l
		return uc.write(ctx, l, false)
	})
	if err != nil {
		uc.logger.Error("failed to set default layout", zap.String("layout_id", id), zap.Error(err))
		return nil, err
	}

	go uc.syncToElastic(context.Background(), saved)
	return saved, nil
}

// ClearDefault unmarks a layout. Siblings are not touched.
func (uc *layoutUseCase) ClearDefault(ctx context.Context, merchantID, id string) (*model.GridLayout, error) {
	var saved *model.GridLayout
	changed := false
	err := uc.withRetry(ctx, merchantID, id, func(l *model.GridLayout) error {
		saved, changed = l, false
		if !l.IsDefault {
			return nil
		}
		l.IsDefault = false
		changed = true
		return uc.write(ctx, l, false)
	})
	if err != nil {
		return nil, err
	}

	if changed {
		go uc.syncToElastic(context.Background(), saved)
	}
	return saved, nil
}

func (uc *layoutUseCase) CloneLayout(ctx context.Context, input *dto.CloneInput) (*model.GridLayout, error) {
	l, err := uc.cloner.CloneToScope(ctx, input)
	if err != nil {
		return nil, err
	}
	go uc.syncToElastic(context.Background(), l)
	return l, nil
}

func (uc *layoutUseCase) GetLayout(ctx context.Context, merchantID, id string) (*model.GridLayout, error) {
	l, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.MerchantID != merchantID {
		return nil, fmt.Errorf("layout %s: %w", id, model.ErrNotFound)
	}
	return l, nil
}

func (uc *layoutUseCase) ListLayouts(ctx context.Context, filters *dto.LayoutFilters) ([]model.GridLayout, int, error) {
	if filters.MerchantID == "" {
		return nil, 0, fmt.Errorf("%w: merchant id is required", model.ErrInvalidInput)
	}
	return uc.repo.FindAll(ctx, filters)
}

// MoveItem repositions one grid item. It is the committer behind grid edit
// sessions.
func (uc *layoutUseCase) MoveItem(ctx context.Context, input *dto.MoveItemInput) (*model.GridLayout, error) {
	var saved *model.GridLayout
	err := uc.withRetry(ctx, input.MerchantID, input.LayoutID, func(l *model.GridLayout) error {
		idx := l.ItemIndex(input.ItemID)
		if idx < 0 {
			return fmt.Errorf("item %s in layout %s: %w", input.ItemID, l.ID, model.ErrNotFound)
		}
		item := l.Items[idx]
		item.X, item.Y = input.X, input.Y
		if err := item.ValidateCell(); err != nil {
			return err
		}
		l.Items[idx] = item
		saved = l
		l.UpdatedAt = uc.now()
		return uc.repo.Update(ctx, l)
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (uc *layoutUseCase) DeleteLayout(ctx context.Context, merchantID, id string) error {
	if _, err := uc.GetLayout(ctx, merchantID, id); err != nil {
		return err
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}

	if uc.es != nil {
		go func() {
			if err := uc.es.Delete(context.Background(), layoutIndex, id); err != nil {
				uc.logger.Error("failed to delete layout from ES", zap.String("layout_id", id), zap.Error(err))
			}
		}()
	}
	return nil
}

type layoutDocument struct {
	ID          string    `json:"id"`
	MerchantID  string    `json:"merchant_id"`
	Name        string    `json:"name"`
	ScopeTillID *string   `json:"scope_till_id"`
	FilterType  string    `json:"filter_type"`
	CategoryID  *string   `json:"category_id"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// newLayoutDocument leaves out is_default: the enforcer flips it on sibling
// rows that are never re-indexed, so the repository stays its only source.
func newLayoutDocument(l *model.GridLayout) layoutDocument {
	return layoutDocument{
		ID:          l.ID,
		MerchantID:  l.MerchantID,
		Name:        l.Name,
		ScopeTillID: l.ScopeTillID,
		FilterType:  string(l.Filter.Type),
		CategoryID:  l.Filter.CategoryIDPtr(),
		UpdatedAt:   l.UpdatedAt,
	}
}

func (uc *layoutUseCase) syncToElastic(ctx context.Context, l *model.GridLayout) {
	if uc.es == nil || l == nil {
		return
	}

	mapping := `{
		"mappings": {
			"properties": {
				"merchant_id": { "type": "keyword" },
				"name": { "type": "text" },
				"scope_till_id": { "type": "keyword" },
				"filter_type": { "type": "keyword" },
				"category_id": { "type": "keyword" },
				"updated_at": { "type": "date" }
			}
		}
	}`
	if err := uc.es.CreateIndex(ctx, layoutIndex, mapping); err != nil {
		uc.logger.Warn("failed to ensure layout index", zap.Error(err))
	}

	if err := uc.es.Index(ctx, layoutIndex, l.ID, newLayoutDocument(l)); err != nil {
		uc.logger.Error("failed to index layout", zap.String("layout_id", l.ID), zap.Error(err))
	}
}

// SearchLayouts finds saved layouts by name. Hits are re-read from the
// repository so the result never carries stale index data.
func (uc *layoutUseCase) SearchLayouts(ctx context.Context, merchantID, query string, page, pageSize int) ([]model.GridLayout, int, error) {
	if merchantID == "" {
		return nil, 0, fmt.Errorf("%w: merchant id is required", model.ErrInvalidInput)
	}
	if page < 1 {
		page = 1
	}

	if query != "" && uc.es != nil {
		layouts, total, err := uc.searchElastic(ctx, merchantID, query, page, pageSize)
		if err == nil {
			return layouts, total, nil
		}
		uc.logger.Error("ES search failed, falling back to DB", zap.Error(err))
	}

	return uc.repo.FindAll(ctx, &dto.LayoutFilters{
		MerchantID: merchantID,
		NameQuery:  query,
		Page:       page,
		PageSize:   pageSize,
	})
}

func (uc *layoutUseCase) searchElastic(ctx context.Context, merchantID, query string, page, pageSize int) ([]model.GridLayout, int, error) {
	q := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []map[string]interface{}{
					{"match": map[string]interface{}{"name": map[string]interface{}{"query": query, "fuzziness": "AUTO"}}},
					{"term": map[string]interface{}{"merchant_id": merchantID}},
				},
			},
		},
	}
	if pageSize > 0 {
		q["from"] = (page - 1) * pageSize
		q["size"] = pageSize
	}

	res, err := uc.es.Search(ctx, layoutIndex, q)
	if err != nil {
		return nil, 0, err
	}

	layouts := make([]model.GridLayout, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		var doc layoutDocument
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			continue
		}
		l, err := uc.repo.FindByID(ctx, doc.ID)
		if errors.Is(err, model.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, 0, err
		}
		layouts = append(layouts, *l)
	}
	return layouts, res.Hits.Total.Value, nil
}
