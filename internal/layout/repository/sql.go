package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-layout-service/internal/layout"
	"github.com/fekuna/omnipos-layout-service/internal/layout/dto"
	"github.com/fekuna/omnipos-layout-service/internal/model"
	"github.com/fekuna/omnipos-layout-service/internal/pkg/database"
	"github.com/jmoiron/sqlx"
)

var _ layout.Repository = (*SQLRepository)(nil)

const layoutColumns = `id, merchant_id, scope_till_id, name, grid_columns, items, version,
        is_default, filter_type, category_id, is_shared, scope_key, revision, created_at, updated_at`

type layoutRow struct {
	ID          string            `db:"id"`
	MerchantID  string            `db:"merchant_id"`
	ScopeTillID sql.NullString    `db:"scope_till_id"`
	Name        string            `db:"name"`
	Columns     int               `db:"grid_columns"`
	Items       model.LayoutItems `db:"items"`
	Version     string            `db:"version"`
	IsDefault   bool              `db:"is_default"`
	FilterType  string            `db:"filter_type"`
	CategoryID  sql.NullString    `db:"category_id"`
	IsShared    bool              `db:"is_shared"`
	ScopeKey    string            `db:"scope_key"`
	Revision    int               `db:"revision"`
	CreatedAt   time.Time         `db:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at"`
}

func toRow(l *model.GridLayout) *layoutRow {
	row := &layoutRow{
		ID:         l.ID,
		MerchantID: l.MerchantID,
		Name:       l.Name,
		Columns:    l.Columns,
		Items:      l.Items,
		Version:    l.Version,
		IsDefault:  l.IsDefault,
		FilterType: string(l.Filter.Type),
		IsShared:   l.IsShared,
		ScopeKey:   l.ScopeKey(),
		Revision:   l.Revision,
		CreatedAt:  l.CreatedAt,
		UpdatedAt:  l.UpdatedAt,
	}
	if l.ScopeTillID != nil {
		row.ScopeTillID = sql.NullString{String: *l.ScopeTillID, Valid: true}
	}
	if id := l.Filter.CategoryIDPtr(); id != nil {
		row.CategoryID = sql.NullString{String: *id, Valid: true}
	}
	if row.Items == nil {
		row.Items = model.LayoutItems{}
	}
	return row
}

func (row *layoutRow) toModel() model.GridLayout {
	l := model.GridLayout{
		BaseModel:  model.BaseModel{ID: row.ID, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt},
		MerchantID: row.MerchantID,
		Name:       row.Name,
		Columns:    row.Columns,
		Items:      row.Items,
		Version:    row.Version,
		IsDefault:  row.IsDefault,
		Filter:     model.Filter{Type: model.FilterType(row.FilterType)},
		IsShared:   row.IsShared,
		Revision:   row.Revision,
	}
	if row.ScopeTillID.Valid {
		till := row.ScopeTillID.String
		l.ScopeTillID = &till
	}
	if l.Filter.Type == model.FilterCategory && row.CategoryID.Valid {
		l.Filter.CategoryID = row.CategoryID.String
	}
	if l.Items == nil {
		l.Items = model.LayoutItems{}
	}
	return l
}

// SQLRepository works against both Postgres and MySQL; placeholders are
// rebound for the driver the *sqlx.DB was opened with.
type SQLRepository struct {
	DB *sqlx.DB
}

func NewSQLRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{DB: db}
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, model.ErrStoreUnavailable, err)
}

func writeErr(op string, err error) error {
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("%s: %w", op, model.ErrExclusivityConflict)
	}
	return storeErr(op, err)
}

const insertLayoutQuery = `
        INSERT INTO grid_layouts (id, merchant_id, scope_till_id, name, grid_columns, items, version,
            is_default, filter_type, category_id, is_shared, scope_key, revision, created_at, updated_at)
        VALUES (:id, :merchant_id, :scope_till_id, :name, :grid_columns, :items, :version,
            :is_default, :filter_type, :category_id, :is_shared, :scope_key, :revision, :created_at, :updated_at)
    `

const updateLayoutQuery = `
        UPDATE grid_layouts
        SET scope_till_id = :scope_till_id,
            name = :name,
            grid_columns = :grid_columns,
            items = :items,
            version = :version,
            is_default = :is_default,
            filter_type = :filter_type,
            category_id = :category_id,
            is_shared = :is_shared,
            scope_key = :scope_key,
            revision = revision + 1,
            updated_at = :updated_at
        WHERE id = :id AND revision = :revision
    `

func (r *SQLRepository) Create(ctx context.Context, l *model.GridLayout) error {
	_, err := r.DB.NamedExecContext(ctx, insertLayoutQuery, toRow(l))
	if err != nil {
		return writeErr("create layout", err)
	}
	return nil
}

func (r *SQLRepository) FindByID(ctx context.Context, id string) (*model.GridLayout, error) {
	var row layoutRow
	query := r.DB.Rebind(`SELECT ` + layoutColumns + ` FROM grid_layouts WHERE id = ?`)
	err := r.DB.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("layout %s: %w", id, model.ErrNotFound)
		}
		return nil, storeErr("find layout", err)
	}
	l := row.toModel()
	return &l, nil
}

func (r *SQLRepository) FindAll(ctx context.Context, f *dto.LayoutFilters) ([]model.GridLayout, int, error) {
	var rows []layoutRow
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.MerchantID != "" {
		conditions = append(conditions, "merchant_id = :merchant_id")
		args["merchant_id"] = f.MerchantID
	}
	switch f.Scope {
	case dto.ScopeShared:
		conditions = append(conditions, "scope_till_id IS NULL")
	case dto.ScopeTill:
		conditions = append(conditions, "scope_till_id = :scope_till_id")
		args["scope_till_id"] = f.TillID
	}
	if f.FilterType != "" {
		conditions = append(conditions, "filter_type = :filter_type")
		args["filter_type"] = f.FilterType
		if f.FilterType == string(model.FilterCategory) && f.CategoryID != nil {
			conditions = append(conditions, "category_id = :category_id")
			args["category_id"] = *f.CategoryID
		}
	}
	if f.IsDefault != nil {
		conditions = append(conditions, "is_default = :is_default")
		args["is_default"] = *f.IsDefault
	}
	if f.NameQuery != "" {
		conditions = append(conditions, "LOWER(name) LIKE :name_query")
		args["name_query"] = "%" + strings.ToLower(f.NameQuery) + "%"
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countRows, err := r.DB.NamedQueryContext(ctx, "SELECT count(*) FROM grid_layouts"+whereClause, args)
	if err != nil {
		return nil, 0, storeErr("count layouts", err)
	}
	if countRows.Next() {
		if err := countRows.Scan(&count); err != nil {
			countRows.Close()
			return nil, 0, storeErr("count layouts", err)
		}
	}
	countRows.Close()

	query := "SELECT " + layoutColumns + " FROM grid_layouts" + whereClause + " ORDER BY is_default DESC, name ASC"
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, storeErr("list layouts", err)
	}
	defer nstmt.Close()

	if err := nstmt.SelectContext(ctx, &rows, args); err != nil {
		return nil, 0, storeErr("list layouts", err)
	}

	layouts := make([]model.GridLayout, len(rows))
	for i := range rows {
		layouts[i] = rows[i].toModel()
	}
	return layouts, count, nil
}

func (r *SQLRepository) Update(ctx context.Context, l *model.GridLayout) error {
	res, err := r.DB.NamedExecContext(ctx, updateLayoutQuery, toRow(l))
	if err != nil {
		return writeErr("update layout", err)
	}
	return r.afterRevisionedWrite(ctx, r.DB, res, l)
}

// afterRevisionedWrite tells a stale revision apart from a missing row.
func (r *SQLRepository) afterRevisionedWrite(ctx context.Context, q sqlx.QueryerContext, res sql.Result, l *model.GridLayout) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("update layout", err)
	}
	if n > 0 {
		l.Revision++
		return nil
	}

	var exists int
	err = sqlx.GetContext(ctx, q, &exists, r.DB.Rebind(`SELECT count(*) FROM grid_layouts WHERE id = ?`), l.ID)
	if err != nil {
		return storeErr("update layout", err)
	}
	if exists == 0 {
		return fmt.Errorf("layout %s: %w", l.ID, model.ErrNotFound)
	}
	return fmt.Errorf("layout %s revision %d: %w", l.ID, l.Revision, model.ErrOptimisticLock)
}

func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, r.DB.Rebind("DELETE FROM grid_layouts WHERE id = ?"), id)
	if err != nil {
		return storeErr("delete layout", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("delete layout", err)
	}
	if n == 0 {
		return fmt.Errorf("layout %s: %w", id, model.ErrNotFound)
	}
	return nil
}

func (r *SQLRepository) ApplyDefault(ctx context.Context, l *model.GridLayout, create bool) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return storeErr("apply default", err)
	}
	defer tx.Rollback()

	scopeKey := l.ScopeKey()

	// Row locks on the scope serialize concurrent default writers; the unique
	// index on (scope_key) WHERE is_default catches inserts into an empty scope.
	var locked []string
	err = tx.SelectContext(ctx, &locked, tx.Rebind(`SELECT id FROM grid_layouts WHERE scope_key = ? FOR UPDATE`), scopeKey)
	if err != nil {
		return storeErr("apply default", err)
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(`
        UPDATE grid_layouts
        SET is_default = FALSE, revision = revision + 1, updated_at = ?
        WHERE scope_key = ? AND is_default = TRUE AND id <> ?`), l.UpdatedAt, scopeKey, l.ID)
	if err != nil {
		return storeErr("clear scope defaults", err)
	}

	l.IsDefault = true
	if create {
		if _, err := tx.NamedExecContext(ctx, insertLayoutQuery, toRow(l)); err != nil {
			return writeErr("create default layout", err)
		}
	} else {
		res, err := tx.NamedExecContext(ctx, updateLayoutQuery, toRow(l))
		if err != nil {
			return writeErr("update default layout", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return storeErr("update default layout", err)
		}
		if n == 0 {
			return r.afterRevisionedWrite(ctx, tx, res, l)
		}
	}

	if err := tx.Commit(); err != nil {
		return writeErr("apply default", err)
	}
	if !create {
		l.Revision++
	}
	return nil
}

func (r *SQLRepository) CountDefaults(ctx context.Context, scopeKey string) (int, error) {
	var n int
	query := r.DB.Rebind(`SELECT count(*) FROM grid_layouts WHERE scope_key = ? AND is_default = TRUE`)
	if err := r.DB.GetContext(ctx, &n, query, scopeKey); err != nil {
		return 0, storeErr("count defaults", err)
	}
	return n, nil
}
