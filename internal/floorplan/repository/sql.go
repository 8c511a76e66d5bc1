package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-layout-service/internal/floorplan"
	"github.com/fekuna/omnipos-layout-service/internal/floorplan/dto"
	"github.com/fekuna/omnipos-layout-service/internal/model"
	"github.com/jmoiron/sqlx"
)

var _ floorplan.Repository = (*SQLRepository)(nil)

const (
	roomColumns  = `id, merchant_id, name, description, created_at, updated_at`
	tableColumns = `id, merchant_id, room_id, name, x, y, width, height, status, created_at, updated_at`
)

type SQLRepository struct {
	DB *sqlx.DB
}

func NewSQLRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{DB: db}
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, model.ErrStoreUnavailable, err)
}

// expectOne turns a zero-row write into ErrNotFound.
func expectOne(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("update "+what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, model.ErrNotFound)
	}
	return nil
}

func (r *SQLRepository) CreateRoom(ctx context.Context, room *model.Room) error {
	query := `
        INSERT INTO rooms (id, merchant_id, name, description, created_at, updated_at)
        VALUES (:id, :merchant_id, :name, :description, :created_at, :updated_at)
    `
	if _, err := r.DB.NamedExecContext(ctx, query, room); err != nil {
		return storeErr("create room", err)
	}
	return nil
}

func (r *SQLRepository) FindRoomByID(ctx context.Context, id string) (*model.Room, error) {
	var room model.Room
	query := r.DB.Rebind(`SELECT ` + roomColumns + ` FROM rooms WHERE id = ?`)
	if err := r.DB.GetContext(ctx, &room, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("room %s: %w", id, model.ErrNotFound)
		}
		return nil, storeErr("find room", err)
	}
	return &room, nil
}

func (r *SQLRepository) FindRooms(ctx context.Context, merchantID string) ([]model.Room, error) {
	rooms := []model.Room{}
	query := r.DB.Rebind(`SELECT ` + roomColumns + ` FROM rooms WHERE merchant_id = ? ORDER BY name ASC`)
	if err := r.DB.SelectContext(ctx, &rooms, query, merchantID); err != nil {
		return nil, storeErr("list rooms", err)
	}
	return rooms, nil
}

func (r *SQLRepository) UpdateRoom(ctx context.Context, room *model.Room) error {
	query := `
        UPDATE rooms
        SET name = :name, description = :description, updated_at = :updated_at
        WHERE id = :id
    `
	res, err := r.DB.NamedExecContext(ctx, query, room)
	if err != nil {
		return storeErr("update room", err)
	}
	return expectOne(res, "room", room.ID)
}

// DeleteRoom deletes the room's tables in the same transaction so the
// cascade holds on stores without foreign keys.
func (r *SQLRepository) DeleteRoom(ctx context.Context, id string) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return storeErr("delete room", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM restaurant_tables WHERE room_id = ?`), id); err != nil {
		return storeErr("delete room tables", err)
	}

	res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM rooms WHERE id = ?`), id)
	if err != nil {
		return storeErr("delete room", err)
	}
	if err := expectOne(res, "room", id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storeErr("delete room", err)
	}
	return nil
}

func (r *SQLRepository) CreateTable(ctx context.Context, t *model.Table) error {
	query := `
        INSERT INTO restaurant_tables (id, merchant_id, room_id, name, x, y, width, height, status, created_at, updated_at)
        VALUES (:id, :merchant_id, :room_id, :name, :x, :y, :width, :height, :status, :created_at, :updated_at)
    `
	if _, err := r.DB.NamedExecContext(ctx, query, t); err != nil {
		return storeErr("create table", err)
	}
	return nil
}

func (r *SQLRepository) FindTableByID(ctx context.Context, id string) (*model.Table, error) {
	var t model.Table
	query := r.DB.Rebind(`SELECT ` + tableColumns + ` FROM restaurant_tables WHERE id = ?`)
	if err := r.DB.GetContext(ctx, &t, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("table %s: %w", id, model.ErrNotFound)
		}
		return nil, storeErr("find table", err)
	}
	return &t, nil
}

func (r *SQLRepository) FindTables(ctx context.Context, f *dto.TableFilters) ([]model.Table, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.MerchantID != "" {
		conditions = append(conditions, "merchant_id = :merchant_id")
		args["merchant_id"] = f.MerchantID
	}
	if f.RoomID != "" {
		conditions = append(conditions, "room_id = :room_id")
		args["room_id"] = f.RoomID
	}
	if f.Status != nil {
		conditions = append(conditions, "status = :status")
		args["status"] = string(*f.Status)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	query := "SELECT " + tableColumns + " FROM restaurant_tables" + whereClause + " ORDER BY name ASC"
	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, storeErr("list tables", err)
	}
	defer nstmt.Close()

	tables := []model.Table{}
	if err := nstmt.SelectContext(ctx, &tables, args); err != nil {
		return nil, storeErr("list tables", err)
	}
	return tables, nil
}

func (r *SQLRepository) UpdateTable(ctx context.Context, t *model.Table) error {
	query := `
        UPDATE restaurant_tables
        SET room_id = :room_id, name = :name, x = :x, y = :y, width = :width, height = :height,
            status = :status, updated_at = :updated_at
        WHERE id = :id
    `
	res, err := r.DB.NamedExecContext(ctx, query, t)
	if err != nil {
		return storeErr("update table", err)
	}
	return expectOne(res, "table", t.ID)
}

func (r *SQLRepository) UpdatePosition(ctx context.Context, id string, x, y float64, at time.Time) error {
	query := r.DB.Rebind(`UPDATE restaurant_tables SET x = ?, y = ?, updated_at = ? WHERE id = ?`)
	res, err := r.DB.ExecContext(ctx, query, x, y, at, id)
	if err != nil {
		return storeErr("move table", err)
	}
	return expectOne(res, "table", id)
}

func (r *SQLRepository) UpdateStatus(ctx context.Context, id string, status model.TableStatus, at time.Time) error {
	query := r.DB.Rebind(`UPDATE restaurant_tables SET status = ?, updated_at = ? WHERE id = ?`)
	res, err := r.DB.ExecContext(ctx, query, string(status), at, id)
	if err != nil {
		return storeErr("set table status", err)
	}
	return expectOne(res, "table", id)
}

func (r *SQLRepository) DeleteTable(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, r.DB.Rebind(`DELETE FROM restaurant_tables WHERE id = ?`), id)
	if err != nil {
		return storeErr("delete table", err)
	}
	return expectOne(res, "table", id)
}
