package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fekuna/omnipos-layout-service/internal/floorplan"
	"github.com/fekuna/omnipos-layout-service/internal/floorplan/dto"
	"github.com/fekuna/omnipos-layout-service/internal/model"
)

var _ floorplan.Repository = (*MemoryRepository)(nil)

type MemoryRepository struct {
	mu     sync.RWMutex
	rooms  map[string]model.Room
	tables map[string]model.Table
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		rooms:  map[string]model.Room{},
		tables: map[string]model.Table{},
	}
}

func (r *MemoryRepository) CreateRoom(_ context.Context, room *model.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[room.ID]; ok {
		return fmt.Errorf("create room %s: duplicate id: %w", room.ID, model.ErrInvalidInput)
	}
	r.rooms[room.ID] = *room
	return nil
}

func (r *MemoryRepository) FindRoomByID(_ context.Context, id string) (*model.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[id]
	if !ok {
		return nil, fmt.Errorf("room %s: %w", id, model.ErrNotFound)
	}
	return &room, nil
}

func (r *MemoryRepository) FindRooms(_ context.Context, merchantID string) ([]model.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := []model.Room{}
	for _, room := range r.rooms {
		if room.MerchantID == merchantID {
			rooms = append(rooms, room)
		}
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Name < rooms[j].Name })
	return rooms, nil
}

func (r *MemoryRepository) UpdateRoom(_ context.Context, room *model.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[room.ID]; !ok {
		return fmt.Errorf("room %s: %w", room.ID, model.ErrNotFound)
	}
	r.rooms[room.ID] = *room
	return nil
}

func (r *MemoryRepository) DeleteRoom(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[id]; !ok {
		return fmt.Errorf("room %s: %w", id, model.ErrNotFound)
	}
	for tid, t := range r.tables {
		if t.RoomID == id {
			delete(r.tables, tid)
		}
	}
	delete(r.rooms, id)
	return nil
}

func (r *MemoryRepository) CreateTable(_ context.Context, t *model.Table) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tables[t.ID]; ok {
		return fmt.Errorf("create table %s: duplicate id: %w", t.ID, model.ErrInvalidInput)
	}
	if _, ok := r.rooms[t.RoomID]; !ok {
		return fmt.Errorf("room %s: %w", t.RoomID, model.ErrNotFound)
	}
	r.tables[t.ID] = *t
	return nil
}

func (r *MemoryRepository) FindTableByID(_ context.Context, id string) (*model.Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tables[id]
	if !ok {
		return nil, fmt.Errorf("table %s: %w", id, model.ErrNotFound)
	}
	return &t, nil
}

func (r *MemoryRepository) FindTables(_ context.Context, f *dto.TableFilters) ([]model.Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tables := []model.Table{}
	for _, t := range r.tables {
		if f.MerchantID != "" && t.MerchantID != f.MerchantID {
			continue
		}
		if f.RoomID != "" && t.RoomID != f.RoomID {
			continue
		}
		if f.Status != nil && t.Status != *f.Status {
			continue
		}
		tables = append(tables, t)
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].Name < tables[j].Name })
	return tables, nil
}

func (r *MemoryRepository) UpdateTable(_ context.Context, t *model.Table) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tables[t.ID]; !ok {
		return fmt.Errorf("table %s: %w", t.ID, model.ErrNotFound)
	}
	r.tables[t.ID] = *t
	return nil
}

func (r *MemoryRepository) UpdatePosition(_ context.Context, id string, x, y float64, at time.Time) error {
	return r.mutateTable(id, func(t *model.Table) {
		t.X, t.Y = x, y
		t.UpdatedAt = at
	})
}

func (r *MemoryRepository) UpdateStatus(_ context.Context, id string, status model.TableStatus, at time.Time) error {
	return r.mutateTable(id, func(t *model.Table) {
		t.Status = status
		t.UpdatedAt = at
	})
}

func (r *MemoryRepository) DeleteTable(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tables[id]; !ok {
		return fmt.Errorf("table %s: %w", id, model.ErrNotFound)
	}
	delete(r.tables, id)
	return nil
}

func (r *MemoryRepository) mutateTable(id string, fn func(t *model.Table)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tables[id]
	if !ok {
		return fmt.Errorf("table %s: %w", id, model.ErrNotFound)
	}
	fn(&t)
	r.tables[id] = t
	return nil
}
