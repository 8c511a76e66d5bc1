package model

import (
	"fmt"
	"strings"
)

type Room struct {
	BaseModel
	MerchantID  string  `db:"merchant_id" json:"merchant_id"`
	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description"`
}

type TableStatus string

const (
	TableAvailable     TableStatus = "available"
	TableOccupied      TableStatus = "occupied"
	TableReserved      TableStatus = "reserved"
	TableBillRequested TableStatus = "bill_requested"
	TableUnavailable   TableStatus = "unavailable"
)

func (s TableStatus) Valid() bool {
	switch s {
	case TableAvailable, TableOccupied, TableReserved, TableBillRequested, TableUnavailable:
		return true
	}
	return false
}

type Table struct {
	BaseModel
	MerchantID string      `db:"merchant_id" json:"merchant_id"`
	RoomID     string      `db:"room_id" json:"room_id"`
	Name       string      `db:"name" json:"name"`
	X          float64     `db:"x" json:"x"`
	Y          float64     `db:"y" json:"y"`
	Width      float64     `db:"width" json:"width"`
	Height     float64     `db:"height" json:"height"`
	Status     TableStatus `db:"status" json:"status"`
}

// Item is the table's footprint on the room canvas.
func (t *Table) Item() LayoutItem {
	return LayoutItem{ID: t.ID, RefID: t.ID, X: t.X, Y: t.Y, Width: t.Width, Height: t.Height}
}

func (t *Table) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: table name is required", ErrInvalidInput)
	}
	if t.RoomID == "" {
		return fmt.Errorf("%w: table must belong to a room", ErrInvalidInput)
	}
	if !t.Status.Valid() {
		return fmt.Errorf("%w: unknown table status %q", ErrInvalidInput, t.Status)
	}
	return t.Item().Validate()
}

// FloorPlan is a room with its tables and a canvas sized to fit them.
type FloorPlan struct {
	Room   *Room   `json:"room"`
	Tables []Table `json:"tables"`
	Bounds Bounds  `json:"bounds"`
}
