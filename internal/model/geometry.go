package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
)

const (
	DefaultCanvasWidth  = 800
	DefaultCanvasHeight = 600
)

// LayoutItem is a positioned element on a product grid or a room canvas.
// Grid items are measured in whole cells, room items in canvas units.
type LayoutItem struct {
	ID     string  `json:"id"`
	RefID  string  `json:"ref_id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Bounds struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

func (b Bounds) Width() float64  { return b.MaxX - b.MinX }
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

func (i LayoutItem) Position() Point { return Point{X: i.X, Y: i.Y} }
func (i LayoutItem) Size() Size      { return Size{Width: i.Width, Height: i.Height} }

// Validate rejects items with a non-positive span or negative coordinates.
func (i LayoutItem) Validate() error {
	if isBad(i.X) || isBad(i.Y) || isBad(i.Width) || isBad(i.Height) {
		return fmt.Errorf("%w: item %q has non-finite values", ErrInvalidGeometry, i.ID)
	}
	if i.Width <= 0 || i.Height <= 0 {
		return fmt.Errorf("%w: item %q must have positive width and height", ErrInvalidGeometry, i.ID)
	}
	if i.X < 0 || i.Y < 0 {
		return fmt.Errorf("%w: item %q has negative coordinates", ErrInvalidGeometry, i.ID)
	}
	return nil
}

// ValidateCell is Validate plus the whole-cell rule used by product grids.
func (i LayoutItem) ValidateCell() error {
	if err := i.Validate(); err != nil {
		return err
	}
	for _, v := range []float64{i.X, i.Y, i.Width, i.Height} {
		if v != math.Trunc(v) {
			return fmt.Errorf("%w: grid item %q must use whole cells", ErrInvalidGeometry, i.ID)
		}
	}
	return nil
}

func isBad(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// CanvasBounds sizes an editing surface to its contents. An empty set yields
// the default canvas at the origin.
func CanvasBounds(items []LayoutItem, margin float64) Bounds {
	if len(items) == 0 {
		return Bounds{MaxX: DefaultCanvasWidth, MaxY: DefaultCanvasHeight}
	}

	b := Bounds{
		MinX: math.Inf(1),
		MinY: math.Inf(1),
		MaxX: math.Inf(-1),
		MaxY: math.Inf(-1),
	}
	for _, it := range items {
		b.MinX = math.Min(b.MinX, it.X)
		b.MinY = math.Min(b.MinY, it.Y)
		b.MaxX = math.Max(b.MaxX, it.X+it.Width)
		b.MaxY = math.Max(b.MaxY, it.Y+it.Height)
	}
	b.MinX -= margin
	b.MinY -= margin
	b.MaxX += margin
	b.MaxY += margin
	return b
}

// Clamp keeps an item of the given size fully inside a canvas anchored at the
// origin. A canvas smaller than the item pins it to zero.
func Clamp(p Point, item Size, canvas Size) Point {
	return Point{
		X: clampAxis(p.X, canvas.Width-item.Width),
		Y: clampAxis(p.Y, canvas.Height-item.Height),
	}
}

func clampAxis(v, max float64) float64 {
	if max < 0 {
		max = 0
	}
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

// LayoutItems is the JSON column holding a layout's items.
type LayoutItems []LayoutItem

func (li LayoutItems) Value() (driver.Value, error) {
	if li == nil {
		return "[]", nil
	}
	b, err := json.Marshal(li)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (li *LayoutItems) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*li = LayoutItems{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("layout items: unsupported column type %T", src)
	}
	if len(data) == 0 {
		*li = LayoutItems{}
		return nil
	}
	return json.Unmarshal(data, li)
}
