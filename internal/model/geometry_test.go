package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutItemValidate(t *testing.T) {
	tests := []struct {
		name    string
		item    LayoutItem
		wantErr bool
	}{
		{"valid", LayoutItem{ID: "a", X: 0, Y: 0, Width: 1, Height: 1}, false},
		{"zero width", LayoutItem{ID: "a", Width: 0, Height: 1}, true},
		{"negative height", LayoutItem{ID: "a", Width: 1, Height: -2}, true},
		{"negative x", LayoutItem{ID: "a", X: -1, Width: 1, Height: 1}, true},
		{"nan", LayoutItem{ID: "a", X: math.NaN(), Width: 1, Height: 1}, true},
		{"inf", LayoutItem{ID: "a", Width: math.Inf(1), Height: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidGeometry)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLayoutItemValidateCell(t *testing.T) {
	assert.NoError(t, LayoutItem{ID: "a", X: 2, Y: 3, Width: 2, Height: 1}.ValidateCell())
	assert.ErrorIs(t, LayoutItem{ID: "a", X: 0.5, Width: 1, Height: 1}.ValidateCell(), ErrInvalidGeometry)
	assert.ErrorIs(t, LayoutItem{ID: "a", Width: 1.5, Height: 1}.ValidateCell(), ErrInvalidGeometry)
}

func TestCanvasBounds(t *testing.T) {
	t.Run("empty uses default canvas", func(t *testing.T) {
		b := CanvasBounds(nil, 20)
		assert.Equal(t, Bounds{MaxX: DefaultCanvasWidth, MaxY: DefaultCanvasHeight}, b)
	})

	t.Run("spans items plus margin", func(t *testing.T) {
		items := []LayoutItem{
			{ID: "t1", X: 100, Y: 50, Width: 80, Height: 80},
			{ID: "t2", X: 300, Y: 200, Width: 120, Height: 60},
		}
		b := CanvasBounds(items, 10)
		assert.Equal(t, Bounds{MinX: 90, MinY: 40, MaxX: 430, MaxY: 270}, b)
		assert.Equal(t, 340.0, b.Width())
		assert.Equal(t, 230.0, b.Height())
	})
}

func TestClamp(t *testing.T) {
	canvas := Size{Width: 400, Height: 400}
	item := Size{Width: 80, Height: 80}

	assert.Equal(t, Point{X: 320, Y: 320}, Clamp(Point{X: 500, Y: 500}, item, canvas))
	assert.Equal(t, Point{X: 0, Y: 0}, Clamp(Point{X: -30, Y: -1}, item, canvas))
	assert.Equal(t, Point{X: 120, Y: 80}, Clamp(Point{X: 120, Y: 80}, item, canvas))

	// item larger than the canvas is pinned to the origin
	assert.Equal(t, Point{}, Clamp(Point{X: 10, Y: 10}, Size{Width: 500, Height: 500}, canvas))
}

func TestLayoutItemsColumn(t *testing.T) {
	items := LayoutItems{{ID: "a", RefID: "p1", X: 1, Y: 2, Width: 1, Height: 1}}

	v, err := items.Value()
	require.NoError(t, err)

	var back LayoutItems
	require.NoError(t, back.Scan([]byte(v.(string))))
	assert.Equal(t, items, back)

	var empty LayoutItems
	require.NoError(t, empty.Scan(nil))
	assert.NotNil(t, empty)
	assert.Len(t, empty, 0)

	assert.Error(t, empty.Scan(42))
}
