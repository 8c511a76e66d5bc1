package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableValidate(t *testing.T) {
	table := Table{
		BaseModel: BaseModel{ID: "t1"},
		RoomID:    "r1",
		Name:      "T1",
		X:         10,
		Y:         10,
		Width:     80,
		Height:    80,
		Status:    TableAvailable,
	}
	assert.NoError(t, table.Validate())

	bad := table
	bad.Status = "dirty"
	assert.ErrorIs(t, bad.Validate(), ErrInvalidInput)

	bad = table
	bad.RoomID = ""
	assert.ErrorIs(t, bad.Validate(), ErrInvalidInput)

	bad = table
	bad.Height = 0
	assert.ErrorIs(t, bad.Validate(), ErrInvalidGeometry)

	// tables are not bound to whole cells
	frac := table
	frac.X = 12.5
	assert.NoError(t, frac.Validate())
}

func TestTableStatusValid(t *testing.T) {
	for _, s := range []TableStatus{TableAvailable, TableOccupied, TableReserved, TableBillRequested, TableUnavailable} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, TableStatus("").Valid())
}
