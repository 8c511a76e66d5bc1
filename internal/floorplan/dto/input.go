package dto

import "github.com/fekuna/omnipos-layout-service/internal/model"

type CreateRoomInput struct {
	MerchantID  string
	Name        string
	Description *string
}

type UpdateRoomInput struct {
	ID          string
	MerchantID  string
	Name        *string
	Description *string
}

type CreateTableInput struct {
	MerchantID string
	RoomID     string
	Name       string
	X          float64
	Y          float64
	Width      float64
	Height     float64
	Status     model.TableStatus // empty means available
}

type UpdateTableInput struct {
	ID         string
	MerchantID string
	RoomID     *string
	Name       *string
	Width      *float64
	Height     *float64
}

type MoveTableInput struct {
	ID         string
	MerchantID string
	X          float64
	Y          float64
}

type SetTableStatusInput struct {
	ID         string
	MerchantID string
	Status     model.TableStatus
}
