package dto

import "github.com/fekuna/omnipos-layout-service/internal/model"

type TableFilters struct {
	MerchantID string
	RoomID     string
	Status     *model.TableStatus
}
