package usecase

import (
	"context"

	"github.com/fekuna/omnipos-layout-service/internal/editsession"
	"github.com/fekuna/omnipos-layout-service/internal/floorplan"
	"github.com/fekuna/omnipos-layout-service/internal/floorplan/dto"
	"github.com/fekuna/omnipos-layout-service/internal/model"
)

// TableCommitter persists floor plan drags through MoveTable.
func TableCommitter(uc floorplan.UseCase, merchantID string) editsession.Committer {
	return editsession.CommitFunc(func(ctx context.Context, tableID string, pos model.Point) error {
		_, err := uc.MoveTable(ctx, &dto.MoveTableInput{
			ID:         tableID,
			MerchantID: merchantID,
			X:          pos.X,
			Y:          pos.Y,
		})
		return err
	})
}
