package usecase

import (
	"context"

	"github.com/fekuna/omnipos-layout-service/internal/editsession"
	"github.com/fekuna/omnipos-layout-service/internal/layout"
	"github.com/fekuna/omnipos-layout-service/internal/layout/dto"
	"github.com/fekuna/omnipos-layout-service/internal/model"
)

// GridCommitter persists grid drags for one layout through MoveItem. Use it
// with a session that snaps to whole cells.
func GridCommitter(uc layout.UseCase, merchantID, layoutID string) editsession.Committer {
	return editsession.CommitFunc(func(ctx context.Context, itemID string, pos model.Point) error {
		_, err := uc.MoveItem(ctx, &dto.MoveItemInput{
			MerchantID: merchantID,
			LayoutID:   layoutID,
			ItemID:     itemID,
			X:          pos.X,
			Y:          pos.Y,
		})
		return err
	})
}
