package workflow

import (
	"context"

	"bitbucket.org/mmdatafocus/inventory_review/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var fullConfidence = decimal.NewFromInt(100)

// AutoFinalize moves every pending record whose confidence score is 100 to
// the finalized table and returns the moved skus. It holds the same table
// lock as the review loop and saves finalized before pending.
func (s *Service) AutoFinalize(ctx context.Context) ([]string, error) {
	var moved []string
	err := s.locked(ctx, "AutoFinalize", nil, func(ctx context.Context) error {
		pending, err := s.loadPending(ctx)
		if err != nil {
			return err
		}

		var keep []*models.Record
		var rows []models.Row
		for _, rec := range pending.Records {
			score, ok := rec.ConfidenceScore()
			if ok && score.Equal(fullConfidence) && rec.Sku() != "" {
				rows = append(rows, rec.Finalize())
				moved = append(moved, rec.Sku())
				continue
			}
			keep = append(keep, rec)
		}
		if len(rows) == 0 {
			return nil
		}

		finalized, err := s.loadFinalized(ctx)
		if err != nil {
			return err
		}
		for _, row := range rows {
			finalized.Append(row)
		}
		pending.Records = keep

		if err := s.saveFinalized(ctx, finalized); err != nil {
			return err
		}
		return s.savePending(ctx, pending)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.WithFields(logrus.Fields{"field": "autoFinalize", "count": len(moved)}).Info("auto-finalize complete")
	return moved, nil
}
