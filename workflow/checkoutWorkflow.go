package workflow

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/inventory_review/models"
	"github.com/sirupsen/logrus"
)

// Checkout is the record handed to a worker plus how many other records are
// still eligible.
type Checkout struct {
	Record    *models.Record
	Remaining int
}

// ReclaimStale releases every assignment older than now-timeout and returns
// the released skus. Running it twice in a row changes nothing the second time.
func ReclaimStale(table *models.PendingTable, now time.Time, timeout time.Duration) []string {
	var released []string
	for _, rec := range table.Records {
		if rec.IsStale(now, timeout) {
			rec.Release()
			released = append(released, rec.Sku())
		}
	}
	return released
}

func eligibleRecords(table *models.PendingTable) []*models.Record {
	eligible := make([]*models.Record, 0, len(table.Records))
	for _, rec := range table.Records {
		if rec.Eligible() {
			eligible = append(eligible, rec)
		}
	}
	return eligible
}

// reclaimLocked sweeps stale assignments and persists the table when anything changed.
func (s *Service) reclaimLocked(ctx context.Context, table *models.PendingTable) ([]string, error) {
	released := ReclaimStale(table, s.Now(), s.Timeout)
	if len(released) == 0 {
		return nil, nil
	}
	for _, sku := range released {
		s.Logger.WithFields(logrus.Fields{"field": "reclaim", "sku": sku}).Info("released stale assignment")
	}
	if err := s.savePending(ctx, table); err != nil {
		return nil, err
	}
	s.Logger.WithFields(logrus.Fields{"field": "reclaim", "count": len(released)}).Info("stale assignments reclaimed")
	return released, nil
}

// Reclaim runs the stale sweep on its own and returns the released skus.
func (s *Service) Reclaim(ctx context.Context) ([]string, error) {
	var released []string
	err := s.locked(ctx, "Reclaim", nil, func(ctx context.Context) error {
		table, err := s.loadPending(ctx)
		if err != nil {
			return err
		}
		released, err = s.reclaimLocked(ctx, table)
		return err
	})
	return released, err
}

// Checkout assigns one uniformly chosen eligible record to session. It returns
// ErrEmptyQueue when nothing is left to review.
func (s *Service) Checkout(ctx context.Context, session string) (*Checkout, error) {
	if session == "" {
		return nil, ErrMissingSession
	}
	var result *Checkout
	err := s.locked(ctx, "Checkout", spanAttrs("", session), func(ctx context.Context) error {
		table, err := s.loadPending(ctx)
		if err != nil {
			return err
		}
		if _, err := s.reclaimLocked(ctx, table); err != nil {
			return err
		}

		eligible := eligibleRecords(table)
		if len(eligible) == 0 {
			return ErrEmptyQueue
		}
		chosen := eligible[s.Pick(len(eligible))]
		chosen.Assign(session, s.Now())
		if err := s.savePending(ctx, table); err != nil {
			return err
		}

		result = &Checkout{Record: chosen.Clone(), Remaining: len(eligible) - 1}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.WithFields(logrus.Fields{
		"field":     "checkout",
		"sku":       result.Record.Sku(),
		"session":   session,
		"remaining": result.Remaining,
	}).Info("record checked out")
	return result, nil
}
