package workflow

import (
	"context"
	"fmt"
	"strings"

	"bitbucket.org/mmdatafocus/inventory_review/models"
	"github.com/sirupsen/logrus"
)

type Action string

const (
	ActionConfirm Action = "confirm"
	ActionReject  Action = "reject"
	ActionSkip    Action = "skip"
)

func ParseAction(raw string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(raw))); a {
	case ActionConfirm, ActionReject, ActionSkip:
		return a, nil
	}
	return "", fmt.Errorf("unknown action %q", raw)
}

// Match is the candidate a worker picked before confirming. Empty fields
// leave the record's current values in place.
type Match struct {
	MatchedName string
	Barcode     string
}

// Act dispatches one terminal action on sku for session.
func (s *Service) Act(ctx context.Context, session, sku string, action Action, match *Match) error {
	switch action {
	case ActionConfirm:
		return s.Confirm(ctx, session, sku, match)
	case ActionReject:
		return s.Reject(ctx, session, sku)
	case ActionSkip:
		return s.Skip(ctx, session, sku)
	}
	return fmt.Errorf("unknown action %q", action)
}

// owned returns the record for sku if session holds its assignment.
func owned(table *models.PendingTable, sku, session string) (*models.Record, error) {
	rec, _ := table.Find(sku)
	if rec == nil {
		return nil, ErrRecordNotFound
	}
	if !rec.OwnedBy(session) {
		return nil, ErrNotOwner
	}
	return rec, nil
}

// Confirm moves the record to the finalized table. The finalized table is
// saved before the pending table, so a failure in between leaves the record
// in both tables rather than in neither. The finalized row replaces any row
// with the same sku, which makes retrying after that failure safe.
func (s *Service) Confirm(ctx context.Context, session, sku string, match *Match) error {
	if session == "" {
		return ErrMissingSession
	}
	err := s.locked(ctx, "Confirm", spanAttrs(sku, session), func(ctx context.Context) error {
		pending, err := s.loadPending(ctx)
		if err != nil {
			return err
		}
		rec, err := owned(pending, sku, session)
		if err != nil {
			return err
		}
		finalized, err := s.loadFinalized(ctx)
		if err != nil {
			return err
		}

		if match != nil {
			if match.MatchedName != "" {
				rec.Set(models.ColumnMatchedName, match.MatchedName)
			}
			if match.Barcode != "" {
				rec.Set(models.ColumnBarcode, match.Barcode)
			}
		}
		finalizedRow := rec.Finalize()
		finalized.RemoveSku(sku)
		finalized.Append(finalizedRow)
		pending.Remove(sku)

		if err := s.saveFinalized(ctx, finalized); err != nil {
			return err
		}
		if err := s.savePending(ctx, pending); err != nil {
			return err
		}
		s.recordUndo(ctx, session, ConfirmUndo{Sku: sku, Row: finalizedRow})
		return nil
	})
	if err != nil {
		return err
	}

	s.logAction(ActionConfirm, sku, session)
	s.notify(ctx, string(ActionConfirm), sku, session)
	return nil
}

// Reject clears the match fields and marks the record processed.
func (s *Service) Reject(ctx context.Context, session, sku string) error {
	if session == "" {
		return ErrMissingSession
	}
	err := s.locked(ctx, "Reject", spanAttrs(sku, session), func(ctx context.Context) error {
		pending, err := s.loadPending(ctx)
		if err != nil {
			return err
		}
		rec, err := owned(pending, sku, session)
		if err != nil {
			return err
		}

		before := rec.Row()
		rec.Set(models.ColumnMatchedName, "")
		rec.Set(models.ColumnBarcode, "")
		rec.Processed = true
		rec.Release()
		if err := s.savePending(ctx, pending); err != nil {
			return err
		}
		s.recordUndo(ctx, session, RejectUndo{Sku: sku, Row: before})
		return nil
	})
	if err != nil {
		return err
	}

	s.logAction(ActionReject, sku, session)
	s.notify(ctx, string(ActionReject), sku, session)
	return nil
}

// Skip releases the assignment so the record can be checked out again.
func (s *Service) Skip(ctx context.Context, session, sku string) error {
	if session == "" {
		return ErrMissingSession
	}
	err := s.locked(ctx, "Skip", spanAttrs(sku, session), func(ctx context.Context) error {
		pending, err := s.loadPending(ctx)
		if err != nil {
			return err
		}
		rec, err := owned(pending, sku, session)
		if err != nil {
			return err
		}
		rec.Release()
		if err := s.savePending(ctx, pending); err != nil {
			return err
		}
		s.recordUndo(ctx, session, SkipUndo{Sku: sku})
		return nil
	})
	if err != nil {
		return err
	}

	s.logAction(ActionSkip, sku, session)
	s.notify(ctx, string(ActionSkip), sku, session)
	return nil
}

func (s *Service) logAction(action Action, sku, session string) {
	s.Logger.WithFields(logrus.Fields{
		"field":   "action",
		"action":  action,
		"sku":     sku,
		"session": session,
	}).Info("review action applied")
}
