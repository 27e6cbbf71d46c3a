package workflow

import (
	"context"
	"fmt"

	"bitbucket.org/mmdatafocus/inventory_review/config"
	"bitbucket.org/mmdatafocus/inventory_review/models"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// UndoResult names the action that was reversed.
type UndoResult struct {
	Kind UndoKind
	Sku  string
}

// Undo reverses the session's latest action. Reading the entry, reversing
// it and clearing it happen under one hold of the table lock, so two tabs on
// one session cannot both reverse the same entry. The entry is cleared only
// when the reversal succeeded; on failure it stays so the worker can retry.
func (s *Service) Undo(ctx context.Context, session string) (*UndoResult, error) {
	if session == "" {
		return nil, ErrMissingSession
	}
	var result *UndoResult
	err := s.locked(ctx, "Undo", spanAttrs("", session), func(ctx context.Context) error {
		entry, err := s.Ledger.Peek(ctx, session)
		if err != nil {
			return err
		}
		kind, sku := describeUndo(entry)
		trace.SpanFromContext(ctx).SetAttributes(attribute.String("undo.kind", string(kind)), attribute.String("sku", sku))

		switch e := entry.(type) {
		case ConfirmUndo:
			err = s.undoConfirm(ctx, e)
		case RejectUndo:
			err = s.undoReject(ctx, e)
		case SkipUndo:
			// skip only released the assignment, nothing durable to reverse
		default:
			err = fmt.Errorf("unsupported undo entry %T", entry)
		}
		if err != nil {
			return err
		}

		if err := s.Ledger.Clear(ctx, session); err != nil {
			config.LogError(s.Logger, "workflow", "Undo", "Failed to clear undo entry", map[string]string{
				"session": session,
				"sku":     sku,
			}, err)
		}
		result = &UndoResult{Kind: kind, Sku: sku}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.WithFields(logrus.Fields{
		"field":   "undo",
		"kind":    result.Kind,
		"sku":     result.Sku,
		"session": session,
	}).Info("review action undone")
	s.notify(ctx, "undo_"+string(result.Kind), result.Sku, session)
	return result, nil
}

// undoConfirm puts the finalized row back into pending as an unassigned,
// unprocessed record. Pending is saved before finalized so a failure in
// between duplicates the record instead of losing it. If the sku is already
// in pending the stored row replaces it. The caller holds the table lock.
func (s *Service) undoConfirm(ctx context.Context, e ConfirmUndo) error {
	pending, err := s.loadPending(ctx)
	if err != nil {
		return err
	}
	finalized, err := s.loadFinalized(ctx)
	if err != nil {
		return err
	}

	pending.Upsert(models.RecordFromFinalized(e.Row))
	finalized.RemoveSku(e.Sku)

	if err := s.savePending(ctx, pending); err != nil {
		return err
	}
	return s.saveFinalized(ctx, finalized)
}

// undoReject restores every stored field and leaves the record unassigned.
// The caller holds the table lock.
func (s *Service) undoReject(ctx context.Context, e RejectUndo) error {
	pending, err := s.loadPending(ctx)
	if err != nil {
		return err
	}
	rec, _ := pending.Find(e.Sku)
	if rec == nil {
		return ErrRecordNotFound
	}

	original := models.RecordFromRow(e.Row)
	for col, v := range original.Values {
		rec.Set(col, v)
	}
	rec.Processed = original.Processed
	rec.Release()
	return s.savePending(ctx, pending)
}
