package workflow

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"bitbucket.org/mmdatafocus/inventory_review/config"
	"bitbucket.org/mmdatafocus/inventory_review/models"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultProcessingTimeout = 10 * time.Minute
	DefaultCycleTimeout      = 2 * time.Minute
)

// Service runs the review loop against the pending and finalized tables.
// Every operation that touches a table holds Lock for its whole
// load-mutate-save cycle.
type Service struct {
	Store     models.TableStore
	Lock      *TableLock
	Ledger    Ledger
	Pending   models.Table
	Finalized models.Table

	Timeout      time.Duration
	// CycleTimeout bounds one load-mutate-save cycle once the lock is held.
	CycleTimeout time.Duration
	Now          func() time.Time
	Pick         func(n int) int
	Notifier     Notifier
	Logger       *logrus.Logger
	Tracer       trace.Tracer
}

func NewService(store models.TableStore, lock *TableLock, ledger Ledger, pendingKey, finalizedKey string) *Service {
	return &Service{
		Store:        store,
		Lock:         lock,
		Ledger:       ledger,
		Pending:      models.PendingTableAt(pendingKey),
		Finalized:    models.FinalizedTableAt(finalizedKey),
		Timeout:      DefaultProcessingTimeout,
		CycleTimeout: DefaultCycleTimeout,
		Now:          func() time.Time { return time.Now().UTC() },
		Pick:         rand.Intn,
		Notifier:     NopNotifier{},
		Logger:       config.GetLogger(),
		Tracer:       otel.Tracer("inventory-review/workflow"),
	}
}

// locked runs fn while holding the table lock inside a span named op.
// The caller's ctx only bounds the wait for the lock. Once the lock is held
// fn runs detached from cancellation, bounded by CycleTimeout, so a client
// that goes away cannot split the finalized and pending saves.
func (s *Service) locked(ctx context.Context, op string, attrs []attribute.KeyValue, fn func(ctx context.Context) error) error {
	ctx, span := s.Tracer.Start(ctx, "workflow."+op, trace.WithAttributes(attrs...))
	defer span.End()

	release, err := s.Lock.Acquire(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer release()

	cycleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cycleTimeout())
	defer cancel()
	if err := fn(cycleCtx); err != nil {
		if !errors.Is(err, ErrEmptyQueue) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return err
	}
	return nil
}

func (s *Service) cycleTimeout() time.Duration {
	if s.CycleTimeout <= 0 {
		return DefaultCycleTimeout
	}
	return s.CycleTimeout
}

func (s *Service) loadPending(ctx context.Context) (*models.PendingTable, error) {
	snapshot, err := s.Store.Load(ctx, s.Pending)
	if err != nil {
		return nil, err
	}
	return models.PendingFromSnapshot(snapshot), nil
}

func (s *Service) savePending(ctx context.Context, table *models.PendingTable) error {
	return s.Store.Save(ctx, s.Pending, table.Snapshot())
}

func (s *Service) loadFinalized(ctx context.Context) (*models.Snapshot, error) {
	return s.Store.Load(ctx, s.Finalized)
}

func (s *Service) saveFinalized(ctx context.Context, snapshot *models.Snapshot) error {
	return s.Store.Save(ctx, s.Finalized, snapshot)
}

// recordUndo stores the entry after the tables are durable. A ledger failure
// does not undo a committed action; it is logged and the action still succeeds.
func (s *Service) recordUndo(ctx context.Context, session string, entry UndoEntry) {
	if err := s.Ledger.Record(ctx, session, entry); err != nil {
		kind, sku := describeUndo(entry)
		config.LogError(s.Logger, "workflow", "recordUndo", "Failed to record undo entry", map[string]string{
			"session": session,
			"kind":    string(kind),
			"sku":     sku,
		}, err)
	}
}

func (s *Service) notify(ctx context.Context, action, sku, session string) {
	event := ReviewEvent{
		Action:        action,
		Sku:           sku,
		WorkerSession: session,
		OccurredAt:    s.Now(),
	}
	if err := s.Notifier.Notify(ctx, event); err != nil {
		s.Logger.WithFields(logrus.Fields{
			"field":  "notify",
			"action": action,
			"sku":    sku,
		}).Warn("failed to publish review event: " + err.Error())
	}
}

func spanAttrs(sku, session string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String("session", session)}
	if sku != "" {
		attrs = append(attrs, attribute.String("sku", sku))
	}
	return attrs
}
