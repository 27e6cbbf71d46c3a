package workflow

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/inventory_review/appctx"
	"bitbucket.org/mmdatafocus/inventory_review/config"
)

// ReviewEvent describes a committed review action.
type ReviewEvent struct {
	Action        string
	Sku           string
	WorkerSession string
	OccurredAt    time.Time
}

// Notifier is told about every committed action. Failures are logged by the
// caller and never affect the action's result.
type Notifier interface {
	Notify(ctx context.Context, event ReviewEvent) error
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, ReviewEvent) error { return nil }

// PubSubNotifier publishes review events to a Pub/Sub topic.
type PubSubNotifier struct {
	Topic       string
	Environment string
	Timeout     time.Duration
}

func (n PubSubNotifier) Notify(ctx context.Context, event ReviewEvent) error {
	timeout := n.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	correlationId, _ := appctx.GetCorrelationId(ctx)
	_, err := config.PublishReviewEvent(ctx, n.Topic, config.ReviewEventMessage{
		Action:        event.Action,
		Sku:           event.Sku,
		WorkerSession: event.WorkerSession,
		Environment:   n.Environment,
		OccurredAt:    event.OccurredAt,
		CorrelationId: correlationId,
	})
	return err
}
