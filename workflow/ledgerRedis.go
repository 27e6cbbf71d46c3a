package workflow

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/inventory_review/config"
	"bitbucket.org/mmdatafocus/inventory_review/models"
)

// RedisLedger stores undo entries under "undo:<session>" with a TTL through
// the shared Redis client, so entries survive a server restart but still
// expire with the session. Redis must be connected before use.
type RedisLedger struct {
	ttl time.Duration
}

type undoEnvelope struct {
	Kind UndoKind   `json:"kind"`
	Sku  string     `json:"sku"`
	Row  models.Row `json:"row,omitempty"`
}

func NewRedisLedger(ttl time.Duration) *RedisLedger {
	return &RedisLedger{ttl: ttl}
}

func undoKey(session string) string {
	return "undo:" + session
}

func (l *RedisLedger) Record(ctx context.Context, session string, entry UndoEntry) error {
	env, err := toEnvelope(entry)
	if err != nil {
		return err
	}
	return config.SetRedisObject(ctx, undoKey(session), env, l.ttl)
}

func (l *RedisLedger) Peek(ctx context.Context, session string) (UndoEntry, error) {
	var env undoEnvelope
	found, err := config.GetRedisObject(ctx, undoKey(session), &env)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNothingToUndo
	}
	return fromEnvelope(env)
}

func (l *RedisLedger) Clear(ctx context.Context, session string) error {
	return config.RemoveRedisKey(ctx, undoKey(session))
}

func toEnvelope(entry UndoEntry) (undoEnvelope, error) {
	switch e := entry.(type) {
	case ConfirmUndo:
		return undoEnvelope{Kind: UndoConfirm, Sku: e.Sku, Row: e.Row}, nil
	case RejectUndo:
		return undoEnvelope{Kind: UndoReject, Sku: e.Sku, Row: e.Row}, nil
	case SkipUndo:
		return undoEnvelope{Kind: UndoSkip, Sku: e.Sku}, nil
	}
	return undoEnvelope{}, fmt.Errorf("unsupported undo entry %T", entry)
}

func fromEnvelope(env undoEnvelope) (UndoEntry, error) {
	switch env.Kind {
	case UndoConfirm:
		return ConfirmUndo{Sku: env.Sku, Row: env.Row}, nil
	case UndoReject:
		return RejectUndo{Sku: env.Sku, Row: env.Row}, nil
	case UndoSkip:
		return SkipUndo{Sku: env.Sku}, nil
	}
	return nil, fmt.Errorf("unknown undo kind %q", env.Kind)
}
