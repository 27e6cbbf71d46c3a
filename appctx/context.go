package appctx

import "context"

// ContextKey is the shared type for all context keys in this codebase.
// Keeping it in a tiny package avoids import cycles (config <-> utils).
type ContextKey string

func (c ContextKey) String() string { return string(c) }

var (
	// ContextKeyWorkerSession is the opaque per-session identity used as the
	// assignment and undo key.
	ContextKeyWorkerSession = ContextKey("WorkerSession")
	ContextKeyUsername      = ContextKey("Username")
	ContextKeyCorrelationId = ContextKey("CorrelationId")
)

func GetString(ctx context.Context, key ContextKey) (string, bool) {
	v, ok := ctx.Value(key).(string)
	return v, ok && v != ""
}

func Set(ctx context.Context, key ContextKey, value any) context.Context {
	return context.WithValue(ctx, key, value)
}

func GetWorkerSession(ctx context.Context) (string, bool) {
	return GetString(ctx, ContextKeyWorkerSession)
}

func SetWorkerSession(ctx context.Context, session string) context.Context {
	return Set(ctx, ContextKeyWorkerSession, session)
}

func GetUsername(ctx context.Context) (string, bool) {
	return GetString(ctx, ContextKeyUsername)
}

func SetUsername(ctx context.Context, username string) context.Context {
	return Set(ctx, ContextKeyUsername, username)
}

func GetCorrelationId(ctx context.Context) (string, bool) {
	return GetString(ctx, ContextKeyCorrelationId)
}

func SetCorrelationId(ctx context.Context, correlationId string) context.Context {
	return Set(ctx, ContextKeyCorrelationId, correlationId)
}
