package workflow

import (
	"context"
	"sync"

	"bitbucket.org/mmdatafocus/inventory_review/models"
)

type UndoKind string

const (
	UndoConfirm UndoKind = "confirm"
	UndoReject  UndoKind = "reject"
	UndoSkip    UndoKind = "skip"
)

// UndoEntry is the last reversible action of a worker session. The concrete
// types are ConfirmUndo, RejectUndo and SkipUndo.
type UndoEntry interface {
	undoEntry()
}

// ConfirmUndo carries the finalized row that confirm appended.
type ConfirmUndo struct {
	Sku string
	Row models.Row
}

// RejectUndo carries the full pending row as it was before reject.
type RejectUndo struct {
	Sku string
	Row models.Row
}

// SkipUndo only records which sku was released.
type SkipUndo struct {
	Sku string
}

func (ConfirmUndo) undoEntry() {}
func (RejectUndo) undoEntry()  {}
func (SkipUndo) undoEntry()    {}

func describeUndo(entry UndoEntry) (UndoKind, string) {
	switch e := entry.(type) {
	case ConfirmUndo:
		return UndoConfirm, e.Sku
	case RejectUndo:
		return UndoReject, e.Sku
	case SkipUndo:
		return UndoSkip, e.Sku
	}
	return "", ""
}

// Ledger keeps at most one undo entry per worker session. Record replaces any
// previous entry; Peek returns ErrNothingToUndo when the session has none.
type Ledger interface {
	Record(ctx context.Context, session string, entry UndoEntry) error
	Peek(ctx context.Context, session string) (UndoEntry, error)
	Clear(ctx context.Context, session string) error
}

// MemoryLedger is the process-local Ledger used when Redis is not configured.
type MemoryLedger struct {
	mu      sync.Mutex
	entries map[string]UndoEntry
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{entries: map[string]UndoEntry{}}
}

func (l *MemoryLedger) Record(_ context.Context, session string, entry UndoEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[session] = entry
	return nil
}

func (l *MemoryLedger) Peek(_ context.Context, session string) (UndoEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.entries[session]
	if !ok {
		return nil, ErrNothingToUndo
	}
	return entry, nil
}

func (l *MemoryLedger) Clear(_ context.Context, session string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, session)
	return nil
}
