package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/inventory_review/models"
	"bitbucket.org/mmdatafocus/inventory_review/utils"
	"github.com/stretchr/testify/require"
)

const (
	pendingKey   = "pending.xlsx"
	finalizedKey = "finalized.xlsx"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu     sync.Mutex
	events []ReviewEvent
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, event ReviewEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

func (n *recordingNotifier) actions() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Action)
	}
	return out
}

type fixture struct {
	svc      *Service
	blobs    *utils.MemoryBlobStore
	ledger   *MemoryLedger
	notifier *recordingNotifier
}

// newFixture seeds the pending table with rows and returns a service whose
// clock is fixed at testNow and which always picks the first eligible record.
func newFixture(t *testing.T, rows ...models.Row) *fixture {
	t.Helper()
	blobs := utils.NewMemoryBlobStore()
	store := models.NewXlsxTableStore(blobs)
	ledger := NewMemoryLedger()
	notifier := &recordingNotifier{}

	svc := NewService(store, NewTableLock(nil, "review", time.Minute, time.Second), ledger, pendingKey, finalizedKey)
	svc.Now = func() time.Time { return testNow }
	svc.Pick = func(int) int { return 0 }
	svc.Notifier = notifier

	if len(rows) > 0 {
		snapshot := models.NewSnapshot(models.PendingColumns)
		snapshot.Rows = rows
		require.NoError(t, store.Save(context.Background(), svc.Pending, snapshot), "seed pending")
	}
	return &fixture{svc: svc, blobs: blobs, ledger: ledger, notifier: notifier}
}

func (f *fixture) pending(t *testing.T) *models.PendingTable {
	t.Helper()
	table, err := f.svc.loadPending(context.Background())
	require.NoError(t, err)
	return table
}

func (f *fixture) finalized(t *testing.T) *models.Snapshot {
	t.Helper()
	s, err := f.svc.loadFinalized(context.Background())
	require.NoError(t, err)
	return s
}

func (f *fixture) record(t *testing.T, sku string) *models.Record {
	t.Helper()
	rec, _ := f.pending(t).Find(sku)
	return rec
}

// checkout checks out sku for session by pointing Pick at it.
func (f *fixture) checkout(t *testing.T, session, sku string) {
	t.Helper()
	f.svc.Pick = func(n int) int {
		table := f.pending(t)
		for i, rec := range eligibleRecords(table) {
			if rec.Sku() == sku {
				return i
			}
		}
		t.Fatalf("%s is not eligible", sku)
		return 0
	}
	defer func() { f.svc.Pick = func(int) int { return 0 } }()

	got, err := f.svc.Checkout(context.Background(), session)
	require.NoError(t, err)
	require.Equal(t, sku, got.Record.Sku())
}

func row(sku string, kv ...string) models.Row {
	r := models.Row{
		models.ColumnSku:         sku,
		models.ColumnProductName: "product " + sku,
		models.ColumnProcessed:   "FALSE",
		models.ColumnProcessing:  "FALSE",
	}
	for i := 0; i+1 < len(kv); i += 2 {
		r[kv[i]] = kv[i+1]
	}
	return r
}

func assignedRow(sku, worker string, at time.Time) models.Row {
	return row(sku,
		models.ColumnProcessing, "TRUE",
		models.ColumnAssignedTo, worker,
		models.ColumnProcessingTimestamp, at.Format(time.RFC3339Nano),
	)
}

func failOn(key string, err error) func(string) error {
	return func(k string) error {
		if k == key {
			return err
		}
		return nil
	}
}

var errBucket = errors.New("bucket unavailable")
