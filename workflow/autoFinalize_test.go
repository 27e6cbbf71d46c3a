package workflow

import (
	"context"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/inventory_review/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoFinalize_MovesFullConfidenceRecords(t *testing.T) {
	assigned := assignedRow("A4", "w1", testNow)
	assigned[models.ColumnConfidenceScore] = "100"
	f := newFixture(t,
		row("H1", models.ColumnConfidenceScore, "100"),
		row("H2", models.ColumnConfidenceScore, "100.0"),
		row("L3", models.ColumnConfidenceScore, "99.9"),
		assigned,
		row("N5", models.ColumnConfidenceScore, ""),
		row("X6", models.ColumnConfidenceScore, "n/a"),
	)

	moved, err := f.svc.AutoFinalize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"H1", "H2", "A4"}, moved)

	pending := f.pending(t)
	var left []string
	for _, rec := range pending.Records {
		left = append(left, rec.Sku())
	}
	assert.Equal(t, []string{"L3", "N5", "X6"}, left)

	finalized := f.finalized(t)
	require.Equal(t, 3, finalized.Len())
	assert.Equal(t, "H1", finalized.Rows[0][models.ColumnSku])

	history := f.blobs.PutHistory()
	assert.Equal(t, []string{finalizedKey, pendingKey}, history[len(history)-2:])
}

func TestAutoFinalize_NothingToMoveWritesNothing(t *testing.T) {
	f := newFixture(t, row("L1", models.ColumnConfidenceScore, "50"))

	moved, err := f.svc.AutoFinalize(context.Background())
	require.NoError(t, err)
	assert.Empty(t, moved)
	assert.Equal(t, []string{pendingKey}, f.blobs.PutHistory())
}

func TestAutoFinalize_AppendsToExistingFinalized(t *testing.T) {
	f := newFixture(t, row("E1"), row("H2", models.ColumnConfidenceScore, "100"))
	f.checkout(t, "w1", "E1")
	require.NoError(t, f.svc.Confirm(context.Background(), "w1", "E1", nil))

	_, err := f.svc.AutoFinalize(context.Background())
	require.NoError(t, err)

	finalized := f.finalized(t)
	require.Equal(t, 2, finalized.Len())
	assert.Equal(t, "E1", finalized.Rows[0][models.ColumnSku])
	assert.Equal(t, "H2", finalized.Rows[1][models.ColumnSku])
}

func TestStats_CountsByState(t *testing.T) {
	f := newFixture(t,
		row("E1"),
		row("P2", models.ColumnProcessed, "TRUE"),
		assignedRow("A3", "w1", testNow.Add(-time.Minute)),
		assignedRow("S4", "w2", testNow.Add(-time.Hour)),
		row("H5", models.ColumnConfidenceScore, "100"),
	)
	_, err := f.svc.AutoFinalize(context.Background())
	require.NoError(t, err)

	stats, err := f.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Stats{Eligible: 1, Assigned: 2, Stale: 1, Processed: 1, Finalized: 1}, stats)
}
