package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingFromSnapshot_AddsWorkflowColumns(t *testing.T) {
	s := &Snapshot{
		Columns: []string{ColumnSku, ColumnProductName},
		Rows:    []Row{{ColumnSku: "A1", ColumnProductName: "Cola"}},
	}
	table := PendingFromSnapshot(s)

	for _, col := range WorkflowColumns {
		assert.Contains(t, table.Columns, col)
	}
	require.Len(t, table.Records, 1)
	assert.True(t, table.Records[0].Eligible())

	out := table.Snapshot()
	assert.Equal(t, "FALSE", out.Rows[0][ColumnProcessed])
	assert.Equal(t, "", out.Rows[0][ColumnAssignedTo])
}

func TestPendingTable_FindRemoveUpsert(t *testing.T) {
	table := PendingFromSnapshot(&Snapshot{
		Columns: PendingColumns,
		Rows:    []Row{{ColumnSku: "A1"}, {ColumnSku: "B2"}},
	})

	rec, idx := table.Find("B2")
	require.NotNil(t, rec)
	assert.Equal(t, 1, idx)

	table.Remove("A1")
	rec, _ = table.Find("A1")
	assert.Nil(t, rec)
	assert.Len(t, table.Records, 1)

	table.Upsert(&Record{Values: Row{ColumnSku: "B2", ColumnBarcode: "600"}})
	assert.Len(t, table.Records, 1)
	rec, _ = table.Find("B2")
	assert.Equal(t, "600", rec.Get(ColumnBarcode))

	table.Upsert(&Record{Values: Row{ColumnSku: "C3", "extra": "x"}})
	assert.Len(t, table.Records, 2)
	assert.Contains(t, table.Columns, "extra")
}

func TestSnapshot_RemoveSku(t *testing.T) {
	s := NewSnapshot(FinalizedColumns)
	s.Append(Row{ColumnSku: "A1"})
	s.Append(Row{ColumnSku: "B2"})
	s.Append(Row{ColumnSku: "A1"})

	assert.Equal(t, 2, s.RemoveSku("A1"))
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 0, s.RemoveSku("missing"))
}
