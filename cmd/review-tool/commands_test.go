package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"bitbucket.org/mmdatafocus/inventory_review/config"
	"bitbucket.org/mmdatafocus/inventory_review/models"
	"bitbucket.org/mmdatafocus/inventory_review/utils"
	"bitbucket.org/mmdatafocus/inventory_review/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useMemoryRuntime(t *testing.T, rows ...models.Row) *workflow.Runtime {
	t.Helper()
	settings := &config.Settings{
		Environment:       "test",
		StorageProvider:   config.StorageProviderMemory,
		PendingTableKey:   "pending.xlsx",
		FinalizedTableKey: "finalized.xlsx",
		TableLockName:     "test",
	}
	rt, err := workflow.Bootstrap(context.Background(), settings, 0)
	require.NoError(t, err)

	snapshot := models.NewSnapshot(models.PendingColumns)
	snapshot.Rows = rows
	require.NoError(t, rt.Service.Store.Save(context.Background(), rt.Service.Pending, snapshot))

	prev := bootstrapFunc
	bootstrapFunc = func(context.Context, int) (*workflow.Runtime, error) { return rt, nil }
	t.Cleanup(func() { bootstrapFunc = prev })
	return rt
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAutoFinalizeCommand(t *testing.T) {
	rt := useMemoryRuntime(t,
		models.Row{models.ColumnSku: "H1", models.ColumnConfidenceScore: "100"},
		models.Row{models.ColumnSku: "L2", models.ColumnConfidenceScore: "40"},
	)

	out, err := run(t, "", "auto-finalize", "--format", "json")
	require.NoError(t, err)

	var got struct {
		Moved []string `json:"moved"`
		Count int      `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []string{"H1"}, got.Moved)
	assert.Equal(t, 1, got.Count)

	finalized, err := rt.Service.Store.Load(context.Background(), rt.Service.Finalized)
	require.NoError(t, err)
	assert.Equal(t, 1, finalized.Len())
}

func TestReclaimCommand_Text(t *testing.T) {
	useMemoryRuntime(t, models.Row{
		models.ColumnSku:        "S1",
		models.ColumnProcessing: "TRUE",
		models.ColumnAssignedTo: "gone",
	})

	out, err := run(t, "", "reclaim")
	require.NoError(t, err)
	assert.Contains(t, out, "released 1 record(s)")
	assert.Contains(t, out, "S1")
}

func TestStatsCommand(t *testing.T) {
	useMemoryRuntime(t,
		models.Row{models.ColumnSku: "E1"},
		models.Row{models.ColumnSku: "P2", models.ColumnProcessed: "TRUE"},
	)

	out, err := run(t, "", "stats", "--format", "json")
	require.NoError(t, err)
	var stats workflow.Stats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, workflow.Stats{Eligible: 1, Processed: 1}, stats)

	out, err = run(t, "", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "eligible")
	assert.Contains(t, out, "RECORDS")
}

func TestRootCommand_RejectsUnknownFormat(t *testing.T) {
	useMemoryRuntime(t)
	_, err := run(t, "", "stats", "--format", "yaml")
	assert.ErrorContains(t, err, "invalid format")
}

func TestHashPasswordCommand(t *testing.T) {
	out, err := run(t, "", "hash-password", "s3cret")
	require.NoError(t, err)
	assert.NoError(t, utils.ComparePassword(strings.TrimSpace(out), "s3cret"))

	out, err = run(t, "from-stdin\n", "hash-password")
	require.NoError(t, err)
	assert.NoError(t, utils.ComparePassword(strings.TrimSpace(out), "from-stdin"))

	_, err = run(t, "", "hash-password")
	assert.ErrorContains(t, err, "password is empty")
}
