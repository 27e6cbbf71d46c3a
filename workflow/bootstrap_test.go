package workflow

import (
	"context"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/inventory_review/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrap_WithoutRedisUsesProcessLocalState(t *testing.T) {
	settings := &config.Settings{
		Environment:       "test",
		StorageProvider:   config.StorageProviderMemory,
		PendingTableKey:   "pending.xlsx",
		FinalizedTableKey: "finalized.xlsx",
		ProcessingTimeout: 5 * time.Minute,
		TableLockName:     "test",
	}
	rt, err := Bootstrap(context.Background(), settings, 0)
	require.NoError(t, err)
	defer rt.Close()

	assert.IsType(t, &MemoryLedger{}, rt.Service.Ledger)
	assert.IsType(t, NopNotifier{}, rt.Service.Notifier)
	assert.Equal(t, 5*time.Minute, rt.Service.Timeout)
	assert.Equal(t, "pending.xlsx", rt.Service.Pending.Key)

	_, err = rt.Service.Checkout(context.Background(), "w1")
	assert.ErrorIs(t, err, ErrEmptyQueue)
}

func TestBootstrap_RejectsBadStorage(t *testing.T) {
	_, err := Bootstrap(context.Background(), &config.Settings{
		StorageProvider:   "s3",
		PendingTableKey:   "p",
		FinalizedTableKey: "f",
	}, 0)
	assert.Error(t, err)
}

func TestBootstrap_PubSubTopicEnablesNotifier(t *testing.T) {
	rt, err := Bootstrap(context.Background(), &config.Settings{
		Environment:       "test",
		StorageProvider:   config.StorageProviderMemory,
		PendingTableKey:   "p",
		FinalizedTableKey: "f",
		PubSubTopic:       "review-events",
	}, 0)
	require.NoError(t, err)
	defer rt.Close()

	notifier, ok := rt.Service.Notifier.(PubSubNotifier)
	require.True(t, ok)
	assert.Equal(t, "review-events", notifier.Topic)
	assert.Equal(t, "test", notifier.Environment)
}
