package workflow

import (
	"context"
	"io"

	"bitbucket.org/mmdatafocus/inventory_review/config"
	"bitbucket.org/mmdatafocus/inventory_review/models"
	"bitbucket.org/mmdatafocus/inventory_review/utils"
	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"
)

// Runtime is everything a process needs to run the review loop.
type Runtime struct {
	Settings *config.Settings
	Blobs    utils.BlobStore
	Service  *Service
}

// Bootstrap wires storage, locking, the undo ledger and event publishing
// from settings. When REDIS_ADDRESS is set Redis is required: the table lock
// and the undo ledger both live there.
func Bootstrap(ctx context.Context, settings *config.Settings, redisAttempts int) (*Runtime, error) {
	logger := config.GetLogger()
	if err := settings.ValidateStorage(); err != nil {
		return nil, err
	}

	blobs, err := utils.NewBlobStore(ctx, settings)
	if err != nil {
		return nil, err
	}

	var locker *redislock.Client
	var ledger Ledger = NewMemoryLedger()
	if settings.RedisAddress != "" {
		if err := config.ConnectRedisWithRetry(ctx, settings.RedisAddress, redisAttempts); err != nil {
			closeBlobs(blobs)
			return nil, err
		}
		locker = config.GetRedisLock()
		ledger = NewRedisLedger(settings.UndoTTL)
	} else {
		logger.WithFields(logrus.Fields{"field": "bootstrap"}).Warn("REDIS_ADDRESS not set; table lock and undo ledger are process-local")
	}

	lock := NewTableLock(locker, settings.TableLockName, settings.TableLockTTL, settings.TableLockWait)
	svc := NewService(models.NewXlsxTableStore(blobs), lock, ledger, settings.PendingTableKey, settings.FinalizedTableKey)
	svc.Timeout = settings.ProcessingTimeout
	if settings.PubSubTopic != "" {
		svc.Notifier = PubSubNotifier{Topic: settings.PubSubTopic, Environment: settings.Environment}
	}

	logger.WithFields(logrus.Fields{
		"field":     "bootstrap",
		"storage":   settings.StorageProvider,
		"pending":   settings.PendingTableKey,
		"finalized": settings.FinalizedTableKey,
		"timeout":   settings.ProcessingTimeout.String(),
	}).Info("review workflow ready")

	return &Runtime{Settings: settings, Blobs: blobs, Service: svc}, nil
}

func (r *Runtime) Close() {
	closeBlobs(r.Blobs)
	config.CloseRedis()
	config.ClosePubSub()
}

func closeBlobs(blobs utils.BlobStore) {
	if c, ok := blobs.(io.Closer); ok {
		_ = c.Close()
	}
}
