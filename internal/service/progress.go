package service

import (
	"context"

	"go.uber.org/zap"

	"istc-sms/backend/pkg/redis"
)

// ImportProgress is one progress event of an import batch.
type ImportProgress = redis.Progress

// ProgressSink receives progress events of a single import batch. Each
// batch gets its own events keyed by BatchID; sinks hold no shared counters.
type ProgressSink interface {
	Report(ctx context.Context, p ImportProgress)
}

// ProgressStore persists progress so it can be read back by batch id.
// *redis.Client implements it.
type ProgressStore interface {
	// ClaimProgress reserves p.BatchID; false means the id is taken.
	ClaimProgress(ctx context.Context, p redis.Progress) (bool, error)
	SetProgress(ctx context.Context, p redis.Progress) error
	GetProgress(ctx context.Context, batchID string) (*redis.Progress, error)
}

// ── sinks ──

// NopProgressSink discards progress.
type NopProgressSink struct{}

// Report implements ProgressSink
func (NopProgressSink) Report(context.Context, ImportProgress) {}

type logProgressSink struct {
	logger *zap.Logger
}

// NewLogProgressSink logs each event at debug level.
func NewLogProgressSink(logger *zap.Logger) ProgressSink {
	return &logProgressSink{logger: logger}
}

func (s *logProgressSink) Report(_ context.Context, p ImportProgress) {
	s.logger.Debug("import progress",
		zap.String("batch_id", p.BatchID),
		zap.Int("completed", p.Completed),
		zap.Int("total", p.Total))
}

type storeProgressSink struct {
	store  ProgressStore
	logger *zap.Logger
}

// NewStoreProgressSink writes events to store. A failed write is logged and
// never fails the import.
func NewStoreProgressSink(store ProgressStore, logger *zap.Logger) ProgressSink {
	return &storeProgressSink{store: store, logger: logger}
}

func (s *storeProgressSink) Report(ctx context.Context, p ImportProgress) {
	if err := s.store.SetProgress(ctx, p); err != nil {
		s.logger.Warn("store import progress",
			zap.String("batch_id", p.BatchID),
			zap.Error(err))
	}
}
