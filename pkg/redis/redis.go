package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"istc-sms/backend/config"
)

// ErrProgressNotFound no progress has been recorded for the batch (or it expired).
var ErrProgressNotFound = errors.New("import progress not found")

// Client wraps go-redis. Used for import progress and rate limiting.
type Client struct {
	rdb         *goredis.Client
	progressTTL time.Duration
	logger      *zap.Logger
}

// NewClient connects and pings Redis.
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connect: %w", err)
	}

	logger.Info("redis connected", zap.String("addr", cfg.Addr))

	ttl := cfg.ProgressTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Client{rdb: rdb, progressTTL: ttl, logger: logger}, nil
}

// ── import progress ──

const progressPrefix = "import:progress:"

// Progress is the last reported state of an import batch.
type Progress struct {
	BatchID   string `json:"batch_id"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}

// Percentage completed, 0 when the batch is empty.
func (p Progress) Percentage() float64 {
	if p.Total <= 0 {
		return 0
	}
	return float64(p.Completed) / float64(p.Total) * 100
}

func progressKey(batchID string) string { return progressPrefix + batchID }

// SetProgress stores the batch counters under their own key, so concurrent
// batches never share state.
func (c *Client) SetProgress(ctx context.Context, p Progress) error {
	key := progressKey(p.BatchID)
	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, key, "completed", p.Completed, "total", p.Total)
	pipe.Expire(ctx, key, c.progressTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// ClaimProgress records the first counters of a batch. It returns false when
// the batch id already has progress, leaving the existing counters untouched.
func (c *Client) ClaimProgress(ctx context.Context, p Progress) (bool, error) {
	key := progressKey(p.BatchID)
	claimed, err := c.rdb.HSetNX(ctx, key, "total", p.Total).Result()
	if err != nil || !claimed {
		return false, err
	}
	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, key, "completed", p.Completed)
	pipe.Expire(ctx, key, c.progressTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, err
	}
	return true, nil
}

// GetProgress loads the counters for a batch.
func (c *Client) GetProgress(ctx context.Context, batchID string) (*Progress, error) {
	vals, err := c.rdb.HGetAll(ctx, progressKey(batchID)).Result()
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, ErrProgressNotFound
	}
	completed, _ := strconv.Atoi(vals["completed"])
	total, _ := strconv.Atoi(vals["total"])
	return &Progress{BatchID: batchID, Completed: completed, Total: total}, nil
}

// ── rate limiting ──

// CheckRateLimit sliding-window limiter: true if the request identified by
// key fits within limit requests per window.
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	minScore := strconv.FormatInt(now.Add(-window).UnixNano(), 10)

	pipe := c.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", minScore)
	pipe.ZAdd(ctx, key, goredis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
	count := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return count.Val() <= int64(limit), nil
}

// Close closes the connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}
