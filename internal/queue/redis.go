package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// readyKey is the FIFO list workers block on.
	readyKey = "clareza:queue:ready"
	// scheduledKey is the sorted set of jobs not yet due, scored by ready time.
	scheduledKey = "clareza:queue:scheduled"
)

// RedisQueue is a durable at-least-once queue on Redis: a single ready list
// drained with BLPOP plus a schedule set for delayed retries. A single FIFO
// list keeps same-key jobs in submission order.
type RedisQueue struct {
	rdb *redis.Client
}

// NewRedisQueue connects to the given Redis URL and verifies the connection.
func NewRedisQueue(url string) (*RedisQueue, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return &RedisQueue{rdb: rdb}, nil
}

// NewRedisQueueFromClient wraps an existing client; used by tests.
func NewRedisQueueFromClient(rdb *redis.Client) *RedisQueue {
	return &RedisQueue{rdb: rdb}
}

func (q *RedisQueue) Close() error {
	return q.rdb.Close()
}

func (q *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	raw, err := prepare(&job)
	if err != nil {
		return err
	}
	if err := q.rdb.RPush(ctx, readyKey, raw).Err(); err != nil {
		return fmt.Errorf("enqueuing job %s: %w", job.Name, err)
	}
	return nil
}

// EnqueueIn schedules a job to become ready after the given delay.
func (q *RedisQueue) EnqueueIn(ctx context.Context, job Job, delay time.Duration) error {
	raw, err := prepare(&job)
	if err != nil {
		return err
	}
	member := redis.Z{
		Score:  float64(time.Now().Add(delay).UnixMilli()),
		Member: raw,
	}
	if err := q.rdb.ZAdd(ctx, scheduledKey, member).Err(); err != nil {
		return fmt.Errorf("scheduling job %s: %w", job.Name, err)
	}
	return nil
}

// Dequeue blocks until a job is ready or the timeout elapses. A nil job with
// nil error means the timeout elapsed.
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	res, err := q.rdb.BLPop(ctx, timeout, readyKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dequeuing job: %w", err)
	}
	// BLPOP returns [key, value].
	var job Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("decoding job: %w", err)
	}
	return &job, nil
}

// MoveDue promotes scheduled jobs whose ready time has passed onto the ready
// list, preserving schedule order. Returns the number moved.
func (q *RedisQueue) MoveDue(ctx context.Context, now time.Time) (int, error) {
	due, err := q.rdb.ZRangeByScore(ctx, scheduledKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", now.UnixMilli()),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("reading schedule: %w", err)
	}

	moved := 0
	for _, raw := range due {
		removed, err := q.rdb.ZRem(ctx, scheduledKey, raw).Result()
		if err != nil {
			return moved, fmt.Errorf("removing scheduled job: %w", err)
		}
		if removed == 0 {
			// Another mover claimed it first.
			continue
		}
		if err := q.rdb.RPush(ctx, readyKey, raw).Err(); err != nil {
			return moved, fmt.Errorf("promoting scheduled job: %w", err)
		}
		moved++
	}
	return moved, nil
}

// RunMover promotes due jobs every interval until the context is cancelled.
func (q *RedisQueue) RunMover(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			_, _ = q.MoveDue(ctx, now)
		}
	}
}

// prepare fills defaults and serializes the job.
func prepare(job *Job) ([]byte, error) {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("encoding job %s: %w", job.Name, err)
	}
	return raw, nil
}
