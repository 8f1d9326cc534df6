package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"StockCast/pkg/logger"
)

const defaultKeyPrefix = "stockcast:queue"

// RedisQueue is a Queue backed by a Redis list, letting several
// processes share one backlog of work.
type RedisQueue struct {
	log       *logger.Logger
	config    Config
	client    *redis.Client
	keyPrefix string

	mu      sync.RWMutex
	jobs    map[string]Job
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// RedisOption configures a RedisQueue.
type RedisOption func(*RedisQueue)

// WithKeyPrefix overrides the Redis key prefix.
func WithKeyPrefix(prefix string) RedisOption {
	return func(q *RedisQueue) {
		q.keyPrefix = prefix
	}
}

func NewRedisQueue(log *logger.Logger, config Config, client *redis.Client, opts ...RedisOption) *RedisQueue {
	config.fill()
	q := &RedisQueue{
		log:       log,
		config:    config,
		client:    client,
		keyPrefix: defaultKeyPrefix,
		jobs:      make(map[string]Job),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *RedisQueue) RegisterJob(job Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, exists := q.jobs[job.Type()]; exists {
		q.log.Warn("job already registered", logger.String("job", job.Name()))
		return
	}
	q.jobs[job.Type()] = job
}

func (q *RedisQueue) Start() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return fmt.Errorf("queue already running")
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := q.client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	q.running = true
	ctx, workerCancel := context.WithCancel(context.Background())
	q.cancel = workerCancel
	for i := 0; i < q.config.Workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
	q.log.Info("redis queue started",
		logger.Int("workers", q.config.Workers),
		logger.String("key", q.listKey()))
	return nil
}

func (q *RedisQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return nil
	}
	q.running = false
	q.cancel()
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return fmt.Errorf("stop queue: %w", ctx.Err())
	case <-done:
		q.log.Info("redis queue stopped")
		return nil
	}
}

func (q *RedisQueue) Publish(ctx context.Context, msgType string, payload interface{}) error {
	q.mu.RLock()
	running := q.running
	q.mu.RUnlock()
	if !running {
		return fmt.Errorf("queue not running")
	}

	msg := Message{
		ID:        uuid.NewString(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := q.client.LPush(ctx, q.listKey(), b).Err(); err != nil {
		return fmt.Errorf("enqueue: %w", err)
	}
	return nil
}

func (q *RedisQueue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := q.client.BRPop(ctx, 2*time.Second, q.listKey()).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			q.log.Error("queue pop failed", logger.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		// BRPop returns [key, value].
		if len(res) != 2 {
			continue
		}
		q.dispatch(ctx, []byte(res[1]))
	}
}

func (q *RedisQueue) dispatch(ctx context.Context, raw []byte) {
	var envelope struct {
		ID        string          `json:"id"`
		Type      string          `json:"type"`
		Payload   json.RawMessage `json:"payload"`
		Attempts  int             `json:"attempts"`
		Timestamp time.Time       `json:"timestamp"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		q.log.Error("malformed queue message dropped", logger.Error(err))
		return
	}

	q.mu.RLock()
	job := q.jobs[envelope.Type]
	q.mu.RUnlock()
	if job == nil {
		q.log.Warn("message dropped, no job for type", logger.String("type", envelope.Type))
		return
	}

	if err := job.Handle(ctx, envelope.Payload); err != nil {
		if envelope.Attempts >= q.config.RetryLimit {
			q.log.Error("job failed, retry limit reached",
				logger.String("job", job.Name()),
				logger.String("message_id", envelope.ID),
				logger.Int("attempts", envelope.Attempts+1),
				logger.Error(err))
			return
		}
		envelope.Attempts++
		q.log.Warn("job failed, requeueing",
			logger.String("job", job.Name()),
			logger.String("message_id", envelope.ID),
			logger.Int("attempt", envelope.Attempts),
			logger.Error(err))

		b, merr := json.Marshal(envelope)
		if merr != nil {
			q.log.Error("requeue marshal failed", logger.Error(merr))
			return
		}
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			select {
			case <-ctx.Done():
			case <-time.After(q.config.RetryDelay):
				if err := q.client.LPush(context.Background(), q.listKey(), b).Err(); err != nil {
					q.log.Error("requeue failed", logger.Error(err))
				}
			}
		}()
	}
}

func (q *RedisQueue) listKey() string {
	return q.keyPrefix + ":messages"
}

var _ Queue = (*RedisQueue)(nil)
