package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"StockCast/pkg/logger"
)

// MemoryQueue is a channel-backed Queue for single-process deployments.
type MemoryQueue struct {
	log    *logger.Logger
	config Config

	mu      sync.RWMutex
	jobs    map[string]Job
	ch      chan Message
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewMemoryQueue(log *logger.Logger, config Config) *MemoryQueue {
	config.fill()
	return &MemoryQueue{
		log:    log,
		config: config,
		jobs:   make(map[string]Job),
	}
}

func (q *MemoryQueue) RegisterJob(job Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, exists := q.jobs[job.Type()]; exists {
		q.log.Warn("job already registered", logger.String("job", job.Name()))
		return
	}
	q.jobs[job.Type()] = job
}

func (q *MemoryQueue) Start() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return fmt.Errorf("queue already running")
	}
	q.running = true
	q.ch = make(chan Message, q.config.QueueSize)

	ctx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel
	for i := 0; i < q.config.Workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
	q.log.Info("memory queue started", logger.Int("workers", q.config.Workers))
	return nil
}

func (q *MemoryQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return nil
	}
	q.running = false
	q.cancel()
	close(q.ch)
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
		q.log.Info("memory queue stopped")
		return nil
	}
}

func (q *MemoryQueue) Publish(ctx context.Context, msgType string, payload interface{}) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if !q.running {
		return fmt.Errorf("queue not running")
	}
	if _, exists := q.jobs[msgType]; !exists {
		return fmt.Errorf("no job registered for type %s", msgType)
	}

	msg := Message{
		ID:        uuid.NewString(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
	select {
	case q.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("queue full")
	}
}

func (q *MemoryQueue) worker(ctx context.Context) {
	defer q.wg.Done()
	for msg := range q.ch {
		q.dispatch(ctx, msg)
	}
}

func (q *MemoryQueue) dispatch(ctx context.Context, msg Message) {
	q.mu.RLock()
	job := q.jobs[msg.Type]
	q.mu.RUnlock()
	if job == nil {
		q.log.Warn("message dropped, no job for type", logger.String("type", msg.Type))
		return
	}

	if err := job.Handle(ctx, msg.Payload); err != nil {
		if msg.Attempts >= q.config.RetryLimit {
			q.log.Error("job failed, retry limit reached",
				logger.String("job", job.Name()),
				logger.String("message_id", msg.ID),
				logger.Int("attempts", msg.Attempts+1),
				logger.Error(err))
			return
		}
		msg.Attempts++
		q.log.Warn("job failed, scheduling retry",
			logger.String("job", job.Name()),
			logger.String("message_id", msg.ID),
			logger.Int("attempt", msg.Attempts),
			logger.Error(err))
		q.wg.Add(1)
		go func(m Message) {
			defer q.wg.Done()
			select {
			case <-ctx.Done():
			case <-time.After(q.config.RetryDelay):
				q.mu.RLock()
				if q.running {
					select {
					case q.ch <- m:
					default:
						q.log.Warn("retry dropped, queue full", logger.String("message_id", m.ID))
					}
				}
				q.mu.RUnlock()
			}
		}(msg)
	}
}

var _ Queue = (*MemoryQueue)(nil)
