package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"StockCast/pkg/logger"
)

type countingJob struct {
	mu      sync.Mutex
	handled []string
	fail    int // fail the first n handles
}

func (j *countingJob) Name() string { return "counting" }
func (j *countingJob) Type() string { return "count" }

func (j *countingJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := ParsePayload[string](payload)
	if err != nil {
		return err
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.fail > 0 {
		j.fail--
		return fmt.Errorf("transient failure")
	}
	j.handled = append(j.handled, *p)
	return nil
}

func (j *countingJob) count() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.handled)
}

func testQueue(t *testing.T, job Job, cfg Config) *MemoryQueue {
	t.Helper()
	log, _ := logger.New(&logger.Config{Level: "error", Format: "json"})
	q := NewMemoryQueue(log, cfg)
	q.RegisterJob(job)
	if err := q.Start(); err != nil {
		t.Fatalf("start queue: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = q.Stop(ctx)
	})
	return q
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestMemoryQueueDispatches(t *testing.T) {
	job := &countingJob{}
	q := testQueue(t, job, Config{Workers: 2})

	for i := 0; i < 5; i++ {
		if err := q.Publish(context.Background(), "count", fmt.Sprintf("msg-%d", i)); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
	waitFor(t, 2*time.Second, func() bool { return job.count() == 5 })
}

func TestMemoryQueueRejectsUnknownType(t *testing.T) {
	q := testQueue(t, &countingJob{}, Config{})
	if err := q.Publish(context.Background(), "unknown", "x"); err == nil {
		t.Fatal("expected error for unregistered message type")
	}
}

func TestMemoryQueueRejectsWhenStopped(t *testing.T) {
	log, _ := logger.New(&logger.Config{Level: "error", Format: "json"})
	q := NewMemoryQueue(log, Config{})
	q.RegisterJob(&countingJob{})
	if err := q.Publish(context.Background(), "count", "x"); err == nil {
		t.Fatal("expected error before Start")
	}
}

func TestMemoryQueueRetriesFailedJob(t *testing.T) {
	job := &countingJob{fail: 1}
	q := testQueue(t, job, Config{Workers: 1, RetryLimit: 2, RetryDelay: 20 * time.Millisecond})

	if err := q.Publish(context.Background(), "count", "retry-me"); err != nil {
		t.Fatalf("publish: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return job.count() == 1 })
}

func TestMemoryQueueDropsAfterRetryLimit(t *testing.T) {
	job := &countingJob{fail: 10}
	q := testQueue(t, job, Config{Workers: 1, RetryLimit: 1, RetryDelay: 10 * time.Millisecond})

	if err := q.Publish(context.Background(), "count", "doomed"); err != nil {
		t.Fatalf("publish: %v", err)
	}
	// Original attempt plus one retry, then the message is dropped.
	time.Sleep(200 * time.Millisecond)
	if got := job.count(); got != 0 {
		t.Errorf("handled %d messages, want 0", got)
	}
}

func TestParsePayloadShapes(t *testing.T) {
	type payload struct {
		Ticker string `json:"ticker"`
	}

	direct, err := ParsePayload[payload](payload{Ticker: "AAPL"})
	if err != nil || direct.Ticker != "AAPL" {
		t.Errorf("value payload: %v %+v", err, direct)
	}

	ptr, err := ParsePayload[payload](&payload{Ticker: "MSFT"})
	if err != nil || ptr.Ticker != "MSFT" {
		t.Errorf("pointer payload: %v %+v", err, ptr)
	}

	raw, err := ParsePayload[payload](json.RawMessage(`{"ticker":"NVDA"}`))
	if err != nil || raw.Ticker != "NVDA" {
		t.Errorf("raw payload: %v %+v", err, raw)
	}

	asMap, err := ParsePayload[payload](map[string]interface{}{"ticker": "AMZN"})
	if err != nil || asMap.Ticker != "AMZN" {
		t.Errorf("map payload: %v %+v", err, asMap)
	}

	if _, err := ParsePayload[payload](42); err == nil {
		t.Error("expected error for unsupported payload type")
	}
}
