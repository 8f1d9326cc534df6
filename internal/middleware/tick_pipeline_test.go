package middleware

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"StockCast/internal/domain/models"
)

type recordingProc struct {
	mu    sync.Mutex
	ticks []*models.Tick
	fail  bool
}

func (p *recordingProc) Process(ctx context.Context, t *models.Tick) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return fmt.Errorf("downstream unavailable")
	}
	p.ticks = append(p.ticks, t)
	return nil
}

func (p *recordingProc) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.ticks)
}

func (p *recordingProc) setFail(fail bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail = fail
}

type countingMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func (m *countingMetrics) RecordRunStarted(string)                      {}
func (m *countingMetrics) RecordRunCompleted(string, models.RunOutcome) {}
func (m *countingMetrics) RecordPromotion(string, bool)                 {}
func (m *countingMetrics) RecordPromotedAccuracy(string, float64)       {}
func (m *countingMetrics) RecordForecast(string)                        {}
func (m *countingMetrics) RecordLatency(string, float64)                {}

func (m *countingMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errors == nil {
		m.errors = make(map[string]int)
	}
	m.errors[kind]++
}

func (m *countingMetrics) errorCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

func tick(ticker string, price float64) *models.Tick {
	return &models.Tick{Ticker: ticker, Price: price, Timestamp: time.Now().Unix()}
}

func TestPipelineForwardsValidTicks(t *testing.T) {
	proc := &recordingProc{}
	p := NewTickPipeline(proc, &countingMetrics{})

	if err := p.Process(context.Background(), tick("AAPL", 190.5)); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if proc.count() != 1 {
		t.Errorf("forwarded %d ticks, want 1", proc.count())
	}
}

func TestPipelineRejectsInvalidTicks(t *testing.T) {
	proc := &recordingProc{}
	m := &countingMetrics{}
	p := NewTickPipeline(proc, m)
	ctx := context.Background()

	cases := []*models.Tick{
		nil,
		{Ticker: "", Price: 10, Timestamp: 1},
		{Ticker: "AAPL", Price: 0, Timestamp: 1},
		{Ticker: "AAPL", Price: -5, Timestamp: 1},
		{Ticker: "AAPL", Price: 10, Timestamp: 0},
	}
	for i, c := range cases {
		if err := p.Process(ctx, c); err == nil {
			t.Errorf("case %d accepted invalid tick %+v", i, c)
		}
	}
	if proc.count() != 0 {
		t.Errorf("downstream saw %d invalid ticks", proc.count())
	}
	if m.errorCount("pipeline_validate") != len(cases) {
		t.Errorf("validate errors = %d, want %d", m.errorCount("pipeline_validate"), len(cases))
	}
}

func TestPipelineThrottlesPerTicker(t *testing.T) {
	proc := &recordingProc{}
	p := NewTickPipeline(proc, &countingMetrics{}, WithMaxRPS(1))
	ctx := context.Background()

	// Burst on one ticker: only the first survives the throttle.
	for i := 0; i < 5; i++ {
		if err := p.Process(ctx, tick("AAPL", 190)); err != nil {
			t.Fatalf("Process: %v", err)
		}
	}
	// A different ticker has its own budget.
	if err := p.Process(ctx, tick("MSFT", 410)); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if proc.count() != 2 {
		t.Errorf("forwarded %d ticks, want 2", proc.count())
	}
}

func TestPipelineBuffersOnDownstreamFailure(t *testing.T) {
	proc := &recordingProc{fail: true}
	m := &countingMetrics{}
	p := NewTickPipeline(proc, m, WithBufferSize(10))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	if err := p.Process(ctx, tick("AAPL", 190)); err == nil {
		t.Fatal("expected downstream error")
	}
	if m.errorCount("pipeline_process") != 1 {
		t.Errorf("process errors = %d", m.errorCount("pipeline_process"))
	}

	// Once downstream recovers, the buffered tick is flushed.
	proc.setFail(false)
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if proc.count() == 1 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("buffered tick never flushed, downstream saw %d", proc.count())
}
