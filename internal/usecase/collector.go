package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"StockCast/internal/domain/models"
	"StockCast/internal/domain/repository"
	"StockCast/internal/domain/service"
	mid "StockCast/internal/middleware"
	"StockCast/internal/services/conformal"
	"StockCast/pkg/logger"
)

// segmentLength is the window size of indexed live segments; stride is
// how far the buffer slides after each segment so neighbors overlap.
const (
	segmentLength = 60
	segmentStride = 15
)

// TickProcessor turns validated live ticks into learning signal: it
// grows per-ticker price buffers into analogue segments and closes the
// conformal feedback loop for served forecasts.
type TickProcessor struct {
	retriever    service.AnalogueRetriever
	conformal    *conformal.Predictor
	calibrations *Calibrations
	served       *ServedLog
	log          *logger.Logger

	mu      sync.Mutex
	buffers map[string][]float64
}

func NewTickProcessor(retriever service.AnalogueRetriever, cp *conformal.Predictor, calibrations *Calibrations, served *ServedLog, log *logger.Logger) *TickProcessor {
	return &TickProcessor{
		retriever:    retriever,
		conformal:    cp,
		calibrations: calibrations,
		served:       served,
		log:          log,
		buffers:      make(map[string][]float64),
	}
}

func (p *TickProcessor) Process(ctx context.Context, t *models.Tick) error {
	p.observe(t)
	p.index(t)
	return nil
}

// observe resolves any pending served interval for this ticker against
// the realized price.
func (p *TickProcessor) observe(t *models.Tick) {
	entry, ok := p.served.Take(t.Ticker)
	if !ok {
		return
	}
	set := p.calibrations.Get(entry.architecture, entry.versionID)
	if set == nil {
		return // version replaced since serving; stale feedback dropped
	}
	p.conformal.Observe(set, entry.interval, t.Price)
	p.log.Debug("conformal feedback",
		logger.String("ticker", t.Ticker),
		logger.String("architecture", entry.architecture),
		logger.Float64("alpha", set.Alpha))
}

// index grows the ticker's buffer; each full window plus its realized
// next price becomes one analogue segment.
func (p *TickProcessor) index(t *models.Tick) {
	p.mu.Lock()
	defer p.mu.Unlock()

	buf := append(p.buffers[t.Ticker], t.Price)
	if len(buf) > segmentLength {
		window := make([]float64, segmentLength)
		copy(window, buf[:segmentLength])
		p.retriever.Add(models.HistoricalSegment{
			ID:      uuid.NewString(),
			Ticker:  t.Ticker,
			Window:  window,
			Outcome: buf[segmentLength],
		})
		buf = buf[segmentStride:]
	}
	p.buffers[t.Ticker] = buf
}

// Collector owns the live stream: connect, subscribe, and pump ticks
// through the pipeline into the processor. Read errors trigger
// reconnects; the collector never takes the process down.
type Collector struct {
	stream  repository.PriceStream
	pipe    *mid.TickPipeline
	metrics repository.Metrics
	log     *logger.Logger
}

func NewCollector(stream repository.PriceStream, pipe *mid.TickPipeline, metrics repository.Metrics, log *logger.Logger) *Collector {
	return &Collector{stream: stream, pipe: pipe, metrics: metrics, log: log}
}

func (c *Collector) IsConnected() bool { return c.stream.IsConnected() }

func (c *Collector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return fmt.Errorf("collector start: %w", err)
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return fmt.Errorf("collector subscribe: %w", err)
	}
	c.pipe.Start(ctx)
	tickCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, tickCh, errCh)
	return nil
}

func (c *Collector) consume(ctx context.Context, tickCh <-chan *models.Tick, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				c.log.Warn("stream error, reconnecting", logger.Error(err))
				if rerr := c.stream.Reconnect(ctx); rerr != nil {
					c.log.Error("stream reconnect", logger.Error(rerr))
					return
				}
				tickCh, errCh = c.stream.Read(ctx)
			}
		case t := <-tickCh:
			if t == nil {
				continue
			}
			_ = c.pipe.Process(ctx, t)
		}
	}
}

// Shutdown stops the pipeline and closes the stream.
func (c *Collector) Shutdown(ctx context.Context) error {
	c.pipe.Stop()
	return c.stream.Close()
}
