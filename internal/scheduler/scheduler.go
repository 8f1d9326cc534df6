package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"StockCast/internal/usecase"
	"StockCast/pkg/logger"
	"StockCast/pkg/queue"
)

// Scheduler enqueues a retrain for every configured ticker/architecture
// pair once a day after market close so promoted versions track fresh
// data. The job queue's workers bound training concurrency.
type Scheduler struct {
	cron          *gocron.Scheduler
	queue         queue.Queue
	log           *logger.Logger
	retrainAt     string
	tickers       []string
	architectures []string
}

func New(q queue.Queue, log *logger.Logger, retrainAt string, tickers, architectures []string) *Scheduler {
	if retrainAt == "" {
		retrainAt = "17:00"
	}
	return &Scheduler{
		cron:          gocron.NewScheduler(time.UTC),
		queue:         q,
		log:           log,
		retrainAt:     retrainAt,
		tickers:       tickers,
		architectures: architectures,
	}
}

// Start registers the daily retrain job and runs the scheduler in the
// background.
func (s *Scheduler) Start() error {
	if _, err := s.cron.Every(1).Day().At(s.retrainAt).Do(s.retrainAll); err != nil {
		return err
	}
	s.cron.StartAsync()
	s.log.Info("scheduler started",
		logger.String("retrain_at", s.retrainAt),
		logger.Int("tickers", len(s.tickers)),
		logger.Int("architectures", len(s.architectures)))
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) retrainAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	enqueued := 0
	for _, ticker := range s.tickers {
		for _, arch := range s.architectures {
			payload := usecase.TrainPayload{Ticker: ticker, Architecture: arch}
			if err := s.queue.Publish(ctx, usecase.TrainMessageType, payload); err != nil {
				s.log.Error("retrain enqueue failed",
					logger.String("ticker", ticker),
					logger.String("architecture", arch),
					logger.Error(err))
				continue
			}
			enqueued++
		}
	}
	s.log.Info("daily retrain sweep enqueued", logger.Int("jobs", enqueued))
}
