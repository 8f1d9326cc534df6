package usecase

import (
	"context"

	"StockCast/pkg/logger"
	"StockCast/pkg/queue"
)

// TrainMessageType routes retrain requests through the job queue.
const TrainMessageType = "train"

// TrainPayload is the queued retrain request.
type TrainPayload struct {
	Ticker       string `json:"ticker"`
	Architecture string `json:"architecture"`
	Period       string `json:"period"`
}

// TrainJob runs queued retrains. Scheduled sweeps and the async train
// endpoint both publish this message type.
type TrainJob struct {
	trainer *Trainer
	log     *logger.Logger
}

func NewTrainJob(trainer *Trainer, log *logger.Logger) *TrainJob {
	return &TrainJob{trainer: trainer, log: log}
}

func (j *TrainJob) Name() string { return "model-trainer" }
func (j *TrainJob) Type() string { return TrainMessageType }

func (j *TrainJob) Handle(ctx context.Context, payload interface{}) error {
	req, err := queue.ParsePayload[TrainPayload](payload)
	if err != nil {
		return err
	}

	run, err := j.trainer.TrainAndEvaluate(ctx, req.Ticker, req.Architecture, req.Period, nil)
	if err != nil {
		return err
	}
	j.log.Info("queued retrain completed",
		logger.String("ticker", req.Ticker),
		logger.String("architecture", req.Architecture),
		logger.String("run_id", run.ID),
		logger.Bool("promoted", run.Promoted))
	return nil
}

var _ queue.Job = (*TrainJob)(nil)
