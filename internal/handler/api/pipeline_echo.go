package api

import (
	"errors"

	"github.com/labstack/echo/v4"

	"StockCast/internal/domain/models"
	"StockCast/internal/service/ratelimit"
	"StockCast/internal/usecase"
	xhttp "StockCast/pkg/http"
	xlogger "StockCast/pkg/logger"
	"StockCast/pkg/queue"
)

// PipelineHandler exposes the training pipeline over HTTP.
type PipelineHandler struct {
	logger     *xlogger.Logger
	trainer    *usecase.Trainer
	forecaster *usecase.Forecaster
	benchmark  *usecase.Benchmark
	versions   *usecase.VersionLister
	queue      queue.Queue
	limiter    *ratelimit.Limiter
}

func NewPipelineHandler(
	logger *xlogger.Logger,
	trainer *usecase.Trainer,
	forecaster *usecase.Forecaster,
	benchmark *usecase.Benchmark,
	versions *usecase.VersionLister,
	q queue.Queue,
) *PipelineHandler {
	return &PipelineHandler{
		logger:     logger,
		trainer:    trainer,
		forecaster: forecaster,
		benchmark:  benchmark,
		versions:   versions,
		queue:      q,
		limiter:    ratelimit.New(),
	}
}

func (h *PipelineHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/train", h.Train)
	g.POST("/train/async", h.TrainAsync)
	g.GET("/forecast", h.Forecast)
	g.GET("/versions", h.Versions)
	g.POST("/compare", h.Compare)
	g.POST("/backtest", h.Backtest)
}

// Train kicks off one synchronous train-and-evaluate run. Training is
// expensive, so the endpoint is rate limited per ticker.
func (h *PipelineHandler) Train(c echo.Context) error {
	req := &models.TrainRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.limiter.Allow("train:"+req.Ticker, 2, 0.1) {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_RATE_LIMITED", "training already in progress for ticker", 429))
	}

	run, err := h.trainer.TrainAndEvaluate(c.Request().Context(), req.Ticker, req.Architecture, req.Period, req.Hyperparams)
	if err != nil {
		h.logger.Error("train usecase error", xlogger.Error(err))
		return h.pipelineError(c, err, run)
	}
	return xhttp.SuccessResponse(c, run)
}

// TrainAsync enqueues a retrain and returns immediately. Explicit
// hyperparameters are not supported on the async path; queued runs use
// suggested ones.
func (h *PipelineHandler) TrainAsync(c echo.Context) error {
	req := &models.TrainRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	payload := usecase.TrainPayload{Ticker: req.Ticker, Architecture: req.Architecture, Period: req.Period}
	if err := h.queue.Publish(c.Request().Context(), usecase.TrainMessageType, payload); err != nil {
		h.logger.Error("train enqueue error", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return xhttp.DataResponse(c, 202, payload)
}

func (h *PipelineHandler) Forecast(c echo.Context) error {
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	forecast, err := h.forecaster.Forecast(c.Request().Context(), req.Ticker, req.Architecture, req.Horizon, req.Coverage, req.Analogues)
	if err != nil {
		h.logger.Error("forecast usecase error", xlogger.Error(err))
		return h.pipelineError(c, err, nil)
	}
	return xhttp.SuccessResponse(c, forecast)
}

func (h *PipelineHandler) Versions(c echo.Context) error {
	req := &models.VersionsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	list, err := h.versions.List(c.Request().Context(), req.Architecture, req.Ticker)
	if err != nil {
		h.logger.Error("versions usecase error", xlogger.Error(err))
		return h.pipelineError(c, err, nil)
	}
	return xhttp.ListResponse(c, list, int64(len(list)))
}

func (h *PipelineHandler) Compare(c echo.Context) error {
	req := &models.CompareRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	report, err := h.benchmark.Compare(c.Request().Context(), req.Ticker, req.Period, req.Architectures, req.Repeats)
	if err != nil {
		h.logger.Error("compare usecase error", xlogger.Error(err))
		return h.pipelineError(c, err, nil)
	}
	return xhttp.SuccessResponse(c, report)
}

// Backtest runs a walk-forward evaluation: retrain on each fold's
// training window, score on the window after it.
func (h *PipelineHandler) Backtest(c echo.Context) error {
	req := &models.BacktestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	report, err := h.benchmark.Backtest(c.Request().Context(), req.Ticker, req.Period, req.Architecture, usecase.BacktestOptions{
		TrainSize: req.TrainSize,
		TestSize:  req.TestSize,
		StepSize:  req.StepSize,
		Strategy:  req.Strategy,
	})
	if err != nil {
		h.logger.Error("backtest usecase error", xlogger.Error(err))
		return h.pipelineError(c, err, nil)
	}
	return xhttp.SuccessResponse(c, report)
}

// pipelineError maps domain errors onto HTTP statuses. Failed runs are
// returned with their error so callers see metrics and outcome.
func (h *PipelineHandler) pipelineError(c echo.Context, err error, run *models.TrainingRun) error {
	var (
		unavailable  *models.DataUnavailableError
		insufficient *models.InsufficientDataError
		calibration  *models.CalibrationInsufficientError
		diverged     *models.TrainingDivergedError
	)
	switch {
	case errors.As(err, &unavailable):
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_DATA_UNAVAILABLE", err.Error(), 404).WithField("ticker"))
	case errors.As(err, &insufficient):
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_INSUFFICIENT_DATA", err.Error(), 422))
	case errors.As(err, &calibration):
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_CALIBRATION_INSUFFICIENT", err.Error(), 422))
	case errors.As(err, &diverged):
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_TRAINING_DIVERGED", err.Error(), 422).WithParam("run", run))
	case errors.Is(err, usecase.ErrNoPromotedVersion):
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_NO_PROMOTED_VERSION", err.Error(), 404).WithField("architecture"))
	default:
		return xhttp.InternalServerErrorResponse(c)
	}
}

var _ xhttp.Handler = (*PipelineHandler)(nil)
