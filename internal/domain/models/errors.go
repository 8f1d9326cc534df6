package models

import "fmt"

// InsufficientDataError reports that a series is too short for the
// requested window length. The caller can recover by choosing a shorter
// window or fetching a longer period.
type InsufficientDataError struct {
	Needed int
	Got    int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: need at least %d observations, got %d", e.Needed, e.Got)
}

// TrainingDivergedError is fatal to a single run: the training loss
// became non-finite. The run is marked failed and may be retried once
// with a perturbed hyperparameter set.
type TrainingDivergedError struct {
	Architecture string
	Loss         float64
}

func (e *TrainingDivergedError) Error() string {
	return fmt.Sprintf("training diverged for %s: loss=%v", e.Architecture, e.Loss)
}

// ShapeMismatchError is a programmer error: the window length handed to
// predict does not match the input length the handle was trained with.
type ShapeMismatchError struct {
	Expected int
	Got      int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch: handle expects windows of length %d, got %d", e.Expected, e.Got)
}

// DataUnavailableError is propagated unchanged from the market-data
// collaborator.
type DataUnavailableError struct {
	Ticker string
	Reason string
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("price history unavailable for %s: %s", e.Ticker, e.Reason)
}

// CalibrationInsufficientError means the conformal predictor declines
// to produce an interval from too few residuals.
type CalibrationInsufficientError struct {
	Needed int
	Got    int
}

func (e *CalibrationInsufficientError) Error() string {
	return fmt.Sprintf("calibration insufficient: need %d residuals, got %d", e.Needed, e.Got)
}
