package tensor

import (
	"context"
	"fmt"
	"math"
	"time"

	"StockCast/internal/domain/models"
	xhttp "StockCast/pkg/http"
)

// HTTPEngine delegates fit/predict to an external training service.
type HTTPEngine struct {
	baseURL string
	client  *xhttp.Client
}

// NewHTTPEngine builds an engine client with timeout and base URL.
// Long fits mean the timeout should be generous; cancellation flows
// through the request context.
func NewHTTPEngine(baseURL string, timeout time.Duration) *HTTPEngine {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &HTTPEngine{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type fitRequest struct {
	Sequences [][]float64 `json:"sequences"`
	Targets   []float64   `json:"targets"`
	Config    TrainConfig `json:"config"`
}

type fitResponse struct {
	ModelID   string  `json:"model_id"`
	FinalLoss float64 `json:"final_loss"`
}

type predictRequest struct {
	ModelID   string      `json:"model_id"`
	Sequences [][]float64 `json:"sequences"`
}

type predictResponse struct {
	Values []float64 `json:"values"`
}

func (e *HTTPEngine) Fit(ctx context.Context, sequences [][]float64, targets []float64, cfg TrainConfig) (*FitResult, error) {
	var fr fitResponse
	if err := e.postJSON(ctx, "/v1/fit", fitRequest{Sequences: sequences, Targets: targets, Config: cfg}, &fr); err != nil {
		return nil, fmt.Errorf("engine fit: %w", err)
	}
	if math.IsNaN(fr.FinalLoss) || math.IsInf(fr.FinalLoss, 0) {
		return nil, &models.TrainingDivergedError{Architecture: cfg.Architecture, Loss: fr.FinalLoss}
	}
	return &FitResult{Payload: []byte(fr.ModelID), FinalLoss: fr.FinalLoss}, nil
}

func (e *HTTPEngine) Predict(ctx context.Context, payload []byte, sequences [][]float64) ([]float64, error) {
	var pr predictResponse
	if err := e.postJSON(ctx, "/v1/predict", predictRequest{ModelID: string(payload), Sequences: sequences}, &pr); err != nil {
		return nil, fmt.Errorf("engine predict: %w", err)
	}
	return pr.Values, nil
}

func (e *HTTPEngine) postJSON(ctx context.Context, path string, payload interface{}, dest interface{}) error {
	if e.client == nil || e.baseURL == "" {
		return fmt.Errorf("engine http client not initialized")
	}
	err := e.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    e.baseURL + path,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: payload,
	}, dest)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	return nil
}

var _ Engine = (*HTTPEngine)(nil)
