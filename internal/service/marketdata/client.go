package marketdata

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"StockCast/internal/domain/models"
	"StockCast/internal/domain/repository"
	xhttp "StockCast/pkg/http"
	"StockCast/pkg/util"
)

// Client fetches daily close history over the provider's REST API.
type Client struct {
	apiKey  string
	baseURL string
	client  *xhttp.Client
}

func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type candleResponse struct {
	Status string    `json:"s"`
	Close  []float64 `json:"c"`
	Times  []int64   `json:"t"`
}

// FetchHistory returns the daily close series for ticker over period
// ("90d", "6mo", "1y", "max"), oldest first. Provider failures and
// empty responses surface as DataUnavailableError.
func (c *Client) FetchHistory(ctx context.Context, ticker, period string) ([]float64, error) {
	days, err := util.ParsePeriod(period)
	if err != nil {
		return nil, fmt.Errorf("parse period: %w", err)
	}

	now := time.Now()
	from := now.AddDate(0, 0, -calendarSpan(days))

	var resp candleResponse
	err = c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/stock/candle",
		QueryParams: map[string][]string{
			"symbol":     {ticker},
			"resolution": {"D"},
			"from":       {strconv.FormatInt(from.Unix(), 10)},
			"to":         {strconv.FormatInt(now.Unix(), 10)},
			"token":      {c.apiKey},
		},
	}, &resp)
	if err != nil {
		return nil, &models.DataUnavailableError{Ticker: ticker, Reason: err.Error()}
	}
	if resp.Status != "ok" || len(resp.Close) == 0 {
		return nil, &models.DataUnavailableError{Ticker: ticker, Reason: "no candles returned"}
	}

	closes := resp.Close
	if len(closes) > days {
		closes = closes[len(closes)-days:]
	}
	out := make([]float64, len(closes))
	copy(out, closes)
	return out, nil
}

// calendarSpan widens a trading-day count into calendar days so the
// provider window covers weekends and holidays.
func calendarSpan(tradingDays int) int {
	return tradingDays*7/5 + 10
}

var _ repository.PriceSource = (*Client)(nil)
