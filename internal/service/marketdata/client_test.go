package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"StockCast/internal/domain/models"
)

func candleServer(t *testing.T, status string, closes []float64) (*httptest.Server, *http.Request) {
	t.Helper()
	var captured http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = *r
		times := make([]int64, len(closes))
		base := time.Now().AddDate(0, 0, -len(closes)).Unix()
		for i := range times {
			times[i] = base + int64(i)*86400
		}
		_ = json.NewEncoder(w).Encode(candleResponse{Status: status, Close: closes, Times: times})
	}))
	t.Cleanup(srv.Close)
	return srv, &captured
}

func TestFetchHistoryReturnsCloses(t *testing.T) {
	closes := []float64{101, 102, 103, 104, 105}
	srv, req := candleServer(t, "ok", closes)
	c := NewClient("test-key", srv.URL, time.Second)

	got, err := c.FetchHistory(context.Background(), "AAPL", "90d")
	if err != nil {
		t.Fatalf("FetchHistory: %v", err)
	}
	if len(got) != len(closes) {
		t.Fatalf("got %d closes, want %d", len(got), len(closes))
	}
	for i := range closes {
		if got[i] != closes[i] {
			t.Errorf("close[%d] = %v, want %v", i, got[i], closes[i])
		}
	}

	q := req.URL.Query()
	if q.Get("symbol") != "AAPL" || q.Get("resolution") != "D" || q.Get("token") != "test-key" {
		t.Errorf("query = %v", q)
	}
}

func TestFetchHistoryTrimsToPeriod(t *testing.T) {
	closes := make([]float64, 200)
	for i := range closes {
		closes[i] = float64(i)
	}
	srv, _ := candleServer(t, "ok", closes)
	c := NewClient("k", srv.URL, time.Second)

	got, err := c.FetchHistory(context.Background(), "AAPL", "90d")
	if err != nil {
		t.Fatalf("FetchHistory: %v", err)
	}
	if len(got) != 90 {
		t.Fatalf("got %d closes, want 90", len(got))
	}
	// The newest observations survive the trim.
	if got[len(got)-1] != 199 {
		t.Errorf("last close = %v, want 199", got[len(got)-1])
	}
}

func TestFetchHistoryNoData(t *testing.T) {
	srv, _ := candleServer(t, "no_data", nil)
	c := NewClient("k", srv.URL, time.Second)

	_, err := c.FetchHistory(context.Background(), "ZZZZ", "1y")
	var unavailable *models.DataUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("err = %v, want DataUnavailableError", err)
	}
	if unavailable.Ticker != "ZZZZ" {
		t.Errorf("ticker = %s", unavailable.Ticker)
	}
}

func TestFetchHistoryServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	c := NewClient("k", srv.URL, time.Second)

	_, err := c.FetchHistory(context.Background(), "AAPL", "1y")
	var unavailable *models.DataUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("err = %v, want DataUnavailableError", err)
	}
}

func TestFetchHistoryBadPeriod(t *testing.T) {
	c := NewClient("k", "http://localhost:0", time.Second)
	_, err := c.FetchHistory(context.Background(), "AAPL", "yesterday")
	if err == nil {
		t.Fatal("expected error for malformed period")
	}
	var unavailable *models.DataUnavailableError
	if errors.As(err, &unavailable) {
		t.Error("period parse failure misreported as provider outage")
	}
}

func TestCalendarSpanCoversWeekends(t *testing.T) {
	if got := calendarSpan(90); got < 90 {
		t.Errorf("calendarSpan(90) = %d, want >= 90", got)
	}
	if got := calendarSpan(5); got < 7 {
		t.Errorf("calendarSpan(5) = %d, want at least a full week", got)
	}
}
