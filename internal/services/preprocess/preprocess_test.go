package preprocess

import (
	"errors"
	"math"
	"testing"

	"StockCast/internal/domain/models"
)

func linearSeries(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = 100 + float64(i)
	}
	return s
}

func TestWindowsCountAndShape(t *testing.T) {
	for _, tc := range []struct{ n, length int }{
		{10, 2}, {100, 60}, {300, 60}, {5, 4},
	} {
		s := linearSeries(tc.n)
		ws, err := Windows(s, tc.length)
		if err != nil {
			t.Fatalf("n=%d L=%d: unexpected error: %v", tc.n, tc.length, err)
		}
		if len(ws) != tc.n-tc.length {
			t.Fatalf("n=%d L=%d: got %d windows, want %d", tc.n, tc.length, len(ws), tc.n-tc.length)
		}
		for i, w := range ws {
			if w.Length() != tc.length {
				t.Fatalf("window %d has length %d", i, w.Length())
			}
			if w.Target != s[tc.length+i] {
				t.Fatalf("window %d target %v, want %v", i, w.Target, s[tc.length+i])
			}
		}
	}
}

func TestWindowsInsufficientData(t *testing.T) {
	var insufficient *models.InsufficientDataError
	if _, err := Windows(linearSeries(10), 10); !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
	if _, err := Windows(linearSeries(10), 1); !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientDataError for L<2, got %v", err)
	}
}

func TestWindowsImmutable(t *testing.T) {
	s := linearSeries(10)
	ws, err := Windows(s, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s[0] = -999
	if ws[0].Values[0] == -999 {
		t.Fatalf("window aliases the input series")
	}
}

func TestScaleRoundTrip(t *testing.T) {
	s := []float64{100, 150, 90, 130, 200, 95}
	scaled, p, err := Scale(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	back := Unscale(scaled, p)
	for i := range s {
		if math.Abs(back[i]-s[i]) > 1e-9 {
			t.Fatalf("round trip mismatch at %d: %v != %v", i, back[i], s[i])
		}
	}
}

func TestScaleParamsFromTrainingSliceOnly(t *testing.T) {
	series := linearSeries(100)
	train, holdout := Split(series, 0.8)

	_, p, err := Scale(train)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Holdout values exceed training max; params must not know about them.
	if p.Max != train[len(train)-1] {
		t.Fatalf("scale max leaked beyond training slice: %v", p.Max)
	}
	scaledHoldout := Apply(holdout, p)
	for _, v := range scaledHoldout {
		if v <= 1 {
			t.Fatalf("holdout above training range should scale above 1, got %v", v)
		}
	}
}

func TestScaleConstantSeries(t *testing.T) {
	scaled, p, err := Scale([]float64{7, 7, 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, v := range scaled {
		if v != 0.5 {
			t.Fatalf("constant series should scale to 0.5, got %v", v)
		}
	}
	back := Unscale(scaled, p)
	for _, v := range back {
		if v != 7 {
			t.Fatalf("unscale of constant series should return min, got %v", v)
		}
	}
}

func TestSplitChronological(t *testing.T) {
	s := linearSeries(100)
	train, holdout := Split(s, 0.8)
	if len(train) != 80 || len(holdout) != 20 {
		t.Fatalf("unexpected split sizes %d/%d", len(train), len(holdout))
	}
	if train[len(train)-1] >= holdout[0] {
		t.Fatalf("split is not chronological")
	}
}
