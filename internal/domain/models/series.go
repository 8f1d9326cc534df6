package models

// Window is a fixed-length slice of a scaled series plus the single
// next-step target. Immutable once constructed.
type Window struct {
	Values []float64 `json:"values"`
	Target float64   `json:"target"`
}

// Length returns the window input length.
func (w Window) Length() int { return len(w.Values) }

// ScaleParams holds min-max parameters fitted on the training slice
// only. They are carried with the model artifact so serving uses the
// exact transform the model was trained with.
type ScaleParams struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Tick is a single live price observation from the market-data stream.
type Tick struct {
	Ticker    string  `json:"ticker"`
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"` // unix seconds
}
