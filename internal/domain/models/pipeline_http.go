package models

// Requests for the pipeline HTTP endpoints. Defined in domain for consistency and reuse.

type TrainRequest struct {
	Ticker       string             `json:"ticker" validate:"required"`
	Architecture string             `json:"architecture" default:"lstm" validate:"oneof=lstm rnn patchtst chronos mamba"`
	Period       string             `json:"period" default:"1y" validate:"required"`
	Hyperparams  *HyperparameterSet `json:"hyperparams,omitempty"`
}

type ForecastRequest struct {
	Ticker       string  `query:"ticker" json:"ticker" validate:"required"`
	Architecture string  `query:"architecture" json:"architecture" default:"lstm" validate:"oneof=lstm rnn patchtst chronos mamba"`
	Horizon      int     `query:"horizon" json:"horizon" default:"5" validate:"gte=1,lte=60"`
	Coverage     float64 `query:"coverage" json:"coverage" validate:"gte=0,lte=0.99"`
	Analogues    int     `query:"analogues" json:"analogues" default:"0" validate:"gte=0,lte=20"`
}

type VersionsRequest struct {
	Architecture string `query:"architecture" json:"architecture" validate:"required,oneof=lstm rnn patchtst chronos mamba"`
	Ticker       string `query:"ticker" json:"ticker"`
}

type BacktestRequest struct {
	Ticker       string `json:"ticker" validate:"required"`
	Architecture string `json:"architecture" default:"lstm" validate:"oneof=lstm rnn patchtst chronos mamba"`
	Period       string `json:"period" default:"1y"`
	TrainSize    int    `json:"train_size" default:"100" validate:"gte=20,lte=2000"`
	TestSize     int    `json:"test_size" default:"20" validate:"gte=1,lte=500"`
	StepSize     int    `json:"step_size" default:"10" validate:"gte=1,lte=500"`
	Strategy     string `json:"strategy" default:"rolling" validate:"oneof=rolling expanding"`
}

type CompareRequest struct {
	Ticker        string   `json:"ticker" validate:"required"`
	Architectures []string `json:"architectures" validate:"required,min=1,dive,oneof=lstm rnn patchtst chronos mamba"`
	Period        string   `json:"period" default:"1y"`
	Repeats       int      `json:"repeats" default:"3" validate:"gte=1,lte=10"`
}
