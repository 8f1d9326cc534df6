package models

// Architecture identifiers accepted by the adapter factory.
const (
	ArchLSTM     = "lstm"
	ArchRNN      = "rnn"
	ArchPatchTST = "patchtst"
	ArchChronos  = "chronos"
	ArchMamba    = "mamba"
)

// Architectures lists every supported architecture id.
func Architectures() []string {
	return []string{ArchLSTM, ArchRNN, ArchPatchTST, ArchChronos, ArchMamba}
}

// KnownArchitecture reports whether id names a supported adapter.
func KnownArchitecture(id string) bool {
	switch id {
	case ArchLSTM, ArchRNN, ArchPatchTST, ArchChronos, ArchMamba:
		return true
	}
	return false
}

// HyperparameterSet is a named, immutable set of tunables. Created by
// the auto-learning brain or supplied externally; referenced by every
// TrainingRun it produces.
type HyperparameterSet struct {
	Name           string  `json:"name"`
	Architecture   string  `json:"architecture"`
	SequenceLength int     `json:"sequence_length"`
	HiddenWidth    int     `json:"hidden_width"`
	Dropout        float64 `json:"dropout"`
	LearningRate   float64 `json:"learning_rate"`
	Epochs         int     `json:"epochs"`
	BatchSize      int     `json:"batch_size"`
}
