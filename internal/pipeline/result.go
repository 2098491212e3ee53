package pipeline

import "github.com/GT-610/chaos-translator/internal/chain"

// ChainStatus is the terminal state of a chain run.
type ChainStatus string

const (
	ChainStatusSuccess         ChainStatus = "Success"
	ChainStatusFailure         ChainStatus = "Failure"
	ChainStatusCanceled        ChainStatus = "Canceled"
	ChainStatusAlreadyComplete ChainStatus = "Already Complete"
	ChainStatusSkipped         ChainStatus = "Skipped"
)

// ChainResult contains structured outputs from RunChain.
// On resume, Original is the checkpoint text, not the first input.
type ChainResult struct {
	Status         ChainStatus
	Original       string
	Resumed        bool
	ResumedFrom    int
	Text           string
	Path           []string
	Iterations     int
	Completed      int
	OutputPath     string
	CheckpointPath string
	Err            error
}

// Finished reports whether the chain produced a final text.
func (r ChainResult) Finished() bool {
	return r.Status == ChainStatusSuccess || r.Status == ChainStatusAlreadyComplete
}

func chainStatus(status chain.Status) ChainStatus {
	switch status {
	case chain.StatusSuccess:
		return ChainStatusSuccess
	case chain.StatusCanceled:
		return ChainStatusCanceled
	case chain.StatusAlreadyComplete:
		return ChainStatusAlreadyComplete
	default:
		return ChainStatusFailure
	}
}
