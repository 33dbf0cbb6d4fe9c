package contracts

import "errors"

// Sentinel errors shared across the pipeline stages. Callers classify
// per-security failures with errors.Is and decide whether to skip the
// security or abort the batch.
var (
	// ErrInsufficientHistory means the security has fewer price bars
	// than the computation's minimum lookback.
	ErrInsufficientHistory = errors.New("insufficient price history")

	// ErrMissingUpstreamData means a required upstream artifact (an
	// indicator snapshot or a forecast) is absent for the security.
	ErrMissingUpstreamData = errors.New("missing upstream data")

	// ErrInsufficientSignals means too few qualifying candidates exist
	// to build a portfolio.
	ErrInsufficientSignals = errors.New("insufficient qualifying signals")
)
