package models

import "errors"

var (
	// ErrSourceUnavailable covers transport failures, timeouts and non-2xx answers from a source.
	ErrSourceUnavailable = errors.New("signal source unavailable")
	// ErrInvalidResponse covers undecodable or out-of-range source payloads.
	ErrInvalidResponse = errors.New("invalid signal response")
	// ErrInsufficientData means the price history is shorter than a required lookback.
	ErrInsufficientData = errors.New("insufficient price data")
	// ErrSizing means no position can be sized (degenerate volatility, no equity).
	ErrSizing = errors.New("position sizing failed")
	// ErrConfiguration is fatal and raised before any work starts.
	ErrConfiguration = errors.New("configuration error")
)
