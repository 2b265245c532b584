package analysis

import (
	"errors"
	"fmt"
)

// ErrThresholdOutOfRange is matched by every *ThresholdError.
var ErrThresholdOutOfRange = errors.New("z-score threshold out of range")

// ThresholdError rejects a Z-score threshold outside [MinZThreshold, MaxZThreshold].
// Out-of-range values are never clamped.
type ThresholdError struct {
	Value float64
}

func (e *ThresholdError) Error() string {
	return fmt.Sprintf("z-score threshold %.2f outside [%.1f, %.1f]", e.Value, MinZThreshold, MaxZThreshold)
}

func (e *ThresholdError) Unwrap() error { return ErrThresholdOutOfRange }

// StageError attaches the pipeline stage, and the column when known, to a failure.
type StageError struct {
	Stage  string
	Column string
	Err    error
}

func (e *StageError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s (column %q): %v", e.Stage, e.Column, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// ValidateThreshold returns a *ThresholdError when t is outside the accepted range.
func ValidateThreshold(t float64) error {
	if !(t >= MinZThreshold && t <= MaxZThreshold) {
		return &ThresholdError{Value: t}
	}
	return nil
}
