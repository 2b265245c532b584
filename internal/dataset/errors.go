package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput indicates the input holds no bytes or no header row.
	ErrEmptyInput = errors.New("empty input")
	// ErrUnsupportedFormat indicates a format or extension the loader cannot read.
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// LoadError reports a failure at the loader boundary. No partially loaded table
// accompanies it.
type LoadError struct {
	Format Format
	Stage  string // decompress|decode|read|header|row|sheet
	Err    error
}

func (e *LoadError) Error() string {
	if e == nil {
		return "load error"
	}
	return fmt.Sprintf("load %s: %s: %v", e.Format, e.Stage, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func loadErr(f Format, stage string, err error) error {
	return &LoadError{Format: f, Stage: stage, Err: err}
}
