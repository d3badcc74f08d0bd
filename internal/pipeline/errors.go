package pipeline

import (
	"errors"
	"fmt"
)

var (
	ErrTranscription = errors.New("transcription failed")
	ErrContextLoad   = errors.New("context load failed")
	ErrGeneration    = errors.New("generation failed")
	ErrSynthesis     = errors.New("synthesis failed")
	ErrOutputWrite   = errors.New("output write failed")
)

// StageError is returned for every fatal run failure. errors.Is matches both
// Kind (one of the sentinels above) and anything in the Err chain.
type StageError struct {
	Stage Stage
	Kind  error
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v: %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}
