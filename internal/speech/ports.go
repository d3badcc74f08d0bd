package speech

import "context"

// Clip is an input recording. Name carries the file extension some providers
// use to detect the format.
type Clip struct {
	Name string
	Data []byte
}

// voice -> text
type Transcriber interface {
	Transcribe(ctx context.Context, clip Clip) (string, error)
}

// text -> voice (encoded audio bytes)
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
