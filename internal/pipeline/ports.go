package pipeline

import (
	"context"
	"time"

	"github.com/Vovarama1992/voicechat/internal/ai"
	"github.com/Vovarama1992/voicechat/internal/history"
	"github.com/Vovarama1992/voicechat/internal/speech"
)

type Stage string

const (
	StageIdle          Stage = "Idle"
	StageTranscribing  Stage = "Transcribing"
	StageContextLoaded Stage = "ContextLoaded"
	StageGenerating    Stage = "Generating"
	StageSynthesizing  Stage = "Synthesizing"
	StagePersisted     Stage = "Persisted"
	StageFailed        Stage = "Failed"
)

// Archiver keeps a copy of the reply audio somewhere addressable.
type Archiver interface {
	SaveReply(ctx context.Context, runID, filename string, audio []byte) (string, error)
}

type Notifier interface {
	Notify(ctx context.Context, err error, details string) error
}

// Deps are the collaborators of one pipeline. Archive and Notifier may be nil.
type Deps struct {
	Transcriber speech.Transcriber
	Responder   ai.Responder
	Synthesizer speech.Synthesizer
	Store       history.Store
	Archive     Archiver
	Notifier    Notifier
}

type Options struct {
	SystemPrompt   string
	MaxTurns       int
	PromptTurns    int
	PromptMaxChars int
	CallTimeout    time.Duration
	OutputPath     string
	// AudioExt replaces an .mp3/.wav output suffix when set, so the file name
	// matches what the synthesizer produced.
	AudioExt string
}

// Request names the input clip. When Audio is set it is used as is and
// AudioPath only supplies the file name.
type Request struct {
	AudioPath  string
	Audio      []byte
	OutputPath string
}

type Result struct {
	RunID      string
	Transcript string
	Reply      string
	AudioPath  string
	ArchiveURL string
	Warnings   []error
}

// Summary is the printable form of a Result.
type Summary struct {
	RunID      string   `json:"run_id"`
	Transcript string   `json:"transcript"`
	Text       string   `json:"text"`
	AudioPath  string   `json:"audio_path"`
	ArchiveURL string   `json:"archive_url,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
}

func (r Result) Summary() Summary {
	s := Summary{
		RunID:      r.RunID,
		Transcript: r.Transcript,
		Text:       r.Reply,
		AudioPath:  r.AudioPath,
		ArchiveURL: r.ArchiveURL,
	}
	for _, w := range r.Warnings {
		s.Warnings = append(s.Warnings, w.Error())
	}
	return s
}
