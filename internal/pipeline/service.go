package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Vovarama1992/voicechat/internal/ai"
	"github.com/Vovarama1992/voicechat/internal/config"
	"github.com/Vovarama1992/voicechat/internal/history"
	"github.com/Vovarama1992/voicechat/internal/speech"
)

const notifyTimeout = 10 * time.Second

// Pipeline runs one conversational turn at a time against a single store.
type Pipeline struct {
	deps Deps
	opts Options
	log  *zap.Logger

	mu    sync.Mutex
	state atomic.Value // Stage
}

func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		SystemPrompt:   cfg.SystemPrompt,
		MaxTurns:       cfg.History.MaxTurns,
		PromptTurns:    cfg.History.PromptTurns,
		PromptMaxChars: cfg.History.PromptMaxChars,
		CallTimeout:    cfg.CallTimeout,
		OutputPath:     cfg.OutputPath,
		AudioExt:       speech.AudioExt(cfg),
	}
}

func New(deps Deps, opts Options, log *zap.Logger) *Pipeline {
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 30 * time.Second
	}
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = 20
	}
	if opts.OutputPath == "" {
		opts.OutputPath = "ai_reply.mp3"
	}

	p := &Pipeline{
		deps: deps,
		opts: opts,
		log:  log.Named("pipeline"),
	}
	p.state.Store(StageIdle)
	return p
}

// State is the stage the current (or last) run reached.
func (p *Pipeline) State() Stage {
	return p.state.Load().(Stage)
}

func (p *Pipeline) enter(log *zap.Logger, s Stage) {
	p.state.Store(s)
	log.Debug("stage", zap.String("stage", string(s)))
}

// Run executes Transcribing → ContextLoaded → Generating → Synthesizing →
// Persisted. Fatal failures come back as *StageError and leave neither an
// output file nor a context change behind. Post-output problems (context save,
// archive upload) are reported in Result.Warnings.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	res := Result{RunID: uuid.NewString()}
	log := p.log.With(zap.String("run_id", res.RunID))
	start := time.Now()

	outPath := req.OutputPath
	if outPath == "" {
		outPath = p.opts.OutputPath
	}
	outPath = withAudioExt(outPath, p.opts.AudioExt)

	log.Info("run started", zap.String("input", req.AudioPath), zap.String("output", outPath))

	// 1) transcribe
	p.enter(log, StageTranscribing)

	clip, err := readClip(req)
	if err != nil {
		return res, p.fail(ctx, log, StageTranscribing, ErrTranscription, err)
	}

	transcript, err := withTimeout(ctx, p.opts.CallTimeout, func(ctx context.Context) (string, error) {
		return p.deps.Transcriber.Transcribe(ctx, clip)
	})
	if err == nil && strings.TrimSpace(transcript) == "" {
		err = speech.ErrEmptyTranscript
	}
	if err != nil {
		return res, p.fail(ctx, log, StageTranscribing, ErrTranscription, err)
	}
	res.Transcript = strings.TrimSpace(transcript)
	log.Info("transcribed", zap.Int("chars", len(res.Transcript)), zap.Duration("elapsed", time.Since(start)))

	// 2) context, held until the new turns are saved
	if locker, ok := p.deps.Store.(history.RunLocker); ok {
		unlock, err := locker.LockRun(ctx)
		if err != nil {
			return res, p.fail(ctx, log, StageContextLoaded, ErrContextLoad, err)
		}
		defer unlock()
	}

	conv, err := withTimeout(ctx, p.opts.CallTimeout, p.deps.Store.Load)
	switch {
	case errors.Is(err, history.ErrStorageCorrupt):
		log.Warn("stored context unreadable, starting fresh", zap.Error(err))
		res.Warnings = append(res.Warnings, fmt.Errorf("context ignored: %w", err))
		conv = history.Conversation{}
	case err != nil:
		return res, p.fail(ctx, log, StageContextLoaded, ErrContextLoad, err)
	}
	p.enter(log, StageContextLoaded)
	log.Info("context loaded", zap.Int("turns", len(conv)))

	// 3) reply
	p.enter(log, StageGenerating)

	prompt := ai.BuildPrompt(p.opts.SystemPrompt, conv, res.Transcript, p.opts.PromptTurns, p.opts.PromptMaxChars)
	reply, err := withTimeout(ctx, p.opts.CallTimeout, func(ctx context.Context) (string, error) {
		return p.deps.Responder.Respond(ctx, prompt)
	})
	if err == nil && strings.TrimSpace(reply) == "" {
		err = ai.ErrEmptyReply
	}
	if err != nil {
		return res, p.fail(ctx, log, StageGenerating, ErrGeneration, err)
	}
	res.Reply = strings.TrimSpace(reply)
	log.Info("reply generated", zap.Int("history_turns", len(prompt.History)), zap.Int("chars", len(res.Reply)))

	// 4) voice
	p.enter(log, StageSynthesizing)

	audio, err := withTimeout(ctx, p.opts.CallTimeout, func(ctx context.Context) ([]byte, error) {
		return p.deps.Synthesizer.Synthesize(ctx, res.Reply)
	})
	if err == nil && len(audio) == 0 {
		err = errors.New("synthesizer returned no audio")
	}
	if err != nil {
		return res, p.fail(ctx, log, StageSynthesizing, ErrSynthesis, err)
	}

	// 5) output, then context
	if err := writeOutput(outPath, audio); err != nil {
		return res, p.fail(ctx, log, StagePersisted, ErrOutputWrite, err)
	}
	res.AudioPath = outPath

	user := history.NewTurn(history.RoleUser, res.Transcript)
	assistant := history.NewTurn(history.RoleAssistant, res.Reply)
	next := history.Append(conv, user, assistant, p.opts.MaxTurns)

	saveCtx, cancel := context.WithTimeout(ctx, p.opts.CallTimeout)
	err = p.deps.Store.Save(saveCtx, next)
	cancel()
	if err != nil {
		log.Warn("context not saved", zap.Error(err))
		res.Warnings = append(res.Warnings, fmt.Errorf("context not saved: %w", err))
	}

	if p.deps.Archive != nil {
		url, err := withTimeout(ctx, p.opts.CallTimeout, func(ctx context.Context) (string, error) {
			return p.deps.Archive.SaveReply(ctx, res.RunID, filepath.Base(outPath), audio)
		})
		if err != nil {
			log.Warn("reply not archived", zap.Error(err))
			res.Warnings = append(res.Warnings, fmt.Errorf("reply not archived: %w", err))
		} else {
			res.ArchiveURL = url
		}
	}

	p.enter(log, StagePersisted)
	log.Info("run finished",
		zap.Int("turns", len(next)),
		zap.Int("audio_bytes", len(audio)),
		zap.Int("warnings", len(res.Warnings)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

// History returns the stored conversation.
func (p *Pipeline) History(ctx context.Context) (history.Conversation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.deps.Store.Load(ctx)
}

// Reset replaces the stored conversation with an empty one.
func (p *Pipeline) Reset(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.deps.Store.Save(ctx, history.Conversation{}); err != nil {
		return err
	}
	p.log.Info("context cleared")
	return nil
}

func (p *Pipeline) Close() error {
	return p.deps.Store.Close()
}

func (p *Pipeline) fail(ctx context.Context, log *zap.Logger, stage Stage, kind, cause error) error {
	p.state.Store(StageFailed)
	err := &StageError{Stage: stage, Kind: kind, Err: cause}
	log.Error("run failed", zap.String("stage", string(stage)), zap.Error(cause))

	if p.deps.Notifier != nil {
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()
		if nerr := p.deps.Notifier.Notify(nctx, err, "stage "+string(stage)); nerr != nil {
			log.Warn("failure alert not sent", zap.Error(nerr))
		}
	}
	return err
}

func withTimeout[T any](ctx context.Context, d time.Duration, call func(context.Context) (T, error)) (T, error) {
	callCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return call(callCtx)
}

func readClip(req Request) (speech.Clip, error) {
	clip := speech.Clip{Name: "audio.wav", Data: req.Audio}
	if req.AudioPath != "" {
		clip.Name = filepath.Base(req.AudioPath)
	}
	if clip.Data != nil {
		return clip, nil
	}

	if req.AudioPath == "" {
		return clip, errors.New("no input audio")
	}

	data, err := os.ReadFile(req.AudioPath)
	if err != nil {
		return clip, fmt.Errorf("read input: %w", err)
	}
	clip.Data = data
	return clip, nil
}

// withAudioExt swaps a .mp3 or .wav suffix for ext. Other names are kept.
func withAudioExt(path, ext string) string {
	if ext == "" {
		return path
	}
	cur := filepath.Ext(path)
	switch strings.ToLower(cur) {
	case ".mp3", ".wav":
		return strings.TrimSuffix(path, cur) + ext
	}
	return path
}

func writeOutput(path string, audio []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return history.WriteFileAtomic(path, audio, 0o644)
}
