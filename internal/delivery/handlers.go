package delivery

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/Vovarama1992/voicechat/internal/history"
	"github.com/Vovarama1992/voicechat/internal/pipeline"
)

type TurnRunner interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
	History(ctx context.Context) (history.Conversation, error)
	Reset(ctx context.Context) error
}

type Handler struct {
	runner    TurnRunner
	audioDir  string
	maxUpload int64
	log       *logger.ZapLogger
}

func NewHandler(runner TurnRunner, audioDir string, maxUpload int64, log *logger.ZapLogger) *Handler {
	if maxUpload <= 0 {
		maxUpload = 25 << 20
	}
	return &Handler{
		runner:    runner,
		audioDir:  audioDir,
		maxUpload: maxUpload,
		log:       log,
	}
}

type turnResponse struct {
	pipeline.Summary
	AudioURL string `json:"audio_url"`
}

type errorResponse struct {
	Error string `json:"error"`
	Stage string `json:"stage,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// CreateTurn takes a multipart "audio" file and answers with the reply text and
// a URL for the reply audio.
func (h *Handler) CreateTurn(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		h.log.Log(logger.LogEntry{Level: "warn", Message: "invalid multipart", Error: err})
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart: " + err.Error()})
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing audio: " + err.Error()})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil || len(data) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "empty audio"})
		return
	}

	name := uuid.NewString() + ".mp3"
	res, err := h.runner.Run(r.Context(), pipeline.Request{
		AudioPath:  header.Filename,
		Audio:      data,
		OutputPath: filepath.Join(h.audioDir, name),
	})
	if err != nil {
		h.log.Log(logger.LogEntry{Level: "error", Message: "turn failed", Error: err, Service: "voicechat"})

		var stageErr *pipeline.StageError
		if errors.As(err, &stageErr) {
			status := http.StatusBadGateway
			if errors.Is(err, pipeline.ErrOutputWrite) || errors.Is(err, pipeline.ErrContextLoad) {
				status = http.StatusInternalServerError
			}
			writeJSON(w, status, errorResponse{Error: err.Error(), Stage: string(stageErr.Stage)})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	for _, warn := range res.Warnings {
		h.log.Log(logger.LogEntry{Level: "warn", Message: "turn warning", Error: warn, Service: "voicechat"})
	}

	writeJSON(w, http.StatusOK, turnResponse{
		Summary:  res.Summary(),
		AudioURL: "/v1/audio/" + filepath.Base(res.AudioPath),
	})
}

func (h *Handler) GetAudio(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		http.Error(w, "invalid name", http.StatusBadRequest)
		return
	}

	path := filepath.Join(h.audioDir, name)
	if _, err := os.Stat(path); err != nil {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, path)
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	conv, err := h.runner.History(r.Context())
	if err != nil {
		h.log.Log(logger.LogEntry{Level: "error", Message: "history load failed", Error: err})
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if conv == nil {
		conv = history.Conversation{}
	}
	writeJSON(w, http.StatusOK, conv)
}

func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.runner.Reset(r.Context()); err != nil {
		h.log.Log(logger.LogEntry{Level: "error", Message: "history reset failed", Error: err})
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PruneAudio removes reply files in dir last written before now-maxAge and
// returns how many were removed. A missing dir is not an error.
func PruneAudio(dir string, maxAge time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := now.Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".mp3", ".wav":
		default:
			continue
		}

		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
