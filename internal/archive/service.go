package archive

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

type Service struct {
	client S3Client
	now    func() time.Time
}

func NewService(client S3Client) *Service {
	return &Service{client: client, now: time.Now}
}

// ObjectKey is the path inside the bucket: replies/<date>/<run id><ext>.
func (s *Service) ObjectKey(runID, filename string) string {
	date := s.now().UTC().Format("2006-01-02")
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".mp3"
	}
	return fmt.Sprintf("replies/%s/%s%s", date, runID, ext)
}

// SaveReply uploads one reply clip and returns where it can be fetched.
func (s *Service) SaveReply(ctx context.Context, runID, filename string, audio []byte) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id required")
	}

	key := s.ObjectKey(runID, filename)
	return s.client.PutObject(ctx, key, bytes.NewReader(audio), int64(len(audio)), contentTypeFor(filename))
}

func contentTypeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".wav":
		return "audio/wav"
	case ".ogg", ".opus":
		return "audio/ogg"
	default:
		return "audio/mpeg"
	}
}
