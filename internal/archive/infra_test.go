package archive

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vovarama1992/voicechat/internal/config"
)

// fakeS3 answers the two calls the archive makes: HEAD bucket and PUT object.
type fakeS3 struct {
	mu      sync.Mutex
	bucket  string
	puts    []string
	putType []string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	io.Copy(io.Discard, r.Body)

	switch r.Method {
	case http.MethodHead:
		if strings.Trim(r.URL.Path, "/") != f.bucket {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case http.MethodPut:
		f.mu.Lock()
		f.puts = append(f.puts, r.URL.Path)
		f.putType = append(f.putType, r.Header.Get("Content-Type"))
		f.mu.Unlock()
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func archiveConfig(server *httptest.Server, bucket string) config.ArchiveConfig {
	return config.ArchiveConfig{
		Endpoint:  strings.TrimPrefix(server.URL, "http://"),
		AccessKey: "access",
		SecretKey: "secret",
		Bucket:    bucket,
		Region:    "us-east-1",
	}
}

func TestNewS3ClientMissingBucket(t *testing.T) {
	server := httptest.NewServer(&fakeS3{bucket: "replies"})
	defer server.Close()

	_, err := NewS3Client(context.Background(), archiveConfig(server, "other-bucket"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestS3ClientPutObject(t *testing.T) {
	fake := &fakeS3{bucket: "replies"}
	server := httptest.NewServer(fake)
	defer server.Close()

	client, err := NewS3Client(context.Background(), archiveConfig(server, "replies"))
	require.NoError(t, err)

	url, err := client.PutObject(context.Background(), "replies/2026-10-17/run.mp3", strings.NewReader("ID3"), 3, "audio/mpeg")
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/replies/replies/2026-10-17/run.mp3", url)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Len(t, fake.puts, 1)
	assert.Equal(t, "/replies/replies/2026-10-17/run.mp3", fake.puts[0])
	assert.Equal(t, "audio/mpeg", fake.putType[0])
}
