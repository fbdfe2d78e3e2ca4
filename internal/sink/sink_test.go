package sink

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSaveDataURL(t *testing.T) {
	dir := t.TempDir()
	s := NewFileSaver(filepath.Join(dir, "exports"), zap.NewNop())

	// "fox" in base64
	path, err := s.Save(context.Background(), "data:image/png;base64,Zm94", "ai-image-1.png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "exports", "ai-image-1.png"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("fox"), data)
}

func TestSaveUnpaddedDataURL(t *testing.T) {
	s := NewFileSaver(t.TempDir(), zap.NewNop())
	path, err := s.Save(context.Background(), "data:image/png;base64,Zm9veA", "a.png")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("foox"), data)
}

func TestSaveFetchesURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	s := NewFileSaver(t.TempDir(), zap.NewNop())
	s.HTTPClient = srv.Client()

	path, err := s.Save(context.Background(), srv.URL+"/img.png", "ai-image-2.png")
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestSaveFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s := NewFileSaver(t.TempDir(), zap.NewNop())
	_, err := s.Save(context.Background(), srv.URL, "x.png")
	assert.ErrorContains(t, err, "status 404")
}

func TestSaveRejectsUnknownReference(t *testing.T) {
	s := NewFileSaver(t.TempDir(), zap.NewNop())

	_, err := s.Save(context.Background(), "file:///etc/passwd", "x.png")
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, err = s.Save(context.Background(), "data:image/png;base64", "x.png")
	assert.Error(t, err)

	_, err = s.Save(context.Background(), "data:image/png;base64,!!!", "x.png")
	assert.Error(t, err)
}

func TestSaveKeepsFilenameInsideDir(t *testing.T) {
	dir := t.TempDir()
	s := NewFileSaver(dir, zap.NewNop())

	path, err := s.Save(context.Background(), "data:text/plain,hi", "../../escape.png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "escape.png"), path)
}

func TestWriterClipboard(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriterClipboard{W: &buf}.WriteText("a red fox in snow"))
	assert.Equal(t, "a red fox in snow\n", buf.String())
}
