package sink

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrUnsupportedImage is returned for image references that are neither
// data: URLs nor http(s) URLs.
var ErrUnsupportedImage = errors.New("sink: unsupported image reference")

// FileSaver writes exported images into Dir.
type FileSaver struct {
	Dir        string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

func NewFileSaver(dir string, logger *zap.Logger) *FileSaver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSaver{
		Dir:        dir,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
		Logger:     logger.Named("sink"),
	}
}

// Save resolves image to bytes and writes them to Dir/filename.
func (s *FileSaver) Save(ctx context.Context, image string, filename string) (string, error) {
	data, err := s.resolve(ctx, image)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("sink: image %s is empty", filename)
	}

	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export dir %s: %w", dir, err)
	}

	filePath := filepath.Join(dir, filepath.Base(filename))
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		s.Logger.Error("Failed to save image to file", zap.String("path", filePath), zap.Error(err))
		return "", fmt.Errorf("failed to write %s: %w", filePath, err)
	}
	s.Logger.Info("Image saved to file", zap.String("path", filePath), zap.Int("size_bytes", len(data)))
	return filePath, nil
}

func (s *FileSaver) resolve(ctx context.Context, image string) ([]byte, error) {
	switch {
	case strings.HasPrefix(image, "data:"):
		return decodeDataURL(image)
	case strings.HasPrefix(image, "http://"), strings.HasPrefix(image, "https://"):
		return s.fetch(ctx, image)
	default:
		return nil, ErrUnsupportedImage
	}
}

// decodeDataURL accepts data:[<mediatype>][;base64],<data>.
func decodeDataURL(ref string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("sink: malformed data URL")
	}
	if !strings.HasSuffix(meta, ";base64") {
		return []byte(payload), nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// some services drop the padding
		if data, rawErr := base64.RawStdEncoding.DecodeString(payload); rawErr == nil {
			return data, nil
		}
		return nil, fmt.Errorf("sink: invalid base64 image data: %w", err)
	}
	return data, nil
}

func (s *FileSaver) fetch(ctx context.Context, url string) ([]byte, error) {
	client := s.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image body: %w", err)
	}
	return data, nil
}
