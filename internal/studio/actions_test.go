package studio

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSaver struct {
	images    []string
	filenames []string
	err       error
}

func (r *recordingSaver) Save(_ context.Context, image, filename string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	r.images = append(r.images, image)
	r.filenames = append(r.filenames, filename)
	return "/exports/" + filename, nil
}

type recordingClipboard struct {
	texts []string
	err   error
}

func (r *recordingClipboard) WriteText(text string) error {
	if r.err != nil {
		return r.err
	}
	r.texts = append(r.texts, text)
	return nil
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "ai-image-1791970200000.png", ExportFilename(fixedNow, 0, 1))
	assert.Equal(t, "ai-image-1791970200000-2.png", ExportFilename(fixedNow, 2, 4))
}

func TestExportWithoutResults(t *testing.T) {
	h := newHarness(t, echo, Options{})
	saver := &recordingSaver{}

	_, err := h.orch.ExportCurrent(context.Background(), saver, 0)
	assert.ErrorIs(t, err, ErrNothingToExport)
	assert.Empty(t, saver.images)
}

func TestExportCurrent(t *testing.T) {
	h := newHarness(t, echo, Options{})
	_, err := h.orch.Generate(context.Background(), mustBuild(t, "fox", Overrides{}), 2)
	require.NoError(t, err)

	saver := &recordingSaver{}
	path, err := h.orch.ExportCurrent(context.Background(), saver, 1)
	require.NoError(t, err)
	assert.Equal(t, "/exports/ai-image-1791970200000-1.png", path)
	assert.Equal(t, []string{"data:image/png;base64,slot-1"}, saver.images)

	_, err = h.orch.ExportCurrent(context.Background(), saver, 2)
	assert.Error(t, err)

	saver.err = errors.New("disk full")
	_, err = h.orch.ExportCurrent(context.Background(), saver, 0)
	assert.ErrorContains(t, err, "disk full")
}

func TestCopyLastPrompt(t *testing.T) {
	h := newHarness(t, echo, Options{})
	cb := &recordingClipboard{}

	copied, err := h.orch.CopyLastPrompt(cb)
	require.NoError(t, err)
	assert.False(t, copied)
	assert.Empty(t, cb.texts)

	_, err = h.orch.Generate(context.Background(), mustBuild(t, "  a red fox in snow ", Overrides{}), 1)
	require.NoError(t, err)

	copied, err = h.orch.CopyLastPrompt(cb)
	require.NoError(t, err)
	assert.True(t, copied)
	assert.Equal(t, []string{"a red fox in snow"}, cb.texts)

	cb.err = errors.New("no display")
	copied, err = h.orch.CopyLastPrompt(cb)
	assert.Error(t, err)
	assert.False(t, copied)
}
