package studio

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ImageSaver writes an opaque image reference to durable storage under
// filename and returns where it went.
type ImageSaver interface {
	Save(ctx context.Context, image string, filename string) (string, error)
}

type Clipboard interface {
	WriteText(text string) error
}

// ExportFilename is ai-image-<unix ms>.png, with a -<slot> suffix for batches.
func ExportFilename(now time.Time, slot, count int) string {
	if count > 1 {
		return fmt.Sprintf("ai-image-%d-%d.png", now.UnixMilli(), slot)
	}
	return fmt.Sprintf("ai-image-%d.png", now.UnixMilli())
}

// ExportCurrent hands the image in slot of the current results to saver.
func (o *Orchestrator) ExportCurrent(ctx context.Context, saver ImageSaver, slot int) (string, error) {
	current := o.Current()
	if len(current) == 0 {
		return "", ErrNothingToExport
	}
	if slot < 0 || slot >= len(current) {
		return "", fmt.Errorf("studio: slot %d out of range, have %d images", slot, len(current))
	}

	filename := ExportFilename(o.opts.Now(), slot, len(current))
	path, err := saver.Save(ctx, current[slot].Image, filename)
	if err != nil {
		o.logger.Error("Export failed", zap.String("filename", filename), zap.Error(err))
		return "", fmt.Errorf("failed to export image: %w", err)
	}
	o.logger.Info("Exported image", zap.String("path", path), zap.Int("slot", slot))
	return path, nil
}

// CopyLastPrompt hands the last successful prompt to cb. It reports false
// without touching cb when nothing has succeeded yet.
func (o *Orchestrator) CopyLastPrompt(cb Clipboard) (bool, error) {
	prompt, ok := o.LastPrompt()
	if !ok {
		return false, nil
	}
	if err := cb.WriteText(prompt); err != nil {
		o.logger.Error("Copy failed", zap.Error(err))
		return false, fmt.Errorf("failed to copy prompt: %w", err)
	}
	return true, nil
}
