package sink

import (
	"fmt"
	"io"

	"github.com/atotto/clipboard"
)

// SystemClipboard writes to the desktop clipboard.
type SystemClipboard struct{}

func (SystemClipboard) WriteText(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("sink: no clipboard utility available")
	}
	return clipboard.WriteAll(text)
}

// WriterClipboard prints the text instead, for headless sessions.
type WriterClipboard struct {
	W io.Writer
}

func (c WriterClipboard) WriteText(text string) error {
	_, err := fmt.Fprintln(c.W, text)
	return err
}

// Available reports whether SystemClipboard can work on this machine.
func Available() bool {
	return !clipboard.Unsupported
}
