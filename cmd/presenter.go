package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/nerdneilsfield/imagegen-studio/internal/storage"
	"github.com/nerdneilsfield/imagegen-studio/internal/studio"
)

// palette is the ANSI styling of one theme.
type palette struct {
	accent string
	ok     string
	err    string
	dim    string
}

const ansiReset = "\033[0m"

var palettes = map[storage.Theme]palette{
	storage.ThemeDark: {
		accent: "\033[96m",
		ok:     "\033[92m",
		err:    "\033[91m",
		dim:    "\033[37m",
	},
	storage.ThemeLight: {
		accent: "\033[34m",
		ok:     "\033[32m",
		err:    "\033[31m",
		dim:    "\033[90m",
	},
}

// presenter renders orchestrator snapshots as console lines.
type presenter struct {
	out  io.Writer
	tr   studio.Translator
	lang string

	mu    sync.Mutex
	theme storage.Theme
	color bool
	prev  []studio.SlotStatus
}

func newPresenter(out io.Writer, tr studio.Translator, lang string, theme storage.Theme) *presenter {
	return &presenter{out: out, tr: tr, lang: lang, theme: theme, color: isTerminal(out)}
}

// ApplyTheme switches the palette used for later output.
func (p *presenter) ApplyTheme(theme storage.Theme) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.theme = theme
}

func (p *presenter) Theme() storage.Theme {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.theme
}

func (p *presenter) t(key string, args ...interface{}) string {
	return p.tr.T(&p.lang, key, args...)
}

func (p *presenter) line(color func(palette) string, text string) {
	if !p.color {
		fmt.Fprintln(p.out, text)
		return
	}
	fmt.Fprintln(p.out, color(palettes[p.theme])+text+ansiReset)
}

func (p *presenter) OnStateChange(s studio.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	accent := func(c palette) string { return c.accent }
	ok := func(c palette) string { return c.ok }
	bad := func(c palette) string { return c.err }
	dim := func(c palette) string { return c.dim }

	switch s.Phase {
	case studio.PhaseValidating:
		p.prev = nil
		p.line(dim, p.t("status_validating"))

	case studio.PhaseDispatching:
		if p.prev == nil {
			p.prev = make([]studio.SlotStatus, len(s.Slots))
			p.line(accent, p.t("status_generating", s.Count, "count", s.Count))
			return
		}
		done := 0
		for _, slot := range s.Slots {
			if slot.Status != studio.SlotPending {
				done++
			}
		}
		for _, slot := range s.Slots {
			if slot.Index >= len(p.prev) || p.prev[slot.Index] == slot.Status {
				continue
			}
			p.prev[slot.Index] = slot.Status
			args := []interface{}{"slot", slot.Index + 1, "done", done, "total", s.Count}
			if slot.Status == studio.SlotFailed {
				p.line(bad, p.t("status_slot_failed", args...))
			} else {
				p.line(dim, p.t("status_slot_loaded", args...))
			}
		}

	case studio.PhaseSettled:
		p.prev = nil
		if s.Outcome == studio.OutcomeFailure {
			p.line(bad, p.t("status_failure", "message", s.Message))
			return
		}
		if len(s.Results) == 0 {
			p.line(dim, p.t("preview_empty"))
			return
		}
		p.line(ok, p.t("status_success", len(s.Results), "count", len(s.Results), "prompt", s.Results[0].Prompt))
		for i, r := range s.Results {
			fmt.Fprintf(p.out, "  [%d] %s\n", i, shortRef(r.Image))
		}
	}
}

// shortRef keeps data: URLs readable on a terminal.
func shortRef(image string) string {
	if !strings.HasPrefix(image, "data:") {
		return image
	}
	meta, payload, _ := strings.Cut(image, ",")
	return fmt.Sprintf("%s,... (%d bytes)", meta, len(payload))
}

// isTerminal reports whether out is an interactive terminal worth coloring.
func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
