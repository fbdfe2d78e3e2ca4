package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nerdneilsfield/imagegen-studio/internal/studio"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newStudioCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "studio",
		Short:        "Start the interactive studio",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(root, cmd.OutOrStdout(), func(a *app) error {
				a.println(a.t("studio_welcome"))
				scanner := bufio.NewScanner(cmd.InOrStdin())
				scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
				for {
					fmt.Fprint(a.out, "> ")
					if !scanner.Scan() {
						break
					}
					if quit := a.handleLine(cmd.Context(), scanner.Text()); quit {
						break
					}
				}
				a.println(a.t("studio_bye"))
				return scanner.Err()
			})
		},
	}
}

// handleLine runs one studio input line and reports whether to leave.
// Errors are shown to the user and never end the session.
func (a *app) handleLine(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		a.generate(ctx, line, 1)
		return false
	}

	command, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch command {
	case "/quit", "/exit":
		return true
	case "/help":
		a.println(a.t("studio_help"))
	case "/batch":
		countArg, prompt, _ := strings.Cut(rest, " ")
		count, err := strconv.Atoi(countArg)
		if err != nil {
			a.println(a.t("error_invalid_count", "max", a.orch.MaxCount()))
			return false
		}
		a.generate(ctx, prompt, count)
	case "/regen":
		if _, err := a.orch.Regenerate(ctx); errors.Is(err, studio.ErrBusy) {
			a.println(a.t("error_busy"))
		}
	case "/copy":
		copied, err := a.orch.CopyLastPrompt(a.clipboard)
		switch {
		case err != nil:
			a.println(a.t("status_failure", "message", err.Error()))
		case copied:
			a.println(a.t("copy_done"))
		default:
			a.println(a.t("copy_none"))
		}
	case "/export":
		a.export(ctx, rest)
	case "/history":
		a.printHistory(a.store.History())
	case "/clear":
		if err := a.clearHistory(); err != nil {
			a.println(a.t("status_failure", "message", err.Error()))
		}
	case "/theme":
		if rest == "" {
			a.println(a.t("theme_current", "theme", string(a.store.Theme())))
			return false
		}
		if err := a.setTheme(rest); err != nil {
			var reported *reportedError
			if !errors.As(err, &reported) {
				a.println(a.t("status_failure", "message", err.Error()))
			}
		}
	default:
		a.println(a.t("studio_unknown_command", "command", command))
	}
	return false
}

func (a *app) generate(ctx context.Context, prompt string, count int) {
	if _, err := a.submit(ctx, prompt, studio.Overrides{}, count); err != nil {
		if errors.Is(err, studio.ErrBusy) {
			a.println(a.t("error_busy"))
			return
		}
		a.logger.Debug("Generation failed", zap.Error(err))
	}
}

func (a *app) export(ctx context.Context, arg string) {
	if arg == "" {
		if err := a.exportAll(ctx); err != nil {
			a.println(a.t("status_failure", "message", err.Error()))
		}
		return
	}

	slot, err := strconv.Atoi(arg)
	if err != nil {
		a.println(a.t("status_failure", "message", fmt.Sprintf("invalid slot %q", arg)))
		return
	}
	path, err := a.orch.ExportCurrent(ctx, a.saver, slot)
	switch {
	case errors.Is(err, studio.ErrNothingToExport):
		a.println(a.t("export_none"))
	case err != nil:
		a.println(a.t("status_failure", "message", err.Error()))
	default:
		a.println(a.t("export_done", "path", path))
	}
}
