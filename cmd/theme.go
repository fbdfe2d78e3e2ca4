package cmd

import (
	"github.com/nerdneilsfield/imagegen-studio/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newThemeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "theme [dark|light]",
		Short:        "Show or change the display theme",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(root, cmd.OutOrStdout(), func(a *app) error {
				if len(args) == 0 {
					a.println(a.t("theme_current", "theme", string(a.store.Theme())))
					return nil
				}
				return a.setTheme(args[0])
			})
		},
	}
}

func (a *app) setTheme(name string) error {
	theme, err := storage.ParseTheme(name)
	if err != nil {
		a.println(a.t("theme_invalid"))
		return &reportedError{err: err}
	}
	if err := a.store.SetTheme(theme); err != nil {
		// the session already switched, only the write was lost
		a.logger.Warn("Theme not persisted", zap.Error(err))
	}
	a.println(a.t("theme_current", "theme", string(a.presenter.Theme())))
	return nil
}
