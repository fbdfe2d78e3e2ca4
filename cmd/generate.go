package cmd

import (
	"strings"

	"github.com/nerdneilsfield/imagegen-studio/internal/studio"
	"github.com/spf13/cobra"
)

type generateOptions struct {
	count    int
	width    int
	height   int
	steps    int
	guidance float64
	seed     int
	negative string
	export   bool
}

func newGenerateCmd(root *rootOptions) *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:          "generate <prompt>",
		Short:        "Generate one or more images from a prompt",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(root, cmd.OutOrStdout(), func(a *app) error {
				snap, err := a.submit(cmd.Context(), strings.Join(args, " "), opts.overrides(cmd), opts.count)
				if err != nil {
					if snap.Phase == studio.PhaseSettled {
						return &reportedError{err: err}
					}
					return err
				}
				if opts.export {
					return a.exportAll(cmd.Context())
				}
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.IntVarP(&opts.count, "count", "n", 1, "Number of images to generate")
	f.IntVar(&opts.width, "width", 0, "Image width")
	f.IntVar(&opts.height, "height", 0, "Image height")
	f.IntVar(&opts.steps, "steps", 0, "Inference steps")
	f.Float64Var(&opts.guidance, "guidance", 0, "Guidance scale")
	f.IntVar(&opts.seed, "seed", studio.RandomSeed, "Seed, -1 for random")
	f.StringVar(&opts.negative, "negative", "", "Negative prompt")
	f.BoolVarP(&opts.export, "export", "e", false, "Save the generated images to the export directory")
	return cmd
}

// overrides carries only the flags the user actually set, so everything else
// falls back to the last-used or configured defaults.
func (o *generateOptions) overrides(cmd *cobra.Command) studio.Overrides {
	var ov studio.Overrides
	f := cmd.Flags()
	if f.Changed("width") {
		ov.Width = studio.Ptr(o.width)
	}
	if f.Changed("height") {
		ov.Height = studio.Ptr(o.height)
	}
	if f.Changed("steps") {
		ov.Steps = studio.Ptr(o.steps)
	}
	if f.Changed("guidance") {
		ov.GuidanceScale = studio.Ptr(o.guidance)
	}
	if f.Changed("seed") {
		ov.Seed = studio.Ptr(o.seed)
	}
	if f.Changed("negative") {
		ov.NegativePrompt = studio.Ptr(o.negative)
	}
	return ov
}
