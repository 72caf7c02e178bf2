package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"subvoice/internal/config"
	"subvoice/internal/pipeline"
)

// renderFlags are shared by `run --render` and `render`.
type renderFlags struct {
	video    string
	output   string
	original bool
	keepSRT  bool
}

func (f *renderFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.video, "video", "", "Video to burn captions into (defaults to the analysed media)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Rendered video path (defaults to <video>_subtitled.<ext>)")
	cmd.Flags().BoolVar(&f.original, "original", false, "Caption the original text instead of the translation")
	cmd.Flags().BoolVar(&f.keepSRT, "keep-srt", false, "Keep the SRT file next to the rendered video")
}

func (f *renderFlags) request(cfg *config.Config, fallbackVideo string) pipeline.RenderRequest {
	video := strings.TrimSpace(f.video)
	if video == "" {
		video = fallbackVideo
	}
	return pipeline.RenderRequest{
		VideoPath:   video,
		UseOriginal: f.original || cfg.Captions.UseOriginalText,
		OutputPath:  strings.TrimSpace(f.output),
		KeepSRT:     f.keepSRT,
	}
}

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "render [state]",
		Short: "Burn captions from a saved run into its video",
		Long:  "Render re-uses the state of a previous run (the latest one by default) and burns its captions into the video.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			result, _, err := loadRunState(cfg, args)
			if err != nil {
				return err
			}
			runner, err := ctx.newRunner()
			if err != nil {
				return err
			}
			if flags.video != "" {
				if flags.video, err = config.ExpandPath(flags.video); err != nil {
					return err
				}
			}
			rendered, err := runner.Render(cmd.Context(), result, flags.request(cfg, result.MediaPath))
			if err != nil {
				return err
			}
			printRenderResult(cmd.OutOrStdout(), rendered)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

// loadRunState reads the state named by args[0], or the latest run.
func loadRunState(cfg *config.Config, args []string) (pipeline.Result, string, error) {
	path := pipeline.LatestStatePath(cfg.Paths.WorkDir)
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		expanded, err := config.ExpandPath(args[0])
		if err != nil {
			return pipeline.Result{}, "", err
		}
		path = expanded
	}
	result, err := pipeline.LoadState(path)
	if err != nil {
		return pipeline.Result{}, path, fmt.Errorf("load run state (run `subvoice run` first): %w", err)
	}
	return result, path, nil
}

func printRenderResult(out io.Writer, rendered pipeline.RenderResult) {
	fmt.Fprintf(out, "Rendered %d captions into %s\n", rendered.Cues, rendered.OutputPath)
	if rendered.SRTPath != "" {
		fmt.Fprintf(out, "Captions kept at %s\n", rendered.SRTPath)
	}
}
