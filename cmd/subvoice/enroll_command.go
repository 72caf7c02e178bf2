package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"subvoice/internal/config"
	"subvoice/internal/enrollment"
	"subvoice/internal/media/audio"
	"subvoice/internal/pipeline"
	"subvoice/internal/profiles"
	"subvoice/internal/recognition"
)

func newEnrollCommand(ctx *commandContext) *cobra.Command {
	var (
		start       float64
		end         float64
		avatar      string
		color       string
		displayName string
	)

	cmd := &cobra.Command{
		Use:   "enroll <name> <media>",
		Short: "Enroll a speaker from a clip of their voice",
		Long: "Enroll cuts --start..--end seconds from <media>, builds a voiceprint with the\n" +
			"recognition service and stores it under <name>, replacing any previous profile.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireRecognition(); err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			source, err := config.ExpandPath(args[1])
			if err != nil {
				return err
			}

			enroller := &enrollment.Enroller{
				Client:    pipeline.NewRecognitionClient(cfg, logger),
				Store:     profiles.NewStore(cfg.Paths.ProfileStore, logger),
				Extractor: audio.NewExtractor(cfg.FFmpegBinary()),
				Poll: recognition.PollOptions{
					MaxAttempts: cfg.Recognition.VoiceprintPollAttempts,
					Interval:    time.Duration(cfg.Recognition.PollIntervalSeconds) * time.Second,
				},
				WorkDir: cfg.Paths.WorkDir,
				Logger:  logger,
			}
			if errOut := cmd.ErrOrStderr(); shouldColorize(errOut) {
				enroller.Poll.OnStatus = jobProgressPrinter(errOut, "voiceprint job", true)
			}
			result, err := enroller.Enroll(cmd.Context(), enrollment.Request{
				Name:   args[0],
				Source: source,
				Start:  start,
				End:    end,
				Style: profiles.Style{
					Avatar:      avatar,
					DisplayName: displayName,
					ColorTag:    color,
				},
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Enrolled %s from %.2fs-%.2fs (job %s)\n", result.Name, result.Start, result.End, result.JobID)
			return nil
		},
	}

	cmd.Flags().Float64Var(&start, "start", 0, "Sample start in seconds")
	cmd.Flags().Float64Var(&end, "end", 10, "Sample end in seconds")
	cmd.Flags().StringVar(&avatar, "avatar", "", "Avatar shown next to the speaker")
	cmd.Flags().StringVar(&color, "color", "", "Color tag for the speaker")
	cmd.Flags().StringVar(&displayName, "display-name", "", "Display name (defaults to <name>)")
	return cmd
}
