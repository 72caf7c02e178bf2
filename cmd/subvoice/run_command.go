package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"subvoice/internal/config"
	"subvoice/internal/pipeline"
	"subvoice/internal/recognition"
	"subvoice/internal/services"
	"subvoice/internal/transcript"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		mode           string
		target         string
		noTranslate    bool
		transcriptPath string
		render         bool
		renderOpts     renderFlags
	)

	cmd := &cobra.Command{
		Use:   "run <media>",
		Short: "Identify speakers, transcribe and translate a media file",
		Long: "Run extracts the audio of <media>, labels its speakers with the recognition service,\n" +
			"transcribes every speaker turn and translates the transcript. The result is saved as\n" +
			"run state so `subvoice render` can burn captions without repeating the analysis.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			translate := cfg.Translation.Enabled && !noTranslate
			if err := requireRunCredentials(cfg, translate); err != nil {
				return err
			}
			mediaPath, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}

			runner, err := ctx.newRunner()
			if err != nil {
				return err
			}
			kind, err := resolveMode(mode, runner)
			if err != nil {
				return err
			}

			errOut := cmd.ErrOrStderr()
			if shouldColorize(errOut) {
				runner.Poll.OnStatus = jobProgressPrinter(errOut, string(kind)+" job", true)
			}

			result, err := runner.Run(cmd.Context(), pipeline.Request{
				MediaPath:      mediaPath,
				Mode:           kind,
				TargetLanguage: target,
				Translate:      translate,
			})
			if err != nil {
				return err
			}
			statePath, err := pipeline.SaveState(cfg.Paths.WorkDir, result)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printRunSummary(out, result)
			fmt.Fprintf(out, "State saved to %s\n", statePath)

			if transcriptPath != "" {
				if err := transcript.SaveJSON(transcriptPath, result.Entries); err != nil {
					return err
				}
				fmt.Fprintf(out, "Transcript written to %s\n", transcriptPath)
			}

			if render {
				rendered, err := runner.Render(cmd.Context(), result, renderOpts.request(cfg, mediaPath))
				if err != nil {
					return err
				}
				printRenderResult(out, rendered)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "auto", "Speaker analysis: identify, diarize, or auto (identify when speakers are enrolled)")
	cmd.Flags().StringVar(&target, "target", "", "Target language for translation (defaults to translation.target_language)")
	cmd.Flags().BoolVar(&noTranslate, "no-translate", false, "Skip translation")
	cmd.Flags().StringVar(&transcriptPath, "transcript", "", "Also write the transcript JSON to this path")
	cmd.Flags().BoolVar(&render, "render", false, "Burn captions into the video after analysis")
	renderOpts.register(cmd)
	return cmd
}

func requireRunCredentials(cfg *config.Config, translate bool) error {
	if err := cfg.RequireRecognition(); err != nil {
		return err
	}
	if err := cfg.RequireTranscription(); err != nil {
		return err
	}
	if translate {
		return cfg.RequireTranslation()
	}
	return nil
}

func resolveMode(mode string, runner *pipeline.Runner) (recognition.JobKind, error) {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" || mode == "auto" {
		snapshot, err := runner.Store.Load()
		if err != nil {
			return "", err
		}
		if len(snapshot) > 0 {
			return recognition.KindIdentify, nil
		}
		return recognition.KindDiarize, nil
	}
	kind, ok := recognition.ParseJobKind(mode)
	if !ok || kind == recognition.KindVoiceprint {
		return "", fmt.Errorf("%w: invalid --mode %q (want identify, diarize or auto)", services.ErrValidation, mode)
	}
	return kind, nil
}

func printRunSummary(out io.Writer, result pipeline.Result) {
	fmt.Fprintf(out, "Run %s (%s, job %s)\n", result.RunID, result.Mode, result.JobID)

	type speakerTotals struct {
		entries int
		seconds float64
	}
	totals := make(map[string]*speakerTotals)
	for _, entry := range result.Entries {
		t, ok := totals[entry.Speaker]
		if !ok {
			t = &speakerTotals{}
			totals[entry.Speaker] = t
		}
		t.entries++
		t.seconds += entry.Duration()
	}
	rows := make([][]string, 0, len(totals))
	for _, speaker := range transcript.Speakers(result.Entries) {
		t := totals[speaker]
		rows = append(rows, []string{speaker, fmt.Sprintf("%d", t.entries), fmt.Sprintf("%.1f", t.seconds)})
	}
	fmt.Fprintln(out, renderTable([]string{"Speaker", "Entries", "Seconds"}, rows, []columnAlignment{alignLeft, alignRight, alignRight}))

	ts := result.Stats.Transcription
	fmt.Fprintf(out, "Segments: %d, transcribed: %d, empty: %d, failed: %d, degenerate: %d\n",
		ts.Segments, ts.Transcribed, ts.Empty, ts.Failed, ts.Degenerate)
	if result.TargetLanguage != "" {
		tr := result.Stats.Translation
		fmt.Fprintf(out, "Translated to %s: %d ok, %d fallback\n", result.TargetLanguage, tr.Translated, tr.Failed)
	}
}
