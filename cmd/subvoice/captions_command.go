package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"subvoice/internal/captions"
	"subvoice/internal/config"
	"subvoice/internal/pipeline"
	"subvoice/internal/transcript"
)

func newCaptionsCommand(ctx *commandContext) *cobra.Command {
	var (
		output   string
		original bool
	)

	cmd := &cobra.Command{
		Use:   "captions <transcript.json|state.json>",
		Short: "Write an SRT file from a transcript or run state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			input, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			entries, err := loadEntries(input)
			if err != nil {
				return err
			}

			field := captions.Translated
			if original || cfg.Captions.UseOriginalText {
				field = captions.Original
			}
			engine := pipeline.EngineFromConfig(cfg, pipeline.PolicyFromConfig(cfg))
			cues := engine.Build(entries, field)
			if len(cues) == 0 {
				return fmt.Errorf("no captionable entries in %s", input)
			}

			errOut := cmd.ErrOrStderr()
			colorize := shouldColorize(errOut)
			for _, issue := range captions.Validate(cues) {
				fmt.Fprintln(errOut, renderStatusLine("Caption check", statusWarn, issue, colorize))
			}

			if output == "" {
				output = strings.TrimSuffix(input, filepath.Ext(input)) + ".srt"
			} else if output, err = config.ExpandPath(output); err != nil {
				return err
			}
			if err := captions.WriteFile(output, cues); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d captions to %s\n", len(cues), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "SRT destination (defaults to the input path with .srt)")
	cmd.Flags().BoolVar(&original, "original", false, "Caption the original text instead of the translation")
	return cmd
}

// loadEntries accepts either a transcript JSON array or a saved run state.
func loadEntries(path string) ([]transcript.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
		entries, err := transcript.ReadJSON(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		if err := transcript.Validate(entries); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return entries, nil
	}
	result, err := pipeline.LoadState(path)
	if err != nil {
		return nil, err
	}
	return result.Entries, nil
}
