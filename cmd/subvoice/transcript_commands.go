package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"subvoice/internal/captions"
	"subvoice/internal/config"
	"subvoice/internal/logging"
	"subvoice/internal/pipeline"
	"subvoice/internal/profiles"
	"subvoice/internal/services"
	"subvoice/internal/transcript"
)

func newTranscriptCommand(ctx *commandContext) *cobra.Command {
	transcriptCmd := &cobra.Command{
		Use:   "transcript",
		Short: "Inspect and export the transcript of a saved run",
	}
	transcriptCmd.AddCommand(newTranscriptShowCommand(ctx))
	transcriptCmd.AddCommand(newTranscriptExportCommand(ctx))
	return transcriptCmd
}

func newTranscriptShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show [state]",
		Short: "Print the transcript as a table",
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
			snapshot, err := profiles.NewStore(cfg.Paths.ProfileStore, logging.NewNop()).Load()
			if err != nil {
				return err
			}
			policy := pipeline.PolicyFromConfig(cfg)

			translated := false
			for _, entry := range result.Entries {
				translated = translated || entry.Translated()
			}
			headers := []string{"Start", "End", "Speaker", "Text"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignWrap}
			if translated {
				headers = append(headers, "Translation")
				aligns = append(aligns, alignWrap)
			}
			rows := make([][]string, 0, len(result.Entries))
			for _, entry := range result.Entries {
				style := policy.StyleFor(entry.Speaker, snapshot)
				speaker := strings.TrimSpace(style.Avatar + " " + style.DisplayName)
				row := []string{
					captions.FormatTimestamp(entry.Start),
					captions.FormatTimestamp(entry.End),
					speaker,
					entry.Text,
				}
				if translated {
					row = append(row, entry.Translation())
				}
				rows = append(rows, row)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, aligns))
			return nil
		},
	}
}

func newTranscriptExportCommand(ctx *commandContext) *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export [state]",
		Short: "Export the transcript as JSON or CSV",
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

			var write func(io.Writer, []transcript.Entry) error
			switch strings.ToLower(strings.TrimSpace(format)) {
			case "json":
				write = transcript.WriteJSON
			case "csv":
				write = transcript.WriteCSV
			default:
				return fmt.Errorf("%w: invalid --format %q (want json or csv)", services.ErrValidation, format)
			}

			if output == "" || output == "-" {
				return write(cmd.OutOrStdout(), result.Entries)
			}
			if output, err = config.ExpandPath(output); err != nil {
				return err
			}
			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if err := write(file, result.Entries); err != nil {
				file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d entries to %s\n", len(result.Entries), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "Export format: json or csv")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "Destination file, or - for stdout")
	return cmd
}
