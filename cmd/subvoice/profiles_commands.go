package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"subvoice/internal/logging"
	"subvoice/internal/profiles"
)

func newProfilesCommand(ctx *commandContext) *cobra.Command {
	profilesCmd := &cobra.Command{
		Use:   "profiles",
		Short: "Manage enrolled speaker profiles",
	}
	profilesCmd.AddCommand(newProfilesListCommand(ctx))
	profilesCmd.AddCommand(newProfilesRemoveCommand(ctx))
	return profilesCmd
}

type profileView struct {
	Name           string `json:"name"`
	DisplayName    string `json:"display_name"`
	Avatar         string `json:"avatar,omitempty"`
	Color          string `json:"color,omitempty"`
	EmbeddingBytes int    `json:"embedding_bytes"`
}

func newProfilesListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List enrolled speakers",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openProfileStore(ctx)
			if err != nil {
				return err
			}
			snapshot, err := store.Load()
			if err != nil {
				return err
			}

			views := make([]profileView, 0, len(snapshot))
			for _, entry := range snapshot.Entries() {
				views = append(views, profileView{
					Name:           entry.Name,
					DisplayName:    entry.Style.DisplayName,
					Avatar:         entry.Style.Avatar,
					Color:          entry.Style.ColorTag,
					EmbeddingBytes: len(entry.Embedding),
				})
			}
			if asJSON {
				return writeJSON(cmd, views)
			}

			out := cmd.OutOrStdout()
			if len(views) == 0 {
				fmt.Fprintf(out, "No speakers enrolled (store: %s)\n", store.Path())
				return nil
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				rows = append(rows, []string{v.Name, v.DisplayName, v.Avatar, v.Color, fmt.Sprintf("%d", v.EmbeddingBytes)})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Name", "Display name", "Avatar", "Color", "Voiceprint bytes"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newProfilesRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove an enrolled speaker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openProfileStore(ctx)
			if err != nil {
				return err
			}
			if err := store.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}
}

func openProfileStore(ctx *commandContext) (*profiles.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		logger = logging.NewNop()
	}
	return profiles.NewStore(cfg.Paths.ProfileStore, logger), nil
}
