package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/cardlink/internal/cli"
)

func newLinksCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "links <note-id>",
		Short: "Edit the linked cards of a note interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			noteID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid note id %q: %w", args[0], err)
			}

			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			backend, err := newHostBackend(cfg)
			if err != nil {
				return err
			}
			defer func() {
				_ = backend.close()
			}()

			registry := newRegistry(cfg, backend.store)
			dialog, err := cli.NewLinkDialogCLI(
				cmd.Context(),
				backend.store,
				registry,
				noteID,
				cfg.Link.SearchLimit,
				nil,
				nil,
			)
			if err != nil {
				return err
			}
			return dialog.Run(cmd.Context(), dialog)
		},
	}
}
