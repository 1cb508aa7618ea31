package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/cardlink/internal/linker"
)

func newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the default linked note type in the host",
		RunE: func(cmd *cobra.Command, args []string) error {
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
			modelID, err := registry.CreateDefaultModel(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("Created note type %q (id %d)\n", linker.DefaultModelName, modelID)
			return nil
		},
	}
}
