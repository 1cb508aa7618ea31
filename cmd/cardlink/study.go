package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/cardlink/internal/cli"
	"github.com/at-ishikawa/cardlink/internal/navigation"
)

func newStudyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "study",
		Short: "Review due cards with their linked cards in the terminal",
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

			session := cli.NewStudySessionCLI(backend.store, newReconciler(cfg, backend), nil, nil)

			// The ankiconnect backend drives the host's own GUI; the
			// collection backend has none, so the session stands in.
			scheduler := backend.scheduler
			if scheduler == nil {
				scheduler = session
			}
			reviewer := backend.reviewer
			if reviewer == nil {
				reviewer = session
			}
			previews := backend.previews
			if previews == nil {
				previews = session
			}

			controller := navigation.NewController(
				backend.store,
				scheduler,
				reviewer,
				previews,
				cli.NewTerminalPrompter(session.CLI),
				navigation.Options{
					SettleDelay:        time.Duration(cfg.Navigation.PreviewSettleDelayMS) * time.Millisecond,
					AutoSelectAttempts: cfg.Navigation.AutoSelectAttempts,
				},
			)
			session.SetController(controller)

			return session.Run(cmd.Context(), session)
		},
	}
}
