package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/cardlink/internal/linker"
	"github.com/at-ishikawa/cardlink/internal/review"
)

func newRenderCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "render <note-id>",
		Short: "Print the linked-cards HTML block for a note's answer side",
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

			renderer, err := review.NewRenderer(cfg.Review.TemplatePath, cfg.Review.BridgeFunction)
			if err != nil {
				return err
			}
			fields := linker.NewFieldStore(backend.store, cfg.Link.FieldName)
			reconciler := review.NewReconciler(
				backend.store,
				fields,
				cfg.Review.RolloverHour,
				backend.cutoffs,
				renderer,
			)

			html := reconciler.RenderAnswer(cmd.Context(), "", noteID, review.ContextReviewAnswer)
			fmt.Println(html)
			return nil
		},
	}
}
