package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/cardlink/internal/export"
)

func newExportCommand() *cobra.Command {
	var query string
	var templatePath string

	command := &cobra.Command{
		Use:   "export [path]",
		Short: "Write a report of linked notes as markdown, yaml or pdf",
		Args:  cobra.MaximumNArgs(1),
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

			path := filepath.Join(cfg.Export.Directory, "links.md")
			if len(args) == 1 {
				path = args[0]
			}
			if dir := filepath.Dir(path); dir != "." {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return fmt.Errorf("os.MkdirAll(%s) > %w", dir, err)
				}
			}

			exporter := export.NewExporter(backend.store, newReconciler(cfg, backend))
			report, err := exporter.BuildReport(cmd.Context(), query)
			if err != nil {
				return err
			}
			if err := export.WriteFile(path, templatePath, report); err != nil {
				return err
			}

			fmt.Printf("Wrote %d linked notes to %s\n", len(report.Notes), path)
			return nil
		},
	}
	command.Flags().StringVar(&query, "query", "", "restrict the report to notes matching this search")
	command.Flags().StringVar(&templatePath, "template", "", "override the markdown template")

	return command
}
