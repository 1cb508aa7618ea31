// Package export builds link reports from the card store and writes them as
// markdown, YAML or PDF files.
package export

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/at-ishikawa/cardlink/internal/hoststore"
	"github.com/at-ishikawa/cardlink/internal/review"
)

// Report is one export of all linked notes at a point in time.
type Report struct {
	GeneratedAt time.Time    `yaml:"generated_at"`
	Notes       []NoteReport `yaml:"notes"`
}

// NoteReport is one note that carries links.
type NoteReport struct {
	NoteID int64        `yaml:"note_id"`
	Title  string       `yaml:"title"`
	Links  []LinkReport `yaml:"links"`
}

// LinkReport is one link of a note with its current classification.
type LinkReport struct {
	Title  string `yaml:"title"`
	Deck   string `yaml:"deck"`
	Status string `yaml:"status"`
}

// Exporter collects linked notes into a Report.
type Exporter struct {
	store      hoststore.Store
	reconciler *review.Reconciler
	now        func() time.Time
}

func NewExporter(store hoststore.Store, reconciler *review.Reconciler) *Exporter {
	return &Exporter{
		store:      store,
		reconciler: reconciler,
		now:        time.Now,
	}
}

// BuildReport finds every note matching the query and collects the ones
// carrying at least one link, classified the same way the review surface
// classifies them. An empty query matches all notes.
func (e *Exporter) BuildReport(ctx context.Context, query string) (*Report, error) {
	noteIDs, err := e.store.FindNotes(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store.FindNotes() > %w", err)
	}

	report := &Report{GeneratedAt: e.now()}
	for _, noteID := range noteIDs {
		note, err := e.store.Note(ctx, noteID)
		if err != nil {
			// Search results can lag the store.
			continue
		}
		items := e.reconciler.BuildReviewPayload(ctx, note)
		if len(items) == 0 {
			continue
		}

		noteReport := NoteReport{
			NoteID: noteID,
			Title:  note.FirstField(),
		}
		for _, item := range items {
			noteReport.Links = append(noteReport.Links, LinkReport{
				Title:  item.Title,
				Deck:   item.Deck,
				Status: string(item.Status),
			})
		}
		report.Notes = append(report.Notes, noteReport)
	}
	return report, nil
}

// WriteFile writes the report to path, picking the format from the file
// extension: .md, .yaml or .yml, and .pdf.
func WriteFile(path string, templatePath string, report *Report) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md":
		return writeMarkdownFile(path, templatePath, report)
	case ".yaml", ".yml":
		return WriteYamlFile(path, report)
	case ".pdf":
		markdownPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".md"
		if err := writeMarkdownFile(markdownPath, templatePath, report); err != nil {
			return err
		}
		if err := ConvertMarkdownToPDF(markdownPath, path); err != nil {
			return fmt.Errorf("ConvertMarkdownToPDF() > %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported export format: %s", path)
	}
}
