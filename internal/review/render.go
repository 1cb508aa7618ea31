package review

import (
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ContextReviewAnswer is the render context in which the linked-cards block
// is appended. Question sides and editor previews are left untouched.
const ContextReviewAnswer = "reviewAnswer"

//go:embed templates/linked-cards.html.go.tmpl
var fallbackLinkedCardsTemplate string

// Renderer turns a review payload into the HTML block appended below the
// answer. The template can be overridden from disk; the embedded one is the
// fallback.
type Renderer struct {
	tmpl   *template.Template
	bridge string
}

// NewRenderer parses the linked-cards template. bridge is the name of the
// host's JavaScript bridge function the rendered items call on click.
func NewRenderer(templatePath string, bridge string) (*Renderer, error) {
	tmpl, err := parseTemplateWithFallback(templatePath, fallbackLinkedCardsTemplate)
	if err != nil {
		return nil, fmt.Errorf("parseTemplateWithFallback() > %w", err)
	}
	return &Renderer{tmpl: tmpl, bridge: bridge}, nil
}

type renderItem struct {
	Title   string
	Deck    string
	Command string
	Icon    string
	Label   string
}

type renderData struct {
	Bridge template.JS
	Items  []renderItem
}

// Render produces the HTML block for a non-empty payload.
func (r *Renderer) Render(items []DisplayItem) (string, error) {
	data := renderData{
		// The bridge name comes from configuration, not card content.
		Bridge: template.JS(r.bridge),
		Items:  make([]renderItem, 0, len(items)),
	}
	for _, item := range items {
		data.Items = append(data.Items, renderItem{
			Title:   item.Title,
			Deck:    item.Deck,
			Command: item.Command,
			Icon:    statusIcon(item.Status),
			Label:   statusLabel(item.Status),
		})
	}

	var buf strings.Builder
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("tmpl.Execute() > %w", err)
	}
	return buf.String(), nil
}

func statusIcon(status Status) string {
	switch status {
	case StatusReviewed:
		return "✅"
	case StatusPending:
		return "⏳"
	case StatusDeleted:
		return "❌"
	default:
		return "⚠️"
	}
}

func statusLabel(status Status) string {
	switch status {
	case StatusReviewed:
		return "reviewed today"
	case StatusPending:
		return "not reviewed yet"
	case StatusDeleted:
		return "deleted"
	default:
		return "failed to load"
	}
}

// RenderAnswer appends the linked-cards block to the answer HTML. It never
// fails: any fault while building or rendering the payload logs a warning
// and returns the answer unchanged, so a bad link set can never take a card
// down with it.
func (r *Reconciler) RenderAnswer(ctx context.Context, answerHTML string, noteID int64, renderContext string) (result string) {
	if renderContext != ContextReviewAnswer || r.renderer == nil {
		return answerHTML
	}
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("panic while rendering linked cards",
				slog.Int64("noteID", noteID),
				slog.Any("panic", rec),
			)
			result = answerHTML
		}
	}()

	note, err := r.store.Note(ctx, noteID)
	if err != nil {
		slog.Warn("failed to load the note under review",
			slog.Int64("noteID", noteID),
			slog.Any("error", err),
		)
		return answerHTML
	}

	items := r.BuildReviewPayload(ctx, note)
	if len(items) == 0 {
		return answerHTML
	}

	block, err := r.renderer.Render(items)
	if err != nil {
		slog.Warn("failed to render linked cards",
			slog.Int64("noteID", noteID),
			slog.Any("error", err),
		)
		return answerHTML
	}
	return answerHTML + "\n" + block
}

func parseTemplateWithFallback(templatePath string, fallbackTemplate string) (*template.Template, error) {
	if templatePath != "" {
		if _, err := os.Stat(templatePath); err == nil {
			fileName := filepath.Base(templatePath)
			tmpl, err := template.New(fileName).ParseFiles(templatePath)
			if err == nil {
				return tmpl, nil
			}
			slog.Default().Warn("failed to parse a templatePath",
				slog.String("templatePath", templatePath),
				slog.Any("error", err),
			)
		}
	}

	fileName := "linked-cards.html.go.tmpl"
	tmpl, err := template.New(fileName).Parse(fallbackTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded template: %w", err)
	}
	return tmpl, nil
}
