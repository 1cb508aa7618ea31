// Package review classifies a note's links against the live card store at
// render time and renders them into the answer side of a card.
package review

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/at-ishikawa/cardlink/internal/hoststore"
	"github.com/at-ishikawa/cardlink/internal/linker"
)

// Status is the render-time classification of one link.
type Status string

const (
	StatusReviewed  Status = "reviewed"
	StatusPending   Status = "pending"
	StatusDeleted   Status = "deleted"
	StatusLoadError Status = "load-error"
)

// DisplayItem is one rendered link. An empty Command marks an inert item:
// nothing to activate for a deleted or unloadable target.
type DisplayItem struct {
	Title   string
	Deck    string
	Status  Status
	Command string
}

// Reconciler builds the review payload for a note. It never writes: stale
// entries stay in the stored set until the user prunes them at edit time.
type Reconciler struct {
	store        hoststore.Store
	fields       *linker.FieldStore
	rolloverHour int
	cutoffs      DayCutoffSource
	renderer     *Renderer
	now          func() time.Time
}

// NewReconciler creates a Reconciler. cutoffs may be nil when the store
// exposes no day cutoff of its own; renderer may be nil when only the
// payload is wanted.
func NewReconciler(
	store hoststore.Store,
	fields *linker.FieldStore,
	rolloverHour int,
	cutoffs DayCutoffSource,
	renderer *Renderer,
) *Reconciler {
	return &Reconciler{
		store:        store,
		fields:       fields,
		rolloverHour: rolloverHour,
		cutoffs:      cutoffs,
		renderer:     renderer,
		now:          time.Now,
	}
}

// BuildReviewPayload resolves each link of the note's set against the live
// store, in insertion order. One bad record never aborts the rest: a
// vanished target degrades to a deleted item, a store fault to a load-error
// item, both inert.
func (r *Reconciler) BuildReviewPayload(ctx context.Context, note *hoststore.Note) []DisplayItem {
	links := r.fields.Links(note)
	if len(links) == 0 {
		return nil
	}

	dayStart := DayStart(ctx, r.now(), r.rolloverHour, r.cutoffs)

	items := make([]DisplayItem, 0, len(links))
	for _, link := range links {
		card, err := r.store.Card(ctx, link.CardID)
		if err != nil {
			if errors.Is(err, hoststore.ErrCardNotFound) {
				items = append(items, DisplayItem{Title: link.Title, Deck: link.Deck, Status: StatusDeleted})
				continue
			}
			slog.Warn("failed to resolve a linked card",
				slog.Int64("cardID", link.CardID),
				slog.Any("error", err),
			)
			items = append(items, DisplayItem{Title: link.Title, Deck: link.Deck, Status: StatusLoadError})
			continue
		}

		reviewed := r.reviewedSince(ctx, card.ID, dayStart)
		status := StatusPending
		if reviewed {
			status = StatusReviewed
		}
		items = append(items, DisplayItem{
			Title:   link.Title,
			Deck:    link.Deck,
			Status:  status,
			Command: hoststore.Command{CardID: card.ID, Reviewed: reviewed}.String(),
		})
	}
	return items
}

// reviewedSince treats a review-log failure as "not reviewed": the link
// stays activatable and the navigation decision falls to click time.
func (r *Reconciler) reviewedSince(ctx context.Context, cardID int64, since time.Time) bool {
	entries, err := r.store.ReviewsSince(ctx, cardID, since)
	if err != nil {
		slog.Warn("failed to query the review log",
			slog.Int64("cardID", cardID),
			slog.Any("error", err),
		)
		return false
	}
	return len(entries) > 0
}
