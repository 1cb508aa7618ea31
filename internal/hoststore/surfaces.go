package hoststore

import "context"

//go:generate mockgen -source=surfaces.go -destination=../mocks/hoststore/mock_surfaces.go -package=mock_hoststore

// Scheduler is the host scheduler surface used after a forced requeue.
type Scheduler interface {
	// Reset asks the scheduler to rebuild its internal queue ordering so a
	// mutated due time takes effect.
	Reset(ctx context.Context) error
}

// Reviewer is the host review surface: the card on screen right now and the
// ability to advance past it.
type Reviewer interface {
	// CurrentCard returns the card currently shown, or ErrNoCurrentCard.
	CurrentCard(ctx context.Context) (*Card, error)
	// Advance moves the reviewer to the next due card.
	Advance(ctx context.Context) error
}

// PreviewSurface is a host card-inspection surface opened on a single card.
// The deferred auto-select callback must capability-check Alive before
// touching the surface, since the user may have closed it already.
type PreviewSurface interface {
	Alive() bool
	// AutoSelect attempts to focus the single matched card. It may fail
	// while the surface's own search is still settling.
	AutoSelect() error
}

// PreviewOpener opens a PreviewSurface pre-filtered by a host search query.
type PreviewOpener interface {
	OpenPreview(ctx context.Context, query string) (PreviewSurface, error)
}
