package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/at-ishikawa/cardlink/internal/hoststore"
	"github.com/at-ishikawa/cardlink/internal/navigation"
	"github.com/at-ishikawa/cardlink/internal/review"
)

// StudySessionCLI reviews due cards in the terminal. It doubles as the host
// surface set of the collection backend: it is the reviewer, the scheduler
// reset point, and the preview opener that the navigation controller talks
// to, since a collection file has no running GUI to delegate to.
type StudySessionCLI struct {
	*CLI
	store      hoststore.Store
	reconciler *review.Reconciler
	controller *navigation.Controller
	now        func() time.Time

	queue  []int64
	loaded bool
}

func NewStudySessionCLI(
	store hoststore.Store,
	reconciler *review.Reconciler,
	input io.Reader,
	output io.Writer,
) *StudySessionCLI {
	return &StudySessionCLI{
		CLI:        newCLI(input, output),
		store:      store,
		reconciler: reconciler,
		now:        time.Now,
	}
}

// SetController wires the navigation controller after construction; the
// controller needs this session as its reviewer, so the two reference each
// other.
func (r *StudySessionCLI) SetController(controller *navigation.Controller) {
	r.controller = controller
}

// Reset rebuilds the study queue from the store: learning cards first by due
// time, then review cards, then new ones. The due interpretation is
// deliberately simple; the session is not a full scheduler.
func (r *StudySessionCLI) Reset(ctx context.Context) error {
	ids, err := r.store.FindCards(ctx, "", 0)
	if err != nil {
		return fmt.Errorf("store.FindCards() > %w", err)
	}

	type queued struct {
		id    int64
		queue hoststore.Queue
		due   int64
	}
	var cards []queued
	for _, id := range ids {
		card, err := r.store.Card(ctx, id)
		if err != nil {
			continue
		}
		if card.Queue < hoststore.QueueNew {
			continue
		}
		if card.Queue == hoststore.QueueLearning && card.Due > r.now().Unix() {
			continue
		}
		cards = append(cards, queued{id: card.ID, queue: card.Queue, due: card.Due})
	}

	rank := func(q hoststore.Queue) int {
		switch q {
		case hoststore.QueueLearning:
			return 0
		case hoststore.QueueReview:
			return 1
		default:
			return 2
		}
	}
	sort.SliceStable(cards, func(i, j int) bool {
		if rank(cards[i].queue) != rank(cards[j].queue) {
			return rank(cards[i].queue) < rank(cards[j].queue)
		}
		return cards[i].due < cards[j].due
	})

	r.queue = r.queue[:0]
	for _, card := range cards {
		r.queue = append(r.queue, card.id)
	}
	r.loaded = true
	return nil
}

func (r *StudySessionCLI) CurrentCard(ctx context.Context) (*hoststore.Card, error) {
	if !r.loaded {
		if err := r.Reset(ctx); err != nil {
			return nil, err
		}
	}
	for len(r.queue) > 0 {
		card, err := r.store.Card(ctx, r.queue[0])
		if err != nil {
			if errors.Is(err, hoststore.ErrCardNotFound) {
				r.queue = r.queue[1:]
				continue
			}
			return nil, err
		}
		return card, nil
	}
	return nil, hoststore.ErrNoCurrentCard
}

func (r *StudySessionCLI) Advance(_ context.Context) error {
	if len(r.queue) > 0 {
		r.queue = r.queue[1:]
	}
	return nil
}

// OpenPreview renders the target card inline; the terminal has no separate
// browser window to open.
func (r *StudySessionCLI) OpenPreview(ctx context.Context, query string) (hoststore.PreviewSurface, error) {
	cardID, err := strconv.ParseInt(strings.TrimPrefix(query, "cid:"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("strconv.ParseInt(%q) > %w", query, err)
	}
	card, err := r.store.Card(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("store.Card() > %w", err)
	}
	note, err := r.store.Note(ctx, card.NoteID)
	if err != nil {
		return nil, fmt.Errorf("store.Note() > %w", err)
	}

	_, _ = r.bold.Fprintln(r.stdoutWriter, "--- preview ---")
	for _, field := range note.Fields {
		if field.Value == "" {
			continue
		}
		fmt.Fprintf(r.stdoutWriter, "%s: %s\n", field.Name, field.Value)
	}
	_, _ = r.bold.Fprintln(r.stdoutWriter, "---------------")
	return terminalSurface{}, nil
}

// terminalSurface is already fully shown by OpenPreview; there is nothing
// left to select and nothing that can close early.
type terminalSurface struct{}

func (terminalSurface) Alive() bool       { return true }
func (terminalSurface) AutoSelect() error { return nil }

func (r *StudySessionCLI) Session(ctx context.Context) error {
	card, err := r.CurrentCard(ctx)
	if err != nil {
		if errors.Is(err, hoststore.ErrNoCurrentCard) {
			fmt.Fprintln(r.stdoutWriter, "No more cards to study!")
			return errEnd
		}
		return err
	}

	note, err := r.store.Note(ctx, card.NoteID)
	if err != nil {
		return fmt.Errorf("store.Note() > %w", err)
	}

	_, _ = r.bold.Fprintf(r.stdoutWriter, "\n%s\n", note.FirstField())
	fmt.Fprint(r.stdoutWriter, "Press Enter to show the answer...")
	if _, err := r.readLine(); err != nil {
		return err
	}

	if len(note.Fields) > 1 {
		_, _ = r.italic.Fprintf(r.stdoutWriter, "%s\n", note.Fields[1].Value)
	}

	items := r.reconciler.BuildReviewPayload(ctx, note)
	r.printLinkedItems(items)

	fmt.Fprint(r.stdoutWriter, "[number] open linked card, Enter for the next card, q to quit: ")
	line, err := r.readLine()
	if err != nil {
		return err
	}
	switch {
	case line == "q":
		return errEnd
	case line == "":
		return r.Advance(ctx)
	default:
		return r.openLinkedItem(ctx, items, line)
	}
}

func (r *StudySessionCLI) printLinkedItems(items []review.DisplayItem) {
	if len(items) == 0 {
		return
	}
	_, _ = r.bold.Fprintln(r.stdoutWriter, "Linked cards:")
	for i, item := range items {
		switch item.Status {
		case review.StatusReviewed:
			_, _ = r.green.Fprintf(r.stdoutWriter, "  %d. %s (%s) reviewed today\n", i+1, item.Title, item.Deck)
		case review.StatusPending:
			fmt.Fprintf(r.stdoutWriter, "  %d. %s (%s) not reviewed yet\n", i+1, item.Title, item.Deck)
		case review.StatusDeleted:
			_, _ = r.red.Fprintf(r.stdoutWriter, "  %d. %s (deleted)\n", i+1, item.Title)
		default:
			_, _ = r.yellow.Fprintf(r.stdoutWriter, "  %d. %s (failed to load)\n", i+1, item.Title)
		}
	}
}

func (r *StudySessionCLI) openLinkedItem(ctx context.Context, items []review.DisplayItem, line string) error {
	index, err := strconv.Atoi(line)
	if err != nil || index < 1 || index > len(items) {
		fmt.Fprintln(r.stdoutWriter, "Pick a linked card number.")
		return nil
	}
	item := items[index-1]
	if item.Command == "" {
		fmt.Fprintln(r.stdoutWriter, "That linked card cannot be opened.")
		return nil
	}
	// The controller reports failures to the user itself; the session keeps
	// going either way.
	_ = r.controller.Dispatch(ctx, item.Command)
	return nil
}
