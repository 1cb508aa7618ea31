package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/at-ishikawa/cardlink/internal/hoststore"
	"github.com/at-ishikawa/cardlink/internal/linker"
	"github.com/at-ishikawa/cardlink/internal/linkset"
)

// LinkDialogCLI edits the link set of one note: search the collection,
// attach and detach links, and create a new linked card inline.
type LinkDialogCLI struct {
	*CLI
	store       hoststore.Store
	registry    *linker.Registry
	note        *hoststore.Note
	searchLimit int

	// last search results, addressed by the add command
	candidates []linker.Candidate
}

// NewLinkDialogCLI loads the note and provisions the link field on its note
// type if it is still missing.
func NewLinkDialogCLI(
	ctx context.Context,
	store hoststore.Store,
	registry *linker.Registry,
	noteID int64,
	searchLimit int,
	input io.Reader,
	output io.Writer,
) (*LinkDialogCLI, error) {
	note, err := store.Note(ctx, noteID)
	if err != nil {
		return nil, fmt.Errorf("store.Note() > %w", err)
	}
	if !registry.HasLinkField(note) {
		if err := registry.AddLinkFieldToModel(ctx, note.ModelID); err != nil {
			return nil, fmt.Errorf("registry.AddLinkFieldToModel() > %w", err)
		}
		note, err = store.Note(ctx, noteID)
		if err != nil {
			return nil, fmt.Errorf("store.Note() > %w", err)
		}
	}

	return &LinkDialogCLI{
		CLI:         newCLI(input, output),
		store:       store,
		registry:    registry,
		note:        note,
		searchLimit: searchLimit,
	}, nil
}

func (r *LinkDialogCLI) printLinks() {
	links := r.registry.ListLinks(r.note)
	if len(links) == 0 {
		fmt.Fprintln(r.stdoutWriter, "No links yet.")
		return
	}
	title := linkset.TruncateEllipsis(linkset.SanitizeTitle(r.note.FirstField()), 60)
	_, _ = r.bold.Fprintf(r.stdoutWriter, "Links of %q:\n", title)
	for i, link := range links {
		fmt.Fprintf(r.stdoutWriter, "  %d. %s (%s)\n", i+1, link.Title, link.Deck)
	}
}

func (r *LinkDialogCLI) printCandidates() {
	if len(r.candidates) == 0 {
		fmt.Fprintln(r.stdoutWriter, "No matching cards.")
		return
	}
	for i, candidate := range r.candidates {
		fmt.Fprintf(r.stdoutWriter, "  %d. %s (%s)\n", i+1, candidate.Title, candidate.Deck)
	}
}

func (r *LinkDialogCLI) Session(ctx context.Context) error {
	r.printLinks()
	fmt.Fprintln(r.stdoutWriter, "Commands: /<query> search, a <n> add result, r <n> remove link, c clear, n new card, q quit")
	_, _ = r.bold.Fprint(r.stdoutWriter, "> ")

	line, err := r.readLine()
	if err != nil {
		return err
	}

	switch {
	case line == "q":
		return errEnd
	case line == "c":
		return r.clearLinks(ctx)
	case line == "n":
		return r.createLinkedCard(ctx)
	case strings.HasPrefix(line, "/"):
		return r.search(ctx, strings.TrimPrefix(line, "/"))
	case strings.HasPrefix(line, "a "):
		return r.addCandidate(ctx, strings.TrimSpace(strings.TrimPrefix(line, "a ")))
	case strings.HasPrefix(line, "r "):
		return r.removeLink(ctx, strings.TrimSpace(strings.TrimPrefix(line, "r ")))
	case line == "":
		return nil
	default:
		fmt.Fprintf(r.stdoutWriter, "Unknown command %q\n", line)
		return nil
	}
}

func (r *LinkDialogCLI) search(ctx context.Context, query string) error {
	if strings.TrimSpace(query) == "" {
		fmt.Fprintln(r.stdoutWriter, "Search needs a query, like /resistance")
		return nil
	}
	candidates, err := r.registry.SearchCandidates(ctx, query, r.note.ID, r.searchLimit)
	if err != nil {
		return fmt.Errorf("registry.SearchCandidates() > %w", err)
	}
	r.candidates = candidates
	r.printCandidates()
	return nil
}

func (r *LinkDialogCLI) addCandidate(ctx context.Context, arg string) error {
	index, err := strconv.Atoi(arg)
	if err != nil || index < 1 || index > len(r.candidates) {
		fmt.Fprintln(r.stdoutWriter, "Pick a result number from the last search.")
		return nil
	}
	candidate := r.candidates[index-1]

	if err := r.registry.AddLink(ctx, r.note, candidate.CardID, candidate.Title); err != nil {
		switch {
		case errors.Is(err, linker.ErrDuplicateLink):
			fmt.Fprintln(r.stdoutWriter, "That card is already linked.")
			return nil
		case errors.Is(err, linker.ErrSelfLink):
			fmt.Fprintln(r.stdoutWriter, "A card cannot link to itself.")
			return nil
		case errors.Is(err, linker.ErrTargetNotFound):
			fmt.Fprintln(r.stdoutWriter, "That card no longer exists; search again.")
			return nil
		}
		return fmt.Errorf("registry.AddLink() > %w", err)
	}
	fmt.Fprintf(r.stdoutWriter, "Linked %q.\n", candidate.Title)
	return nil
}

func (r *LinkDialogCLI) removeLink(ctx context.Context, arg string) error {
	links := r.registry.ListLinks(r.note)
	index, err := strconv.Atoi(arg)
	if err != nil || index < 1 || index > len(links) {
		fmt.Fprintln(r.stdoutWriter, "Pick a link number from the list.")
		return nil
	}
	removed := links[index-1]
	if err := r.registry.RemoveLink(ctx, r.note, removed.CardID); err != nil {
		return fmt.Errorf("registry.RemoveLink() > %w", err)
	}
	fmt.Fprintf(r.stdoutWriter, "Removed %q.\n", removed.Title)
	return nil
}

func (r *LinkDialogCLI) clearLinks(ctx context.Context) error {
	if len(r.registry.ListLinks(r.note)) == 0 {
		fmt.Fprintln(r.stdoutWriter, "No links to remove.")
		return nil
	}
	_, _ = r.bold.Fprint(r.stdoutWriter, "Remove all links? (y/N): ")
	answer, err := r.readLine()
	if err != nil {
		return err
	}
	if strings.ToLower(answer) != "y" && strings.ToLower(answer) != "yes" {
		return nil
	}
	if err := r.registry.ClearLinks(ctx, r.note); err != nil {
		return fmt.Errorf("registry.ClearLinks() > %w", err)
	}
	fmt.Fprintln(r.stdoutWriter, "All links removed.")
	return nil
}

// createLinkedCard creates a new note of the same type in the current deck
// and links its first card in one step.
func (r *LinkDialogCLI) createLinkedCard(ctx context.Context) error {
	_, _ = r.bold.Fprint(r.stdoutWriter, "Front: ")
	front, err := r.readLine()
	if err != nil {
		return err
	}
	if front == "" {
		fmt.Fprintln(r.stdoutWriter, "The new card needs a front.")
		return nil
	}
	_, _ = r.bold.Fprint(r.stdoutWriter, "Back: ")
	back, err := r.readLine()
	if err != nil {
		return err
	}

	deckID, err := r.store.CurrentDeckID(ctx)
	if err != nil {
		return fmt.Errorf("store.CurrentDeckID() > %w", err)
	}
	cardID, err := r.registry.CreateLinkedCard(ctx, r.note, front, back, deckID)
	if err != nil {
		return fmt.Errorf("registry.CreateLinkedCard() > %w", err)
	}
	if err := r.registry.AddLink(ctx, r.note, cardID, front); err != nil {
		return fmt.Errorf("registry.AddLink() > %w", err)
	}
	fmt.Fprintf(r.stdoutWriter, "Created and linked %q.\n", front)
	return nil
}
