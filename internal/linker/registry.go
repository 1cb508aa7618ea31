package linker

import (
	"context"
	"errors"
	"fmt"

	"github.com/at-ishikawa/cardlink/internal/hoststore"
	"github.com/at-ishikawa/cardlink/internal/linkset"
)

var (
	// ErrDuplicateLink means the note already links the target card.
	ErrDuplicateLink = errors.New("card is already linked")
	// ErrTargetNotFound means the target identifier no longer resolves.
	ErrTargetNotFound = errors.New("target card not found")
	// ErrSelfLink means the target card belongs to the note itself.
	ErrSelfLink = errors.New("a note cannot link its own cards")
	// ErrMissingLinkField means the note's model lacks the link field.
	ErrMissingLinkField = errors.New("note has no link field")
)

// Registry is the edit-time surface for a note's link set.
type Registry struct {
	store               hoststore.Store
	fields              *FieldStore
	titleMaxLength      int
	searchDisplayLength int
}

// NewRegistry creates a Registry persisting through the given field store.
func NewRegistry(store hoststore.Store, fields *FieldStore, titleMaxLength, searchDisplayLength int) *Registry {
	return &Registry{
		store:               store,
		fields:              fields,
		titleMaxLength:      titleMaxLength,
		searchDisplayLength: searchDisplayLength,
	}
}

// FieldStore returns the registry's field store, shared with the reconciler.
func (r *Registry) FieldStore() *FieldStore {
	return r.fields
}

// AddLink validates the target, builds a link record with the target's
// current deck name and owning note, and persists the extended set.
// Duplicate edges and self-links are rejected without mutation.
func (r *Registry) AddLink(ctx context.Context, note *hoststore.Note, targetCardID int64, title string) error {
	links := r.fields.Links(note)
	if links.Contains(targetCardID) {
		return ErrDuplicateLink
	}

	target, err := r.store.Card(ctx, targetCardID)
	if err != nil {
		if errors.Is(err, hoststore.ErrCardNotFound) {
			return fmt.Errorf("%w: %d", ErrTargetNotFound, targetCardID)
		}
		return fmt.Errorf("resolve target card %d: %w", targetCardID, err)
	}
	if target.NoteID == note.ID && note.ID != 0 {
		return ErrSelfLink
	}

	deckName, err := r.store.DeckName(ctx, target.DeckID)
	if err != nil {
		return fmt.Errorf("resolve target deck %d: %w", target.DeckID, err)
	}

	links = append(links, linkset.Record{
		CardID: targetCardID,
		NoteID: target.NoteID,
		Title:  linkset.Truncate(linkset.SanitizeTitle(title), r.titleMaxLength),
		Deck:   deckName,
	})
	return r.fields.Persist(ctx, note, links)
}

// RemoveLink drops the target from the note's set and persists. An absent
// target is a no-op success; the other records keep their relative order.
func (r *Registry) RemoveLink(ctx context.Context, note *hoststore.Note, targetCardID int64) error {
	links := r.fields.Links(note)
	return r.fields.Persist(ctx, note, links.Remove(targetCardID))
}

// ClearLinks persists an empty set unconditionally.
func (r *Registry) ClearLinks(ctx context.Context, note *hoststore.Note) error {
	return r.fields.Persist(ctx, note, linkset.Set{})
}

// ListLinks returns the note's current link set. Pure read, never fails.
func (r *Registry) ListLinks(note *hoststore.Note) linkset.Set {
	return r.fields.Links(note)
}

// Candidate is one linkable search result.
type Candidate struct {
	CardID int64
	NoteID int64
	Title  string
	Deck   string
}

// SearchCandidates delegates the free-text search to the host store and
// shapes the results for the link dialog: markup stripped from the primary
// display field, results owned by excludeNoteID dropped (no self-links),
// display text bounded, host relevance order kept. Re-invoking with the
// same query reproduces the same ranked set as long as the store has not
// changed in between.
func (r *Registry) SearchCandidates(ctx context.Context, query string, excludeNoteID int64, limit int) ([]Candidate, error) {
	cardIDs, err := r.store.FindCards(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search cards: %w", err)
	}

	candidates := make([]Candidate, 0, len(cardIDs))
	for _, cardID := range cardIDs {
		card, err := r.store.Card(ctx, cardID)
		if err != nil {
			// Search results can lag the store; skip anything that vanished.
			continue
		}
		if card.NoteID == excludeNoteID {
			continue
		}
		note, err := r.store.Note(ctx, card.NoteID)
		if err != nil {
			continue
		}
		deckName, err := r.store.DeckName(ctx, card.DeckID)
		if err != nil {
			continue
		}
		candidates = append(candidates, Candidate{
			CardID: cardID,
			NoteID: card.NoteID,
			Title:  linkset.Truncate(linkset.SanitizeTitle(note.FirstField()), r.searchDisplayLength),
			Deck:   deckName,
		})
	}
	return candidates, nil
}

// CreateLinkedCard creates a new note using the current note's own model,
// seeds its first two fields with the given front and back text, assigns it
// to the given deck and returns the first generated card's identifier so
// the caller can link it.
func (r *Registry) CreateLinkedCard(ctx context.Context, current *hoststore.Note, front, back string, deckID int64) (int64, error) {
	model, err := r.store.NoteModel(ctx, current.ModelID)
	if err != nil {
		return 0, fmt.Errorf("resolve note type %d: %w", current.ModelID, err)
	}

	newNote := &hoststore.Note{ModelID: model.ID}
	for _, field := range model.Fields {
		newNote.Fields = append(newNote.Fields, hoststore.NoteField{Name: field.Name})
	}
	if len(newNote.Fields) == 0 {
		return 0, fmt.Errorf("note type %q has no fields", model.Name)
	}
	newNote.Fields[0].Value = front
	if len(newNote.Fields) > 1 {
		newNote.Fields[1].Value = back
	}

	cardIDs, err := r.store.AddNote(ctx, newNote, deckID)
	if err != nil {
		return 0, fmt.Errorf("create note: %w", err)
	}
	if len(cardIDs) == 0 {
		return 0, fmt.Errorf("note type %q generated no cards", model.Name)
	}
	return cardIDs[0], nil
}

// HasLinkField reports whether the note carries the link field. A missing
// field is a normal branch the caller resolves through the provisioning
// helpers below.
func (r *Registry) HasLinkField(note *hoststore.Note) bool {
	_, ok := note.Field(r.fields.FieldName())
	return ok
}

// AddLinkFieldToModel appends the link field to an existing note type so
// its notes can start carrying links.
func (r *Registry) AddLinkFieldToModel(ctx context.Context, modelID int64) error {
	model, err := r.store.NoteModel(ctx, modelID)
	if err != nil {
		return fmt.Errorf("resolve note type %d: %w", modelID, err)
	}
	if model.HasField(r.fields.FieldName()) {
		return nil
	}
	if err := r.store.AddModelField(ctx, modelID, r.fields.FieldName()); err != nil {
		return fmt.Errorf("add link field to note type %q: %w", model.Name, err)
	}
	return nil
}

// DefaultModelName is the note type created for users who want linking
// without touching their existing templates.
const DefaultModelName = "Linked Basic"

// CreateDefaultModel creates a front/back note type that already carries
// the link field, and returns its identifier.
func (r *Registry) CreateDefaultModel(ctx context.Context) (int64, error) {
	model := &hoststore.Model{
		Name: DefaultModelName,
		Fields: []hoststore.ModelField{
			{Name: "Front", Ord: 0},
			{Name: "Back", Ord: 1},
			{Name: r.fields.FieldName(), Ord: 2},
		},
		Templates: []hoststore.ModelTemplate{
			{Name: "Card 1", Ord: 0},
		},
	}
	id, err := r.store.CreateModel(ctx, model)
	if err != nil {
		return 0, fmt.Errorf("create note type %q: %w", DefaultModelName, err)
	}
	return id, nil
}
