// Package hoststore defines the contract this tool consumes from the host
// spaced-repetition application: its card/note/deck store, its review log,
// and its scheduler and reviewer surfaces. The core packages only ever talk
// to these interfaces; one implementation per supported host backend is
// selected at startup from configuration.
package hoststore

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCardNotFound  = errors.New("card not found")
	ErrNoteNotFound  = errors.New("note not found")
	ErrDeckNotFound  = errors.New("deck not found")
	ErrModelNotFound = errors.New("note type not found")
	ErrNoCurrentCard = errors.New("no card is being reviewed")
)

// Queue is the host scheduler's queue classification of a card.
// Negative queues mean the card is unavailable for review.
type Queue int

const (
	QueueSchedBuried Queue = -3
	QueueUserBuried  Queue = -2
	QueueSuspended   Queue = -1
	QueueNew         Queue = 0
	QueueLearning    Queue = 1
	QueueReview      Queue = 2
)

// Buried reports whether the queue is one of the buried classifications.
func (q Queue) Buried() bool {
	return q == QueueUserBuried || q == QueueSchedBuried
}

// CardType is the host scheduler's type classification of a card.
type CardType int

const (
	CardTypeNew        CardType = 0
	CardTypeLearning   CardType = 1
	CardTypeReview     CardType = 2
	CardTypeRelearning CardType = 3
)

// Card is a schedulable unit derived from a note. Queue, Type and Due are
// the only scheduling fields this tool ever reads or writes.
type Card struct {
	ID     int64
	NoteID int64
	DeckID int64
	Queue  Queue
	Type   CardType
	Due    int64
}

// NoteField is one named field of a note, in model order.
type NoteField struct {
	Name  string
	Value string
}

// Note is the content record from which cards are generated. Fields keep
// the model's declared order so the first field stays the display field.
type Note struct {
	ID      int64
	ModelID int64
	Fields  []NoteField
}

// Field returns the value of the named field and whether the field exists.
// A missing field is a normal branch, not an error.
func (n *Note) Field(name string) (string, bool) {
	for _, f := range n.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// SetField replaces the value of the named field in place and reports
// whether the field existed.
func (n *Note) SetField(name, value string) bool {
	for i := range n.Fields {
		if n.Fields[i].Name == name {
			n.Fields[i].Value = value
			return true
		}
	}
	return false
}

// FirstField returns the value of the note's first field, or "" for a note
// without fields.
func (n *Note) FirstField() string {
	if len(n.Fields) == 0 {
		return ""
	}
	return n.Fields[0].Value
}

// ModelField is one field declaration of a note type.
type ModelField struct {
	Name string
	Ord  int
}

// ModelTemplate is one card template of a note type.
type ModelTemplate struct {
	Name string
	Ord  int
}

// Model is a note type: the field and template declarations shared by all
// notes of that type.
type Model struct {
	ID        int64
	Name      string
	Fields    []ModelField
	Templates []ModelTemplate
}

// HasField reports whether the model declares a field with the given name.
func (m *Model) HasField(name string) bool {
	for _, f := range m.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Store is the host card/note/deck store. Implementations must return
// ErrCardNotFound / ErrNoteNotFound (possibly wrapped) for identifiers that
// no longer resolve, so callers can tell a dangling reference from a store
// fault.
type Store interface {
	// Card resolves a card by its identifier.
	Card(ctx context.Context, id int64) (*Card, error)
	// Note resolves a note by its identifier.
	Note(ctx context.Context, id int64) (*Note, error)
	// FindCards runs the host's free-text card search and returns card
	// identifiers in host relevance order, at most limit of them.
	// limit <= 0 means no bound.
	FindCards(ctx context.Context, query string, limit int) ([]int64, error)
	// FindNotes runs the host's free-text note search. An empty query
	// matches every note.
	FindNotes(ctx context.Context, query string) ([]int64, error)
	// DeckName resolves a deck identifier to its full hierarchical name,
	// levels separated by "::".
	DeckName(ctx context.Context, deckID int64) (string, error)
	// CurrentDeckID returns the deck currently selected in the host.
	CurrentDeckID(ctx context.Context) (int64, error)
	// ReviewsSince returns identifiers of review-log entries for the card
	// recorded at or after the given time.
	ReviewsSince(ctx context.Context, cardID int64, since time.Time) ([]int64, error)

	// UpdateNote commits the note's current field values durably.
	UpdateNote(ctx context.Context, note *Note) error
	// UpdateCardScheduling commits the card's queue, type and due values.
	// No other card state is touched.
	UpdateCardScheduling(ctx context.Context, card *Card) error
	// UnsuspendCards lifts suspension from the given cards.
	UnsuspendCards(ctx context.Context, ids []int64) error
	// UnburyCards unburies the given cards individually.
	UnburyCards(ctx context.Context, ids []int64) error

	// AddNote creates a note of the given model in the given deck and
	// returns the identifiers of the cards it generated.
	AddNote(ctx context.Context, note *Note, deckID int64) ([]int64, error)
	// NoteModel resolves a note type by its identifier.
	NoteModel(ctx context.Context, modelID int64) (*Model, error)
	// AddModelField appends a field declaration to an existing note type.
	AddModelField(ctx context.Context, modelID int64, name string) error
	// CreateModel creates a note type and returns its identifier.
	CreateModel(ctx context.Context, model *Model) (int64, error)
}
