// Package testutil provides shared test doubles and fixtures: an in-memory
// host store seeded with decks, notes and cards.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/at-ishikawa/cardlink/internal/hoststore"
)

// FakeStore is an in-memory hoststore.Store. Tests seed it through the
// fields and helpers and inspect the recorded mutations afterwards.
type FakeStore struct {
	Cards   map[int64]*hoststore.Card
	Notes   map[int64]*hoststore.Note
	Decks   map[int64]string
	Models  map[int64]*hoststore.Model
	Reviews map[int64][]int64 // card id -> review-log entry ids (epoch millis)

	CurrentDeck int64

	// Error injection. A non-nil entry makes the matching call fail.
	CardErrs      map[int64]error
	NoteErrs      map[int64]error
	FindCardsErr  error
	FindNotesErr  error
	UpdateNoteErr error
	ReviewsErr    error

	// Recorded mutations.
	UpdatedNoteIDs   []int64
	SchedulingWrites []hoststore.Card
	Unsuspended      [][]int64
	Unburied         [][]int64

	nextID int64
}

// NewFakeStore creates an empty store with one default deck.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		Cards:       map[int64]*hoststore.Card{},
		Notes:       map[int64]*hoststore.Note{},
		Decks:       map[int64]string{1: "Default"},
		Models:      map[int64]*hoststore.Model{},
		Reviews:     map[int64][]int64{},
		CardErrs:    map[int64]error{},
		NoteErrs:    map[int64]error{},
		CurrentDeck: 1,
		nextID:      1000,
	}
}

// SeedBasicModel registers the Front/Back/LinkedCards note type that
// SeedNote assumes, under model id 1.
func (s *FakeStore) SeedBasicModel() *hoststore.Model {
	model := &hoststore.Model{
		ID:   1,
		Name: "Basic",
		Fields: []hoststore.ModelField{
			{Name: "Front", Ord: 0},
			{Name: "Back", Ord: 1},
			{Name: "LinkedCards", Ord: 2},
		},
		Templates: []hoststore.ModelTemplate{{Name: "Card 1", Ord: 0}},
	}
	s.Models[model.ID] = model
	return model
}

// SeedDeck registers a deck name and returns its identifier.
func (s *FakeStore) SeedDeck(name string) int64 {
	id := s.allocID()
	s.Decks[id] = name
	return id
}

// SeedNote registers a note with Front/Back/LinkedCards fields and one card
// in the given deck, returning the note and its card.
func (s *FakeStore) SeedNote(deckID int64, front, back string) (*hoststore.Note, *hoststore.Card) {
	note := &hoststore.Note{
		ID:      s.allocID(),
		ModelID: 1,
		Fields: []hoststore.NoteField{
			{Name: "Front", Value: front},
			{Name: "Back", Value: back},
			{Name: "LinkedCards", Value: ""},
		},
	}
	s.Notes[note.ID] = note

	card := &hoststore.Card{
		ID:     s.allocID(),
		NoteID: note.ID,
		DeckID: deckID,
		Queue:  hoststore.QueueNew,
		Type:   hoststore.CardTypeNew,
	}
	s.Cards[card.ID] = card
	return note, card
}

// SeedReview records a review-log entry for the card at the given time.
func (s *FakeStore) SeedReview(cardID int64, at time.Time) {
	s.Reviews[cardID] = append(s.Reviews[cardID], at.UnixMilli())
}

func (s *FakeStore) allocID() int64 {
	s.nextID++
	return s.nextID
}

func (s *FakeStore) Card(_ context.Context, id int64) (*hoststore.Card, error) {
	if err := s.CardErrs[id]; err != nil {
		return nil, err
	}
	card, ok := s.Cards[id]
	if !ok {
		return nil, fmt.Errorf("card %d: %w", id, hoststore.ErrCardNotFound)
	}
	clone := *card
	return &clone, nil
}

func (s *FakeStore) Note(_ context.Context, id int64) (*hoststore.Note, error) {
	if err := s.NoteErrs[id]; err != nil {
		return nil, err
	}
	note, ok := s.Notes[id]
	if !ok {
		return nil, fmt.Errorf("note %d: %w", id, hoststore.ErrNoteNotFound)
	}
	clone := *note
	clone.Fields = append([]hoststore.NoteField(nil), note.Fields...)
	return &clone, nil
}

func (s *FakeStore) FindCards(_ context.Context, query string, limit int) ([]int64, error) {
	if s.FindCardsErr != nil {
		return nil, s.FindCardsErr
	}
	var ids []int64
	for id, card := range s.Cards {
		note, ok := s.Notes[card.NoteID]
		if !ok {
			continue
		}
		if query == "" || strings.Contains(strings.ToLower(note.FirstField()), strings.ToLower(query)) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (s *FakeStore) FindNotes(_ context.Context, query string) ([]int64, error) {
	if s.FindNotesErr != nil {
		return nil, s.FindNotesErr
	}
	var ids []int64
	for id, note := range s.Notes {
		if query == "" || strings.Contains(strings.ToLower(note.FirstField()), strings.ToLower(query)) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *FakeStore) DeckName(_ context.Context, deckID int64) (string, error) {
	name, ok := s.Decks[deckID]
	if !ok {
		return "", fmt.Errorf("deck %d: %w", deckID, hoststore.ErrDeckNotFound)
	}
	return name, nil
}

func (s *FakeStore) CurrentDeckID(_ context.Context) (int64, error) {
	return s.CurrentDeck, nil
}

func (s *FakeStore) ReviewsSince(_ context.Context, cardID int64, since time.Time) ([]int64, error) {
	if s.ReviewsErr != nil {
		return nil, s.ReviewsErr
	}
	var entries []int64
	for _, at := range s.Reviews[cardID] {
		if at >= since.UnixMilli() {
			entries = append(entries, at)
		}
	}
	return entries, nil
}

func (s *FakeStore) UpdateNote(_ context.Context, note *hoststore.Note) error {
	if s.UpdateNoteErr != nil {
		return s.UpdateNoteErr
	}
	if _, ok := s.Notes[note.ID]; !ok {
		return fmt.Errorf("note %d: %w", note.ID, hoststore.ErrNoteNotFound)
	}
	clone := *note
	clone.Fields = append([]hoststore.NoteField(nil), note.Fields...)
	s.Notes[note.ID] = &clone
	s.UpdatedNoteIDs = append(s.UpdatedNoteIDs, note.ID)
	return nil
}

func (s *FakeStore) UpdateCardScheduling(_ context.Context, card *hoststore.Card) error {
	stored, ok := s.Cards[card.ID]
	if !ok {
		return fmt.Errorf("card %d: %w", card.ID, hoststore.ErrCardNotFound)
	}
	stored.Queue = card.Queue
	stored.Type = card.Type
	stored.Due = card.Due
	s.SchedulingWrites = append(s.SchedulingWrites, *card)
	return nil
}

func (s *FakeStore) UnsuspendCards(_ context.Context, ids []int64) error {
	for _, id := range ids {
		if card, ok := s.Cards[id]; ok && card.Queue == hoststore.QueueSuspended {
			card.Queue = hoststore.Queue(card.Type)
		}
	}
	s.Unsuspended = append(s.Unsuspended, ids)
	return nil
}

func (s *FakeStore) UnburyCards(_ context.Context, ids []int64) error {
	for _, id := range ids {
		if card, ok := s.Cards[id]; ok && card.Queue.Buried() {
			card.Queue = hoststore.Queue(card.Type)
		}
	}
	s.Unburied = append(s.Unburied, ids)
	return nil
}

func (s *FakeStore) AddNote(_ context.Context, note *hoststore.Note, deckID int64) ([]int64, error) {
	model, ok := s.Models[note.ModelID]
	if !ok {
		// Seeded notes default to model 1 with a single template.
		model = &hoststore.Model{ID: note.ModelID, Templates: []hoststore.ModelTemplate{{Name: "Card 1"}}}
	}
	note.ID = s.allocID()
	s.Notes[note.ID] = note

	var cardIDs []int64
	for range model.Templates {
		card := &hoststore.Card{
			ID:     s.allocID(),
			NoteID: note.ID,
			DeckID: deckID,
			Queue:  hoststore.QueueNew,
			Type:   hoststore.CardTypeNew,
		}
		s.Cards[card.ID] = card
		cardIDs = append(cardIDs, card.ID)
	}
	return cardIDs, nil
}

func (s *FakeStore) NoteModel(_ context.Context, modelID int64) (*hoststore.Model, error) {
	model, ok := s.Models[modelID]
	if !ok {
		return nil, fmt.Errorf("note type %d: %w", modelID, hoststore.ErrModelNotFound)
	}
	return model, nil
}

func (s *FakeStore) AddModelField(_ context.Context, modelID int64, name string) error {
	model, ok := s.Models[modelID]
	if !ok {
		return fmt.Errorf("note type %d: %w", modelID, hoststore.ErrModelNotFound)
	}
	model.Fields = append(model.Fields, hoststore.ModelField{Name: name, Ord: len(model.Fields)})
	for _, note := range s.Notes {
		if note.ModelID == modelID {
			note.Fields = append(note.Fields, hoststore.NoteField{Name: name})
		}
	}
	return nil
}

func (s *FakeStore) CreateModel(_ context.Context, model *hoststore.Model) (int64, error) {
	model.ID = s.allocID()
	s.Models[model.ID] = model
	return model.ID, nil
}

var _ hoststore.Store = (*FakeStore)(nil)
