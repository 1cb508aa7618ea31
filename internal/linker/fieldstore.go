// Package linker mediates between the serialized link sets and the live
// host store: it validates targets, prevents duplicate edges and owns every
// mutation of a note's link field.
package linker

import (
	"context"
	"fmt"

	"github.com/at-ishikawa/cardlink/internal/hoststore"
	"github.com/at-ishikawa/cardlink/internal/linkset"
)

// FieldStore reads and writes a note's link set through its designated
// field. All mutation is whole-set replacement: the storage is one opaque
// text cell, so either the entire new set is written or the old one stays.
type FieldStore struct {
	store     hoststore.Store
	fieldName string
}

// NewFieldStore creates a FieldStore persisting into the named note field.
func NewFieldStore(store hoststore.Store, fieldName string) *FieldStore {
	return &FieldStore{store: store, fieldName: fieldName}
}

// FieldName returns the note field this store persists into.
func (f *FieldStore) FieldName() string {
	return f.fieldName
}

// Links decodes the note's current link set. A missing field or corrupt
// content yields an empty set, never an error.
func (f *FieldStore) Links(note *hoststore.Note) linkset.Set {
	raw, ok := note.Field(f.fieldName)
	if !ok {
		return linkset.Set{}
	}
	return linkset.Decode(raw)
}

// Persist encodes the set into the note's link field and commits the note.
// A note that has not been committed yet (ID 0) only gets the in-memory
// field mutation: its own initial commit stays the caller's job.
func (f *FieldStore) Persist(ctx context.Context, note *hoststore.Note, s linkset.Set) error {
	encoded, err := linkset.Encode(s)
	if err != nil {
		return fmt.Errorf("persist links: %w", err)
	}
	if !note.SetField(f.fieldName, encoded) {
		return fmt.Errorf("persist links: %w: %q", ErrMissingLinkField, f.fieldName)
	}
	if note.ID == 0 {
		return nil
	}
	if err := f.store.UpdateNote(ctx, note); err != nil {
		return fmt.Errorf("save link field: %w", err)
	}
	return nil
}
