// Package linkset owns the durable representation of a note's outgoing card
// links: a JSON array stored inside one designated note field.
package linkset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Record is one directed edge from an owning note to a target card. The
// title and deck name are point-in-time snapshots, not kept live-synced
// with the target's own edits.
type Record struct {
	CardID int64  `json:"card_id"`
	NoteID int64  `json:"note_id"`
	Title  string `json:"title"`
	Deck   string `json:"deck"`
}

// Set is a note's ordered link set. Insertion order is preserved and
// CardID is unique within one set.
type Set []Record

// Contains reports whether the set already links the given card.
func (s Set) Contains(cardID int64) bool {
	for _, r := range s {
		if r.CardID == cardID {
			return true
		}
	}
	return false
}

// Remove returns the set without any record for the given card, keeping the
// remaining records unchanged in relative order.
func (s Set) Remove(cardID int64) Set {
	result := make(Set, 0, len(s))
	for _, r := range s {
		if r.CardID == cardID {
			continue
		}
		result = append(result, r)
	}
	return result
}

// Decode parses a link field's raw text. Any parse failure, an empty field
// or a non-array payload yields an empty set: corrupt link metadata must
// never block the user.
func Decode(raw string) Set {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Set{}
	}
	var records []Record
	if err := json.Unmarshal([]byte(trimmed), &records); err != nil {
		return Set{}
	}
	if records == nil {
		// JSON "null" decodes without error.
		return Set{}
	}
	return records
}

// Encode produces the canonical serialization of a set. An empty or nil set
// encodes to the explicit "[]" marker, and titles keep their raw Unicode
// without HTML escaping so Decode(Encode(s)) round-trips losslessly.
func Encode(s Set) (string, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(s); err != nil {
		return "", fmt.Errorf("encode link set: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
