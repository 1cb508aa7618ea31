// Package collectionstore implements the host store contract directly over a
// collection database: the schema of notes, cards, decks and the review log
// that the desktop application keeps, reachable either as a local sqlite
// file or as a mysql mirror.
package collectionstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/at-ishikawa/cardlink/internal/database"
	"github.com/at-ishikawa/cardlink/internal/hoststore"
)

// fieldSeparator joins the per-field values inside notes.flds.
const fieldSeparator = "\x1f"

// Store reads and writes the collection database through sqlx.
type Store struct {
	db           *sqlx.DB
	rolloverHour int
	now          func() time.Time
	lastID       int64
}

// New wraps an open collection database. rolloverHour is the hour local time
// at which the scheduling day rolls over.
func New(db *sqlx.DB, rolloverHour int) *Store {
	if rolloverHour < 0 || rolloverHour > 23 {
		rolloverHour = 4
	}
	return &Store{db: db, rolloverHour: rolloverHour, now: time.Now}
}

type cardRow struct {
	ID     int64 `db:"id"`
	NoteID int64 `db:"nid"`
	DeckID int64 `db:"did"`
	Queue  int   `db:"queue"`
	Type   int   `db:"type"`
	Due    int64 `db:"due"`
}

func (row cardRow) toCard() *hoststore.Card {
	return &hoststore.Card{
		ID:     row.ID,
		NoteID: row.NoteID,
		DeckID: row.DeckID,
		Queue:  hoststore.Queue(row.Queue),
		Type:   hoststore.CardType(row.Type),
		Due:    row.Due,
	}
}

type noteRow struct {
	ID      int64  `db:"id"`
	ModelID int64  `db:"mid"`
	Fields  string `db:"flds"`
}

func (s *Store) Card(ctx context.Context, id int64) (*hoststore.Card, error) {
	var row cardRow
	err := s.db.GetContext(ctx, &row,
		"SELECT id, nid, did, queue, type, due FROM cards WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("card %d: %w", id, hoststore.ErrCardNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("db.GetContext(card) > %w", err)
	}
	return row.toCard(), nil
}

func (s *Store) Note(ctx context.Context, id int64) (*hoststore.Note, error) {
	var row noteRow
	err := s.db.GetContext(ctx, &row,
		"SELECT id, mid, flds FROM notes WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("note %d: %w", id, hoststore.ErrNoteNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("db.GetContext(note) > %w", err)
	}

	names, err := s.fieldNames(ctx, row.ModelID)
	if err != nil {
		return nil, err
	}
	return zipNote(row, names), nil
}

// zipNote pairs the model's ordered field names with the note's separated
// values. A note lagging behind its model gets empty values for the missing
// trailing fields.
func zipNote(row noteRow, names []string) *hoststore.Note {
	values := strings.Split(row.Fields, fieldSeparator)
	note := &hoststore.Note{
		ID:      row.ID,
		ModelID: row.ModelID,
		Fields:  make([]hoststore.NoteField, len(names)),
	}
	for i, name := range names {
		var value string
		if i < len(values) {
			value = values[i]
		}
		note.Fields[i] = hoststore.NoteField{Name: name, Value: value}
	}
	return note
}

func (s *Store) fieldNames(ctx context.Context, modelID int64) ([]string, error) {
	var names []string
	if err := s.db.SelectContext(ctx, &names,
		"SELECT name FROM fields WHERE ntid = ? ORDER BY ord", modelID); err != nil {
		return nil, fmt.Errorf("db.SelectContext(fields) > %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("note type %d: %w", modelID, hoststore.ErrModelNotFound)
	}
	return names, nil
}

// FindCards matches the query as a substring of any note field and returns
// the matching cards, newest notes first. This is a deliberately small
// subset of the desktop application's search language; the editor dialog
// only needs free-text lookup.
func (s *Store) FindCards(ctx context.Context, query string, limit int) ([]int64, error) {
	q := `SELECT c.id FROM cards c JOIN notes n ON n.id = c.nid
		WHERE n.flds LIKE ? ESCAPE '\' ORDER BY n.id DESC, c.id`
	args := []any{"%" + escapeLike(query) + "%"}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	var ids []int64
	if err := s.db.SelectContext(ctx, &ids, q, args...); err != nil {
		return nil, fmt.Errorf("db.SelectContext(cards by search) > %w", err)
	}
	return ids, nil
}

func (s *Store) FindNotes(ctx context.Context, query string) ([]int64, error) {
	var ids []int64
	if err := s.db.SelectContext(ctx, &ids,
		"SELECT id FROM notes WHERE flds LIKE ? ESCAPE '\\' ORDER BY id DESC",
		"%"+escapeLike(query)+"%"); err != nil {
		return nil, fmt.Errorf("db.SelectContext(notes by search) > %w", err)
	}
	return ids, nil
}

func escapeLike(s string) string {
	replacer := strings.NewReplacer("%", `\%`, "_", `\_`)
	return replacer.Replace(s)
}

func (s *Store) DeckName(ctx context.Context, deckID int64) (string, error) {
	var name string
	err := s.db.GetContext(ctx, &name, "SELECT name FROM decks WHERE id = ?", deckID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("deck %d: %w", deckID, hoststore.ErrDeckNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("db.GetContext(deck) > %w", err)
	}
	return name, nil
}

func (s *Store) CurrentDeckID(ctx context.Context) (int64, error) {
	var raw string
	err := s.db.GetContext(ctx, &raw,
		"SELECT val FROM config WHERE `key` = 'currentDeck'")
	if errors.Is(err, sql.ErrNoRows) {
		// A fresh collection has no explicit selection; the default deck
		// always exists as deck 1.
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("db.GetContext(config currentDeck) > %w", err)
	}
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("strconv.ParseInt(%q) > %w", raw, err)
	}
	return id, nil
}

// ReviewsSince returns review-log entry ids for the card at or after since.
// Entry ids are epoch milliseconds of the review, so the id doubles as the
// timestamp bound.
func (s *Store) ReviewsSince(ctx context.Context, cardID int64, since time.Time) ([]int64, error) {
	var ids []int64
	if err := s.db.SelectContext(ctx, &ids,
		"SELECT id FROM revlog WHERE cid = ? AND id >= ? ORDER BY id",
		cardID, since.UnixMilli()); err != nil {
		return nil, fmt.Errorf("db.SelectContext(revlog) > %w", err)
	}
	return ids, nil
}

func (s *Store) UpdateNote(ctx context.Context, note *hoststore.Note) error {
	values := make([]string, len(note.Fields))
	for i, f := range note.Fields {
		values[i] = f.Value
	}
	result, err := s.db.ExecContext(ctx,
		"UPDATE notes SET flds = ?, sfld = ?, mod = ?, usn = -1 WHERE id = ?",
		strings.Join(values, fieldSeparator), note.FirstField(), s.now().Unix(), note.ID)
	if err != nil {
		return fmt.Errorf("db.ExecContext(update note) > %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("result.RowsAffected() > %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("note %d: %w", note.ID, hoststore.ErrNoteNotFound)
	}
	return nil
}

func (s *Store) UpdateCardScheduling(ctx context.Context, card *hoststore.Card) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE cards SET queue = ?, type = ?, due = ?, mod = ?, usn = -1 WHERE id = ?",
		int(card.Queue), int(card.Type), card.Due, s.now().Unix(), card.ID)
	if err != nil {
		return fmt.Errorf("db.ExecContext(update card scheduling) > %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("result.RowsAffected() > %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("card %d: %w", card.ID, hoststore.ErrCardNotFound)
	}
	return nil
}

// UnsuspendCards restores each suspended card to the queue implied by its
// scheduling type.
func (s *Store) UnsuspendCards(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(
		"UPDATE cards SET queue = type, mod = ?, usn = -1 WHERE id IN (?) AND queue = ?",
		s.now().Unix(), ids, int(hoststore.QueueSuspended))
	if err != nil {
		return fmt.Errorf("sqlx.In() > %w", err)
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("db.ExecContext(unsuspend cards) > %w", err)
	}
	return nil
}

func (s *Store) UnburyCards(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(
		"UPDATE cards SET queue = type, mod = ?, usn = -1 WHERE id IN (?) AND queue IN (?)",
		s.now().Unix(), ids,
		[]int{int(hoststore.QueueUserBuried), int(hoststore.QueueSchedBuried)})
	if err != nil {
		return fmt.Errorf("sqlx.In() > %w", err)
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("db.ExecContext(unbury cards) > %w", err)
	}
	return nil
}

// AddNote inserts the note and one new card per template of its note type,
// all in one transaction. Record ids are epoch milliseconds like the rest of
// the collection.
func (s *Store) AddNote(ctx context.Context, note *hoststore.Note, deckID int64) ([]int64, error) {
	model, err := s.NoteModel(ctx, note.ModelID)
	if err != nil {
		return nil, err
	}

	values := make([]string, len(note.Fields))
	for i, f := range note.Fields {
		values[i] = f.Value
	}

	var cardIDs []int64
	err = database.RunInTx(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		noteID := s.nextRecordID()
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO notes (id, mid, flds, sfld, mod, usn) VALUES (?, ?, ?, ?, ?, -1)",
			noteID, note.ModelID, strings.Join(values, fieldSeparator),
			note.FirstField(), s.now().Unix()); err != nil {
			return fmt.Errorf("tx.ExecContext(insert note) > %w", err)
		}
		note.ID = noteID

		for _, tmpl := range model.Templates {
			cardID := s.nextRecordID()
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO cards (id, nid, did, ord, queue, type, due, mod, usn) VALUES (?, ?, ?, ?, ?, ?, 0, ?, -1)",
				cardID, noteID, deckID, tmpl.Ord,
				int(hoststore.QueueNew), int(hoststore.CardTypeNew),
				s.now().Unix()); err != nil {
				return fmt.Errorf("tx.ExecContext(insert card) > %w", err)
			}
			cardIDs = append(cardIDs, cardID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cardIDs, nil
}

func (s *Store) NoteModel(ctx context.Context, modelID int64) (*hoststore.Model, error) {
	var name string
	err := s.db.GetContext(ctx, &name,
		"SELECT name FROM notetypes WHERE id = ?", modelID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("note type %d: %w", modelID, hoststore.ErrModelNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("db.GetContext(notetype) > %w", err)
	}

	model := &hoststore.Model{ID: modelID, Name: name}
	if err := s.db.SelectContext(ctx, &model.Fields,
		"SELECT name, ord FROM fields WHERE ntid = ? ORDER BY ord", modelID); err != nil {
		return nil, fmt.Errorf("db.SelectContext(fields) > %w", err)
	}
	if err := s.db.SelectContext(ctx, &model.Templates,
		"SELECT name, ord FROM templates WHERE ntid = ? ORDER BY ord", modelID); err != nil {
		return nil, fmt.Errorf("db.SelectContext(templates) > %w", err)
	}
	return model, nil
}

// AddModelField appends a field declaration and grows every existing note of
// the type by one empty value so flds stays aligned with the declarations.
func (s *Store) AddModelField(ctx context.Context, modelID int64, name string) error {
	model, err := s.NoteModel(ctx, modelID)
	if err != nil {
		return err
	}
	if model.HasField(name) {
		return nil
	}

	return database.RunInTx(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO fields (ntid, ord, name) VALUES (?, ?, ?)",
			modelID, len(model.Fields), name); err != nil {
			return fmt.Errorf("tx.ExecContext(insert field) > %w", err)
		}

		var rows []noteRow
		if err := tx.SelectContext(ctx, &rows,
			"SELECT id, mid, flds FROM notes WHERE mid = ?", modelID); err != nil {
			return fmt.Errorf("tx.SelectContext(notes by type) > %w", err)
		}
		for _, row := range rows {
			if _, err := tx.ExecContext(ctx,
				"UPDATE notes SET flds = ?, mod = ?, usn = -1 WHERE id = ?",
				row.Fields+fieldSeparator, s.now().Unix(), row.ID); err != nil {
				return fmt.Errorf("tx.ExecContext(grow note fields) > %w", err)
			}
		}
		return nil
	})
}

func (s *Store) CreateModel(ctx context.Context, model *hoststore.Model) (int64, error) {
	modelID := s.nextRecordID()
	err := database.RunInTx(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO notetypes (id, name) VALUES (?, ?)",
			modelID, model.Name); err != nil {
			return fmt.Errorf("tx.ExecContext(insert notetype) > %w", err)
		}
		for i, field := range model.Fields {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO fields (ntid, ord, name) VALUES (?, ?, ?)",
				modelID, i, field.Name); err != nil {
				return fmt.Errorf("tx.ExecContext(insert field) > %w", err)
			}
		}
		for i, tmpl := range model.Templates {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO templates (ntid, ord, name) VALUES (?, ?, ?)",
				modelID, i, tmpl.Name); err != nil {
				return fmt.Errorf("tx.ExecContext(insert template) > %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	model.ID = modelID
	return modelID, nil
}

// NextDayCutoff implements the review day boundary for the collection
// backend: the next occurrence of the rollover hour in local time.
func (s *Store) NextDayCutoff(_ context.Context) (time.Time, error) {
	now := s.now()
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), s.rolloverHour, 0, 0, 0, now.Location())
	if !cutoff.After(now) {
		cutoff = cutoff.AddDate(0, 0, 1)
	}
	return cutoff, nil
}

// nextRecordID allocates a strictly increasing epoch-millisecond id, the
// collection's id convention for inserted records.
func (s *Store) nextRecordID() int64 {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}
