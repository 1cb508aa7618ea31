package collectionstore

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/cardlink/internal/config"
	"github.com/at-ishikawa/cardlink/internal/database"
	"github.com/at-ishikawa/cardlink/internal/hoststore"
)

const schema = `
CREATE TABLE notes (
	id INTEGER PRIMARY KEY,
	mid INTEGER NOT NULL,
	flds TEXT NOT NULL,
	sfld TEXT NOT NULL DEFAULT '',
	mod INTEGER NOT NULL DEFAULT 0,
	usn INTEGER NOT NULL DEFAULT -1
);
CREATE TABLE cards (
	id INTEGER PRIMARY KEY,
	nid INTEGER NOT NULL,
	did INTEGER NOT NULL,
	ord INTEGER NOT NULL DEFAULT 0,
	queue INTEGER NOT NULL DEFAULT 0,
	type INTEGER NOT NULL DEFAULT 0,
	due INTEGER NOT NULL DEFAULT 0,
	mod INTEGER NOT NULL DEFAULT 0,
	usn INTEGER NOT NULL DEFAULT -1
);
CREATE TABLE decks (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL
);
CREATE TABLE revlog (
	id INTEGER PRIMARY KEY,
	cid INTEGER NOT NULL
);
CREATE TABLE notetypes (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL
);
CREATE TABLE fields (
	ntid INTEGER NOT NULL,
	ord INTEGER NOT NULL,
	name TEXT NOT NULL,
	PRIMARY KEY (ntid, ord)
);
CREATE TABLE templates (
	ntid INTEGER NOT NULL,
	ord INTEGER NOT NULL,
	name TEXT NOT NULL,
	PRIMARY KEY (ntid, ord)
);
CREATE TABLE config (
	key TEXT PRIMARY KEY,
	val TEXT NOT NULL
);
`

func newTestStore(t *testing.T) (*Store, *sqlx.DB) {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{
		Driver: "sqlite3",
		Path:   filepath.Join(t.TempDir(), "collection.anki2"),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, db.Close())
	})
	db.MustExec(schema)

	store := New(db, 4)
	store.now = func() time.Time {
		return time.Date(2026, time.March, 10, 15, 0, 0, 0, time.Local)
	}
	return store, db
}

func seedCollection(t *testing.T, db *sqlx.DB) {
	t.Helper()
	db.MustExec("INSERT INTO decks (id, name) VALUES (1, 'Default'), (2, 'Physics'), (3, 'Physics::Electromagnetism')")
	db.MustExec("INSERT INTO notetypes (id, name) VALUES (100, 'Basic')")
	db.MustExec(`INSERT INTO fields (ntid, ord, name) VALUES
		(100, 0, 'Front'), (100, 1, 'Back'), (100, 2, 'LinkedCards')`)
	db.MustExec("INSERT INTO templates (ntid, ord, name) VALUES (100, 0, 'Card 1')")
	db.MustExec("INSERT INTO notes (id, mid, flds, sfld) VALUES (10, 100, 'ohm''s law" + fieldSeparator + "V = IR" + fieldSeparator + "', 'ohm''s law')")
	db.MustExec("INSERT INTO cards (id, nid, did, queue, type, due) VALUES (11, 10, 2, 2, 2, 120)")
}

func TestStore_Card(t *testing.T) {
	store, db := newTestStore(t)
	seedCollection(t, db)
	ctx := context.Background()

	t.Run("resolves scheduling state", func(t *testing.T) {
		card, err := store.Card(ctx, 11)
		require.NoError(t, err)
		assert.Equal(t, &hoststore.Card{
			ID:     11,
			NoteID: 10,
			DeckID: 2,
			Queue:  hoststore.QueueReview,
			Type:   hoststore.CardTypeReview,
			Due:    120,
		}, card)
	})

	t.Run("missing card yields the sentinel", func(t *testing.T) {
		_, err := store.Card(ctx, 9999)
		assert.ErrorIs(t, err, hoststore.ErrCardNotFound)
	})
}

func TestStore_Note(t *testing.T) {
	store, db := newTestStore(t)
	seedCollection(t, db)
	ctx := context.Background()

	t.Run("zips field names with separated values", func(t *testing.T) {
		note, err := store.Note(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(100), note.ModelID)
		assert.Equal(t, []hoststore.NoteField{
			{Name: "Front", Value: "ohm's law"},
			{Name: "Back", Value: "V = IR"},
			{Name: "LinkedCards", Value: ""},
		}, note.Fields)
	})

	t.Run("a note lagging behind its type gets empty trailing fields", func(t *testing.T) {
		db.MustExec("INSERT INTO notes (id, mid, flds, sfld) VALUES (20, 100, 'short', 'short')")
		note, err := store.Note(ctx, 20)
		require.NoError(t, err)
		require.Len(t, note.Fields, 3)
		assert.Equal(t, "short", note.Fields[0].Value)
		assert.Equal(t, "", note.Fields[2].Value)
	})

	t.Run("missing note yields the sentinel", func(t *testing.T) {
		_, err := store.Note(ctx, 9999)
		assert.ErrorIs(t, err, hoststore.ErrNoteNotFound)
	})
}

func TestStore_FindCards(t *testing.T) {
	store, db := newTestStore(t)
	seedCollection(t, db)
	db.MustExec("INSERT INTO notes (id, mid, flds, sfld) VALUES (30, 100, 'kirchhoff" + fieldSeparator + "current law" + fieldSeparator + "', 'kirchhoff')")
	db.MustExec("INSERT INTO cards (id, nid, did) VALUES (31, 30, 2)")
	ctx := context.Background()

	t.Run("substring match over note fields", func(t *testing.T) {
		ids, err := store.FindCards(ctx, "law", 0)
		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{11, 31}, ids)
	})

	t.Run("limit bounds the result", func(t *testing.T) {
		ids, err := store.FindCards(ctx, "law", 1)
		require.NoError(t, err)
		assert.Len(t, ids, 1)
	})

	t.Run("LIKE wildcards in the query are literal", func(t *testing.T) {
		ids, err := store.FindCards(ctx, "%", 0)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}

func TestStore_DeckName(t *testing.T) {
	store, db := newTestStore(t)
	seedCollection(t, db)
	ctx := context.Background()

	name, err := store.DeckName(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Physics::Electromagnetism", name)

	_, err = store.DeckName(ctx, 9999)
	assert.ErrorIs(t, err, hoststore.ErrDeckNotFound)
}

func TestStore_CurrentDeckID(t *testing.T) {
	store, db := newTestStore(t)
	seedCollection(t, db)
	ctx := context.Background()

	t.Run("defaults to deck 1 without a selection", func(t *testing.T) {
		id, err := store.CurrentDeckID(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), id)
	})

	t.Run("reads the stored selection", func(t *testing.T) {
		db.MustExec("INSERT INTO config (key, val) VALUES ('currentDeck', '2')")
		id, err := store.CurrentDeckID(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), id)
	})
}

func TestStore_ReviewsSince(t *testing.T) {
	store, db := newTestStore(t)
	seedCollection(t, db)
	ctx := context.Background()

	cutoff := time.Date(2026, time.March, 10, 4, 0, 0, 0, time.Local)
	db.MustExec("INSERT INTO revlog (id, cid) VALUES (?, 11)", cutoff.Add(-time.Hour).UnixMilli())
	db.MustExec("INSERT INTO revlog (id, cid) VALUES (?, 11)", cutoff.Add(2*time.Hour).UnixMilli())

	ids, err := store.ReviewsSince(ctx, 11, cutoff)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, cutoff.Add(2*time.Hour).UnixMilli(), ids[0])
}

func TestStore_UpdateNote(t *testing.T) {
	store, db := newTestStore(t)
	seedCollection(t, db)
	ctx := context.Background()

	note, err := store.Note(ctx, 10)
	require.NoError(t, err)
	require.True(t, note.SetField("LinkedCards", `[{"card_id":31}]`))
	require.NoError(t, store.UpdateNote(ctx, note))

	var flds string
	require.NoError(t, db.Get(&flds, "SELECT flds FROM notes WHERE id = 10"))
	assert.Equal(t, "ohm's law"+fieldSeparator+"V = IR"+fieldSeparator+`[{"card_id":31}]`, flds)

	t.Run("missing note yields the sentinel", func(t *testing.T) {
		missing := &hoststore.Note{ID: 9999, Fields: note.Fields}
		assert.ErrorIs(t, store.UpdateNote(ctx, missing), hoststore.ErrNoteNotFound)
	})
}

func TestStore_UpdateCardScheduling(t *testing.T) {
	store, db := newTestStore(t)
	seedCollection(t, db)
	ctx := context.Background()

	card, err := store.Card(ctx, 11)
	require.NoError(t, err)
	card.Queue = hoststore.QueueLearning
	card.Type = hoststore.CardTypeLearning
	card.Due = 1700000000
	require.NoError(t, store.UpdateCardScheduling(ctx, card))

	reread, err := store.Card(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, hoststore.QueueLearning, reread.Queue)
	assert.Equal(t, hoststore.CardTypeLearning, reread.Type)
	assert.Equal(t, int64(1700000000), reread.Due)

	var usn int
	require.NoError(t, db.Get(&usn, "SELECT usn FROM cards WHERE id = 11"))
	assert.Equal(t, -1, usn)
}

func TestStore_UnsuspendAndUnbury(t *testing.T) {
	store, db := newTestStore(t)
	seedCollection(t, db)
	ctx := context.Background()

	db.MustExec("INSERT INTO cards (id, nid, did, queue, type) VALUES (40, 10, 2, -1, 2), (41, 10, 2, -2, 1), (42, 10, 2, 2, 2)")

	require.NoError(t, store.UnsuspendCards(ctx, []int64{40, 42}))
	card, err := store.Card(ctx, 40)
	require.NoError(t, err)
	assert.Equal(t, hoststore.QueueReview, card.Queue)

	// Unbury leaves the suspended and ordinary cards alone.
	require.NoError(t, store.UnburyCards(ctx, []int64{41, 42}))
	card, err = store.Card(ctx, 41)
	require.NoError(t, err)
	assert.Equal(t, hoststore.QueueLearning, card.Queue)
	card, err = store.Card(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, hoststore.QueueReview, card.Queue)
}

func TestStore_AddNote(t *testing.T) {
	store, db := newTestStore(t)
	seedCollection(t, db)
	ctx := context.Background()

	note := &hoststore.Note{
		ModelID: 100,
		Fields: []hoststore.NoteField{
			{Name: "Front", Value: "faraday's law"},
			{Name: "Back", Value: "induced EMF"},
			{Name: "LinkedCards", Value: ""},
		},
	}
	cardIDs, err := store.AddNote(ctx, note, 3)
	require.NoError(t, err)
	require.Len(t, cardIDs, 1)
	assert.NotZero(t, note.ID)

	created, err := store.Card(ctx, cardIDs[0])
	require.NoError(t, err)
	assert.Equal(t, note.ID, created.NoteID)
	assert.Equal(t, int64(3), created.DeckID)
	assert.Equal(t, hoststore.QueueNew, created.Queue)

	reread, err := store.Note(ctx, note.ID)
	require.NoError(t, err)
	value, ok := reread.Field("Front")
	require.True(t, ok)
	assert.Equal(t, "faraday's law", value)

	t.Run("unknown note type fails", func(t *testing.T) {
		_, err := store.AddNote(ctx, &hoststore.Note{ModelID: 9999}, 1)
		assert.ErrorIs(t, err, hoststore.ErrModelNotFound)
	})

}

func TestStore_NoteModel(t *testing.T) {
	store, db := newTestStore(t)
	seedCollection(t, db)
	ctx := context.Background()

	model, err := store.NoteModel(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "Basic", model.Name)
	assert.True(t, model.HasField("LinkedCards"))
	require.Len(t, model.Templates, 1)

	_, err = store.NoteModel(ctx, 9999)
	assert.ErrorIs(t, err, hoststore.ErrModelNotFound)
}

func TestStore_AddModelField(t *testing.T) {
	store, db := newTestStore(t)
	seedCollection(t, db)
	ctx := context.Background()

	require.NoError(t, store.AddModelField(ctx, 100, "Source"))

	model, err := store.NoteModel(ctx, 100)
	require.NoError(t, err)
	assert.True(t, model.HasField("Source"))

	// Existing notes grow an aligned empty value.
	note, err := store.Note(ctx, 10)
	require.NoError(t, err)
	require.Len(t, note.Fields, 4)
	assert.Equal(t, "", note.Fields[3].Value)

	t.Run("adding an existing field is a no-op", func(t *testing.T) {
		require.NoError(t, store.AddModelField(ctx, 100, "Source"))
		model, err := store.NoteModel(ctx, 100)
		require.NoError(t, err)
		assert.Len(t, model.Fields, 4)
	})
}

func TestStore_CreateModel(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	id, err := store.CreateModel(ctx, &hoststore.Model{
		Name: "Linked Basic",
		Fields: []hoststore.ModelField{
			{Name: "Front"}, {Name: "Back"}, {Name: "LinkedCards"},
		},
		Templates: []hoststore.ModelTemplate{{Name: "Card 1"}},
	})
	require.NoError(t, err)
	require.NotZero(t, id)

	model, err := store.NoteModel(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Linked Basic", model.Name)
	assert.Len(t, model.Fields, 3)
	assert.Len(t, model.Templates, 1)
}

func TestStore_NextDayCutoff(t *testing.T) {
	store, _ := newTestStore(t)

	cutoff, err := store.NextDayCutoff(context.Background())
	require.NoError(t, err)
	// now is 15:00, rollover hour 4: the next cutoff is tomorrow 04:00.
	assert.Equal(t, time.Date(2026, time.March, 11, 4, 0, 0, 0, time.Local), cutoff)
}

func TestStore_QueryFailures(t *testing.T) {
	rawDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer rawDB.Close()
	store := New(sqlx.NewDb(rawDB, "mysql"), 4)

	t.Run("card query failure is wrapped", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, nid, did, queue, type, due FROM cards").
			WillReturnError(fmt.Errorf("connection refused"))
		_, err := store.Card(context.Background(), 11)
		assert.ErrorContains(t, err, "db.GetContext(card)")
	})

	t.Run("revlog query failure is wrapped", func(t *testing.T) {
		mock.ExpectQuery("SELECT id FROM revlog").
			WillReturnError(fmt.Errorf("connection refused"))
		_, err := store.ReviewsSince(context.Background(), 11, time.Now())
		assert.ErrorContains(t, err, "db.SelectContext(revlog)")
	})
}
