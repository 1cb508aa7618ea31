package cli

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/cardlink/internal/hoststore"
	"github.com/at-ishikawa/cardlink/internal/linker"
	"github.com/at-ishikawa/cardlink/internal/navigation"
	"github.com/at-ishikawa/cardlink/internal/review"
	"github.com/at-ishikawa/cardlink/internal/testutil"
)

func newStudyFixture(store *testutil.FakeStore, input string) (*StudySessionCLI, *bytes.Buffer) {
	fields := linker.NewFieldStore(store, "LinkedCards")
	reconciler := review.NewReconciler(store, fields, -1, nil, nil)
	var output bytes.Buffer
	session := NewStudySessionCLI(store, reconciler, strings.NewReader(input), &output)
	controller := navigation.NewController(
		store,
		session,
		session,
		session,
		NewTerminalPrompter(session.CLI),
		navigation.Options{SettleDelay: time.Millisecond},
	)
	session.SetController(controller)
	return session, &output
}

func TestStudySessionCLI_QueueOrder(t *testing.T) {
	store := testutil.NewFakeStore()
	store.SeedBasicModel()
	_, newCard := store.SeedNote(1, "new", "")
	_, reviewCard := store.SeedNote(1, "review", "")
	reviewCard.Queue = hoststore.QueueReview
	reviewCard.Type = hoststore.CardTypeReview
	_, learningCard := store.SeedNote(1, "learning due", "")
	learningCard.Queue = hoststore.QueueLearning
	learningCard.Type = hoststore.CardTypeLearning
	learningCard.Due = time.Now().Add(-time.Minute).Unix()
	_, futureCard := store.SeedNote(1, "learning later", "")
	futureCard.Queue = hoststore.QueueLearning
	futureCard.Type = hoststore.CardTypeLearning
	futureCard.Due = time.Now().Add(time.Hour).Unix()
	_, suspendedCard := store.SeedNote(1, "suspended", "")
	suspendedCard.Queue = hoststore.QueueSuspended

	session, _ := newStudyFixture(store, "")
	ctx := context.Background()
	require.NoError(t, session.Reset(ctx))

	assert.Equal(t, []int64{learningCard.ID, reviewCard.ID, newCard.ID}, session.queue)

	t.Run("advance walks the queue in order", func(t *testing.T) {
		card, err := session.CurrentCard(ctx)
		require.NoError(t, err)
		assert.Equal(t, learningCard.ID, card.ID)

		require.NoError(t, session.Advance(ctx))
		card, err = session.CurrentCard(ctx)
		require.NoError(t, err)
		assert.Equal(t, reviewCard.ID, card.ID)
	})

	t.Run("vanished cards are skipped", func(t *testing.T) {
		delete(store.Cards, reviewCard.ID)
		card, err := session.CurrentCard(ctx)
		require.NoError(t, err)
		assert.Equal(t, newCard.ID, card.ID)
	})

	t.Run("exhausted queue reports no current card", func(t *testing.T) {
		require.NoError(t, session.Advance(ctx))
		_, err := session.CurrentCard(ctx)
		assert.ErrorIs(t, err, hoststore.ErrNoCurrentCard)
	})
}

func TestStudySessionCLI_CurrentCardLoadsLazily(t *testing.T) {
	store := testutil.NewFakeStore()
	store.SeedBasicModel()
	_, card := store.SeedNote(1, "only card", "")

	session, _ := newStudyFixture(store, "")
	current, err := session.CurrentCard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, card.ID, current.ID)
}

func TestStudySessionCLI_Session(t *testing.T) {
	ctx := context.Background()

	t.Run("shows front then back and advances on enter", func(t *testing.T) {
		store := testutil.NewFakeStore()
		store.SeedBasicModel()
		store.SeedNote(1, "capital of France", "Paris")

		session, output := newStudyFixture(store, "\n\n")
		require.NoError(t, session.Session(ctx))

		assert.Contains(t, output.String(), "capital of France")
		assert.Contains(t, output.String(), "Paris")
		assert.Empty(t, session.queue)
	})

	t.Run("quit keeps the queue", func(t *testing.T) {
		store := testutil.NewFakeStore()
		store.SeedBasicModel()
		store.SeedNote(1, "front", "back")

		session, _ := newStudyFixture(store, "\nq\n")
		assert.ErrorIs(t, session.Session(ctx), errEnd)
		assert.Len(t, session.queue, 1)
	})

	t.Run("empty queue ends the session", func(t *testing.T) {
		store := testutil.NewFakeStore()
		session, output := newStudyFixture(store, "")
		assert.ErrorIs(t, session.Session(ctx), errEnd)
		assert.Contains(t, output.String(), "No more cards to study!")
	})

	t.Run("lists pending linked cards on the answer side", func(t *testing.T) {
		store := testutil.NewFakeStore()
		store.SeedBasicModel()
		owner, _ := store.SeedNote(1, "circuit basics", "intro")
		_, target := store.SeedNote(1, "ohm's law", "V = IR")
		seedLink(t, store, owner.ID, target.ID, "ohm's law")

		session, output := newStudyFixture(store, "\n\n")
		require.NoError(t, session.Session(ctx))

		assert.Contains(t, output.String(), "Linked cards:")
		assert.Contains(t, output.String(), "not reviewed yet")
	})

	t.Run("reviewed and deleted link lines go to the session output", func(t *testing.T) {
		store := testutil.NewFakeStore()
		store.SeedBasicModel()
		owner, _ := store.SeedNote(1, "circuit basics", "intro")
		_, reviewed := store.SeedNote(1, "ohm's law", "V = IR")
		seedLink(t, store, owner.ID, 9999, "gone")
		seedLink(t, store, owner.ID, reviewed.ID, "ohm's law")
		store.SeedReview(reviewed.ID, time.Now())

		session, output := newStudyFixture(store, "\n\n")
		require.NoError(t, session.Session(ctx))

		assert.Contains(t, output.String(), "reviewed today")
		assert.Contains(t, output.String(), "(deleted)")
	})
}

func TestStudySessionCLI_OpenLinkedItem(t *testing.T) {
	ctx := context.Background()

	t.Run("pending link inside the deck is requeued to the front", func(t *testing.T) {
		store := testutil.NewFakeStore()
		store.SeedBasicModel()
		owner, ownerCard := store.SeedNote(1, "circuit basics", "intro")
		_, target := store.SeedNote(1, "ohm's law", "V = IR")
		target.Queue = hoststore.QueueReview
		target.Type = hoststore.CardTypeReview
		seedLink(t, store, owner.ID, target.ID, "ohm's law")

		// answer reveal, pick link 1
		session, _ := newStudyFixture(store, "\n1\n")
		require.NoError(t, session.Reset(ctx))
		// put the owner's card at the head so Advance moves past it
		session.queue = []int64{ownerCard.ID, target.ID}
		require.NoError(t, session.Session(ctx))

		require.Len(t, store.SchedulingWrites, 1)
		assert.Equal(t, target.ID, store.SchedulingWrites[0].ID)
		assert.Equal(t, hoststore.QueueLearning, store.SchedulingWrites[0].Queue)
	})

	t.Run("reviewed link opens an inline preview", func(t *testing.T) {
		store := testutil.NewFakeStore()
		store.SeedBasicModel()
		owner, _ := store.SeedNote(1, "circuit basics", "intro")
		_, target := store.SeedNote(1, "ohm's law", "V = IR")
		seedLink(t, store, owner.ID, target.ID, "ohm's law")
		store.SeedReview(target.ID, time.Now())

		session, output := newStudyFixture(store, "\n1\n")
		require.NoError(t, session.Session(ctx))

		assert.Contains(t, output.String(), "--- preview ---")
		assert.Contains(t, output.String(), "Front: ohm's law")
		assert.Empty(t, store.SchedulingWrites)
	})

	t.Run("out of range number is rejected", func(t *testing.T) {
		store := testutil.NewFakeStore()
		store.SeedBasicModel()
		owner, _ := store.SeedNote(1, "circuit basics", "intro")
		_, target := store.SeedNote(1, "ohm's law", "V = IR")
		seedLink(t, store, owner.ID, target.ID, "ohm's law")

		session, output := newStudyFixture(store, "\n5\n")
		require.NoError(t, session.Session(ctx))
		assert.Contains(t, output.String(), "Pick a linked card number.")
	})

	t.Run("deleted link cannot be opened", func(t *testing.T) {
		store := testutil.NewFakeStore()
		store.SeedBasicModel()
		owner, _ := store.SeedNote(1, "circuit basics", "intro")
		seedLink(t, store, owner.ID, 9999, "gone")

		session, output := newStudyFixture(store, "\n1\n")
		require.NoError(t, session.Session(ctx))
		assert.Contains(t, output.String(), "That linked card cannot be opened.")
		assert.Empty(t, store.SchedulingWrites)
	})
}

func TestTerminalPrompter(t *testing.T) {
	t.Run("y confirms", func(t *testing.T) {
		var output bytes.Buffer
		prompter := NewTerminalPrompter(newCLI(strings.NewReader("y\n"), &output))
		ok, err := prompter.Confirm("Switch to this card?")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Contains(t, output.String(), "Switch to this card? (y/N):")
	})

	t.Run("anything else declines", func(t *testing.T) {
		prompter := NewTerminalPrompter(newCLI(strings.NewReader("\n"), &bytes.Buffer{}))
		ok, err := prompter.Confirm("Switch to this card?")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("info writes the message", func(t *testing.T) {
		var output bytes.Buffer
		prompter := NewTerminalPrompter(newCLI(strings.NewReader(""), &output))
		prompter.Info("linked card opened")
		assert.Equal(t, "linked card opened\n", output.String())
	})
}

func seedLink(t *testing.T, store *testutil.FakeStore, noteID, cardID int64, title string) {
	t.Helper()
	registry := linker.NewRegistry(store, linker.NewFieldStore(store, "LinkedCards"), 50, 40)
	note, err := store.Note(context.Background(), noteID)
	require.NoError(t, err)
	if _, ok := store.Cards[cardID]; ok {
		require.NoError(t, registry.AddLink(context.Background(), note, cardID, title))
		return
	}
	// Seed a dangling record directly: AddLink refuses vanished targets.
	raw := fmt.Sprintf(`[{"card_id":%d,"note_id":0,"title":%q,"deck":"Default"}]`, cardID, title)
	require.True(t, note.SetField("LinkedCards", raw))
	require.NoError(t, store.UpdateNote(context.Background(), note))
}
