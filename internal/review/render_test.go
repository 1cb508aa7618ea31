package review

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/cardlink/internal/linker"
	"github.com/at-ishikawa/cardlink/internal/linkset"
	"github.com/at-ishikawa/cardlink/internal/testutil"
)

func TestRenderer_Render(t *testing.T) {
	renderer, err := NewRenderer("", "pycmd")
	require.NoError(t, err)

	t.Run("activatable item carries its bridge command", func(t *testing.T) {
		got, err := renderer.Render([]DisplayItem{
			{Title: "ohm's law", Deck: "Physics", Status: StatusReviewed, Command: "linked_card:42:true"},
		})
		require.NoError(t, err)
		assert.Contains(t, got, "pycmd(")
		assert.Contains(t, got, "linked_card:42:true")
		assert.Contains(t, got, "ohm")
		assert.Contains(t, got, "✅")
		assert.NotContains(t, got, `class="linked-card-item linked-card-inert"`)
	})

	t.Run("inert item renders without an onclick handler", func(t *testing.T) {
		got, err := renderer.Render([]DisplayItem{
			{Title: "removed card", Deck: "Old", Status: StatusDeleted},
		})
		require.NoError(t, err)
		assert.Contains(t, got, `class="linked-card-item linked-card-inert"`)
		assert.Contains(t, got, "deleted")
		assert.NotContains(t, got, "onclick")
	})

	t.Run("titles are HTML escaped", func(t *testing.T) {
		got, err := renderer.Render([]DisplayItem{
			{Title: `a <b> & "quoted" title`, Deck: "Default", Status: StatusPending, Command: "linked_card:7:false"},
		})
		require.NoError(t, err)
		assert.NotContains(t, got, "<b>")
		assert.Contains(t, got, "&lt;b&gt;")
	})
}

func TestReconciler_RenderAnswer(t *testing.T) {
	now := time.Date(2026, time.March, 10, 15, 0, 0, 0, time.Local)
	const answer = "<div>the answer</div>"

	newRenderingReconciler := func(t *testing.T, store *testutil.FakeStore) *Reconciler {
		t.Helper()
		renderer, err := NewRenderer("", "pycmd")
		require.NoError(t, err)
		fields := linker.NewFieldStore(store, linkField)
		r := NewReconciler(store, fields, -1, nil, renderer)
		r.now = func() time.Time { return now }
		return r
	}

	t.Run("appends the block on the answer side", func(t *testing.T) {
		store := testutil.NewFakeStore()
		store.SeedBasicModel()
		_, target := store.SeedNote(1, "target front", "back")
		note := seedLinkedNote(t, store, linkset.Set{
			{CardID: target.ID, NoteID: target.NoteID, Title: "target front", Deck: "Default"},
		})

		reconciler := newRenderingReconciler(t, store)
		got := reconciler.RenderAnswer(context.Background(), answer, note.ID, ContextReviewAnswer)

		assert.Contains(t, got, answer)
		assert.Contains(t, got, "linked-cards-container")
		assert.Contains(t, got, "target front")
	})

	t.Run("question side is left untouched", func(t *testing.T) {
		store := testutil.NewFakeStore()
		store.SeedBasicModel()
		note, _ := store.SeedNote(1, "front", "back")

		reconciler := newRenderingReconciler(t, store)
		assert.Equal(t, answer, reconciler.RenderAnswer(context.Background(), answer, note.ID, "reviewQuestion"))
	})

	t.Run("a note without links renders the answer unchanged", func(t *testing.T) {
		store := testutil.NewFakeStore()
		store.SeedBasicModel()
		note, _ := store.SeedNote(1, "front", "back")

		reconciler := newRenderingReconciler(t, store)
		assert.Equal(t, answer, reconciler.RenderAnswer(context.Background(), answer, note.ID, ContextReviewAnswer))
	})

	t.Run("a note load failure returns the answer unchanged", func(t *testing.T) {
		store := testutil.NewFakeStore()
		store.SeedBasicModel()
		note, _ := store.SeedNote(1, "front", "back")
		store.NoteErrs[note.ID] = errors.New("collection locked")

		reconciler := newRenderingReconciler(t, store)
		assert.Equal(t, answer, reconciler.RenderAnswer(context.Background(), answer, note.ID, ContextReviewAnswer))
	})
}
