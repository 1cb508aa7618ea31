package linkset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Set
	}{
		{
			name: "empty string",
			raw:  "",
			want: Set{},
		},
		{
			name: "whitespace only",
			raw:  "  \n\t",
			want: Set{},
		},
		{
			name: "explicit empty list",
			raw:  "[]",
			want: Set{},
		},
		{
			name: "json null",
			raw:  "null",
			want: Set{},
		},
		{
			name: "not json at all",
			raw:  "not json",
			want: Set{},
		},
		{
			name: "json object instead of array",
			raw:  "{}",
			want: Set{},
		},
		{
			name: "truncated array",
			raw:  `[{"card_id": 1,`,
			want: Set{},
		},
		{
			name: "single record",
			raw:  `[{"card_id":11,"note_id":21,"title":"Krebs cycle","deck":"Biology"}]`,
			want: Set{{CardID: 11, NoteID: 21, Title: "Krebs cycle", Deck: "Biology"}},
		},
		{
			name: "unknown keys are ignored and missing keys default",
			raw:  `[{"card_id":11,"title":"partial","color":"red"}]`,
			want: Set{{CardID: 11, Title: "partial"}},
		},
		{
			name: "insertion order is preserved",
			raw:  `[{"card_id":3},{"card_id":1},{"card_id":2}]`,
			want: Set{{CardID: 3}, {CardID: 1}, {CardID: 2}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode(tt.raw)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncode(t *testing.T) {
	t.Run("empty set encodes to explicit marker", func(t *testing.T) {
		got, err := Encode(Set{})
		require.NoError(t, err)
		assert.Equal(t, "[]", got)

		got, err = Encode(nil)
		require.NoError(t, err)
		assert.Equal(t, "[]", got)
	})

	t.Run("titles are not HTML escaped", func(t *testing.T) {
		got, err := Encode(Set{{CardID: 1, Title: "a < b && c > d"}})
		require.NoError(t, err)
		assert.Contains(t, got, "a < b && c > d")
	})
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		set  Set
	}{
		{
			name: "unicode titles and deck names",
			set: Set{
				{CardID: 1, NoteID: 10, Title: "三羧酸循环 (Krebs)", Deck: "生物::细胞"},
				{CardID: 2, NoteID: 20, Title: "Müller–Lyer illusion", Deck: "Psych::Perception"},
			},
		},
		{
			name: "punctuation and html-like substrings",
			set: Set{
				{CardID: 3, NoteID: 30, Title: `what does "<div>" mean?`, Deck: `Deck "A"`},
				{CardID: 4, NoteID: 40, Title: "a && b || !c; x < y > z", Deck: "CS::Logic"},
			},
		},
		{
			name: "newlines and backslashes",
			set: Set{
				{CardID: 5, NoteID: 50, Title: "line1\nline2\\end", Deck: "Misc"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := Encode(tt.set)
			require.NoError(t, err)
			assert.Equal(t, tt.set, Decode(encoded))
		})
	}
}

func TestSetRemove(t *testing.T) {
	set := Set{{CardID: 1, Title: "a"}, {CardID: 2, Title: "b"}, {CardID: 3, Title: "c"}}

	got := set.Remove(2)
	assert.Equal(t, Set{{CardID: 1, Title: "a"}, {CardID: 3, Title: "c"}}, got)

	// Removing an absent card changes nothing.
	assert.Equal(t, got, got.Remove(99))
}

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "plain text unchanged",
			raw:  "mitochondria",
			want: "mitochondria",
		},
		{
			name: "tags stripped",
			raw:  "<b>ATP</b> synthase <img src=\"x.png\">",
			want: "ATP synthase",
		},
		{
			name: "whitespace collapsed",
			raw:  "  what   is\n\tthe  powerhouse ",
			want: "what is the powerhouse",
		},
		{
			name: "entities resolved",
			raw:  "a &lt; b &amp; c",
			want: "a < b & c",
		},
		{
			name: "nested markup",
			raw:  "<div><span>front</span> side</div>",
			want: "front side",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeTitle(tt.raw))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "abcde", Truncate("abcdefg", 5))
	assert.Equal(t, "三羧酸", Truncate("三羧酸循环", 3))
	assert.Equal(t, "abcdefg", Truncate("abcdefg", 0))

	assert.Equal(t, "abc...", TruncateEllipsis("abcdefg", 3))
	assert.Equal(t, "abc", TruncateEllipsis("abc", 3))
}
