package exchange_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studyup/studyup/internal/exchange"
	"github.com/studyup/studyup/internal/models"
)

func TestEncodeDecode_KeepsCardOrder(t *testing.T) {
	cards := []models.Flashcard{
		{ID: "b", Question: "What is H2O?", Answer: "Water", Position: models.Pos(0)},
		{ID: "a", Question: "What is the speed of light?", Answer: "299,792,458 meters per second", Position: models.Pos(1)},
	}

	var buf bytes.Buffer
	require.NoError(t, exchange.Encode(&buf, exchange.NewDocument("Science", cards)))
	assert.Contains(t, buf.String(), "version: 1")
	assert.NotContains(t, buf.String(), "position", "positions are not exported")

	doc, err := exchange.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, "Science", doc.Title)

	got := doc.Flashcards()
	require.Len(t, got, 2)
	assert.Equal(t, "What is H2O?", got[0].Question)
	assert.Equal(t, "299,792,458 meters per second", got[1].Answer)
	assert.Empty(t, got[0].ID)
	assert.Nil(t, got[0].Position)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", "empty document"},
		{"unknown key", "title: x\ncolor: blue\n", "invalid yaml"},
		{"bad version", "version: 7\ntitle: x\n", "unsupported version"},
		{"not a mapping", "- a\n- b\n", "invalid yaml"},
		{"long title", "title: " + strings.Repeat("t", 201) + "\n", "at most 200"},
		{"long question", "cards:\n  - question: " + strings.Repeat("q", 2001) + "\n", "card 0: question must be at most 2000"},
		{"long answer", "cards:\n  - question: ok\n  - answer: " + strings.Repeat("é", 2001) + "\n", "card 1: answer must be at most 2000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := exchange.Decode(strings.NewReader(tt.in))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDecode_VersionOptional(t *testing.T) {
	doc, err := exchange.Decode(strings.NewReader("title: Quick\ncards:\n  - question: Ciao means?\n    answer: Hello/Goodbye\n  - question: ''\n"))
	require.NoError(t, err)
	require.Len(t, doc.Cards, 2)
	assert.Equal(t, "Hello/Goodbye", doc.Cards[0].Answer)
	assert.Equal(t, "", doc.Cards[1].Question)
}

func TestSampleSets(t *testing.T) {
	sets := exchange.SampleSets()
	require.Len(t, sets, 4)

	titles := make([]string, len(sets))
	for i, s := range sets {
		titles[i] = s.Title
		assert.Len(t, s.Cards, 6, s.Title)
		assert.NoError(t, s.Validate())
	}
	assert.Equal(t, []string{"Math Basics", "History", "Science", "Language Basics"}, titles)
	assert.Equal(t, exchange.Card{Question: "What is H2O?", Answer: "Water"}, sets[2].Cards[0])
}

func TestValidate_TextAtLimit(t *testing.T) {
	doc := exchange.Document{Cards: []exchange.Card{{
		Question: strings.Repeat("é", 2000),
		Answer:   strings.Repeat("a", 2000),
	}}}
	assert.NoError(t, doc.Validate())
}
