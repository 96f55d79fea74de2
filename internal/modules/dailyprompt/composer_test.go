package dailyprompt

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyseed/core/internal/models"
	"github.com/storyseed/core/internal/modules/ai"
	"github.com/storyseed/core/internal/pkg/randx"
)

type fakeGenerator struct {
	text    string
	err     error
	lastReq ai.GenerateRequest
	calls   int
}

func (f *fakeGenerator) GenerateText(_ context.Context, req ai.GenerateRequest) (string, error) {
	f.lastReq = req
	f.calls++
	return f.text, f.err
}

func elena() models.StoryElementModel {
	el := models.StoryElementModel{
		BookID:      "b1",
		UserID:      "u1",
		ElementType: models.ElementCharacter,
		Name:        "Elena",
		Description: "A disgraced cartographer.",
	}
	el.ID = "e1"
	return el
}

func TestComposeFallsBackOnEmptyOutput(t *testing.T) {
	gen := &fakeGenerator{text: "   "}
	c := NewComposer(gen, randx.Seeded(1))

	text, err := c.Compose(context.Background(), BookContext{Title: "Maps"}, models.PromptGeneral,
		[]models.StoryElementModel{elena()}, nil, nil)

	require.NoError(t, err)
	assert.Equal(t, FallbackPrompt, text)
}

func TestComposePropagatesProviderFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("connection refused")}
	c := NewComposer(gen, randx.Seeded(1))

	_, err := c.Compose(context.Background(), BookContext{Title: "Maps"}, models.PromptGeneral,
		[]models.StoryElementModel{elena()}, nil, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProvider)
}

func TestComposeContextBlockForDialogue(t *testing.T) {
	gen := &fakeGenerator{text: "How does Elena greet strangers?"}
	c := NewComposer(gen, randx.Seeded(1))

	text, err := c.Compose(context.Background(), BookContext{Title: "Maps"}, models.PromptDialogue,
		[]models.StoryElementModel{elena()}, nil, nil)

	require.NoError(t, err)
	assert.Equal(t, "How does Elena greet strangers?", text)
	assert.Contains(t, gen.lastReq.Prompt, `CHARACTER: "Elena"`)
	assert.NotContains(t, gen.lastReq.Prompt, "PREVIOUS QUESTIONS")
}

func TestComposeDecodingParameters(t *testing.T) {
	gen := &fakeGenerator{text: "ok"}
	c := NewComposer(gen, randx.Seeded(1))

	_, err := c.Compose(context.Background(), BookContext{Title: "Maps"}, models.PromptWorldbuilding,
		[]models.StoryElementModel{elena()}, nil, nil)

	require.NoError(t, err)
	assert.InDelta(t, 0.8, gen.lastReq.Temperature, 1e-9)
	assert.Equal(t, 300, gen.lastReq.MaxTokens)
	assert.NotEmpty(t, gen.lastReq.System)
}

func TestComposeTruncatesLongHistory(t *testing.T) {
	long := strings.Repeat("x", 450)
	history := map[string][]HistoryEntry{
		"e1": {{PromptText: "What drives Elena?", ResponseText: long}},
	}

	gen := &fakeGenerator{text: "ok"}
	c := NewComposer(gen, randx.Seeded(1))

	_, err := c.Compose(context.Background(), BookContext{Title: "Maps"}, models.PromptCharacterDeepDive,
		[]models.StoryElementModel{elena()}, history, nil)

	require.NoError(t, err)
	assert.Contains(t, gen.lastReq.Prompt, "PREVIOUS QUESTIONS AND ANSWERS")
	assert.Contains(t, gen.lastReq.Prompt, strings.Repeat("x", 400)+"...")
	assert.NotContains(t, gen.lastReq.Prompt, strings.Repeat("x", 401))
}

func TestComposeShortHistoryNotTruncated(t *testing.T) {
	history := map[string][]HistoryEntry{
		"e1": {{PromptText: "Q", ResponseText: "short answer"}},
	}

	gen := &fakeGenerator{text: "ok"}
	c := NewComposer(gen, randx.Seeded(1))

	_, err := c.Compose(context.Background(), BookContext{Title: "Maps"}, models.PromptCharacterDeepDive,
		[]models.StoryElementModel{elena()}, history, nil)

	require.NoError(t, err)
	assert.Contains(t, gen.lastReq.Prompt, "A: short answer")
	assert.NotContains(t, gen.lastReq.Prompt, "short answer...")
}

func TestComposeLimitsHistoryEntries(t *testing.T) {
	entries := make([]HistoryEntry, 5)
	for i := range entries {
		entries[i] = HistoryEntry{PromptText: "Q" + strings.Repeat("!", i+1), ResponseText: "A"}
	}

	gen := &fakeGenerator{text: "ok"}
	c := NewComposer(gen, randx.Seeded(1))

	_, err := c.Compose(context.Background(), BookContext{Title: "Maps"}, models.PromptGeneral,
		[]models.StoryElementModel{elena()}, map[string][]HistoryEntry{"e1": entries}, nil)

	require.NoError(t, err)
	assert.Contains(t, gen.lastReq.Prompt, "Q!!!")
	assert.NotContains(t, gen.lastReq.Prompt, "Q!!!!")
}

func TestComposeRequiresFocusElement(t *testing.T) {
	gen := &fakeGenerator{text: "ok"}
	c := NewComposer(gen, randx.Seeded(1))

	_, err := c.Compose(context.Background(), BookContext{Title: "Maps"}, models.PromptGeneral, nil, nil, nil)
	require.Error(t, err)
	assert.Zero(t, gen.calls)
}

func TestComposePicksAllowedFocusFromMany(t *testing.T) {
	keep := elena()
	loc := models.StoryElementModel{BookID: "b1", UserID: "u1", ElementType: models.ElementLocation, Name: "The Keep"}
	loc.ID = "e2"

	prefs := defaultPrefs()
	prefs.IncludeWorldbuilding = boolPtr(false)

	gen := &fakeGenerator{text: "ok"}
	c := NewComposer(gen, randx.Seeded(1))

	for i := 0; i < 20; i++ {
		_, err := c.Compose(context.Background(), BookContext{Title: "Maps"}, models.PromptGeneral,
			[]models.StoryElementModel{keep, loc}, nil, prefs)
		require.NoError(t, err)
		assert.Contains(t, gen.lastReq.Prompt, `CHARACTER: "Elena"`)
		assert.NotContains(t, gen.lastReq.Prompt, "The Keep")
	}
}
