package dailyprompt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyseed/core/internal/models"
	"github.com/storyseed/core/internal/pkg/randx"
)

func boolPtr(b bool) *bool { return &b }

func defaultPrefs() *models.DailyPromptPreferenceModel {
	return &models.DailyPromptPreferenceModel{
		UserID:              "u1",
		Enabled:             true,
		FocusUnderdeveloped: true,
		AvoidRepetitionDays: 7,
	}
}

func makeBook(id string) models.BookModel {
	b := models.BookModel{UserID: "u1", Title: "The Hollow Crown"}
	b.ID = id
	return b
}

func makeElement(id, bookID string, t models.ElementType, name string) models.StoryElementModel {
	el := models.StoryElementModel{BookID: bookID, UserID: "u1", ElementType: t, Name: name}
	el.ID = id
	return el
}

func TestTypeFilterFallsBackInsteadOfStarving(t *testing.T) {
	prefs := defaultPrefs()
	prefs.IncludeCharacter = boolPtr(false)
	prefs.IncludePlot = boolPtr(false)
	prefs.IncludeWorldbuilding = boolPtr(false)
	prefs.IncludeConflict = boolPtr(false)
	prefs.IncludeGeneral = boolPtr(false)
	prefs.IncludeDialogue = boolPtr(true)

	books := []models.BookModel{makeBook("b1")}
	candidates := []ElementCandidate{
		{Element: makeElement("e1", "b1", models.ElementCharacter, "Elena")},
		{Element: makeElement("e2", "b1", models.ElementCharacter, "Marcus")},
	}

	// Every element type is disabled; selection must fall back to the full
	// set rather than returning nothing.
	for seed := uint64(0); seed < 20; seed++ {
		target := selectFromCandidates(prefs, books, candidates, nil, randx.Seeded(seed))
		require.NotNil(t, target)
		assert.Equal(t, models.PromptDialogue, target.PromptType)
		assert.Contains(t, []string{"e1", "e2"}, target.Element.ID)
	}
}

func TestUnderdevelopedBiasPicksOnlyBottomThird(t *testing.T) {
	prefs := defaultPrefs()
	books := []models.BookModel{makeBook("b1")}

	candidates := make([]ElementCandidate, 0, 10)
	for i := 0; i < 10; i++ {
		candidates = append(candidates, ElementCandidate{
			Element:       makeElement(string(rune('a'+i)), "b1", models.ElementCharacter, "El"),
			ResponseCount: i,
		})
	}

	rnd := randx.Seeded(42)
	picked := map[int]bool{}
	for i := 0; i < 500; i++ {
		target := selectFromCandidates(prefs, books, candidates, nil, rnd)
		require.NotNil(t, target)
		for _, c := range candidates {
			if c.Element.ID == target.Element.ID {
				picked[c.ResponseCount] = true
			}
		}
	}

	// ceil(10 * 0.3) = 3: only response counts 0, 1, 2 are eligible.
	for count := range picked {
		assert.Less(t, count, 3, "picked element with response count %d", count)
	}
	assert.Len(t, picked, 3, "all three underdeveloped elements should appear over 500 draws")
}

func TestUnderdevelopedTieBreakNeverAnsweredFirst(t *testing.T) {
	older := time.Now().Add(-48 * time.Hour)
	newer := time.Now().Add(-1 * time.Hour)

	candidates := []ElementCandidate{
		{Element: makeElement("answered-new", "b1", models.ElementCharacter, "A"), ResponseCount: 2, LastResponseAt: &newer},
		{Element: makeElement("never", "b1", models.ElementCharacter, "B"), ResponseCount: 2},
		{Element: makeElement("answered-old", "b1", models.ElementCharacter, "C"), ResponseCount: 2, LastResponseAt: &older},
	}

	// ceil(3 * 0.3) = 1: the single pick must be the never-answered element.
	for seed := uint64(0); seed < 10; seed++ {
		chosen := pickUnderdeveloped(randx.Seeded(seed), candidates)
		assert.Equal(t, "never", chosen.Element.ID)
	}
}

func TestRecencyAvoidanceSelectsOnlyUnusedCategory(t *testing.T) {
	prefs := defaultPrefs()
	recent := map[models.PromptType]bool{
		models.PromptCharacterDeepDive: true,
		models.PromptPlotDevelopment:   true,
		models.PromptWorldbuilding:     true,
		models.PromptDialogue:          true,
		models.PromptConflictTheme:     true,
	}

	rnd := randx.Seeded(7)
	for i := 0; i < 500; i++ {
		category, ok := pickCategory(rnd, enabledCategories(prefs), recent)
		require.True(t, ok)
		assert.Equal(t, models.PromptGeneral, category)
	}
}

func TestRecencyRelaxesWhenAllCategoriesUsed(t *testing.T) {
	prefs := defaultPrefs()
	recent := map[models.PromptType]bool{}
	for _, pt := range models.PromptTypes {
		recent[pt] = true
	}

	rnd := randx.Seeded(7)
	seen := map[models.PromptType]bool{}
	for i := 0; i < 500; i++ {
		category, ok := pickCategory(rnd, enabledCategories(prefs), recent)
		require.True(t, ok)
		assert.True(t, category.Valid())
		seen[category] = true
	}
	assert.Len(t, seen, len(models.PromptTypes), "relaxed draw should cover all categories over 500 draws")
}

func TestZeroEnabledCategoriesYieldsNoTarget(t *testing.T) {
	prefs := defaultPrefs()
	prefs.IncludeCharacter = boolPtr(false)
	prefs.IncludePlot = boolPtr(false)
	prefs.IncludeWorldbuilding = boolPtr(false)
	prefs.IncludeDialogue = boolPtr(false)
	prefs.IncludeConflict = boolPtr(false)
	prefs.IncludeGeneral = boolPtr(false)

	books := []models.BookModel{makeBook("b1")}
	candidates := []ElementCandidate{
		{Element: makeElement("e1", "b1", models.ElementCharacter, "Elena")},
	}

	target := selectFromCandidates(prefs, books, candidates, nil, randx.Seeded(1))
	assert.Nil(t, target)
}

func TestSingleElementSingleBook(t *testing.T) {
	prefs := defaultPrefs()
	books := []models.BookModel{makeBook("b1")}
	candidates := []ElementCandidate{
		{Element: makeElement("e1", "b1", models.ElementCharacter, "Elena")},
	}

	target := selectFromCandidates(prefs, books, candidates, nil, randx.Seeded(3))
	require.NotNil(t, target)
	assert.Equal(t, "e1", target.Element.ID)
	assert.Equal(t, "b1", target.Book.ID)
	assert.True(t, target.PromptType.Valid())
}

func TestNoBooksMeansNoTarget(t *testing.T) {
	target := selectFromCandidates(defaultPrefs(), nil, nil, nil, randx.Seeded(1))
	assert.Nil(t, target)
}

func TestFilterKeepsOnlyAllowedTypes(t *testing.T) {
	prefs := defaultPrefs()
	prefs.IncludeWorldbuilding = boolPtr(false)

	candidates := []ElementCandidate{
		{Element: makeElement("e1", "b1", models.ElementCharacter, "Elena")},
		{Element: makeElement("e2", "b1", models.ElementLocation, "The Keep")},
		{Element: makeElement("e3", "b1", models.ElementItem, "The Crown")},
		{Element: makeElement("e4", "b1", models.ElementTheme, "Betrayal")},
	}

	kept := filterByType(prefs, candidates)
	require.Len(t, kept, 2)
	assert.Equal(t, "e1", kept[0].Element.ID)
	assert.Equal(t, "e4", kept[1].Element.ID)
}
