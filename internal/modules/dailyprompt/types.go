package dailyprompt

import (
	"time"

	"github.com/storyseed/core/internal/models"
)

// elementTypeFlag maps each story element type to the preference flag that
// gates it. Both the selector and the composer consult this single table.
var elementTypeFlag = map[models.ElementType]func(*models.DailyPromptPreferenceModel) *bool{
	models.ElementCharacter: func(p *models.DailyPromptPreferenceModel) *bool { return p.IncludeCharacter },
	models.ElementLocation:  func(p *models.DailyPromptPreferenceModel) *bool { return p.IncludeWorldbuilding },
	models.ElementPlotPoint: func(p *models.DailyPromptPreferenceModel) *bool { return p.IncludePlot },
	models.ElementItem:      func(p *models.DailyPromptPreferenceModel) *bool { return p.IncludeWorldbuilding },
	models.ElementTheme:     func(p *models.DailyPromptPreferenceModel) *bool { return p.IncludeConflict },
}

// promptTypeFlag maps each prompt category to its gating preference flag.
var promptTypeFlag = map[models.PromptType]func(*models.DailyPromptPreferenceModel) *bool{
	models.PromptCharacterDeepDive: func(p *models.DailyPromptPreferenceModel) *bool { return p.IncludeCharacter },
	models.PromptPlotDevelopment:   func(p *models.DailyPromptPreferenceModel) *bool { return p.IncludePlot },
	models.PromptWorldbuilding:     func(p *models.DailyPromptPreferenceModel) *bool { return p.IncludeWorldbuilding },
	models.PromptDialogue:          func(p *models.DailyPromptPreferenceModel) *bool { return p.IncludeDialogue },
	models.PromptConflictTheme:     func(p *models.DailyPromptPreferenceModel) *bool { return p.IncludeConflict },
	models.PromptGeneral:           func(p *models.DailyPromptPreferenceModel) *bool { return p.IncludeGeneral },
}

// flagAllows treats an unset flag as enabled; only an explicit false excludes.
func flagAllows(flag *bool) bool {
	return flag == nil || *flag
}

func elementTypeAllowed(prefs *models.DailyPromptPreferenceModel, t models.ElementType) bool {
	get, ok := elementTypeFlag[t]
	if !ok {
		return true
	}
	return flagAllows(get(prefs))
}

func promptTypeAllowed(prefs *models.DailyPromptPreferenceModel, t models.PromptType) bool {
	get, ok := promptTypeFlag[t]
	if !ok {
		return true
	}
	return flagAllows(get(prefs))
}

// ElementCandidate is a story element annotated with its response history
// aggregates. ResponseCount counts responses reachable through prompts that
// reference the element; LastResponseAt is the most recent such response.
type ElementCandidate struct {
	Element        models.StoryElementModel
	ResponseCount  int
	LastResponseAt *time.Time
}

// Target is the selector's output: what to write a prompt about.
type Target struct {
	Element    models.StoryElementModel
	Book       models.BookModel
	PromptType models.PromptType
}

// HistoryEntry is one prior question/answer pair for a focus element.
type HistoryEntry struct {
	PromptText   string
	ResponseText string
}
