package models

import "time"

// PromptType is one of the six fixed question categories.
type PromptType string

const (
	PromptCharacterDeepDive PromptType = "character_deep_dive"
	PromptPlotDevelopment   PromptType = "plot_development"
	PromptWorldbuilding     PromptType = "worldbuilding"
	PromptDialogue          PromptType = "dialogue"
	PromptConflictTheme     PromptType = "conflict_theme"
	PromptGeneral           PromptType = "general"
)

// PromptTypes lists all categories in a stable order.
var PromptTypes = []PromptType{
	PromptCharacterDeepDive,
	PromptPlotDevelopment,
	PromptWorldbuilding,
	PromptDialogue,
	PromptConflictTheme,
	PromptGeneral,
}

// Valid reports whether t is a known prompt type.
func (t PromptType) Valid() bool {
	for _, known := range PromptTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Prompt mode: how the prompt came to exist.
const (
	PromptModeScheduled   = "scheduled"
	PromptModeInteractive = "interactive"
)

// PromptModel is one generated writing question. Immutable once written,
// except for being referenced by responses.
type PromptModel struct {
	Base
	UserID      string      `json:"user_id"      gorm:"index;not null"`
	BookID      string      `json:"book_id"      gorm:"index;not null"`
	PromptText  string      `json:"prompt_text"  gorm:"type:text;not null"`
	PromptType  PromptType  `json:"prompt_type"  gorm:"type:varchar(30);index;not null"`
	PromptMode  string      `json:"prompt_mode"  gorm:"type:varchar(20);default:'interactive'"`
	ElementRefs StringArray `json:"element_refs" gorm:"type:json;serializer:json"`
	GeneratedAt time.Time   `json:"generated_at"`
}

func (PromptModel) TableName() string { return "prompts" }
