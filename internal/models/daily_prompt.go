package models

import "time"

// Email formats for scheduled prompt deliveries.
const (
	EmailFormatMinimal       = "minimal"
	EmailFormatDetailed      = "detailed"
	EmailFormatInspirational = "inspirational"
)

// ValidEmailFormat reports whether f is a known email format.
func ValidEmailFormat(f string) bool {
	return f == EmailFormatMinimal || f == EmailFormatDetailed || f == EmailFormatInspirational
}

// DailyPromptPreferenceModel governs the daily delivery cycle for one user.
// Include flags are tri-state pointers: nil means "not set", which the
// selector treats as enabled.
type DailyPromptPreferenceModel struct {
	Base
	UserID               string     `json:"user_id"                gorm:"uniqueIndex;not null"`
	Enabled              bool       `json:"enabled"                gorm:"default:false"`
	DeliveryHour         int        `json:"delivery_hour"          gorm:"default:8"` // 0-23, local to Timezone
	Timezone             string     `json:"timezone"               gorm:"default:'UTC'"`
	FocusBookID          *string    `json:"focus_book_id"          gorm:"index"`
	EmailFormat          string     `json:"email_format"           gorm:"type:varchar(20);default:'detailed'"`
	IncludeCharacter     *bool      `json:"include_character"`
	IncludePlot          *bool      `json:"include_plot"`
	IncludeWorldbuilding *bool      `json:"include_worldbuilding"`
	IncludeDialogue      *bool      `json:"include_dialogue"`
	IncludeConflict      *bool      `json:"include_conflict"`
	IncludeGeneral       *bool      `json:"include_general"`
	FocusUnderdeveloped  bool       `json:"focus_underdeveloped"   gorm:"default:true"`
	AvoidRepetitionDays  int        `json:"avoid_repetition_days"  gorm:"default:7"`
	IncludeContext       bool       `json:"include_context"        gorm:"default:true"`
	IncludePrevAnswers   bool       `json:"include_previous_answers" gorm:"default:true"`
	SendStreakWarning    bool       `json:"send_streak_warning"    gorm:"default:false"`
	PauseAfterSkips      int        `json:"pause_after_skips"      gorm:"default:5"`
	ConsecutiveSkips     int        `json:"consecutive_skips"      gorm:"default:0"`
	LastPromptSentAt     *time.Time `json:"last_prompt_sent_at"`
}

func (DailyPromptPreferenceModel) TableName() string { return "daily_prompt_preferences" }

// DailyPromptSentModel records one scheduled-delivery attempt and its outcome.
// SentDate is the UTC calendar day for real deliveries and NULL for test
// sends, so the unique index admits at most one real delivery per user per
// day while allowing any number of test sends.
type DailyPromptSentModel struct {
	Base
	UserID      string     `json:"user_id"      gorm:"not null;index;uniqueIndex:idx_daily_sent_user_date"`
	PromptID    string     `json:"prompt_id"    gorm:"index;not null"`
	ElementID   string     `json:"element_id"   gorm:"index"`
	PromptType  PromptType `json:"prompt_type"  gorm:"type:varchar(30);index"`
	EmailFormat string     `json:"email_format" gorm:"type:varchar(20)"`
	SentAt      time.Time  `json:"sent_at"`
	SentDate    *string    `json:"sent_date"    gorm:"type:varchar(10);uniqueIndex:idx_daily_sent_user_date"`
	IsTest      bool       `json:"is_test"      gorm:"default:false"`
	MessageID   string     `json:"message_id"`
	OpenedAt    *time.Time `json:"opened_at"`
	RespondedAt *time.Time `json:"responded_at"`
	Skipped     bool       `json:"skipped"      gorm:"default:false"`
	SkipReason  string     `json:"skip_reason"`
}

func (DailyPromptSentModel) TableName() string { return "daily_prompts_sent" }
