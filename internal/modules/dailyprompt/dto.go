package dailyprompt

// UpdatePreferencesRequest is a partial update; nil fields are untouched.
type UpdatePreferencesRequest struct {
	Enabled              *bool   `json:"enabled"`
	DeliveryHour         *int    `json:"delivery_hour"`
	Timezone             *string `json:"timezone"`
	FocusBookID          *string `json:"focus_book_id"`
	EmailFormat          *string `json:"email_format"`
	IncludeCharacter     *bool   `json:"include_character"`
	IncludePlot          *bool   `json:"include_plot"`
	IncludeWorldbuilding *bool   `json:"include_worldbuilding"`
	IncludeDialogue      *bool   `json:"include_dialogue"`
	IncludeConflict      *bool   `json:"include_conflict"`
	IncludeGeneral       *bool   `json:"include_general"`
	FocusUnderdeveloped  *bool   `json:"focus_underdeveloped"`
	AvoidRepetitionDays  *int    `json:"avoid_repetition_days"`
	IncludeContext       *bool   `json:"include_context"`
	IncludePrevAnswers   *bool   `json:"include_previous_answers"`
	SendStreakWarning    *bool   `json:"send_streak_warning"`
	PauseAfterSkips      *int    `json:"pause_after_skips"`
}

// SkipRequest carries an optional reason for skipping today's prompt.
type SkipRequest struct {
	Reason string `json:"reason"`
}
