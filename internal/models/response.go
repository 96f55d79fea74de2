package models

// ResponseModel is the user's free-text answer to one prompt.
type ResponseModel struct {
	Base
	PromptID     string `json:"prompt_id"     gorm:"index;not null"`
	UserID       string `json:"user_id"       gorm:"index;not null"`
	ResponseText string `json:"response_text" gorm:"type:longtext"`
	WordCount    int    `json:"word_count"    gorm:"default:0"`
}

func (ResponseModel) TableName() string { return "responses" }
