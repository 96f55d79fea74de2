package models

// BookModel is a writing project that owns story elements and prompts.
type BookModel struct {
	Base
	UserID      string `json:"user_id"     gorm:"index;not null"`
	Title       string `json:"title"       gorm:"not null"`
	Description string `json:"description" gorm:"type:text"`
}

func (BookModel) TableName() string { return "books" }
