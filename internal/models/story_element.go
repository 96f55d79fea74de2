package models

// ElementType is the fixed vocabulary of story element kinds.
type ElementType string

const (
	ElementCharacter ElementType = "character"
	ElementLocation  ElementType = "location"
	ElementPlotPoint ElementType = "plot_point"
	ElementItem      ElementType = "item"
	ElementTheme     ElementType = "theme"
)

// ElementTypes lists all valid element types.
var ElementTypes = []ElementType{
	ElementCharacter,
	ElementLocation,
	ElementPlotPoint,
	ElementItem,
	ElementTheme,
}

// Valid reports whether t is a known element type.
func (t ElementType) Valid() bool {
	for _, known := range ElementTypes {
		if t == known {
			return true
		}
	}
	return false
}

// StoryElementModel is a named, typed unit of story content inside a book.
type StoryElementModel struct {
	Base
	BookID      string      `json:"book_id"      gorm:"index;not null"`
	UserID      string      `json:"user_id"      gorm:"index;not null"`
	ElementType ElementType `json:"element_type" gorm:"type:varchar(20);index;not null"`
	Name        string      `json:"name"         gorm:"not null"`
	Description string      `json:"description"  gorm:"type:text"`
	Notes       string      `json:"notes"        gorm:"type:text"`
}

func (StoryElementModel) TableName() string { return "story_elements" }
