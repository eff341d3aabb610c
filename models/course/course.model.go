package course

import "gorm.io/gorm"

// Course represents a sellable course in the catalogue
type Course struct {
	gorm.Model
	Title        string    `json:"title"`
	Subtitle     string    `json:"subtitle"`
	Description  string    `json:"description" gorm:"type:text"`
	Category     string    `json:"category"`
	Level        string    `json:"level" gorm:"default:'BEGINNER'"` // BEGINNER, INTERMEDIATE, ADVANCED
	Price        uint      `json:"price" gorm:"default:0"`          // smallest currency unit
	Currency     string    `json:"currency" gorm:"default:'INR'"`
	ThumbnailURL string    `json:"thumbnail_url"`
	InstructorID uint      `json:"instructor_id" gorm:"index;not null"`
	IsPublished  bool      `json:"is_published" gorm:"default:false"`
	IsDeleted    bool      `gorm:"default:false"`
	Lectures     []Lecture `json:"lectures,omitempty" gorm:"foreignKey:CourseID"`
}
