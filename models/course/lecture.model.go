package course

import "gorm.io/gorm"

// Lecture represents one video lecture inside a course
type Lecture struct {
	gorm.Model
	CourseID    uint   `json:"course_id" gorm:"index;not null"`
	Title       string `json:"title"`
	Description string `json:"description"`
	VideoURL    string `json:"video_url"`
	Duration    int64  `json:"duration" gorm:"default:0"` // duration in seconds
	IsPreview   bool   `json:"is_preview" gorm:"default:false"`
	OrderIndex  int    `json:"order_index" gorm:"default:0"` // position within the course
	IsDeleted   bool   `gorm:"default:false"`
}
