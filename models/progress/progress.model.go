package progress

import (
	"time"

	"gorm.io/gorm"
)

// CourseProgress aggregates lecture completion for one (user, course) pair.
// Created lazily on the first lecture-progress write, never on reads.
type CourseProgress struct {
	gorm.Model
	UserID               uint              `json:"user_id" gorm:"uniqueIndex:idx_progress_user_course;not null"`
	CourseID             uint              `json:"course_id" gorm:"uniqueIndex:idx_progress_user_course;not null"`
	IsCompleted          bool              `json:"is_completed" gorm:"default:false"`
	CompletionPercentage int               `json:"completion_percentage" gorm:"default:0"` // 0-100
	LastAccessed         time.Time         `json:"last_accessed"`
	LectureProgress      []LectureProgress `json:"lecture_progress" gorm:"foreignKey:CourseProgressID"`
}

// LectureProgress is the per-lecture completion record within a CourseProgress.
type LectureProgress struct {
	gorm.Model
	CourseProgressID uint      `json:"-" gorm:"index;not null"`
	LectureID        uint      `json:"lecture_id" gorm:"index;not null"`
	IsCompleted      bool      `json:"is_completed" gorm:"default:false"`
	WatchTime        uint      `json:"watch_time" gorm:"default:0"` // seconds
	LastWatched      time.Time `json:"last_watched"`
}
