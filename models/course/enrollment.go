package course

import "gorm.io/gorm"

// Enrollment links a paying user to a course. One row is both sides of the
// relation: the user's enrolled-course set and the course's student set are
// queries over the same table, so they cannot drift apart.
type Enrollment struct {
	gorm.Model
	UserID   uint `json:"user_id" gorm:"uniqueIndex:idx_enrollment_user_course;not null"`
	CourseID uint `json:"course_id" gorm:"uniqueIndex:idx_enrollment_user_course;index;not null"`
}
