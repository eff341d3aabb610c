package paymentService

import (
	courseModels "lms/models/course"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// projectEnrollment grants the user access to the course. The enrollment row
// is the single source of truth for both the user's enrolled-course set and
// the course's student set. Insert uses set-add semantics: re-applying the
// same enrollment is a no-op, which makes at-least-once delivery of the
// purchase-completed event safe. Runs inside the purchase transaction so the
// status flip and the enrollment commit together or not at all.
func projectEnrollment(tx *gorm.DB, userID, courseID uint) error {
	enrollment := courseModels.Enrollment{UserID: userID, CourseID: courseID}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&enrollment).Error
}

// IsEnrolled reports whether the user is enrolled in the course.
func IsEnrolled(db *gorm.DB, userID, courseID uint) bool {
	var count int64
	db.Model(&courseModels.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count)
	return count > 0
}
