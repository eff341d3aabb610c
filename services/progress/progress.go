package progressService

import (
	"context"
	"errors"
	"math"
	"time"

	courseModels "lms/models/course"
	progressModels "lms/models/progress"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrCourseNotFound   = errors.New("course not found")
	ErrLectureNotFound  = errors.New("lecture not found")
	ErrProgressNotFound = errors.New("course progress not found")
)

// Service tracks per-user, per-course lecture completion.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Snapshot is the read model for progress. A user who never touched the
// course gets the zero snapshot; no record is created on reads.
type Snapshot struct {
	LectureProgress      []progressModels.LectureProgress `json:"lecture_progress"`
	IsCompleted          bool                             `json:"is_completed"`
	CompletionPercentage int                              `json:"completion_percentage"`
}

// RecordLectureProgress marks a lecture completed for the user, creating the
// course progress record on first write. The aggregate percentage is
// recomputed from the stored entries after every mutation.
func (s *Service) RecordLectureProgress(ctx context.Context, userID, courseID, lectureID, watchTime uint) (*progressModels.CourseProgress, error) {
	db := s.db.WithContext(ctx)

	// The lecture must belong to this course; a lecture from another course
	// must never count toward this course's completion.
	var lecture courseModels.Lecture
	if err := db.Where("id = ? AND course_id = ? AND is_deleted = ?", lectureID, courseID, false).First(&lecture).Error; err != nil {
		return nil, ErrLectureNotFound
	}

	var cp progressModels.CourseProgress
	err := db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		err := lockForUpdate(tx).
			Preload("LectureProgress").
			Where("user_id = ? AND course_id = ?", userID, courseID).
			First(&cp).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// First write for this (user, course): lazy create.
			cp = progressModels.CourseProgress{
				UserID:       userID,
				CourseID:     courseID,
				IsCompleted:  false,
				LastAccessed: now,
			}
			if err := tx.Create(&cp).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		// Linear scan over the entries; there is no uniqueness constraint,
		// lookup-before-insert keeps one entry per lecture.
		found := false
		for i := range cp.LectureProgress {
			if cp.LectureProgress[i].LectureID == lectureID {
				cp.LectureProgress[i].IsCompleted = true
				cp.LectureProgress[i].WatchTime += watchTime
				cp.LectureProgress[i].LastWatched = now
				found = true
				break
			}
		}
		if !found {
			cp.LectureProgress = append(cp.LectureProgress, progressModels.LectureProgress{
				CourseProgressID: cp.ID,
				LectureID:        lectureID,
				IsCompleted:      true,
				WatchTime:        watchTime,
				LastWatched:      now,
			})
		}

		cp.LastAccessed = now
		if err := recomputeCompletion(tx, &cp); err != nil {
			return err
		}

		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(&cp).Error
	})
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

// MarkCourseCompleted sets every lecture entry and the aggregate to
// completed. The percentage is forced to 100 rather than recomputed so the
// aggregate can never disagree with the completed flag.
func (s *Service) MarkCourseCompleted(ctx context.Context, userID, courseID uint) (*progressModels.CourseProgress, error) {
	var cp progressModels.CourseProgress
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := lockForUpdate(tx).
			Preload("LectureProgress").
			Where("user_id = ? AND course_id = ?", userID, courseID).
			First(&cp).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProgressNotFound
		} else if err != nil {
			return err
		}

		for i := range cp.LectureProgress {
			cp.LectureProgress[i].IsCompleted = true
		}
		cp.IsCompleted = true
		cp.CompletionPercentage = 100
		cp.LastAccessed = time.Now()

		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(&cp).Error
	})
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

// ResetProgress clears every lecture entry and the aggregate.
func (s *Service) ResetProgress(ctx context.Context, userID, courseID uint) (*progressModels.CourseProgress, error) {
	var cp progressModels.CourseProgress
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := lockForUpdate(tx).
			Preload("LectureProgress").
			Where("user_id = ? AND course_id = ?", userID, courseID).
			First(&cp).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProgressNotFound
		} else if err != nil {
			return err
		}

		for i := range cp.LectureProgress {
			cp.LectureProgress[i].IsCompleted = false
		}
		cp.IsCompleted = false
		cp.CompletionPercentage = 0
		cp.LastAccessed = time.Now()

		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(&cp).Error
	})
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

// GetProgress returns the progress snapshot for the course. Absent progress
// yields the zero snapshot; reads never create records, only writes do.
func (s *Service) GetProgress(ctx context.Context, userID, courseID uint) (*Snapshot, error) {
	db := s.db.WithContext(ctx)

	var crs courseModels.Course
	if err := db.Where("id = ? AND is_deleted = ?", courseID, false).First(&crs).Error; err != nil {
		return nil, ErrCourseNotFound
	}

	var cp progressModels.CourseProgress
	err := db.Preload("LectureProgress").
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&cp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &Snapshot{LectureProgress: []progressModels.LectureProgress{}}, nil
	} else if err != nil {
		return nil, err
	}

	return &Snapshot{
		LectureProgress:      cp.LectureProgress,
		IsCompleted:          cp.IsCompleted,
		CompletionPercentage: cp.CompletionPercentage,
	}, nil
}

// recomputeCompletion refreshes the aggregate from the loaded entries.
// percentage = round(100 * completed / total), ties round half to even.
// Courses with zero lectures keep their previous percentage untouched.
func recomputeCompletion(tx *gorm.DB, cp *progressModels.CourseProgress) error {
	var total int64
	if err := tx.Model(&courseModels.Lecture{}).
		Where("course_id = ? AND is_deleted = ?", cp.CourseID, false).
		Count(&total).Error; err != nil {
		return err
	}
	if total == 0 {
		return nil
	}

	completed := 0
	for _, lp := range cp.LectureProgress {
		if lp.IsCompleted {
			completed++
		}
	}

	cp.CompletionPercentage = int(math.RoundToEven(float64(completed) * 100 / float64(total)))
	cp.IsCompleted = cp.CompletionPercentage == 100
	return nil
}

// lockForUpdate takes a row lock so concurrent writers for the same
// (user, course) key are serialized and the percentage recompute never loses
// an update. SQLite has no FOR UPDATE; its single-writer model already
// serializes the transaction.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
