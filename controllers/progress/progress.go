package progressController

import (
	"errors"

	"lms/database"
	"lms/middleware"
	"lms/models"
	progressService "lms/services/progress"

	"github.com/gofiber/fiber/v2"
)

// Controller exposes progress tracking over HTTP.
type Controller struct {
	svc *progressService.Service
}

func New(svc *progressService.Service) *Controller {
	return &Controller{svc: svc}
}

// GetProgress returns the user's progress snapshot for a course
func (ctl *Controller) GetProgress(c *fiber.Ctx) error {
	// Retrieve userId from JWT middleware
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	// Check if user exists
	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	courseID := c.Locals("courseID").(int)

	snapshot, err := ctl.svc.GetProgress(c.Context(), userID, uint(courseID))
	if err != nil {
		if errors.Is(err, progressService.ErrCourseNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch progress!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", snapshot)
}

// UpdateLectureProgress marks a lecture completed for the user
func (ctl *Controller) UpdateLectureProgress(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(int)
	lectureID := c.Locals("lectureID").(int)
	watchTime := c.QueryInt("watch_time", 0)
	if watchTime < 0 {
		watchTime = 0
	}

	cp, err := ctl.svc.RecordLectureProgress(c.Context(), userID, uint(courseID), uint(lectureID), uint(watchTime))
	if err != nil {
		if errors.Is(err, progressService.ErrLectureNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lecture not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update lecture progress!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lecture progress updated successfully!", fiber.Map{
		"lecture_progress":      cp.LectureProgress,
		"is_completed":          cp.IsCompleted,
		"completion_percentage": cp.CompletionPercentage,
	})
}

// MarkCourseCompleted marks every lecture of the course completed
func (ctl *Controller) MarkCourseCompleted(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(int)

	cp, err := ctl.svc.MarkCourseCompleted(c.Context(), userID, uint(courseID))
	if err != nil {
		if errors.Is(err, progressService.ErrProgressNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course progress not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to mark course as completed!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course marked as completed!", cp)
}

// ResetProgress clears the user's progress for the course
func (ctl *Controller) ResetProgress(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(int)

	cp, err := ctl.svc.ResetProgress(c.Context(), userID, uint(courseID))
	if err != nil {
		if errors.Is(err, progressService.ErrProgressNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course progress not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to reset course progress!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course progress reset!", cp)
}
