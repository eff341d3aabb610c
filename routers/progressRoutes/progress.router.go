package progressRoutes

import (
	progressController "lms/controllers/progress"
	"lms/middleware"
	validators "lms/validators/progress"

	"github.com/gofiber/fiber/v2"
)

// SetupProgressRoutes sets up the progress tracking routes
func SetupProgressRoutes(app *fiber.App, ctl *progressController.Controller) {
	progressGroup := app.Group("/progress", middleware.JWTMiddleware)

	progressGroup.Get("/:courseId", validators.CourseParam(), ctl.GetProgress)
	progressGroup.Patch("/:courseId/lecture/:lectureId", validators.LectureParams(), ctl.UpdateLectureProgress)
	progressGroup.Patch("/:courseId/complete", validators.CourseParam(), ctl.MarkCourseCompleted)
	progressGroup.Patch("/:courseId/reset", validators.CourseParam(), ctl.ResetProgress)
}
