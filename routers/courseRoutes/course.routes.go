package courseRoutes

import (
	controllers "lms/controllers/course"
	"lms/middleware"
	validators "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes sets up all course catalogue routes
func SetupCourseRoutes(app *fiber.App) {
	courseGroup := app.Group("/course")

	// Listing and search before the :id route so they are not shadowed
	courseGroup.Get("/list", middleware.JWTMiddleware, validators.CourseList(), controllers.GetAllCourses)
	courseGroup.Get("/search", middleware.JWTMiddleware, controllers.SearchCourses)

	// Course management (instructor)
	courseGroup.Post("/", middleware.JWTMiddleware, validators.CreateCourse(), controllers.CreateCourse)
	courseGroup.Patch("/:id", middleware.JWTMiddleware, validators.GetCourseDetail(), validators.UpdateCourse(), controllers.UpdateCourse)

	// Course details and lectures
	courseGroup.Get("/:id", middleware.JWTMiddleware, validators.GetCourseDetail(), controllers.GetCourseDetails)
	courseGroup.Get("/:id/lectures", middleware.JWTMiddleware, validators.GetCourseDetail(), controllers.GetCourseLectures)
	courseGroup.Post("/:id/lectures", middleware.JWTMiddleware, validators.GetCourseDetail(), validators.AddLecture(), controllers.AddLecture)
}
