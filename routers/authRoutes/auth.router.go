package authRoutes

import (
	controllers "lms/controllers/auth"
	"lms/middleware"
	validators "lms/validators/auth"

	"github.com/gofiber/fiber/v2"
)

// SetupAuthRoutes sets up signup/signin and profile routes
func SetupAuthRoutes(app *fiber.App) {
	authGroup := app.Group("/auth")

	authGroup.Post("/signup", validators.Signup(), controllers.Signup)
	authGroup.Post("/signin", validators.Signin(), controllers.Signin)

	userGroup := app.Group("/user")
	userGroup.Get("/profile", middleware.JWTMiddleware, controllers.GetProfile)
}
