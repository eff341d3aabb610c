package paymentRoutes

import (
	paymentController "lms/controllers/payment"
	"lms/middleware"
	validators "lms/validators/payment"

	"github.com/gofiber/fiber/v2"
)

// SetupPaymentRoutes sets up the purchase workflow routes
func SetupPaymentRoutes(app *fiber.App, ctl *paymentController.Controller) {
	paymentGroup := app.Group("/payment")

	paymentGroup.Post("/checkout", middleware.JWTMiddleware, validators.Checkout(), ctl.CreateCheckout)

	// Gateway callbacks carry their own signature, no JWT
	paymentGroup.Post("/verify", validators.Verify(), ctl.VerifyPayment)
	paymentGroup.Post("/failed", validators.Failed(), ctl.PaymentFailed)

	paymentGroup.Get("/status/:courseId", middleware.JWTMiddleware, validators.CourseParam(), ctl.GetPurchaseStatus)
	paymentGroup.Get("/purchased", middleware.JWTMiddleware, ctl.GetPurchasedCourses)
}
