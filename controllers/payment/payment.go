package paymentController

import (
	"errors"

	"lms/database"
	"lms/gateway"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	paymentService "lms/services/payment"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
)

// Controller exposes the purchase workflow over HTTP. The service (and the
// gateway adapter inside it) is injected at startup.
type Controller struct {
	svc *paymentService.Service
}

func New(svc *paymentService.Service) *Controller {
	return &Controller{svc: svc}
}

// CreateCheckout initiates a course purchase and returns the gateway order
func (ctl *Controller) CreateCheckout(c *fiber.Ctx) error {
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

	reqData, ok := c.Locals("validatedCheckout").(*struct {
		CourseID uint `json:"courseId" validate:"required"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	result, err := ctl.svc.InitiateCheckout(c.Context(), userID, reqData.CourseID)
	if err != nil {
		var gwErr *gateway.Error
		switch {
		case errors.Is(err, paymentService.ErrCourseNotFound):
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
		case errors.Is(err, gateway.ErrInvalidAmount):
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Course price must be greater than zero!", nil)
		case errors.As(err, &gwErr):
			return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Payment provider unavailable, please retry!", nil)
		default:
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to initiate checkout!", nil)
		}
	}

	if result.AlreadyPurchased {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Course already purchased!", result)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Checkout initiated successfully!", result)
}

// VerifyPayment handles the gateway payment callback
func (ctl *Controller) VerifyPayment(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedVerify").(*struct {
		OrderID   string `json:"orderId" validate:"required"`
		PaymentID string `json:"paymentId" validate:"required"`
		Signature string `json:"signature" validate:"required"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	result, err := ctl.svc.ConfirmPurchase(c.Context(), reqData.OrderID, reqData.PaymentID, reqData.Signature)
	if err != nil {
		switch {
		case errors.Is(err, paymentService.ErrPurchaseNotFound):
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Purchase not found!", nil)
		case errors.Is(err, paymentService.ErrPurchaseFailed):
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Purchase already failed, start a new checkout!", nil)
		default:
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to confirm purchase!", nil)
		}
	}

	if !result.Verified {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Payment verification failed!", nil)
	}

	if result.AlreadyCompleted {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Purchase already completed!", result)
	}

	// Send the enrollment confirmation outside the request path
	var buyer models.User
	var crs courseModels.Course
	if database.Database.Db.First(&buyer, result.Purchase.UserID).Error == nil &&
		database.Database.Db.First(&crs, result.Purchase.CourseID).Error == nil {
		go utils.SendEnrollmentEmail(buyer.Email, buyer.Name, crs.Title)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Purchase completed successfully!", result)
}

// PaymentFailed handles the gateway decline callback. Like VerifyPayment it
// is authenticated by the callback signature, never by a user token.
func (ctl *Controller) PaymentFailed(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedFailed").(*struct {
		OrderID   string `json:"orderId" validate:"required"`
		PaymentID string `json:"paymentId" validate:"required"`
		Signature string `json:"signature" validate:"required"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	verified, err := ctl.svc.MarkPurchaseFailed(c.Context(), reqData.OrderID, reqData.PaymentID, reqData.Signature)
	if err != nil {
		if errors.Is(err, paymentService.ErrPurchaseNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Purchase not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update purchase!", nil)
	}

	if !verified {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Payment verification failed!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Purchase marked as failed.", nil)
}

// GetPurchaseStatus reports whether the user owns the course
func (ctl *Controller) GetPurchaseStatus(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(int)

	purchased, err := ctl.svc.HasPurchased(c.Context(), userID, uint(courseID))
	if err != nil {
		if errors.Is(err, paymentService.ErrCourseNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch purchase status!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Purchase status fetched!", purchased)
}

// GetPurchasedCourses lists all courses the user has bought
func (ctl *Controller) GetPurchasedCourses(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courses, err := ctl.svc.PurchasedCourses(c.Context(), userID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch purchased courses!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Purchased courses fetched!", courses)
}
