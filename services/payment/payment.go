package paymentService

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"lms/gateway"
	courseModels "lms/models/course"
	paymentModels "lms/models/payment"
	"lms/utils"

	"gorm.io/gorm"
)

var (
	ErrCourseNotFound   = errors.New("course not found")
	ErrPurchaseNotFound = errors.New("purchase not found")
	ErrPurchaseFailed   = errors.New("purchase is in failed state")
)

// Service runs the course purchase workflow. The gateway adapter is injected
// once at startup; the service itself holds no request state.
type Service struct {
	db       *gorm.DB
	gw       gateway.Gateway
	currency string
}

func NewService(db *gorm.DB, gw gateway.Gateway, currency string) *Service {
	return &Service{db: db, gw: gw, currency: currency}
}

// CheckoutResult is what checkout hands back to the HTTP layer.
type CheckoutResult struct {
	Order            *gateway.Order               `json:"order,omitempty"`
	Course           courseModels.Course          `json:"course"`
	Purchase         paymentModels.CoursePurchase `json:"purchase"`
	AlreadyPurchased bool                         `json:"already_purchased"`
}

// ConfirmResult is the outcome of a payment confirmation. A signature
// mismatch is a negative result, not an error.
type ConfirmResult struct {
	Verified         bool                         `json:"verified"`
	AlreadyCompleted bool                         `json:"already_completed"`
	Purchase         paymentModels.CoursePurchase `json:"purchase"`
}

// InitiateCheckout creates a pending purchase and a gateway order for the
// course. If the user already owns the course it short-circuits and returns
// the existing entitlement instead of charging again.
func (s *Service) InitiateCheckout(ctx context.Context, userID, courseID uint) (*CheckoutResult, error) {
	db := s.db.WithContext(ctx)

	var crs courseModels.Course
	if err := db.Where("id = ? AND is_deleted = ? AND is_published = ?", courseID, false, true).First(&crs).Error; err != nil {
		return nil, ErrCourseNotFound
	}

	// Already bought: return the entitlement, do not create another order.
	var existing paymentModels.CoursePurchase
	if err := db.Where("user_id = ? AND course_id = ? AND status = ?", userID, courseID, paymentModels.StatusCompleted).
		First(&existing).Error; err == nil {
		return &CheckoutResult{Course: crs, Purchase: existing, AlreadyPurchased: true}, nil
	}

	receipt := utils.GenerateReceiptID(courseID)
	purchase := paymentModels.CoursePurchase{
		UserID:   userID,
		CourseID: courseID,
		Amount:   crs.Price,
		Currency: s.currency,
		Status:   paymentModels.StatusPending,
		Receipt:  receipt,
	}
	if err := db.Create(&purchase).Error; err != nil {
		return nil, err
	}

	order, err := s.gw.CreateOrder(ctx, gateway.OrderRequest{
		Amount:   crs.Price,
		Currency: s.currency,
		Receipt:  receipt,
		Notes: map[string]string{
			"courseId": strconv.FormatUint(uint64(courseID), 10),
			"userId":   strconv.FormatUint(uint64(userID), 10),
		},
	})
	if err != nil {
		// The purchase stays pending; pending rows never grant entitlement
		// and the caller is free to retry checkout.
		return nil, err
	}

	purchase.PaymentOrderID = order.ID
	if err := db.Save(&purchase).Error; err != nil {
		return nil, err
	}

	return &CheckoutResult{Order: order, Course: crs, Purchase: purchase}, nil
}

// ConfirmPurchase verifies the gateway callback signature and, on success,
// completes the purchase and enrolls the user. Confirming an already
// completed purchase is a no-op success so duplicate webhook delivery is safe.
func (s *Service) ConfirmPurchase(ctx context.Context, orderID, paymentID, signature string) (*ConfirmResult, error) {
	if !s.gw.VerifySignature(orderID, paymentID, signature) {
		return &ConfirmResult{Verified: false}, nil
	}

	db := s.db.WithContext(ctx)

	var purchase paymentModels.CoursePurchase
	if err := db.Where("payment_order_id = ?", orderID).First(&purchase).Error; err != nil {
		return nil, ErrPurchaseNotFound
	}

	switch {
	case purchase.Status == paymentModels.StatusCompleted:
		return &ConfirmResult{Verified: true, AlreadyCompleted: true, Purchase: purchase}, nil
	case purchase.Status == paymentModels.StatusFailed:
		return nil, ErrPurchaseFailed
	case !purchase.Status.CanTransition(paymentModels.StatusCompleted):
		return nil, fmt.Errorf("unexpected purchase status %q", purchase.Status)
	}

	won := false
	err := db.Transaction(func(tx *gorm.DB) error {
		// Conditional update keyed on status=pending serializes concurrent
		// confirmations of the same order: exactly one caller flips the row.
		res := tx.Model(&paymentModels.CoursePurchase{}).
			Where("id = ? AND status = ?", purchase.ID, paymentModels.StatusPending).
			Updates(map[string]interface{}{
				"status":     paymentModels.StatusCompleted,
				"payment_id": paymentID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost the race to a concurrent confirmation; it already
			// enrolled the user.
			return nil
		}
		won = true
		return projectEnrollment(tx, purchase.UserID, purchase.CourseID)
	})
	if err != nil {
		return nil, err
	}

	if err := db.First(&purchase, purchase.ID).Error; err != nil {
		return nil, err
	}

	return &ConfirmResult{Verified: true, AlreadyCompleted: !won, Purchase: purchase}, nil
}

// MarkPurchaseFailed moves a pending purchase to failed on a gateway decline
// callback. The callback carries the same signature as a confirmation and is
// verified first; a mismatch is a negative result with no mutation, so an
// unsigned caller holding only the order id cannot kill a pending purchase.
// Terminal purchases are left untouched.
func (s *Service) MarkPurchaseFailed(ctx context.Context, orderID, paymentID, signature string) (bool, error) {
	if !s.gw.VerifySignature(orderID, paymentID, signature) {
		return false, nil
	}

	db := s.db.WithContext(ctx)

	var purchase paymentModels.CoursePurchase
	if err := db.Where("payment_order_id = ?", orderID).First(&purchase).Error; err != nil {
		return true, ErrPurchaseNotFound
	}

	if purchase.Status.IsTerminal() {
		return true, nil
	}

	err := db.Model(&paymentModels.CoursePurchase{}).
		Where("id = ? AND status = ?", purchase.ID, paymentModels.StatusPending).
		Update("status", paymentModels.StatusFailed).Error
	return true, err
}

// HasPurchased reports whether the user holds a completed purchase of the course.
func (s *Service) HasPurchased(ctx context.Context, userID, courseID uint) (bool, error) {
	db := s.db.WithContext(ctx)

	var crs courseModels.Course
	if err := db.Where("id = ? AND is_deleted = ?", courseID, false).First(&crs).Error; err != nil {
		return false, ErrCourseNotFound
	}

	var count int64
	if err := db.Model(&paymentModels.CoursePurchase{}).
		Where("user_id = ? AND course_id = ? AND status = ?", userID, courseID, paymentModels.StatusCompleted).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// PurchasedCourses lists the courses the user has completed purchases for.
func (s *Service) PurchasedCourses(ctx context.Context, userID uint) ([]courseModels.Course, error) {
	var courses []courseModels.Course
	err := s.db.WithContext(ctx).
		Joins("JOIN course_purchases ON course_purchases.course_id = courses.id").
		Where("course_purchases.user_id = ? AND course_purchases.status = ?", userID, paymentModels.StatusCompleted).
		Find(&courses).Error
	return courses, err
}
