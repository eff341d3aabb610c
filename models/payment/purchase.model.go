package payment

import "gorm.io/gorm"

// PurchaseStatus is the closed set of purchase lifecycle states.
type PurchaseStatus string

const (
	StatusPending   PurchaseStatus = "pending"
	StatusCompleted PurchaseStatus = "completed"
	StatusFailed    PurchaseStatus = "failed"
)

// CanTransition reports whether moving to the target status is a legal
// lifecycle step. Completed and failed are terminal.
func (s PurchaseStatus) CanTransition(to PurchaseStatus) bool {
	switch s {
	case StatusPending:
		return to == StatusCompleted || to == StatusFailed
	case StatusCompleted, StatusFailed:
		return false
	default:
		return false
	}
}

// IsTerminal reports whether no further status changes are allowed.
func (s PurchaseStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CoursePurchase records one attempt to buy one course by one user.
// Rows are never deleted; they are the payment audit trail.
type CoursePurchase struct {
	gorm.Model
	UserID         uint           `json:"user_id" gorm:"index;not null"`
	CourseID       uint           `json:"course_id" gorm:"index;not null"`
	Amount         uint           `json:"amount" gorm:"not null"` // smallest currency unit
	Currency       string         `json:"currency" gorm:"default:'INR'"`
	Status         PurchaseStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	PaymentOrderID string         `json:"payment_order_id" gorm:"index"` // gateway order id, empty until the order is created
	PaymentID      string         `json:"payment_id"`                    // gateway payment id, set on confirmation
	Receipt        string         `json:"receipt"`
}
