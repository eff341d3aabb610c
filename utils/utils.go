package utils

import (
	"fmt"

	"github.com/google/uuid"
)

// GenerateReceiptID builds a unique receipt reference for a gateway order.
// Razorpay caps receipts at 40 characters, so only a uuid fragment is used.
func GenerateReceiptID(courseID uint) string {
	return fmt.Sprintf("course_%d_%s", courseID, uuid.NewString()[:13])
}
