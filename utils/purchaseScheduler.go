package utils

import (
	"log"
	"time"

	"lms/database"
	paymentModels "lms/models/payment"

	"github.com/robfig/cron/v3"
)

// InitializePurchaseScheduler sets up the stale purchase sweeper
func InitializePurchaseScheduler() {
	log.Println("[PURCHASE-SCHEDULER] Initializing purchase scheduler...")

	c := cron.New()

	// Run hourly to fail abandoned checkouts
	c.AddFunc("0 * * * *", func() {
		log.Println("[PURCHASE-SCHEDULER] Running stale purchase sweep...")
		ExpireStalePurchases()
	})

	c.Start()
	log.Println("[PURCHASE-SCHEDULER] Purchase scheduler started - runs hourly")
}

// ExpireStalePurchases marks pending purchases older than 24h as failed.
// Pending rows never grant entitlement, so this only closes out checkouts
// the user walked away from. The conditional update leaves completed and
// failed rows untouched.
func ExpireStalePurchases() {
	db := database.Database.Db
	cutoff := time.Now().Add(-24 * time.Hour)

	result := db.Model(&paymentModels.CoursePurchase{}).
		Where("status = ? AND created_at < ?", paymentModels.StatusPending, cutoff).
		Update("status", paymentModels.StatusFailed)

	if result.Error != nil {
		log.Printf("[PURCHASE-SCHEDULER] Error expiring stale purchases: %v", result.Error)
		return
	}

	if result.RowsAffected > 0 {
		log.Printf("[PURCHASE-SCHEDULER] Marked %d stale purchases as failed", result.RowsAffected)
	}
}
