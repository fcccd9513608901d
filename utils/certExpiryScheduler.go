package utils

import (
	"certify/database"
	"certify/models"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// InitializeCertificateExpiryScheduler sets up the certificate expiry sweep
func InitializeCertificateExpiryScheduler() {
	log.Println("[CERT-SCHEDULER] Initializing certificate expiry scheduler...")

	c := cron.New()

	// Run daily at midnight
	c.AddFunc("0 0 * * *", func() {
		log.Println("[CERT-SCHEDULER] Running daily certificate expiry check...")
		ExpireCertificates()
	})

	c.Start()
	log.Println("[CERT-SCHEDULER] Certificate expiry scheduler started - runs daily at midnight")
}

// ExpireCertificates marks active certificates past their expiry as expired.
// Expiry is a status mutation only; the chain fields and hash stay untouched
// so later certificates in the student's chain remain verifiable.
func ExpireCertificates() {
	db := database.Database.Db
	now := time.Now()

	result := db.Model(&models.Certificate{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", models.CertActive, now).
		Update("status", models.CertExpired)

	if result.Error != nil {
		log.Printf("[CERT-SCHEDULER] Error expiring certificates: %v", result.Error)
		return
	}

	if result.RowsAffected > 0 {
		log.Printf("[CERT-SCHEDULER] Expired %d certificates", result.RowsAffected)
	}
}
