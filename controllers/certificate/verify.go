package certificateController

import (
	"log"
	"time"

	"certify/database"
	"certify/models"
	"certify/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// VerifyCertificate is the public verification endpoint. The identifier may
// be a certificate ID or the content hash itself (the QR encodes the ID form).
// The response is always 200 with a verified/status verdict so scanners can
// render any outcome.
func VerifyCertificate(c *fiber.Ctx) error {
	identifier := c.Params("identifier")

	db := database.Database.Db

	var cert models.Certificate
	err := db.Preload("Student").
		Where("certificate_id = ? OR certificate_hash = ?", identifier, identifier).
		First(&cert).Error
	if err != nil {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"verified": false,
			"status":   "invalid",
			"message":  "No certificate found for this identifier.",
		})
	}

	// Tamper check recomputes the digest from stored fields only, including
	// the stored issuance timestamp.
	recomputed := utils.CertificateHash(cert.StudentID, cert.ActivityID, cert.Title, cert.EventDate, cert.IssuedAt)

	verified := false
	status := ""
	message := ""
	switch {
	case recomputed != cert.CertificateHash:
		status = "tampered"
		message = "Certificate data does not match its recorded hash. This record may have been altered."
	case cert.IsRevoked || cert.Status == models.CertRevoked:
		status = models.CertRevoked
		message = "This certificate has been revoked by the issuing institution."
	case cert.IsExpired() || cert.Status == models.CertExpired:
		status = models.CertExpired
		message = "This certificate has expired."
	default:
		verified = true
		status = "authentic"
		message = "Certificate is authentic and valid."
	}

	payload := fiber.Map{
		"verified": verified,
		"status":   status,
		"message":  message,
		"certificate": fiber.Map{
			"certificateId":    cert.CertificateID,
			"studentName":      cert.Student.Name,
			"title":            cert.Title,
			"organizingBody":   cert.OrganizingBody,
			"achievementLevel": cert.AchievementLevel,
			"eventDate":        cert.EventDate,
			"issuedAt":         cert.IssuedAt,
			"blockNumber":      cert.BlockNumber,
			"previousHash":     cert.PreviousHash,
			"hash":             cert.CertificateHash,
		},
	}

	// Audit side effects run after the verdict is built and never fail the
	// response.
	recordVerification(db, &cert, c.IP(), string(c.Request().Header.UserAgent()))

	return c.Status(fiber.StatusOK).JSON(payload)
}

func recordVerification(db *gorm.DB, cert *models.Certificate, ip, userAgent string) {
	now := time.Now()

	if err := db.Create(&models.CertificateVerification{
		CertificateID: cert.ID,
		VerifiedAt:    now,
		VerifiedBy:    "public",
		IPAddress:     ip,
		UserAgent:     userAgent,
	}).Error; err != nil {
		log.Printf("[VERIFY] Failed to record verification for %s: %v", cert.CertificateID, err)
	}

	if err := db.Model(cert).UpdateColumns(map[string]interface{}{
		"verification_count": gorm.Expr("verification_count + 1"),
		"last_verified_at":   now,
	}).Error; err != nil {
		log.Printf("[VERIFY] Failed to bump verification counter for %s: %v", cert.CertificateID, err)
	}
}
