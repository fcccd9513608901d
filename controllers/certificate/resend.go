package certificateController

import (
	"context"
	"log"
	"os"
	"time"

	"certify/config"
	"certify/database"
	"certify/middleware"
	"certify/models"
	"certify/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ResendCertificate re-delivers an already issued certificate. Everything is
// re-read from persisted records; the original draft or request is never
// consulted. Each attempt increments the resend counter regardless of outcome.
func ResendCertificate(c *fiber.Ctx) error {
	certificateID := c.Params("certificateId")

	db := database.Database.Db

	var cert models.Certificate
	if err := db.Where("certificate_id = ?", certificateID).First(&cert).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate not found!", nil)
	}

	var activity models.Activity
	if err := db.Preload("Student").Where("id = ?", cert.ActivityID).First(&activity).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Activity for certificate not found!", nil)
	}

	if _, err := os.Stat(cert.PDFPath); err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnprocessableEntity, false,
			"Certificate file is missing on disk. Regenerate the certificate before resending!", nil)
	}

	ctx, cancel := context.WithTimeout(c.Context(), time.Duration(config.AppConfig.EmailTimeoutSec)*time.Second)
	defer cancel()

	messageID, err := utils.Mail.SendCertificateIssued(ctx, activity.Student.Email, activity.Student.Name, utils.CertificateEmailData{
		CertificateID:    cert.CertificateID,
		PDFPath:          cert.PDFPath,
		Achievement:      cert.Title,
		OrganizingBody:   cert.OrganizingBody,
		AchievementLevel: cert.AchievementLevel,
		EventDate:        cert.EventDate,
	})
	if err != nil {
		log.Printf("[CERT] Resend failed for %s: %v", cert.CertificateID, err)
		db.Model(&activity).Updates(map[string]interface{}{
			"email_status":    models.EmailFailed,
			"email_error":     err.Error(),
			"resend_attempts": gorm.Expr("resend_attempts + 1"),
		})
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success":   false,
			"emailSent": false,
			"error":     err.Error(),
		})
	}

	now := time.Now()
	db.Model(&activity).Updates(map[string]interface{}{
		"email_status":    models.EmailSent,
		"email_error":     "",
		"email_sent_at":   now,
		"resend_attempts": gorm.Expr("resend_attempts + 1"),
	})

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":   true,
		"emailSent": true,
		"messageId": messageID,
	})
}
