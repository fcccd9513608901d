package certificateController

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"certify/config"
	"certify/database"
	"certify/middleware"
	"certify/models"
	"certify/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NewCertificateID builds a human-readable certificate identifier.
func NewCertificateID() string {
	return fmt.Sprintf("CERT-%d-%s", time.Now().UnixMilli(), strings.ToUpper(uuid.NewString()[:8]))
}

// GenerateCertificateDraft renders the certificate PDF and QR for an approved
// activity and returns a draft descriptor without persisting anything. The
// caller inspects the artifact, then commits it via SubmitCertificate.
func GenerateCertificateDraft(c *fiber.Ctx) error {
	activityID := c.Params("activityId")

	var activity models.Activity
	if err := database.Database.Db.Preload("Student").Where("id = ?", activityID).First(&activity).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Activity not found!", nil)
	}

	if activity.Status == models.ActivityCertified {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Activity is already certified!", nil)
	}
	if activity.Status != models.ActivityApproved {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Activity must be approved before certificate generation!", nil)
	}

	certificateID := NewCertificateID()

	ctx, cancel := context.WithTimeout(c.Context(), time.Duration(config.AppConfig.RenderTimeoutSec)*time.Second)
	defer cancel()

	pdfPath, verificationURL, err := utils.CertRenderer.RenderCertificate(ctx, utils.CertificateData{
		CertificateID:    certificateID,
		StudentName:      activity.Student.Name,
		Achievement:      activity.Title,
		OrganizingBody:   activity.OrganizingBody,
		AchievementLevel: activity.AchievementLevel,
		EventDate:        activity.EventDate,
		IssuedAt:         time.Now(),
	})
	if err != nil {
		log.Printf("[CERT] Render failed for activity %d: %v", activity.ID, err)
		return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Certificate rendering failed!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate draft generated!", fiber.Map{
		"certificateId":    certificateID,
		"filePath":         pdfPath,
		"verificationUrl":  verificationURL,
		"studentName":      activity.Student.Name,
		"studentEmail":     activity.Student.Email,
		"title":            activity.Title,
		"organizingBody":   activity.OrganizingBody,
		"achievementLevel": activity.AchievementLevel,
		"eventDate":        activity.EventDate,
	})
}

// SubmitCertificate commits a previously generated draft: verifies the
// artifact still exists, computes the hash chain fields, persists the
// Certificate, marks the activity certified and attempts email delivery.
// Email failure is non-fatal; the certificate is already durable by then.
func SubmitCertificate(c *fiber.Ctx) error {
	issuerID := c.Locals("userId").(uint)
	activityID := c.Params("activityId")

	draft, ok := c.Locals("validatedSubmitCertificate").(*struct {
		CertificateID string `json:"certificateId"`
		FilePath      string `json:"filePath"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var activity models.Activity
	if err := db.Preload("Student").Where("id = ?", activityID).First(&activity).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Activity not found!", nil)
	}

	if activity.Status != models.ActivityApproved {
		if activity.Status == models.ActivityCertified {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Certificate already issued for this activity!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Activity must be approved before certificate submission!", nil)
	}

	// The draft is stateless from the server's perspective, so the artifact it
	// references must still exist on disk before anything is persisted.
	filePath := filepath.Clean(draft.FilePath)
	if _, err := os.Stat(filePath); err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnprocessableEntity, false, "Certificate file not found. Generate the draft again!", nil)
	}

	cert, err := persistCertificate(c, db, &activity, issuerID, draft.CertificateID, filePath)
	if err != nil {
		if utils.IsChainConflict(err) {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Certificate already issued for this activity!", nil)
		}
		log.Printf("[CERT] Failed to persist certificate for activity %d: %v", activity.ID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save certificate!", nil)
	}

	messageID, emailSent, emailErr := deliverCertificate(db, cert, &activity, &activity.Student)
	if !emailSent {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success":          false,
			"certificateSaved": true,
			"certificateId":    cert.CertificateID,
			"emailSent":        false,
			"error":            emailErr,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":       true,
		"certificateId": cert.CertificateID,
		"blockNumber":   cert.BlockNumber,
		"hash":          cert.CertificateHash,
		"emailSent":     true,
		"messageId":     messageID,
	})
}

// IssueCertificate is the single-step flow: render, persist and email in one
// request. Render failure aborts before anything is written.
func IssueCertificate(c *fiber.Ctx) error {
	issuerID := c.Locals("userId").(uint)
	activityID := c.Params("activityId")

	db := database.Database.Db

	var activity models.Activity
	if err := db.Preload("Student").Where("id = ?", activityID).First(&activity).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Activity not found!", nil)
	}

	if activity.Status != models.ActivityApproved {
		if activity.Status == models.ActivityCertified {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Certificate already issued for this activity!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Activity must be approved before certificate issuance!", nil)
	}

	certificateID := NewCertificateID()

	ctx, cancel := context.WithTimeout(c.Context(), time.Duration(config.AppConfig.RenderTimeoutSec)*time.Second)
	defer cancel()

	pdfPath, _, err := utils.CertRenderer.RenderCertificate(ctx, utils.CertificateData{
		CertificateID:    certificateID,
		StudentName:      activity.Student.Name,
		Achievement:      activity.Title,
		OrganizingBody:   activity.OrganizingBody,
		AchievementLevel: activity.AchievementLevel,
		EventDate:        activity.EventDate,
		IssuedAt:         time.Now(),
	})
	if err != nil {
		log.Printf("[CERT] Render failed for activity %d: %v", activity.ID, err)
		return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Certificate rendering failed!", nil)
	}

	cert, err := persistCertificate(c, db, &activity, issuerID, certificateID, pdfPath)
	if err != nil {
		if utils.IsChainConflict(err) {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Certificate already issued for this activity!", nil)
		}
		log.Printf("[CERT] Failed to persist certificate for activity %d: %v", activity.ID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save certificate!", nil)
	}

	messageID, emailSent, emailErr := deliverCertificate(db, cert, &activity, &activity.Student)
	if !emailSent {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success":          false,
			"certificateSaved": true,
			"certificateId":    cert.CertificateID,
			"emailSent":        false,
			"error":            emailErr,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":       true,
		"certificateId": cert.CertificateID,
		"blockNumber":   cert.BlockNumber,
		"hash":          cert.CertificateHash,
		"emailSent":     true,
		"messageId":     messageID,
	})
}

// persistCertificate computes the hash chain fields under the student's chain
// lock, inserts the Certificate and flips the activity to certified in one
// transaction. A chain conflict from a racing process is retried once with a
// freshly read chain head.
func persistCertificate(c *fiber.Ctx, db *gorm.DB, activity *models.Activity, issuerID uint, certificateID, pdfPath string) (*models.Certificate, error) {
	unlock := utils.LockStudentChain(activity.StudentID)
	defer unlock()

	issuedAt := time.Now()
	hash := utils.CertificateHash(activity.StudentID, activity.ID, activity.Title, activity.EventDate, issuedAt)
	verificationURL := fmt.Sprintf("%s/certificates/verify/%s", config.AppConfig.AppURL, certificateID)
	expiresAt := issuedAt.AddDate(1, 0, 0)

	metadata, _ := json.Marshal(fiber.Map{
		"issuedFrom": c.IP(),
		"userAgent":  string(c.Request().Header.UserAgent()),
	})

	var cert *models.Certificate
	for attempt := 0; ; attempt++ {
		link, err := utils.NextChainLink(db, activity.StudentID)
		if err != nil {
			return nil, err
		}

		cert = &models.Certificate{
			CertificateID:    certificateID,
			ActivityID:       activity.ID,
			StudentID:        activity.StudentID,
			IssuedBy:         issuerID,
			Title:            activity.Title,
			OrganizingBody:   activity.OrganizingBody,
			AchievementLevel: activity.AchievementLevel,
			EventDate:        activity.EventDate,
			CertificateHash:  hash,
			PreviousHash:     link.PreviousHash,
			BlockNumber:      link.BlockNumber,
			VerificationCode: uuid.NewString(),
			PDFPath:          pdfPath,
			QRCodeURL:        verificationURL,
			Status:           models.CertActive,
			IssuedAt:         issuedAt,
			ExpiresAt:        &expiresAt,
			Metadata:         datatypes.JSON(metadata),
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(cert).Error; err != nil {
				return err
			}
			now := time.Now()
			return tx.Model(activity).Updates(map[string]interface{}{
				"status":           models.ActivityCertified,
				"certificate_id":   cert.ID,
				"certificate_ref":  cert.CertificateID,
				"certificate_hash": cert.CertificateHash,
				"certified_by":     issuerID,
				"certified_at":     now,
				"email_status":     models.EmailPending,
			}).Error
		})
		if err == nil {
			return cert, nil
		}

		// One retry covers a block-number race with another process; an
		// activity_id or certificate_id collision will just conflict again.
		if utils.IsChainConflict(err) && attempt == 0 {
			log.Printf("[CERT] Chain conflict for student %d, retrying with fresh chain head", activity.StudentID)
			continue
		}
		return nil, err
	}
}

// deliverCertificate emails the issued certificate and records the delivery
// outcome on the activity. Delivery runs after the certificate transaction
// has committed; a failure here never rolls issuance back.
func deliverCertificate(db *gorm.DB, cert *models.Certificate, activity *models.Activity, student *models.User) (string, bool, string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(config.AppConfig.EmailTimeoutSec)*time.Second)
	defer cancel()

	messageID, err := utils.Mail.SendCertificateIssued(ctx, student.Email, student.Name, utils.CertificateEmailData{
		CertificateID:    cert.CertificateID,
		PDFPath:          cert.PDFPath,
		Achievement:      cert.Title,
		OrganizingBody:   cert.OrganizingBody,
		AchievementLevel: cert.AchievementLevel,
		EventDate:        cert.EventDate,
	})
	if err != nil {
		log.Printf("[CERT] Email delivery failed for %s: %v", cert.CertificateID, err)
		db.Model(activity).Updates(map[string]interface{}{
			"email_status": models.EmailFailed,
			"email_error":  err.Error(),
		})
		return "", false, err.Error()
	}

	now := time.Now()
	db.Model(activity).Updates(map[string]interface{}{
		"email_status":  models.EmailSent,
		"email_error":   "",
		"email_sent_at": now,
	})
	return messageID, true, ""
}
