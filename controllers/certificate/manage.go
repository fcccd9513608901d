package certificateController

import (
	"log"
	"time"

	"certify/database"
	"certify/middleware"
	"certify/models"

	"github.com/gofiber/fiber/v2"
)

// GetMyCertificates lists the authenticated student's certificates in chain
// order.
func GetMyCertificates(c *fiber.Ctx) error {
	studentID := c.Locals("userId").(uint)

	var certs []models.Certificate
	if err := database.Database.Db.
		Where("student_id = ?", studentID).
		Order("block_number asc").
		Find(&certs).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch certificates!", nil)
	}

	list := make([]fiber.Map, 0, len(certs))
	for i := range certs {
		cert := &certs[i]
		list = append(list, fiber.Map{
			"certificateId":    cert.CertificateID,
			"title":            cert.Title,
			"organizingBody":   cert.OrganizingBody,
			"achievementLevel": cert.AchievementLevel,
			"eventDate":        cert.EventDate,
			"issuedAt":         cert.IssuedAt,
			"expiresAt":        cert.ExpiresAt,
			"status":           cert.Status,
			"isValid":          cert.IsValid(),
			"blockNumber":      cert.BlockNumber,
			"previousHash":     cert.PreviousHash,
			"hash":             cert.CertificateHash,
			"qrCodeUrl":        cert.QRCodeURL,
		})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificates fetched!", fiber.Map{
		"count":        len(list),
		"certificates": list,
	})
}

// RevokeCertificate marks a certificate revoked. Revocation is a status
// mutation only; the row, its chain fields and the PDF stay in place so the
// student's chain remains verifiable.
func RevokeCertificate(c *fiber.Ctx) error {
	adminID := c.Locals("userId").(uint)
	certificateID := c.Params("certificateId")

	reqData, ok := c.Locals("validatedRevokeCertificate").(*struct {
		Reason string `json:"reason"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var cert models.Certificate
	if err := db.Where("certificate_id = ?", certificateID).First(&cert).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate not found!", nil)
	}

	if cert.IsRevoked {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Certificate is already revoked!", nil)
	}

	if err := db.Model(&cert).Updates(map[string]interface{}{
		"status":            models.CertRevoked,
		"is_revoked":        true,
		"revocation_reason": reqData.Reason,
	}).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to revoke certificate!", nil)
	}

	log.Printf("[CERT] Certificate %s revoked by user %d: %s", cert.CertificateID, adminID, reqData.Reason)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate revoked!", fiber.Map{
		"certificateId": cert.CertificateID,
		"status":        models.CertRevoked,
		"revokedAt":     time.Now(),
	})
}
