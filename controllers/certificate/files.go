package certificateController

import (
	"log"
	"os"
	"time"

	"certify/database"
	"certify/middleware"
	"certify/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// DownloadCertificate streams the certificate PDF as an attachment and bumps
// the download counter.
func DownloadCertificate(c *fiber.Ctx) error {
	cert, err := findCertificateWithFile(c)
	if err != nil {
		return err
	}

	bumpCounter(cert, "download_count", "last_downloaded_at")

	return c.Download(cert.PDFPath, cert.CertificateID+".pdf")
}

// ViewCertificate streams the certificate PDF inline and bumps the view
// counter.
func ViewCertificate(c *fiber.Ctx) error {
	cert, err := findCertificateWithFile(c)
	if err != nil {
		return err
	}

	bumpCounter(cert, "view_count", "last_viewed_at")

	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+cert.CertificateID+`.pdf"`)
	return c.SendFile(cert.PDFPath)
}

// findCertificateWithFile resolves the :certificateId param and checks the
// artifact still exists on disk. Any error return is already a complete
// response.
func findCertificateWithFile(c *fiber.Ctx) (*models.Certificate, error) {
	certificateID := c.Params("certificateId")

	var cert models.Certificate
	if err := database.Database.Db.Where("certificate_id = ?", certificateID).First(&cert).Error; err != nil {
		return nil, middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate not found!", nil)
	}

	if _, err := os.Stat(cert.PDFPath); err != nil {
		return nil, middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate file not found on server!", nil)
	}

	return &cert, nil
}

func bumpCounter(cert *models.Certificate, counterCol, timestampCol string) {
	if err := database.Database.Db.Model(cert).UpdateColumns(map[string]interface{}{
		counterCol:   gorm.Expr(counterCol + " + 1"),
		timestampCol: time.Now(),
	}).Error; err != nil {
		log.Printf("[CERT] Failed to bump %s for %s: %v", counterCol, cert.CertificateID, err)
	}
}
