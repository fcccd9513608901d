package certificateRoutes

import (
	certificateController "certify/controllers/certificate"
	"certify/middleware"
	"certify/models"
	certificateValidator "certify/validators/certificate"

	"github.com/gofiber/fiber/v2"
)

// SetupCertificateRoutes sets up certificate issuance, delivery and
// verification routes
func SetupCertificateRoutes(app *fiber.App) {
	group := app.Group("/certificates")

	// Public verification (QR code target) — no auth
	group.Get("/verify/:identifier", certificateController.VerifyCertificate)

	// Artifact access
	group.Get("/download/:certificateId", certificateController.DownloadCertificate)
	group.Get("/view/:certificateId", certificateController.ViewCertificate)

	// Student
	group.Get("/my-certificates", middleware.JWTMiddleware, certificateController.GetMyCertificates)

	// Issuance workflow (faculty/admin)
	issuerOnly := middleware.RequireRoles(models.RoleFaculty, models.RoleAdmin)
	group.Post("/generate/:activityId", middleware.JWTMiddleware, issuerOnly, certificateController.GenerateCertificateDraft)
	group.Post("/submit/:activityId", certificateValidator.SubmitCertificate(), middleware.JWTMiddleware, issuerOnly, certificateController.SubmitCertificate)
	group.Post("/issue/:activityId", middleware.JWTMiddleware, issuerOnly, certificateController.IssueCertificate)
	group.Post("/resend/:certificateId", middleware.JWTMiddleware, issuerOnly, certificateController.ResendCertificate)

	// Revocation (admin only)
	group.Post("/revoke/:certificateId", certificateValidator.RevokeCertificate(), middleware.JWTMiddleware,
		middleware.RequireRoles(models.RoleAdmin), certificateController.RevokeCertificate)
}
