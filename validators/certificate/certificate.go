package certificateValidator

import (
	"certify/middleware"

	"github.com/gofiber/fiber/v2"
)

// SubmitCertificate validates the draft descriptor being committed
func SubmitCertificate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			CertificateID string `json:"certificateId"`
			FilePath      string `json:"filePath"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.CertificateID == "" {
			errors["certificateId"] = "Certificate ID is required!"
		}
		if reqData.FilePath == "" {
			errors["filePath"] = "Certificate file path is required!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedSubmitCertificate", reqData)
		return c.Next()
	}
}

// RevokeCertificate validates the revocation request
func RevokeCertificate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Reason string `json:"reason"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if reqData.Reason == "" {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Revocation reason is required!", nil)
		}

		c.Locals("validatedRevokeCertificate", reqData)
		return c.Next()
	}
}
