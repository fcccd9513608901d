package activityValidator

import (
	"certify/middleware"

	"github.com/gofiber/fiber/v2"
)

// ApproveActivity validates the approval request
func ApproveActivity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Comment string `json:"comment"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if reqData.Comment == "" {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Faculty comment is required!", nil)
		}

		c.Locals("validatedApproveActivity", reqData)
		return c.Next()
	}
}

// RejectActivity validates the rejection request
func RejectActivity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Reason string `json:"reason"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if reqData.Reason == "" {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Rejection reason is required!", nil)
		}

		c.Locals("validatedRejectActivity", reqData)
		return c.Next()
	}
}
