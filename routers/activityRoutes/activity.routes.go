package activityRoutes

import (
	activityController "certify/controllers/activity"
	"certify/middleware"
	"certify/models"
	activityValidator "certify/validators/activity"

	"github.com/gofiber/fiber/v2"
)

// SetupActivityRoutes sets up activity review routes
func SetupActivityRoutes(app *fiber.App) {
	group := app.Group("/activities")

	reviewerOnly := middleware.RequireRoles(models.RoleFaculty, models.RoleAdmin)

	// Review queues (specific routes MUST come before /:id)
	group.Get("/faculty/pending", middleware.JWTMiddleware, reviewerOnly, activityController.GetPendingActivities)
	group.Get("/admin/approved", middleware.JWTMiddleware, reviewerOnly, activityController.GetApprovedActivities)
	group.Get("/my-activities", middleware.JWTMiddleware, activityController.GetMyActivities)

	// Review decisions
	group.Put("/:id/approve", activityValidator.ApproveActivity(), middleware.JWTMiddleware, reviewerOnly, activityController.ApproveActivity)
	group.Put("/:id/reject", activityValidator.RejectActivity(), middleware.JWTMiddleware, reviewerOnly, activityController.RejectActivity)

	// Details (MUST be last - catches all /:id patterns)
	group.Get("/:id", middleware.JWTMiddleware, activityController.GetActivityDetails)
}
