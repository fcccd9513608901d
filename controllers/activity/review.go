package activityController

import (
	"context"
	"log"
	"time"

	"certify/config"
	"certify/database"
	"certify/middleware"
	"certify/models"
	"certify/utils"

	"github.com/gofiber/fiber/v2"
)

// GetPendingActivities lists activities awaiting faculty review, oldest first.
func GetPendingActivities(c *fiber.Ctx) error {
	var activities []models.Activity
	if err := database.Database.Db.
		Preload("Student").
		Where("status = ?", models.ActivityPending).
		Order("created_at asc").
		Find(&activities).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch pending activities!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Pending activities fetched!", fiber.Map{
		"count":      len(activities),
		"activities": activities,
	})
}

// GetApprovedActivities lists approved, not yet certified activities — the
// issuance queue.
func GetApprovedActivities(c *fiber.Ctx) error {
	var activities []models.Activity
	if err := database.Database.Db.
		Preload("Student").
		Where("status = ?", models.ActivityApproved).
		Order("reviewed_at asc").
		Find(&activities).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch approved activities!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Approved activities fetched!", fiber.Map{
		"count":      len(activities),
		"activities": activities,
	})
}

// GetMyActivities lists the authenticated student's own activities.
func GetMyActivities(c *fiber.Ctx) error {
	studentID := c.Locals("userId").(uint)

	var activities []models.Activity
	if err := database.Database.Db.
		Where("student_id = ?", studentID).
		Order("created_at desc").
		Find(&activities).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch activities!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Activities fetched!", fiber.Map{
		"count":      len(activities),
		"activities": activities,
	})
}

// GetActivityDetails returns one activity. Students can only see their own;
// faculty and admins can see any.
func GetActivityDetails(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	role, _ := c.Locals("role").(string)
	activityID := c.Params("id")

	var activity models.Activity
	if err := database.Database.Db.Preload("Student").Where("id = ?", activityID).First(&activity).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Activity not found!", nil)
	}

	if role == models.RoleStudent && activity.StudentID != userID {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You can only view your own activities!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Activity fetched!", activity)
}

// ApproveActivity moves a pending activity to approved with a mandatory
// faculty comment, then notifies the student. Notification failure never
// fails the review.
func ApproveActivity(c *fiber.Ctx) error {
	reviewerID := c.Locals("userId").(uint)
	activityID := c.Params("id")

	reqData, ok := c.Locals("validatedApproveActivity").(*struct {
		Comment string `json:"comment"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var activity models.Activity
	if err := db.Preload("Student").Where("id = ?", activityID).First(&activity).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Activity not found!", nil)
	}

	if activity.Status != models.ActivityPending && activity.Status != models.ActivityFlagged {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Only pending activities can be approved!", nil)
	}

	now := time.Now()
	if err := db.Model(&activity).Updates(map[string]interface{}{
		"status":          models.ActivityApproved,
		"reviewed_by":     reviewerID,
		"reviewed_at":     now,
		"faculty_comment": reqData.Comment,
	}).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to approve activity!", nil)
	}

	notifyStudent(func(ctx context.Context) error {
		return utils.Mail.SendActivityApproved(ctx, activity.Student.Email, activity.Student.Name, activity.Title)
	}, activity.ID)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Activity approved!", fiber.Map{
		"activityId": activity.ID,
		"status":     models.ActivityApproved,
		"reviewedAt": now,
	})
}

// RejectActivity moves a pending activity to rejected with a mandatory reason,
// then notifies the student.
func RejectActivity(c *fiber.Ctx) error {
	reviewerID := c.Locals("userId").(uint)
	activityID := c.Params("id")

	reqData, ok := c.Locals("validatedRejectActivity").(*struct {
		Reason string `json:"reason"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var activity models.Activity
	if err := db.Preload("Student").Where("id = ?", activityID).First(&activity).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Activity not found!", nil)
	}

	if activity.Status != models.ActivityPending && activity.Status != models.ActivityFlagged {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Only pending activities can be rejected!", nil)
	}

	now := time.Now()
	if err := db.Model(&activity).Updates(map[string]interface{}{
		"status":           models.ActivityRejected,
		"reviewed_by":      reviewerID,
		"reviewed_at":      now,
		"rejection_reason": reqData.Reason,
	}).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to reject activity!", nil)
	}

	notifyStudent(func(ctx context.Context) error {
		return utils.Mail.SendActivityRejected(ctx, activity.Student.Email, activity.Student.Name, activity.Title, reqData.Reason)
	}, activity.ID)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Activity rejected!", fiber.Map{
		"activityId": activity.ID,
		"status":     models.ActivityRejected,
		"reviewedAt": now,
	})
}

// notifyStudent runs a review notification with a bounded timeout and logs
// failures instead of propagating them.
func notifyStudent(send func(ctx context.Context) error, activityID uint) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(config.AppConfig.EmailTimeoutSec)*time.Second)
	defer cancel()

	if err := send(ctx); err != nil {
		log.Printf("[REVIEW] Notification email failed for activity %d: %v", activityID, err)
	}
}
