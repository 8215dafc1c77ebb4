package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"replyloop/models"
)

// UnsubscribeController serves the public opt-out link embedded in every
// follow-up footer.
type UnsubscribeController struct {
	db     *gorm.DB
	logger *log.Logger
}

func NewUnsubscribeController(db *gorm.DB, logger *log.Logger) *UnsubscribeController {
	return &UnsubscribeController{
		db:     db,
		logger: logger,
	}
}

// Unsubscribe marks the lead unsubscribed and cancels any pending follow-up
// actions. Idempotent: repeated clicks return the same confirmation.
func (uc *UnsubscribeController) Unsubscribe(c *fiber.Ctx) error {
	leadID := c.Params("id")

	var lead models.Lead
	if err := uc.db.First(&lead, leadID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).SendString("Unknown unsubscribe link.")
	}

	if lead.Status != models.LeadStatusUnsubscribed {
		lead.Status = models.LeadStatusUnsubscribed
		lead.ConversationPhase = models.PhaseClosedLost
		if err := uc.db.Save(&lead).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("Something went wrong, please try again.")
		}

		if err := uc.db.Model(&models.ScheduledAction{}).
			Where("lead_id = ? AND status = ?", lead.ID, models.ActionStatusPending).
			Update("status", models.ActionStatusCancelled).Error; err != nil {
			uc.logger.Printf("Failed to cancel pending actions for unsubscribed lead %d: %v", lead.ID, err)
		}

		uc.logger.Printf("Lead %d unsubscribed", lead.ID)
	}

	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.SendString("<html><body><p>You have been unsubscribed and will not be contacted again.</p></body></html>")
}
