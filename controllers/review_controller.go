package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"replyloop/models"
	"replyloop/utils"
)

// ReviewController is the human side of the draft lifecycle: nothing this
// service generates goes out without an operator approving it here.
type ReviewController struct {
	db     *gorm.DB
	logger *log.Logger
}

func NewReviewController(db *gorm.DB, logger *log.Logger) *ReviewController {
	return &ReviewController{
		db:     db,
		logger: logger,
	}
}

// ListResearchQueue returns replies flagged as needing human knowledge
// before their draft can be trusted.
func (rc *ReviewController) ListResearchQueue(c *fiber.Ctx) error {
	var replies []models.InboundReply
	err := rc.db.
		Where("needs_research = ? AND human_approved = ?", true, false).
		Order("created_at ASC").
		Limit(100).
		Find(&replies).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch research queue",
		})
	}

	return c.JSON(fiber.Map{
		"replies": replies,
		"count":   len(replies),
	})
}

// ListDrafts returns follow-up drafts awaiting approval.
func (rc *ReviewController) ListDrafts(c *fiber.Ctx) error {
	var drafts []models.SentMessage
	err := rc.db.
		Where("status = ?", models.MessageStatusDraft).
		Order("created_at DESC").
		Limit(100).
		Find(&drafts).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch drafts",
		})
	}

	return c.JSON(fiber.Map{
		"drafts": drafts,
		"count":  len(drafts),
	})
}

type approveReplyRequest struct {
	Response string `json:"response" validate:"omitempty,min=1,max=20000"`
}

// ApproveReply marks a reply's draft as human approved, optionally replacing
// the AI draft with an edited body.
func (rc *ReviewController) ApproveReply(c *fiber.Ctx) error {
	replyID := c.Params("id")

	var req approveReplyRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var reply models.InboundReply
	if err := rc.db.First(&reply, replyID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Reply not found",
		})
	}

	if req.Response != "" {
		reply.AIDraftResponse = req.Response
	}
	reply.HumanApproved = true
	reply.NeedsResearch = false

	if err := rc.db.Save(&reply).Error; err != nil {
		utils.LogError("reply_approval_failed", err, map[string]interface{}{
			"reply_id": reply.ID,
		})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to approve reply",
		})
	}

	rc.logger.Printf("Reply %d approved by %v", reply.ID, c.Locals("operator"))
	return c.JSON(fiber.Map{
		"message": "Reply approved",
		"reply":   reply,
	})
}

// ApproveDraft promotes a follow-up draft to approved so the send step can
// pick it up.
func (rc *ReviewController) ApproveDraft(c *fiber.Ctx) error {
	draftID := c.Params("id")

	var draft models.SentMessage
	if err := rc.db.First(&draft, draftID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Draft not found",
		})
	}

	if draft.Status != models.MessageStatusDraft {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Message is not in draft status",
		})
	}

	draft.Status = models.MessageStatusApproved
	if err := rc.db.Save(&draft).Error; err != nil {
		utils.LogError("draft_approval_failed", err, map[string]interface{}{
			"draft_id": draft.ID,
		})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to approve draft",
		})
	}

	rc.logger.Printf("Draft %d approved by %v", draft.ID, c.Locals("operator"))
	return c.JSON(fiber.Map{
		"message": "Draft approved",
		"draft":   draft,
	})
}

// ListCycleRuns returns recent orchestrator invocations with their summaries.
func (rc *ReviewController) ListCycleRuns(c *fiber.Ctx) error {
	var runs []models.CycleRun
	err := rc.db.
		Order("started_at DESC").
		Limit(20).
		Find(&runs).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch cycle runs",
		})
	}

	return c.JSON(fiber.Map{
		"runs": runs,
	})
}
