package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"replyloop/engine"
	"replyloop/utils"
)

type CycleController struct {
	engine *engine.Engine
	logger *log.Logger
}

func NewCycleController(eng *engine.Engine, logger *log.Logger) *CycleController {
	return &CycleController{
		engine: eng,
		logger: logger,
	}
}

// TriggerCycle runs one orchestrator cycle synchronously and returns its
// summary. Authorization happens in middleware, before any side effect.
func (cc *CycleController) TriggerCycle(c *fiber.Ctx) error {
	summary := cc.engine.RunCycle(c.UserContext())

	if len(summary.Errors) > 0 {
		utils.LogEvent("cycle_completed_with_errors", map[string]interface{}{
			"threads_checked": summary.ThreadsChecked,
			"new_replies":     summary.NewReplies,
			"error_count":     len(summary.Errors),
		})
	}

	return c.JSON(summary)
}
