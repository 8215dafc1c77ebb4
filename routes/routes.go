package routes

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"

	controller "replyloop/controllers"
	"replyloop/engine"
	"replyloop/middleware"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, eng *engine.Engine) {
	cycleController := controller.NewCycleController(eng, log.New(os.Stdout, "CYCLE: ", log.LstdFlags))
	reviewController := controller.NewReviewController(db, log.New(os.Stdout, "REVIEW: ", log.LstdFlags))
	unsubscribeController := controller.NewUnsubscribeController(db, log.New(os.Stdout, "UNSUB: ", log.LstdFlags))

	// Public opt-out link embedded in follow-up footers
	app.Get("/unsubscribe/:id", unsubscribeController.Unsubscribe)

	// Periodic trigger: authorized, rate limited, rejected before side effects
	cron := app.Group("/cron", middleware.CronProtected(), middleware.CycleRateLimiter(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	cron.Post("/cycle", cycleController.TriggerCycle)

	// Operator review API
	api := app.Group("/api/v1", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	review := api.Group("/review")
	review.Get("/research-queue", reviewController.ListResearchQueue)
	review.Get("/drafts", reviewController.ListDrafts)
	review.Post("/replies/:id/approve", reviewController.ApproveReply)
	review.Post("/drafts/:id/approve", reviewController.ApproveDraft)
	review.Get("/cycles", reviewController.ListCycleRuns)
}
