package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"

	"replyloop/config"
	"replyloop/engine"
	"replyloop/genai"
	"replyloop/knowledge"
	"replyloop/mailbox"
	"replyloop/middleware"
	"replyloop/routes"
	"replyloop/store"
	"replyloop/utils"
	"replyloop/worker"
)

func main() {
	logger := log.New(os.Stdout, "REPLYLOOP: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	if config.AppConfig.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.AppConfig.SentryDSN,
			Environment: config.AppConfig.Environment,
		}); err != nil {
			logger.Printf("Sentry initialization failed: %v", err)
		}
	}

	// Initialize database connection
	if err := config.ConnectDB(); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Wire the orchestrator
	gateway := store.NewGormStore(config.DB)
	mailboxClient := mailbox.NewIMAPClient(config.AppConfig.Mailbox, log.New(os.Stdout, "MAILBOX: ", log.LstdFlags))
	aiClient, err := genai.NewOpenAIClient(config.AppConfig.OpenAIAPIKey, config.AppConfig.OpenAIModel)
	if err != nil {
		logger.Fatalf("Failed to initialize OpenAI client: %v", err)
	}
	knowledgeService := knowledge.NewService(gateway)

	eng := engine.New(gateway, mailboxClient, aiClient, knowledgeService,
		log.New(os.Stdout, "ENGINE: ", log.LstdFlags),
		engine.Options{
			FromEmail:          config.AppConfig.Mailbox.FromEmail,
			ThreadBatchSize:    config.AppConfig.ThreadBatchSize,
			ReplyBatchSize:     config.AppConfig.ReplyBatchSize,
			ActionBatchSize:    config.AppConfig.ActionBatchSize,
			FollowUpDelay:      config.AppConfig.FollowUpDelay,
			MinContactInterval: config.AppConfig.MinContactInterval,
			UnsubscribeBaseURL: config.AppConfig.UnsubscribeBaseURL,
		})

	// Create Fiber app
	app := fiber.New()
	app.Use(middleware.CORS())

	if config.AppConfig.Environment == "development" {
		if token, err := utils.GenerateOperatorToken("dev", 24*time.Hour); err == nil {
			logger.Printf("Development operator token: %s", token)
		}
	}

	// Start the periodic cycle worker
	cycleWorker := worker.NewCycleWorker(eng, config.AppConfig.CycleInterval, log.New(os.Stdout, "CYCLE: ", log.LstdFlags))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cycleWorker.Start(ctx)

	// Setup routes
	routes.SetupRoutes(app, config.DB, eng)

	// Health check endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "running",
			"version": "1.0.0",
		})
	})

	// Start server
	logger.Printf("Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
