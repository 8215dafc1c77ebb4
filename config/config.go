package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"replyloop/models"
)

var (
	DB        *gorm.DB
	AppConfig Config
)

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"-"`
	DB       int    `json:"db"`
}

type MailboxConfig struct {
	IMAPHost       string `json:"imap_host"`
	IMAPPort       int    `json:"imap_port"`
	IMAPEncryption string `json:"imap_encryption"` // SSL, STARTTLS or none
	IMAPMailbox    string `json:"imap_mailbox"`
	SMTPHost       string `json:"smtp_host"`
	SMTPPort       int    `json:"smtp_port"`
	Username       string `json:"username"`
	Password       string `json:"-"`
	FromEmail      string `json:"from_email"`
	FromName       string `json:"from_name"`
}

type Config struct {
	Environment string `json:"environment"`
	ServerPort  string `json:"server_port"`

	DBHost         string `json:"db_host"`
	DBPort         string `json:"db_port"`
	DBUser         string `json:"db_user"`
	DBPassword     string `json:"-"`
	DBName         string `json:"db_name"`
	DBSSLMode      string `json:"db_ssl_mode"`
	DBMaxIdleConns int    `json:"db_max_idle_conns"`
	DBMaxOpenConns int    `json:"db_max_open_conns"`

	// CronSecret authorizes the external periodic trigger; JWTSecret signs
	// operator tokens for the review API.
	CronSecret string `json:"-"`
	JWTSecret  string `json:"-"`

	SentryDSN string `json:"-"`
	Redis     RedisConfig `json:"redis"`

	OpenAIAPIKey string `json:"-"`
	OpenAIModel  string `json:"openai_model"`

	Mailbox MailboxConfig `json:"mailbox"`

	// Orchestrator cycle tuning. Batches stay small so one cycle fits the
	// hosting environment's wall-clock budget.
	CycleInterval      time.Duration `json:"cycle_interval"`
	ThreadBatchSize    int           `json:"thread_batch_size"`
	ReplyBatchSize     int           `json:"reply_batch_size"`
	ActionBatchSize    int           `json:"action_batch_size"`
	FollowUpDelay      time.Duration `json:"follow_up_delay"`
	MinContactInterval time.Duration `json:"min_contact_interval"`
	RateLimitCycle     int           `json:"rate_limit_cycle"`

	UnsubscribeBaseURL string `json:"unsubscribe_base_url"`
}

func init() {
	// .env is optional; real deployments inject the environment directly
	_ = godotenv.Load()
}

func LoadConfig() error {
	AppConfig = Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		ServerPort:  getEnv("SERVER_PORT", "5000"),

		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", "replyloop"),
		DBSSLMode:      getEnv("DB_SSL_MODE", "disable"),
		DBMaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		DBMaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 100),

		CronSecret: getEnv("CRON_SECRET", ""),
		JWTSecret:  getEnv("JWT_SECRET", ""),
		SentryDSN:  getEnv("SENTRY_DSN", ""),

		Redis: RedisConfig{
			Enabled:  getEnv("REDIS_ENABLED", "false") == "true",
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		Mailbox: MailboxConfig{
			IMAPHost:       getEnv("IMAP_HOST", ""),
			IMAPPort:       getEnvAsInt("IMAP_PORT", 993),
			IMAPEncryption: getEnv("IMAP_ENCRYPTION", "SSL"),
			IMAPMailbox:    getEnv("IMAP_MAILBOX", "INBOX"),
			SMTPHost:       getEnv("SMTP_HOST", ""),
			SMTPPort:       getEnvAsInt("SMTP_PORT", 587),
			Username:       getEnv("MAILBOX_USERNAME", ""),
			Password:       getEnv("MAILBOX_PASSWORD", ""),
			FromEmail:      getEnv("FROM_EMAIL", ""),
			FromName:       getEnv("FROM_NAME", ""),
		},

		CycleInterval:      time.Duration(getEnvAsInt("CYCLE_INTERVAL_MINUTES", 5)) * time.Minute,
		ThreadBatchSize:    getEnvAsInt("THREAD_BATCH_SIZE", 25),
		ReplyBatchSize:     getEnvAsInt("REPLY_BATCH_SIZE", 5),
		ActionBatchSize:    getEnvAsInt("ACTION_BATCH_SIZE", 10),
		FollowUpDelay:      time.Duration(getEnvAsInt("FOLLOW_UP_DELAY_DAYS", 7)) * 24 * time.Hour,
		MinContactInterval: time.Duration(getEnvAsInt("MIN_CONTACT_INTERVAL_HOURS", 48)) * time.Hour,
		RateLimitCycle:     getEnvAsInt("RATE_LIMIT_CYCLE", 4),

		UnsubscribeBaseURL: getEnv("UNSUBSCRIBE_BASE_URL", "http://localhost:5000"),
	}

	// Validate required configurations
	if AppConfig.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if AppConfig.CronSecret == "" {
		return fmt.Errorf("CRON_SECRET is required")
	}
	if AppConfig.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if AppConfig.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required for reply classification and drafting")
	}
	if AppConfig.Environment == "production" {
		if AppConfig.Mailbox.IMAPHost == "" || AppConfig.Mailbox.SMTPHost == "" {
			return fmt.Errorf("mailbox IMAP/SMTP configuration is required in production")
		}
		if AppConfig.Mailbox.FromEmail == "" {
			return fmt.Errorf("FROM_EMAIL is required in production")
		}
	}

	logConfig()
	return nil
}

func ConnectDB() error {
	log.Println("Attempting to connect to database...")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		AppConfig.DBHost,
		AppConfig.DBPort,
		AppConfig.DBUser,
		AppConfig.DBPassword,
		AppConfig.DBName,
		AppConfig.DBSSLMode,
	)
	log.Println("Using connection string:", maskPassword(dsn))

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get DB instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(AppConfig.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(AppConfig.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	log.Println("Successfully connected to the database")
	log.Println("Starting database migration...")
	if err := migrateDB(DB); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	log.Println("Database migration completed")
	return nil
}

// Helper functions
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var value int
	_, err := fmt.Sscanf(valueStr, "%d", &value)
	if err != nil {
		return fallback
	}
	return value
}

func maskPassword(dsn string) string {
	const passwordMarker = "password="
	startIdx := strings.Index(dsn, passwordMarker)
	if startIdx == -1 {
		return dsn
	}

	startIdx += len(passwordMarker)
	endIdx := strings.IndexAny(dsn[startIdx:], " ")
	if endIdx == -1 {
		return dsn[:startIdx] + "*****"
	}
	return dsn[:startIdx] + "*****" + dsn[startIdx+endIdx:]
}

func logConfig() {
	log.Println("Loaded configuration:")
	log.Printf("Environment: %s", AppConfig.Environment)
	log.Printf("Server Port: %s", AppConfig.ServerPort)
	log.Printf("Database: %s@%s:%s/%s",
		AppConfig.DBUser,
		AppConfig.DBHost,
		AppConfig.DBPort,
		AppConfig.DBName)
	log.Printf("Cycle: every %s, batches thread=%d reply=%d action=%d",
		AppConfig.CycleInterval,
		AppConfig.ThreadBatchSize,
		AppConfig.ReplyBatchSize,
		AppConfig.ActionBatchSize)
	log.Printf("Mailbox: imap=%s smtp=%s from=%s",
		AppConfig.Mailbox.IMAPHost,
		AppConfig.Mailbox.SMTPHost,
		AppConfig.Mailbox.FromEmail)
}

func migrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Lead{},
		&models.SentMessage{},
		&models.InboundReply{},
		&models.ScheduledAction{},
		&models.Bounce{},
		&models.KnowledgeDoc{},
		&models.VoiceSignal{},
		&models.CycleRun{},
	)
}
