package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPPort        = "8080"
	defaultTemporalAddress = "localhost:7233"
	defaultTemporalNS      = "default"
	defaultTaskQueue       = "submission-pipeline-task-queue"
	defaultMinioEndpoint   = "localhost:9000"
	defaultMinioBucket     = "submissions"
	defaultSMTPPort        = 587
	defaultSlackChannel    = "#business-submissions"
	defaultCompanyName     = "Business Acquisition Services"
	defaultDeliveryTimeout = 30
	defaultScanInterval    = 60
	defaultScanMinAge      = 300
)

type Config struct {
	HTTPPort          string
	PostgresDSN       string
	TemporalAddress   string
	TemporalNamespace string
	TemporalTaskQueue string
	WorkflowIDPrefix  string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string

	SlackWebhookURL string
	SlackChannel    string

	// Per-channel enable flags. A disabled channel reports success with a
	// "channel disabled" detail so the pipeline state machine is unchanged.
	StorageEnabled bool
	EmailEnabled   bool
	SlackEnabled   bool

	CompanyName        string
	SpoolDir           string
	AllowedUploadBytes int64
	DeliveryTimeoutSec int

	ScanIntervalSec int
	ScanMinAgeSec   int
}

func Load() (Config, error) {
	// Local development keeps credentials in .env; absence is fine.
	_ = godotenv.Load()

	cfg := Config{
		HTTPPort:          getenv("HTTP_PORT", defaultHTTPPort),
		PostgresDSN:       os.Getenv("POSTGRES_DSN"),
		TemporalAddress:   getenv("TEMPORAL_ADDRESS", defaultTemporalAddress),
		TemporalNamespace: getenv("TEMPORAL_NAMESPACE", defaultTemporalNS),
		TemporalTaskQueue: getenv("TEMPORAL_TASK_QUEUE", defaultTaskQueue),
		WorkflowIDPrefix:  getenv("WORKFLOW_ID_PREFIX", "submission-pipeline"),

		MinioEndpoint:  getenv("MINIO_ENDPOINT", defaultMinioEndpoint),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getenv("MINIO_BUCKET", defaultMinioBucket),
		MinioUseSSL:    getenvBool("MINIO_USE_SSL", false),

		SMTPHost:     getenv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:     getenvInt("SMTP_PORT", defaultSMTPPort),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		FromEmail:    os.Getenv("FROM_EMAIL"),

		SlackWebhookURL: os.Getenv("SLACK_WEBHOOK_URL"),
		SlackChannel:    getenv("SLACK_CHANNEL", defaultSlackChannel),

		StorageEnabled: getenvBool("STORAGE_ENABLED", true),
		EmailEnabled:   getenvBool("EMAIL_ENABLED", true),
		SlackEnabled:   getenvBool("SLACK_ENABLED", true),

		CompanyName:        getenv("PDF_COMPANY_NAME", defaultCompanyName),
		SpoolDir:           getenv("SPOOL_DIR", os.TempDir()),
		AllowedUploadBytes: int64(getenvInt("MAX_UPLOAD_BYTES", 10*1024*1024)),
		DeliveryTimeoutSec: getenvInt("DELIVERY_TIMEOUT_SEC", defaultDeliveryTimeout),

		ScanIntervalSec: getenvInt("REDISPATCH_INTERVAL_SEC", defaultScanInterval),
		ScanMinAgeSec:   getenvInt("REDISPATCH_MIN_AGE_SEC", defaultScanMinAge),
	}

	if cfg.PostgresDSN == "" {
		return Config{}, fmt.Errorf("POSTGRES_DSN is required")
	}

	return cfg, nil
}

func getenv(key string, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
