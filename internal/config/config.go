package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	PolicyPermissive = "permissive"
	PolicyStrict     = "strict"
)

type Config struct {
	DBPath     string
	RawMailDir string
	OutputDir  string
	HTTPAddr   string

	LogLevel  string
	LogFormat string

	SchedulerAPIBaseURL  string
	SchedulerAPIToken    string
	SchedulerRateLimitRS int
	SchedulerTimeoutMs   int
	SchedulerMaxAttempts int

	ValidationFailurePolicy string
	DayStartTime            string
	LunchStartTime          string
	LunchEndTime            string
	DayCutoffTime           string

	GmailClientID     string
	GmailClientSecret string
	GmailRedirectURI  string
	GmailRefreshToken string

	IMAPHost     string
	IMAPPort     int
	IMAPSecure   bool
	IMAPUser     string
	IMAPPassword string
	IMAPMarkSeen bool

	MailListenerProvider     string
	MailListenerLabel        string
	MailListenerIntervalSec  int
	MailListenerFetchMax     int
	MailListenerProcessBatch int
	MailListenerAutoExport   bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:     getEnv("DB_PATH", filepath.Join(cwd, "data", "classload.db")),
		RawMailDir: getEnv("MAIL_RAW_DIR", filepath.Join(cwd, "data", "raw")),
		OutputDir:  getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),
		HTTPAddr:   getEnv("HTTP_ADDR", ":8080"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		SchedulerAPIBaseURL:  getEnv("SCHEDULER_API_BASE_URL", "http://localhost:5000/api"),
		SchedulerAPIToken:    getEnv("SCHEDULER_API_TOKEN", ""),
		SchedulerRateLimitRS: getEnvInt("SCHEDULER_RATE_LIMIT_RPS", 10),
		SchedulerTimeoutMs:   getEnvInt("SCHEDULER_TIMEOUT_MS", 15000),
		SchedulerMaxAttempts: getEnvInt("SCHEDULER_MAX_ATTEMPTS", 3),

		ValidationFailurePolicy: strings.ToLower(getEnv("VALIDATION_FAILURE_POLICY", PolicyPermissive)),
		DayStartTime:            getEnv("DAY_START_TIME", "07:00"),
		LunchStartTime:          getEnv("LUNCH_START_TIME", "12:00"),
		LunchEndTime:            getEnv("LUNCH_END_TIME", "13:00"),
		DayCutoffTime:           getEnv("DAY_CUTOFF_TIME", "20:45"),

		GmailClientID:     getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret: getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRedirectURI:  getEnv("GMAIL_REDIRECT_URI", "https://developers.google.com/oauthplayground"),
		GmailRefreshToken: getEnv("GMAIL_REFRESH_TOKEN", ""),

		IMAPHost:     getEnv("IMAP_HOST", ""),
		IMAPPort:     getEnvInt("IMAP_PORT", 993),
		IMAPSecure:   getEnvBool("IMAP_SECURE", true),
		IMAPUser:     getEnv("IMAP_USER", ""),
		IMAPPassword: getEnv("IMAP_PASSWORD", ""),
		IMAPMarkSeen: getEnvBool("IMAP_MARK_SEEN", false),

		MailListenerProvider:     getEnv("MAIL_LISTENER_PROVIDER", "imap"),
		MailListenerLabel:        getEnv("MAIL_LISTENER_LABEL", "INBOX"),
		MailListenerIntervalSec:  getEnvInt("MAIL_LISTENER_INTERVAL_SEC", 60),
		MailListenerFetchMax:     getEnvInt("MAIL_LISTENER_FETCH_MAX", 20),
		MailListenerProcessBatch: getEnvInt("MAIL_LISTENER_PROCESS_BATCH", 20),
		MailListenerAutoExport:   getEnvBool("MAIL_LISTENER_AUTO_EXPORT", true),
	}

	if cfg.ValidationFailurePolicy != PolicyPermissive && cfg.ValidationFailurePolicy != PolicyStrict {
		return Config{}, fmt.Errorf("invalid VALIDATION_FAILURE_POLICY %q (want %s|%s)", cfg.ValidationFailurePolicy, PolicyPermissive, PolicyStrict)
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
