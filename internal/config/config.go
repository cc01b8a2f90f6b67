package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config содержит настройки бота, считанные из окружения.
type Config struct {
	BotToken    string `env:"BOT_TOKEN"`
	Transport   string `env:"TRANSPORT" envDefault:"console" validate:"oneof=telegram console"`
	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres" validate:"oneof=postgres memory"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD" envDefault:"password"`
	DBName     string `env:"DB_NAME" envDefault:"course_bot"`
	ServerPort string `env:"SERVER_PORT" envDefault:"8080"`

	Timezone             string   `env:"TIMEZONE" envDefault:"Africa/Cairo" validate:"required"`
	MaxWarnings          int      `env:"MAX_WARNINGS" envDefault:"3" validate:"gt=0"`
	MuteDurationMinutes  int      `env:"MUTE_DURATION_MINUTES" envDefault:"30" validate:"gt=0"`
	SweepIntervalSeconds int      `env:"SWEEP_INTERVAL_SECONDS" envDefault:"60" validate:"gt=0"`
	AdminRecipientIDs    []string `env:"ADMIN_IDS" envSeparator:","`
	ScheduleFile         string   `env:"SCHEDULE_FILE" envDefault:"schedule.yaml"`

	AssignmentDigestTime   string  `env:"ASSIGNMENT_DIGEST_TIME" envDefault:"09:00" validate:"datetime=15:04"`
	WeeklyDigestDay        string  `env:"WEEKLY_DIGEST_DAY" envDefault:"sunday" validate:"weekday"`
	WeeklyDigestTime       string  `env:"WEEKLY_DIGEST_TIME" envDefault:"09:00" validate:"datetime=15:04"`
	CleanupTime            string  `env:"CLEANUP_TIME" envDefault:"02:00" validate:"datetime=15:04"`
	WelcomeCheckMinutes    int     `env:"WELCOME_CHECK_MINUTES" envDefault:"60" validate:"gt=0"`
	ActivityRetentionDays  int     `env:"ACTIVITY_RETENTION_DAYS" envDefault:"30" validate:"gt=0"`
	ConversationTTLMinutes int     `env:"CONVERSATION_TTL_MINUTES" envDefault:"5" validate:"gt=0"`
	SendRatePerSecond      float64 `env:"SEND_RATE_PER_SECOND" envDefault:"10" validate:"gte=0"`

	RequireVerification bool   `env:"REQUIRE_VERIFICATION" envDefault:"false"`
	SubscriptionCode    string `env:"SUBSCRIPTION_CODE" validate:"required_if=RequireVerification true,omitempty,len=6,numeric"`
	CourseName          string `env:"COURSE_NAME" envDefault:"Programming for Beginners"`
}

// LoadEnvFile загружает .env в окружение процесса, если файл существует.
func LoadEnvFile() error {
	return godotenv.Load()
}

// LoadConfig собирает конфигурацию из переменных окружения и валидирует ее.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	for i, id := range cfg.AdminRecipientIDs {
		cfg.AdminRecipientIDs[i] = strings.TrimSpace(id)
	}

	if err := newValidator().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	if _, err := cfg.Location(); err != nil {
		return cfg, err
	}
	if cfg.Transport == "telegram" && cfg.BotToken == "" {
		return cfg, fmt.Errorf("invalid config: BOT_TOKEN is required for telegram transport")
	}

	return cfg, nil
}

// Location возвращает часовой пояс, в котором считаются все расписания.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// MuteDuration возвращает длительность автоматического мьюта.
func (c Config) MuteDuration() time.Duration {
	return time.Duration(c.MuteDurationMinutes) * time.Minute
}

// SweepInterval возвращает период проверки истекших мьютов.
func (c Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

// DSN возвращает строку подключения к PostgreSQL.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}
