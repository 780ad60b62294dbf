package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (선택: DATABASE_URL 없으면 스냅샷 저장소 비활성)
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Upstream data
	FPL FPLConfig

	// Reasoning text collaborator
	Reasoning ReasoningConfig

	// Optimizer tuning file (YAML, internal/squadconfig)
	SquadConfigPath string

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
	MetricsPort    string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string // redis://… 형식, 설정 시 Host/Port/Password/DB 무시
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether a database URL was configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// FPLConfig holds Fantasy Premier League API configuration
type FPLConfig struct {
	BaseURL        string
	RequestsPerSec int           // 로컬 토큰 버킷 (x/time/rate)
	Timeout        time.Duration // 요청 타임아웃
	RefreshCron    string        // 스케줄러 풀 갱신 주기
	Difficulty     string        // official | strength
	SnapshotPath   string        // 오프라인 실행용 JSON 스냅샷 (선택)
}

// ReasoningConfig holds the reasoning text endpoint configuration
type ReasoningConfig struct {
	Provider string // http | openai (OpenAI 호환 chat completions)
	Endpoint string // 비어 있으면 템플릿 생성기 사용 (openai: base URL, 키만 있으면 기본 URL)
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", ""),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		FPL: FPLConfig{
			BaseURL:        getEnv("FPL_BASE_URL", "https://fantasy.premierleague.com/api"),
			RequestsPerSec: getEnvAsInt("FPL_REQUESTS_PER_SEC", 2),
			Timeout:        getEnvAsDuration("FPL_TIMEOUT", "20s"),
			RefreshCron:    getEnv("FPL_REFRESH_CRON", "0 0 */6 * * *"),
			Difficulty:     getEnv("FPL_DIFFICULTY", "official"),
			SnapshotPath:   getEnv("FPL_SNAPSHOT", ""),
		},

		Reasoning: ReasoningConfig{
			Provider: getEnv("REASONING_PROVIDER", "http"),
			Endpoint: getEnv("REASONING_ENDPOINT", ""),
			APIKey:   getEnv("REASONING_API_KEY", ""),
			Model:    getEnv("REASONING_MODEL", ""),
			Timeout:  getEnvAsDuration("REASONING_TIMEOUT", "15s"),
		},

		SquadConfigPath: getEnv("SQUAD_CONFIG", ""),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		MetricsPort:    getEnv("METRICS_PORT", "9090"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.FPL.RequestsPerSec <= 0 {
		return fmt.Errorf("FPL_REQUESTS_PER_SEC must be > 0")
	}

	if c.FPL.Difficulty != "official" && c.FPL.Difficulty != "strength" {
		return fmt.Errorf("FPL_DIFFICULTY must be one of: official, strength")
	}

	if c.Reasoning.Provider != "http" && c.Reasoning.Provider != "openai" {
		return fmt.Errorf("REASONING_PROVIDER must be one of: http, openai")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
		"backend/.env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
