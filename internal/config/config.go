package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Config holds the application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Security SecurityConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Email    EmailConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
	GracefulStop int // seconds
	IsProd       bool
}

type DatabaseConfig struct {
	Driver   string // postgres, mysql, sqlite
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // seconds
}

type SecurityConfig struct {
	JWTSecret          string
	JWTExpirationHours int // 0 issues tokens without an expiry
	BcryptCost         int

	// ENFORCE_USER_SELF_ACCESS gates PATCH/DELETE /users/:id on the caller's own token.
	EnforceUserSelfAccess bool

	AllowedOrigins []string

	RateLimitEnabled   bool
	RateLimitPerMinute int
	RateLimitBurstSize int
}

type RedisConfig struct {
	URL             string
	CacheTTLSeconds int
}

type StorageConfig struct {
	AWSRegion    string
	AWSAccessKey string
	AWSSecretKey string
	S3Bucket     string
	UploadDir    string
	BaseURL      string
}

type EmailConfig struct {
	From     string
	Password string
	SMTPHost string
	SMTPPort string
}

type LoggingConfig struct {
	Level      string // debug, info, warn, error
	Format     string // json, text
	Output     string // stdout, file
	FilePath   string
	MaxSize    int // MB
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// Load loads configuration from the environment, reading .env first when present
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", ""),
			Port:         getEnvInt("PORT", 8080),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 30),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 30),
			IdleTimeout:  getEnvInt("SERVER_IDLE_TIMEOUT", 120),
			GracefulStop: getEnvInt("SERVER_GRACEFUL_STOP", 15),
			IsProd:       getEnvBool("IS_PROD", false),
		},
		Database: databaseFromEnv(),
		Security: SecurityConfig{
			JWTSecret:             getEnv("JWT_SECRET", ""),
			JWTExpirationHours:    getEnvInt("JWT_EXPIRATION_HOURS", 0),
			BcryptCost:            getEnvInt("BCRYPT_COST", bcrypt.DefaultCost),
			EnforceUserSelfAccess: getEnvBool("ENFORCE_USER_SELF_ACCESS", false),
			AllowedOrigins:        getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			RateLimitEnabled:      getEnvBool("RATE_LIMIT_ENABLED", false),
			RateLimitPerMinute:    getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
			RateLimitBurstSize:    getEnvInt("RATE_LIMIT_BURST_SIZE", 20),
		},
		Redis: RedisConfig{
			URL:             getEnv("REDIS_URL", ""),
			CacheTTLSeconds: getEnvInt("CACHE_TTL_SECONDS", 60),
		},
		Storage: StorageConfig{
			AWSRegion:    getEnv("AWS_REGION", ""),
			AWSAccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
			AWSSecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:     getEnv("AWS_S3_BUCKET", ""),
			UploadDir:    getEnv("UPLOAD_DIR", "./uploads"),
			BaseURL:      getEnv("BASE_URL", "http://localhost:8080"),
		},
		Email: EmailConfig{
			From:     getEnv("EMAIL_FROM", ""),
			Password: getEnv("EMAIL_PASSWORD", ""),
			SMTPHost: getEnv("SMTP_HOST", ""),
			SMTPPort: getEnv("SMTP_PORT", ""),
		},
		Logging: loggingFromEnv(),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadMigration reads only the database and logging settings, for tools that never serve requests
func LoadMigration() (*DatabaseConfig, *LoggingConfig, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	db := databaseFromEnv()
	if err := validateDriver(db.Driver); err != nil {
		return nil, nil, err
	}
	logging := loggingFromEnv()
	return &db, &logging, nil
}

func databaseFromEnv() DatabaseConfig {
	return DatabaseConfig{
		Driver:          getEnv("DB_DRIVER", "postgres"),
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvInt("DB_PORT", 5432),
		Name:            getEnv("DB_NAME", "sendit"),
		User:            getEnv("DB_USER", ""),
		Password:        getEnv("DB_PASSWORD", ""),
		SSLMode:         getEnv("DB_SSL_MODE", "disable"),
		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 100),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
		ConnMaxLifetime: getEnvInt("DB_CONN_MAX_LIFETIME", 3600),
	}
}

func loggingFromEnv() LoggingConfig {
	return LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Format:     getEnv("LOG_FORMAT", "json"),
		Output:     getEnv("LOG_OUTPUT", "stdout"),
		FilePath:   getEnv("LOG_FILE_PATH", "logs/sendit.log"),
		MaxSize:    getEnvInt("LOG_MAX_SIZE", 100),
		MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
		MaxAge:     getEnvInt("LOG_MAX_AGE", 28),
		Compress:   getEnvBool("LOG_COMPRESS", true),
	}
}

func validateDriver(driver string) error {
	switch driver {
	case "postgres", "mysql", "sqlite":
		return nil
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", driver)
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if cfg.Security.BcryptCost < bcrypt.MinCost || cfg.Security.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	if cfg.Security.JWTExpirationHours < 0 {
		return fmt.Errorf("JWT_EXPIRATION_HOURS must not be negative")
	}

	return validateDriver(cfg.Database.Driver)
}

// GetDSN returns the database connection string for the configured driver
func (c *DatabaseConfig) GetDSN() string {
	switch c.Driver {
	case "postgres":
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
			c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
			c.User, c.Password, c.Host, c.Port, c.Name)
	case "sqlite":
		return c.Name
	default:
		return ""
	}
}

// GetServerAddr returns the listen address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *SecurityConfig) TokenTTL() time.Duration {
	return time.Duration(c.JWTExpirationHours) * time.Hour
}

func (c *RedisConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// S3Enabled reports whether AWS credentials are complete
func (c *StorageConfig) S3Enabled() bool {
	return c.AWSRegion != "" && c.AWSAccessKey != "" && c.AWSSecretKey != ""
}

func (c *EmailConfig) Enabled() bool {
	return c.From != "" && c.Password != "" && c.SMTPHost != "" && c.SMTPPort != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
