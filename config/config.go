package config

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Config is the process configuration, read from the environment.
type Config struct {
	Port        string
	DBDriver    string // postgres or sqlite
	DBDSN       string
	JWTSecret   string
	JWTTTL      time.Duration
	CORSOrigin  string
	OrgName     string
	SeedOnStart bool

	UploadDir       string
	UploadURLPrefix string
	MaxUploadBytes  int64
	UseGCS          bool
	GCSBucket       string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	TelegramToken  string
	TelegramChatID int64
}

// Load reads .env (when present) and the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		DBDriver:        getEnv("DB_DRIVER", "postgres"),
		DBDSN:           os.Getenv("DB_DSN"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		JWTTTL:          time.Duration(getEnvInt("JWT_TTL_HOURS", 24)) * time.Hour,
		CORSOrigin:      getEnv("CORS_ORIGIN", "*"),
		OrgName:         getEnv("ORG_NAME", "FCRM"),
		SeedOnStart:     getEnvBool("SEED_ON_START", true),
		UploadDir:       getEnv("UPLOAD_DIR", "./public/uploads"),
		UploadURLPrefix: strings.TrimRight(getEnv("UPLOAD_URL_PREFIX", "/uploads"), "/"),
		MaxUploadBytes:  int64(getEnvInt("MAX_UPLOAD_MB", 50)) << 20,
		UseGCS:          getEnvBool("USE_GCS", false),
		GCSBucket:       os.Getenv("GCS_BUCKET"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		TelegramToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			log.Printf("⚠️  Ignoring invalid TELEGRAM_CHAT_ID %q", v)
		} else {
			cfg.TelegramChatID = id
		}
	}
	return cfg
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	if c.DBDSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.UseGCS && c.GCSBucket == "" {
		return fmt.Errorf("GCS_BUCKET is required when USE_GCS is set")
	}
	return nil
}

// newGormLogger logs slow queries and real errors. Lookups that find nothing
// are expected (seeding checks, unknown logins) and stay quiet.
func newGormLogger(out io.Writer) logger.Interface {
	return logger.New(log.New(out, "\r\n", log.LstdFlags), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

// Open opens a GORM connection for the given driver.
func Open(driver, dsn string) (*gorm.DB, error) {
	gcfg := &gorm.Config{Logger: newGormLogger(os.Stdout)}
	switch driver {
	case "postgres", "":
		return gorm.Open(postgres.Open(dsn), gcfg)
	case "sqlite":
		db, err := gorm.Open(sqlite.Open(dsn), gcfg)
		if err != nil {
			return nil, err
		}
		// in-memory databases live and die with a single connection
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

// Connect opens the database, runs migrations and stores the handle in DB.
func Connect(cfg *Config) error {
	db, err := Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := Migrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	DB = db
	log.Println("✅ Database connected and migrated")
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("⚠️  Invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
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
