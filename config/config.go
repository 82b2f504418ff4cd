package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/shopfloor-app/models"
	"github.com/yeremiapane/shopfloor-app/utils"
)

const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Config centralises all environment and runtime configuration.
type Config struct {
	Port    string
	GinMode string

	DBDriver string
	DBDSN    string

	JWTSecret string
	JWTTTL    time.Duration

	AdminEmail    string
	AdminPassword string

	// BundleCount is the number of bundles an uploaded order is split into.
	BundleCount int
	// Operations is the default sewing routing attached to every bundle.
	Operations []string

	ScannerKey       string
	RequestTimeout   time.Duration
	ScanFeedInterval time.Duration

	RateLimitRPS   float64
	RateLimitBurst int

	AllowedOrigin string
	LogLevel      string
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Debugf("No .env file loaded: %v", err)
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("DB_DRIVER", DriverSQLite)
	v.SetDefault("DB_DSN", "shopfloor.db")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("ADMIN_EMAIL", "admin@shopfloor.local")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("BUNDLE_COUNT", 12)
	v.SetDefault("OPERATIONS", "cutting,stitching,finishing,packing")
	v.SetDefault("SCANNER_KEY", "")
	v.SetDefault("REQUEST_TIMEOUT", "5s")
	v.SetDefault("SCAN_FEED_INTERVAL", "500ms")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("ALLOWED_ORIGIN", "*")
	v.SetDefault("LOG_LEVEL", "info")

	cfg := &Config{
		Port:             v.GetString("PORT"),
		GinMode:          v.GetString("GIN_MODE"),
		DBDriver:         strings.ToLower(strings.TrimSpace(v.GetString("DB_DRIVER"))),
		DBDSN:            v.GetString("DB_DSN"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		JWTTTL:           v.GetDuration("JWT_TTL"),
		AdminEmail:       v.GetString("ADMIN_EMAIL"),
		AdminPassword:    v.GetString("ADMIN_PASSWORD"),
		BundleCount:      v.GetInt("BUNDLE_COUNT"),
		Operations:       splitList(v.GetString("OPERATIONS")),
		ScannerKey:       v.GetString("SCANNER_KEY"),
		RequestTimeout:   v.GetDuration("REQUEST_TIMEOUT"),
		ScanFeedInterval: v.GetDuration("SCAN_FEED_INTERVAL"),
		RateLimitRPS:     v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst:   v.GetInt("RATE_LIMIT_BURST"),
		AllowedOrigin:    v.GetString("ALLOWED_ORIGIN"),
		LogLevel:         v.GetString("LOG_LEVEL"),
	}

	if cfg.BundleCount <= 0 || cfg.BundleCount > models.MaxBundleCount {
		utils.ErrorLogger.Printf("BUNDLE_COUNT=%d is outside 1..%d, falling back to 12", cfg.BundleCount, models.MaxBundleCount)
		cfg.BundleCount = 12
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 5 * time.Second
	}
	if cfg.ScanFeedInterval <= 0 {
		cfg.ScanFeedInterval = 500 * time.Millisecond
	}
	if cfg.JWTSecret == "" && cfg.GinMode != gin.ReleaseMode {
		utils.ErrorLogger.Println("Warning: JWT_SECRET not set, using development secret")
	}

	return cfg
}

// Validate reports settings the server must not start with.
func (c *Config) Validate() error {
	if c.GinMode == gin.ReleaseMode && strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET must be set when GIN_MODE=release")
	}
	return nil
}

// Dialector returns the gorm dialector for a driver name.
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case DriverSQLite, "sqlite3", "":
		return sqlite.Open(dsn), nil
	case DriverMySQL:
		return mysql.Open(dsn), nil
	case DriverPostgres, "postgresql":
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

// InitDB opens the configured database.
func InitDB(cfg *Config) (*gorm.DB, error) {
	dialector, err := Dialector(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.DBDriver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.DBDriver == DriverSQLite || cfg.DBDriver == "" {
		// one writer at a time keeps sqlite from returning SQLITE_BUSY under load
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	utils.InfoLogger.Printf("Connected to %s database", cfg.DBDriver)
	return db, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
