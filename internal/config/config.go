package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/casamorales/restaurant-backend/internal/models"
)

type Config struct {
	PORT              string
	DB_HOST           string
	DB_PORT           string
	DB_USER           string
	DB_PASSWORD       string
	DB_NAME           string
	ES_USER           string
	ES_PASSWORD       string
	ES_URL            string
	JWT_SECRET        string
	KAFKA_ADDRESS     string
	LOG_LEVEL         string
	ENV               string
	STRICT_ORDER_FLOW bool
	CONN_MAX_OPEN     int
	CONN_MAX_IDLE     time.Duration
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		PORT:              getDefault("PORT", "8080"),
		DB_HOST:           os.Getenv("DB_HOST"),
		DB_PORT:           getDefault("DB_PORT", "5432"),
		DB_USER:           os.Getenv("DB_USER"),
		DB_PASSWORD:       os.Getenv("DB_PASSWORD"),
		DB_NAME:           os.Getenv("DB_NAME"),
		ES_USER:           os.Getenv("ES_USER"),
		ES_PASSWORD:       os.Getenv("ES_PASSWORD"),
		ES_URL:            os.Getenv("ES_URL"),
		JWT_SECRET:        os.Getenv("JWT_SECRET"),
		KAFKA_ADDRESS:     os.Getenv("KAFKA_ADDRESS"),
		LOG_LEVEL:         getDefault("LOG_LEVEL", "info"),
		ENV:               getDefault("APP_ENV", "development"),
		STRICT_ORDER_FLOW: getBool("STRICT_ORDER_FLOW"),
		CONN_MAX_OPEN:     getInt("DB_MAX_OPEN_CONNS", 10),
		CONN_MAX_IDLE:     2 * time.Minute,
	}

	// secrets have no fallback: refusing to start beats signing tokens
	// with an empty key
	if config.DB_HOST == "" || config.DB_USER == "" || config.DB_NAME == "" {
		return nil, fmt.Errorf("config: DB_HOST, DB_USER and DB_NAME are required")
	}
	if config.JWT_SECRET == "" {
		return nil, fmt.Errorf("config: JWT_SECRET is required")
	}

	return config, nil
}

func (c *Config) IsProduction() bool { return c.ENV == "production" }

func getDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBool(key string) bool {
	v, _ := strconv.ParseBool(os.Getenv(key))
	return v
}

func getInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return def
}

func InitDB(configuration *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable&connect_timeout=10",
		configuration.DB_USER, configuration.DB_PASSWORD,
		configuration.DB_HOST, configuration.DB_PORT, configuration.DB_NAME,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(configuration.CONN_MAX_OPEN)
	sqlDB.SetConnMaxIdleTime(configuration.CONN_MAX_IDLE)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Role{}, &models.User{}, &models.Staff{}, &models.Category{},
		&models.MenuItem{}, &models.RestaurantTable{}, &models.Order{},
		&models.OrderItem{}, &models.Session{},
	); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
