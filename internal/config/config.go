package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrPaymentConfig marks a fatal payment configuration problem: the payment
// feature must never come up half-configured.
var ErrPaymentConfig = errors.New("payment configuration is incomplete")

type SquareConfig struct {
	ApplicationID string
	LocationID    string
	AccessToken   string
	Environment   string // sandbox or production
}

// APIBaseURL returns the Square REST endpoint for the configured environment.
func (s SquareConfig) APIBaseURL() string {
	if s.Environment == "production" {
		return "https://connect.squareup.com"
	}
	return "https://connect.squareupsandbox.com"
}

type Config struct {
	// Database
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	DatabaseURL string

	// Redis
	EnableRedis bool
	RedisURL    string

	// Server
	Port        string
	Environment string

	// CORS
	CORSOrigins []string

	// Store
	Currency         string
	ShippingFeeCents int64
	TaxRate          float64
	CartTTLMinutes   int
	ConfirmationURL  string

	// Payments
	Square SquareConfig

	// Features
	EnableMetrics bool
}

func New() *Config {
	c := &Config{
		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "decantuser"),
		DBPassword: getEnv("DB_PASSWORD", "decantpassword"),
		DBName:     getEnv("DB_NAME", "decantdb"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// Redis
		EnableRedis: getEnvAsBool("ENABLE_REDIS", true),
		RedisURL:    getEnv("REDIS_URL", "localhost:6379"),

		// Server
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// CORS
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),

		// Store
		Currency:         getEnv("STORE_CURRENCY", "USD"),
		ShippingFeeCents: getEnvAsInt64("SHIPPING_FEE_CENTS", 1500),
		TaxRate:          getEnvAsFloat("TAX_RATE", 0.10),
		CartTTLMinutes:   getEnvAsInt("CART_TTL_MINUTES", 120),
		ConfirmationURL:  getEnv("ORDER_CONFIRMATION_URL", "/order-confirmation"),

		// Payments
		Square: SquareConfig{
			ApplicationID: getEnv("SQUARE_APPLICATION_ID", ""),
			LocationID:    getEnv("SQUARE_LOCATION_ID", ""),
			AccessToken:   getEnv("SQUARE_ACCESS_TOKEN", ""),
			Environment:   getEnv("SQUARE_ENVIRONMENT", "sandbox"),
		},

		// Features
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
	}

	// Build DSN
	c.DatabaseURL = fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)

	return c
}

// Validate rejects configurations that would let the service start with a
// broken payment path. Missing merchant identifiers are fatal, not a
// condition to discover at the first checkout.
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Square.ApplicationID) == "" {
		missing = append(missing, "SQUARE_APPLICATION_ID")
	}
	if strings.TrimSpace(c.Square.LocationID) == "" {
		missing = append(missing, "SQUARE_LOCATION_ID")
	}
	if strings.TrimSpace(c.Square.AccessToken) == "" {
		missing = append(missing, "SQUARE_ACCESS_TOKEN")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrPaymentConfig, strings.Join(missing, ", "))
	}

	if c.Square.Environment != "sandbox" && c.Square.Environment != "production" {
		return fmt.Errorf("%w: SQUARE_ENVIRONMENT must be sandbox or production, got %q", ErrPaymentConfig, c.Square.Environment)
	}

	if c.ShippingFeeCents < 0 {
		return fmt.Errorf("SHIPPING_FEE_CENTS must not be negative")
	}
	if c.TaxRate < 0 || c.TaxRate >= 1 {
		return fmt.Errorf("TAX_RATE must be in [0, 1)")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return valueStr == "true" || valueStr == "1"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
