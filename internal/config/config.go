package config

import (
	"fmt"     // DSN formatting
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"strings" // For list parsing

	"storefront/internal/domain" // Money limits

	"github.com/joho/godotenv"      // For loading .env files
	"github.com/shopspring/decimal" // For the starting balance
)

// Supported DB_DRIVER values
const (
	DriverMySQL = "mysql"
	DriverMongo = "mongo"
)

// Config holds the application configuration
type Config struct {
	AppPort             string          // Application port
	DBDriver            string          // mysql or mongo
	DBUser              string          // Database user
	DBPassword          string          // Database password
	DBHost              string          // Database host
	DBPort              string          // Database port
	DBName              string          // Database name
	MongoURI            string          // MongoDB connection string
	JWTSecret           string          // JWT secret key
	RedisAddr           string          // Redis server address
	RedisPass           string          // Redis password
	RedisDB             int             // Redis database number
	KafkaBrokers        []string        // Kafka brokers, empty disables order events
	KafkaTopic          string          // Topic of order events
	DefaultBalance      decimal.Decimal // Balance of newly registered users
	CommitRetries       int             // Attempts per purchase on transaction conflicts
	RejectTotalMismatch bool            // Refuse purchases whose total differs from line prices
	IsProd              bool            // Is production environment
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	return &Config{
		AppPort:             getEnv("APP_PORT", "8080"),                             // Application port
		DBDriver:            getEnv("DB_DRIVER", DriverMySQL),                       // Database driver
		DBUser:              os.Getenv("DB_USER"),                                   // Database user
		DBPassword:          os.Getenv("DB_PASSWORD"),                               // Database password
		DBHost:              getEnv("DB_HOST", "localhost"),                         // Database host
		DBPort:              getEnv("DB_PORT", "3306"),                              // Database port
		DBName:              getEnv("DB_NAME", "storefront"),                        // Database name
		MongoURI:            getEnv("MONGO_URI", "mongodb://localhost:27017"),       // MongoDB URI
		JWTSecret:           os.Getenv("JWT_SECRET"),                                // JWT secret key
		RedisAddr:           os.Getenv("REDIS_ADDR"),                                // Redis server address
		RedisPass:           os.Getenv("REDIS_PASS"),                                // Redis password
		RedisDB:             redisDB,                                                // Redis database number
		KafkaBrokers:        splitList(os.Getenv("KAFKA_BROKERS")),                  // Kafka brokers
		KafkaTopic:          getEnv("KAFKA_TOPIC", "orders"),                        // Kafka topic
		DefaultBalance:      getDecimal("DEFAULT_BALANCE", decimal.NewFromInt(100)), // Starting balance
		CommitRetries:       getInt("COMMIT_RETRIES", 3),                            // Commit attempts
		RejectTotalMismatch: os.Getenv("REJECT_TOTAL_MISMATCH") == "true",           // Total mismatch policy
		IsProd:              os.Getenv("IS_PROD") == "true",                         // Is production environment
	}
}

// MySQLDSN builds the Data Source Name for the MySQL connection
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// getEnv returns the value of key, or fallback when unset or empty
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getInt returns key as a positive int, or fallback
func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

// getDecimal returns key as a non-negative decimal, or fallback
func getDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	v, err := decimal.NewFromString(os.Getenv(key))
	if err != nil || v.IsNegative() || !domain.ValidMoney(v) {
		return fallback // Unparsable, negative or not storable as money
	}
	return v
}

// splitList splits a comma separated list, dropping empty entries
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
