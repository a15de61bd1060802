package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	ServerPort    string
	StorageDriver string

	DBHost         string
	DBPort         int
	DBUser         string
	DBPassword     string
	DBName         string
	DBSslMode      string
	MigrationsPath string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret          string
	JWTExpirationHours time.Duration

	RatePerHour  decimal.Decimal
	FacilityFile string

	BootstrapAdmin AdminAccount

	LPREnabled bool
	AWSRegion  string
}

// AdminAccount is created at startup when the store has no admin.
type AdminAccount struct {
	Username string
	Password string
	Phone    string
	Name     string
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Printf("Config: could not load .env file: %v", err)
	}

	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	jwtExpHours, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))
	lprEnabled, _ := strconv.ParseBool(getEnv("LPR_ENABLED", "false"))

	rate, err := decimal.NewFromString(getEnv("RATE_PER_HOUR", "30"))
	if err != nil || rate.IsNegative() {
		log.Printf("Config: invalid RATE_PER_HOUR, using 30")
		rate = decimal.NewFromInt(30)
	}

	return &Config{
		ServerPort:    getEnv("SERVER_PORT", "8080"),
		StorageDriver: getEnv("STORAGE_DRIVER", StoragePostgres),

		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         dbPort,
		DBUser:         getEnv("DB_USER", "parking"),
		DBPassword:     getEnv("DB_PASSWORD", "parking"),
		DBName:         getEnv("DB_NAME", "parking_console"),
		DBSslMode:      getEnv("DB_SSLMODE", "disable"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "file://migrations"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       redisDB,

		JWTSecret:          getEnv("JWT_SECRET", "change-me-parking-console-secret"),
		JWTExpirationHours: time.Duration(jwtExpHours) * time.Hour,

		RatePerHour:  rate,
		FacilityFile: getEnv("FACILITY_FILE", ""),

		BootstrapAdmin: AdminAccount{
			Username: getEnv("BOOTSTRAP_ADMIN_USERNAME", "admin"),
			Password: getEnv("BOOTSTRAP_ADMIN_PASSWORD", "admin123"),
			Phone:    getEnv("BOOTSTRAP_ADMIN_PHONE", "0000000000"),
			Name:     getEnv("BOOTSTRAP_ADMIN_NAME", "Administrator"),
		},

		LPREnabled: lprEnabled,
		AWSRegion:  getEnv("AWS_REGION", "ap-south-1"),
	}
}

// PostgresDSN is the key/value connection string for database/sql.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

// MigrationURL is the URL form golang-migrate expects.
func (c *Config) MigrationURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSslMode),
	}
	return u.String()
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Config: '%s' is not set, using default '%s'", key, fallback)
	return fallback
}
