package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	BaseURL     string // search-results URL, page number appended
	MaxPages    int
	MinPrice    float64
	MaxPrice    float64
	Preferences string

	DBDriver string // "sqlite" or "postgres"
	DBName   string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresSSLMode  string

	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string

	Renderer  string // "chrome" or "chromium"
	ChromeBin string

	PageDelayMs   int
	WaitTimeoutS  int
	CSVOutputPath string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		BaseURL:     getEnv("BASE_URL", "https://www.olx.ro/auto-masini-moto-ambarcatiuni/autoturisme/?page="),
		MaxPages:    getEnvInt("MAX_PAGES", 5),
		MinPrice:    getEnvFloat("MIN_PRICE", 0),
		MaxPrice:    getEnvFloat("MAX_PRICE", 100000),
		Preferences: getEnv("PREFERENCES", ""),

		DBDriver: getEnv("DB_DRIVER", "sqlite"),
		DBName:   getEnv("DB_NAME", "data.db"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		LLMBaseURL: getEnv("LLM_BASE_URL", "http://localhost:1234/v1"),
		LLMAPIKey:  getEnv("LLM_API_KEY", "lm-studio"),
		LLMModel:   getEnv("LLM_MODEL", ""),

		Renderer:  getEnv("RENDERER", "chrome"),
		ChromeBin: getEnv("CHROME_BIN", ""),

		PageDelayMs:   getEnvInt("PAGE_DELAY_MS", 5000),
		WaitTimeoutS:  getEnvInt("WAIT_TIMEOUT_S", 15),
		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/ratings.csv"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.DBName +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}
