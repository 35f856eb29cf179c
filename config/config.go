package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server settings
	AppPort string
	Host    string

	// MySQL DSN, e.g. user:pass@tcp(127.0.0.1:3306)/releaf?parseTime=true
	DatabaseURL string

	// JWT settings
	JWTSecret string

	// Gemini API key for the listing Q&A endpoint; empty disables it.
	GeminiAPIKey string

	// Directory for uploaded item images.
	UploadDir string
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		AppPort:      getEnv("PORT", "8080"),
		Host:         getEnv("HOST", ""),
		DatabaseURL:  getEnv("DATABASE_URL", "user:password@tcp(127.0.0.1:3306)/releaf?parseTime=true&loc=Local"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		UploadDir:    getEnv("UPLOAD_DIR", "./uploads/items"),
	}

	return config
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
