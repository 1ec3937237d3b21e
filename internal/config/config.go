package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type Config struct {
	// Server
	Port     string
	Env      string
	LogLevel string

	// Completion provider
	Provider      string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	GeminiAPIKey  string
	Model         string
	ChatModel     string

	// Uploads
	StoragePath string
	MaxUploadMB int
	MaxFiles    int

	// Frontend
	FrontendURL string
}

var defaultModels = map[string][2]string{
	ProviderOpenAI: {"gpt-4o", "gpt-3.5-turbo"},
	ProviderGemini: {"gemini-1.5-pro", "gemini-1.5-flash"},
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	provider := strings.ToLower(getEnvOrDefault("LLM_PROVIDER", ProviderOpenAI))
	models, ok := defaultModels[provider]
	if !ok {
		panic(fmt.Sprintf("unsupported LLM_PROVIDER %q", provider))
	}

	cfg := &Config{
		Port:        getEnvOrDefault("PORT", "8080"),
		Env:         getEnvOrDefault("ENV", "development"),
		LogLevel:    getEnvOrDefault("LOG_LEVEL", "info"),
		Provider:    provider,
		Model:       getEnvOrDefault("MODEL", models[0]),
		ChatModel:   getEnvOrDefault("CHAT_MODEL", models[1]),
		StoragePath: getEnvOrDefault("STORAGE_PATH", "./uploads"),
		MaxUploadMB: getEnvAsIntOrDefault("MAX_UPLOAD_MB", 100),
		MaxFiles:    getEnvAsIntOrDefault("MAX_FILES", 10),
		FrontendURL: getEnvOrDefault("FRONTEND_URL", "*"),
	}

	switch provider {
	case ProviderOpenAI:
		cfg.OpenAIAPIKey = mustGetEnv("OPENAI_API_KEY")
		cfg.OpenAIBaseURL = getEnvOrDefault("OPENAI_BASE_URL", "")
	case ProviderGemini:
		cfg.GeminiAPIKey = mustGetEnv("GEMINI_API_KEY")
	}

	return cfg
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
