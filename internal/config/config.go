package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Model    ModelConfig
	Search   SearchConfig
	Database DatabaseConfig
	Keys     APIKeys
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	AuditTopic         string
}

type ModelConfig struct {
	Model              string
	MaxTokens          int
	ReasoningEffort    string
	SystemInstructions string
	BaseURL            string
}

type SearchConfig struct {
	Provider           string // "openai" or "pgvector"
	VectorStoreId      string
	TopK               int
	MaxCharsPerContent int
	EmbedModel         string
	OllamaBaseURL      string
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	OpenAI string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "gateway.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			AuditTopic:         getEnv("AUDIT_TOPIC_NAME", "QUERY_COMPLETED"),
		},
		Model: ModelConfig{
			Model:              getEnv("MODEL", ""),
			MaxTokens:          getEnvAsInt("MAX_TOKENS", 0),
			ReasoningEffort:    getEnv("REASONING_EFFORT", ""),
			SystemInstructions: getEnv("SYSTEM_INSTRUCTIONS", ""),
			BaseURL:            getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		},
		Search: SearchConfig{
			Provider:           getEnv("SEARCH_PROVIDER", "openai"),
			VectorStoreId:      getEnv("OPENAI_VECTOR_STORE_ID", ""),
			TopK:               getEnvAsInt("TOP_K", 0),
			MaxCharsPerContent: getEnvAsInt("MAX_CHARS_PER_CONTENT", 0),
			EmbedModel:         getEnv("EMBED_MODEL", ""),
			OllamaBaseURL:      getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			OpenAI: getEnv("OPENAI_API_KEY", ""),
		},
	}
}

// Validate checks every setting the pipeline depends on. The process refuses
// to start on a bad configuration instead of failing on the first request.
func (c *Config) Validate() error {
	var missing []string

	if c.Model.Model == "" {
		missing = append(missing, "MODEL")
	}
	if c.Model.MaxTokens <= 0 {
		missing = append(missing, "MAX_TOKENS")
	}
	if c.Model.ReasoningEffort == "" {
		missing = append(missing, "REASONING_EFFORT")
	}
	if c.Model.SystemInstructions == "" {
		missing = append(missing, "SYSTEM_INSTRUCTIONS")
	}
	if c.Search.TopK <= 0 {
		missing = append(missing, "TOP_K")
	}
	if c.Search.MaxCharsPerContent <= 0 {
		missing = append(missing, "MAX_CHARS_PER_CONTENT")
	}
	if c.Search.EmbedModel == "" {
		missing = append(missing, "EMBED_MODEL")
	}
	if c.Keys.OpenAI == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}

	switch c.Search.Provider {
	case "openai":
		if c.Search.VectorStoreId == "" {
			missing = append(missing, "OPENAI_VECTOR_STORE_ID")
		}
	case "pgvector":
		if c.Database.Connection == "" {
			missing = append(missing, "DB_CONNECTION_STRING")
		}
	default:
		return fmt.Errorf("invalid SEARCH_PROVIDER %q (expected \"openai\" or \"pgvector\")", c.Search.Provider)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Snapshot returns the flat key-value view served by GET /info.
func (c *Config) Snapshot() map[string]interface{} {
	return map[string]interface{}{
		"model":                 c.Model.Model,
		"max_tokens":            c.Model.MaxTokens,
		"reasoning_effort":      c.Model.ReasoningEffort,
		"embed_model":           c.Search.EmbedModel,
		"top_k":                 c.Search.TopK,
		"max_chars_per_content": c.Search.MaxCharsPerContent,
		"system_instructions":   c.Model.SystemInstructions,
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
