// Package config resolves runtime settings from the environment.
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Backend identifies the record store implementation.
type Backend string

const (
	Postgres Backend = "postgres"
	SQLite   Backend = "sqlite"
)

// DefaultDatabaseURL is a SQLite file in the working directory.
const DefaultDatabaseURL = "coffee_shop.db"

type Config struct {
	DatabaseURL  string
	OpenAIAPIKey string
	OpenAIModel  string
}

// LoadDotEnv loads .env files if present. A missing file is not an error.
func LoadDotEnv(filenames ...string) {
	_ = godotenv.Load(filenames...)
}

// Load reads the current environment.
func Load() Config {
	url := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if url == "" {
		url = DefaultDatabaseURL
	}
	return Config{
		DatabaseURL:  url,
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:  os.Getenv("OPENAI_MODEL"),
	}
}

// Backend reports which store the database URL selects.
func (c Config) Backend() Backend {
	return BackendFor(c.DatabaseURL)
}

// SQLitePath returns the file path for the SQLite backend, with an optional
// sqlite:// or file: prefix removed.
func (c Config) SQLitePath() string {
	p := c.DatabaseURL
	for _, prefix := range []string{"sqlite://", "sqlite:", "file:"} {
		if strings.HasPrefix(p, prefix) {
			return strings.TrimPrefix(p, prefix)
		}
	}
	return p
}

// AssistantEnabled reports whether an OpenAI key is configured.
func (c Config) AssistantEnabled() bool {
	return c.OpenAIAPIKey != ""
}

func BackendFor(url string) Backend {
	lower := strings.ToLower(url)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return Postgres
	}
	return SQLite
}
