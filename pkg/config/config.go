package config

import (
	"fmt"
	"log"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
	StorageMemory   = "memory"
)

type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	Env      string `env:"ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	Storage         string `env:"STORAGE" envDefault:"postgres"`
	PostgresConnStr string `env:"POSTGRES_CONN_STR"`
	SQLitePath      string `env:"SQLITE_PATH" envDefault:"nano-blog.db"`
	MongoURI        string `env:"MONGO_URI"`
	MongoDatabase   string `env:"MONGO_DATABASE" envDefault:"nanoblog"`

	FirebaseCredentialsPath string `env:"FIREBASE_CREDENTIALS_PATH"`
	FirebaseCheckRevoked    bool   `env:"FIREBASE_CHECK_REVOKED" envDefault:"false"`
	JWTSecret               string `env:"JWT_SECRET" envDefault:"supersecretjwtkey"`

	UploadDir      string `env:"UPLOAD_DIR" envDefault:"uploads"`
	MediaBaseURL   string `env:"MEDIA_BASE_URL" envDefault:"/api/v1/files"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES" envDefault:"52428800"`

	FanoutWorkers   int `env:"FANOUT_WORKERS" envDefault:"4"`
	FanoutQueueSize int `env:"FANOUT_QUEUE_SIZE" envDefault:"1024"`
	FanoutChunkSize int `env:"FANOUT_CHUNK_SIZE" envDefault:"500"`

	AdminUsername string `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminEmail    string `env:"ADMIN_EMAIL" envDefault:"admin@nano-blog.local"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
}

// Load reads .env when present, then the process environment.
// Callers apply flag overrides and then call Validate.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate checks the combinations env tags cannot express
func (c *Config) Validate() error {
	switch c.Storage {
	case StoragePostgres:
		if c.PostgresConnStr == "" {
			return fmt.Errorf("POSTGRES_CONN_STR environment variable not set")
		}
	case StorageSQLite, StorageMemory:
	default:
		return fmt.Errorf("unknown STORAGE %q (want postgres, sqlite or memory)", c.Storage)
	}
	if c.Env == "production" && c.JWTSecret == "supersecretjwtkey" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	return nil
}
