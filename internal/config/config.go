package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Addr               string
	DBDSN              string
	RedisAddr          string
	JWTSecret          string
	JWTTTL             time.Duration
	AdminEmail         string
	AdminPasswordHash  string
	StudentEmailDomain string
	Seed               bool
	AppEnv             string
}

// Load reads an optional .env file, then the environment. DB_DSN and
// JWT_SECRET are required.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	v := viper.New()
	v.SetDefault("ADDR", ":8080")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("JWT_TTL", 24*time.Hour)
	v.SetDefault("ADMIN_EMAIL", "admin@nbsc.edu.ph")
	v.SetDefault("STUDENT_EMAIL_DOMAIN", "@nbsc.edu.ph")
	v.SetDefault("SEED", true)
	v.SetDefault("APP_ENV", "production")
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Addr:               v.GetString("ADDR"),
		DBDSN:              v.GetString("DB_DSN"),
		RedisAddr:          v.GetString("REDIS_ADDR"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		JWTTTL:             v.GetDuration("JWT_TTL"),
		AdminEmail:         strings.ToLower(strings.TrimSpace(v.GetString("ADMIN_EMAIL"))),
		AdminPasswordHash:  v.GetString("ADMIN_PASSWORD_HASH"),
		StudentEmailDomain: strings.ToLower(v.GetString("STUDENT_EMAIL_DOMAIN")),
		Seed:               v.GetBool("SEED"),
		AppEnv:             normalizeEnv(v.GetString("APP_ENV")),
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.JWTTTL <= 0 {
		return nil, fmt.Errorf("JWT_TTL must be positive")
	}
	if !strings.HasPrefix(cfg.StudentEmailDomain, "@") {
		cfg.StudentEmailDomain = "@" + cfg.StudentEmailDomain
	}

	return cfg, nil
}

func (c *Config) Development() bool {
	return c != nil && c.AppEnv == "development"
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}
