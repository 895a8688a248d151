package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const configPathEnv = "STOREPOST_CONFIG"

type R2 struct {
	AccountID  string `yaml:"accountId"`
	AccessKey  string `yaml:"accessKey"`
	SecretKey  string `yaml:"secretKey"`
	BucketName string `yaml:"bucketName"`
	PublicURL  string `yaml:"publicUrl"`
	Endpoint   string `yaml:"endpoint"`
}

type Platforms struct {
	ListingAPIURL   string `yaml:"listingApiUrl"`
	InstagramAPIURL string `yaml:"instagramApiUrl"`
	MicroblogAPIURL string `yaml:"microblogApiUrl"`
}

type Generation struct {
	Endpoint      string `yaml:"endpoint"`
	Model         string `yaml:"model"`
	APIKey        string `yaml:"apiKey"`
	SystemPrompt  string `yaml:"systemPrompt"`
	RatePerMinute int    `yaml:"ratePerMinute"`
}

type LockStore struct {
	Driver     string `yaml:"driver"` // postgres, redis, sqlite, memory
	SQLitePath string `yaml:"sqlitePath"`
}

type Scheduler struct {
	SweepEvery   time.Duration `yaml:"sweepEvery"`
	SessionTTL   time.Duration `yaml:"sessionTtl"`
	OverdueAfter time.Duration `yaml:"overdueAfter"`
}

type Config struct {
	Port               string     `yaml:"port"`
	GoogleClientID     string     `yaml:"googleClientId"`
	GoogleClientSecret string     `yaml:"googleClientSecret"`
	PostgresURI        string     `yaml:"postgresUri"`
	RedisURI           string     `yaml:"redisUri"`
	FrontendURL        string     `yaml:"frontendUrl"`
	R2                 R2         `yaml:"r2"`
	SecretKey          string     `yaml:"secretKey"`
	Platforms          Platforms  `yaml:"platforms"`
	Generation         Generation `yaml:"generation"`
	LockStore          LockStore  `yaml:"lockStore"`
	Scheduler          Scheduler  `yaml:"scheduler"`
}

// LoadConfig reads the optional YAML file named by STOREPOST_CONFIG and then
// applies environment variables on top of it.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if path := os.Getenv(configPathEnv); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port, "3000")
	cfg.GoogleClientID = getEnv("GOOGLE_CLIENT_ID", cfg.GoogleClientID, "")
	cfg.GoogleClientSecret = getEnv("GOOGLE_CLIENT_SECRET", cfg.GoogleClientSecret, "")
	cfg.PostgresURI = getEnv("POSTGRES_URI", cfg.PostgresURI, "")
	cfg.RedisURI = getEnv("REDIS_URI", cfg.RedisURI, "localhost:6379")
	cfg.FrontendURL = getEnv("FRONTEND_URL", cfg.FrontendURL, "http://localhost:5173")
	cfg.SecretKey = getEnv("SECRET_KEY", cfg.SecretKey, "")

	cfg.R2 = R2{
		AccountID:  getEnv("R2_ACCOUNT_ID", cfg.R2.AccountID, ""),
		AccessKey:  getEnv("R2_ACCESS_KEY", cfg.R2.AccessKey, ""),
		SecretKey:  getEnv("R2_SECRET_KEY", cfg.R2.SecretKey, ""),
		BucketName: getEnv("R2_BUCKET_NAME", cfg.R2.BucketName, ""),
		PublicURL:  getEnv("R2_PUBLIC_URL", cfg.R2.PublicURL, ""),
		Endpoint:   getEnv("R2_ENDPOINT", cfg.R2.Endpoint, ""),
	}

	cfg.Platforms = Platforms{
		ListingAPIURL:   getEnv("LISTING_API_URL", cfg.Platforms.ListingAPIURL, "https://mybusiness.googleapis.com/v4"),
		InstagramAPIURL: getEnv("INSTAGRAM_API_URL", cfg.Platforms.InstagramAPIURL, "https://graph.instagram.com"),
		MicroblogAPIURL: getEnv("MICROBLOG_API_URL", cfg.Platforms.MicroblogAPIURL, "https://api.twitter.com/2"),
	}

	cfg.Generation = Generation{
		Endpoint:      getEnv("GENERATION_ENDPOINT", cfg.Generation.Endpoint, "https://api.openai.com/v1/chat/completions"),
		Model:         getEnv("GENERATION_MODEL", cfg.Generation.Model, "gpt-4o-mini"),
		APIKey:        getEnv("GENERATION_API_KEY", cfg.Generation.APIKey, ""),
		SystemPrompt:  getEnv("GENERATION_SYSTEM_PROMPT", cfg.Generation.SystemPrompt, ""),
		RatePerMinute: getEnvInt("GENERATION_RATE_PER_MINUTE", cfg.Generation.RatePerMinute, 20),
	}

	cfg.LockStore = LockStore{
		Driver:     getEnv("LOCK_STORE_DRIVER", cfg.LockStore.Driver, "postgres"),
		SQLitePath: getEnv("LOCK_STORE_SQLITE_PATH", cfg.LockStore.SQLitePath, "data/locks.db"),
	}

	cfg.Scheduler = Scheduler{
		SweepEvery:   getEnvDuration("SCHEDULER_SWEEP_EVERY", cfg.Scheduler.SweepEvery, 10*time.Minute),
		SessionTTL:   getEnvDuration("SESSION_TTL", cfg.Scheduler.SessionTTL, 2*time.Hour),
		OverdueAfter: getEnvDuration("SCHEDULER_OVERDUE_AFTER", cfg.Scheduler.OverdueAfter, 15*time.Minute),
	}

	return cfg, nil
}

func getEnv(key, fileValue, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if fileValue != "" {
		return fileValue
	}
	return defaultValue
}

func getEnvInt(key string, fileValue, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	if fileValue != 0 {
		return fileValue
	}
	return defaultValue
}

func getEnvDuration(key string, fileValue, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	if fileValue != 0 {
		return fileValue
	}
	return defaultValue
}
