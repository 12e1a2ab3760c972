// Package config reads the admin console settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
	"masterboxer.com/posts-admin/queries"
)

const (
	DefaultAPIBaseURL = "https://dummyjson.com"
	DefaultAdminAddr  = ":8080"
	DefaultAlertTopic = "posts-admin-alerts"
)

type Config struct {
	APIBaseURL        string
	AdminAddr         string
	DatabaseURL       string
	FirebasePath      string
	AlertTopic        string
	JWTSecret         []byte
	AdminUsername     string
	AdminPasswordHash string
	Policy            queries.Policy
}

// Load reads envFile when it exists, then the process environment. A missing
// env file is not an error; the environment alone may be enough.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	}

	config := Config{
		APIBaseURL:        getenv("API_BASE_URL", DefaultAPIBaseURL),
		AdminAddr:         getenv("ADMIN_ADDR", DefaultAdminAddr),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		FirebasePath:      os.Getenv("FIREBASE_CREDENTIALS_PATH"),
		AlertTopic:        getenv("FCM_ALERT_TOPIC", DefaultAlertTopic),
		JWTSecret:         []byte(os.Getenv("ADMIN_JWT_SECRET")),
		AdminUsername:     os.Getenv("ADMIN_USERNAME"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		Policy:            queries.DefaultPolicy(),
	}

	if path := os.Getenv("CACHE_POLICY_FILE"); path != "" {
		policy, err := LoadPolicy(path)
		if err != nil {
			return Config{}, err
		}
		config.Policy = policy
	}
	return config, nil
}

// LoadPolicy reads cache lifetimes from a YAML file such as
//
//	posts: 5m
//	comments: 5m
//	users: 10m
//	tags: 30m
//	retention: 5m
//
// Kinds left out keep their default.
func LoadPolicy(path string) (queries.Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return queries.Policy{}, err
	}
	var policy queries.Policy
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return queries.Policy{}, fmt.Errorf("cache policy %s: %w", path, err)
	}
	return policy.WithDefaults(), nil
}

// RequireAdmin reports whether the console can authenticate an admin.
func (c Config) RequireAdmin() error {
	if len(c.JWTSecret) == 0 {
		return errors.New("ADMIN_JWT_SECRET not set")
	}
	if c.AdminUsername == "" || c.AdminPasswordHash == "" {
		return errors.New("ADMIN_USERNAME and ADMIN_PASSWORD_HASH must be set")
	}
	return nil
}

func getenv(key string, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
