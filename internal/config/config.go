package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	GeminiAPIKey     string
	GeminiBaseURL    string
	GeminiAPIVersion string

	LogLevel string
	Debug    bool

	PreferIPv4 bool

	WebAddr        string
	DataDir        string
	MaxConcurrent  int
	RequestTimeout time.Duration
	HTTPTimeout    time.Duration

	Firebase FirebaseConfig
}

// FirebaseConfig mirrors the six connection parameters the hosted document
// store needs. The remote backend is used only when all of them are set.
type FirebaseConfig struct {
	APIKey            string
	AuthDomain        string
	ProjectID         string
	StorageBucket     string
	MessagingSenderID string
	AppID             string
}

func (f FirebaseConfig) Ready() bool {
	return f.APIKey != "" &&
		f.AuthDomain != "" &&
		f.ProjectID != "" &&
		f.StorageBucket != "" &&
		f.MessagingSenderID != "" &&
		f.AppID != ""
}

// Storage is the backend selection, decided once at startup and injected into
// the persistence gateway. Exactly one of Remote/Local is non-nil.
type Storage struct {
	Remote *RemoteStorage
	Local  *LocalStorage
}

type RemoteStorage struct {
	ProjectID string
	APIKey    string
}

type LocalStorage struct {
	Dir string
}

func (c Config) Storage() Storage {
	if c.Firebase.Ready() {
		return Storage{Remote: &RemoteStorage{
			ProjectID: c.Firebase.ProjectID,
			APIKey:    c.Firebase.APIKey,
		}}
	}
	return Storage{Local: &LocalStorage{Dir: c.DataDir}}
}

func Load() (Config, error) {
	cfg := Config{
		LogLevel:         strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", "info"))),
		Debug:            getEnvBool("DEBUG", false),
		PreferIPv4:       getEnvBool("PREFER_IPV4", true),
		WebAddr:          getEnv("WEB_ADDR", ":8080"),
		DataDir:          getEnv("DATA_DIR", defaultDataDir()),
		MaxConcurrent:    getEnvInt("MAX_CONCURRENT", 4),
		RequestTimeout:   time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 180)) * time.Second,
		HTTPTimeout:      time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 180)) * time.Second,
		GeminiBaseURL:    getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		GeminiAPIVersion: getEnv("GEMINI_API_VERSION", "v1beta"),
	}

	cfg.GeminiAPIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	if cfg.GeminiAPIKey == "" {
		return Config{}, errors.New("GEMINI_API_KEY is required")
	}

	cfg.Firebase = FirebaseConfig{
		APIKey:            strings.TrimSpace(os.Getenv("FIREBASE_API_KEY")),
		AuthDomain:        strings.TrimSpace(os.Getenv("FIREBASE_AUTH_DOMAIN")),
		ProjectID:         strings.TrimSpace(os.Getenv("FIREBASE_PROJECT_ID")),
		StorageBucket:     strings.TrimSpace(os.Getenv("FIREBASE_STORAGE_BUCKET")),
		MessagingSenderID: strings.TrimSpace(os.Getenv("FIREBASE_MESSAGING_SENDER_ID")),
		AppID:             strings.TrimSpace(os.Getenv("FIREBASE_APP_ID")),
	}

	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 180 * time.Second
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 180 * time.Second
	}

	return cfg, nil
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + string(os.PathSeparator) + "barbertry"
	}
	return ".barbertry"
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
