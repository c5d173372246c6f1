package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the console's connection and storage settings.
type Config struct {
	APIURL      string
	Password    string
	PollSeconds int
	LogFile     string
	DraftsDB    string
}

const (
	defaultConfigPath  = "~/.config/marquee/config.toml"
	defaultAPIURL      = "http://127.0.0.1:8080"
	defaultPollSeconds = 2
	defaultLogFile     = "~/.local/share/marquee/marquee.log"
	defaultDraftsDB    = "~/.local/share/marquee/drafts.db"
)

// Environment variables that override the file.
const (
	EnvAPIURL   = "MARQUEE_API_URL"
	EnvPassword = "MARQUEE_PASSWORD"
	EnvPoll     = "MARQUEE_POLL_SECONDS"
	EnvLogFile  = "MARQUEE_LOG_FILE"
	EnvDraftsDB = "MARQUEE_DRAFTS_DB"
)

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return defaultConfigPath
}

// Load reads the config file, falling back to defaults when it is missing,
// then applies MARQUEE_* variables from the environment and ./.env.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		APIURL:      defaultAPIURL,
		PollSeconds: defaultPollSeconds,
		LogFile:     defaultLogFile,
		DraftsDB:    defaultDraftsDB,
	}

	if err := readFile(resolved, &cfg); err != nil {
		return Config{}, err
	}

	// A missing .env is normal; existing variables win over it.
	_ = godotenv.Load()
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	cfg.LogFile = mustExpand(cfg.LogFile)
	cfg.DraftsDB = mustExpand(cfg.DraftsDB)
	return cfg, nil
}

func readFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIURL      string `toml:"api_url"`
		Password    string `toml:"password"`
		PollSeconds int    `toml:"poll_seconds"`
		LogFile     string `toml:"log_file"`
		DraftsDB    string `toml:"drafts_db"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	cfg.APIURL = firstNonEmpty(raw.APIURL, cfg.APIURL)
	cfg.Password = strings.TrimSpace(raw.Password)
	if raw.PollSeconds > 0 {
		cfg.PollSeconds = raw.PollSeconds
	}
	cfg.LogFile = firstNonEmpty(raw.LogFile, cfg.LogFile)
	cfg.DraftsDB = firstNonEmpty(raw.DraftsDB, cfg.DraftsDB)
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.APIURL = firstNonEmpty(os.Getenv(EnvAPIURL), cfg.APIURL)
	cfg.Password = firstNonEmpty(os.Getenv(EnvPassword), cfg.Password)
	cfg.LogFile = firstNonEmpty(os.Getenv(EnvLogFile), cfg.LogFile)
	cfg.DraftsDB = firstNonEmpty(os.Getenv(EnvDraftsDB), cfg.DraftsDB)
	if raw := strings.TrimSpace(os.Getenv(EnvPoll)); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return fmt.Errorf("%s: want a positive integer, got %q", EnvPoll, raw)
		}
		cfg.PollSeconds = n
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if trimmed == ":memory:" {
		return trimmed, nil
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
