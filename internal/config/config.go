// Package config loads runtime configuration from the environment and an
// optional dotenv file.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/maccabipedia/basketbot/internal/platform/logging"
)

// DefaultEnvFile is read when ENV_FILE is unset. A missing default file is fine.
const DefaultEnvFile = "./env/basketbot.env"

// Known source names for ENABLED_SOURCES.
const (
	SourceBasket     = "basket"
	SourceEuroleague = "euroleague"
)

// Config stores runtime configuration for the bot.
type Config struct {
	WikiAPIURL    string `validate:"required,url"`
	WikiUsername  string
	WikiPassword  string
	WikiUserAgent string `validate:"required"`

	CIMode            bool
	TrackedTeam       string        `validate:"required"`
	GamesToCheck      int           `validate:"min=1"`
	UploadConcurrency int           `validate:"min=1,max=32"`
	GameTimeout       time.Duration `validate:"min=1s"`
	CycleInterval     time.Duration `validate:"min=1m"`
	DryRun            bool
	Timezone          string   `validate:"required"`
	NamesFile         string   `validate:"omitempty,file"`
	EnabledSources    []string `validate:"min=1,dive,oneof=basket euroleague"`

	DatabaseURL     string `validate:"omitempty,url"`
	RedisURL        string `validate:"omitempty,url"`
	PublishGuardTTL time.Duration
	StreamMaxLen    int64 `validate:"min=0"`

	RESTPort string `validate:"required,numeric"`
	WSPort   string `validate:"required,numeric"`
	LogLevel logging.Level
}

// Load reads ENV_FILE (if any) and then the environment.
func Load() (Config, error) {
	if err := loadEnvFile(); err != nil {
		return Config{}, err
	}

	cfg := Config{
		WikiAPIURL:    getEnv("WIKI_API_URL", "https://www.maccabipedia.co.il/api.php"),
		WikiUsername:  os.Getenv("WIKI_USERNAME"),
		WikiPassword:  os.Getenv("WIKI_PASSWORD"),
		WikiUserAgent: getEnv("WIKI_USER_AGENT", "basketbot/1.0 (https://www.maccabipedia.co.il)"),
		TrackedTeam:   getEnv("TRACKED_TEAM", "מכבי תל אביב"),
		Timezone:      getEnv("TIMEZONE", "Asia/Jerusalem"),
		NamesFile:     os.Getenv("NAMES_FILE"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		RESTPort:      getEnv("REST_PORT", "8080"),
		WSPort:        getEnv("WS_PORT", "8081"),
		LogLevel:      logging.ParseLevel(getEnv("LOG_LEVEL", "info")),
	}

	var err error
	if cfg.CIMode, err = getEnvAsBool("CI", false); err != nil {
		return Config{}, err
	}
	if cfg.DryRun, err = getEnvAsBool("DRY_RUN", false); err != nil {
		return Config{}, err
	}
	if cfg.GamesToCheck, err = getEnvAsInt("GAMES_TO_CHECK", 5); err != nil {
		return Config{}, err
	}
	if cfg.UploadConcurrency, err = getEnvAsInt("UPLOAD_CONCURRENCY", 4); err != nil {
		return Config{}, err
	}
	if cfg.GameTimeout, err = getEnvAsDuration("GAME_TIMEOUT", 2*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.CycleInterval, err = getEnvAsDuration("CYCLE_INTERVAL", time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.PublishGuardTTL, err = getEnvAsDuration("PUBLISH_GUARD_TTL", 7*24*time.Hour); err != nil {
		return Config{}, err
	}
	maxLen, err := getEnvAsInt("STREAM_MAX_LEN", 10000)
	if err != nil {
		return Config{}, err
	}
	cfg.StreamMaxLen = int64(maxLen)
	cfg.EnabledSources = splitCSV(getEnv("ENABLED_SOURCES", SourceBasket+","+SourceEuroleague))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field rules and cross-field requirements.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	if !c.DryRun && (c.WikiUsername == "" || c.WikiPassword == "") {
		return errors.New("invalid configuration: WIKI_USERNAME and WIKI_PASSWORD are required unless DRY_RUN is set")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return errors.Wrapf(err, "invalid configuration: TIMEZONE %q", c.Timezone)
	}
	return nil
}

// Location resolves Timezone. Validate has already checked it.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SourceEnabled reports whether name is in EnabledSources.
func (c Config) SourceEnabled(name string) bool {
	for _, s := range c.EnabledSources {
		if s == name {
			return true
		}
	}
	return false
}

func loadEnvFile() error {
	path, explicit := os.LookupEnv("ENV_FILE")
	if !explicit || path == "" {
		path = DefaultEnvFile
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return errors.Wrapf(err, "env file %s", path)
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(err, "load env file %s", path)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrapf(err, "parse %s", key)
	}
	return v, nil
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.Wrapf(err, "parse %s", key)
	}
	return v, nil
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, errors.Wrapf(err, "parse %s", key)
	}
	return v, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(strings.ToLower(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
