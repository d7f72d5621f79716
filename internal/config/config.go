package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	WordSourceList    = "list"
	WordSourceWordnik = "wordnik"
)

// Config is read once at startup. Every field maps to one environment
// variable; see .env.example for the full list.
type Config struct {
	Port    string `env:"PORT"      envDefault:"8080"`
	Env     string `env:"ENV"       envDefault:"development"`
	GinMode string `env:"GIN_MODE"`

	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	WordSource        string        `env:"WORD_SOURCE"         envDefault:"list"`
	WordsPath         string        `env:"WORDS_PATH"          envDefault:"data/words.json"`
	AcceptedWordsPath string        `env:"ACCEPTED_WORDS_PATH" envDefault:"data/accepted_words.txt"`
	CommonWordsPath   string        `env:"COMMON_WORDS_PATH"   envDefault:"data/common_words.txt"`
	MinWordLength     int           `env:"MIN_WORD_LENGTH"     envDefault:"7"`
	WordnikAPIKey     string        `env:"WORDNIK_API_KEY"`
	WordnikBaseURL    string        `env:"WORDNIK_BASE_URL"    envDefault:"https://api.wordnik.com/v4"`
	WordnikTimeout    time.Duration `env:"WORDNIK_TIMEOUT"     envDefault:"5s"`
	WordnikRPS        float64       `env:"WORDNIK_RPS"         envDefault:"2"`
	WordnikBurst      int           `env:"WORDNIK_BURST"       envDefault:"4"`
	CacheSize         int           `env:"VALIDATION_CACHE_SIZE" envDefault:"10000"`
	CacheTTL          time.Duration `env:"VALIDATION_CACHE_TTL"  envDefault:"1h"`

	RoundDuration   time.Duration `env:"ROUND_DURATION"    envDefault:"60s"`
	AdvanceOnAccept bool          `env:"ADVANCE_ON_ACCEPT" envDefault:"true"`

	RateLimit      int           `env:"RATE_LIMIT"       envDefault:"5"`
	RateWindow     time.Duration `env:"RATE_WINDOW"      envDefault:"10s"`
	TrustXFF       bool          `env:"TRUST_XFF"        envDefault:"true"`
	RateLimiterTTL time.Duration `env:"RATE_LIMITER_TTL" envDefault:"1h"`

	SessionTTL      time.Duration `env:"SESSION_TTL"      envDefault:"3h"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"10m"`

	RedisAddr       string `env:"REDIS_ADDR"`
	RedisPassword   string `env:"REDIS_PASSWORD"`
	RedisDB         int    `env:"REDIS_DB"          envDefault:"0"`
	RateStatsPrefix string `env:"RATE_STATS_PREFIX" envDefault:"rootword:ratelimit"`

	NATSURL     string `env:"NATS_URL"`
	NATSSubject string `env:"NATS_SUBJECT" envDefault:"rootword.events"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return Parse()
}

func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.WordSource = strings.ToLower(strings.TrimSpace(cfg.WordSource))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.WordSource {
	case WordSourceList:
	case WordSourceWordnik:
		if strings.TrimSpace(c.WordnikAPIKey) == "" {
			return errors.New("WORDNIK_API_KEY is required when WORD_SOURCE=wordnik")
		}
	default:
		return fmt.Errorf("WORD_SOURCE must be %q or %q, got %q", WordSourceList, WordSourceWordnik, c.WordSource)
	}
	if c.MinWordLength <= 0 {
		return errors.New("MIN_WORD_LENGTH must be > 0")
	}
	if c.RoundDuration <= 0 {
		return errors.New("ROUND_DURATION must be > 0")
	}
	if c.RateLimit <= 0 {
		return errors.New("RATE_LIMIT must be > 0")
	}
	if c.RateWindow <= 0 {
		return errors.New("RATE_WINDOW must be > 0")
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.GinMode == "release" || c.Env == "production"
}

func (c Config) EnvName() string {
	if c.IsProduction() {
		return "production"
	}
	return "development"
}
