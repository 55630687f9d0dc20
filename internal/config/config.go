package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
)

// EnvPrefix prefixes every environment variable the service reads.
const EnvPrefix = "CONCIERGE_"

// Config is the process configuration. Each field is read from CONCIERGE_<TAG>
// (upper-cased), so RedisAddr comes from CONCIERGE_REDIS_ADDR.
type Config struct {
	Addr      string `mapstructure:"addr"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"` // text or json

	// WorkflowsPath is a YAML file or a directory of them.
	WorkflowsPath string `mapstructure:"workflows"`

	// RedisAddr switches session storage and locking to Redis when set.
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`

	// SessionDir keeps sessions as JSON files when Redis is not configured.
	SessionDir string `mapstructure:"session_dir"`

	LockTimeout time.Duration `mapstructure:"lock_timeout"`
	TaskTimeout time.Duration `mapstructure:"task_timeout"`

	// AuditDSN enables the SQLite audit log ("file:audit.db" or ":memory:").
	AuditDSN    string   `mapstructure:"audit_dsn"`
	PIIPatterns []string `mapstructure:"pii_patterns"`

	// EncryptionKey is a hex encoded 32 byte key; empty leaves sessions in plaintext.
	EncryptionKey string `mapstructure:"encryption_key"`

	MaxInputSize int `mapstructure:"max_input_size"`

	// LLMModel selects the model interpreter (OpenAI compatible API); empty uses the rule interpreter.
	LLMModel   string `mapstructure:"llm_model"`
	LLMBaseURL string `mapstructure:"llm_base_url"`
	LLMAPIKey  string `mapstructure:"llm_api_key"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Addr:        ":8080",
		LogLevel:    "info",
		LogFormat:   "text",
		SessionTTL:  24 * time.Hour,
		LockTimeout: 5 * time.Second,
		TaskTimeout: 30 * time.Second,
		PIIPatterns: []string{"password", "secret", "token", "card_number", "cvv", "ssn"},
	}
}

// Load reads dotenv files (missing ones are skipped), then the process environment.
// Variables already set in the environment win over dotenv values.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return FromEnv(os.Environ())
}

// FromEnv builds a Config from KEY=VALUE pairs on top of Default.
func FromEnv(environ []string) (Config, error) {
	raw := map[string]any{}
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(k, EnvPrefix) {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(k, EnvPrefix))
		raw[key] = v
	}

	cfg := Default()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ZeroFields:       true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return Config{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("invalid %s environment: %w", strings.TrimSuffix(EnvPrefix, "_"), err)
	}
	for i, p := range cfg.PIIPatterns {
		cfg.PIIPatterns[i] = strings.TrimSpace(p)
	}
	return cfg, cfg.Validate()
}

// Validate checks values that would otherwise fail late.
func (c Config) Validate() error {
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("log format must be text or json, got %q", c.LogFormat)
	}
	if c.LockTimeout <= 0 {
		return errors.New("lock timeout must be positive")
	}
	if c.TaskTimeout < 0 || c.SessionTTL < 0 {
		return errors.New("timeouts must not be negative")
	}
	if c.MaxInputSize < 0 {
		return errors.New("max input size must not be negative")
	}
	if _, err := c.Key(); err != nil {
		return err
	}
	return nil
}

// JSONLogs reports whether logs should be structured JSON.
func (c Config) JSONLogs() bool {
	return strings.EqualFold(c.LogFormat, "json")
}

// Key decodes EncryptionKey. It returns nil when encryption is off.
func (c Config) Key() ([]byte, error) {
	if c.EncryptionKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key must be hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}
