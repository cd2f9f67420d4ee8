package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	AppName        = "bunny-publisher"
	EnvFileName    = "config.env"
	ConfigFileName = "config.yaml"
)

// Provider names accepted by alt_text.provider.
const (
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderPerplexity = "perplexity"
	ProviderNone       = "none"
)

// Storage backends accepted by storage.backend.
const (
	BackendBunny = "bunny"
	BackendS3    = "s3"
)

// Config is the full, read-only configuration of a publish run.
type Config struct {
	Storage           Storage  `mapstructure:"storage" yaml:"storage"`
	S3                S3       `mapstructure:"s3" yaml:"s3"`
	DeleteAfterUpload bool     `mapstructure:"delete_after_upload" yaml:"delete_after_upload"`
	AltText           AltText  `mapstructure:"alt_text" yaml:"alt_text"`
	Telegram          Telegram `mapstructure:"telegram" yaml:"telegram"`
	DBPath            string   `mapstructure:"db_path" yaml:"db_path"`
}

// Storage holds the upload destination.
type Storage struct {
	Backend     string `mapstructure:"backend" yaml:"backend"`
	Zone        string `mapstructure:"zone" yaml:"zone"`
	AccessKey   string `mapstructure:"access_key" yaml:"access_key"`
	Hostname    string `mapstructure:"hostname" yaml:"hostname"`
	CDNHostname string `mapstructure:"cdn_hostname" yaml:"cdn_hostname"`
	UploadPath  string `mapstructure:"upload_path" yaml:"upload_path"`
}

// S3 holds settings for the S3-compatible backend.
type S3 struct {
	Endpoint        string `mapstructure:"endpoint" yaml:"endpoint"`
	Bucket          string `mapstructure:"bucket" yaml:"bucket"`
	Region          string `mapstructure:"region" yaml:"region"`
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl" yaml:"use_ssl"`
}

// AltText controls caption generation.
type AltText struct {
	Enabled         bool   `mapstructure:"enabled" yaml:"enabled"`
	Provider        string `mapstructure:"provider" yaml:"provider"`
	OpenAIKey       string `mapstructure:"openai_key" yaml:"openai_key"`
	GeminiKey       string `mapstructure:"gemini_key" yaml:"gemini_key"`
	PerplexityKey   string `mapstructure:"perplexity_key" yaml:"perplexity_key"`
	OpenAIModel     string `mapstructure:"openai_model" yaml:"openai_model"`
	GeminiModel     string `mapstructure:"gemini_model" yaml:"gemini_model"`
	PerplexityModel string `mapstructure:"perplexity_model" yaml:"perplexity_model"`
	Cache           bool   `mapstructure:"cache" yaml:"cache"`
}

// Telegram configures the optional run summary notification.
type Telegram struct {
	BotToken string `mapstructure:"bot_token" yaml:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id" yaml:"chat_id"`
}

// envBindings maps config keys to the environment variables that set them.
var envBindings = map[string]string{
	"storage.backend":           "BUNNY_STORAGE_BACKEND",
	"storage.zone":              "BUNNY_STORAGE_ZONE",
	"storage.access_key":        "BUNNY_ACCESS_KEY",
	"storage.hostname":          "BUNNY_STORAGE_HOSTNAME",
	"storage.cdn_hostname":      "BUNNY_CDN_HOSTNAME",
	"storage.upload_path":       "BUNNY_UPLOAD_PATH",
	"s3.endpoint":               "S3_ENDPOINT",
	"s3.bucket":                 "S3_BUCKET",
	"s3.region":                 "S3_REGION",
	"s3.access_key_id":          "S3_ACCESS_KEY_ID",
	"s3.secret_access_key":      "S3_SECRET_ACCESS_KEY",
	"s3.use_ssl":                "S3_USE_SSL",
	"delete_after_upload":       "BUNNY_DELETE_AFTER_UPLOAD",
	"alt_text.enabled":          "BUNNY_ALT_TEXT",
	"alt_text.provider":         "BUNNY_ALT_TEXT_PROVIDER",
	"alt_text.openai_key":       "OPENAI_API_KEY",
	"alt_text.gemini_key":       "GEMINI_API_KEY",
	"alt_text.perplexity_key":   "PERPLEXITY_API_KEY",
	"alt_text.openai_model":     "OPENAI_MODEL",
	"alt_text.gemini_model":     "GEMINI_MODEL",
	"alt_text.perplexity_model": "PERPLEXITY_MODEL",
	"alt_text.cache":            "BUNNY_ALT_TEXT_CACHE",
	"telegram.bot_token":        "TELEGRAM_BOT_TOKEN",
	"telegram.chat_id":          "TELEGRAM_CHAT_ID",
	"db_path":                   "BUNNY_DB_PATH",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("storage.backend", BackendBunny)
	v.SetDefault("storage.zone", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.hostname", "storage.bunnycdn.com")
	v.SetDefault("storage.cdn_hostname", "")
	v.SetDefault("storage.upload_path", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("delete_after_upload", false)
	v.SetDefault("alt_text.enabled", false)
	v.SetDefault("alt_text.provider", ProviderOpenAI)
	v.SetDefault("alt_text.openai_key", "")
	v.SetDefault("alt_text.gemini_key", "")
	v.SetDefault("alt_text.perplexity_key", "")
	v.SetDefault("alt_text.openai_model", "gpt-4o-mini")
	v.SetDefault("alt_text.gemini_model", "gemini-2.0-flash")
	v.SetDefault("alt_text.perplexity_model", "sonar")
	v.SetDefault("alt_text.cache", true)
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", 0)
	v.SetDefault("db_path", "")
}

// Dir returns the application's config directory path.
func Dir() (string, error) {
	configBase, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configBase, AppName), nil
}

// EnvFilePath returns the full path to the env file written by the setup wizard.
func EnvFilePath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, EnvFileName), nil
}

// LoadEnvFile loads environment variables from the config file in the user's
// config directory. Errors are ignored since the file may not exist.
// Variables already set in the environment win.
func LoadEnvFile() {
	path, err := EnvFilePath()
	if err != nil {
		return
	}
	_ = godotenv.Load(path)
}

// Load merges defaults, the YAML config file and the environment. An empty
// configFile searches config.yaml in the current and the user config directory.
func Load(configFile string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName(strings.TrimSuffix(ConfigFileName, filepath.Ext(ConfigFileName)))
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := Dir(); err == nil {
			v.AddConfigPath(dir)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	c.AltText.Provider = strings.ToLower(strings.TrimSpace(c.AltText.Provider))
	c.Storage.Hostname = trimHost(c.Storage.Hostname)
	c.Storage.CDNHostname = trimHost(c.Storage.CDNHostname)
	c.S3.Endpoint = trimHost(c.S3.Endpoint)
}

// trimHost accepts hostnames pasted as URLs.
func trimHost(h string) string {
	h = strings.TrimSpace(h)
	h = strings.TrimPrefix(h, "https://")
	h = strings.TrimPrefix(h, "http://")
	return strings.TrimRight(h, "/")
}

// Validate returns the names of settings that must be filled in before a
// publish run can start.
func (c Config) Validate() []string {
	var missing []string
	switch c.Storage.Backend {
	case BackendBunny:
		if c.Storage.Zone == "" {
			missing = append(missing, "BUNNY_STORAGE_ZONE")
		}
		if c.Storage.AccessKey == "" {
			missing = append(missing, "BUNNY_ACCESS_KEY")
		}
	case BackendS3:
		if c.S3.Endpoint == "" {
			missing = append(missing, "S3_ENDPOINT")
		}
		if c.S3.Bucket == "" {
			missing = append(missing, "S3_BUCKET")
		}
	default:
		missing = append(missing, fmt.Sprintf("BUNNY_STORAGE_BACKEND (unknown backend %q)", c.Storage.Backend))
	}
	if c.Storage.CDNHostname == "" {
		missing = append(missing, "BUNNY_CDN_HOSTNAME")
	}
	return missing
}

// ProviderKey returns the credential configured for the active provider.
func (a AltText) ProviderKey() string {
	switch a.Provider {
	case ProviderOpenAI:
		return a.OpenAIKey
	case ProviderGemini:
		return a.GeminiKey
	case ProviderPerplexity:
		return a.PerplexityKey
	default:
		return ""
	}
}

// DatabasePath returns the SQLite path, defaulting to the config directory.
func (c Config) DatabasePath() (string, error) {
	if c.DBPath != "" {
		return c.DBPath, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "publisher.db"), nil
}
