package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// WriteEnvFile writes values to the env file in the user's config directory,
// merging with any values already there. Uses restrictive permissions (0600)
// since the file contains secrets. Returns the path written.
func WriteEnvFile(values map[string]string) (string, error) {
	path, err := EnvFilePath()
	if err != nil {
		return "", err
	}
	if err := writeEnvFileAt(path, values); err != nil {
		return "", err
	}
	return path, nil
}

func writeEnvFileAt(path string, values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	merged := map[string]string{}
	if existing, err := godotenv.Read(path); err == nil {
		merged = existing
	}
	for k, v := range values {
		if v == "" {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}

	content, err := godotenv.Marshal(merged)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, []byte(content+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// EnvName returns the environment variable bound to a config key.
func EnvName(key string) string {
	return envBindings[key]
}

// Masked returns a copy of c with every credential shortened to a hint.
func (c Config) Masked() Config {
	c.Storage.AccessKey = mask(c.Storage.AccessKey)
	c.S3.SecretAccessKey = mask(c.S3.SecretAccessKey)
	c.AltText.OpenAIKey = mask(c.AltText.OpenAIKey)
	c.AltText.GeminiKey = mask(c.AltText.GeminiKey)
	c.AltText.PerplexityKey = mask(c.AltText.PerplexityKey)
	c.Telegram.BotToken = mask(c.Telegram.BotToken)
	return c
}

// YAML renders c in config-file form.
func (c Config) YAML() (string, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	return string(b), nil
}

func mask(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 8:
		return "••••"
	default:
		return s[:4] + "••••" + s[len(s)-2:]
	}
}
