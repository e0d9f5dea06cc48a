package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// envOverrides lists every environment variable the loader honours.
// Empty values leave the file/default value untouched.
type envOverrides struct {
	AccessKeyID     string `mapstructure:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `mapstructure:"AWS_SECRET_ACCESS_KEY"`
	SessionToken    string `mapstructure:"AWS_SESSION_TOKEN"`
	Region          string `mapstructure:"AWS_REGION"`
	ExaAPIKey       string `mapstructure:"EXA_API_KEY"`
	GeminiAPIKey    string `mapstructure:"GEMINI_API_KEY"`
	Provider        string `mapstructure:"LUMEN_PROVIDER"`
	ModelID         string `mapstructure:"LUMEN_MODEL_ID"`
	TitleModelID    string `mapstructure:"LUMEN_TITLE_MODEL_ID"`
	MaxToolCalls    int    `mapstructure:"LUMEN_MAX_TOOL_CALLS"`
	LogLevel        string `mapstructure:"LUMEN_LOG_LEVEL"`
	DatabasePath    string `mapstructure:"LUMEN_DB_PATH"`
}

var envKeys = []string{
	"AWS_ACCESS_KEY_ID",
	"AWS_SECRET_ACCESS_KEY",
	"AWS_SESSION_TOKEN",
	"AWS_REGION",
	"EXA_API_KEY",
	"GEMINI_API_KEY",
	"LUMEN_PROVIDER",
	"LUMEN_MODEL_ID",
	"LUMEN_TITLE_MODEL_ID",
	"LUMEN_MAX_TOOL_CALLS",
	"LUMEN_LOG_LEVEL",
	"LUMEN_DB_PATH",
}

// applyEnv decodes the set environment variables and layers them over cfg.
func applyEnv(cfg *Config, getenv func(string) string) error {
	raw := make(map[string]any)
	for _, key := range envKeys {
		if v := getenv(key); v != "" {
			raw[key] = v
		}
	}
	if len(raw) == 0 {
		return nil
	}

	var env envOverrides
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &env,
	})
	if err != nil {
		return fmt.Errorf("env decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("invalid environment override: %w", err)
	}

	setString(&cfg.Credentials.AccessKeyID, env.AccessKeyID)
	setString(&cfg.Credentials.SecretAccessKey, env.SecretAccessKey)
	setString(&cfg.Credentials.SessionToken, env.SessionToken)
	setString(&cfg.Provider.Region, env.Region)
	setString(&cfg.Credentials.ExaAPIKey, env.ExaAPIKey)
	setString(&cfg.Credentials.GeminiAPIKey, env.GeminiAPIKey)
	setString(&cfg.Provider.Name, env.Provider)
	setString(&cfg.Provider.ModelID, env.ModelID)
	setString(&cfg.Provider.TitleModelID, env.TitleModelID)
	setString(&cfg.Logging.Level, env.LogLevel)
	setString(&cfg.Storage.DatabasePath, env.DatabasePath)
	if env.MaxToolCalls != 0 {
		cfg.Agent.MaxToolCalls = env.MaxToolCalls
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
