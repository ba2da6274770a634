// Package config resolves runtime settings from the environment and,
// optionally, SSM Parameter Store.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"career-advisor/internal/logging"
)

const (
	DefaultMessagesTable     = "CareerAdvisorChats"
	DefaultSessionIndexTable = "CareerAdvisorSessionIndex"

	envMessagesTable     = "MESSAGES_TABLE"
	envSessionIndexTable = "SESSION_INDEX_TABLE"
	envLogLevel          = "LOG_LEVEL"
	envParamPrefix       = "PARAM_PREFIX"

	paramMessagesTable     = "/config/messages_table"
	paramSessionIndexTable = "/config/session_index_table"
)

type Config struct {
	MessagesTable     string
	SessionIndexTable string
	LogLevel          slog.Level
	// ParamPrefix enables SSM overrides when non-empty.
	ParamPrefix string
}

// ParamGetter fetches several SSM parameters at once.
type ParamGetter interface {
	GetParameters(ctx context.Context, names ...string) (map[string]string, error)
}

// Load reads the environment. A .env file in the working directory, if any,
// fills in variables that are not already set.
func Load() Config {
	_ = godotenv.Load()
	return fromEnv(os.Getenv)
}

func fromEnv(getenv func(string) string) Config {
	return Config{
		MessagesTable:     envOr(getenv, envMessagesTable, DefaultMessagesTable),
		SessionIndexTable: envOr(getenv, envSessionIndexTable, DefaultSessionIndexTable),
		LogLevel:          logging.ParseLevel(getenv(envLogLevel)),
		ParamPrefix:       strings.TrimRight(strings.TrimSpace(getenv(envParamPrefix)), "/"),
	}
}

// ApplyParams overrides table names with values stored under ParamPrefix.
// Parameters that do not exist keep the current value.
func (c *Config) ApplyParams(ctx context.Context, p ParamGetter) error {
	if c.ParamPrefix == "" {
		return nil
	}
	if p == nil {
		return errors.New("config: param getter must not be nil")
	}

	msgName := c.ParamPrefix + paramMessagesTable
	idxName := c.ParamPrefix + paramSessionIndexTable
	vals, err := p.GetParameters(ctx, msgName, idxName)
	if err != nil {
		return fmt.Errorf("config: load parameters: %w", err)
	}
	if v := strings.TrimSpace(vals[msgName]); v != "" {
		c.MessagesTable = v
	}
	if v := strings.TrimSpace(vals[idxName]); v != "" {
		c.SessionIndexTable = v
	}
	return nil
}

func envOr(getenv func(string) string, key, def string) string {
	if v := strings.TrimSpace(getenv(key)); v != "" {
		return v
	}
	return def
}
