package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env      string `envconfig:"ENV" default:"local"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	// LogFile sends logs to a rotating file instead of stderr.
	LogFile string `envconfig:"LOG_FILE"`
	AppName string `envconfig:"APP_NAME" default:"claude"`
}

type ScopeEnv struct {
	HomeDir        string   `envconfig:"HOME_DIR"`
	WorkDir        string   `envconfig:"WORK_DIR" default:"."`
	IgnorePatterns []string `envconfig:"IGNORE_PATTERNS"`
}

type StorageEnv struct {
	Type string `envconfig:"STORAGE_TYPE" default:"local"`
	// S3 settings (used when Type == "s3")
	S3Bucket string `envconfig:"S3_BUCKET"`
	S3Prefix string `envconfig:"S3_PREFIX" default:"agentsync/"`
	S3Region string `envconfig:"S3_REGION" default:"ap-northeast-1"`
}

type HTTPEnv struct {
	HTTPHost string `envconfig:"HTTP_HOST" default:"127.0.0.1"`
	HTTPPort string `envconfig:"HTTP_PORT" default:"3200"`
	APIKey   string `envconfig:"API_KEY"`
}

type Env struct {
	BaseEnv
	ScopeEnv
	StorageEnv
	HTTPEnv
}

const namespace = "AGENTSYNC"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	if err := env.resolve(); err != nil {
		return nil, err
	}
	return &env, nil
}

func (e *Env) resolve() error {
	switch e.StorageEnv.Type {
	case "local":
	case "s3":
		if e.S3Bucket == "" {
			return fmt.Errorf("%s_S3_BUCKET is required when %s_STORAGE_TYPE=s3", namespace, namespace)
		}
	default:
		return fmt.Errorf("unsupported storage type %q", e.StorageEnv.Type)
	}
	if e.HomeDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to resolve home directory: %w", err)
		}
		e.HomeDir = home
	}
	wd, err := filepath.Abs(e.WorkDir)
	if err != nil {
		return fmt.Errorf("failed to resolve work directory: %w", err)
	}
	e.WorkDir = wd
	return nil
}

// IsLocal reports whether logs should be human readable.
func (e *BaseEnv) IsLocal() bool {
	return e.Env == "local"
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelInfo
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Addr is the listen address of the HTTP surface.
func (e *HTTPEnv) Addr() string {
	return e.HTTPHost + ":" + e.HTTPPort
}
