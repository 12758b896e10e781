package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

type Config struct {
	Environment string `koanf:"environment"`

	ServerHost string `koanf:"server_host"`
	ServerPort int    `koanf:"server_port"`

	DatabaseBusyTimeout       time.Duration `koanf:"database_busy_timeout"`
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database_connect_retry_delay"`
	DatabaseDebug             bool          `koanf:"database_debug"`
	DatabaseFilePath          string        `koanf:"database_file_path"`
	DatabaseMaxRetries        int           `koanf:"database_max_retries"`

	FrontendURL string `koanf:"frontend_url"`
	Hostname    string `koanf:"-"`
	JWTSecret   string `koanf:"jwt_secret"`
	UploadDir   string `koanf:"upload_dir"`

	WorkerProcesses          int    `koanf:"worker_processes"`
	PaymentReconcileSchedule string `koanf:"payment_reconcile_schedule"`

	PaymentProviderURL   string        `koanf:"payment_provider_url"`
	PaymentAPIKey        string        `koanf:"payment_api_key"`
	PaymentWebhookSecret string        `koanf:"payment_webhook_secret"`
	PaymentTimeout       time.Duration `koanf:"payment_timeout"`

	EmailEnabled   bool   `koanf:"email_enabled"`
	EmailFrom      string `koanf:"email_from"`
	EmailFromName  string `koanf:"email_from_name"`
	SendgridAPIKey string `koanf:"sendgrid_api_key"`
}

const (
	environmentENV = "ENVIRONMENT"
	configFileENV  = "CONFIG_FILE"
)

func New() (*Config, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	cfg := &Config{
		Environment:               "development",
		DatabaseBusyTimeout:       5 * time.Second,
		DatabaseConnectRetryCount: 5,
		DatabaseConnectRetryDelay: 2 * time.Second,
		DatabaseMaxRetries:        5,
		Hostname:                  hostname,
		ServerPort:                4810,
		WorkerProcesses:           2,
		PaymentReconcileSchedule:  "15 3 * * *",
		PaymentTimeout:            10 * time.Second,
		EmailFrom:                 "no-reply@tutora.app",
		EmailFromName:             "Tutora",
	}

	switch os.Getenv(environmentENV) {
	case "development", "":
		loadDevelopmentConfig(cfg)
	case "test":
		loadTestConfig(cfg)
	case "production":
		loadProductionConfig(cfg)
	}

	// An optional YAML file overrides the per-environment defaults.
	if path := configFilePath(); path != "" {
		if err := loadConfigFile(cfg, path); err != nil {
			return nil, err
		}
	}

	// Environment variables override everything else, named after the
	// config key uppercased: SERVER_PORT, JWT_SECRET, PAYMENT_API_KEY.
	// Secrets usually arrive this way so they never live in a checked-in
	// config file.
	if err := loadEnvOverrides(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func configFilePath() string {
	path := os.Getenv(configFileENV)
	if path == "" {
		path = "config.yaml"
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func loadConfigFile(cfg *Config, path string) error {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return errors.Wrapf(err, "failed to load config file: %s", path)
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func loadEnvOverrides(cfg *Config) error {
	k := koanf.New(".")
	err := k.Load(env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		return strings.ToLower(key), value
	}), nil)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return errors.WithStack(err)
	}
	return nil
}
