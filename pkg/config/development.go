package config

import (
	"os"
	"strconv"
)

func loadDevelopmentConfig(cfg *Config) {
	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err == nil {
		cfg.ServerPort = port
	}

	cfg.DatabaseDebug = true
	cfg.DatabaseFilePath = "./tmp/data.sqlite"
	cfg.FrontendURL = "http://localhost:5173"
	cfg.JWTSecret = "development-secret-do-not-use"
	cfg.PaymentProviderURL = "http://localhost:4811"
	cfg.ServerHost = "127.0.0.1"
	cfg.UploadDir = "./tmp/uploads"
}

func loadTestConfig(cfg *Config) {
	cfg.DatabaseFilePath = ":memory:"
	cfg.FrontendURL = "http://localhost:5173"
	cfg.JWTSecret = "test-secret"
	cfg.PaymentProviderURL = "http://localhost:0"
	cfg.ServerHost = "127.0.0.1"
	cfg.ServerPort = 0
	cfg.UploadDir = os.TempDir()
	cfg.WorkerProcesses = 1
}

func loadProductionConfig(cfg *Config) {
	cfg.DatabaseFilePath = "/data/tutora.sqlite"
	cfg.EmailEnabled = true
	cfg.ServerHost = "0.0.0.0"
	cfg.UploadDir = "/data/uploads"

	if v := os.Getenv("FRONTEND_URL"); v != "" {
		cfg.FrontendURL = v
	}
	if v := os.Getenv("PAYMENT_PROVIDER_URL"); v != "" {
		cfg.PaymentProviderURL = v
	}
}
