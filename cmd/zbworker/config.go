package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig is the optional YAML config file shape (--config). Flags
// and environment variables set on the command line always win over
// values loaded from here; this just saves retyping the same gateway
// address and tenant list across invocations.
type fileConfig struct {
	GatewayAddr    string        `yaml:"gateway_addr"`
	WorkerName     string        `yaml:"worker_name"`
	LogLevel       string        `yaml:"log_level"`
	TenantIDs      []string      `yaml:"tenant_ids"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MetricsAddr    string        `yaml:"metrics_addr"`
}

func loadFileConfig(path string) (fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return fc, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("zbworker: read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("zbworker: parse config file %s: %w", path, err)
	}
	return fc, nil
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
