package config

import (
	"testing"
)

func TestLoadDefaultConfig(t *testing.T) {
	opts, err := GetConfig()
	if err != nil {
		t.Errorf("Error loading config: %s", err)
	}

	t.Logf(`Config
		Version: %s
		DSN: %s
		LogLevel: %s
		Workers: %d
		`, opts.Version, opts.DSN, opts.LogLevel, opts.WorkerPoolSize)

	if opts.Version != defaultVersion {
		t.Errorf("Version not set")
	}
	if opts.WorkerPoolSize != defaultWorkerPoolSize {
		t.Errorf("WorkerPoolSize not set")
	}
	if opts.AIBaseURL != defaultAIBaseURL {
		t.Errorf("AIBaseURL not set")
	}
}

func TestLoadConfigFile(t *testing.T) {
	opts, err := ParseFile("config_test.toml")
	if err != nil {
		t.Errorf("Error loading config: %s", err)
	}
	t.Logf(`Config
		Version: %s
		DSN: %s
		LogLevel: %s
		LogFile: %s
		`, opts.Version, opts.DSN, opts.LogLevel, opts.LogFile)
	if opts.Version != "1.0.0" {
		t.Errorf("Version not set")
	}
	if opts.DSN != "/tmp/booklend-test.db" {
		t.Errorf("DSN not set")
	}
	if opts.LogFile != "test.log" {
		t.Errorf("LogFile not set")
	}
	if opts.LogLevel != "debug" {
		t.Errorf("LogLevel not set")
	}
	if opts.WorkerPoolSize != 2 {
		t.Errorf("WorkerPoolSize not set")
	}
}
