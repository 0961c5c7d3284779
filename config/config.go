package config

import (
	"strings"

	"github.com/spf13/viper"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("version", defaultVersion)
	v.SetDefault("log_file", defaultLogFile)
	v.SetDefault("log_level", defaultLogLevel)
	v.SetDefault("log_file_max_size", defaultLogFileMaxSize)
	v.SetDefault("log_file_max_backups", defaultLogFileMaxBackups)
	v.SetDefault("log_file_max_age", defaultLogFileMaxAge)
	v.SetDefault("log_compress", defaultLogCompress)
	v.SetDefault("dsn_uri", defaultDSN)
	v.SetDefault("data", defaultData)
	v.SetDefault("worker_pool_size", defaultWorkerPoolSize)
	v.SetDefault("queue_size", defaultQueueSize)
	v.SetDefault("ai_api_key", "")
	v.SetDefault("ai_base_url", defaultAIBaseURL)
	v.SetDefault("ai_model", defaultAIModel)
	v.SetDefault("ai_timeout", defaultAITimeout)
}

// GetConfig loads options from the environment on top of the defaults.
// Environment variables use the BOOKLEND_ prefix, e.g. BOOKLEND_DSN_URI.
func GetConfig() (*Options, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("booklend")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	opts := &Options{}
	if err := v.Unmarshal(opts); err != nil {
		return nil, err
	}
	return opts, nil
}

// ParseFile loads options from a TOML config file, environment variables
// still take precedence over file values.
func ParseFile(path string) (*Options, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("booklend")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	opts := &Options{}
	if err := v.Unmarshal(opts); err != nil {
		return nil, err
	}
	return opts, nil
}
