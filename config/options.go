package config

const (
	defaultVersion           = "0.1.0"
	defaultLogFile           = "booklend.log"
	defaultLogLevel          = "info"
	defaultLogFileMaxSize    = 20
	defaultLogFileMaxBackups = 3
	defaultLogFileMaxAge     = 28
	defaultLogCompress       = false
	defaultData              = "/var/opt/booklend"
	defaultDSN               = defaultData + "/booklend.db"
	defaultWorkerPoolSize    = 4
	defaultQueueSize         = 256
	defaultAIBaseURL         = "https://api.openai.com/v1"
	defaultAIModel           = "gpt-3.5-turbo"
	defaultAITimeout         = 30
)

// Options holds the runtime configuration. Field tags are mapstructure
// because viper decodes through it, json tags are not recognized.
// see: https://pkg.go.dev/github.com/mitchellh/mapstructure#hdr-Field_Tags
type Options struct {
	// Version is the version of the application
	Version string `mapstructure:"version"`
	// LogFile is the file to write logs to
	LogFile string `mapstructure:"log_file"`
	// LogLevel is the level of logging to show
	LogLevel string `mapstructure:"log_level"`
	// LogFileMaxSize is the maximum size of the log file before it is rotated
	LogFileMaxSize int `mapstructure:"log_file_max_size"`
	// LogFileMaxBackups is the maximum number of log files to keep
	LogFileMaxBackups int `mapstructure:"log_file_max_backups"`
	// LogFileMaxAge is the maximum number of days to keep a log file
	LogFileMaxAge int `mapstructure:"log_file_max_age"`
	// LogCompress is whether or not to compress the log files
	LogCompress bool `mapstructure:"log_compress"`
	// DSN is the path of the sqlite database
	DSN string `mapstructure:"dsn_uri"`
	// Data is the directory to store data
	Data string `mapstructure:"data"`
	// WorkerPoolSize is the number of pipeline workers
	WorkerPoolSize int `mapstructure:"worker_pool_size"`
	// QueueSize is the pipeline queue capacity
	QueueSize int `mapstructure:"queue_size"`
	// AIAPIKey is the API key for the AI backend, leave empty to use the stub
	AIAPIKey string `mapstructure:"ai_api_key"`
	// AIBaseURL is the base URL of the AI backend
	AIBaseURL string `mapstructure:"ai_base_url"`
	// AIModel is the chat model used for summaries and recommendations
	AIModel string `mapstructure:"ai_model"`
	// AITimeout is the AI request timeout in seconds
	AITimeout int `mapstructure:"ai_timeout"`
}

var Opts *Options

func GetDefaultOptions() *Options {
	return &Options{
		Version:           defaultVersion,
		LogFile:           defaultLogFile,
		LogLevel:          defaultLogLevel,
		LogFileMaxSize:    defaultLogFileMaxSize,
		LogFileMaxBackups: defaultLogFileMaxBackups,
		LogFileMaxAge:     defaultLogFileMaxAge,
		LogCompress:       defaultLogCompress,
		DSN:               defaultDSN,
		Data:              defaultData,
		WorkerPoolSize:    defaultWorkerPoolSize,
		QueueSize:         defaultQueueSize,
		AIBaseURL:         defaultAIBaseURL,
		AIModel:           defaultAIModel,
		AITimeout:         defaultAITimeout,
	}
}
