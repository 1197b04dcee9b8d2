package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	pkgRetry "github.com/futig/interview-engine/internal/pkg/retry"
	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr      string        `env:"SERVER_ADDR,notEmpty"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	MaxFrameSize    int64         `env:"MAX_FRAME_SIZE" envDefault:"2097152"` // 2 MiB

	// Database configuration
	DatabaseURL         string        `env:"DATABASE_URL,notEmpty"`
	DBMaxConns          int           `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns          int           `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// External service configurations
	BackendConnectorCfg    BackendConnectorConfig    `envPrefix:"BACKEND_"`
	ExpressionConnectorCfg ExpressionConnectorConfig `envPrefix:"EXPRESSION_"`
	SignalConnectorCfg     SignalConnectorConfig     `envPrefix:"SIGNAL_"`

	// Interview engine configuration
	InterviewCfg InterviewConfig `envPrefix:"INTERVIEW_"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL,notEmpty"`

	// Metrics configuration
	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS,notEmpty"`

	// UseAI switches to AI-generated questions, remote recording and remote feedback
	UseAI bool `env:"USE_AI_API" envDefault:"false"`

	// Preset question bank (loaded from YAML file)
	PresetQuestions []string

	// Environment (set from flag, not from env var)
	Environment string
}

type InterviewConfig struct {
	AnswerSeconds         int           `env:"ANSWER_SECONDS" envDefault:"60"`
	SampleInterval        time.Duration `env:"SAMPLE_INTERVAL" envDefault:"1s"`
	TimerUnit             time.Duration `env:"TIMER_UNIT" envDefault:"1s"`
	AnalysisTimeout       time.Duration `env:"ANALYSIS_TIMEOUT" envDefault:"900ms"`
	ModelURL              string        `env:"MODEL_URL" envDefault:"/models"`
	QuestionsFile         string        `env:"QUESTIONS_FILE" envDefault:"internal/config/questions.yaml"`
	DefaultQuestionsCount int           `env:"DEFAULT_QUESTIONS_COUNT" envDefault:"3"`
	SnapshotTTL           time.Duration `env:"SNAPSHOT_TTL" envDefault:"2h"`
	BootstrapTimeout      time.Duration `env:"BOOTSTRAP_TIMEOUT" envDefault:"20s"`
}

type BackendConnectorConfig struct {
	HTTPClientConfig
	SessionsEndpoint  string               `env:"SESSIONS_ENDPOINT" envDefault:"/openvidu/sessions"`
	RecordingEndpoint string               `env:"RECORDING_ENDPOINT" envDefault:"/openvidu/recording"`
	QuestionsEndpoint string               `env:"QUESTIONS_ENDPOINT" envDefault:"/interview/question"`
	Retry             pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type ExpressionConnectorConfig struct {
	HTTPClientConfig
	ModelsEndpoint string `env:"MODELS_ENDPOINT" envDefault:"/models/load"`
	DetectEndpoint string `env:"DETECT_ENDPOINT" envDefault:"/detect"`
}

type SignalConnectorConfig struct {
	URL            string               `env:"URL"`
	Token          string               `env:"TOKEN"`
	ReadLimit      int64                `env:"READ_LIMIT" envDefault:"65536"`
	ReconnectDelay time.Duration        `env:"RECONNECT_DELAY" envDefault:"2s"`
	Retry          pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"30s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"5s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"30s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"10s"`
	MaxIdleConnsPerHost   int           `env:"MAX_IDLE_CONNS_PER_HOST" envDefault:"10"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL"`
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg, err := Parse()
	if err != nil {
		return nil, err
	}
	cfg.Environment = *envFlag

	questions, err := LoadQuestions(cfg.InterviewCfg.QuestionsFile)
	if err != nil {
		return nil, fmt.Errorf("load preset questions: %w", err)
	}
	cfg.PresetQuestions = questions

	return cfg, nil
}

// Parse reads the configuration from the process environment and validates it.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	var errors []string

	// Validate Database configuration
	if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 200 {
		errors = append(errors, fmt.Sprintf("DB_MAX_CONNS must be between 1 and 200, got %d", cfg.DBMaxConns))
	}

	if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
		errors = append(errors, fmt.Sprintf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS(%d), got %d", cfg.DBMaxConns, cfg.DBMinConns))
	}

	// Validate interview configuration
	ic := cfg.InterviewCfg
	if ic.AnswerSeconds < 1 || ic.AnswerSeconds > 600 {
		errors = append(errors, fmt.Sprintf("INTERVIEW_ANSWER_SECONDS must be between 1 and 600, got %d", ic.AnswerSeconds))
	}

	if ic.SampleInterval <= 0 || ic.TimerUnit <= 0 {
		errors = append(errors, "INTERVIEW_SAMPLE_INTERVAL and INTERVIEW_TIMER_UNIT must be positive")
	}

	if ic.AnalysisTimeout <= 0 || ic.AnalysisTimeout >= ic.SampleInterval {
		errors = append(errors, fmt.Sprintf("INTERVIEW_ANALYSIS_TIMEOUT must be positive and below the sample interval (%s), got %s", ic.SampleInterval, ic.AnalysisTimeout))
	}

	if ic.DefaultQuestionsCount < 1 {
		errors = append(errors, fmt.Sprintf("INTERVIEW_DEFAULT_QUESTIONS_COUNT must be positive, got %d", ic.DefaultQuestionsCount))
	}

	// Real connectors need their endpoints
	if !cfg.EnableMocks {
		if cfg.BackendConnectorCfg.Url == "" {
			errors = append(errors, "BACKEND_SERVICE_URL is required when mocks are disabled")
		}
		if cfg.ExpressionConnectorCfg.Url == "" {
			errors = append(errors, "EXPRESSION_SERVICE_URL is required when mocks are disabled")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
