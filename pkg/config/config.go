package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"GridPulse/pkg/util"
)

// RetrainingThresholds seeds one model type's policy config. Zero fields fall
// back to the built-in defaults for that model type.
type RetrainingThresholds struct {
	MetricThreshold               float64 `yaml:"metric_threshold"`
	DriftScoreThreshold           float64 `yaml:"drift_score_threshold"`
	SignificanceLevel             float64 `yaml:"significance_level"`
	PSIModerate                   float64 `yaml:"psi_moderate"`
	PSISignificant                float64 `yaml:"psi_significant"`
	MaxDaysWithoutRetrain         int     `yaml:"max_days_without_retrain"`
	MinDaysBetweenRetrains        int     `yaml:"min_days_between_retrains"`
	ConsecutiveViolationsRequired int     `yaml:"consecutive_violations_required"`
	ABMinSamples                  int     `yaml:"ab_min_samples"`
	ABMetricMargin                float64 `yaml:"ab_metric_margin"`
}

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Backend struct {
		Type string `yaml:"type"`
	} `yaml:"backend"`
	Kafka struct {
		Brokers        []string `yaml:"brokers"`
		Topic          string   `yaml:"topic"`
		ForecastsTopic string   `yaml:"forecasts_topic"`
		AuditTopic     string   `yaml:"audit_topic"`
		RequiredAcks   int      `yaml:"required_acks"`
		Compression    string   `yaml:"compression"`
		Producer       struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Telemetry struct {
		Token          string        `yaml:"token"`
		WebSocketURL   string        `yaml:"websocket_url"`
		Channels       []string      `yaml:"channels"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"telemetry"`
	Trainer struct {
		Mode     string        `yaml:"mode"`
		URL      string        `yaml:"url"`
		Token    string        `yaml:"token"`
		Attempts int           `yaml:"attempts"`
		Backoff  time.Duration `yaml:"backoff"`
	} `yaml:"trainer"`
	Monitor struct {
		AdminToken     string                          `yaml:"admin_token"`
		BaselineSize   int                             `yaml:"baseline_size"`
		CurrentSize    int                             `yaml:"current_size"`
		ReportCacheTTL time.Duration                   `yaml:"report_cache_ttl"`
		Retraining     map[string]RetrainingThresholds `yaml:"retraining"`
		Redis          struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"monitor"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("TELEMETRY_TOKEN"); v != "" {
		c.Telemetry.Token = v
	}
	if v := os.Getenv("TELEMETRY_CHANNELS"); v != "" {
		c.Telemetry.Channels = util.SplitCSV(v)
	}
	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = util.SplitCSV(v)
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("ADMIN_TOKEN"); v != "" {
		c.Monitor.AdminToken = v
	}
	if v := os.Getenv("TRAINER_URL"); v != "" {
		c.Trainer.URL = v
	}
	if v := os.Getenv("TRAINER_TOKEN"); v != "" {
		c.Trainer.Token = v
	}

	return c, nil
}

var knownModelTypes = map[string]bool{"solar": true, "wind": true, "voltage": true}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Backend.Type == "" {
		return fmt.Errorf("backend.type is required")
	}
	if c.Backend.Type != "kafka" && c.Backend.Type != "clickhouse" {
		return fmt.Errorf("backend.type must be 'kafka' or 'clickhouse', got '%s'", c.Backend.Type)
	}
	if len(c.Telemetry.Channels) == 0 {
		return fmt.Errorf("telemetry.channels cannot be empty")
	}
	if c.Telemetry.Token == "" {
		return fmt.Errorf("telemetry.token is required")
	}
	switch c.Trainer.Mode {
	case "", "http":
		if c.Trainer.URL == "" {
			return fmt.Errorf("trainer.url is required in http mode")
		}
	case "queue":
	default:
		return fmt.Errorf("trainer.mode must be 'http' or 'queue', got '%s'", c.Trainer.Mode)
	}
	for mt := range c.Monitor.Retraining {
		if !knownModelTypes[mt] {
			return fmt.Errorf("monitor.retraining has unknown model type '%s'", mt)
		}
	}
	return nil
}
