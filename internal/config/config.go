package config

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds fdpadvisor configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Taxonomy  TaxonomyConfig  `yaml:"taxonomy"`
	Model     ModelConfig     `yaml:"model"`
	Ranking   RankingConfig   `yaml:"ranking"`
	Batch     BatchConfig     `yaml:"batch"`
	Clients   []ClientConfig  `yaml:"clients"`
	Audit     AuditConfig     `yaml:"audit"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Addr                string        `yaml:"addr"`                   // HTTP listen address, e.g. ":8080"
	MaxRequestBodyBytes int64         `yaml:"max_request_body_bytes"` // per request
	MaxInFlight         int           `yaml:"max_in_flight"`          // concurrent evaluations
	ReadTimeout         time.Duration `yaml:"read_timeout"`
	WriteTimeout        time.Duration `yaml:"write_timeout"`
}

type TaxonomyConfig struct {
	Path string `yaml:"path"` // empty = built-in table
}

type ModelConfig struct {
	Kind               string        `yaml:"kind"` // onnx | linear | none
	Path               string        `yaml:"path"` // bundle dir (onnx) or YAML file (linear)
	ONNXRuntimeLibrary string        `yaml:"onnxruntime_library"`
	InferenceTimeout   time.Duration `yaml:"inference_timeout"`
	BreakerFailures    uint32        `yaml:"breaker_failures"`
	BreakerCooldown    time.Duration `yaml:"breaker_cooldown"`
}

type RankingConfig struct {
	TopN int `yaml:"top_n"`
}

type BatchConfig struct {
	Parallelism int `yaml:"parallelism"`
	MaxItems    int `yaml:"max_items"`
}

type ClientConfig struct {
	ID      string   `yaml:"id"`
	APIKeys []string `yaml:"api_keys"`
}

type AuditConfig struct {
	Level           string            `yaml:"level"` // off | metadata | full
	QueueSize       int               `yaml:"queue_size"`
	Workers         int               `yaml:"workers"`
	ShutdownTimeout time.Duration     `yaml:"shutdown_timeout"`
	Sinks           []AuditSinkConfig `yaml:"sinks"`
}

type AuditSinkConfig struct {
	Type    string            `yaml:"type"` // file_jsonl | webhook | sqlite
	Path    string            `yaml:"path"`
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`
	Timeout time.Duration     `yaml:"timeout"`

	MaxBytes int64 `yaml:"max_bytes"` // file_jsonl rotation threshold; 0 disables
}

type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Protocol string `yaml:"protocol"` // grpc | http
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // console | json
}

// Load reads configuration from a YAML file.
// If the file doesn't exist, it returns a default config and no error.
// Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := defaultConfig()
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	applyEnv(&cfg)

	return &cfg, nil
}

func defaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.MaxRequestBodyBytes <= 0 {
		cfg.Server.MaxRequestBodyBytes = 1 << 20
	}
	if cfg.Server.MaxInFlight <= 0 {
		cfg.Server.MaxInFlight = 64
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = 10 * time.Second
	}
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}

	if cfg.Model.Kind == "" {
		cfg.Model.Kind = "none"
	}
	if cfg.Model.InferenceTimeout <= 0 {
		cfg.Model.InferenceTimeout = 2 * time.Second
	}
	if cfg.Model.BreakerFailures == 0 {
		cfg.Model.BreakerFailures = 5
	}
	if cfg.Model.BreakerCooldown <= 0 {
		cfg.Model.BreakerCooldown = 30 * time.Second
	}

	if cfg.Ranking.TopN == 0 {
		cfg.Ranking.TopN = 3
	}

	if cfg.Batch.Parallelism == 0 {
		cfg.Batch.Parallelism = 4
	}
	if cfg.Batch.MaxItems == 0 {
		cfg.Batch.MaxItems = 1000
	}

	if cfg.Clients == nil {
		cfg.Clients = []ClientConfig{}
	}

	if cfg.Audit.Level == "" {
		cfg.Audit.Level = "metadata"
	}
	if cfg.Audit.QueueSize <= 0 {
		cfg.Audit.QueueSize = 1000
	}
	if cfg.Audit.Workers <= 0 {
		cfg.Audit.Workers = 1
	}
	if cfg.Audit.ShutdownTimeout <= 0 {
		cfg.Audit.ShutdownTimeout = 2 * time.Second
	}

	if cfg.Telemetry.Protocol == "" {
		cfg.Telemetry.Protocol = "grpc"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("FDPADVISOR_ADDR")); v != "" {
		cfg.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("FDPADVISOR_MODEL_KIND")); v != "" {
		cfg.Model.Kind = v
	}
	if v := strings.TrimSpace(os.Getenv("FDPADVISOR_MODEL_PATH")); v != "" {
		cfg.Model.Path = v
	}
	if v := strings.TrimSpace(os.Getenv("FDPADVISOR_LOG_LEVEL")); v != "" {
		cfg.Logging.Level = v
	}
}
