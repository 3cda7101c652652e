package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Validate checks the loaded config for required fields and safe values.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return errors.New("server.addr must be set")
	}
	if cfg.Server.MaxRequestBodyBytes <= 0 {
		return errors.New("server.max_request_body_bytes must be positive")
	}
	if cfg.Server.MaxInFlight <= 0 {
		return errors.New("server.max_in_flight must be positive")
	}

	if err := validateModelConfig(cfg.Model); err != nil {
		return err
	}

	if cfg.Ranking.TopN < 1 {
		return fmt.Errorf("ranking.top_n must be at least 1, got %d", cfg.Ranking.TopN)
	}
	if cfg.Batch.Parallelism < 1 {
		return fmt.Errorf("batch.parallelism must be at least 1, got %d", cfg.Batch.Parallelism)
	}
	if cfg.Batch.MaxItems < 1 {
		return fmt.Errorf("batch.max_items must be at least 1, got %d", cfg.Batch.MaxItems)
	}

	seen := make(map[string]bool, len(cfg.Clients))
	for _, c := range cfg.Clients {
		if strings.TrimSpace(c.ID) == "" {
			return errors.New("client id must be set")
		}
		if seen[c.ID] {
			return fmt.Errorf("client %q defined twice", c.ID)
		}
		seen[c.ID] = true
		if len(c.APIKeys) == 0 {
			return fmt.Errorf("client %q must define at least one api_keys entry", c.ID)
		}
	}

	if err := validateAuditConfig(cfg.Audit); err != nil {
		return err
	}

	if err := validateTelemetryConfig(cfg.Telemetry); err != nil {
		return err
	}

	if err := validateLoggingConfig(cfg.Logging); err != nil {
		return err
	}

	return nil
}

func validateModelConfig(m ModelConfig) error {
	switch strings.ToLower(strings.TrimSpace(m.Kind)) {
	case "none":
		return nil
	case "onnx", "linear":
		if strings.TrimSpace(m.Path) == "" {
			return fmt.Errorf("model.path must be set for model.kind %q", m.Kind)
		}
	default:
		return fmt.Errorf("model.kind must be onnx, linear or none, got %q", m.Kind)
	}
	if m.InferenceTimeout <= 0 {
		return errors.New("model.inference_timeout must be positive")
	}
	return nil
}

func validateAuditConfig(a AuditConfig) error {
	switch strings.ToLower(strings.TrimSpace(a.Level)) {
	case "off", "metadata", "full":
	default:
		return fmt.Errorf("audit.level must be off, metadata or full, got %q", a.Level)
	}
	for i, s := range a.Sinks {
		switch strings.ToLower(strings.TrimSpace(s.Type)) {
		case "file_jsonl":
			if strings.TrimSpace(s.Path) == "" {
				return fmt.Errorf("audit sink %d (file_jsonl) missing path", i)
			}
			if s.MaxBytes < 0 {
				return fmt.Errorf("audit sink %d (file_jsonl) max_bytes must not be negative", i)
			}
		case "sqlite":
			if strings.TrimSpace(s.Path) == "" {
				return fmt.Errorf("audit sink %d (sqlite) missing path", i)
			}
		case "webhook":
			if strings.TrimSpace(s.URL) == "" {
				return fmt.Errorf("audit sink %d (webhook) missing url", i)
			}
			u, err := url.Parse(s.URL)
			if err != nil || u.Scheme == "" || u.Host == "" {
				return fmt.Errorf("audit sink %d (webhook) has invalid url", i)
			}
			if u.Scheme != "http" && u.Scheme != "https" {
				return fmt.Errorf("audit sink %d (webhook) url must be http or https", i)
			}
		default:
			return fmt.Errorf("audit sink %d has unknown type %q", i, s.Type)
		}
	}
	return nil
}

func validateTelemetryConfig(t TelemetryConfig) error {
	if !t.Enabled {
		return nil
	}
	if strings.TrimSpace(t.Endpoint) == "" {
		return errors.New("telemetry enabled but endpoint is empty")
	}
	if t.Protocol != "" {
		switch strings.ToLower(strings.TrimSpace(t.Protocol)) {
		case "grpc", "http":
		default:
			return fmt.Errorf("telemetry.protocol must be grpc or http, got %q", t.Protocol)
		}
	}
	if _, _, err := net.SplitHostPort(t.Endpoint); err != nil {
		return fmt.Errorf("telemetry.endpoint must be host:port: %w", err)
	}
	return nil
}

func validateLoggingConfig(l LoggingConfig) error {
	switch strings.ToLower(strings.TrimSpace(l.Level)) {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be trace, debug, info, warn or error, got %q", l.Level)
	}
	switch strings.ToLower(strings.TrimSpace(l.Format)) {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", l.Format)
	}
	return nil
}
