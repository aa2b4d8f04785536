package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const validYAML = `
environment: test
server:
  port: 8080
  read_timeout: 5s
  write_timeout: 10s
  shutdown_timeout: 15s
metrics:
  enabled: true
  path: /metrics
backend:
  type: clickhouse
kafka:
  brokers: ["localhost:9092"]
  topic: ml.observations
  forecasts_topic: ml.forecasts
  audit_topic: ml.audit
  consumer:
    group_id: gridpulse-monitor
    workers: 4
clickhouse:
  host: localhost
  port: 9000
  database: gridpulse
  user: default
telemetry:
  token: secret-token
  websocket_url: wss://telemetry.example.com/stream
  channels: ["solar/pyrano1", "wind/anemo1"]
  reconnect_delay: 5s
  ping_interval: 30s
trainer:
  mode: http
  url: http://trainer.internal/jobs
  attempts: 3
  backoff: 2s
monitor:
  admin_token: ops-token
  baseline_size: 1000
  current_size: 500
  report_cache_ttl: 30s
  retraining:
    solar:
      metric_threshold: 12.0
      psi_moderate: 0.1
      psi_significant: 0.25
    voltage:
      metric_threshold: 2.5
`

func TestLoadParsesFullConfig(t *testing.T) {
	c, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Environment != "test" {
		t.Errorf("environment: got %q", c.Environment)
	}
	if c.Server.Port != 8080 || c.Server.ReadTimeout != 5*time.Second {
		t.Errorf("server: got %+v", c.Server)
	}
	if c.Backend.Type != "clickhouse" {
		t.Errorf("backend: got %q", c.Backend.Type)
	}
	if c.Kafka.ForecastsTopic != "ml.forecasts" {
		t.Errorf("forecasts topic: got %q", c.Kafka.ForecastsTopic)
	}
	if c.Kafka.AuditTopic != "ml.audit" {
		t.Errorf("audit topic: got %q", c.Kafka.AuditTopic)
	}
	if len(c.Telemetry.Channels) != 2 || c.Telemetry.PingInterval != 30*time.Second {
		t.Errorf("telemetry: got %+v", c.Telemetry)
	}
	if c.Trainer.URL != "http://trainer.internal/jobs" || c.Trainer.Attempts != 3 {
		t.Errorf("trainer: got %+v", c.Trainer)
	}
	if c.Monitor.ReportCacheTTL != 30*time.Second {
		t.Errorf("report cache ttl: got %v", c.Monitor.ReportCacheTTL)
	}
	solar, ok := c.Monitor.Retraining["solar"]
	if !ok || solar.MetricThreshold != 12.0 || solar.PSISignificant != 0.25 {
		t.Errorf("solar retraining seed: got %+v", solar)
	}
	if _, ok := c.Monitor.Retraining["voltage"]; !ok {
		t.Errorf("expected voltage retraining seed")
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	bad := strings.Replace(validYAML, "type: clickhouse", "type: postgres", 1)
	if _, err := Load(writeConfig(t, bad)); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestLoadRejectsUnknownRetrainingModelType(t *testing.T) {
	bad := strings.Replace(validYAML, "    voltage:", "    tidal:", 1)
	_, err := Load(writeConfig(t, bad))
	if err == nil || !strings.Contains(err.Error(), "unknown model type") {
		t.Fatalf("expected unknown model type error, got %v", err)
	}
}

func TestLoadRequiresTrainerURLInHTTPMode(t *testing.T) {
	bad := strings.Replace(validYAML, "  url: http://trainer.internal/jobs\n", "", 1)
	_, err := Load(writeConfig(t, bad))
	if err == nil || !strings.Contains(err.Error(), "trainer.url") {
		t.Fatalf("expected trainer.url error, got %v", err)
	}
}

func TestQueueModeNeedsNoTrainerURL(t *testing.T) {
	queued := strings.Replace(validYAML, "mode: http", "mode: queue", 1)
	queued = strings.Replace(queued, "  url: http://trainer.internal/jobs\n", "", 1)
	if _, err := Load(writeConfig(t, queued)); err != nil {
		t.Fatalf("unexpected error in queue mode: %v", err)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("TELEMETRY_TOKEN", "env-token")
	t.Setenv("BACKEND", "kafka")
	t.Setenv("KAFKA_BROKERS", "b1:9092,b2:9092")
	t.Setenv("ADMIN_TOKEN", "env-admin")

	c, err := LoadWithEnv(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Telemetry.Token != "env-token" {
		t.Errorf("token override: got %q", c.Telemetry.Token)
	}
	if c.Backend.Type != "kafka" {
		t.Errorf("backend override: got %q", c.Backend.Type)
	}
	if len(c.Kafka.Brokers) != 2 || c.Kafka.Brokers[1] != "b2:9092" {
		t.Errorf("brokers override: got %v", c.Kafka.Brokers)
	}
	if c.Monitor.AdminToken != "env-admin" {
		t.Errorf("admin token override: got %q", c.Monitor.AdminToken)
	}
}
