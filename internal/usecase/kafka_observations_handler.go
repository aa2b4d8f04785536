package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"GridPulse/internal/domain/models"
	domrepo "GridPulse/internal/domain/repository"
	pkgkafka "GridPulse/pkg/kafka"
)

// KafkaObservationsHandler consumes observation messages and writes them to
// storage. This is the Kafka-backend counterpart of direct ClickHouse ingest.
type KafkaObservationsHandler struct {
	topic   string
	storage domrepo.Storage
	metrics domrepo.Metrics
}

func NewKafkaObservationsHandler(topic string, storage domrepo.Storage, metrics domrepo.Metrics) *KafkaObservationsHandler {
	return &KafkaObservationsHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *KafkaObservationsHandler) Topic() string { return h.topic }

// incoming message schema: {model_type, site_id, feature, v, t}
func (h *KafkaObservationsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		ModelType string  `json:"model_type"`
		SiteID    string  `json:"site_id"`
		Feature   string  `json:"feature"`
		V         float64 `json:"v"`
		T         int64   `json:"t"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	mt, ok := models.NormalizeModelType(m.ModelType)
	if !ok {
		h.metrics.RecordError("consumer_model_type")
		return fmt.Errorf("unknown model type %q", m.ModelType)
	}
	ts := eventTime(m.T)
	// E2E latency from event time to now (approx)
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(ts).Seconds())

	start := time.Now()
	err := h.storage.Store(ctx, &models.Observation{
		ModelType: mt,
		SiteID:    m.SiteID,
		Feature:   m.Feature,
		Value:     m.V,
		Timestamp: ts,
	})
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordIngested("clickhouse", string(mt))
	return nil
}

// eventTime decodes millisecond or second epochs.
func eventTime(t int64) time.Time {
	if t > 1e11 {
		return time.UnixMilli(t)
	}
	return time.Unix(t, 0)
}

var _ pkgkafka.MessageHandler = (*KafkaObservationsHandler)(nil)

// KafkaForecastsHandler consumes paired forecast/actual messages feeding the
// accuracy source.
type KafkaForecastsHandler struct {
	topic   string
	storage domrepo.Storage
	metrics domrepo.Metrics
}

func NewKafkaForecastsHandler(topic string, storage domrepo.Storage, metrics domrepo.Metrics) *KafkaForecastsHandler {
	return &KafkaForecastsHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *KafkaForecastsHandler) Topic() string { return h.topic }

// incoming message schema: {model_type, version_id, site_id, predicted, actual, t}
func (h *KafkaForecastsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		ModelType string  `json:"model_type"`
		VersionID int64   `json:"version_id"`
		SiteID    string  `json:"site_id"`
		Predicted float64 `json:"predicted"`
		Actual    float64 `json:"actual"`
		T         int64   `json:"t"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	mt, ok := models.NormalizeModelType(m.ModelType)
	if !ok {
		h.metrics.RecordError("consumer_model_type")
		return fmt.Errorf("unknown model type %q", m.ModelType)
	}

	start := time.Now()
	err := h.storage.StoreForecasts(ctx, []*models.ForecastSample{{
		ModelType: mt,
		VersionID: m.VersionID,
		SiteID:    m.SiteID,
		Predicted: m.Predicted,
		Actual:    m.Actual,
		Timestamp: eventTime(m.T),
	}})
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordIngested("clickhouse", string(mt))
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaForecastsHandler)(nil)
