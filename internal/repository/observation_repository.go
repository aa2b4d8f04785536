package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"GridPulse/internal/domain/models"
	"GridPulse/internal/domain/repository"
	pkgkafka "GridPulse/pkg/kafka"
)

// SchemaStatements returns the DDL for the observation, forecast and
// transition tables. Executed through pkg/clickhouse InitSchema at boot.
func SchemaStatements() []string {
	return []string{
		`CREATE DATABASE IF NOT EXISTS gridpulse`,
		`CREATE TABLE IF NOT EXISTS gridpulse.ml_observations (
            ts         DateTime64(3),
            model_type LowCardinality(String),
            site_id    LowCardinality(String),
            feature    LowCardinality(String),
            value      Float64,
            event_id   String,
            seq        UInt64
        ) ENGINE = ReplacingMergeTree(seq)
        PARTITION BY toYYYYMM(ts)
        ORDER BY (model_type, feature, ts, event_id)`,
		`CREATE TABLE IF NOT EXISTS gridpulse.ml_forecasts (
            ts         DateTime64(3),
            model_type LowCardinality(String),
            version_id Int64,
            site_id    LowCardinality(String),
            predicted  Float64,
            actual     Float64
        ) ENGINE = MergeTree
        PARTITION BY toYYYYMM(ts)
        ORDER BY (model_type, ts)`,
		`CREATE TABLE IF NOT EXISTS gridpulse.model_transitions (
            seq         Int64,
            model_type  LowCardinality(String),
            event       LowCardinality(String),
            at          DateTime64(3),
            version_id  Int64,
            role        LowCardinality(String),
            created_at  DateTime64(3),
            promoted_at Nullable(DateTime64(3)),
            retired_at  Nullable(DateTime64(3)),
            metrics     String
        ) ENGINE = MergeTree
        ORDER BY (model_type, seq)`,
	}
}

// ClickHouseStorage implements Storage for ClickHouse.
type ClickHouseStorage struct {
	db            *sql.DB
	table         string
	forecastTable string
}

// NewClickHouseStorage creates ClickHouse storage.
func NewClickHouseStorage(db *sql.DB, table, forecastTable string) repository.Storage {
	return &ClickHouseStorage{db: db, table: table, forecastTable: forecastTable}
}

func (s *ClickHouseStorage) Init(ctx context.Context) error {
	return nil // Schema init in pkg
}

func (s *ClickHouseStorage) Store(ctx context.Context, o *models.Observation) error {
	q := fmt.Sprintf("INSERT INTO %s (ts, model_type, site_id, feature, value, event_id, seq) VALUES (?, ?, ?, ?, ?, ?, ?)", s.table)
	// Idempotency: event_id and seq derived from the observation identity
	eventID := fmt.Sprintf("%s-%s-%s-%d", o.ModelType, o.SiteID, o.Feature, o.Timestamp.UnixNano())
	seq := uint64(o.Timestamp.UnixNano())
	_, err := s.db.ExecContext(ctx, q,
		o.Timestamp,
		string(o.ModelType),
		o.SiteID,
		o.Feature,
		o.Value,
		eventID,
		seq,
	)
	return err
}

func (s *ClickHouseStorage) StoreBatch(ctx context.Context, obs []*models.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	// Batch insert using VALUES multi-row to reduce round-trips.
	// Chunk size tuned to 2000 rows per batch.
	const chunkSize = 2000
	for start := 0; start < len(obs); start += chunkSize {
		end := start + chunkSize
		if end > len(obs) {
			end = len(obs)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*7)
		for _, o := range obs[start:end] {
			if o == nil || o.Feature == "" || o.Timestamp.IsZero() {
				continue
			}
			eventID := fmt.Sprintf("%s-%s-%s-%d", o.ModelType, o.SiteID, o.Feature, o.Timestamp.UnixNano())
			seq := uint64(o.Timestamp.UnixNano())
			values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				o.Timestamp,
				string(o.ModelType),
				o.SiteID,
				o.Feature,
				o.Value,
				eventID,
				seq,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (ts, model_type, site_id, feature, value, event_id, seq) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseStorage) StoreForecasts(ctx context.Context, samples []*models.ForecastSample) error {
	if len(samples) == 0 {
		return nil
	}
	const chunkSize = 2000
	for start := 0; start < len(samples); start += chunkSize {
		end := start + chunkSize
		if end > len(samples) {
			end = len(samples)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*6)
		for _, f := range samples[start:end] {
			if f == nil || f.Timestamp.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?)")
			args = append(args,
				f.Timestamp,
				string(f.ModelType),
				f.VersionID,
				f.SiteID,
				f.Predicted,
				f.Actual,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (ts, model_type, version_id, site_id, predicted, actual) VALUES %s", s.forecastTable, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseStorage) Query(ctx context.Context, mt models.ModelType, feature string, from, to time.Time, limit int) ([]*models.Observation, error) {
	q := fmt.Sprintf("SELECT model_type, site_id, feature, value, ts FROM %s WHERE model_type = ? AND feature = ? AND ts >= ? AND ts <= ? ORDER BY ts DESC LIMIT ?", s.table)
	rows, err := s.db.QueryContext(ctx, q, string(mt), feature, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var obs []*models.Observation
	for rows.Next() {
		var o models.Observation
		var mtype string
		if err := rows.Scan(&mtype, &o.SiteID, &o.Feature, &o.Value, &o.Timestamp); err != nil {
			return nil, err
		}
		o.ModelType = models.ModelType(mtype)
		obs = append(obs, &o)
	}
	return obs, rows.Err()
}

func (s *ClickHouseStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseStorage) Close() error {
	return nil // Managed by pkg
}

// KafkaPublisher implements Publisher for Kafka.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, o *models.Observation) error {
	return p.producer.Publish(ctx, p.topic, []byte(o.ModelType), map[string]interface{}{
		"model_type": string(o.ModelType),
		"site_id":    o.SiteID,
		"feature":    o.Feature,
		"v":          o.Value,
		"t":          o.Timestamp.UnixMilli(),
	})
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, obs []*models.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(obs))
	for i, o := range obs {
		msgs[i] = pkgkafka.Message{
			Key: []byte(o.ModelType),
			Value: map[string]interface{}{
				"model_type": string(o.ModelType),
				"site_id":    o.SiteID,
				"feature":    o.Feature,
				"v":          o.Value,
				"t":          o.Timestamp.UnixMilli(),
			},
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
