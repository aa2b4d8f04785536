package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"GridPulse/internal/domain/models"
	domrepo "GridPulse/internal/domain/repository"
	"GridPulse/internal/services/features"
	pkgch "GridPulse/pkg/clickhouse"
	applogger "GridPulse/pkg/logger"
)

// CHSampleStore implements SampleStore backed by ClickHouse.
type CHSampleStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

var _ domrepo.SampleStore = (*CHSampleStore)(nil)

func NewCHSampleStore(ch *pkgch.Client) *CHSampleStore {
	return &CHSampleStore{db: ch.DB(), table: "gridpulse.ml_observations"}
}

// SetLogger injects a structured logger.
func (s *CHSampleStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHSampleStore) Windows(ctx context.Context, mt models.ModelType, feature string, baselineSize, currentSize int) (*models.FeatureSample, error) {
	start := time.Now()
	need := baselineSize + currentSize
	const qtpl = `
        SELECT value
        FROM %s
        WHERE model_type = ? AND feature = ?
        ORDER BY ts DESC
        LIMIT ?
    `
	q := fmt.Sprintf(qtpl, s.table)
	rows, err := s.db.QueryContext(ctx, q, string(mt), feature, need)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse windows query error",
				applogger.String("model_type", string(mt)),
				applogger.String("feature", feature),
				applogger.Int("limit", need),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("query windows: %w", err)
	}
	defer rows.Close()

	values := make([]float64, 0, need)
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse windows scan error",
					applogger.String("model_type", string(mt)),
					applogger.String("feature", feature),
					applogger.Error(err),
				)
			}
			return nil, fmt.Errorf("scan value: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse windows rows error",
				applogger.String("model_type", string(mt)),
				applogger.String("feature", feature),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("rows: %w", err)
	}

	// reverse to ASC so the baseline window precedes the current one
	for i, j := 0, len(values)-1; i < j; i, j = i+1, j-1 {
		values[i], values[j] = values[j], values[i]
	}

	baseline, current := features.SplitWindows(values, baselineSize, currentSize)
	if baseline == nil {
		return nil, &models.InsufficientDataError{
			ModelType: mt,
			Op:        "windows",
			Feature:   feature,
			Needed:    need,
			Got:       len(values),
		}
	}

	if s.l != nil {
		s.l.Info("clickhouse windows ok",
			applogger.String("model_type", string(mt)),
			applogger.String("feature", feature),
			applogger.Int("rows", len(values)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return &models.FeatureSample{Name: feature, Baseline: baseline, Current: current}, nil
}

func (s *CHSampleStore) Features(ctx context.Context, mt models.ModelType) ([]string, error) {
	const qtpl = `
        SELECT DISTINCT feature
        FROM %s
        WHERE model_type = ?
        ORDER BY feature ASC
    `
	q := fmt.Sprintf(qtpl, s.table)
	rows, err := s.db.QueryContext(ctx, q, string(mt))
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse features query error",
				applogger.String("model_type", string(mt)),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("query features: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, fmt.Errorf("scan feature: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// CHAccuracySource aggregates recent forecast accuracy from ClickHouse.
type CHAccuracySource struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

var _ domrepo.AccuracySource = (*CHAccuracySource)(nil)

func NewCHAccuracySource(ch *pkgch.Client) *CHAccuracySource {
	return &CHAccuracySource{db: ch.DB(), table: "gridpulse.ml_forecasts"}
}

// SetLogger injects a structured logger.
func (s *CHAccuracySource) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHAccuracySource) RecentMetric(ctx context.Context, mt models.ModelType, since time.Time) (float64, int, error) {
	start := time.Now()
	var q string
	// Percentage error is undefined for zero actuals; those rows are skipped.
	if mt.Kind() == models.MetricPercentage {
		q = fmt.Sprintf(`
        SELECT count(), avg(abs((actual - predicted) / actual) * 100)
        FROM %s
        WHERE model_type = ? AND ts >= ? AND actual != 0
    `, s.table)
	} else {
		q = fmt.Sprintf(`
        SELECT count(), avg(abs(actual - predicted))
        FROM %s
        WHERE model_type = ? AND ts >= ?
    `, s.table)
	}

	var n uint64
	var value sql.NullFloat64
	if err := s.db.QueryRowContext(ctx, q, string(mt), since).Scan(&n, &value); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse recent_metric query error",
				applogger.String("model_type", string(mt)),
				applogger.Error(err),
			)
		}
		return 0, 0, fmt.Errorf("query recent metric: %w", err)
	}

	if s.l != nil {
		s.l.Info("clickhouse recent_metric ok",
			applogger.String("model_type", string(mt)),
			applogger.String("metric", mt.MetricName()),
			applogger.Int("rows", int(n)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	if n == 0 || !value.Valid {
		return 0, 0, nil
	}
	return value.Float64, int(n), nil
}
