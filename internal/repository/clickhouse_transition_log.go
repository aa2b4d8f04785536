package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"GridPulse/internal/domain/models"
	domrepo "GridPulse/internal/domain/repository"
	pkgch "GridPulse/pkg/clickhouse"
	applogger "GridPulse/pkg/logger"
)

// CHTransitionLog persists registry transitions to ClickHouse. Appends are
// write-behind from the registry; Replay feeds Restore at boot.
type CHTransitionLog struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

var _ domrepo.TransitionLog = (*CHTransitionLog)(nil)

func NewCHTransitionLog(ch *pkgch.Client) *CHTransitionLog {
	return &CHTransitionLog{db: ch.DB(), table: "gridpulse.model_transitions"}
}

// SetLogger injects a structured logger.
func (s *CHTransitionLog) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHTransitionLog) Append(ctx context.Context, rec *models.TransitionRecord) error {
	metrics, err := json.Marshal(rec.Version.MetricsSnapshot)
	if err != nil {
		return fmt.Errorf("marshal metrics snapshot: %w", err)
	}
	q := fmt.Sprintf("INSERT INTO %s (seq, model_type, event, at, version_id, role, created_at, promoted_at, retired_at, metrics) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", s.table)
	_, err = s.db.ExecContext(ctx, q,
		rec.Seq,
		string(rec.ModelType),
		string(rec.Event),
		rec.At,
		rec.Version.VersionID,
		string(rec.Version.Role),
		rec.Version.CreatedAt,
		rec.Version.PromotedAt,
		rec.Version.RetiredAt,
		string(metrics),
	)
	if err != nil {
		return fmt.Errorf("append transition: %w", err)
	}
	return nil
}

func (s *CHTransitionLog) Replay(ctx context.Context) ([]models.TransitionRecord, error) {
	start := time.Now()
	q := fmt.Sprintf("SELECT seq, model_type, event, at, version_id, role, created_at, promoted_at, retired_at, metrics FROM %s ORDER BY model_type ASC, seq ASC", s.table)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse replay query error", applogger.Error(err))
		}
		return nil, fmt.Errorf("replay transitions: %w", err)
	}
	defer rows.Close()

	var out []models.TransitionRecord
	for rows.Next() {
		var (
			rec        models.TransitionRecord
			mtype      string
			event      string
			role       string
			promotedAt sql.NullTime
			retiredAt  sql.NullTime
			metrics    string
		)
		if err := rows.Scan(&rec.Seq, &mtype, &event, &rec.At,
			&rec.Version.VersionID, &role, &rec.Version.CreatedAt,
			&promotedAt, &retiredAt, &metrics); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		rec.ModelType = models.ModelType(mtype)
		rec.Event = models.TransitionEvent(event)
		rec.Version.ModelType = rec.ModelType
		rec.Version.Role = models.Role(role)
		if promotedAt.Valid {
			t := promotedAt.Time
			rec.Version.PromotedAt = &t
		}
		if retiredAt.Valid {
			t := retiredAt.Time
			rec.Version.RetiredAt = &t
		}
		if metrics != "" && metrics != "null" {
			if err := json.Unmarshal([]byte(metrics), &rec.Version.MetricsSnapshot); err != nil {
				return nil, fmt.Errorf("unmarshal metrics snapshot: %w", err)
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	if s.l != nil {
		s.l.Info("transition log replayed",
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}
