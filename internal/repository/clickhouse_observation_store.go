package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"TrendPulse/internal/domain/models"
	domrepo "TrendPulse/internal/domain/repository"
	pkgch "TrendPulse/pkg/clickhouse"
	applogger "TrendPulse/pkg/logger"
)

const chInsertChunk = 2000

// CHObservationStore implements ObservationStore backed by ClickHouse. Rows
// are deduplicated on (indicator, date) by a ReplacingMergeTree, and reads
// use FINAL.
type CHObservationStore struct {
	ch    *pkgch.Client
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHObservationStore(ch *pkgch.Client, l *applogger.Logger) *CHObservationStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHObservationStore{
		ch:    ch,
		db:    ch.DB(),
		table: ch.Database() + ".observations",
		l:     l,
	}
}

func (s *CHObservationStore) schema() []string {
	db := s.ch.Database()
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            indicator   LowCardinality(String),
            date        DateTime64(3, 'UTC'),
            value       Float64,
            unit        LowCardinality(String),
            inserted_at DateTime64(3, 'UTC') DEFAULT now64(3)
        ) ENGINE = ReplacingMergeTree(inserted_at)
        ORDER BY (indicator, date)`, s.table),
	}
}

func (s *CHObservationStore) Init(ctx context.Context) error {
	if err := s.ch.InitSchema(ctx, s.schema()); err != nil {
		return err
	}
	s.l.Info("clickhouse schema ready", applogger.String("table", s.table))
	return nil
}

func (s *CHObservationStore) Store(ctx context.Context, o *models.Observation) error {
	if o == nil {
		return fmt.Errorf("%w: nil", models.ErrInvalidObservation)
	}
	return s.StoreBatch(ctx, []*models.Observation{o})
}

func (s *CHObservationStore) StoreBatch(ctx context.Context, obs []*models.Observation) error {
	start := time.Now()
	stored := 0
	for from := 0; from < len(obs); from += chInsertChunk {
		to := from + chInsertChunk
		if to > len(obs) {
			to = len(obs)
		}

		values := make([]string, 0, to-from)
		args := make([]interface{}, 0, (to-from)*4)
		for _, o := range obs[from:to] {
			if o == nil {
				continue
			}
			if err := o.Validate(); err != nil {
				return err
			}
			values = append(values, "(?, ?, ?, ?)")
			args = append(args, o.Indicator, o.Date.UTC(), o.Value, o.Unit)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (indicator, date, value, unit) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse insert error", applogger.String("table", s.table), applogger.Int("rows", len(values)), applogger.Error(err))
			return fmt.Errorf("insert observations: %w", err)
		}
		stored += len(values)
	}
	s.l.Debug("clickhouse insert ok", applogger.Int("rows", stored), applogger.Duration("duration", time.Since(start)))
	return nil
}

func (s *CHObservationStore) Query(ctx context.Context, q domrepo.ObservationQuery) ([]models.Observation, error) {
	q = q.Normalize()
	where := []string{"indicator = ?"}
	args := []interface{}{q.Indicator}
	if !q.From.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, q.From.UTC())
	}
	if !q.To.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, q.To.UTC())
	}
	args = append(args, q.Limit)

	// newest first so the limit keeps the most recent rows
	stmt := fmt.Sprintf(`SELECT indicator, date, value, unit FROM %s FINAL
        WHERE %s ORDER BY date DESC LIMIT ?`, s.table, strings.Join(where, " AND "))
	out, err := s.scan(ctx, "query", stmt, args...)
	if err != nil {
		return nil, err
	}
	reverse(out)
	return out, nil
}

func (s *CHObservationStore) Latest(ctx context.Context, indicator string, n int) ([]models.Observation, error) {
	return s.Query(ctx, domrepo.ObservationQuery{Indicator: indicator, Limit: n})
}

func (s *CHObservationStore) Indicators(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT DISTINCT indicator FROM %s ORDER BY indicator", s.table))
	if err != nil {
		return nil, fmt.Errorf("list indicators: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var ind string
		if err := rows.Scan(&ind); err != nil {
			return nil, fmt.Errorf("scan indicator: %w", err)
		}
		out = append(out, ind)
	}
	return out, rows.Err()
}

func (s *CHObservationStore) scan(ctx context.Context, op, stmt string, args ...interface{}) ([]models.Observation, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		s.l.Error("clickhouse "+op+" query error", applogger.String("table", s.table), applogger.Error(err))
		return nil, fmt.Errorf("%s observations: %w", op, err)
	}
	defer rows.Close()

	out := make([]models.Observation, 0, 256)
	for rows.Next() {
		var o models.Observation
		if err := rows.Scan(&o.Indicator, &o.Date, &o.Value, &o.Unit); err != nil {
			s.l.Error("clickhouse "+op+" scan error", applogger.String("table", s.table), applogger.Error(err))
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	s.l.Debug("clickhouse "+op+" ok",
		applogger.Int("rows", len(out)),
		applogger.Duration("duration", time.Since(start)))
	return out, nil
}

func (s *CHObservationStore) Health(ctx context.Context) error {
	return s.ch.Health(ctx)
}

// Close is a no-op; the client is owned by the caller.
func (s *CHObservationStore) Close() error { return nil }

func reverse(obs []models.Observation) {
	for i, j := 0, len(obs)-1; i < j; i, j = i+1, j-1 {
		obs[i], obs[j] = obs[j], obs[i]
	}
}

var _ domrepo.ObservationStore = (*CHObservationStore)(nil)
