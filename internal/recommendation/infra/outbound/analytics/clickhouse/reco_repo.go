package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	recoDomain "github.com/davicafu/tiendalab/internal/recommendation/domain"
)

// RecoAnalyticsRepo implementa la interfaz Analytics para ClickHouse.
type RecoAnalyticsRepo struct {
	db *sql.DB
}

// NewRecoAnalyticsRepo es el constructor.
func NewRecoAnalyticsRepo(addr string, dbName string) (*RecoAnalyticsRepo, error) {
	conn := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: dbName,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
	})

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("could not ping clickhouse: %w", err)
	}

	return &RecoAnalyticsRepo{db: conn}, nil
}

// RecordQuery inserta una fila del registro de recomendaciones.
func (r *RecoAnalyticsRepo) RecordQuery(ctx context.Context, entry recoDomain.QueryLog) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO recommendation_log
		 (conversation_id, category, keywords, season, degraded, result_count, elapsed_ms, event_time)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ConversationID.String(),
		entry.Category,
		strings.Join(entry.Keywords, ","),
		entry.Season,
		entry.Degraded,
		entry.ResultCount,
		entry.ElapsedMs,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert recommendation log: %w", err)
	}
	return nil
}

// DailyRecoTrend agrega las consultas de recomendación por día.
type DailyRecoTrend struct {
	Day      time.Time
	Queries  uint64
	Degraded uint64
}

func (r *RecoAnalyticsRepo) GetDailyTrend(ctx context.Context, start, end time.Time) ([]DailyRecoTrend, error) {
	query := `
		SELECT
			toStartOfDay(event_time) AS day,
			count() AS queries,
			countIf(degraded) AS degraded
		FROM recommendation_log
		WHERE event_time BETWEEN ? AND ?
		GROUP BY day
		ORDER BY day
	`
	rows, err := r.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trends []DailyRecoTrend
	for rows.Next() {
		var trend DailyRecoTrend
		if err := rows.Scan(&trend.Day, &trend.Queries, &trend.Degraded); err != nil {
			return nil, err
		}
		trends = append(trends, trend)
	}
	return trends, rows.Err()
}

// Verificación en tiempo de compilación.
var _ recoDomain.Analytics = (*RecoAnalyticsRepo)(nil)
