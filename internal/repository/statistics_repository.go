package repository

import (
	"context"
	"database/sql"
	"time"

	"car-marketplace/internal/domain"
)

const dateLayout = "2006-01-02"

// StatisticsRepository stores the per-day visit counter
type StatisticsRepository interface {
	RecordVisit(ctx context.Context, day time.Time) error
	VisitStats(ctx context.Context, today, weekStart, monthStart time.Time) (*domain.VisitStats, error)
	DailyVisits(ctx context.Context, from, to time.Time) (map[string]int64, error)
}

type statisticsRepository struct {
	db *sql.DB
}

// NewStatisticsRepository creates a new instance of StatisticsRepository
func NewStatisticsRepository(db *sql.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

// RecordVisit adds one visit to the counter of day
func (r *statisticsRepository) RecordVisit(ctx context.Context, day time.Time) error {
	query := `
		INSERT INTO statistics (date, total_visits)
		VALUES ($1::date, 1)
		ON CONFLICT (date) DO UPDATE SET total_visits = statistics.total_visits + 1
	`

	if _, err := r.db.ExecContext(ctx, query, day.Format(dateLayout)); err != nil {
		return domain.Persistence("failed to record visit", err)
	}
	return nil
}

// VisitStats sums visits for today, the week and month starting at the given
// days, and all time
func (r *statisticsRepository) VisitStats(ctx context.Context, today, weekStart, monthStart time.Time) (*domain.VisitStats, error) {
	query := `
		SELECT
			COALESCE(SUM(total_visits) FILTER (WHERE date = $1::date), 0),
			COALESCE(SUM(total_visits) FILTER (WHERE date >= $2::date), 0),
			COALESCE(SUM(total_visits) FILTER (WHERE date >= $3::date), 0),
			COALESCE(SUM(total_visits), 0)
		FROM statistics
	`

	stats := &domain.VisitStats{}
	err := r.db.QueryRowContext(
		ctx,
		query,
		today.Format(dateLayout),
		weekStart.Format(dateLayout),
		monthStart.Format(dateLayout),
	).Scan(&stats.Today, &stats.ThisWeek, &stats.ThisMonth, &stats.Total)
	if err != nil {
		return nil, domain.Persistence("failed to compute visit statistics", err)
	}

	return stats, nil
}

// DailyVisits returns recorded visits keyed by YYYY-MM-DD for days in
// [from, to]. Days without visits are absent.
func (r *statisticsRepository) DailyVisits(ctx context.Context, from, to time.Time) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT to_char(date, 'YYYY-MM-DD'), total_visits
		FROM statistics
		WHERE date BETWEEN $1::date AND $2::date
		ORDER BY date ASC
	`, from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, domain.Persistence("failed to load daily visits", err)
	}
	defer rows.Close()

	visits := make(map[string]int64)
	for rows.Next() {
		var day string
		var count int64
		if err := rows.Scan(&day, &count); err != nil {
			return nil, domain.Persistence("failed to scan daily visits", err)
		}
		visits[day] = count
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Persistence("error iterating daily visits", err)
	}

	return visits, nil
}
