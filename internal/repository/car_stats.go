package repository

import (
	"context"
	"fmt"
	"time"

	"car-marketplace/internal/domain"
	"car-marketplace/internal/search"
)

// CountByCategory returns the number of cars per category, including
// categories without cars
func (r *carRepository) CountByCategory(ctx context.Context) ([]domain.CategoryCount, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT category, COUNT(*) FROM cars GROUP BY category`)
	if err != nil {
		return nil, domain.Persistence("failed to count cars by category", err)
	}
	defer rows.Close()

	counts := make(map[domain.CarCategory]int64)
	for rows.Next() {
		var category domain.CarCategory
		var count int64
		if err := rows.Scan(&category, &count); err != nil {
			return nil, domain.Persistence("failed to scan category count", err)
		}
		counts[category] = count
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Persistence("error iterating category counts", err)
	}

	result := make([]domain.CategoryCount, 0, len(domain.CarCategories))
	for _, category := range domain.CarCategories {
		result = append(result, domain.CategoryCount{Category: category, Count: counts[category]})
	}

	return result, nil
}

// CountByMake returns the makes with the most cars
func (r *carRepository) CountByMake(ctx context.Context, limit int) ([]domain.MakeCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT make, COUNT(*) AS total
		FROM cars
		GROUP BY make
		ORDER BY total DESC, make ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, domain.Persistence("failed to count cars by make", err)
	}
	defer rows.Close()

	result := []domain.MakeCount{}
	for rows.Next() {
		var mc domain.MakeCount
		if err := rows.Scan(&mc.Make, &mc.Count); err != nil {
			return nil, domain.Persistence("failed to scan make count", err)
		}
		result = append(result, mc)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Persistence("error iterating make counts", err)
	}

	return result, nil
}

// CountByYear returns the number of cars per model year, newest first
func (r *carRepository) CountByYear(ctx context.Context) ([]domain.YearCount, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT year, COUNT(*) FROM cars GROUP BY year ORDER BY year DESC`)
	if err != nil {
		return nil, domain.Persistence("failed to count cars by year", err)
	}
	defer rows.Close()

	result := []domain.YearCount{}
	for rows.Next() {
		var yc domain.YearCount
		if err := rows.Scan(&yc.Year, &yc.Count); err != nil {
			return nil, domain.Persistence("failed to scan year count", err)
		}
		result = append(result, yc)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Persistence("error iterating year counts", err)
	}

	return result, nil
}

// PriceStats returns average, minimum and maximum price of the cars
// matching filter
func (r *carRepository) PriceStats(ctx context.Context, filter search.Filter) (*domain.PriceStats, error) {
	whereClause, args := search.WhereClause(search.BuildPredicates(filter), 1)

	query := fmt.Sprintf(`
		SELECT COALESCE(AVG(price), 0), COALESCE(MIN(price), 0), COALESCE(MAX(price), 0), COUNT(*)
		FROM cars
		%s
	`, whereClause)

	stats := &domain.PriceStats{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&stats.Average, &stats.Min, &stats.Max, &stats.Count)
	if err != nil {
		return nil, domain.Persistence("failed to compute price statistics", err)
	}

	return stats, nil
}

// RecentlyAdded returns the number of cars created per day since the given time
func (r *carRepository) RecentlyAdded(ctx context.Context, since time.Time) ([]domain.DailyCount, error) {
	return dailyCounts(ctx, r.db, "cars", since)
}

func dailyCounts(ctx context.Context, q queryer, table string, since time.Time) ([]domain.DailyCount, error) {
	query := fmt.Sprintf(`
		SELECT to_char(created_at::date, 'YYYY-MM-DD') AS day, COUNT(*)
		FROM %s
		WHERE created_at >= $1
		GROUP BY day
		ORDER BY day ASC
	`, table)

	rows, err := q.QueryContext(ctx, query, since)
	if err != nil {
		return nil, domain.Persistence("failed to count "+table+" per day", err)
	}
	defer rows.Close()

	result := []domain.DailyCount{}
	for rows.Next() {
		var dc domain.DailyCount
		if err := rows.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, domain.Persistence("failed to scan daily count", err)
		}
		result = append(result, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Persistence("error iterating daily counts", err)
	}

	return result, nil
}
