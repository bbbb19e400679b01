package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"car-marketplace/internal/domain"
	"car-marketplace/internal/search"
)

var ErrPriceAlertNotFound = domain.NewError(domain.KindNotFound, "price alert not found")

// EngagementRepository stores favorites, price alerts and browsing history
type EngagementRepository interface {
	AddFavorite(ctx context.Context, userID, carID int64) error
	RemoveFavorite(ctx context.Context, userID, carID int64) error
	ListFavorites(ctx context.Context, userID int64, page search.PageRequest) ([]*domain.Car, int, error)
	CountFavorites(ctx context.Context) (int64, error)

	AddPriceAlert(ctx context.Context, alert *domain.PriceAlert) error
	FindPriceAlert(ctx context.Context, id int64) (*domain.PriceAlert, error)
	RemovePriceAlert(ctx context.Context, id int64) error
	ListPriceAlerts(ctx context.Context, userID int64) ([]*domain.PriceAlert, error)
	CountPriceAlerts(ctx context.Context) (int64, error)

	RecordView(ctx context.Context, userID, carID int64) error
	ListHistory(ctx context.Context, userID int64, page search.PageRequest) ([]*domain.BrowsingEntry, int, error)
}

type engagementRepository struct {
	db   *sql.DB
	cars *carRepository
}

// NewEngagementRepository creates a new instance of EngagementRepository
func NewEngagementRepository(db *sql.DB) EngagementRepository {
	return &engagementRepository{db: db, cars: &carRepository{db: db}}
}

// AddFavorite saves a car for a user; saving it twice is a no-op
func (r *engagementRepository) AddFavorite(ctx context.Context, userID, carID int64) error {
	query := `
		INSERT INTO favorites (user_id, car_id)
		SELECT $1::bigint, $2::bigint
		WHERE EXISTS (SELECT 1 FROM cars WHERE id = $2::bigint)
		ON CONFLICT (user_id, car_id) DO NOTHING
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, userID, carID).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.Persistence("failed to add favorite", err)
	}

	// No row back means either a duplicate or a missing car
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM cars WHERE id = $1)`, carID).Scan(&exists); err != nil {
		return domain.Persistence("failed to check car", err)
	}
	if !exists {
		return ErrCarNotFound
	}
	return nil
}

// RemoveFavorite deletes a saved car; removing an absent favorite succeeds
func (r *engagementRepository) RemoveFavorite(ctx context.Context, userID, carID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE user_id = $1 AND car_id = $2`, userID, carID)
	if err != nil {
		return domain.Persistence("failed to remove favorite", err)
	}
	return nil
}

// ListFavorites returns the user's saved cars, most recently saved first
func (r *engagementRepository) ListFavorites(ctx context.Context, userID int64, page search.PageRequest) ([]*domain.Car, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM favorites WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, domain.Persistence("failed to count favorites", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM cars
		JOIN (SELECT car_id, id AS favorite_id, created_at AS favorited_at FROM favorites WHERE user_id = $1) f
		  ON f.car_id = cars.id
		ORDER BY f.favorited_at DESC, f.favorite_id DESC
		LIMIT $2 OFFSET $3
	`, carColumns)

	cars, err := r.cars.queryCars(ctx, query, userID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}

	return cars, total, nil
}

// CountFavorites returns the number of favorites across all users
func (r *engagementRepository) CountFavorites(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM favorites`).Scan(&total); err != nil {
		return 0, domain.Persistence("failed to count favorites", err)
	}
	return total, nil
}

// AddPriceAlert stores a new alert for an existing car
func (r *engagementRepository) AddPriceAlert(ctx context.Context, alert *domain.PriceAlert) error {
	query := `
		INSERT INTO price_alerts (user_id, car_id, target_price)
		SELECT $1::bigint, $2::bigint, $3::numeric
		WHERE EXISTS (SELECT 1 FROM cars WHERE id = $2::bigint)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query, alert.UserID, alert.CarID, alert.TargetPrice).
		Scan(&alert.ID, &alert.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrCarNotFound
		}
		return domain.Persistence("failed to add price alert", err)
	}

	return nil
}

// FindPriceAlert retrieves an alert without its car
func (r *engagementRepository) FindPriceAlert(ctx context.Context, id int64) (*domain.PriceAlert, error) {
	alert := &domain.PriceAlert{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, car_id, target_price, created_at
		FROM price_alerts
		WHERE id = $1
	`, id).Scan(&alert.ID, &alert.UserID, &alert.CarID, &alert.TargetPrice, &alert.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPriceAlertNotFound
		}
		return nil, domain.Persistence("failed to find price alert", err)
	}

	return alert, nil
}

// RemovePriceAlert deletes an alert by ID
func (r *engagementRepository) RemovePriceAlert(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM price_alerts WHERE id = $1`, id)
	if err != nil {
		return domain.Persistence("failed to remove price alert", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return domain.Persistence("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		return ErrPriceAlertNotFound
	}

	return nil
}

// ListPriceAlerts returns the user's alerts, newest first, each with its car
func (r *engagementRepository) ListPriceAlerts(ctx context.Context, userID int64) ([]*domain.PriceAlert, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, car_id, target_price, created_at
		FROM price_alerts
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, domain.Persistence("failed to list price alerts", err)
	}
	defer rows.Close()

	alerts := []*domain.PriceAlert{}
	var carIDs []int64
	for rows.Next() {
		alert := &domain.PriceAlert{}
		if err := rows.Scan(&alert.ID, &alert.UserID, &alert.CarID, &alert.TargetPrice, &alert.CreatedAt); err != nil {
			return nil, domain.Persistence("failed to scan price alert", err)
		}
		alerts = append(alerts, alert)
		carIDs = append(carIDs, alert.CarID)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Persistence("error iterating price alerts", err)
	}

	cars, err := r.cars.FindByIDs(ctx, carIDs)
	if err != nil {
		return nil, err
	}
	for _, alert := range alerts {
		alert.Car = cars[alert.CarID]
	}

	return alerts, nil
}

// CountPriceAlerts returns the number of alerts across all users
func (r *engagementRepository) CountPriceAlerts(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM price_alerts`).Scan(&total); err != nil {
		return 0, domain.Persistence("failed to count price alerts", err)
	}
	return total, nil
}

// RecordView appends a browsing history entry
func (r *engagementRepository) RecordView(ctx context.Context, userID, carID int64) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO browser_history (user_id, car_id) VALUES ($1, $2)`, userID, carID)
	if err != nil {
		return domain.Persistence("failed to record view", err)
	}
	return nil
}

// ListHistory returns one page of the user's browsing history, most recent first
func (r *engagementRepository) ListHistory(ctx context.Context, userID int64, page search.PageRequest) ([]*domain.BrowsingEntry, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM browser_history WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, domain.Persistence("failed to count history", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, car_id, viewed_at
		FROM browser_history
		WHERE user_id = $1
		ORDER BY viewed_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, userID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, domain.Persistence("failed to list history", err)
	}
	defer rows.Close()

	entries := []*domain.BrowsingEntry{}
	var carIDs []int64
	for rows.Next() {
		entry := &domain.BrowsingEntry{}
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.CarID, &entry.ViewedAt); err != nil {
			return nil, 0, domain.Persistence("failed to scan history entry", err)
		}
		entries = append(entries, entry)
		carIDs = append(carIDs, entry.CarID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, domain.Persistence("error iterating history", err)
	}

	cars, err := r.cars.FindByIDs(ctx, carIDs)
	if err != nil {
		return nil, 0, err
	}
	for _, entry := range entries {
		entry.Car = cars[entry.CarID]
	}

	return entries, total, nil
}
