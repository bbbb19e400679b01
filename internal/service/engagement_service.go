package service

import (
	"context"
	"fmt"

	"car-marketplace/internal/domain"
	"car-marketplace/internal/repository"
	"car-marketplace/internal/search"
)

var ErrAlertNotOwned = domain.NewError(domain.KindForbidden, "price alert belongs to another user")

// EngagementService handles favorites, price alerts and browsing history
type EngagementService interface {
	AddFavorite(ctx context.Context, userID, carID int64) error
	RemoveFavorite(ctx context.Context, userID, carID int64) error
	Favorites(ctx context.Context, userID int64, page search.PageRequest) (*search.Result[*domain.Car], error)

	AddPriceAlert(ctx context.Context, userID, carID int64, targetPrice float64) (*domain.PriceAlert, error)
	RemovePriceAlert(ctx context.Context, userID, alertID int64) error
	PriceAlerts(ctx context.Context, userID int64) ([]*domain.PriceAlert, error)

	History(ctx context.Context, userID int64, page search.PageRequest) (*search.Result[*domain.BrowsingEntry], error)
}

type engagementService struct {
	repo repository.EngagementRepository
}

// NewEngagementService creates a new instance of EngagementService
func NewEngagementService(repo repository.EngagementRepository) EngagementService {
	return &engagementService{repo: repo}
}

// AddFavorite saves a car for a user
func (s *engagementService) AddFavorite(ctx context.Context, userID, carID int64) error {
	return s.repo.AddFavorite(ctx, userID, carID)
}

// RemoveFavorite removes a saved car
func (s *engagementService) RemoveFavorite(ctx context.Context, userID, carID int64) error {
	return s.repo.RemoveFavorite(ctx, userID, carID)
}

// Favorites returns one page of saved cars
func (s *engagementService) Favorites(ctx context.Context, userID int64, page search.PageRequest) (*search.Result[*domain.Car], error) {
	cars, total, err := s.repo.ListFavorites(ctx, userID, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	return search.NewResult(cars, total, page), nil
}

// AddPriceAlert registers a target price for a car
func (s *engagementService) AddPriceAlert(ctx context.Context, userID, carID int64, targetPrice float64) (*domain.PriceAlert, error) {
	if targetPrice <= 0 {
		return nil, domain.InvalidInput("target price must be greater than zero")
	}

	alert := &domain.PriceAlert{UserID: userID, CarID: carID, TargetPrice: targetPrice}
	if err := s.repo.AddPriceAlert(ctx, alert); err != nil {
		return nil, err
	}
	return alert, nil
}

// RemovePriceAlert deletes one of the user's alerts
func (s *engagementService) RemovePriceAlert(ctx context.Context, userID, alertID int64) error {
	alert, err := s.repo.FindPriceAlert(ctx, alertID)
	if err != nil {
		return err
	}

	if alert.UserID != userID {
		return ErrAlertNotOwned
	}

	return s.repo.RemovePriceAlert(ctx, alertID)
}

// PriceAlerts lists the user's alerts, newest first
func (s *engagementService) PriceAlerts(ctx context.Context, userID int64) ([]*domain.PriceAlert, error) {
	return s.repo.ListPriceAlerts(ctx, userID)
}

// History returns one page of the user's browsing history
func (s *engagementService) History(ctx context.Context, userID int64, page search.PageRequest) (*search.Result[*domain.BrowsingEntry], error) {
	entries, total, err := s.repo.ListHistory(ctx, userID, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return search.NewResult(entries, total, page), nil
}
