package service

import (
	"context"
	"strings"

	"car-marketplace/internal/domain"
	"car-marketplace/internal/repository"
)

// BrandService serves the manufacturer catalog
type BrandService interface {
	List(ctx context.Context) ([]domain.Brand, error)
	Get(ctx context.Context, id string) (*domain.Brand, error)
}

type brandService struct {
	brands repository.BrandRepository
}

// NewBrandService creates a new instance of BrandService
func NewBrandService(brands repository.BrandRepository) BrandService {
	return &brandService{brands: brands}
}

func (s *brandService) List(ctx context.Context) ([]domain.Brand, error) {
	return s.brands.List(ctx)
}

func (s *brandService) Get(ctx context.Context, id string) (*domain.Brand, error) {
	return s.brands.FindByID(ctx, strings.TrimSpace(id))
}
