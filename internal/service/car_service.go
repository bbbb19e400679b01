package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"car-marketplace/internal/domain"
	"car-marketplace/internal/repository"
	"car-marketplace/internal/search"
	"car-marketplace/internal/storage"

	"go.uber.org/zap"
)

// carImagesDir is the storage sub directory for car pictures
const carImagesDir = "car-images"

// FeaturedCache caches the featured cars list
type FeaturedCache interface {
	Featured(ctx context.Context, limit int) ([]*domain.Car, bool)
	StoreFeatured(ctx context.Context, limit int, cars []*domain.Car)
	Invalidate(ctx context.Context)
}

// Upload is an uploaded file held in memory
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// CarPatch holds the fields of a partial car update. Nil fields are kept.
type CarPatch struct {
	Title          *string
	Description    *string
	Type           *domain.CarType
	Category       *domain.CarCategory
	Make           *string
	Model          *string
	Year           *int
	Mileage        *int
	Price          *float64
	Location       *string
	ContactNumber  *string
	Fuel           *string
	Transmission   *string
	DriveType      *string
	Doors          *int
	Passengers     *int
	ExteriorColor  *string
	InteriorColor  *string
	EngineSize     *string
	Dimensions     *domain.Dimensions
	VIN            *string
	Origin         *string
	IsFeatured     *bool
	Specifications *[]domain.Specification
}

// CarService defines the interface for car listing use cases
type CarService interface {
	List(ctx context.Context, filter search.Filter, page search.PageRequest) (*search.Result[*domain.Car], error)
	Search(ctx context.Context, filter search.Filter, order search.Order, page search.PageRequest) (*search.Result[*domain.Car], error)
	Featured(ctx context.Context, limit int) ([]*domain.Car, error)
	MostViewed(ctx context.Context, limit int) ([]*domain.Car, error)
	GetDetail(ctx context.Context, id int64, viewerID *int64) (*domain.Car, error)
	Similar(ctx context.Context, id int64, limit int) ([]*domain.Car, error)

	Create(ctx context.Context, car *domain.Car) (*domain.Car, error)
	Update(ctx context.Context, id int64, patch CarPatch) (*domain.Car, error)
	Delete(ctx context.Context, id int64) error
	AddImage(ctx context.Context, carID int64, upload Upload, isMain, is360View bool) (*domain.CarImage, error)
	DeleteImage(ctx context.Context, imageID int64) error
	AddSpecification(ctx context.Context, carID int64, key, value string) (*domain.Specification, error)
	DeleteSpecification(ctx context.Context, specID int64) error
}

type carService struct {
	cars       repository.CarRepository
	engagement repository.EngagementRepository
	files      storage.FileStorage
	cache      FeaturedCache
	logger     *zap.Logger
	now        func() time.Time
}

// NewCarService creates a new instance of CarService. cache may be nil.
func NewCarService(
	cars repository.CarRepository,
	engagement repository.EngagementRepository,
	files storage.FileStorage,
	cache FeaturedCache,
	logger *zap.Logger,
) CarService {
	return &carService{
		cars:       cars,
		engagement: engagement,
		files:      files,
		cache:      cache,
		logger:     logger,
		now:        time.Now,
	}
}

// List returns one page of cars, newest first
func (s *carService) List(ctx context.Context, filter search.Filter, page search.PageRequest) (*search.Result[*domain.Car], error) {
	return s.Search(ctx, filter, search.Newest, page)
}

// Search returns one page of cars matching filter in the given order
func (s *carService) Search(ctx context.Context, filter search.Filter, order search.Order, page search.PageRequest) (*search.Result[*domain.Car], error) {
	cars, total, err := s.cars.Search(ctx, filter, order, page)
	if err != nil {
		return nil, fmt.Errorf("failed to search cars: %w", err)
	}
	return search.NewResult(cars, total, page), nil
}

// Featured returns featured cars, served from cache when possible
func (s *carService) Featured(ctx context.Context, limit int) ([]*domain.Car, error) {
	if s.cache != nil {
		if cars, ok := s.cache.Featured(ctx, limit); ok {
			return cars, nil
		}
	}

	cars, err := s.cars.FindFeatured(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get featured cars: %w", err)
	}

	if s.cache != nil {
		s.cache.StoreFeatured(ctx, limit, cars)
	}
	return cars, nil
}

// MostViewed returns the cars with the most views
func (s *carService) MostViewed(ctx context.Context, limit int) ([]*domain.Car, error) {
	cars, err := s.cars.FindMostViewed(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get most viewed cars: %w", err)
	}
	return cars, nil
}

// GetDetail counts a view and returns the car. A signed-in viewer gets the
// view recorded in their browsing history.
func (s *carService) GetDetail(ctx context.Context, id int64, viewerID *int64) (*domain.Car, error) {
	if err := s.cars.IncrementViews(ctx, id); err != nil {
		return nil, err
	}

	car, err := s.cars.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if viewerID != nil {
		if err := s.engagement.RecordView(ctx, *viewerID, id); err != nil {
			s.logger.Warn("Failed to record browsing history",
				zap.Int64("user_id", *viewerID),
				zap.Int64("car_id", id),
				zap.Error(err),
			)
		}
	}

	return car, nil
}

// Similar returns up to limit cars resembling car id
func (s *carService) Similar(ctx context.Context, id int64, limit int) ([]*domain.Car, error) {
	ref, err := s.cars.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	cars, _, err := s.cars.Search(ctx, search.SimilarFilter(ref), search.Newest, search.PageRequest{Page: search.DefaultPage, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to find similar cars: %w", err)
	}
	return cars, nil
}

// Create validates and stores a new listing
func (s *carService) Create(ctx context.Context, car *domain.Car) (*domain.Car, error) {
	car.ID = 0
	car.Views = 0
	car.Images = nil
	if err := car.Validate(s.now()); err != nil {
		return nil, err
	}
	if err := validateSpecifications(car.Specifications); err != nil {
		return nil, err
	}

	if err := s.cars.Create(ctx, car); err != nil {
		return nil, fmt.Errorf("failed to create car: %w", err)
	}

	s.invalidate(ctx)
	return car, nil
}

// Update merges patch into the stored car, validates and saves it
func (s *carService) Update(ctx context.Context, id int64, patch CarPatch) (*domain.Car, error) {
	car, err := s.cars.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.apply(car)
	if err := car.Validate(s.now()); err != nil {
		return nil, err
	}
	if err := validateSpecifications(car.Specifications); err != nil {
		return nil, err
	}

	if err := s.cars.Update(ctx, car, patch.Specifications != nil); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return s.cars.FindByID(ctx, id)
}

// Delete removes the car and then its stored image files. File removal is
// best-effort once the row is gone.
func (s *carService) Delete(ctx context.Context, id int64) error {
	car, err := s.cars.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.cars.Delete(ctx, id); err != nil {
		return err
	}

	for _, image := range car.Images {
		s.removeFile(ctx, image.URL)
	}

	s.invalidate(ctx)
	return nil
}

// AddImage stores an uploaded picture and attaches it to a car
func (s *carService) AddImage(ctx context.Context, carID int64, upload Upload, isMain, is360View bool) (*domain.CarImage, error) {
	if _, err := s.cars.FindByID(ctx, carID); err != nil {
		return nil, err
	}

	stored, err := s.files.Save(ctx, carImagesDir, upload.Name, upload.ContentType, upload.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	image := &domain.CarImage{CarID: carID, URL: stored.URL, IsMain: isMain, Is360View: is360View}
	if err := s.cars.AddImage(ctx, image); err != nil {
		s.removeFile(ctx, stored.URL)
		return nil, err
	}

	s.invalidate(ctx)
	return image, nil
}

// DeleteImage removes an image row and then its file
func (s *carService) DeleteImage(ctx context.Context, imageID int64) error {
	image, err := s.cars.FindImage(ctx, imageID)
	if err != nil {
		return err
	}

	if err := s.cars.DeleteImage(ctx, imageID); err != nil {
		return err
	}

	s.removeFile(ctx, image.URL)
	s.invalidate(ctx)
	return nil
}

// removeFile deletes a stored file whose row is already gone; failures only
// leave an unreferenced file behind, so they are logged
func (s *carService) removeFile(ctx context.Context, url string) {
	if err := s.files.Delete(ctx, url); err != nil {
		s.logger.Warn("Failed to remove image file", zap.String("url", url), zap.Error(err))
	}
}

// AddSpecification attaches a key/value pair to a car
func (s *carService) AddSpecification(ctx context.Context, carID int64, key, value string) (*domain.Specification, error) {
	spec := &domain.Specification{CarID: carID, Key: strings.TrimSpace(key), Value: strings.TrimSpace(value)}
	if err := validateSpecifications([]domain.Specification{*spec}); err != nil {
		return nil, err
	}

	if err := s.cars.AddSpecification(ctx, spec); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return spec, nil
}

// DeleteSpecification removes a specification
func (s *carService) DeleteSpecification(ctx context.Context, specID int64) error {
	if err := s.cars.DeleteSpecification(ctx, specID); err != nil {
		return err
	}

	s.invalidate(ctx)
	return nil
}

func (s *carService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

func validateSpecifications(specs []domain.Specification) error {
	for _, spec := range specs {
		if strings.TrimSpace(spec.Key) == "" || strings.TrimSpace(spec.Value) == "" {
			return domain.InvalidInput("specification key and value are required")
		}
	}
	return nil
}

func (p CarPatch) apply(car *domain.Car) {
	setString(&car.Title, p.Title)
	setString(&car.Description, p.Description)
	if p.Type != nil {
		car.Type = *p.Type
	}
	if p.Category != nil {
		car.Category = *p.Category
	}
	setString(&car.Make, p.Make)
	setString(&car.Model, p.Model)
	if p.Year != nil {
		car.Year = *p.Year
	}
	if p.Mileage != nil {
		car.Mileage = *p.Mileage
	}
	if p.Price != nil {
		car.Price = *p.Price
	}
	setString(&car.Location, p.Location)
	setString(&car.ContactNumber, p.ContactNumber)
	setString(&car.Fuel, p.Fuel)
	setString(&car.Transmission, p.Transmission)
	setString(&car.DriveType, p.DriveType)
	if p.Doors != nil {
		car.Doors = p.Doors
	}
	if p.Passengers != nil {
		car.Passengers = p.Passengers
	}
	setString(&car.ExteriorColor, p.ExteriorColor)
	setString(&car.InteriorColor, p.InteriorColor)
	setString(&car.EngineSize, p.EngineSize)
	if p.Dimensions != nil {
		car.Dimensions = p.Dimensions
	}
	setString(&car.VIN, p.VIN)
	setString(&car.Origin, p.Origin)
	if p.IsFeatured != nil {
		car.IsFeatured = *p.IsFeatured
	}
	if p.Specifications != nil {
		car.Specifications = *p.Specifications
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
