package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"car-marketplace/internal/domain"
	"car-marketplace/internal/search"
)

var (
	ErrCarNotFound           = domain.NewError(domain.KindNotFound, "car not found")
	ErrImageNotFound         = domain.NewError(domain.KindNotFound, "image not found")
	ErrSpecificationNotFound = domain.NewError(domain.KindNotFound, "specification not found")
)

const carColumns = `id, title, description, type, category, make, model, year, mileage, price,
	location, contact_number, fuel, transmission, drive_type, doors, passengers,
	exterior_color, interior_color, engine_size, dimension_length, dimension_width,
	dimension_height, vin, origin, is_featured, views, created_at, updated_at`

// CarRepository defines the interface for car data access
type CarRepository interface {
	Create(ctx context.Context, car *domain.Car) error
	Update(ctx context.Context, car *domain.Car, replaceSpecifications bool) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*domain.Car, error)
	FindByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Car, error)
	Search(ctx context.Context, filter search.Filter, order search.Order, page search.PageRequest) ([]*domain.Car, int, error)
	Count(ctx context.Context, filter search.Filter) (int, error)
	IncrementViews(ctx context.Context, id int64) error
	FindFeatured(ctx context.Context, limit int) ([]*domain.Car, error)
	FindMostViewed(ctx context.Context, limit int) ([]*domain.Car, error)

	AddImage(ctx context.Context, image *domain.CarImage) error
	FindImage(ctx context.Context, imageID int64) (*domain.CarImage, error)
	DeleteImage(ctx context.Context, imageID int64) error
	AddSpecification(ctx context.Context, spec *domain.Specification) error
	DeleteSpecification(ctx context.Context, specID int64) error

	CountByCategory(ctx context.Context) ([]domain.CategoryCount, error)
	CountByMake(ctx context.Context, limit int) ([]domain.MakeCount, error)
	CountByYear(ctx context.Context) ([]domain.YearCount, error)
	PriceStats(ctx context.Context, filter search.Filter) (*domain.PriceStats, error)
	RecentlyAdded(ctx context.Context, since time.Time) ([]domain.DailyCount, error)
}

type carRepository struct {
	db *sql.DB
}

// NewCarRepository creates a new instance of CarRepository
func NewCarRepository(db *sql.DB) CarRepository {
	return &carRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func scanCar(row rowScanner) (*domain.Car, error) {
	car := &domain.Car{}
	var length, width, height *float64

	err := row.Scan(
		&car.ID,
		&car.Title,
		&car.Description,
		&car.Type,
		&car.Category,
		&car.Make,
		&car.Model,
		&car.Year,
		&car.Mileage,
		&car.Price,
		&car.Location,
		&car.ContactNumber,
		&car.Fuel,
		&car.Transmission,
		&car.DriveType,
		&car.Doors,
		&car.Passengers,
		&car.ExteriorColor,
		&car.InteriorColor,
		&car.EngineSize,
		&length,
		&width,
		&height,
		&car.VIN,
		&car.Origin,
		&car.IsFeatured,
		&car.Views,
		&car.CreatedAt,
		&car.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if length != nil || width != nil || height != nil {
		car.Dimensions = &domain.Dimensions{Length: length, Width: width, Height: height}
	}
	car.Images = []domain.CarImage{}
	car.Specifications = []domain.Specification{}

	return car, nil
}

func dimensionArgs(d *domain.Dimensions) (length, width, height *float64) {
	if d == nil {
		return nil, nil, nil
	}
	return d.Length, d.Width, d.Height
}

// Create inserts a car and its specifications in one transaction
func (r *carRepository) Create(ctx context.Context, car *domain.Car) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Persistence("failed to begin transaction", err)
	}
	defer tx.Rollback()

	length, width, height := dimensionArgs(car.Dimensions)

	query := `
		INSERT INTO cars (title, description, type, category, make, model, year, mileage, price,
			location, contact_number, fuel, transmission, drive_type, doors, passengers,
			exterior_color, interior_color, engine_size, dimension_length, dimension_width,
			dimension_height, vin, origin, is_featured)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, $25)
		RETURNING id, views, created_at, updated_at
	`

	err = tx.QueryRowContext(
		ctx,
		query,
		car.Title,
		car.Description,
		car.Type,
		car.Category,
		car.Make,
		car.Model,
		car.Year,
		car.Mileage,
		car.Price,
		car.Location,
		car.ContactNumber,
		car.Fuel,
		car.Transmission,
		car.DriveType,
		car.Doors,
		car.Passengers,
		car.ExteriorColor,
		car.InteriorColor,
		car.EngineSize,
		length,
		width,
		height,
		car.VIN,
		car.Origin,
		car.IsFeatured,
	).Scan(&car.ID, &car.Views, &car.CreatedAt, &car.UpdatedAt)
	if err != nil {
		return domain.Persistence("failed to create car", err)
	}

	if err := insertSpecifications(ctx, tx, car.ID, car.Specifications); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return domain.Persistence("failed to commit car", err)
	}

	if car.Images == nil {
		car.Images = []domain.CarImage{}
	}
	if car.Specifications == nil {
		car.Specifications = []domain.Specification{}
	}

	return nil
}

func insertSpecifications(ctx context.Context, tx *sql.Tx, carID int64, specs []domain.Specification) error {
	for i := range specs {
		specs[i].CarID = carID
		err := tx.QueryRowContext(
			ctx,
			`INSERT INTO car_specifications (car_id, key, value) VALUES ($1, $2, $3) RETURNING id`,
			carID,
			specs[i].Key,
			specs[i].Value,
		).Scan(&specs[i].ID)
		if err != nil {
			return domain.Persistence("failed to create specification", err)
		}
	}
	return nil
}

// Update writes every column of car. When replaceSpecifications is set the
// car's specifications are deleted and re-created from car.Specifications.
func (r *carRepository) Update(ctx context.Context, car *domain.Car, replaceSpecifications bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Persistence("failed to begin transaction", err)
	}
	defer tx.Rollback()

	length, width, height := dimensionArgs(car.Dimensions)

	query := `
		UPDATE cars
		SET title = $2, description = $3, type = $4, category = $5, make = $6, model = $7,
		    year = $8, mileage = $9, price = $10, location = $11, contact_number = $12,
		    fuel = $13, transmission = $14, drive_type = $15, doors = $16, passengers = $17,
		    exterior_color = $18, interior_color = $19, engine_size = $20,
		    dimension_length = $21, dimension_width = $22, dimension_height = $23,
		    vin = $24, origin = $25, is_featured = $26
		WHERE id = $1
		RETURNING updated_at
	`

	err = tx.QueryRowContext(
		ctx,
		query,
		car.ID,
		car.Title,
		car.Description,
		car.Type,
		car.Category,
		car.Make,
		car.Model,
		car.Year,
		car.Mileage,
		car.Price,
		car.Location,
		car.ContactNumber,
		car.Fuel,
		car.Transmission,
		car.DriveType,
		car.Doors,
		car.Passengers,
		car.ExteriorColor,
		car.InteriorColor,
		car.EngineSize,
		length,
		width,
		height,
		car.VIN,
		car.Origin,
		car.IsFeatured,
	).Scan(&car.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrCarNotFound
		}
		return domain.Persistence("failed to update car", err)
	}

	if replaceSpecifications {
		if _, err := tx.ExecContext(ctx, `DELETE FROM car_specifications WHERE car_id = $1`, car.ID); err != nil {
			return domain.Persistence("failed to clear specifications", err)
		}
		if err := insertSpecifications(ctx, tx, car.ID, car.Specifications); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Persistence("failed to commit car update", err)
	}

	return nil
}

// Delete removes a car; images, specifications and engagement rows cascade
func (r *carRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM cars WHERE id = $1`, id)
	if err != nil {
		return domain.Persistence("failed to delete car", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return domain.Persistence("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		return ErrCarNotFound
	}

	return nil
}

// FindByID retrieves a car with its images and specifications
func (r *carRepository) FindByID(ctx context.Context, id int64) (*domain.Car, error) {
	query := fmt.Sprintf(`SELECT %s FROM cars WHERE id = $1`, carColumns)

	car, err := scanCar(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCarNotFound
		}
		return nil, domain.Persistence("failed to find car by ID", err)
	}

	if err := r.attachChildren(ctx, []*domain.Car{car}); err != nil {
		return nil, err
	}

	return car, nil
}

// FindByIDs retrieves the cars with the given IDs keyed by ID. Missing IDs
// are absent from the map.
func (r *carRepository) FindByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Car, error) {
	byID := make(map[int64]*domain.Car, len(ids))
	if len(ids) == 0 {
		return byID, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM cars WHERE id = ANY($1)`, carColumns)
	cars, err := r.queryCars(ctx, query, ids)
	if err != nil {
		return nil, err
	}

	for _, car := range cars {
		byID[car.ID] = car
	}
	return byID, nil
}

// Search returns one page of cars matching filter in the given order plus
// the total number of matches
func (r *carRepository) Search(ctx context.Context, filter search.Filter, order search.Order, page search.PageRequest) ([]*domain.Car, int, error) {
	whereClause, args := search.WhereClause(search.BuildPredicates(filter), 1)

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM cars %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, domain.Persistence("failed to count cars", err)
	}

	argIndex := len(args) + 1
	query := fmt.Sprintf(`
		SELECT %s
		FROM cars
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, carColumns, whereClause, order.SQL(), argIndex, argIndex+1)

	args = append(args, page.Limit, page.Offset())

	cars, err := r.queryCars(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return cars, total, nil
}

// Count returns the number of cars matching filter
func (r *carRepository) Count(ctx context.Context, filter search.Filter) (int, error) {
	whereClause, args := search.WhereClause(search.BuildPredicates(filter), 1)

	var total int
	err := r.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM cars %s", whereClause), args...).Scan(&total)
	if err != nil {
		return 0, domain.Persistence("failed to count cars", err)
	}

	return total, nil
}

// IncrementViews atomically adds one to the car's view counter
func (r *carRepository) IncrementViews(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `UPDATE cars SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return domain.Persistence("failed to increment views", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return domain.Persistence("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		return ErrCarNotFound
	}

	return nil
}

// FindFeatured returns featured cars, most recently updated first
func (r *carRepository) FindFeatured(ctx context.Context, limit int) ([]*domain.Car, error) {
	featured := true
	cars, _, err := r.Search(ctx, search.Filter{IsFeatured: &featured}, search.FeaturedOrder, search.PageRequest{Page: 1, Limit: limit})
	return cars, err
}

// FindMostViewed returns the cars with the highest view count
func (r *carRepository) FindMostViewed(ctx context.Context, limit int) ([]*domain.Car, error) {
	query := fmt.Sprintf(`SELECT %s FROM cars ORDER BY %s LIMIT $1`, carColumns, search.ResolveOrder(search.OrderViewsDesc).SQL())
	return r.queryCars(ctx, query, limit)
}

func (r *carRepository) queryCars(ctx context.Context, query string, args ...any) ([]*domain.Car, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.Persistence("failed to query cars", err)
	}
	defer rows.Close()

	cars := []*domain.Car{}
	for rows.Next() {
		car, err := scanCar(rows)
		if err != nil {
			return nil, domain.Persistence("failed to scan car", err)
		}
		cars = append(cars, car)
	}

	if err = rows.Err(); err != nil {
		return nil, domain.Persistence("error iterating cars", err)
	}

	if err := r.attachChildren(ctx, cars); err != nil {
		return nil, err
	}

	return cars, nil
}

// attachChildren loads images and specifications for cars with two queries
func (r *carRepository) attachChildren(ctx context.Context, cars []*domain.Car) error {
	if len(cars) == 0 {
		return nil
	}

	ids := make([]int64, len(cars))
	byID := make(map[int64]*domain.Car, len(cars))
	for i, car := range cars {
		ids[i] = car.ID
		byID[car.ID] = car
	}

	imageRows, err := r.db.QueryContext(ctx, `
		SELECT id, car_id, url, is_main, is_360_view, created_at
		FROM car_images
		WHERE car_id = ANY($1)
		ORDER BY id
	`, ids)
	if err != nil {
		return domain.Persistence("failed to load images", err)
	}
	defer imageRows.Close()

	for imageRows.Next() {
		var image domain.CarImage
		if err := imageRows.Scan(&image.ID, &image.CarID, &image.URL, &image.IsMain, &image.Is360View, &image.CreatedAt); err != nil {
			return domain.Persistence("failed to scan image", err)
		}
		byID[image.CarID].Images = append(byID[image.CarID].Images, image)
	}
	if err := imageRows.Err(); err != nil {
		return domain.Persistence("error iterating images", err)
	}

	specRows, err := r.db.QueryContext(ctx, `
		SELECT id, car_id, key, value
		FROM car_specifications
		WHERE car_id = ANY($1)
		ORDER BY id
	`, ids)
	if err != nil {
		return domain.Persistence("failed to load specifications", err)
	}
	defer specRows.Close()

	for specRows.Next() {
		var spec domain.Specification
		if err := specRows.Scan(&spec.ID, &spec.CarID, &spec.Key, &spec.Value); err != nil {
			return domain.Persistence("failed to scan specification", err)
		}
		byID[spec.CarID].Specifications = append(byID[spec.CarID].Specifications, spec)
	}
	if err := specRows.Err(); err != nil {
		return domain.Persistence("error iterating specifications", err)
	}

	return nil
}

// AddImage attaches an image to a car
func (r *carRepository) AddImage(ctx context.Context, image *domain.CarImage) error {
	query := `
		INSERT INTO car_images (car_id, url, is_main, is_360_view)
		SELECT $1::bigint, $2::text, $3::boolean, $4::boolean
		WHERE EXISTS (SELECT 1 FROM cars WHERE id = $1::bigint)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query, image.CarID, image.URL, image.IsMain, image.Is360View).
		Scan(&image.ID, &image.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrCarNotFound
		}
		return domain.Persistence("failed to add image", err)
	}

	return nil
}

// FindImage retrieves a single image
func (r *carRepository) FindImage(ctx context.Context, imageID int64) (*domain.CarImage, error) {
	image := &domain.CarImage{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, car_id, url, is_main, is_360_view, created_at
		FROM car_images
		WHERE id = $1
	`, imageID).Scan(&image.ID, &image.CarID, &image.URL, &image.IsMain, &image.Is360View, &image.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrImageNotFound
		}
		return nil, domain.Persistence("failed to find image", err)
	}

	return image, nil
}

// DeleteImage removes an image row
func (r *carRepository) DeleteImage(ctx context.Context, imageID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM car_images WHERE id = $1`, imageID)
	if err != nil {
		return domain.Persistence("failed to delete image", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return domain.Persistence("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		return ErrImageNotFound
	}

	return nil
}

// AddSpecification attaches a key/value specification to a car
func (r *carRepository) AddSpecification(ctx context.Context, spec *domain.Specification) error {
	query := `
		INSERT INTO car_specifications (car_id, key, value)
		SELECT $1::bigint, $2::text, $3::text
		WHERE EXISTS (SELECT 1 FROM cars WHERE id = $1::bigint)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query, spec.CarID, spec.Key, spec.Value).Scan(&spec.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrCarNotFound
		}
		return domain.Persistence("failed to add specification", err)
	}

	return nil
}

// DeleteSpecification removes a specification row
func (r *carRepository) DeleteSpecification(ctx context.Context, specID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM car_specifications WHERE id = $1`, specID)
	if err != nil {
		return domain.Persistence("failed to delete specification", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return domain.Persistence("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		return ErrSpecificationNotFound
	}

	return nil
}
