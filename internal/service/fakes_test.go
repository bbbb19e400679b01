package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"car-marketplace/internal/domain"
	"car-marketplace/internal/repository"
	"car-marketplace/internal/search"
	"car-marketplace/internal/storage"
)

// fakeCarRepository keeps cars in memory and evaluates search predicates
// the way the SQL rendering does.
type fakeCarRepository struct {
	mu     sync.Mutex
	cars   map[int64]*domain.Car
	nextID int64

	failAddImage    bool
	failDelete      bool
	failDeleteImage bool
}

func newFakeCarRepository(cars ...*domain.Car) *fakeCarRepository {
	r := &fakeCarRepository{cars: make(map[int64]*domain.Car)}
	for _, car := range cars {
		r.cars[car.ID] = car
		r.nextID = max(r.nextID, car.ID)
	}
	return r
}

func cloneCar(car *domain.Car) *domain.Car {
	c := *car
	c.Images = append([]domain.CarImage(nil), car.Images...)
	c.Specifications = append([]domain.Specification(nil), car.Specifications...)
	return &c
}

func (r *fakeCarRepository) Create(ctx context.Context, car *domain.Car) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	car.ID = r.nextID
	car.CreatedAt = time.Now()
	car.UpdatedAt = car.CreatedAt
	r.cars[car.ID] = cloneCar(car)
	return nil
}

func (r *fakeCarRepository) Update(ctx context.Context, car *domain.Car, replaceSpecifications bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.cars[car.ID]
	if !ok {
		return repository.ErrCarNotFound
	}
	updated := cloneCar(car)
	updated.Images = existing.Images
	if !replaceSpecifications {
		updated.Specifications = existing.Specifications
	}
	r.cars[car.ID] = updated
	return nil
}

func (r *fakeCarRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failDelete {
		return domain.Persistence("failed to delete car", fmt.Errorf("connection reset"))
	}
	if _, ok := r.cars[id]; !ok {
		return repository.ErrCarNotFound
	}
	delete(r.cars, id)
	return nil
}

func (r *fakeCarRepository) FindByID(ctx context.Context, id int64) (*domain.Car, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	car, ok := r.cars[id]
	if !ok {
		return nil, repository.ErrCarNotFound
	}
	return cloneCar(car), nil
}

func (r *fakeCarRepository) FindByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Car, error) {
	result := make(map[int64]*domain.Car)
	for _, id := range ids {
		if car, err := r.FindByID(ctx, id); err == nil {
			result[id] = car
		}
	}
	return result, nil
}

func (r *fakeCarRepository) Search(ctx context.Context, filter search.Filter, order search.Order, page search.PageRequest) ([]*domain.Car, int, error) {
	matched := r.match(filter)

	key := func(c *domain.Car) float64 { return sortValue(c, order.Column) }
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if key(a) != key(b) {
			if order.Desc {
				return key(a) > key(b)
			}
			return key(a) < key(b)
		}
		if order.Desc {
			return a.ID > b.ID
		}
		return a.ID < b.ID
	})

	total := len(matched)
	start := min(page.Offset(), total)
	end := min(start+page.Limit, total)
	return matched[start:end], total, nil
}

func (r *fakeCarRepository) Count(ctx context.Context, filter search.Filter) (int, error) {
	return len(r.match(filter)), nil
}

func (r *fakeCarRepository) match(filter search.Filter) []*domain.Car {
	r.mu.Lock()
	defer r.mu.Unlock()

	preds := search.BuildPredicates(filter)
	var matched []*domain.Car
	for _, car := range r.cars {
		ok := true
		for _, p := range preds {
			if !evaluate(car, p) {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, cloneCar(car))
		}
	}
	return matched
}

func (r *fakeCarRepository) IncrementViews(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	car, ok := r.cars[id]
	if !ok {
		return repository.ErrCarNotFound
	}
	car.Views++
	return nil
}

func (r *fakeCarRepository) FindFeatured(ctx context.Context, limit int) ([]*domain.Car, error) {
	featured := true
	cars, _, err := r.Search(ctx, search.Filter{IsFeatured: &featured}, search.FeaturedOrder, search.PageRequest{Page: 1, Limit: limit})
	return cars, err
}

func (r *fakeCarRepository) FindMostViewed(ctx context.Context, limit int) ([]*domain.Car, error) {
	cars, _, err := r.Search(ctx, search.Filter{}, search.ResolveOrder(search.OrderViewsDesc), search.PageRequest{Page: 1, Limit: limit})
	return cars, err
}

func (r *fakeCarRepository) AddImage(ctx context.Context, image *domain.CarImage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAddImage {
		return domain.Persistence("failed to add image", fmt.Errorf("insert failed"))
	}
	car, ok := r.cars[image.CarID]
	if !ok {
		return repository.ErrCarNotFound
	}
	r.nextID++
	image.ID = r.nextID
	car.Images = append(car.Images, *image)
	return nil
}

func (r *fakeCarRepository) FindImage(ctx context.Context, imageID int64) (*domain.CarImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, car := range r.cars {
		for _, image := range car.Images {
			if image.ID == imageID {
				img := image
				return &img, nil
			}
		}
	}
	return nil, repository.ErrImageNotFound
}

func (r *fakeCarRepository) DeleteImage(ctx context.Context, imageID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failDeleteImage {
		return domain.Persistence("failed to delete image", fmt.Errorf("connection reset"))
	}
	for _, car := range r.cars {
		for i, image := range car.Images {
			if image.ID == imageID {
				car.Images = append(car.Images[:i], car.Images[i+1:]...)
				return nil
			}
		}
	}
	return repository.ErrImageNotFound
}

func (r *fakeCarRepository) AddSpecification(ctx context.Context, spec *domain.Specification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	car, ok := r.cars[spec.CarID]
	if !ok {
		return repository.ErrCarNotFound
	}
	r.nextID++
	spec.ID = r.nextID
	car.Specifications = append(car.Specifications, *spec)
	return nil
}

func (r *fakeCarRepository) DeleteSpecification(ctx context.Context, specID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, car := range r.cars {
		for i, spec := range car.Specifications {
			if spec.ID == specID {
				car.Specifications = append(car.Specifications[:i], car.Specifications[i+1:]...)
				return nil
			}
		}
	}
	return repository.ErrSpecificationNotFound
}

func (r *fakeCarRepository) CountByCategory(ctx context.Context) ([]domain.CategoryCount, error) {
	counts := make([]domain.CategoryCount, 0, len(domain.CarCategories))
	for _, category := range domain.CarCategories {
		n, _ := r.Count(ctx, search.Filter{Category: category})
		counts = append(counts, domain.CategoryCount{Category: category, Count: int64(n)})
	}
	return counts, nil
}

func (r *fakeCarRepository) CountByMake(ctx context.Context, limit int) ([]domain.MakeCount, error) {
	return []domain.MakeCount{}, nil
}

func (r *fakeCarRepository) CountByYear(ctx context.Context) ([]domain.YearCount, error) {
	return []domain.YearCount{}, nil
}

func (r *fakeCarRepository) PriceStats(ctx context.Context, filter search.Filter) (*domain.PriceStats, error) {
	return &domain.PriceStats{}, nil
}

func (r *fakeCarRepository) RecentlyAdded(ctx context.Context, since time.Time) ([]domain.DailyCount, error) {
	return []domain.DailyCount{}, nil
}

func columnValue(car *domain.Car, column string) (any, bool) {
	switch column {
	case "id":
		return car.ID, true
	case "title":
		return car.Title, true
	case "description":
		return car.Description, true
	case "type":
		return string(car.Type), true
	case "category":
		return string(car.Category), true
	case "make":
		return car.Make, true
	case "model":
		return car.Model, true
	case "year":
		return car.Year, true
	case "price":
		return car.Price, true
	case "fuel":
		return car.Fuel, true
	case "transmission":
		return car.Transmission, true
	case "drive_type":
		return car.DriveType, true
	case "doors":
		if car.Doors == nil {
			return nil, false
		}
		return *car.Doors, true
	case "engine_size":
		return car.EngineSize, true
	case "exterior_color":
		return car.ExteriorColor, true
	case "origin":
		return car.Origin, true
	case "vin":
		return car.VIN, true
	case "is_featured":
		return car.IsFeatured, true
	}
	panic("unknown column " + column)
}

func evaluate(car *domain.Car, p search.Predicate) bool {
	if p.Op == search.OpContains {
		needle := strings.ToLower(fmt.Sprint(p.Value))
		for _, column := range p.Columns {
			if v, ok := columnValue(car, column); ok && strings.Contains(strings.ToLower(fmt.Sprint(v)), needle) {
				return true
			}
		}
		return false
	}

	v, ok := columnValue(car, p.Columns[0])
	if !ok {
		return false
	}

	switch p.Op {
	case search.OpEq:
		return fmt.Sprint(v) == fmt.Sprint(p.Value)
	case search.OpNotEq:
		return fmt.Sprint(v) != fmt.Sprint(p.Value)
	case search.OpGte:
		return toFloat(v) >= toFloat(p.Value)
	case search.OpLte:
		return toFloat(v) <= toFloat(p.Value)
	}
	return false
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	}
	panic(fmt.Sprintf("not a number: %v", v))
}

func sortValue(car *domain.Car, column string) float64 {
	switch column {
	case "price":
		return car.Price
	case "year":
		return float64(car.Year)
	case "views":
		return float64(car.Views)
	case "updated_at":
		return float64(car.UpdatedAt.UnixNano())
	default:
		return float64(car.CreatedAt.UnixNano())
	}
}

// fakeEngagementRepository records calls and keeps alerts in memory
type fakeEngagementRepository struct {
	views      []int64
	viewErr    error
	alerts     map[int64]*domain.PriceAlert
	nextID     int64
	favorites  int64
	alertCount int64
}

func newFakeEngagementRepository() *fakeEngagementRepository {
	return &fakeEngagementRepository{alerts: make(map[int64]*domain.PriceAlert)}
}

func (r *fakeEngagementRepository) AddFavorite(ctx context.Context, userID, carID int64) error {
	r.favorites++
	return nil
}

func (r *fakeEngagementRepository) RemoveFavorite(ctx context.Context, userID, carID int64) error {
	return nil
}

func (r *fakeEngagementRepository) ListFavorites(ctx context.Context, userID int64, page search.PageRequest) ([]*domain.Car, int, error) {
	return nil, 0, nil
}

func (r *fakeEngagementRepository) CountFavorites(ctx context.Context) (int64, error) {
	return r.favorites, nil
}

func (r *fakeEngagementRepository) AddPriceAlert(ctx context.Context, alert *domain.PriceAlert) error {
	r.nextID++
	alert.ID = r.nextID
	stored := *alert
	r.alerts[alert.ID] = &stored
	return nil
}

func (r *fakeEngagementRepository) FindPriceAlert(ctx context.Context, id int64) (*domain.PriceAlert, error) {
	alert, ok := r.alerts[id]
	if !ok {
		return nil, repository.ErrPriceAlertNotFound
	}
	return alert, nil
}

func (r *fakeEngagementRepository) RemovePriceAlert(ctx context.Context, id int64) error {
	if _, ok := r.alerts[id]; !ok {
		return repository.ErrPriceAlertNotFound
	}
	delete(r.alerts, id)
	return nil
}

func (r *fakeEngagementRepository) ListPriceAlerts(ctx context.Context, userID int64) ([]*domain.PriceAlert, error) {
	var alerts []*domain.PriceAlert
	for _, alert := range r.alerts {
		if alert.UserID == userID {
			alerts = append(alerts, alert)
		}
	}
	return alerts, nil
}

func (r *fakeEngagementRepository) CountPriceAlerts(ctx context.Context) (int64, error) {
	return r.alertCount, nil
}

func (r *fakeEngagementRepository) RecordView(ctx context.Context, userID, carID int64) error {
	if r.viewErr != nil {
		return r.viewErr
	}
	r.views = append(r.views, carID)
	return nil
}

func (r *fakeEngagementRepository) ListHistory(ctx context.Context, userID int64, page search.PageRequest) ([]*domain.BrowsingEntry, int, error) {
	return nil, 0, nil
}

// fakeFileStorage remembers saved and deleted URLs
type fakeFileStorage struct {
	saved     []string
	deleted   []string
	deleteErr error
}

func (s *fakeFileStorage) Save(ctx context.Context, subDir, originalName, contentType string, data []byte) (*storage.StoredFile, error) {
	if len(data) == 0 {
		return nil, storage.ErrEmptyFile
	}
	url := "/uploads/" + subDir + "/" + originalName
	s.saved = append(s.saved, url)
	return &storage.StoredFile{URL: url, FileName: originalName, OriginalName: originalName, Size: int64(len(data)), ContentType: contentType}, nil
}

func (s *fakeFileStorage) Delete(ctx context.Context, url string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, url)
	return nil
}

// fakeFeaturedCache is a map-backed FeaturedCache
type fakeFeaturedCache struct {
	entries     map[int][]*domain.Car
	invalidated int
}

func newFakeFeaturedCache() *fakeFeaturedCache {
	return &fakeFeaturedCache{entries: make(map[int][]*domain.Car)}
}

func (c *fakeFeaturedCache) Featured(ctx context.Context, limit int) ([]*domain.Car, bool) {
	cars, ok := c.entries[limit]
	return cars, ok
}

func (c *fakeFeaturedCache) StoreFeatured(ctx context.Context, limit int, cars []*domain.Car) {
	c.entries[limit] = cars
}

func (c *fakeFeaturedCache) Invalidate(ctx context.Context) {
	c.entries = make(map[int][]*domain.Car)
	c.invalidated++
}

// fakeStatisticsRepository keeps the visit counter per day
type fakeStatisticsRepository struct {
	visits        map[string]int64
	lastWeekStart time.Time
}

func newFakeStatisticsRepository() *fakeStatisticsRepository {
	return &fakeStatisticsRepository{visits: make(map[string]int64)}
}

func (r *fakeStatisticsRepository) RecordVisit(ctx context.Context, day time.Time) error {
	r.visits[day.Format("2006-01-02")]++
	return nil
}

func (r *fakeStatisticsRepository) VisitStats(ctx context.Context, today, weekStart, monthStart time.Time) (*domain.VisitStats, error) {
	r.lastWeekStart = weekStart
	stats := &domain.VisitStats{}
	for key, n := range r.visits {
		day, _ := time.ParseInLocation("2006-01-02", key, today.Location())
		stats.Total += n
		if !day.Before(monthStart) {
			stats.ThisMonth += n
		}
		if !day.Before(weekStart) {
			stats.ThisWeek += n
		}
		if day.Equal(today) {
			stats.Today += n
		}
	}
	return stats, nil
}

func (r *fakeStatisticsRepository) DailyVisits(ctx context.Context, from, to time.Time) (map[string]int64, error) {
	result := make(map[string]int64)
	for key, n := range r.visits {
		day, _ := time.ParseInLocation("2006-01-02", key, from.Location())
		if !day.Before(from) && !day.After(to) {
			result[key] = n
		}
	}
	return result, nil
}
