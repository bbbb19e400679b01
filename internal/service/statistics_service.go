package service

import (
	"context"
	"fmt"
	"time"

	"car-marketplace/internal/domain"
	"car-marketplace/internal/repository"
	"car-marketplace/internal/search"
)

// DefaultStatsDays is the default window of the per-day statistics
const DefaultStatsDays = 30

// StatisticsService computes dashboard statistics
type StatisticsService interface {
	RecordVisit(ctx context.Context) error
	General(ctx context.Context) (*domain.GeneralStatistics, error)
	DailyVisits(ctx context.Context, days int) ([]domain.DailyVisits, error)
	CarsByCategory(ctx context.Context) ([]domain.CategoryCount, error)
	CarsByMake(ctx context.Context, limit int) ([]domain.MakeCount, error)
	AveragePrice(ctx context.Context, filter search.Filter) (*domain.PriceStats, error)
	CarsByYear(ctx context.Context) ([]domain.YearCount, error)
	RecentlyAdded(ctx context.Context, days int) ([]domain.DailyCount, error)
	NewUsers(ctx context.Context, days int) ([]domain.DailyCount, error)
	Engagement(ctx context.Context) (*domain.EngagementStats, error)
}

type statisticsService struct {
	stats      repository.StatisticsRepository
	cars       repository.CarRepository
	users      repository.UserRepository
	engagement repository.EngagementRepository
	now        func() time.Time
}

// NewStatisticsService creates a new instance of StatisticsService
func NewStatisticsService(
	stats repository.StatisticsRepository,
	cars repository.CarRepository,
	users repository.UserRepository,
	engagement repository.EngagementRepository,
) StatisticsService {
	return &statisticsService{
		stats:      stats,
		cars:       cars,
		users:      users,
		engagement: engagement,
		now:        time.Now,
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// RecordVisit counts one visit for today
func (s *statisticsService) RecordVisit(ctx context.Context) error {
	return s.stats.RecordVisit(ctx, startOfDay(s.now()))
}

// General returns the visit, inventory and account summary
func (s *statisticsService) General(ctx context.Context) (*domain.GeneralStatistics, error) {
	now := s.now()
	today := startOfDay(now)
	weekStart := today.AddDate(0, 0, -int(today.Weekday()))
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())

	visits, err := s.stats.VisitStats(ctx, today, weekStart, monthStart)
	if err != nil {
		return nil, err
	}

	result := &domain.GeneralStatistics{Visits: *visits, UpdatedAt: now}

	featured := true
	type carCount struct {
		filter search.Filter
		dst    *int64
	}
	carCounts := []carCount{
		{search.Filter{}, &result.Cars.Total},
		{search.Filter{Type: domain.CarTypeNew}, &result.Cars.New},
		{search.Filter{Type: domain.CarTypeUsed}, &result.Cars.Used},
		{search.Filter{IsFeatured: &featured}, &result.Cars.Featured},
	}
	for _, c := range carCounts {
		n, err := s.cars.Count(ctx, c.filter)
		if err != nil {
			return nil, fmt.Errorf("failed to count cars: %w", err)
		}
		*c.dst = int64(n)
	}

	if result.Cars.Categories, err = s.cars.CountByCategory(ctx); err != nil {
		return nil, err
	}

	totalUsers, err := s.users.Count(ctx, domain.UserFilter{})
	if err != nil {
		return nil, err
	}
	active := true
	activeUsers, err := s.users.Count(ctx, domain.UserFilter{IsActive: &active})
	if err != nil {
		return nil, err
	}
	result.Users = domain.UserStats{Total: int64(totalUsers), Active: int64(activeUsers)}

	return result, nil
}

// DailyVisits returns one entry per day from days ago through today,
// oldest first, with zero for days without visits
func (s *statisticsService) DailyVisits(ctx context.Context, days int) ([]domain.DailyVisits, error) {
	days = statsDays(days)
	today := startOfDay(s.now())
	from := today.AddDate(0, 0, -days)

	recorded, err := s.stats.DailyVisits(ctx, from, today)
	if err != nil {
		return nil, err
	}

	result := make([]domain.DailyVisits, 0, days+1)
	for day := from; !day.After(today); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		result = append(result, domain.DailyVisits{Date: key, Visits: recorded[key]})
	}
	return result, nil
}

// CarsByCategory counts cars per category
func (s *statisticsService) CarsByCategory(ctx context.Context) ([]domain.CategoryCount, error) {
	return s.cars.CountByCategory(ctx)
}

// CarsByMake returns the makes with the most cars
func (s *statisticsService) CarsByMake(ctx context.Context, limit int) ([]domain.MakeCount, error) {
	if limit <= 0 {
		limit = search.DefaultLimits().Default
	}
	return s.cars.CountByMake(ctx, limit)
}

// AveragePrice summarises prices of the cars matching filter
func (s *statisticsService) AveragePrice(ctx context.Context, filter search.Filter) (*domain.PriceStats, error) {
	return s.cars.PriceStats(ctx, filter)
}

// CarsByYear counts cars per model year
func (s *statisticsService) CarsByYear(ctx context.Context) ([]domain.YearCount, error) {
	return s.cars.CountByYear(ctx)
}

// RecentlyAdded counts cars created per day over the last days
func (s *statisticsService) RecentlyAdded(ctx context.Context, days int) ([]domain.DailyCount, error) {
	return s.cars.RecentlyAdded(ctx, startOfDay(s.now()).AddDate(0, 0, -statsDays(days)))
}

// NewUsers counts registrations per day over the last days
func (s *statisticsService) NewUsers(ctx context.Context, days int) ([]domain.DailyCount, error) {
	return s.users.NewUsersPerDay(ctx, startOfDay(s.now()).AddDate(0, 0, -statsDays(days)))
}

// Engagement counts favorites and price alerts
func (s *statisticsService) Engagement(ctx context.Context) (*domain.EngagementStats, error) {
	favorites, err := s.engagement.CountFavorites(ctx)
	if err != nil {
		return nil, err
	}
	alerts, err := s.engagement.CountPriceAlerts(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.EngagementStats{Favorites: favorites, PriceAlerts: alerts, UpdatedAt: s.now()}, nil
}

func statsDays(days int) int {
	if days <= 0 {
		return DefaultStatsDays
	}
	if days > 366 {
		return 366
	}
	return days
}
