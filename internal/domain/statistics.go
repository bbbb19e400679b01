package domain

import "time"

// VisitStats aggregates the per-day visit counter.
type VisitStats struct {
	Today     int64 `json:"today"`
	ThisWeek  int64 `json:"thisWeek"`
	ThisMonth int64 `json:"thisMonth"`
	Total     int64 `json:"total"`
}

// DailyVisits is the visit count of a single calendar day (YYYY-MM-DD).
type DailyVisits struct {
	Date   string `json:"date"`
	Visits int64  `json:"visits"`
}

// CategoryCount is the number of cars in a category.
type CategoryCount struct {
	Category CarCategory `json:"category"`
	Count    int64       `json:"count"`
}

// MakeCount is the number of cars of a make.
type MakeCount struct {
	Make  string `json:"make"`
	Count int64  `json:"count"`
}

// YearCount is the number of cars of a model year.
type YearCount struct {
	Year  int   `json:"year"`
	Count int64 `json:"count"`
}

// DailyCount is a number of rows created on a calendar day (YYYY-MM-DD).
type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// PriceStats summarises listing prices for a filter.
type PriceStats struct {
	Average float64 `json:"average"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Count   int64   `json:"count"`
}

// CarStats is the inventory part of the general statistics.
type CarStats struct {
	Total      int64           `json:"total"`
	New        int64           `json:"new"`
	Used       int64           `json:"used"`
	Featured   int64           `json:"featured"`
	Categories []CategoryCount `json:"categories"`
}

// UserStats is the account part of the general statistics.
type UserStats struct {
	Total  int64 `json:"total"`
	Active int64 `json:"active"`
}

// GeneralStatistics is the dashboard summary.
type GeneralStatistics struct {
	Visits    VisitStats `json:"visits"`
	Cars      CarStats   `json:"cars"`
	Users     UserStats  `json:"users"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// EngagementStats counts user engagement records.
type EngagementStats struct {
	Favorites   int64     `json:"favorites"`
	PriceAlerts int64     `json:"priceAlerts"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
