package domain

import "time"

// Favorite marks a car saved by a user.
type Favorite struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	CarID     int64     `json:"carId"`
	CreatedAt time.Time `json:"createdAt"`
}

// PriceAlert asks to be notified when a car drops to TargetPrice.
type PriceAlert struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	CarID       int64     `json:"carId"`
	TargetPrice float64   `json:"targetPrice"`
	CreatedAt   time.Time `json:"createdAt"`
	Car         *Car      `json:"car,omitempty"`
}

// BrowsingEntry records that a signed-in user opened a car's detail page.
type BrowsingEntry struct {
	ID       int64     `json:"id"`
	UserID   int64     `json:"userId"`
	CarID    int64     `json:"carId"`
	ViewedAt time.Time `json:"viewedAt"`
	Car      *Car      `json:"car,omitempty"`
}

// Brand is an entry of the static manufacturer catalog.
type Brand struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	LogoURL   string   `json:"logoUrl"`
	Models    []string `json:"models"`
	CarsCount int      `json:"carsCount"`
}
