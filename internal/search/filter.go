package search

import "car-marketplace/internal/domain"

// IntRange is an inclusive integer interval.
type IntRange struct {
	Min int
	Max int
}

// FloatRange is an inclusive decimal interval.
type FloatRange struct {
	Min float64
	Max float64
}

// Filter is the typed, normalized form of a search request. Zero values and
// nil pointers mean "no constraint".
type Filter struct {
	SearchText   string
	Type         domain.CarType
	Category     domain.CarCategory
	Make         string
	Model        string
	Year         *int
	YearRange    *IntRange
	PriceRange   *FloatRange
	Fuel         string
	Transmission string
	DriveType    string
	Doors        *int
	Origin       string
	IsFeatured   *bool
	ExcludeID    *int64
}

// IsEmpty reports whether the filter constrains nothing.
func (f Filter) IsEmpty() bool {
	return len(BuildPredicates(f)) == 0
}

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }
