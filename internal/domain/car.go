package domain

import (
	"strings"
	"time"
)

// MinCarYear is the earliest model year a listing may carry.
const MinCarYear = 1900

// CarType is the condition of a listed car.
type CarType string

const (
	CarTypeNew  CarType = "NEW"
	CarTypeUsed CarType = "USED"
)

// Valid reports whether t is a known car type.
func (t CarType) Valid() bool {
	return t == CarTypeNew || t == CarTypeUsed
}

// CarCategory is the market segment of a listed car.
type CarCategory string

const (
	CategoryLuxury  CarCategory = "LUXURY"
	CategoryEconomy CarCategory = "ECONOMY"
	CategorySUV     CarCategory = "SUV"
	CategorySports  CarCategory = "SPORTS"
	CategorySedan   CarCategory = "SEDAN"
	CategoryOther   CarCategory = "OTHER"
)

// CarCategories lists every category in display order.
var CarCategories = []CarCategory{
	CategoryLuxury,
	CategoryEconomy,
	CategorySUV,
	CategorySports,
	CategorySedan,
	CategoryOther,
}

// Valid reports whether c is a known category.
func (c CarCategory) Valid() bool {
	for _, known := range CarCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Dimensions of a car in millimetres. Zero-valued fields are unknown.
type Dimensions struct {
	Length *float64 `json:"length,omitempty"`
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
}

// Car represents a vehicle listing
type Car struct {
	ID             int64           `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Type           CarType         `json:"type"`
	Category       CarCategory     `json:"category"`
	Make           string          `json:"make"`
	Model          string          `json:"model"`
	Year           int             `json:"year"`
	Mileage        int             `json:"mileage"`
	Price          float64         `json:"price"`
	Location       string          `json:"location"`
	ContactNumber  string          `json:"contactNumber"`
	Fuel           string          `json:"fuel,omitempty"`
	Transmission   string          `json:"transmission,omitempty"`
	DriveType      string          `json:"driveType,omitempty"`
	Doors          *int            `json:"doors,omitempty"`
	Passengers     *int            `json:"passengers,omitempty"`
	ExteriorColor  string          `json:"exteriorColor,omitempty"`
	InteriorColor  string          `json:"interiorColor,omitempty"`
	EngineSize     string          `json:"engineSize,omitempty"`
	Dimensions     *Dimensions     `json:"dimensions,omitempty"`
	VIN            string          `json:"vin,omitempty"`
	Origin         string          `json:"origin,omitempty"`
	IsFeatured     bool            `json:"isFeatured"`
	Views          int64           `json:"views"`
	Images         []CarImage      `json:"images"`
	Specifications []Specification `json:"specifications"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// CarImage is a picture attached to a car. Images are returned in insertion order.
type CarImage struct {
	ID        int64     `json:"id"`
	CarID     int64     `json:"carId"`
	URL       string    `json:"url"`
	IsMain    bool      `json:"isMain"`
	Is360View bool      `json:"is360View"`
	CreatedAt time.Time `json:"createdAt"`
}

// Specification is a free-form key/value attribute of a car.
type Specification struct {
	ID    int64  `json:"id"`
	CarID int64  `json:"carId"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Validate checks the listing invariants. now supplies the current year
// used as the upper bound for the model year.
func (c *Car) Validate(now time.Time) error {
	switch {
	case strings.TrimSpace(c.Title) == "":
		return InvalidInput("title is required")
	case strings.TrimSpace(c.Description) == "":
		return InvalidInput("description is required")
	case strings.TrimSpace(c.Make) == "":
		return InvalidInput("make is required")
	case strings.TrimSpace(c.Model) == "":
		return InvalidInput("model is required")
	case c.Year < MinCarYear || c.Year > now.Year()+1:
		return InvalidInput("year is out of range")
	case c.Price <= 0:
		return InvalidInput("price must be greater than zero")
	case strings.TrimSpace(c.ContactNumber) == "":
		return InvalidInput("contact number is required")
	case !c.Type.Valid():
		return InvalidInput("invalid car type")
	case !c.Category.Valid():
		return InvalidInput("invalid car category")
	case c.Mileage < 0:
		return InvalidInput("mileage cannot be negative")
	}

	if c.Doors != nil && *c.Doors <= 0 {
		return InvalidInput("doors must be positive")
	}
	if c.Passengers != nil && *c.Passengers <= 0 {
		return InvalidInput("passengers must be positive")
	}
	if d := c.Dimensions; d != nil {
		for _, v := range []*float64{d.Length, d.Width, d.Height} {
			if v != nil && *v <= 0 {
				return InvalidInput("dimensions must be positive")
			}
		}
	}

	return nil
}

// MainImage returns the image flagged as main, falling back to the first one.
func (c *Car) MainImage() *CarImage {
	for i := range c.Images {
		if c.Images[i].IsMain {
			return &c.Images[i]
		}
	}
	if len(c.Images) > 0 {
		return &c.Images[0]
	}
	return nil
}
