package repositories

import (
	"strings"

	"gorm.io/gorm"

	"motomar-api/models"
)

const (
	DefaultListingLimit = 20
	MaxListingLimit     = 50
	MaxListingPage      = 10000
)

// ListingFilters is the normalized set of public search criteria. Nil or empty
// fields are not applied.
type ListingFilters struct {
	Brand      string `json:"brand,omitempty"`
	Model      string `json:"model,omitempty"`
	City       string `json:"city,omitempty"`
	Department string `json:"department,omitempty"`

	Fuel         *models.FuelType     `json:"fuel,omitempty"`
	Transmission *models.Transmission `json:"transmission,omitempty"`
	VehicleState *models.VehicleState `json:"vehicle_state,omitempty"`
	Condition    *models.Condition    `json:"condition,omitempty"`

	SOATValid           *bool `json:"soat_valid,omitempty"`
	TechInspectionValid *bool `json:"tech_inspection_valid,omitempty"`
	PapersInOrder       *bool `json:"papers_in_order,omitempty"`

	YearMin         *int     `json:"year_min,omitempty"`
	YearMax         *int     `json:"year_max,omitempty"`
	PriceMin        *float64 `json:"price_min,omitempty"`
	PriceMax        *float64 `json:"price_max,omitempty"`
	DisplacementMin *int     `json:"displacement_min,omitempty"`
	DisplacementMax *int     `json:"displacement_max,omitempty"`
	MileageMax      *int     `json:"mileage_max,omitempty"`

	Text string `json:"q,omitempty"`
}

// ListingSort names a whitelisted column; see sortColumns.
type ListingSort struct {
	Field string `json:"order_by"`
	Desc  bool   `json:"-"`
}

func (s ListingSort) Direction() string {
	if s.Desc {
		return "desc"
	}
	return "asc"
}

type ListingQuery struct {
	Filters ListingFilters
	Sort    ListingSort
	Page    int
	Limit   int
}

func (q ListingQuery) Offset() int {
	page := q.Page
	if page < 1 {
		return 0
	}
	if page > MaxListingPage {
		page = MaxListingPage
	}
	return (page - 1) * q.Limit
}

var sortColumns = map[string]string{
	"created_at": "created_at",
	"price":      "price",
	"year":       "year",
	"mileage":    "mileage",
	"views":      "views",
}

// SortColumn maps a sort field to its column, reporting false for unknown fields.
func SortColumn(field string) (string, bool) {
	col, ok := sortColumns[field]
	return col, ok
}

// ApplyListingFilters narrows query by every criterion present in f.
func ApplyListingFilters(query *gorm.DB, f ListingFilters) *gorm.DB {
	for column, value := range map[string]string{
		"brand":      f.Brand,
		"model":      f.Model,
		"city":       f.City,
		"department": f.Department,
	} {
		if value != "" {
			query = query.Where("LOWER(listings."+column+") LIKE ? ESCAPE '!'", likePattern(value))
		}
	}

	if f.Fuel != nil {
		query = query.Where("listings.fuel = ?", *f.Fuel)
	}
	if f.Transmission != nil {
		query = query.Where("listings.transmission = ?", *f.Transmission)
	}
	if f.VehicleState != nil {
		query = query.Where("listings.vehicle_state = ?", *f.VehicleState)
	}
	if f.Condition != nil {
		query = query.Where("listings.condition = ?", *f.Condition)
	}

	if f.SOATValid != nil {
		query = query.Where("listings.soat_valid = ?", *f.SOATValid)
	}
	if f.TechInspectionValid != nil {
		query = query.Where("listings.tech_inspection_valid = ?", *f.TechInspectionValid)
	}
	if f.PapersInOrder != nil {
		query = query.Where("listings.papers_in_order = ?", *f.PapersInOrder)
	}

	if f.YearMin != nil {
		query = query.Where("listings.year >= ?", *f.YearMin)
	}
	if f.YearMax != nil {
		query = query.Where("listings.year <= ?", *f.YearMax)
	}
	if f.PriceMin != nil {
		query = query.Where("listings.price >= ?", *f.PriceMin)
	}
	if f.PriceMax != nil {
		query = query.Where("listings.price <= ?", *f.PriceMax)
	}
	if f.DisplacementMin != nil {
		query = query.Where("listings.displacement >= ?", *f.DisplacementMin)
	}
	if f.DisplacementMax != nil {
		query = query.Where("listings.displacement <= ?", *f.DisplacementMax)
	}
	if f.MileageMax != nil {
		query = query.Where("listings.mileage <= ?", *f.MileageMax)
	}

	if f.Text != "" {
		pattern := likePattern(f.Text)
		query = query.Where(
			"LOWER(listings.title) LIKE ? ESCAPE '!' OR LOWER(listings.description) LIKE ? ESCAPE '!' OR "+
				"LOWER(listings.brand) LIKE ? ESCAPE '!' OR LOWER(listings.model) LIKE ? ESCAPE '!' OR LOWER(listings.color) LIKE ? ESCAPE '!'",
			pattern, pattern, pattern, pattern, pattern,
		)
	}

	return query
}

// likeEscaper escapes LIKE wildcards with '!', the ESCAPE character used above.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// likePattern builds a case-insensitive substring pattern in which the user's
// text matches literally.
func likePattern(value string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(value))) + "%"
}
