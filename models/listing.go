package models

import (
	"time"
)

type Listing struct {
	ID                  string       `json:"id" gorm:"primaryKey;size:191"`
	SellerID            string       `json:"seller_id" gorm:"not null;size:191;index"`
	Title               string       `json:"title" gorm:"not null;size:200"`
	Description         string       `json:"description" gorm:"type:text;not null"`
	Price               float64      `json:"price" gorm:"type:decimal(14,2);not null;index"`
	Negotiable          bool         `json:"negotiable"`
	Brand               string       `json:"brand" gorm:"not null;size:100;index"`
	Model               string       `json:"model" gorm:"not null;size:100"`
	Year                int          `json:"year" gorm:"not null"`
	Displacement        int          `json:"displacement" gorm:"not null"`
	Mileage             int          `json:"mileage" gorm:"not null"`
	Color               string       `json:"color" gorm:"not null;size:50"`
	Fuel                FuelType     `json:"fuel" gorm:"not null;size:20"`
	Transmission        Transmission `json:"transmission" gorm:"not null;size:20"`
	VehicleState        VehicleState `json:"vehicle_state" gorm:"not null;size:20"`
	Condition           Condition    `json:"condition" gorm:"not null;size:20"`
	Brakes              *Brakes      `json:"brakes,omitempty" gorm:"size:20"`
	Tires               *Tires       `json:"tires,omitempty" gorm:"size:20"`
	Maintenance         string       `json:"maintenance,omitempty" gorm:"type:text"`
	Accessories         string       `json:"accessories,omitempty" gorm:"type:text"`
	SOATValid           bool         `json:"soat_valid"`
	TechInspectionValid bool         `json:"tech_inspection_valid"`
	PapersInOrder       bool         `json:"papers_in_order"`
	City                string       `json:"city" gorm:"not null;size:100"`
	Department          string       `json:"department" gorm:"not null;size:100;index"`
	Neighborhood        string       `json:"neighborhood,omitempty" gorm:"size:100"`
	PrimaryImage        *string      `json:"primary_image,omitempty" gorm:"size:500"`
	Active              bool         `json:"active" gorm:"index"`
	Sold                bool         `json:"sold" gorm:"index"`
	Featured            bool         `json:"featured"`
	Views               int          `json:"views"`
	CreatedAt           time.Time    `json:"created_at" gorm:"index"`
	UpdatedAt           time.Time    `json:"updated_at"`

	Seller *Account       `json:"-" gorm:"foreignKey:SellerID"`
	Images []ListingImage `json:"images" gorm:"foreignKey:ListingID"`
}

// ListingImage is one picture of a listing; Position 0 is the primary image.
type ListingImage struct {
	ID        string    `json:"id" gorm:"primaryKey;size:191"`
	ListingID string    `json:"listing_id" gorm:"not null;size:191;index:idx_listing_images_listing_position"`
	URL       string    `json:"url" gorm:"not null;size:500"`
	Alt       string    `json:"alt" gorm:"size:255"`
	ObjectKey string    `json:"-" gorm:"size:255"`
	Position  int       `json:"position" gorm:"not null;index:idx_listing_images_listing_position"`
	CreatedAt time.Time `json:"created_at"`
}

// ListingView is a listing as returned to clients: seller reduced to its
// public summary plus viewer-specific state.
type ListingView struct {
	*Listing
	Seller         *SellerSummary `json:"seller,omitempty"`
	FavoritesCount int64          `json:"favorites_count"`
	IsFavorite     bool           `json:"is_favorite"`
}

func NewListingView(l *Listing) ListingView {
	return ListingView{Listing: l, Seller: l.Seller.Summary()}
}
