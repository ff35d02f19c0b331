package client

import "time"

type Account struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	Phone         *string    `json:"phone,omitempty"`
	City          string     `json:"city"`
	Department    string     `json:"department"`
	EmailVerified bool       `json:"email_verified"`
	Rating        float64    `json:"rating"`
	TotalSales    int        `json:"total_sales"`
	Role          string     `json:"role"`
	Active        bool       `json:"active"`
	LastAccessAt  *time.Time `json:"last_access_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type RegisterRequest struct {
	Email        string  `json:"email"`
	Password     string  `json:"password"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	Phone        *string `json:"phone,omitempty"`
	NationalID   *string `json:"national_id,omitempty"`
	City         string  `json:"city,omitempty"`
	Department   string  `json:"department,omitempty"`
	Address      string  `json:"address,omitempty"`
	AcceptPolicy bool    `json:"accept_policy"`
}

type AuthResponse struct {
	Message   string    `json:"message"`
	Account   *Account  `json:"user"`
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

type AccountStats struct {
	ActiveListings    int64 `json:"active_listings"`
	SoldListings      int64 `json:"sold_listings"`
	FavoritesReceived int64 `json:"favorites_received"`
}

type Profile struct {
	Account  *Account     `json:"user"`
	Stats    AccountStats `json:"stats"`
	Listings []Listing    `json:"listings"`
}

type SellerSummary struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Rating      float64   `json:"rating"`
	TotalSales  int       `json:"total_sales"`
	City        string    `json:"city"`
	Department  string    `json:"department"`
	MemberSince time.Time `json:"member_since"`
}

type ListingImage struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Alt      string `json:"alt"`
	Position int    `json:"position"`
}

type Listing struct {
	ID                  string         `json:"id"`
	SellerID            string         `json:"seller_id"`
	Title               string         `json:"title"`
	Description         string         `json:"description"`
	Price               float64        `json:"price"`
	Negotiable          bool           `json:"negotiable"`
	Brand               string         `json:"brand"`
	Model               string         `json:"model"`
	Year                int            `json:"year"`
	Displacement        int            `json:"displacement"`
	Mileage             int            `json:"mileage"`
	Color               string         `json:"color"`
	Fuel                string         `json:"fuel"`
	Transmission        string         `json:"transmission"`
	VehicleState        string         `json:"vehicle_state"`
	Condition           string         `json:"condition"`
	Brakes              string         `json:"brakes,omitempty"`
	Tires               string         `json:"tires,omitempty"`
	SOATValid           bool           `json:"soat_valid"`
	TechInspectionValid bool           `json:"tech_inspection_valid"`
	PapersInOrder       bool           `json:"papers_in_order"`
	City                string         `json:"city"`
	Department          string         `json:"department"`
	Neighborhood        string         `json:"neighborhood,omitempty"`
	PrimaryImage        *string        `json:"primary_image,omitempty"`
	Active              bool           `json:"active"`
	Sold                bool           `json:"sold"`
	Views               int            `json:"views"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	Images              []ListingImage `json:"images"`
	Seller              *SellerSummary `json:"seller,omitempty"`
	FavoritesCount      int64          `json:"favorites_count"`
	IsFavorite          bool           `json:"is_favorite"`
}

// ListingInput is sent on create and update; nil fields are left out, so an
// update only touches what is set.
type ListingInput struct {
	Title               *string  `json:"title,omitempty"`
	Description         *string  `json:"description,omitempty"`
	Price               *float64 `json:"price,omitempty"`
	Negotiable          *bool    `json:"negotiable,omitempty"`
	Brand               *string  `json:"brand,omitempty"`
	Model               *string  `json:"model,omitempty"`
	Year                *int     `json:"year,omitempty"`
	Displacement        *int     `json:"displacement,omitempty"`
	Mileage             *int     `json:"mileage,omitempty"`
	Color               *string  `json:"color,omitempty"`
	Fuel                *string  `json:"fuel,omitempty"`
	Transmission        *string  `json:"transmission,omitempty"`
	VehicleState        *string  `json:"vehicle_state,omitempty"`
	Condition           *string  `json:"condition,omitempty"`
	Brakes              *string  `json:"brakes,omitempty"`
	Tires               *string  `json:"tires,omitempty"`
	Maintenance         *string  `json:"maintenance,omitempty"`
	Accessories         *string  `json:"accessories,omitempty"`
	SOATValid           *bool    `json:"soat_valid,omitempty"`
	TechInspectionValid *bool    `json:"tech_inspection_valid,omitempty"`
	PapersInOrder       *bool    `json:"papers_in_order,omitempty"`
	City                *string  `json:"city,omitempty"`
	Department          *string  `json:"department,omitempty"`
	Neighborhood        *string  `json:"neighborhood,omitempty"`
	Sold                *bool    `json:"sold,omitempty"`
	Images              []string `json:"images,omitempty"`
}

type Pagination struct {
	Page            int   `json:"page"`
	Limit           int   `json:"limit"`
	Total           int64 `json:"total"`
	TotalPages      int   `json:"total_pages"`
	HasNextPage     bool  `json:"has_next_page"`
	HasPreviousPage bool  `json:"has_previous_page"`
}

type ListingPage struct {
	Items      []Listing         `json:"items"`
	Pagination Pagination        `json:"pagination"`
	Filters    map[string]any    `json:"filters"`
	Sort       map[string]string `json:"sort"`
}

type ListingDetail struct {
	Listing        Listing   `json:"listing"`
	Similar        []Listing `json:"similar"`
	SellerVerified bool      `json:"seller_verified"`
}

type SellerStats struct {
	Total          int64 `json:"total"`
	Active         int64 `json:"active"`
	Sold           int64 `json:"sold"`
	Inactive       int64 `json:"inactive"`
	TotalViews     int64 `json:"total_views"`
	TotalFavorites int64 `json:"total_favorites"`
}

type MyListings struct {
	Items []Listing   `json:"items"`
	Stats SellerStats `json:"stats"`
}

type FavoriteList struct {
	Items []Listing `json:"items"`
	Total int       `json:"total"`
}

type ToggleResult struct {
	Message    string `json:"message"`
	IsFavorite bool   `json:"is_favorite"`
}

// ImageFile is one image to upload.
type ImageFile struct {
	Name string
	Data []byte
}

type BrandCount struct {
	Brand string `json:"brand"`
	Count int64  `json:"count"`
}

type MarketStats struct {
	Available    int64        `json:"available"`
	Sold         int64        `json:"sold"`
	AveragePrice int64        `json:"average_price"`
	TopBrands    []BrandCount `json:"top_brands"`
}
