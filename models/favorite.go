package models

import "time"

// Favorite bookmarks a listing for an account. One row per pair.
type Favorite struct {
	ID        string    `json:"id" gorm:"primaryKey;size:191"`
	AccountID string    `json:"account_id" gorm:"not null;size:191;uniqueIndex:uk_favorites_account_listing"`
	ListingID string    `json:"listing_id" gorm:"not null;size:191;uniqueIndex:uk_favorites_account_listing;index"`
	CreatedAt time.Time `json:"created_at"`

	Listing *Listing `json:"listing,omitempty" gorm:"foreignKey:ListingID"`
}
