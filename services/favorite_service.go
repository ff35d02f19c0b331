package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"motomar-api/models"
	"motomar-api/repositories"
	"motomar-api/utils"
)

type ToggleResult struct {
	Message    string `json:"message"`
	IsFavorite bool   `json:"is_favorite"`
}

type FavoriteList struct {
	Items []models.ListingView `json:"items"`
	Total int                  `json:"total"`
}

type FavoriteService struct {
	favorites *repositories.FavoriteRepository
	listings  *repositories.ListingRepository
	events    EventPublisher
	async     func(func())
	now       func() time.Time
}

func NewFavoriteService(favorites *repositories.FavoriteRepository, listings *repositories.ListingRepository, events EventPublisher) *FavoriteService {
	if events == nil {
		events = NoopPublisher{}
	}
	return &FavoriteService{
		favorites: favorites,
		listings:  listings,
		events:    events,
		async:     runAsync,
		now:       time.Now,
	}
}

// Toggle adds the listing to the account's favorites, or removes it when it is
// already there.
func (s *FavoriteService) Toggle(accountID, listingID string) (*ToggleResult, error) {
	listing, err := s.listings.FindByID(listingID)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !listing.Active) {
		return nil, utils.NewNotFound("Listing not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find listing: %w", err)
	}

	favorited, err := s.favorites.Toggle(accountID, listingID)
	if err != nil {
		return nil, fmt.Errorf("toggle favorite: %w", err)
	}

	result := &ToggleResult{Message: "Removed from favorites", IsFavorite: favorited}
	if favorited {
		result.Message = "Added to favorites"
	}

	event := FavoriteEvent{ListingID: listingID, AccountID: accountID, Favorited: result.IsFavorite, OccurredAt: s.now()}
	s.async(func() { publishEvent(s.events, SubjectFavoriteToggled, event) })

	return result, nil
}

// List returns the account's favorited listings, newest favorite first.
func (s *FavoriteService) List(accountID string) (*FavoriteList, error) {
	favorites, err := s.favorites.ListByAccount(accountID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}

	items := make([]models.ListingView, 0, len(favorites))
	for _, f := range favorites {
		if f.Listing == nil {
			continue
		}
		view := models.NewListingView(f.Listing)
		view.IsFavorite = true
		items = append(items, view)
	}
	return &FavoriteList{Items: items, Total: len(items)}, nil
}
