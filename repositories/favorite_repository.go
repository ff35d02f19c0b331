package repositories

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"motomar-api/models"
)

type FavoriteRepository struct {
	db *gorm.DB
}

func NewFavoriteRepository(db *gorm.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Toggle removes the pair when it exists and adds it otherwise, reporting
// whether the listing is favorited afterwards. A concurrent insert of the same
// pair is absorbed by the unique index instead of failing.
func (r *FavoriteRepository) Toggle(accountID, listingID string) (bool, error) {
	favorited := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		removed := tx.Where("account_id = ? AND listing_id = ?", accountID, listingID).Delete(&models.Favorite{})
		if removed.Error != nil {
			return removed.Error
		}
		if removed.RowsAffected > 0 {
			return nil
		}

		favorite := &models.Favorite{
			ID:        uuid.New().String(),
			AccountID: accountID,
			ListingID: listingID,
		}
		if err := tx.Omit("Listing").Clauses(clause.OnConflict{DoNothing: true}).Create(favorite).Error; err != nil {
			return err
		}
		favorited = true
		return nil
	})
	return favorited, err
}

func (r *FavoriteRepository) Count(listingID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Favorite{}).Where("listing_id = ?", listingID).Count(&count).Error
	return count, err
}

// FavoritedSet reports which of listingIDs the account has favorited, in a
// single query.
func (r *FavoriteRepository) FavoritedSet(accountID string, listingIDs []string) (map[string]bool, error) {
	set := make(map[string]bool)
	if accountID == "" || len(listingIDs) == 0 {
		return set, nil
	}

	var ids []string
	err := r.db.Model(&models.Favorite{}).
		Where("account_id = ? AND listing_id IN ?", accountID, listingIDs).
		Pluck("listing_id", &ids).Error
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// ListByAccount returns the account's favorites with their listings, newest
// favorite first.
func (r *FavoriteRepository) ListByAccount(accountID string) ([]models.Favorite, error) {
	var favorites []models.Favorite
	err := r.db.Where("account_id = ?", accountID).
		Preload("Listing").
		Preload("Listing.Seller").
		Preload("Listing.Images", primaryImageOnly).
		Order("created_at DESC").
		Find(&favorites).Error
	return favorites, err
}
