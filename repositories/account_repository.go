package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"motomar-api/models"
)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(account *models.Account) error {
	return r.db.Create(account).Error
}

// FindByID returns gorm.ErrRecordNotFound when the account does not exist.
func (r *AccountRepository) FindByID(id string) (*models.Account, error) {
	var account models.Account
	if err := r.db.Where("id = ?", id).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// FindByEmail matches the normalized (lower-case) address.
func (r *AccountRepository) FindByEmail(email string) (*models.Account, error) {
	var account models.Account
	if err := r.db.Where("email = ?", models.NormalizeEmail(email)).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// ConflictingField reports which unique field ("email" or "phone") is already
// taken, or "" when neither is.
func (r *AccountRepository) ConflictingField(email string, phone *string) (string, error) {
	var existing models.Account
	query := r.db.Select("email", "phone").Where("email = ?", models.NormalizeEmail(email))
	if phone != nil && *phone != "" {
		query = query.Or("phone = ?", *phone)
	}

	err := query.First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	if existing.Email == models.NormalizeEmail(email) {
		return "email", nil
	}
	return "phone", nil
}

// TouchLastAccess records an access time, skipping the write when the stored
// value is newer than now-debounce.
func (r *AccountRepository) TouchLastAccess(id string, now time.Time, debounce time.Duration) error {
	return r.db.Model(&models.Account{}).
		Where("id = ?", id).
		Where("last_access_at IS NULL OR last_access_at < ?", now.Add(-debounce)).
		UpdateColumn("last_access_at", now).Error
}

type AccountStats struct {
	ActiveListings    int64 `json:"active_listings"`
	SoldListings      int64 `json:"sold_listings"`
	FavoritesReceived int64 `json:"favorites_received"`
}

func (r *AccountRepository) Stats(id string) (*AccountStats, error) {
	var stats AccountStats

	if err := r.db.Model(&models.Listing{}).
		Where("seller_id = ? AND active = ? AND sold = ?", id, true, false).
		Count(&stats.ActiveListings).Error; err != nil {
		return nil, err
	}

	if err := r.db.Model(&models.Listing{}).
		Where("seller_id = ? AND sold = ?", id, true).
		Count(&stats.SoldListings).Error; err != nil {
		return nil, err
	}

	if err := r.db.Model(&models.Favorite{}).
		Joins("JOIN listings ON listings.id = favorites.listing_id").
		Where("listings.seller_id = ?", id).
		Count(&stats.FavoritesReceived).Error; err != nil {
		return nil, err
	}

	return &stats, nil
}
