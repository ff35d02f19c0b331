// Package testutil provides database fixtures shared by package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"motomar-api/database"
	"motomar-api/models"
	"motomar-api/utils"
)

// NewDB returns a migrated, private in-memory SQLite database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	utils.PasswordCost = bcrypt.MinCost

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Initialize("sqlite", dsn, false)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// CreateAccount persists an active account whose password is "Secret123!".
func CreateAccount(t *testing.T, db *gorm.DB, mutate ...func(*models.Account)) *models.Account {
	t.Helper()

	hash, err := utils.HashPassword("Secret123!")
	require.NoError(t, err)

	id := uuid.NewString()
	account := &models.Account{
		ID:         id,
		Email:      "rider-" + id[:8] + "@motomar.com",
		Password:   hash,
		FirstName:  "Ana",
		LastName:   "Ruiz",
		City:       "Medellín",
		Department: "Antioquia",
		Role:       models.RoleUser,
		Active:     true,
	}
	for _, m := range mutate {
		m(account)
	}

	require.NoError(t, db.Create(account).Error)
	return account
}

// CreateListing persists an active, unsold listing owned by sellerID.
func CreateListing(t *testing.T, db *gorm.DB, sellerID string, mutate ...func(*models.Listing)) *models.Listing {
	t.Helper()

	listing := &models.Listing{
		ID:           uuid.NewString(),
		SellerID:     sellerID,
		Title:        "Yamaha MT-09 impecable",
		Description:  "Único dueño, mantenimientos al día",
		Price:        42000000,
		Negotiable:   true,
		Brand:        "Yamaha",
		Model:        "MT-09",
		Year:         2021,
		Displacement: 890,
		Mileage:      12000,
		Color:        "Azul",
		Fuel:         models.FuelGasoline,
		Transmission: models.TransmissionManual,
		VehicleState: models.VehicleStateUsed,
		Condition:    models.ConditionVeryGood,
		SOATValid:    true,
		City:         "Medellín",
		Department:   "Antioquia",
		Active:       true,
		CreatedAt:    time.Now(),
	}
	for _, m := range mutate {
		m(listing)
	}

	require.NoError(t, db.Omit("Images", "Seller").Create(listing).Error)
	return listing
}

// AddImage attaches an image at position to the listing.
func AddImage(t *testing.T, db *gorm.DB, listingID string, position int) *models.ListingImage {
	t.Helper()

	image := &models.ListingImage{
		ID:        uuid.NewString(),
		ListingID: listingID,
		URL:       fmt.Sprintf("https://cdn.motomar.com/%s/%d.jpg", listingID, position),
		Position:  position,
	}
	require.NoError(t, db.Create(image).Error)
	return image
}
