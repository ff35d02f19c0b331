package repositories

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"motomar-api/models"
	"motomar-api/testutil"
)

func TestAccountRepository_FindByEmailIsCaseInsensitive(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewAccountRepository(db)
	acc := testutil.CreateAccount(t, db, func(a *models.Account) { a.Email = "ana@motomar.com" })

	found, err := repo.FindByEmail("  ANA@MotoMar.com")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, found.ID)

	_, err = repo.FindByEmail("nobody@motomar.com")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestAccountRepository_ConflictingField(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewAccountRepository(db)
	phone := "3001234567"
	testutil.CreateAccount(t, db, func(a *models.Account) {
		a.Email = "taken@motomar.com"
		a.Phone = &phone
	})

	otherPhone := "3110000000"
	tests := []struct {
		name  string
		email string
		phone *string
		want  string
	}{
		{"email taken in another case", "TAKEN@motomar.com", nil, "email"},
		{"phone taken", "free@motomar.com", &phone, "phone"},
		{"both free", "free@motomar.com", &otherPhone, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field, err := repo.ConflictingField(tt.email, tt.phone)
			require.NoError(t, err)
			assert.Equal(t, tt.want, field)
		})
	}
}

func TestAccountRepository_TouchLastAccessIsDebounced(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewAccountRepository(db)
	acc := testutil.CreateAccount(t, db)

	first := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.TouchLastAccess(acc.ID, first, time.Minute))

	require.NoError(t, repo.TouchLastAccess(acc.ID, first.Add(10*time.Second), time.Minute))
	found, err := repo.FindByID(acc.ID)
	require.NoError(t, err)
	require.NotNil(t, found.LastAccessAt)
	assert.True(t, found.LastAccessAt.Equal(first))

	later := first.Add(2 * time.Minute)
	require.NoError(t, repo.TouchLastAccess(acc.ID, later, time.Minute))
	found, err = repo.FindByID(acc.ID)
	require.NoError(t, err)
	assert.True(t, found.LastAccessAt.Equal(later))
}

func TestAccountRepository_Stats(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewAccountRepository(db)
	seller := testutil.CreateAccount(t, db)
	fan := testutil.CreateAccount(t, db)

	l := testutil.CreateListing(t, db, seller.ID)
	testutil.CreateListing(t, db, seller.ID, func(l *models.Listing) { l.Sold = true })
	require.NoError(t, db.Create(&models.Favorite{ID: uuid.NewString(), AccountID: fan.ID, ListingID: l.ID}).Error)

	stats, err := repo.Stats(seller.ID)
	require.NoError(t, err)
	assert.Equal(t, &AccountStats{ActiveListings: 1, SoldListings: 1, FavoritesReceived: 1}, stats)
}
