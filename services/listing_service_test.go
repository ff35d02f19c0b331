package services

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"motomar-api/models"
	"motomar-api/repositories"
	"motomar-api/testutil"
	"motomar-api/utils"
)

func strPtr(v string) *string { return &v }

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func boolPtr(v bool) *bool { return &v }

type listingFixture struct {
	svc     *ListingService
	db      *gorm.DB
	events  *mockPublisher
	storage *memoryStorage
	seller  *models.Account
	buyer   *models.Account
}

func newListingFixture(t *testing.T) *listingFixture {
	t.Helper()
	db := testutil.NewDB(t)
	events := &mockPublisher{}
	events.On("Publish", mock.Anything, mock.Anything).Return(nil)
	storage := newMemoryStorage()

	svc := NewListingService(
		repositories.NewListingRepository(db),
		repositories.NewFavoriteRepository(db),
		storage,
		events,
		ImageLimits{MaxFiles: 5, MaxFileSize: 10 * 1024 * 1024},
	)
	svc.async = runInline

	return &listingFixture{
		svc:     svc,
		db:      db,
		events:  events,
		storage: storage,
		seller:  testutil.CreateAccount(t, db, func(a *models.Account) { a.Rating = 4.5 }),
		buyer:   testutil.CreateAccount(t, db),
	}
}

func validListingInput() ListingInput {
	return ListingInput{
		Title:        strPtr("  Kawasaki Z400 como nueva "),
		Description:  strPtr("Siempre en garaje"),
		Price:        floatPtr(24500000),
		Brand:        strPtr("Kawasaki"),
		Model:        strPtr("Z400"),
		Year:         intPtr(2022),
		Displacement: intPtr(399),
		Mileage:      intPtr(8000),
		Color:        strPtr("Verde"),
		City:         strPtr("Pereira"),
		Department:   strPtr("Risaralda"),
		Images:       []string{"https://img.motomar.test/a.jpg", "https://img.motomar.test/b.jpg"},
	}
}

func (f *listingFixture) countListings(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&models.Listing{}).Count(&count).Error)
	return count
}

func TestListingCreate_AppliesDefaultsAndImages(t *testing.T) {
	f := newListingFixture(t)

	view, err := f.svc.Create(f.seller.ID, validListingInput())
	require.NoError(t, err)

	assert.Equal(t, "Kawasaki Z400 como nueva", view.Title)
	assert.Equal(t, f.seller.ID, view.SellerID)
	assert.Equal(t, models.FuelGasoline, view.Fuel)
	assert.Equal(t, models.TransmissionManual, view.Transmission)
	assert.Equal(t, models.VehicleStateUsed, view.VehicleState)
	assert.Equal(t, models.ConditionGood, view.Condition)
	assert.True(t, view.Negotiable)
	assert.True(t, view.Active)
	require.NotNil(t, view.Seller)
	assert.Equal(t, f.seller.ID, view.Seller.ID)

	require.Len(t, view.Images, 2)
	assert.Equal(t, 0, view.Images[0].Position)
	assert.Equal(t, "https://img.motomar.test/a.jpg", view.Images[0].URL)
	assert.Equal(t, "Kawasaki Z400 - Imagen 2", view.Images[1].Alt)
	require.NotNil(t, view.PrimaryImage)
	assert.Equal(t, "https://img.motomar.test/a.jpg", *view.PrimaryImage)

	f.events.AssertCalled(t, "Publish", SubjectListingCreated, mock.Anything)
}

func TestListingCreate_Validation(t *testing.T) {
	nextYear := time.Now().Year() + 1
	tests := []struct {
		name   string
		mutate func(in *ListingInput)
		field  string
	}{
		{"year before 1950", func(in *ListingInput) { in.Year = intPtr(1949) }, "year"},
		{"year after next year", func(in *ListingInput) { in.Year = intPtr(nextYear + 1) }, "year"},
		{"zero price", func(in *ListingInput) { in.Price = floatPtr(0) }, "price"},
		{"displacement over 5000", func(in *ListingInput) { in.Displacement = intPtr(5001) }, "displacement"},
		{"zero displacement", func(in *ListingInput) { in.Displacement = intPtr(0) }, "displacement"},
		{"negative mileage", func(in *ListingInput) { in.Mileage = intPtr(-1) }, "mileage"},
		{"missing title", func(in *ListingInput) { in.Title = nil }, "title"},
		{"blank city", func(in *ListingInput) { in.City = strPtr("   ") }, "city"},
		{"unknown fuel", func(in *ListingInput) { in.Fuel = strPtr("DIESEL") }, "fuel"},
		{"unknown brakes", func(in *ListingInput) { in.Brakes = strPtr("MAGIC") }, "brakes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newListingFixture(t)
			in := validListingInput()
			tt.mutate(&in)

			_, err := f.svc.Create(f.seller.ID, in)
			appErr := requireAppError(t, err, http.StatusBadRequest, utils.CodeValidation)
			assert.Equal(t, []string{tt.field}, fieldNames(appErr))
			assert.Zero(t, f.countListings(t), "nothing is persisted")
		})
	}
}

func TestListingCreate_AcceptsBoundaryYears(t *testing.T) {
	f := newListingFixture(t)
	for _, year := range []int{1950, time.Now().Year() + 1} {
		in := validListingInput()
		in.Year = intPtr(year)
		_, err := f.svc.Create(f.seller.ID, in)
		require.NoError(t, err, "year %d", year)
	}
}

func TestListingGetByID_CountsViewsFromOthersOnly(t *testing.T) {
	f := newListingFixture(t)
	listing := testutil.CreateListing(t, f.db, f.seller.ID)

	detail, err := f.svc.GetByID(listing.ID, f.buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, detail.Listing.Views)
	assert.True(t, detail.SellerVerified)

	_, err = f.svc.GetByID(listing.ID, "")
	require.NoError(t, err)

	ownerView, err := f.svc.GetByID(listing.ID, f.seller.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, ownerView.Listing.Views)

	var stored models.Listing
	require.NoError(t, f.db.First(&stored, "id = ?", listing.ID).Error)
	assert.Equal(t, 2, stored.Views)
}

func TestListingGetByID_FavoriteStateAndSimilar(t *testing.T) {
	f := newListingFixture(t)
	listing := testutil.CreateListing(t, f.db, f.seller.ID)
	similar := testutil.CreateListing(t, f.db, f.seller.ID)
	require.NoError(t, f.db.Create(&models.Favorite{ID: "fav-1", AccountID: f.buyer.ID, ListingID: listing.ID}).Error)

	detail, err := f.svc.GetByID(listing.ID, f.buyer.ID)
	require.NoError(t, err)
	assert.True(t, detail.Listing.IsFavorite)
	assert.Equal(t, int64(1), detail.Listing.FavoritesCount)
	require.Len(t, detail.Similar, 1)
	assert.Equal(t, similar.ID, detail.Similar[0].ID)

	anonymous, err := f.svc.GetByID(listing.ID, "")
	require.NoError(t, err)
	assert.False(t, anonymous.Listing.IsFavorite)
}

func TestListingGetByID_MissingOrInactive(t *testing.T) {
	f := newListingFixture(t)
	inactive := testutil.CreateListing(t, f.db, f.seller.ID, func(l *models.Listing) { l.Active = false })

	_, err := f.svc.GetByID("does-not-exist", f.buyer.ID)
	requireAppError(t, err, http.StatusNotFound, utils.CodeNotFound)

	_, err = f.svc.GetByID(inactive.ID, f.buyer.ID)
	requireAppError(t, err, http.StatusNotFound, utils.CodeNotFound)
}

func TestListingList_PaginationAndFavorites(t *testing.T) {
	f := newListingFixture(t)
	var ids []string
	for i := 0; i < 3; i++ {
		created := time.Now().Add(time.Duration(i) * time.Minute)
		l := testutil.CreateListing(t, f.db, f.seller.ID, func(l *models.Listing) { l.CreatedAt = created })
		ids = append(ids, l.ID)
	}
	require.NoError(t, f.db.Create(&models.Favorite{ID: "fav-1", AccountID: f.buyer.ID, ListingID: ids[2]}).Error)

	q, err := ParseListingQuery(url.Values{"limit": {"2"}})
	require.NoError(t, err)

	page, err := f.svc.List(q, f.buyer.ID)
	require.NoError(t, err)

	assert.Equal(t, utils.Pagination{Page: 1, Limit: 2, Total: 3, TotalPages: 2, HasNextPage: true}, page.Pagination)
	require.Len(t, page.Items, 2)
	assert.Equal(t, ids[2], page.Items[0].ID, "newest first")
	assert.True(t, page.Items[0].IsFavorite)
	assert.Equal(t, int64(1), page.Items[0].FavoritesCount)
	assert.False(t, page.Items[1].IsFavorite)
	assert.Equal(t, AppliedSort{OrderBy: "created_at", Order: "desc"}, page.Sort)
}

func TestListingUpdate(t *testing.T) {
	f := newListingFixture(t)
	listing := testutil.CreateListing(t, f.db, f.seller.ID)

	t.Run("owner merges provided fields", func(t *testing.T) {
		view, err := f.svc.Update(listing.ID, f.seller.ID, ListingInput{
			Price:      floatPtr(39000000),
			Negotiable: boolPtr(false),
			Condition:  strPtr("excellent"),
			Sold:       boolPtr(true),
		})
		require.NoError(t, err)
		assert.Equal(t, 39000000.0, view.Price)
		assert.False(t, view.Negotiable)
		assert.Equal(t, models.ConditionExcellent, view.Condition)
		assert.True(t, view.Sold)
		assert.Equal(t, listing.Title, view.Title, "untouched fields are kept")
		assert.Equal(t, f.seller.ID, view.SellerID)
		f.events.AssertCalled(t, "Publish", SubjectListingUpdated, mock.Anything)
	})

	t.Run("non owner is forbidden", func(t *testing.T) {
		_, err := f.svc.Update(listing.ID, f.buyer.ID, ListingInput{Price: floatPtr(1)})
		requireAppError(t, err, http.StatusForbidden, utils.CodeForbidden)
	})

	t.Run("missing listing", func(t *testing.T) {
		_, err := f.svc.Update("nope", f.seller.ID, ListingInput{})
		requireAppError(t, err, http.StatusNotFound, utils.CodeNotFound)
	})

	t.Run("range rules apply", func(t *testing.T) {
		_, err := f.svc.Update(listing.ID, f.seller.ID, ListingInput{Year: intPtr(1900)})
		requireAppError(t, err, http.StatusBadRequest, utils.CodeValidation)

		var stored models.Listing
		require.NoError(t, f.db.First(&stored, "id = ?", listing.ID).Error)
		assert.Equal(t, listing.Year, stored.Year)
	})
}

func TestListingSoftDelete_HiddenFromSearchKeptInHistory(t *testing.T) {
	f := newListingFixture(t)
	listing := testutil.CreateListing(t, f.db, f.seller.ID)

	err := f.svc.SoftDelete(listing.ID, f.buyer.ID)
	requireAppError(t, err, http.StatusForbidden, utils.CodeForbidden)

	require.NoError(t, f.svc.SoftDelete(listing.ID, f.seller.ID))
	f.events.AssertCalled(t, "Publish", SubjectListingDeleted, mock.Anything)

	q, err := ParseListingQuery(url.Values{})
	require.NoError(t, err)
	page, err := f.svc.List(q, "")
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	mine, err := f.svc.MyListings(f.seller.ID, "all")
	require.NoError(t, err)
	require.Len(t, mine.Items, 1)
	assert.False(t, mine.Items[0].Active)
	assert.Equal(t, int64(1), mine.Stats.Inactive)

	inactive, err := f.svc.MyListings(f.seller.ID, "inactive")
	require.NoError(t, err)
	assert.Len(t, inactive.Items, 1)

	_, err = f.svc.MyListings(f.seller.ID, "archived")
	requireAppError(t, err, http.StatusBadRequest, utils.CodeValidation)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func TestListingAddImages(t *testing.T) {
	f := newListingFixture(t)
	listing := testutil.CreateListing(t, f.db, f.seller.ID)
	data := pngBytes(t)
	upload := ImageUpload{FileName: "front.PNG", Size: int64(len(data)), Data: data}

	images, err := f.svc.AddImages(context.Background(), listing.ID, f.seller.ID, []ImageUpload{upload, upload})
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, 0, images[0].Position)
	assert.Equal(t, 1, images[1].Position)
	assert.Contains(t, images[0].ObjectKey, "listings/"+listing.ID+"/")
	assert.Equal(t, 2, f.storage.count())

	var stored models.Listing
	require.NoError(t, f.db.First(&stored, "id = ?", listing.ID).Error)
	require.NotNil(t, stored.PrimaryImage)
	assert.Equal(t, images[0].URL, *stored.PrimaryImage)
}

func TestListingAddImages_Rejections(t *testing.T) {
	data := []byte("GIF89a fake gif payload")
	tests := []struct {
		name   string
		files  []ImageUpload
		status int
		code   string
	}{
		{"no files", nil, http.StatusBadRequest, utils.CodeValidation},
		{"too many files", make([]ImageUpload, 6), http.StatusBadRequest, utils.CodeValidation},
		{"too large", []ImageUpload{{FileName: "a.jpg", Size: 11 * 1024 * 1024}}, http.StatusRequestEntityTooLarge, utils.CodePayloadTooLarge},
		{"wrong extension", []ImageUpload{{FileName: "a.gif", Size: int64(len(data)), Data: data}}, http.StatusUnsupportedMediaType, utils.CodeUnsupportedMedia},
		{"content does not match", []ImageUpload{{FileName: "a.png", Size: int64(len(data)), Data: data}}, http.StatusUnsupportedMediaType, utils.CodeUnsupportedMedia},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newListingFixture(t)
			listing := testutil.CreateListing(t, f.db, f.seller.ID)

			_, err := f.svc.AddImages(context.Background(), listing.ID, f.seller.ID, tt.files)
			requireAppError(t, err, tt.status, tt.code)
			assert.Zero(t, f.storage.count())
		})
	}
}

func TestListingAddImages_RemovesUploadedObjectsOnFailure(t *testing.T) {
	f := newListingFixture(t)
	listing := testutil.CreateListing(t, f.db, f.seller.ID)
	data := pngBytes(t)
	upload := ImageUpload{FileName: "a.png", Size: int64(len(data)), Data: data}
	f.storage.failAt = 3

	_, err := f.svc.AddImages(context.Background(), listing.ID, f.seller.ID, []ImageUpload{upload, upload, upload})
	require.Error(t, err)

	assert.Zero(t, f.storage.count())
	assert.Len(t, f.storage.removed, 2)

	var images int64
	require.NoError(t, f.db.Model(&models.ListingImage{}).Where("listing_id = ?", listing.ID).Count(&images).Error)
	assert.Zero(t, images)
}

func TestListingAddImages_OwnerAndStorageChecks(t *testing.T) {
	f := newListingFixture(t)
	listing := testutil.CreateListing(t, f.db, f.seller.ID)
	data := pngBytes(t)
	files := []ImageUpload{{FileName: "a.png", Size: int64(len(data)), Data: data}}

	_, err := f.svc.AddImages(context.Background(), listing.ID, f.buyer.ID, files)
	requireAppError(t, err, http.StatusForbidden, utils.CodeForbidden)

	f.svc.storage = nil
	_, err = f.svc.AddImages(context.Background(), listing.ID, f.seller.ID, files)
	requireAppError(t, err, http.StatusServiceUnavailable, utils.CodeStorageUnavailable)
}
