package client

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motomar-api/config"
	"motomar-api/routes"
	"motomar-api/services"
	"motomar-api/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type quietMailer struct{}

func (quietMailer) SendWelcomeEmail(string, string) error { return nil }

func (quietMailer) SendLoginNotice(string, string, string, time.Time) error { return nil }

type memoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (s *memoryStorage) Upload(_ context.Context, prefix, fileName, _ string, data []byte) (services.StoredObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := services.ObjectKey(prefix, fileName)
	s.objects[key] = data
	return services.StoredObject{Key: key, URL: "https://cdn.motomar.test/" + key}, nil
}

func (s *memoryStorage) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func newAPI(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := &config.Config{
		Env:                 "test",
		JWTSecret:           "client-test-secret",
		JWTIssuer:           "motomar-api",
		JWTExpiresIn:        time.Hour,
		FrontendURL:         "http://localhost:3000",
		RateLimitPerMinute:  1000,
		RateLimitBurst:      1000,
		UserRateLimitMax:    1000,
		UserRateLimitWindow: time.Minute,
		MaxUploadFileSize:   5 * 1024 * 1024,
		MaxUploadFiles:      5,
	}

	engine := gin.New()
	routes.SetupRoutes(engine, routes.Dependencies{
		DB:        testutil.NewDB(t),
		Config:    cfg,
		Mailer:    quietMailer{},
		Storage:   &memoryStorage{objects: map[string][]byte{}},
		IPLimiter: services.PerMinute(cfg.RateLimitPerMinute, cfg.RateLimitBurst),
	})

	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	return srv
}

func ptr[T any](v T) *T { return &v }

func registration(email string) RegisterRequest {
	return RegisterRequest{
		Email:        email,
		Password:     "Moto2024!",
		FirstName:    "Julián",
		LastName:     "Ospina",
		City:         "Cali",
		Department:   "Valle del Cauca",
		AcceptPolicy: true,
	}
}

func listingInput() ListingInput {
	return ListingInput{
		Title:        ptr("Suzuki GN 125 2020"),
		Description:  ptr("Única dueña, mantenimientos en concesionario"),
		Price:        ptr(5800000.0),
		Brand:        ptr("Suzuki"),
		Model:        ptr("GN 125"),
		Year:         ptr(2020),
		Displacement: ptr(125),
		Mileage:      ptr(21000),
		Color:        ptr("Negro"),
		City:         ptr("Cali"),
		Department:   ptr("Valle del Cauca"),
		SOATValid:    ptr(true),
	}
}

func pngImage(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func TestClient_RegisterLoginCreateList(t *testing.T) {
	srv := newAPI(t)
	ctx := context.Background()
	c := New(srv.URL)

	registered, err := c.Register(ctx, registration("Julian@MotoMar.com"))
	require.NoError(t, err)
	assert.Equal(t, "julian@motomar.com", registered.Account.Email)
	assert.Equal(t, "Bearer", registered.TokenType)

	session, err := c.Session()
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, registered.Token, session.Token)

	require.NoError(t, c.Logout(ctx))
	session, err = c.Session()
	require.NoError(t, err)
	assert.Nil(t, session)

	_, err = c.Me(ctx)
	assert.True(t, IsUnauthorized(err))

	login, err := c.Login(ctx, "julian@motomar.com", "Moto2024!")
	require.NoError(t, err)
	assert.Equal(t, registered.Account.ID, login.Account.ID)

	created, err := c.CreateListing(ctx, listingInput())
	require.NoError(t, err)
	assert.Equal(t, "Suzuki GN 125 2020", created.Title)
	assert.True(t, created.Active)

	page, err := c.ListListings(ctx, url.Values{"brand": {"suzuki"}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, created.ID, page.Items[0].ID)
	assert.Equal(t, int64(1), page.Pagination.Total)

	page, err = c.ListListings(ctx, url.Values{"brand": {"Honda"}})
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	profile, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), profile.Stats.ActiveListings)
}

func TestClient_ListingLifecycle(t *testing.T) {
	srv := newAPI(t)
	ctx := context.Background()

	seller := New(srv.URL)
	_, err := seller.Register(ctx, registration("seller@motomar.com"))
	require.NoError(t, err)
	listing, err := seller.CreateListing(ctx, listingInput())
	require.NoError(t, err)

	updated, err := seller.UpdateListing(ctx, listing.ID, ListingInput{Price: ptr(5500000.0), Negotiable: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, 5500000.0, updated.Price)
	assert.True(t, updated.Negotiable)
	assert.Equal(t, "Suzuki GN 125 2020", updated.Title)

	images, err := seller.UploadImages(ctx, listing.ID, []ImageFile{
		{Name: "front.png", Data: pngImage(t)},
		{Name: "side.png", Data: pngImage(t)},
	})
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, 0, images[0].Position)

	buyer := New(srv.URL)
	_, err = buyer.Register(ctx, registration("buyer@motomar.com"))
	require.NoError(t, err)

	toggled, err := buyer.ToggleFavorite(ctx, listing.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsFavorite)

	favorites, err := buyer.Favorites(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, favorites.Total)

	detail, err := buyer.GetListing(ctx, listing.ID)
	require.NoError(t, err)
	assert.True(t, detail.Listing.IsFavorite)
	assert.Len(t, detail.Listing.Images, 2)

	err = buyer.DeleteListing(ctx, listing.ID)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)

	brands, err := buyer.Brands(ctx)
	require.NoError(t, err)
	require.Len(t, brands, 1)
	assert.Equal(t, int64(1), brands[0].Count)

	stats, err := buyer.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Available)
	assert.Equal(t, int64(5500000), stats.AveragePrice)

	require.NoError(t, seller.DeleteListing(ctx, listing.ID))

	mine, err := seller.MyListings(ctx, "inactive")
	require.NoError(t, err)
	require.Len(t, mine.Items, 1)
	assert.Equal(t, int64(1), mine.Stats.Inactive)

	_, err = buyer.GetListing(ctx, listing.ID)
	assert.True(t, IsNotFound(err))
}

func TestClient_ValidationErrorDecoded(t *testing.T) {
	srv := newAPI(t)
	c := New(srv.URL)

	req := registration("weak@motomar.com")
	req.Password = "short"
	_, err := c.Register(context.Background(), req)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.NotEmpty(t, apiErr.Code)
	assert.NotEmpty(t, apiErr.Message)

	session, err := c.Session()
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestClient_UnauthorizedClearsSession(t *testing.T) {
	srv := newAPI(t)
	store := NewMemorySessionStore()
	require.NoError(t, store.Save(&Session{Token: "not-a-jwt"}))

	c := New(srv.URL, WithSessionStore(store))
	_, err := c.Me(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "INVALID_TOKEN", apiErr.Code)

	session, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestClient_SendsBearerToken(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"brands":[{"brand":"KTM","count":3}]}`))
	}))
	defer srv.Close()

	store := NewMemorySessionStore()
	require.NoError(t, store.Save(&Session{Token: "abc.def.ghi"}))
	c := New(srv.URL+"/", WithSessionStore(store), WithHTTPClient(srv.Client()))

	brands, err := c.Brands(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc.def.ghi", got)
	assert.Equal(t, []BrandCount{{Brand: "KTM", Count: 3}}, brands)
}

func TestClient_NonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Stats(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "Bad Gateway", apiErr.Code)
	assert.Equal(t, "upstream down", apiErr.Message)
}

func TestFileSessionStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "motomar", "session.json")
	store := NewFileSessionStore(path)

	session, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, session)

	require.NoError(t, store.Save(&Session{Token: "tok", Account: &Account{ID: "acc-1", Email: "a@motomar.com"}}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened := NewFileSessionStore(path)
	session, err = reopened.Load()
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "tok", session.Token)
	assert.Equal(t, "acc-1", session.Account.ID)

	require.NoError(t, reopened.Clear())
	require.NoError(t, reopened.Clear())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
