package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"motomar-api/logger"
	"motomar-api/models"
	"motomar-api/repositories"
	"motomar-api/utils"
)

const (
	minListingYear      = 1950
	maxDisplacement     = 5000
	similarListingLimit = 6
	verifiedSellerScore = 4.0
)

// ListingInput carries listing attributes. On create the required fields must
// be present; on update only non-nil fields are applied.
type ListingInput struct {
	Title               *string  `json:"title"`
	Description         *string  `json:"description"`
	Price               *float64 `json:"price"`
	Negotiable          *bool    `json:"negotiable"`
	Brand               *string  `json:"brand"`
	Model               *string  `json:"model"`
	Year                *int     `json:"year"`
	Displacement        *int     `json:"displacement"`
	Mileage             *int     `json:"mileage"`
	Color               *string  `json:"color"`
	Fuel                *string  `json:"fuel"`
	Transmission        *string  `json:"transmission"`
	VehicleState        *string  `json:"vehicle_state"`
	Condition           *string  `json:"condition"`
	Brakes              *string  `json:"brakes"`
	Tires               *string  `json:"tires"`
	Maintenance         *string  `json:"maintenance"`
	Accessories         *string  `json:"accessories"`
	SOATValid           *bool    `json:"soat_valid"`
	TechInspectionValid *bool    `json:"tech_inspection_valid"`
	PapersInOrder       *bool    `json:"papers_in_order"`
	City                *string  `json:"city"`
	Department          *string  `json:"department"`
	Neighborhood        *string  `json:"neighborhood"`

	// Update only.
	Sold *bool `json:"sold"`

	// Create only: URLs of already hosted images, in display order.
	Images []string `json:"images"`
}

type ListingDetail struct {
	Listing        models.ListingView   `json:"listing"`
	Similar        []models.ListingView `json:"similar"`
	SellerVerified bool                 `json:"seller_verified"`
}

type AppliedSort struct {
	OrderBy string `json:"order_by"`
	Order   string `json:"order"`
}

type ListingPage struct {
	Items      []models.ListingView        `json:"items"`
	Pagination utils.Pagination            `json:"pagination"`
	Filters    repositories.ListingFilters `json:"filters"`
	Sort       AppliedSort                 `json:"sort"`
}

type MyListings struct {
	Items []models.ListingView             `json:"items"`
	Stats *repositories.SellerListingStats `json:"stats"`
}

// ImageUpload is one file received for a listing.
type ImageUpload struct {
	FileName string
	Size     int64
	Data     []byte
}

type ImageLimits struct {
	MaxFiles    int
	MaxFileSize int64
}

type ListingService struct {
	listings  *repositories.ListingRepository
	favorites *repositories.FavoriteRepository
	storage   ImageStorage
	events    EventPublisher
	limits    ImageLimits
	async     func(func())
	now       func() time.Time
}

// NewListingService wires the listing store. storage may be nil, in which case
// image upload reports the storage as unavailable.
func NewListingService(listings *repositories.ListingRepository, favorites *repositories.FavoriteRepository, storage ImageStorage, events EventPublisher, limits ImageLimits) *ListingService {
	if events == nil {
		events = NoopPublisher{}
	}
	return &ListingService{
		listings:  listings,
		favorites: favorites,
		storage:   storage,
		events:    events,
		limits:    limits,
		async:     runAsync,
		now:       time.Now,
	}
}

func (s *ListingService) Create(ownerID string, input ListingInput) (*models.ListingView, error) {
	listing := &models.Listing{
		ID:           uuid.New().String(),
		SellerID:     ownerID,
		Negotiable:   true,
		Fuel:         models.FuelGasoline,
		Transmission: models.TransmissionManual,
		VehicleState: models.VehicleStateUsed,
		Condition:    models.ConditionGood,
		Active:       true,
	}

	_, errs := applyListingInput(listing, input)
	errs = append(errs, s.validateListing(listing)...)
	if len(errs) > 0 {
		return nil, utils.NewValidationError("Listing data is invalid", errs...)
	}

	images := make([]models.ListingImage, 0, len(input.Images))
	for i, url := range input.Images {
		url = strings.TrimSpace(url)
		if url == "" {
			continue
		}
		images = append(images, models.ListingImage{
			ID:        uuid.New().String(),
			ListingID: listing.ID,
			URL:       url,
			Alt:       fmt.Sprintf("%s %s - Imagen %d", listing.Brand, listing.Model, i+1),
			Position:  len(images),
		})
	}
	if len(images) > 0 {
		listing.PrimaryImage = &images[0].URL
	}

	if err := s.listings.CreateWithImages(listing, images); err != nil {
		return nil, fmt.Errorf("create listing: %w", err)
	}

	created, err := s.listings.FindByID(listing.ID)
	if err != nil {
		return nil, fmt.Errorf("reload listing: %w", err)
	}

	s.publish(SubjectListingCreated, ListingEvent{ListingID: created.ID, SellerID: ownerID, OccurredAt: s.now()})
	logger.Log.Infow("listing created", "listing_id", created.ID, "seller_id", ownerID)

	view := models.NewListingView(created)
	return &view, nil
}

// GetByID returns an active listing. Every view by someone other than the
// seller adds exactly one to its view count.
func (s *ListingService) GetByID(id, viewerID string) (*ListingDetail, error) {
	listing, err := s.findActive(id)
	if err != nil {
		return nil, err
	}

	if viewerID != listing.SellerID {
		if err := s.listings.IncrementViews(listing.ID); err != nil {
			return nil, fmt.Errorf("increment views: %w", err)
		}
		listing.Views++
	}

	view := models.NewListingView(listing)
	if view.FavoritesCount, err = s.favorites.Count(listing.ID); err != nil {
		return nil, fmt.Errorf("count favorites: %w", err)
	}
	if viewerID != "" {
		set, err := s.favorites.FavoritedSet(viewerID, []string{listing.ID})
		if err != nil {
			return nil, fmt.Errorf("favorite lookup: %w", err)
		}
		view.IsFavorite = set[listing.ID]
	}

	similar, err := s.listings.Similar(listing, similarListingLimit)
	if err != nil {
		return nil, fmt.Errorf("similar listings: %w", err)
	}
	similarViews := make([]models.ListingView, 0, len(similar))
	for i := range similar {
		similarViews = append(similarViews, models.NewListingView(&similar[i]))
	}

	return &ListingDetail{
		Listing:        view,
		Similar:        similarViews,
		SellerVerified: listing.Seller != nil && listing.Seller.Rating >= verifiedSellerScore,
	}, nil
}

// List searches active, unsold listings. viewerID may be empty.
func (s *ListingService) List(q repositories.ListingQuery, viewerID string) (*ListingPage, error) {
	listings, total, err := s.listings.Search(q)
	if err != nil {
		return nil, fmt.Errorf("search listings: %w", err)
	}

	items, err := s.decorate(listings, viewerID)
	if err != nil {
		return nil, err
	}

	return &ListingPage{
		Items:      items,
		Pagination: utils.NewPagination(q.Page, q.Limit, total),
		Filters:    q.Filters,
		Sort:       AppliedSort{OrderBy: q.Sort.Field, Order: q.Sort.Direction()},
	}, nil
}

// decorate attaches seller summaries, favorite counts and the viewer's
// favorite flags using one query for each.
func (s *ListingService) decorate(listings []models.Listing, viewerID string) ([]models.ListingView, error) {
	ids := make([]string, 0, len(listings))
	for _, l := range listings {
		ids = append(ids, l.ID)
	}

	counts, err := s.listings.FavoriteCounts(ids)
	if err != nil {
		return nil, fmt.Errorf("favorite counts: %w", err)
	}
	favorited, err := s.favorites.FavoritedSet(viewerID, ids)
	if err != nil {
		return nil, fmt.Errorf("favorite lookup: %w", err)
	}

	views := make([]models.ListingView, 0, len(listings))
	for i := range listings {
		view := models.NewListingView(&listings[i])
		view.FavoritesCount = counts[listings[i].ID]
		view.IsFavorite = favorited[listings[i].ID]
		views = append(views, view)
	}
	return views, nil
}

func (s *ListingService) Update(id, ownerID string, input ListingInput) (*models.ListingView, error) {
	listing, err := s.findOwned(id, ownerID)
	if err != nil {
		return nil, err
	}

	changes, errs := applyListingInput(listing, input)
	if input.Sold != nil {
		listing.Sold = *input.Sold
		changes["sold"] = listing.Sold
	}
	errs = append(errs, s.validateListing(listing)...)
	if len(errs) > 0 {
		return nil, utils.NewValidationError("Listing data is invalid", errs...)
	}

	if len(changes) > 0 {
		if err := s.listings.Update(listing.ID, changes); err != nil {
			return nil, fmt.Errorf("update listing: %w", err)
		}
	}

	updated, err := s.listings.FindByID(listing.ID)
	if err != nil {
		return nil, fmt.Errorf("reload listing: %w", err)
	}

	s.publish(SubjectListingUpdated, ListingEvent{ListingID: id, SellerID: ownerID, OccurredAt: s.now()})

	view := models.NewListingView(updated)
	return &view, nil
}

// SoftDelete hides the listing from public search; it stays in the seller's history.
func (s *ListingService) SoftDelete(id, ownerID string) error {
	listing, err := s.findOwned(id, ownerID)
	if err != nil {
		return err
	}

	if err := s.listings.Deactivate(listing.ID); err != nil {
		return fmt.Errorf("deactivate listing: %w", err)
	}

	s.publish(SubjectListingDeleted, ListingEvent{ListingID: id, SellerID: ownerID, OccurredAt: s.now()})
	logger.Log.Infow("listing deactivated", "listing_id", id, "seller_id", ownerID)
	return nil
}

func (s *ListingService) MyListings(ownerID, status string) (*MyListings, error) {
	switch status {
	case "":
		status = repositories.StatusAll
	case repositories.StatusAll, repositories.StatusActive, repositories.StatusSold, repositories.StatusInactive:
	default:
		return nil, utils.NewValidationError("Invalid status filter",
			utils.FieldError{Field: "status", Message: "must be one of all, active, sold, inactive"})
	}

	listings, err := s.listings.FindBySeller(ownerID, status)
	if err != nil {
		return nil, fmt.Errorf("seller listings: %w", err)
	}

	items, err := s.decorate(listings, ownerID)
	if err != nil {
		return nil, err
	}

	stats, err := s.listings.SellerStats(ownerID)
	if err != nil {
		return nil, fmt.Errorf("seller stats: %w", err)
	}

	return &MyListings{Items: items, Stats: stats}, nil
}

var allowedImageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// AddImages uploads files to object storage and attaches them to the listing.
// Objects already uploaded are removed again if a later step fails.
func (s *ListingService) AddImages(ctx context.Context, id, ownerID string, files []ImageUpload) ([]models.ListingImage, error) {
	listing, err := s.findOwned(id, ownerID)
	if err != nil {
		return nil, err
	}
	if s.storage == nil {
		return nil, utils.NewAppError(http.StatusServiceUnavailable, utils.CodeStorageUnavailable, "Image storage is not available")
	}

	contentTypes, err := s.validateImages(files)
	if err != nil {
		return nil, err
	}

	var uploaded []StoredObject
	cleanup := func() {
		for _, obj := range uploaded {
			if err := s.storage.Remove(context.Background(), obj.Key); err != nil {
				logger.Log.Warnw("failed to remove orphaned image", "key", obj.Key, "error", err)
			}
		}
	}

	images := make([]models.ListingImage, 0, len(files))
	for i, f := range files {
		obj, err := s.storage.Upload(ctx, "listings/"+listing.ID, f.FileName, contentTypes[i], f.Data)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("upload image %q: %w", f.FileName, err)
		}
		uploaded = append(uploaded, obj)
		images = append(images, models.ListingImage{
			ID:        uuid.New().String(),
			URL:       obj.URL,
			ObjectKey: obj.Key,
			Alt:       fmt.Sprintf("%s %s", listing.Brand, listing.Model),
		})
	}

	stored, err := s.listings.AppendImages(listing, images)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("attach images: %w", err)
	}

	s.publish(SubjectListingUpdated, ListingEvent{ListingID: id, SellerID: ownerID, OccurredAt: s.now()})
	logger.Log.Infow("listing images added", "listing_id", id, "count", len(stored))
	return stored, nil
}

func (s *ListingService) validateImages(files []ImageUpload) ([]string, error) {
	if len(files) == 0 {
		return nil, utils.NewValidationError("No images received",
			utils.FieldError{Field: "images", Message: "at least one image is required"})
	}
	if s.limits.MaxFiles > 0 && len(files) > s.limits.MaxFiles {
		return nil, utils.NewValidationError("Too many images",
			utils.FieldError{Field: "images", Message: fmt.Sprintf("at most %d images per request", s.limits.MaxFiles)})
	}

	contentTypes := make([]string, len(files))
	for i, f := range files {
		if s.limits.MaxFileSize > 0 && f.Size > s.limits.MaxFileSize {
			return nil, utils.NewAppError(http.StatusRequestEntityTooLarge, utils.CodePayloadTooLarge,
				fmt.Sprintf("%s exceeds the maximum size of %d MB", f.FileName, s.limits.MaxFileSize/(1024*1024)))
		}

		want, ok := allowedImageTypes[strings.ToLower(filepath.Ext(f.FileName))]
		if !ok || http.DetectContentType(f.Data) != want {
			return nil, utils.NewAppError(http.StatusUnsupportedMediaType, utils.CodeUnsupportedMedia,
				fmt.Sprintf("%s is not a JPG, PNG or WEBP image", f.FileName))
		}
		contentTypes[i] = want
	}
	return contentTypes, nil
}

func (s *ListingService) findActive(id string) (*models.Listing, error) {
	listing, err := s.listings.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !listing.Active) {
		return nil, utils.NewNotFound("Listing not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find listing: %w", err)
	}
	return listing, nil
}

func (s *ListingService) findOwned(id, ownerID string) (*models.Listing, error) {
	listing, err := s.listings.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NewNotFound("Listing not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find listing: %w", err)
	}
	if listing.SellerID != ownerID {
		return nil, utils.NewForbidden(utils.CodeForbidden, "You can only modify your own listings")
	}
	return listing, nil
}

func (s *ListingService) publish(subject string, event interface{}) {
	s.async(func() { publishEvent(s.events, subject, event) })
}

func (s *ListingService) validateListing(l *models.Listing) []utils.FieldError {
	var errs []utils.FieldError
	add := func(field, message string) {
		errs = append(errs, utils.FieldError{Field: field, Message: message})
	}

	required := []struct{ field, value string }{
		{"title", l.Title},
		{"description", l.Description},
		{"brand", l.Brand},
		{"model", l.Model},
		{"color", l.Color},
		{"city", l.City},
		{"department", l.Department},
	}
	for _, r := range required {
		if r.value == "" {
			add(r.field, "is required")
		}
	}

	maxYear := s.now().Year() + 1
	if l.Year < minListingYear || l.Year > maxYear {
		add("year", fmt.Sprintf("must be between %d and %d", minListingYear, maxYear))
	}
	if l.Price <= 0 {
		add("price", "must be greater than 0")
	}
	if l.Displacement <= 0 || l.Displacement > maxDisplacement {
		add("displacement", fmt.Sprintf("must be greater than 0 and at most %d", maxDisplacement))
	}
	if l.Mileage < 0 {
		add("mileage", "must not be negative")
	}
	return errs
}

// applyListingInput copies the non-nil fields of in onto l and returns the
// changed columns.
func applyListingInput(l *models.Listing, in ListingInput) (map[string]interface{}, []utils.FieldError) {
	changes := map[string]interface{}{}
	var errs []utils.FieldError

	setText := func(column string, dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
			changes[column] = *dst
		}
	}
	setText("title", &l.Title, in.Title)
	setText("description", &l.Description, in.Description)
	setText("brand", &l.Brand, in.Brand)
	setText("model", &l.Model, in.Model)
	setText("color", &l.Color, in.Color)
	setText("maintenance", &l.Maintenance, in.Maintenance)
	setText("accessories", &l.Accessories, in.Accessories)
	setText("city", &l.City, in.City)
	setText("department", &l.Department, in.Department)
	setText("neighborhood", &l.Neighborhood, in.Neighborhood)

	setBool := func(column string, dst *bool, src *bool) {
		if src != nil {
			*dst = *src
			changes[column] = *src
		}
	}
	setBool("negotiable", &l.Negotiable, in.Negotiable)
	setBool("soat_valid", &l.SOATValid, in.SOATValid)
	setBool("tech_inspection_valid", &l.TechInspectionValid, in.TechInspectionValid)
	setBool("papers_in_order", &l.PapersInOrder, in.PapersInOrder)

	setInt := func(column string, dst *int, src *int) {
		if src != nil {
			*dst = *src
			changes[column] = *src
		}
	}
	setInt("year", &l.Year, in.Year)
	setInt("displacement", &l.Displacement, in.Displacement)
	setInt("mileage", &l.Mileage, in.Mileage)

	if in.Price != nil {
		l.Price = *in.Price
		changes["price"] = l.Price
	}

	enumError := func(field, allowed string) {
		errs = append(errs, utils.FieldError{Field: field, Message: "must be one of " + allowed})
	}
	if in.Fuel != nil {
		if v := models.FuelType(models.NormalizeEnum(*in.Fuel)); v.Valid() {
			l.Fuel = v
			changes["fuel"] = v
		} else {
			enumError("fuel", "GASOLINE, ELECTRIC, HYBRID")
		}
	}
	if in.Transmission != nil {
		if v := models.Transmission(models.NormalizeEnum(*in.Transmission)); v.Valid() {
			l.Transmission = v
			changes["transmission"] = v
		} else {
			enumError("transmission", "MANUAL, AUTOMATIC, SEMI_AUTOMATIC")
		}
	}
	if in.VehicleState != nil {
		if v := models.VehicleState(models.NormalizeEnum(*in.VehicleState)); v.Valid() {
			l.VehicleState = v
			changes["vehicle_state"] = v
		} else {
			enumError("vehicle_state", "NEW, USED, FOR_PARTS")
		}
	}
	if in.Condition != nil {
		if v := models.Condition(models.NormalizeEnum(*in.Condition)); v.Valid() {
			l.Condition = v
			changes["condition"] = v
		} else {
			enumError("condition", "EXCELLENT, VERY_GOOD, GOOD, FAIR, NEEDS_REPAIR")
		}
	}
	if in.Brakes != nil {
		if v := models.Brakes(models.NormalizeEnum(*in.Brakes)); v.Valid() {
			l.Brakes = &v
			changes["brakes"] = v
		} else {
			enumError("brakes", "DISC, DRUM, MIXED, ABS, CBS")
		}
	}
	if in.Tires != nil {
		if v := models.Tires(models.NormalizeEnum(*in.Tires)); v.Valid() {
			l.Tires = &v
			changes["tires"] = v
		} else {
			enumError("tires", "NEW, GOOD, FAIR, NEED_REPLACEMENT")
		}
	}

	return changes, errs
}
