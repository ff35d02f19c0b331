package repositories

import (
	"gorm.io/gorm"

	"motomar-api/models"
)

// Listing statuses accepted by FindBySeller.
const (
	StatusAll      = "all"
	StatusActive   = "active"
	StatusSold     = "sold"
	StatusInactive = "inactive"
)

type ListingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

func primaryImageOnly(db *gorm.DB) *gorm.DB {
	return db.Where("position = ?", 0)
}

func imagesByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// CreateWithImages inserts the listing and its images atomically.
func (r *ListingRepository) CreateWithImages(listing *models.Listing, images []models.ListingImage) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Images", "Seller").Create(listing).Error; err != nil {
			return err
		}
		if len(images) > 0 {
			if err := tx.Create(&images).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FindByID loads a listing with its seller and all images regardless of its
// active flag. Returns gorm.ErrRecordNotFound when absent.
func (r *ListingRepository) FindByID(id string) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.Preload("Seller").
		Preload("Images", imagesByPosition).
		Where("id = ?", id).
		First(&listing).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *ListingRepository) IncrementViews(id string) error {
	return r.db.Model(&models.Listing{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
}

func (r *ListingRepository) publicScope() *gorm.DB {
	return r.db.Model(&models.Listing{}).Where("listings.active = ? AND listings.sold = ?", true, false)
}

// Search returns one page of active, unsold listings matching q and the total
// number of matches.
func (r *ListingRepository) Search(q ListingQuery) ([]models.Listing, int64, error) {
	var total int64
	if err := ApplyListingFilters(r.publicScope(), q.Filters).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := SortColumn(q.Sort.Field)
	if !ok {
		column = "created_at"
	}

	var listings []models.Listing
	err := ApplyListingFilters(r.publicScope(), q.Filters).
		Preload("Seller").
		Preload("Images", primaryImageOnly).
		Order("listings." + column + " " + q.Sort.Direction()).
		Order("listings.id ASC").
		Offset(q.Offset()).
		Limit(q.Limit).
		Find(&listings).Error
	if err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}

// Similar finds up to limit other active listings sharing the brand, the
// department or the displacement, or priced within 20% of l.
func (r *ListingRepository) Similar(l *models.Listing, limit int) ([]models.Listing, error) {
	var listings []models.Listing
	err := r.publicScope().
		Where("listings.id <> ?", l.ID).
		Where(
			"LOWER(listings.brand) = LOWER(?) OR (listings.price BETWEEN ? AND ?) OR listings.displacement = ? OR listings.department = ?",
			l.Brand, l.Price*0.8, l.Price*1.2, l.Displacement, l.Department,
		).
		Preload("Seller").
		Preload("Images", primaryImageOnly).
		Order("listings.created_at DESC").
		Limit(limit).
		Find(&listings).Error
	return listings, err
}

// Update writes the given columns; a map is used so false and zero values persist.
func (r *ListingRepository) Update(id string, fields map[string]interface{}) error {
	return r.db.Model(&models.Listing{}).Where("id = ?", id).Updates(fields).Error
}

func (r *ListingRepository) Deactivate(id string) error {
	return r.db.Model(&models.Listing{}).Where("id = ?", id).Update("active", false).Error
}

// FindBySeller returns the seller's listings in any state, newest first.
func (r *ListingRepository) FindBySeller(sellerID, status string) ([]models.Listing, error) {
	query := r.db.Where("seller_id = ?", sellerID)
	switch status {
	case StatusActive:
		query = query.Where("active = ? AND sold = ?", true, false)
	case StatusSold:
		query = query.Where("sold = ?", true)
	case StatusInactive:
		query = query.Where("active = ?", false)
	}

	var listings []models.Listing
	err := query.Preload("Images", primaryImageOnly).
		Order("created_at DESC").
		Find(&listings).Error
	return listings, err
}

type SellerListingStats struct {
	Total          int64 `json:"total"`
	Active         int64 `json:"active"`
	Sold           int64 `json:"sold"`
	Inactive       int64 `json:"inactive"`
	TotalViews     int64 `json:"total_views"`
	TotalFavorites int64 `json:"total_favorites"`
}

func (r *ListingRepository) SellerStats(sellerID string) (*SellerListingStats, error) {
	var stats SellerListingStats
	base := func() *gorm.DB { return r.db.Model(&models.Listing{}).Where("seller_id = ?", sellerID) }

	if err := base().Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := base().Where("active = ? AND sold = ?", true, false).Count(&stats.Active).Error; err != nil {
		return nil, err
	}
	if err := base().Where("sold = ?", true).Count(&stats.Sold).Error; err != nil {
		return nil, err
	}
	if err := base().Where("active = ?", false).Count(&stats.Inactive).Error; err != nil {
		return nil, err
	}
	if err := base().Select("COALESCE(SUM(views), 0)").Scan(&stats.TotalViews).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.Favorite{}).
		Joins("JOIN listings ON listings.id = favorites.listing_id").
		Where("listings.seller_id = ?", sellerID).
		Count(&stats.TotalFavorites).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

// FavoriteCounts returns the number of favorites per listing id; listings with
// none are absent from the map.
func (r *ListingRepository) FavoriteCounts(listingIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(listingIDs))
	if len(listingIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		ListingID string
		Total     int64
	}
	err := r.db.Model(&models.Favorite{}).
		Select("listing_id, COUNT(*) AS total").
		Where("listing_id IN ?", listingIDs).
		Group("listing_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.ListingID] = row.Total
	}
	return counts, nil
}

// AppendImages stores images after the listing's current last position and
// sets the primary image when the listing has none.
func (r *ListingRepository) AppendImages(listing *models.Listing, images []models.ListingImage) ([]models.ListingImage, error) {
	if len(images) == 0 {
		return images, nil
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var next int
		if err := tx.Model(&models.ListingImage{}).
			Select("COALESCE(MAX(position) + 1, 0)").
			Where("listing_id = ?", listing.ID).
			Scan(&next).Error; err != nil {
			return err
		}

		for i := range images {
			images[i].ListingID = listing.ID
			images[i].Position = next + i
		}
		if err := tx.Create(&images).Error; err != nil {
			return err
		}

		if listing.PrimaryImage == nil || *listing.PrimaryImage == "" {
			return tx.Model(&models.Listing{}).
				Where("id = ?", listing.ID).
				Update("primary_image", images[0].URL).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return images, nil
}
