package repositories

import (
	"gorm.io/gorm"

	"motomar-api/models"
)

type BrandCount struct {
	Brand string `json:"brand"`
	Count int64  `json:"count"`
}

type ModelCount struct {
	Model string `json:"model"`
	Count int64  `json:"count"`
}

type DepartmentCount struct {
	Department string `json:"department"`
	Count      int64  `json:"count"`
}

type CityCount struct {
	City       string `json:"city"`
	Department string `json:"department"`
	Count      int64  `json:"count"`
}

// FacetRepository aggregates over active, unsold listings.
type FacetRepository struct {
	db *gorm.DB
}

func NewFacetRepository(db *gorm.DB) *FacetRepository {
	return &FacetRepository{db: db}
}

func (r *FacetRepository) available() *gorm.DB {
	return r.db.Model(&models.Listing{}).Where("active = ? AND sold = ?", true, false)
}

// Brands orders by count descending; limit <= 0 means no limit.
func (r *FacetRepository) Brands(limit int) ([]BrandCount, error) {
	rows := make([]BrandCount, 0)
	query := r.available().
		Select("brand, COUNT(*) AS count").
		Group("brand").
		Order("count DESC").
		Order("brand ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Scan(&rows).Error
	return rows, err
}

func (r *FacetRepository) Models(brand string) ([]ModelCount, error) {
	rows := make([]ModelCount, 0)
	err := r.available().
		Where("LOWER(brand) = LOWER(?)", brand).
		Select("model, COUNT(*) AS count").
		Group("model").
		Order("model ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *FacetRepository) Departments() ([]DepartmentCount, error) {
	rows := make([]DepartmentCount, 0)
	err := r.available().
		Select("department, COUNT(*) AS count").
		Group("department").
		Order("department ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *FacetRepository) Cities() ([]CityCount, error) {
	rows := make([]CityCount, 0)
	err := r.available().
		Select("city, department, COUNT(*) AS count").
		Group("city, department").
		Order("city ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *FacetRepository) CountAvailable() (int64, error) {
	var count int64
	err := r.available().Count(&count).Error
	return count, err
}

func (r *FacetRepository) CountSold() (int64, error) {
	var count int64
	err := r.db.Model(&models.Listing{}).Where("sold = ?", true).Count(&count).Error
	return count, err
}

func (r *FacetRepository) AveragePrice() (float64, error) {
	var avg float64
	err := r.available().Select("COALESCE(AVG(price), 0)").Scan(&avg).Error
	return avg, err
}
