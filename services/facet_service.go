package services

import (
	"fmt"
	"math"
	"strings"

	"motomar-api/repositories"
	"motomar-api/utils"
)

const topBrandsLimit = 5

type Locations struct {
	Departments []repositories.DepartmentCount `json:"departments"`
	Cities      []repositories.CityCount       `json:"cities"`
}

type MarketStats struct {
	Available    int64                     `json:"available"`
	Sold         int64                     `json:"sold"`
	AveragePrice int64                     `json:"average_price"`
	TopBrands    []repositories.BrandCount `json:"top_brands"`
}

// FacetService answers the aggregate queries behind the search filters.
type FacetService struct {
	facets *repositories.FacetRepository
}

func NewFacetService(facets *repositories.FacetRepository) *FacetService {
	return &FacetService{facets: facets}
}

func (s *FacetService) Brands() ([]repositories.BrandCount, error) {
	brands, err := s.facets.Brands(0)
	if err != nil {
		return nil, fmt.Errorf("brand facets: %w", err)
	}
	return brands, nil
}

func (s *FacetService) Models(brand string) ([]repositories.ModelCount, error) {
	brand = strings.TrimSpace(brand)
	if brand == "" {
		return nil, utils.NewValidationError("Brand is required", utils.FieldError{Field: "brand", Message: "is required"})
	}
	models, err := s.facets.Models(brand)
	if err != nil {
		return nil, fmt.Errorf("model facets: %w", err)
	}
	return models, nil
}

func (s *FacetService) Locations() (*Locations, error) {
	departments, err := s.facets.Departments()
	if err != nil {
		return nil, fmt.Errorf("department facets: %w", err)
	}
	cities, err := s.facets.Cities()
	if err != nil {
		return nil, fmt.Errorf("city facets: %w", err)
	}
	return &Locations{Departments: departments, Cities: cities}, nil
}

func (s *FacetService) Stats() (*MarketStats, error) {
	available, err := s.facets.CountAvailable()
	if err != nil {
		return nil, fmt.Errorf("count available: %w", err)
	}
	sold, err := s.facets.CountSold()
	if err != nil {
		return nil, fmt.Errorf("count sold: %w", err)
	}
	avg, err := s.facets.AveragePrice()
	if err != nil {
		return nil, fmt.Errorf("average price: %w", err)
	}
	top, err := s.facets.Brands(topBrandsLimit)
	if err != nil {
		return nil, fmt.Errorf("top brands: %w", err)
	}

	return &MarketStats{
		Available:    available,
		Sold:         sold,
		AveragePrice: int64(math.Round(avg)),
		TopBrands:    top,
	}, nil
}
