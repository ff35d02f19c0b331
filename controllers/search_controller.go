package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"motomar-api/services"
	"motomar-api/utils"
)

// SearchController serves the facet lists used to build search filters.
type SearchController struct {
	facetService *services.FacetService
}

func NewSearchController(facetService *services.FacetService) *SearchController {
	return &SearchController{facetService: facetService}
}

func (sc *SearchController) GetBrands(c *gin.Context) {
	brands, err := sc.facetService.Brands()
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"brands": brands})
}

func (sc *SearchController) GetModels(c *gin.Context) {
	brand := c.Param("marca")
	models, err := sc.facetService.Models(brand)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"brand": brand, "models": models})
}

func (sc *SearchController) GetLocations(c *gin.Context) {
	locations, err := sc.facetService.Locations()
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, locations)
}

func (sc *SearchController) GetStats(c *gin.Context) {
	stats, err := sc.facetService.Stats()
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
