package controllers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"motomar-api/middleware"
	"motomar-api/services"
	"motomar-api/utils"
)

// multipartOverhead is the body allowance on top of the image payload.
const multipartOverhead = 1 << 20

type ListingController struct {
	listingService  *services.ListingService
	favoriteService *services.FavoriteService
	limits          services.ImageLimits
}

func NewListingController(listingService *services.ListingService, favoriteService *services.FavoriteService, limits services.ImageLimits) *ListingController {
	return &ListingController{
		listingService:  listingService,
		favoriteService: favoriteService,
		limits:          limits,
	}
}

// GetListings searches public listings; see services.ParseListingQuery for parameters.
func (lc *ListingController) GetListings(c *gin.Context) {
	query, err := services.ParseListingQuery(c.Request.URL.Query())
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	page, err := lc.listingService.List(query, middleware.AccountID(c))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (lc *ListingController) GetListing(c *gin.Context) {
	detail, err := lc.listingService.GetByID(c.Param("id"), middleware.AccountID(c))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (lc *ListingController) CreateListing(c *gin.Context) {
	var req services.ListingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendAppError(c, utils.BindingError(err))
		return
	}

	listing, err := lc.listingService.Create(middleware.AccountID(c), req)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Listing published successfully",
		"listing": listing,
	})
}

func (lc *ListingController) UpdateListing(c *gin.Context) {
	var req services.ListingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendAppError(c, utils.BindingError(err))
		return
	}

	listing, err := lc.listingService.Update(c.Param("id"), middleware.AccountID(c), req)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Listing updated successfully",
		"listing": listing,
	})
}

func (lc *ListingController) DeleteListing(c *gin.Context) {
	if err := lc.listingService.SoftDelete(c.Param("id"), middleware.AccountID(c)); err != nil {
		utils.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Listing deleted successfully",
		"note":    "The listing is hidden from search but kept in your history",
	})
}

// UploadImages accepts the multipart field "images".
func (lc *ListingController) UploadImages(c *gin.Context) {
	if lc.limits.MaxFiles > 0 && lc.limits.MaxFileSize > 0 {
		limit := int64(lc.limits.MaxFiles)*lc.limits.MaxFileSize + multipartOverhead
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}

	var headers []*multipart.FileHeader
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.SendAppError(c, utils.NewAppError(http.StatusRequestEntityTooLarge, utils.CodePayloadTooLarge, "Upload exceeds the allowed size"))
			return
		}
	} else {
		headers = form.File["images"]
	}

	files := make([]services.ImageUpload, 0, len(headers))
	for _, header := range headers {
		upload, err := lc.readUpload(header)
		if err != nil {
			utils.SendAppError(c, err)
			return
		}
		files = append(files, upload)
	}

	images, err := lc.listingService.AddImages(c.Request.Context(), c.Param("id"), middleware.AccountID(c), files)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": fmt.Sprintf("%d images uploaded", len(images)),
		"images":  images,
	})
}

// readUpload loads a file into memory unless it already exceeds the size limit.
func (lc *ListingController) readUpload(header *multipart.FileHeader) (services.ImageUpload, error) {
	upload := services.ImageUpload{FileName: header.Filename, Size: header.Size}
	if lc.limits.MaxFileSize > 0 && header.Size > lc.limits.MaxFileSize {
		return upload, nil
	}

	f, err := header.Open()
	if err != nil {
		return upload, fmt.Errorf("open upload %q: %w", header.Filename, err)
	}
	defer f.Close()

	upload.Data, err = io.ReadAll(f)
	if err != nil {
		return upload, fmt.Errorf("read upload %q: %w", header.Filename, err)
	}
	return upload, nil
}

// GetMyListings returns the caller's listings; ?status=all|active|sold|inactive.
func (lc *ListingController) GetMyListings(c *gin.Context) {
	mine, err := lc.listingService.MyListings(middleware.AccountID(c), c.Query("status"))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, mine)
}

func (lc *ListingController) GetMyFavorites(c *gin.Context) {
	favorites, err := lc.favoriteService.List(middleware.AccountID(c))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, favorites)
}

func (lc *ListingController) ToggleFavorite(c *gin.Context) {
	result, err := lc.favoriteService.Toggle(middleware.AccountID(c), c.Param("id"))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (lc *ListingController) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Listing endpoints",
		"endpoints": gin.H{
			"GET /api/motos":                    "Search listings (filters, sort, pagination)",
			"GET /api/motos/:id":                "Listing detail with similar listings",
			"POST /api/motos":                   "Publish a listing (auth)",
			"PUT /api/motos/:id":                "Update your listing (auth)",
			"DELETE /api/motos/:id":             "Withdraw your listing (auth)",
			"POST /api/motos/:id/imagenes":      "Upload up to 5 images (auth, multipart field images)",
			"POST /api/motos/:id/favorito":      "Toggle favorite (auth)",
			"GET /api/motos/me/all":             "Your listings and stats (auth)",
			"GET /api/motos/me/favoritos":       "Your favorites (auth)",
			"GET /api/motos/search/marcas":      "Brands with counts",
			"GET /api/motos/search/ubicaciones": "Departments and cities with counts",
		},
		"filters": []string{
			"brand", "model", "city", "department", "fuel", "transmission", "vehicle_state", "condition",
			"soat_valid", "tech_inspection_valid", "papers_in_order",
			"year_min", "year_max", "price_min", "price_max", "displacement_min", "displacement_max", "mileage_max",
			"q", "order_by", "order", "page", "limit",
		},
	})
}
