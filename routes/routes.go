package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"motomar-api/config"
	"motomar-api/controllers"
	"motomar-api/middleware"
	"motomar-api/repositories"
	"motomar-api/services"
	"motomar-api/utils"
)

// Dependencies are the collaborators built in main. Storage, Events, IPLimiter
// and Metrics may be nil. A nil Mailer or AccountCounter falls back to the
// config-driven email service and the in-process counter.
type Dependencies struct {
	DB             *gorm.DB
	Config         *config.Config
	Mailer         services.Mailer
	Storage        services.ImageStorage
	Events         services.EventPublisher
	AccountCounter services.RateCounter
	IPLimiter      *services.LimiterPool
	Metrics        *middleware.Metrics
}

func SetupRoutes(r *gin.Engine, deps Dependencies) {
	cfg := deps.Config
	db := deps.DB

	// Repositories
	accountRepo := repositories.NewAccountRepository(db)
	listingRepo := repositories.NewListingRepository(db)
	favoriteRepo := repositories.NewFavoriteRepository(db)
	facetRepo := repositories.NewFacetRepository(db)

	mailer := deps.Mailer
	if mailer == nil {
		mailer = services.NewEmailService(cfg)
	}

	// Services
	imageLimits := services.ImageLimits{MaxFiles: cfg.MaxUploadFiles, MaxFileSize: cfg.MaxUploadFileSize}
	tokenService := services.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTExpiresIn)
	authService := services.NewAuthService(accountRepo, listingRepo, tokenService, mailer)
	listingService := services.NewListingService(listingRepo, favoriteRepo, deps.Storage, deps.Events, imageLimits)
	favoriteService := services.NewFavoriteService(favoriteRepo, listingRepo, deps.Events)
	facetService := services.NewFacetService(facetRepo)

	// Controllers
	authController := controllers.NewAuthController(authService)
	listingController := controllers.NewListingController(listingService, favoriteService, imageLimits)
	searchController := controllers.NewSearchController(facetService)
	healthController := controllers.NewHealthController(db, cfg.Env)

	counter := deps.AccountCounter
	if counter == nil {
		counter = services.NewLocalRateCounter(cfg.UserRateLimitMax, cfg.UserRateLimitWindow)
	}

	requireAuth := middleware.RequireAuth(tokenService, authService)
	optionalAuth := middleware.OptionalAuth(tokenService, authService)
	accountLimit := middleware.AccountRateLimit(counter)

	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.FrontendURL))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware())
		r.GET("/metrics", deps.Metrics.Handler())
	}

	r.GET("/health", healthController.Health)

	api := r.Group("/api")
	if deps.IPLimiter != nil {
		api.Use(middleware.RateLimit(deps.IPLimiter, cfg.RateLimitPerMinute))
	}
	api.Use(middleware.ValidateJSON())
	api.GET("", healthController.APIInfo)

	// Auth routes
	auth := api.Group("/auth")
	{
		auth.GET("", authController.Info)
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.POST("/logout", requireAuth, authController.Logout)
		auth.GET("/me", requireAuth, authController.Me)
		auth.GET("/validate", requireAuth, authController.Validate)

		auth.POST("/forgot-password", authController.NotImplemented("Password recovery"))
		auth.POST("/reset-password", authController.NotImplemented("Password reset"))
		auth.POST("/verify-email", authController.NotImplemented("Email verification"))
		auth.POST("/resend-verification", authController.NotImplemented("Verification resend"))
		auth.POST("/change-password", requireAuth, authController.NotImplemented("Password change"))
		auth.DELETE("/account", requireAuth, authController.NotImplemented("Account deletion"))
	}

	// Listing routes
	motos := api.Group("/motos")
	{
		motos.GET("", optionalAuth, listingController.GetListings)
		motos.GET("/info", listingController.Info)

		search := motos.Group("/search")
		{
			search.GET("/marcas", searchController.GetBrands)
			search.GET("/modelos/:marca", searchController.GetModels)
			search.GET("/ubicaciones", searchController.GetLocations)
			search.GET("/estadisticas", searchController.GetStats)
		}

		me := motos.Group("/me", requireAuth)
		{
			me.GET("/all", listingController.GetMyListings)
			me.GET("/favoritos", listingController.GetMyFavorites)
		}

		motos.GET("/:id", optionalAuth, listingController.GetListing)
		motos.POST("", requireAuth, accountLimit, listingController.CreateListing)
		motos.PUT("/:id", requireAuth, accountLimit, listingController.UpdateListing)
		motos.DELETE("/:id", requireAuth, accountLimit, listingController.DeleteListing)
		motos.POST("/:id/imagenes", requireAuth, accountLimit, listingController.UploadImages)
		motos.POST("/:id/favorito", requireAuth, accountLimit, listingController.ToggleFavorite)
	}

	r.NoRoute(func(c *gin.Context) {
		utils.SendError(c, http.StatusNotFound, utils.CodeNotFound, "Route "+c.Request.Method+" "+c.Request.URL.Path+" not found")
	})
}
