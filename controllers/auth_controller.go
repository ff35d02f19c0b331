package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"motomar-api/middleware"
	"motomar-api/services"
	"motomar-api/utils"
)

type AuthController struct {
	authService *services.AuthService
}

func NewAuthController(authService *services.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

type AuthResponse struct {
	Message string `json:"message"`
	*services.AuthResult
}

func (ac *AuthController) Register(c *gin.Context) {
	var req services.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendAppError(c, utils.BindingError(err))
		return
	}

	result, err := ac.authService.Register(req)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, AuthResponse{
		Message:    "Account created successfully",
		AuthResult: result,
	})
}

func (ac *AuthController) Login(c *gin.Context) {
	var req services.LoginInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendAppError(c, utils.BindingError(err))
		return
	}

	result, err := ac.authService.Login(req, c.ClientIP())
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		Message:    "Login successful",
		AuthResult: result,
	})
}

// Me returns the authenticated account with its stats and active listings.
func (ac *AuthController) Me(c *gin.Context) {
	profile, err := ac.authService.Profile(middleware.AccountID(c))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Logout is acknowledged only; tokens are discarded by the client.
func (ac *AuthController) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
		"note":    "Discard the token on the client",
	})
}

func (ac *AuthController) Validate(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)
	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"user":  identity,
	})
}

func (ac *AuthController) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Authentication endpoints",
		"endpoints": gin.H{
			"POST /api/auth/register": "Create an account",
			"POST /api/auth/login":    "Sign in and receive a bearer token",
			"GET /api/auth/me":        "Current account profile (auth)",
			"POST /api/auth/logout":   "Sign out (auth)",
			"GET /api/auth/validate":  "Check a token (auth)",
		},
	})
}

// NotImplemented answers account operations that are not available yet.
func (ac *AuthController) NotImplemented(feature string) gin.HandlerFunc {
	return func(c *gin.Context) {
		utils.SendAppError(c, utils.NewAppError(http.StatusNotImplemented, utils.CodeNotImplemented, feature+" is not available yet"))
	}
}
