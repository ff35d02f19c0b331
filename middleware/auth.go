package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	"motomar-api/models"
	"motomar-api/services"
	"motomar-api/utils"
)

const identityKey = "identity"

// AccountSource resolves the account behind a token.
type AccountSource interface {
	Account(accountID string) (*models.Account, error)
	Touch(accountID string)
}

// RequireAuth rejects requests without a valid bearer token for an existing,
// active account. On success the identity is stored in the context.
func RequireAuth(tokens *services.TokenService, accounts AccountSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := services.ExtractBearer(c.GetHeader("Authorization"))
		if !ok {
			utils.SendAppError(c, utils.NewUnauthorized(utils.CodeMissingToken, "Authorization token is required"))
			return
		}

		claims, err := tokens.Verify(token)
		if errors.Is(err, services.ErrExpiredToken) {
			utils.SendAppError(c, utils.NewUnauthorized(utils.CodeTokenExpired, "Token has expired"))
			return
		}
		if err != nil {
			utils.SendAppError(c, utils.NewUnauthorized(utils.CodeInvalidToken, "Invalid token"))
			return
		}

		account, err := accounts.Account(claims.AccountID)
		if err != nil {
			utils.SendAppError(c, err)
			return
		}
		if !account.Active {
			utils.SendAppError(c, utils.NewUnauthorized(utils.CodeAccountDisabled, "Account is disabled"))
			return
		}

		accounts.Touch(account.ID)
		setIdentity(c, services.IdentityOf(account))
		c.Next()
	}
}

// OptionalAuth attaches the identity when a valid token for an active account
// is present and never rejects the request.
func OptionalAuth(tokens *services.TokenService, accounts AccountSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := services.ExtractBearer(c.GetHeader("Authorization")); ok {
			if claims, err := tokens.Verify(token); err == nil {
				if account, err := accounts.Account(claims.AccountID); err == nil && account.Active {
					setIdentity(c, services.IdentityOf(account))
				}
			}
		}
		c.Next()
	}
}

func RequireVerified() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok {
			utils.SendAppError(c, utils.NewUnauthorized(utils.CodeMissingToken, "Authentication required"))
			return
		}
		if !identity.Verified {
			utils.SendAppError(c, utils.NewForbidden(utils.CodeEmailNotVerified, "Email verification required"))
			return
		}
		c.Next()
	}
}

func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok {
			utils.SendAppError(c, utils.NewUnauthorized(utils.CodeMissingToken, "Authentication required"))
			return
		}
		for _, role := range roles {
			if identity.Role == role {
				c.Next()
				return
			}
		}
		utils.SendAppError(c, utils.NewForbidden(utils.CodeForbidden, "Insufficient permissions"))
	}
}

func setIdentity(c *gin.Context, identity services.Identity) {
	c.Set(identityKey, identity)
}

// CurrentIdentity returns the identity stored by RequireAuth or OptionalAuth.
func CurrentIdentity(c *gin.Context) (services.Identity, bool) {
	value, exists := c.Get(identityKey)
	if !exists {
		return services.Identity{}, false
	}
	identity, ok := value.(services.Identity)
	return identity, ok
}

// AccountID returns the authenticated account id, or "" for anonymous requests.
func AccountID(c *gin.Context) string {
	identity, _ := CurrentIdentity(c)
	return identity.AccountID
}
