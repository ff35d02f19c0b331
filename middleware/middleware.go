package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"motomar-api/logger"
	"motomar-api/services"
	"motomar-api/utils"
)

// ErrorHandler recovers panics and turns errors attached with c.Error into the
// standard JSON envelope when the handler did not write a response itself.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if recovered := recover(); recovered != nil {
				utils.SendPanic(c, recovered)
			}
		}()

		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			utils.SendAppError(c, c.Errors.Last().Err)
		}
	}
}

// RateLimit throttles requests per client IP using pool.
func RateLimit(pool *services.LimiterPool, requestsPerMinute int) gin.HandlerFunc {
	return func(c *gin.Context) {
		now := time.Now()
		key := c.ClientIP()

		allowed, retryAfter := pool.Reserve(key, now)
		if !allowed {
			rejectRateLimited(c, retryAfter, "Too many requests. Limit: "+strconv.Itoa(requestsPerMinute)+" requests per minute")
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(requestsPerMinute))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(pool.Tokens(key, now)))
		c.Next()
	}
}

// AccountRateLimit applies the per-account limit of counter. It must run after
// RequireAuth; anonymous requests pass through. Counter failures are logged and
// the request is allowed.
func AccountRateLimit(counter services.RateCounter) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID := AccountID(c)
		if accountID == "" {
			c.Next()
			return
		}

		decision, err := counter.Allow(c.Request.Context(), accountID)
		if err != nil {
			logger.Log.Warnw("account rate limit unavailable", "account_id", accountID, "error", err)
			c.Next()
			return
		}
		if !decision.Allowed {
			rejectRateLimited(c, decision.RetryAfter, "Too many requests for this account, try again later")
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Next()
	}
}

func rejectRateLimited(c *gin.Context, retryAfter time.Duration, message string) {
	seconds := int(math.Ceil(retryAfter.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	c.Header("Retry-After", strconv.Itoa(seconds))
	c.Header("X-RateLimit-Remaining", "0")
	c.AbortWithStatusJSON(http.StatusTooManyRequests, utils.ErrorResponse{
		Error:      utils.CodeRateLimited,
		Message:    message,
		Code:       http.StatusTooManyRequests,
		RetryAfter: seconds,
	})
}

// ValidateJSON requires a JSON content type on write requests that carry a
// body. Multipart image uploads are exempt.
func ValidateJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			c.Next()
			return
		}
		if c.Request.ContentLength == 0 || strings.HasSuffix(c.Request.URL.Path, "/imagenes") {
			c.Next()
			return
		}

		if !strings.Contains(c.GetHeader("Content-Type"), "application/json") {
			utils.SendValidationError(c, "Content-Type must be application/json",
				utils.FieldError{Field: "content_type", Message: "must be application/json"})
			return
		}
		c.Next()
	}
}

// RequestLogger logs one line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		fields := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
		}
		if id := AccountID(c); id != "" {
			fields = append(fields, "account_id", id)
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Log.Errorw("request", fields...)
		case status >= http.StatusBadRequest:
			logger.Log.Warnw("request", fields...)
		default:
			logger.Log.Infow("request", fields...)
		}
	}
}

func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'self'")
		c.Next()
	}
}

// CORS allows the frontend origin to call the API with credentials.
func CORS(allowedOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowedOrigin == "*" || origin == allowedOrigin) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
			c.Header("Access-Control-Max-Age", "86400")
			c.Header("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
