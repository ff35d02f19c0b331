package utils

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"motomar-api/logger"
)

type ErrorResponse struct {
	Error      string       `json:"error"`
	Message    string       `json:"message,omitempty"`
	Code       int          `json:"code"`
	Field      string       `json:"field,omitempty"`
	Fields     []FieldError `json:"fields,omitempty"`
	RetryAfter int          `json:"retry_after,omitempty"`
	Detail     string       `json:"detail,omitempty"`
	Stack      string       `json:"stack,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type Pagination struct {
	Page            int   `json:"page"`
	Limit           int   `json:"limit"`
	Total           int64 `json:"total"`
	TotalPages      int   `json:"total_pages"`
	HasNextPage     bool  `json:"has_next_page"`
	HasPreviousPage bool  `json:"has_previous_page"`
}

func NewPagination(page, limit int, total int64) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{
		Page:            page,
		Limit:           limit,
		Total:           total,
		TotalPages:      totalPages,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	}
}

// ExposeDetails reports whether error internals may be sent to clients.
func ExposeDetails() bool {
	return gin.Mode() != gin.ReleaseMode
}

func SendError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:   code,
		Message: message,
		Code:    status,
	})
}

// SendAppError writes err as a JSON error envelope. Errors that are not an
// *AppError are logged and reported as 500.
func SendAppError(c *gin.Context, err error) {
	if appErr, ok := AsAppError(err); ok {
		c.AbortWithStatusJSON(appErr.Status, ErrorResponse{
			Error:   appErr.Code,
			Message: appErr.Message,
			Code:    appErr.Status,
			Field:   appErr.Field,
			Fields:  appErr.Fields,
		})
		return
	}

	logger.Log.Errorw("request failed",
		"method", c.Request.Method,
		"path", c.FullPath(),
		"error", err,
	)
	resp := ErrorResponse{
		Error:   CodeInternal,
		Message: "An unexpected error occurred",
		Code:    http.StatusInternalServerError,
	}
	if ExposeDetails() {
		resp.Detail = err.Error()
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, resp)
}

// SendPanic reports a recovered panic; the stack is only exposed outside release mode.
func SendPanic(c *gin.Context, recovered interface{}) {
	stack := string(debug.Stack())
	logger.Log.Errorw("panic recovered",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"panic", recovered,
		"stack", stack,
	)

	resp := ErrorResponse{
		Error:   CodeInternal,
		Message: "An unexpected error occurred",
		Code:    http.StatusInternalServerError,
	}
	if ExposeDetails() {
		resp.Detail = toString(recovered)
		resp.Stack = stack
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, resp)
}

func SendValidationError(c *gin.Context, message string, fields ...FieldError) {
	SendAppError(c, NewValidationError(message, fields...))
}

func SendSuccess(c *gin.Context, message string, data interface{}) {
	response := SuccessResponse{
		Message: message,
	}
	if data != nil {
		response.Data = data
	}
	c.JSON(http.StatusOK, response)
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case error:
		return t.Error()
	case string:
		return t
	default:
		return "panic"
	}
}
