package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	customerdomain "github.com/smallbiznis/churnwatch/internal/customer/domain"
	"github.com/smallbiznis/churnwatch/internal/scoring/model"
	"github.com/smallbiznis/churnwatch/internal/scoring/risk"
)

var (
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// errorRule maps a sentinel to the status and body returned for it. The first
// matching rule wins.
type errorRule struct {
	target  error
	status  int
	payload apiError
}

var errorRules = []errorRule{
	{ErrInvalidRequest, http.StatusBadRequest, apiError{"validation_error", "invalid request"}},
	{customerdomain.ErrInvalidID, http.StatusBadRequest, apiError{"validation_error", "customer id must be a positive integer"}},
	{ErrNotFound, http.StatusNotFound, apiError{"not_found", "no cached assessment for customer"}},
	{ErrServiceUnavailable, http.StatusServiceUnavailable, apiError{"service_unavailable", "risk cache is not configured"}},
	{model.ErrDimensionMismatch, http.StatusInternalServerError, apiError{"scoring_error", "model does not match engineered features"}},
	{risk.ErrInvalidProbability, http.StatusInternalServerError, apiError{"scoring_error", "model produced an invalid probability"}},
}

var internalError = apiError{"internal_error", "internal server error"}

// ErrorHandlingMiddleware renders the last error recorded on the context unless
// the handler already wrote a response.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}
		status, payload := mapError(c.Errors.Last().Err)
		c.AbortWithStatusJSON(status, gin.H{"error": payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, apiError) {
	for _, rule := range errorRules {
		if errors.Is(err, rule.target) {
			return rule.status, rule.payload
		}
	}
	return http.StatusInternalServerError, internalError
}
