package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"grocery/internal/domain"
)

type errorBody struct {
	Message   string `json:"message"`
	LineID    string `json:"lineId,omitempty"`
	Available *int64 `json:"available,omitempty"`
}

func mapErrorToStatus(err error) int {
	var ise *domain.InsufficientStockError
	var ite *domain.InvalidTransitionError
	switch {
	case errors.As(err, &ise), errors.As(err, &ite):
		return http.StatusConflict
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrCheckoutInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrEmptyCart):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(c *gin.Context, err error) {
	status := mapErrorToStatus(err)
	body := errorBody{Message: err.Error()}

	var ise *domain.InsufficientStockError
	if errors.As(err, &ise) {
		available := ise.Available
		body = errorBody{Message: ise.Message(), LineID: ise.LineID, Available: &available}
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		body = errorBody{Message: "internal error"}
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorBody{Message: msg})
}
