package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/tripplanner/internal/domain"
	"github.com/gin-gonic/gin"
)

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func respond(c *gin.Context, status int, data any, message string) {
	c.JSON(status, envelope{Success: true, Data: data, Message: message})
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, envelope{Success: false, Error: http.StatusText(status), Message: message})
}

// failErr maps service errors onto HTTP statuses. Internal details are not
// leaked for 500s.
func failErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		fail(c, http.StatusNotFound, "trip not found")
	default:
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, "internal server error")
	}
}
