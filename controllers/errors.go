package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/shopfloor-app/services"
	"github.com/yeremiapane/shopfloor-app/utils"
)

const defaultRequestTimeout = 5 * time.Second

var errInternal = errors.New("internal server error")

// requestContext bounds a service call by the configured request timeout.
func requestContext(c *gin.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return context.WithTimeout(c.Request.Context(), timeout)
}

// respondServiceError maps the services error taxonomy onto HTTP codes.
func respondServiceError(c *gin.Context, err error) {
	var (
		notFound *services.NotFoundError
		invalid  *services.ValidationError
		badRef   *services.InvalidReferenceError
		conflict *services.ConflictError
	)

	switch {
	case errors.As(err, &notFound):
		utils.RespondError(c, http.StatusNotFound, err)
	case errors.As(err, &invalid):
		utils.RespondError(c, http.StatusBadRequest, err)
	case errors.As(err, &badRef):
		utils.RespondError(c, http.StatusUnprocessableEntity, err)
	case errors.As(err, &conflict):
		utils.RespondError(c, http.StatusConflict, err)
	case errors.Is(err, context.DeadlineExceeded):
		utils.ErrorLogger.Printf("Request timed out on %s %s: %v", c.Request.Method, c.FullPath(), err)
		utils.RespondError(c, http.StatusGatewayTimeout, errors.New("request timed out"))
	default:
		utils.ErrorLogger.Printf("Unhandled error on %s %s: %v", c.Request.Method, c.FullPath(), err)
		utils.RespondError(c, http.StatusInternalServerError, errInternal)
	}
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.RespondError(c, http.StatusBadRequest, &services.ValidationError{Field: name, Message: "must be a positive integer"})
		return 0, false
	}
	return uint(id), true
}
