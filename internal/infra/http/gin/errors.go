package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	gin "github.com/gin-gonic/gin"

	"ratepilot/internal/app/middleware"
	"ratepilot/internal/domain/shared/errs"
)

var (
	errCommandsUnavailable = errors.New("commands bus unavailable")
	errQueriesUnavailable  = errors.New("queries bus unavailable")
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrInvalidInput), errors.Is(err, errs.ErrInvalidDate):
		return http.StatusBadRequest
	case errors.Is(err, middleware.ErrKeyReused):
		return http.StatusConflict
	case errors.Is(err, errs.ErrDataUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondWithError hides internal error text behind a generic message.
func respondWithError(c *gin.Context, logger *slog.Logger, err error) {
	status := statusFor(err)
	if logger != nil {
		log := logger.Warn
		if status >= http.StatusInternalServerError {
			log = logger.Error
		}
		log("request failed", "status", status, "error", err, "path", c.FullPath(), "request_id", c.GetString("request_id"))
	}
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	c.JSON(status, gin.H{"error": message})
}

func badRequest(c *gin.Context, logger *slog.Logger, err error) {
	respondWithError(c, logger, errors.Join(errs.ErrInvalidInput, err))
}

func unavailable(c *gin.Context, err error) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
}

func queryInt64(c *gin.Context, key string) (int64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.New(key + " must be an integer")
	}
	return v, nil
}

// optionalQueryInt64 returns nil when key is absent or blank.
func optionalQueryInt64(c *gin.Context, key string) (*int64, error) {
	if strings.TrimSpace(c.Query(key)) == "" {
		return nil, nil
	}
	v, err := queryInt64(c, key)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func queryFloat(c *gin.Context, key string) (float64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.New(key + " must be a number")
	}
	return v, nil
}
