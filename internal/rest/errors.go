package rest

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dfryer1193/samplestore/api"
	"github.com/dfryer1193/samplestore/samples/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// errorResponse maps a service error to its status and body. Causes of 5xx
// responses are logged, never returned to the client.
func errorResponse(err error) (int, api.Error) {
	var validationErr *domain.ValidationError
	var tooLarge *http.MaxBytesError

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, api.Error{Error: validationErr.Message, Code: api.CodeValidation}
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, api.Error{
			Error: fmt.Sprintf("Upload exceeds %d bytes", tooLarge.Limit),
			Code:  api.CodePayloadTooLarge,
		}
	case errors.Is(err, domain.ErrLabelUnreadable):
		return http.StatusInternalServerError, api.Error{
			Error:   "Error reading label file",
			Code:    api.CodeLabelUnreadable,
			Message: "label file is missing or malformed",
		}
	case errors.Is(err, domain.ErrSampleNotFound):
		return http.StatusNotFound, api.Error{Error: "Sample not found", Code: api.CodeNotFound}
	case errors.Is(err, domain.ErrFileNotFound):
		return http.StatusNotFound, api.Error{Error: "File not found", Code: api.CodeNotFound}
	case errors.Is(err, domain.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, api.Error{Error: "Storage unavailable", Code: api.CodeStorageUnavailable}
	default:
		return http.StatusInternalServerError, api.Error{Error: "Internal server error", Code: api.CodeInternal}
	}
}

func respondError(c *gin.Context, err error) {
	status, body := errorResponse(err)

	logger := zerolog.Ctx(c.Request.Context())
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("code", body.Code).Msg("Request failed")
	} else {
		logger.Debug().Err(err).Str("code", body.Code).Msg("Request rejected")
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}
