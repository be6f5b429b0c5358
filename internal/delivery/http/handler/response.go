package handler

import (
	"errors"
	"net/http"

	entity "swap-market/internal/domain"
	service "swap-market/internal/service/postgresql"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// User-visible outcomes of the negotiation endpoints.
const (
	msgItemRemoved   = "item removed"
	msgOfferOneSided = "offer rejected because it became one-sided"
	msgOfferAccepted = "offer accepted"
	msgRetry         = "could not complete the action - please retry"
)

// respondError maps an error kind to a status code and body. Store failures
// carry the retry message so clients can offer the user another attempt.
func respondError(c *gin.Context, err error) {
	status, retry := http.StatusInternalServerError, true
	switch {
	case errors.Is(err, entity.ErrValidation), errors.Is(err, entity.ErrProductNotFound):
		status, retry = http.StatusBadRequest, false
	case errors.Is(err, entity.ErrNotParticipant), errors.Is(err, service.ErrNotRecipient):
		status, retry = http.StatusForbidden, false
	case errors.Is(err, entity.ErrOfferNotFound), errors.Is(err, entity.ErrOfferItemNotFound):
		status, retry = http.StatusNotFound, false
	case errors.Is(err, entity.ErrInvalidTransition), errors.Is(err, entity.ErrAlreadyReviewed):
		status, retry = http.StatusConflict, false
	case errors.Is(err, entity.ErrConcurrentUpdate):
		status = http.StatusConflict
	case errors.Is(err, entity.ErrCascadeFailed):
		status = http.StatusServiceUnavailable
	}

	_ = c.Error(err)
	if !retry {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	body := gin.H{"error": msgRetry, "retry": true}
	if status != http.StatusInternalServerError {
		body["detail"] = err.Error()
	}
	c.JSON(status, body)
}

func currentUser(c *gin.Context) uuid.UUID {
	return c.MustGet("user_id").(uuid.UUID)
}

// paramID parses a uuid path parameter and writes a 400 when it is malformed.
func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}
