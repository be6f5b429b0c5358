package handler

import (
	"net/http"

	entity "swap-market/internal/domain"

	"github.com/gin-gonic/gin"
)

// @Summary      Rating Target
// @Description  The counterpart the caller may review on a completed offer.
// @Tags         Reviews
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id path string true "Offer ID"
// @Success      200  {object}  entity.RatingTarget
// @Failure      403  {object}  map[string]interface{} "Not a participant"
// @Failure      404  {object}  map[string]interface{} "Offer not found"
// @Failure      409  {object}  map[string]interface{} "Offer is not in a state that allows this"
// @Failure      500  {object}  map[string]interface{} "Store failure, retry"
// @Router       /offers/{id}/rating-target [get]
func (h *OfferHandler) RatingTarget(c *gin.Context) {
	offerID, ok := paramID(c, "id")
	if !ok {
		return
	}

	target, err := h.offerService.RatingTarget(c.Request.Context(), currentUser(c), offerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, target)
}

// @Summary      Submit Review
// @Description  One review per participant per completed offer.
// @Tags         Reviews
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id path string true "Offer ID"
// @Param        input body entity.CreateReviewInput true "Rating and comment"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]interface{} "Not a participant"
// @Failure      404  {object}  map[string]interface{} "Offer not found"
// @Failure      409  {object}  map[string]interface{} "Already reviewed or offer not completed"
// @Failure      500  {object}  map[string]interface{} "Store failure, retry"
// @Router       /offers/{id}/reviews [post]
func (h *OfferHandler) SubmitReview(c *gin.Context) {
	offerID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input entity.CreateReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "detail": err.Error()})
		return
	}

	review, err := h.offerService.SubmitReview(c.Request.Context(), currentUser(c), offerID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "review submitted", "review": review})
}

// @Summary      List Reviews
// @Tags         Reviews
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id path string true "Offer ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]interface{} "Not a participant"
// @Failure      404  {object}  map[string]interface{} "Offer not found"
// @Failure      500  {object}  map[string]interface{} "Store failure, retry"
// @Router       /offers/{id}/reviews [get]
func (h *OfferHandler) ListReviews(c *gin.Context) {
	offerID, ok := paramID(c, "id")
	if !ok {
		return
	}

	reviews, err := h.offerService.ListReviews(c.Request.Context(), currentUser(c), offerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}
