package handler

import (
	"context"
	"net/http"

	entity "swap-market/internal/domain"
	service "swap-market/internal/service/postgresql"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type OfferHandler struct {
	offerService *service.OfferService
	logger       *zap.Logger
}

func NewOfferHandler(offerService *service.OfferService, logger *zap.Logger) *OfferHandler {
	return &OfferHandler{offerService: offerService, logger: logger}
}

// @Summary      Propose Swap Offer
// @Description  Opens a pending offer from the caller to to_user_id. Both sides must contribute at least one item; the cash adjustment is computed from item prices.
// @Tags         Offers
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        input body entity.CreateOfferInput true "Recipient and offered items"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]interface{} "Store failure, retry"
// @Router       /offers [post]
func (h *OfferHandler) ProposeOffer(c *gin.Context) {
	var input entity.CreateOfferInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "detail": err.Error()})
		return
	}

	userID := currentUser(c)
	offer, items, err := h.offerService.ProposeOffer(c.Request.Context(), userID, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "offer created",
		"offer":   newOfferView(offer, userID),
		"items":   items,
	})
}

// @Summary      List Offers
// @Description  Offers the caller sent, received, or both.
// @Tags         Offers
// @Produce      json
// @Security     ApiKeyAuth
// @Param        role query string false "sent, received or all" Enums(sent, received, all)
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]interface{} "Store failure, retry"
// @Router       /offers [get]
func (h *OfferHandler) ListOffers(c *gin.Context) {
	userID := currentUser(c)
	offers, err := h.offerService.ListOffers(c.Request.Context(), userID, c.Query("role"))
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]offerView, 0, len(offers))
	for i := range offers {
		views = append(views, newOfferView(&offers[i], userID))
	}
	c.JSON(http.StatusOK, gin.H{"offers": views})
}

// @Summary      Get Offer
// @Description  Offer with its item lines and both participants. Cash is shown from the caller's side.
// @Tags         Offers
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id path string true "Offer ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]interface{} "Not a participant"
// @Failure      404  {object}  map[string]interface{} "Offer not found"
// @Failure      500  {object}  map[string]interface{} "Store failure, retry"
// @Router       /offers/{id} [get]
func (h *OfferHandler) GetOffer(c *gin.Context) {
	offerID, ok := paramID(c, "id")
	if !ok {
		return
	}

	userID := currentUser(c)
	detail, err := h.offerService.GetOffer(c.Request.Context(), userID, offerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"offer":     newOfferView(detail.Offer, userID),
		"items":     detail.Lines,
		"from_user": detail.FromUser,
		"to_user":   detail.ToUser,
	})
}

// @Summary      Add Item To Offer
// @Description  Adds one item to a pending or accepted offer and recomputes the cash adjustment. An accepted offer goes back to pending.
// @Tags         Offers
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id path string true "Offer ID"
// @Param        input body entity.OfferItemInput true "Item and quantity"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]interface{} "Not a participant"
// @Failure      404  {object}  map[string]interface{} "Offer not found"
// @Failure      409  {object}  map[string]interface{} "Offer is not in a state that allows this"
// @Failure      500  {object}  map[string]interface{} "Store failure, retry"
// @Router       /offers/{id}/items [post]
func (h *OfferHandler) AddItem(c *gin.Context) {
	offerID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input entity.OfferItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "detail": err.Error()})
		return
	}

	userID := currentUser(c)
	offer, item, err := h.offerService.AddItem(c.Request.Context(), userID, offerID, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "item added",
		"offer":   newOfferView(offer, userID),
		"item":    item,
	})
}

// @Summary      Remove Item From Offer
// @Description  Removes one item. If either side would be left with no items the offer is rejected instead.
// @Tags         Offers
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id path string true "Offer ID"
// @Param        offerItemId path string true "Offer item ID"
// @Param        item_id query string false "Product ID the offer item must refer to"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]interface{} "Not a participant"
// @Failure      404  {object}  map[string]interface{} "Offer not found"
// @Failure      409  {object}  map[string]interface{} "Invalid state or concurrent update"
// @Failure      503  {object}  map[string]interface{} "Cascade rejection failed, retry"
// @Failure      500  {object}  map[string]interface{} "Store failure, retry"
// @Router       /offers/{id}/items/{offerItemId} [delete]
func (h *OfferHandler) RemoveItem(c *gin.Context) {
	offerID, ok := paramID(c, "id")
	if !ok {
		return
	}
	offerItemID, ok := paramID(c, "offerItemId")
	if !ok {
		return
	}
	var itemID uuid.UUID
	if raw := c.Query("item_id"); raw != "" {
		var err error
		if itemID, err = uuid.Parse(raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item_id"})
			return
		}
	}

	userID := currentUser(c)
	outcome, err := h.offerService.RemoveItem(c.Request.Context(), userID, offerID, offerItemID, itemID)
	if err != nil {
		respondError(c, err)
		return
	}

	message := msgItemRemoved
	if outcome.Kind == entity.RemovalOfferRejected {
		message = msgOfferOneSided
	}
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"outcome": outcome.Kind,
		"offer":   newOfferView(outcome.Offer, userID),
		"items":   outcome.RemainingItems,
	})
}

// @Summary      Accept Offer
// @Description  Only the recipient may accept a pending offer.
// @Tags         Offers
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id path string true "Offer ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]interface{} "Not a participant"
// @Failure      404  {object}  map[string]interface{} "Offer not found"
// @Failure      409  {object}  map[string]interface{} "Offer is not in a state that allows this"
// @Failure      500  {object}  map[string]interface{} "Store failure, retry"
// @Router       /offers/{id}/accept [post]
func (h *OfferHandler) AcceptOffer(c *gin.Context) {
	h.transition(c, msgOfferAccepted, h.offerService.AcceptOffer)
}

// @Summary      Reject Offer
// @Tags         Offers
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id path string true "Offer ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]interface{} "Not a participant"
// @Failure      404  {object}  map[string]interface{} "Offer not found"
// @Failure      409  {object}  map[string]interface{} "Offer is not in a state that allows this"
// @Failure      500  {object}  map[string]interface{} "Store failure, retry"
// @Router       /offers/{id}/reject [post]
func (h *OfferHandler) RejectOffer(c *gin.Context) {
	h.transition(c, "offer rejected", h.offerService.RejectOffer)
}

// @Summary      Complete Offer
// @Description  Marks an accepted offer as completed.
// @Tags         Offers
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id path string true "Offer ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]interface{} "Not a participant"
// @Failure      404  {object}  map[string]interface{} "Offer not found"
// @Failure      409  {object}  map[string]interface{} "Offer is not in a state that allows this"
// @Failure      500  {object}  map[string]interface{} "Store failure, retry"
// @Router       /offers/{id}/complete [post]
func (h *OfferHandler) CompleteOffer(c *gin.Context) {
	h.transition(c, "offer completed", h.offerService.CompleteOffer)
}

type transitionFunc func(ctx context.Context, actingUserID, offerID uuid.UUID) (*entity.Offer, error)

func (h *OfferHandler) transition(c *gin.Context, message string, fn transitionFunc) {
	offerID, ok := paramID(c, "id")
	if !ok {
		return
	}

	userID := currentUser(c)
	offer, err := fn(c.Request.Context(), userID, offerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"offer":   newOfferView(offer, userID),
	})
}

// @Summary      Delete Offer
// @Description  Deletes a rejected or completed offer together with its items.
// @Tags         Offers
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id path string true "Offer ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]interface{} "Not a participant"
// @Failure      404  {object}  map[string]interface{} "Offer not found"
// @Failure      409  {object}  map[string]interface{} "Offer is not in a state that allows this"
// @Failure      500  {object}  map[string]interface{} "Store failure, retry"
// @Router       /offers/{id} [delete]
func (h *OfferHandler) FinalizeOffer(c *gin.Context) {
	offerID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.offerService.FinalizeOffer(c.Request.Context(), currentUser(c), offerID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "offer deleted"})
}

// @Summary      Offer Status History
// @Tags         Offers
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id path string true "Offer ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]interface{} "Not a participant"
// @Failure      404  {object}  map[string]interface{} "Offer not found"
// @Failure      500  {object}  map[string]interface{} "Store failure, retry"
// @Router       /offers/{id}/history [get]
func (h *OfferHandler) History(c *gin.Context) {
	offerID, ok := paramID(c, "id")
	if !ok {
		return
	}

	history, err := h.offerService.History(c.Request.Context(), currentUser(c), offerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}
