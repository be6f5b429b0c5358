package handler

import (
	"net/http"
	"strconv"

	entity "swap-market/internal/domain"
	service "swap-market/internal/service/postgresql"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	messageService *service.MessageService
}

func NewMessageHandler(messageService *service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// @Summary      List Offer Messages
// @Description  Newest messages of the offer thread.
// @Tags         Messages
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id path string true "Offer ID"
// @Param        limit query int false "Maximum number of messages"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]interface{} "Not a participant"
// @Failure      404  {object}  map[string]interface{} "Offer not found"
// @Failure      500  {object}  map[string]interface{} "Store failure, retry"
// @Router       /offers/{id}/messages [get]
func (h *MessageHandler) ListMessages(c *gin.Context) {
	offerID, ok := paramID(c, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	msgs, err := h.messageService.ListMessages(c.Request.Context(), currentUser(c), offerID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// @Summary      Post Offer Message
// @Tags         Messages
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id path string true "Offer ID"
// @Param        input body entity.CreateMessageInput true "Message text"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]interface{} "Not a participant"
// @Failure      404  {object}  map[string]interface{} "Offer not found"
// @Failure      500  {object}  map[string]interface{} "Store failure, retry"
// @Router       /offers/{id}/messages [post]
func (h *MessageHandler) AppendMessage(c *gin.Context) {
	offerID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input entity.CreateMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "detail": err.Error()})
		return
	}

	msg, err := h.messageService.AppendMessage(c.Request.Context(), currentUser(c), offerID, input.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}
