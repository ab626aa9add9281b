package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/davicafu/tiendalab/internal/conversation/application"
	"github.com/davicafu/tiendalab/internal/conversation/domain"
)

// ConversationHandler encapsula los endpoints HTTP relacionados con Conversation
type ConversationHandler struct {
	service *application.ConversationService
}

// NewConversationHandler crea un nuevo ConversationHandler
func NewConversationHandler(service *application.ConversationService) *ConversationHandler {
	return &ConversationHandler{service: service}
}

// ---------------- Handlers ----------------

// CreateConversation endpoint POST /conversations
func (h *ConversationHandler) CreateConversation(c *gin.Context) {
	conv, err := h.service.CreateConversation(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, conv)
}

// AddMessage endpoint POST /conversations/:id/messages
func (h *ConversationHandler) AddMessage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	var req struct {
		Role    string `json:"role" binding:"required"`
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.service.AddMessage(c.Request.Context(), id, domain.Role(req.Role), req.Content)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrConversationNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		case errors.Is(err, domain.ErrInvalidMessage):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// ListMessages endpoint GET /conversations/:id/messages
func (h *ConversationHandler) ListMessages(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	msgs, err := h.service.Transcript(c.Request.Context(), id, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, msgs)
}
