package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/registro-museografico/museum-registry/internal/chat/domain"
	"github.com/registro-museografico/museum-registry/internal/chat/service"
	"github.com/registro-museografico/museum-registry/internal/logging"
)

type Handler struct {
	chat *service.ChatService
}

func New(chat *service.ChatService) *Handler {
	return &Handler{chat: chat}
}

// Register registers the assistant routes
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/chat/sessions", h.StartSession)
	rg.GET("/chat/sessions/:id/messages", h.GetMessages)
	rg.POST("/chat/sessions/:id/messages", h.SendMessage)
	rg.GET("/chat/quick-actions", h.QuickActions)
	rg.POST("/chat/ask", h.Ask)
}

func (h *Handler) StartSession(c *gin.Context) {
	sess, err := h.chat.StartSession(c.Request.Context())
	if err != nil {
		respondError(c, "chat.start_session", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"ok":            true,
		"session":       sess,
		"quick_actions": h.chat.QuickActions(),
	})
}

func (h *Handler) GetMessages(c *gin.Context) {
	msgs, err := h.chat.Transcript(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "chat.messages", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "messages": msgs})
}

// SendMessage posts a question and waits for the assistant's answer
func (h *Handler) SendMessage(c *gin.Context) {
	var body struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body"})
		return
	}

	q, a, err := h.chat.Send(c.Request.Context(), c.Param("id"), body.Content)
	if err != nil {
		respondError(c, "chat.send", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": q, "reply": a})
}

func (h *Handler) QuickActions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "quick_actions": h.chat.QuickActions()})
}

// Ask answers one question without a session
func (h *Handler) Ask(c *gin.Context) {
	var body struct {
		Question string `json:"question"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body"})
		return
	}

	answer, err := h.chat.Ask(c.Request.Context(), body.Question)
	if err != nil {
		respondError(c, "chat.ask", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "answer": answer})
}

func respondError(c *gin.Context, operation string, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "session not found"})
	case errors.Is(err, domain.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "message is empty"})
	case errors.Is(err, context.Canceled):
		// client went away while the assistant was thinking
		c.Status(499)
	default:
		logging.NewLogger(c.Request.Context()).LogError(operation, err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal error"})
	}
}
