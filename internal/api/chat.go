package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/barkeepapp/barkeep/backend/internal/chat"
)

// ChatHandler serves the conversational endpoint. Clients that accept
// text/event-stream get incremental deltas; everyone else gets a buffered
// reply once the turn completes.
type ChatHandler struct {
	orchestrator *chat.Orchestrator
}

func NewChatHandler(o *chat.Orchestrator) *ChatHandler {
	return &ChatHandler{orchestrator: o}
}

func (h *ChatHandler) RegisterRoutes(router *gin.RouterGroup, limiter gin.HandlerFunc) {
	group := router.Group("/chat")
	if limiter != nil {
		group.Use(limiter)
	}
	group.POST("", h.Chat)
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req chat.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if strings.Contains(c.GetHeader("Accept"), "text/event-stream") {
		h.stream(c, req)
		return
	}

	reply, err := h.orchestrator.Respond(c.Request.Context(), req)
	var reqErr *chat.RequestError
	if errors.As(err, &reqErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": reqErr.Reason})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process chat request"})
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (h *ChatHandler) stream(c *gin.Context, req chat.Request) {
	events, err := h.orchestrator.Stream(c.Request.Context(), req)
	var reqErr *chat.RequestError
	if errors.As(err, &reqErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": reqErr.Reason})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process chat request"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		event, ok := <-events
		if !ok {
			return false
		}
		payload, err := json.Marshal(event)
		if err != nil {
			return false
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		return !event.Done
	})
}
