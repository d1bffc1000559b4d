package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type AskRequest struct {
	Message string `json:"message" binding:"required,max=2000"`
}

func (h *Handler) AskAI(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Message is required")
		return
	}

	// 1. Run the agent (503 when no API key is configured)
	response, err := h.Agent.Ask(c.Request.Context(), req.Message)
	if err != nil {
		h.respondError(c, "AskAI", err)
		return
	}

	// 2. Return the Answer
	c.JSON(http.StatusOK, gin.H{"reply": response})
}
