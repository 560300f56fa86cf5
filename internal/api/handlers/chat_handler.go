package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/matias-olea/inmobrain/internal/brain"
	"github.com/matias-olea/inmobrain/internal/providers/llm"
	"github.com/matias-olea/inmobrain/internal/services"
	"github.com/matias-olea/inmobrain/internal/utils"
)

type ChatHandler struct {
	chat  services.ChatService
	agent *brain.Agent
}

func NewChatHandler(chat services.ChatService, agent *brain.Agent) *ChatHandler {
	return &ChatHandler{chat: chat, agent: agent}
}

type ChatHistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Question  string `json:"question" binding:"required"`
	SessionID string `json:"session_id"`
	// Optional client-held transcript; overrides the stored session history.
	ConversationHistory []ChatHistoryEntry `json:"conversation_history"`
}

func (r *ChatRequest) historyMessages() []llm.Message {
	msgs := make([]llm.Message, 0, len(r.ConversationHistory))
	for _, e := range r.ConversationHistory {
		switch e.Role {
		case llm.RoleUser, llm.RoleAssistant:
			msgs = append(msgs, llm.Message{Role: e.Role, Content: e.Content})
		}
	}
	return msgs
}

func (h *ChatHandler) Ask(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ChatHandler.Ask", "invalid request body", err))
		return
	}

	answer, err := h.chat.Ask(c.Request.Context(), userID, req.SessionID, req.Question, req.historyMessages())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, answer)
}

func (h *ChatHandler) History(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	turns, err := h.chat.History(c.Request.Context(), c.Param("session_id"), 50)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"turns": turns})
}

func (h *ChatHandler) Recent(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	turns, err := h.chat.Recent(c.Request.Context(), userID, 20)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"turns": turns})
}

type DashboardAnalysisResponse struct {
	Analysis  string    `json:"analysis"`
	Timestamp time.Time `json:"timestamp"`
}

func (h *ChatHandler) DashboardAnalysis(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	var payload brain.DashboardPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ChatHandler.DashboardAnalysis", "invalid request body", err))
		return
	}

	analysis, err := h.agent.DashboardAnalysis(c.Request.Context(), payload)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, DashboardAnalysisResponse{
		Analysis:  analysis,
		Timestamp: time.Now().UTC(),
	})
}
