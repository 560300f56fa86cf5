package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/matias-olea/inmobrain/internal/brain"
	"github.com/matias-olea/inmobrain/internal/models"
	"github.com/matias-olea/inmobrain/internal/providers/llm"
	mongorepo "github.com/matias-olea/inmobrain/internal/repositories/mongo"
	"github.com/matias-olea/inmobrain/internal/utils"
)

const historyTurns = 10

type ChatAnswer struct {
	SessionID string                 `json:"session_id"`
	Answer    string                 `json:"answer"`
	Sources   []models.ChatSource    `json:"sources,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	ToolCalls []models.ChatToolTrace `json:"tool_calls,omitempty"`
}

type ChatService interface {
	Ask(ctx context.Context, userID, sessionID, question string, clientHistory []llm.Message) (*ChatAnswer, error)
	History(ctx context.Context, sessionID string, limit int) ([]models.ChatTurn, error)
	Recent(ctx context.Context, userID string, limit int) ([]models.ChatTurn, error)
}

type chatService struct {
	agent *brain.Agent
	chats mongorepo.ChatRepository
	log   *logrus.Logger
}

func NewChatService(agent *brain.Agent, chats mongorepo.ChatRepository, log *logrus.Logger) ChatService {
	return &chatService{agent: agent, chats: chats, log: log}
}

// Ask answers one question. Conversation memory comes from the request body
// when the client sends it, from the stored session transcript otherwise.
func (s *chatService) Ask(ctx context.Context, userID, sessionID, question string, clientHistory []llm.Message) (*ChatAnswer, error) {
	const op = "ChatService.Ask"

	if strings.TrimSpace(question) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "question is required", nil)
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	memory := clientHistory
	if len(memory) == 0 {
		history, err := s.chats.ListBySession(ctx, sessionID, historyTurns)
		if err != nil {
			// degraded: answer without conversation memory
			s.log.WithError(err).Warn("chat history fetch failed")
			history = nil
		}
		memory = historyMessages(history)
	}

	result, err := s.agent.Ask(ctx, question, memory)
	if err != nil {
		return nil, err
	}

	turn := &models.ChatTurn{
		SessionID: sessionID,
		UserID:    userID,
		Question:  question,
		Answer:    result.Answer,
		CreatedAt: time.Now().UTC(),
	}
	for _, m := range result.Sources {
		turn.Sources = append(turn.Sources, models.ChatSource{Content: m.Content, Source: m.Source, Topic: m.Topic})
	}
	for _, tc := range result.ToolCalls {
		turn.ToolCalls = append(turn.ToolCalls, models.ChatToolTrace{Name: tc.Name, Arguments: tc.Arguments, Result: tc.Result})
	}
	if err := s.chats.Append(ctx, turn); err != nil {
		// the answer is more valuable than the transcript
		s.log.WithError(err).Warn("chat turn persist failed")
	}

	return &ChatAnswer{
		SessionID: sessionID,
		Answer:    result.Answer,
		Sources:   turn.Sources,
		ToolCalls: turn.ToolCalls,
		Timestamp: turn.CreatedAt,
	}, nil
}

func (s *chatService) History(ctx context.Context, sessionID string, limit int) ([]models.ChatTurn, error) {
	const op = "ChatService.History"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	turns, err := s.chats.ListBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list chat history", err)
	}
	return turns, nil
}

// Recent lists the user's latest turns across all sessions, newest first.
func (s *chatService) Recent(ctx context.Context, userID string, limit int) ([]models.ChatTurn, error) {
	const op = "ChatService.Recent"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user id is required", nil)
	}
	turns, err := s.chats.LatestByUser(ctx, userID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list recent chats", err)
	}
	return turns, nil
}

func historyMessages(turns []models.ChatTurn) []llm.Message {
	msgs := make([]llm.Message, 0, len(turns)*2)
	for i := range turns {
		t := &turns[i]
		msgs = append(msgs,
			llm.Message{Role: llm.RoleUser, Content: t.Question},
			llm.Message{Role: llm.RoleAssistant, Content: t.Answer},
		)
	}
	return msgs
}
