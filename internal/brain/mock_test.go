package brain

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/matias-olea/inmobrain/internal/knowledge"
	"github.com/matias-olea/inmobrain/internal/models"
	"github.com/matias-olea/inmobrain/internal/providers/llm"
	pgrepo "github.com/matias-olea/inmobrain/internal/repositories/postgres"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type mockProjectRepo struct {
	Projects    []models.Project
	ListErr     error
	LastFilter  pgrepo.ProjectFilter
	Typologies  []models.Typology
	TypologyErr error
	Snapshots   []models.MetricsSnapshot
	HistoryErr  error
	CommuneList []string
}

func (m *mockProjectRepo) List(ctx context.Context, f pgrepo.ProjectFilter) ([]models.Project, error) {
	m.LastFilter = f
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.Projects, nil
}

func (m *mockProjectRepo) ListTypologies(ctx context.Context, projectIDs []string) ([]models.Typology, error) {
	if m.TypologyErr != nil {
		return nil, m.TypologyErr
	}
	return m.Typologies, nil
}

func (m *mockProjectRepo) ListMetricHistory(ctx context.Context, projectIDs []string, from, to time.Time) ([]models.MetricsSnapshot, error) {
	if m.HistoryErr != nil {
		return nil, m.HistoryErr
	}
	return m.Snapshots, nil
}

func (m *mockProjectRepo) Communes(ctx context.Context) ([]string, error) {
	return m.CommuneList, nil
}

// mockCache always misses unless primed; writes are recorded by key.
type mockCache struct {
	Stored map[string]any
}

func (m *mockCache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	return false, nil
}

func (m *mockCache) SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error {
	if m.Stored == nil {
		m.Stored = map[string]any{}
	}
	m.Stored[key] = val
	return nil
}

func (m *mockCache) Del(ctx context.Context, keys ...string) error { return nil }

// mockProvider replays queued responses across successive Chat calls.
type mockProvider struct {
	Responses []*llm.ChatResponse
	Errs      []error
	Calls     [][]llm.Message
	ToolDefs  [][]llm.ToolDef
}

func (m *mockProvider) Chat(ctx context.Context, messages []llm.Message, tools []llm.ToolDef) (*llm.ChatResponse, error) {
	m.Calls = append(m.Calls, messages)
	m.ToolDefs = append(m.ToolDefs, tools)
	i := len(m.Calls) - 1
	if i < len(m.Errs) && m.Errs[i] != nil {
		return nil, m.Errs[i]
	}
	if i < len(m.Responses) {
		return m.Responses[i], nil
	}
	return &llm.ChatResponse{Content: "ok"}, nil
}

func (m *mockProvider) StreamAnswer(ctx context.Context, prompt string) (<-chan string, <-chan error) {
	out := make(chan string, 1)
	errs := make(chan error, 1)
	out <- "stream"
	close(out)
	close(errs)
	return out, errs
}

func (m *mockProvider) Close() error { return nil }

type mockSearcher struct {
	Matches []knowledge.Match
	Queries []string
}

func (m *mockSearcher) Search(ctx context.Context, query string, limit int) []knowledge.Match {
	m.Queries = append(m.Queries, query)
	return m.Matches
}
