package brain

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/matias-olea/inmobrain/internal/analytics"
	"github.com/matias-olea/inmobrain/internal/knowledge"
	"github.com/matias-olea/inmobrain/internal/models"
	"github.com/matias-olea/inmobrain/internal/providers/llm"
	"github.com/matias-olea/inmobrain/internal/utils"
)

const retrievalDocs = 3

// fallbackAnswer is what the user sees when the model itself is down. Tool
// failures never surface this: those go back to the model as tool output.
const fallbackAnswer = "Lo siento, ocurrió un error al procesar tu pregunta. Por favor intenta nuevamente."

// ToolCallRecord is the trace of one executed tool call, persisted with the
// chat turn for auditability.
type ToolCallRecord struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	Result    string `json:"result"`
}

type ChatResult struct {
	Answer    string
	Sources   []knowledge.Match
	ToolCalls []ToolCallRecord
}

// Agent orchestrates retrieval, tool calling and answer synthesis. At most
// one tool round per question: the model either answers directly or asks for
// tools once and then must answer with their results.
type Agent struct {
	provider  llm.Provider
	retriever knowledge.Searcher
	registry  *Registry
	log       *logrus.Logger
}

func NewAgent(provider llm.Provider, retriever knowledge.Searcher, registry *Registry, log *logrus.Logger) *Agent {
	return &Agent{provider: provider, retriever: retriever, registry: registry, log: log}
}

// conversation is an append-only message list. with copies before appending
// so callers holding earlier states never see them mutate.
type conversation []llm.Message

func (c conversation) with(m llm.Message) conversation {
	out := make(conversation, len(c), len(c)+1)
	copy(out, c)
	return append(out, m)
}

// Ask answers one analyst question. history carries prior user/assistant
// turns of the session, oldest first.
func (a *Agent) Ask(ctx context.Context, question string, history []llm.Message) (*ChatResult, error) {
	const op = "Agent.Ask"
	if strings.TrimSpace(question) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "question is required", nil)
	}

	sources := a.retriever.Search(ctx, question, retrievalDocs)

	msgs := conversation{{Role: llm.RoleSystem, Content: chatSystemPrompt}}
	for _, m := range history {
		if m.Role == llm.RoleUser || m.Role == llm.RoleAssistant {
			msgs = msgs.with(m)
		}
	}
	msgs = msgs.with(llm.Message{Role: llm.RoleUser, Content: questionWithContext(question, sources)})

	first, err := a.provider.Chat(ctx, msgs, a.registry.Definitions())
	if err != nil {
		a.log.WithError(err).Error("chat completion failed")
		return &ChatResult{Answer: fallbackAnswer, Sources: sources}, nil
	}

	if len(first.ToolCalls) == 0 {
		answer := first.Content
		if strings.TrimSpace(answer) == "" {
			answer = fallbackAnswer
		}
		return &ChatResult{Answer: answer, Sources: sources}, nil
	}

	msgs = msgs.with(llm.Message{Role: llm.RoleAssistant, Content: first.Content, ToolCalls: first.ToolCalls})

	records := make([]ToolCallRecord, 0, len(first.ToolCalls))
	for _, call := range first.ToolCalls {
		result := a.registry.Dispatch(ctx, call.Name, call.Arguments)
		records = append(records, ToolCallRecord{Name: call.Name, Arguments: call.Arguments, Result: result})
		msgs = msgs.with(llm.Message{
			Role:       llm.RoleTool,
			Content:    result,
			ToolCallID: call.ID,
			Name:       call.Name,
		})
	}

	second, err := a.provider.Chat(ctx, msgs, nil)
	if err != nil {
		a.log.WithError(err).Error("chat synthesis failed")
		return &ChatResult{Answer: fallbackAnswer, Sources: sources, ToolCalls: records}, nil
	}

	answer := second.Content
	if strings.TrimSpace(answer) == "" {
		answer = fallbackAnswer
	}
	return &ChatResult{Answer: answer, Sources: sources, ToolCalls: records}, nil
}

func questionWithContext(question string, sources []knowledge.Match) string {
	if len(sources) == 0 {
		return question
	}
	var b strings.Builder
	b.WriteString(question)
	b.WriteString("\n\nCONTEXTO HISTÓRICO RELEVANTE:\n")
	for _, m := range sources {
		b.WriteString("- ")
		b.WriteString(m.Content)
		if m.Topic != "" {
			b.WriteString(" (Fuente: ")
			b.WriteString(m.Topic)
			b.WriteString(")")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// DashboardPayload is the pre-aggregated frontend state analyzed verbatim.
type DashboardPayload struct {
	Filters             map[string]any `json:"filters"`
	Scope               string         `json:"scope"`
	KPIs                map[string]any `json:"kpis"`
	RegionData          any            `json:"regionData"`
	MixData             any            `json:"mixData"`
	PriceRangeData      any            `json:"priceRangeData"`
	TopCommunes         any            `json:"topCommunes"`
	TypologyCompetition any            `json:"typologyCompetition"`
}

// DashboardAnalysis produces a short narrative over already-aggregated
// dashboard data. No retrieval, no tools.
func (a *Agent) DashboardAnalysis(ctx context.Context, payload DashboardPayload) (string, error) {
	const op = "Agent.DashboardAnalysis"

	data, err := json.Marshal(payload)
	if err != nil {
		return "", utils.E(utils.CodeInvalidArgument, op, "invalid dashboard payload", err)
	}

	resp, err := a.provider.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: dashboardSystemPrompt},
		{Role: llm.RoleUser, Content: "Datos del dashboard:\n" + string(data)},
	}, nil)
	if err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "analysis generation failed", err)
	}
	return resp.Content, nil
}

// StreamDashboardAnalysis is the websocket variant: tokens as they arrive.
func (a *Agent) StreamDashboardAnalysis(ctx context.Context, payload DashboardPayload) (<-chan string, <-chan error) {
	data, err := json.Marshal(payload)
	if err != nil {
		errCh := make(chan error, 1)
		errCh <- utils.E(utils.CodeInvalidArgument, "Agent.StreamDashboardAnalysis", "invalid dashboard payload", err)
		close(errCh)
		tokens := make(chan string)
		close(tokens)
		return tokens, errCh
	}
	prompt := dashboardSystemPrompt + "\n\nDatos del dashboard:\n" + string(data)
	return a.provider.StreamAnswer(ctx, prompt)
}

// Narrative is the model-written portion of a generated report.
type Narrative struct {
	ExecutiveSummary   string `json:"executive_summary"`
	CompetitorAnalysis string `json:"competitor_analysis"`
}

// ReportNarrative asks the model for the executive summary and competitor
// analysis of a report. When the model replies with prose instead of the
// requested JSON, the prose becomes the summary rather than being dropped.
func (a *Agent) ReportNarrative(ctx context.Context, scope string, stats analytics.Stats, top []models.Project) (*Narrative, error) {
	const op = "Agent.ReportNarrative"

	resp, err := a.provider.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: narrativeSystemPrompt},
		{Role: llm.RoleUser, Content: narrativePrompt(scope, stats, top)},
	}, nil)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "narrative generation failed", err)
	}

	cleaned := stripJSONFence(resp.Content)
	var n Narrative
	if err := json.Unmarshal([]byte(cleaned), &n); err != nil || strings.TrimSpace(n.ExecutiveSummary) == "" {
		return &Narrative{
			ExecutiveSummary:   strings.TrimSpace(resp.Content),
			CompetitorAnalysis: "No se pudo estructurar el análisis detallado.",
		}, nil
	}
	return &n, nil
}

func narrativePrompt(scope string, stats analytics.Stats, top []models.Project) string {
	var b strings.Builder
	b.WriteString("Analiza el mercado inmobiliario en ")
	b.WriteString(scope)
	b.WriteString(".\n\nDatos Clave:\n")
	statsJSON, _ := json.Marshal(stats)
	b.Write(statsJSON)
	b.WriteString("\n\nPrincipales Proyectos por Velocidad de Venta:\n")
	for i := range top {
		p := &top[i]
		b.WriteString("- ")
		b.WriteString(p.Name)
		b.WriteString(" (")
		b.WriteString(p.Developer)
		b.WriteString(", ")
		b.WriteString(p.Commune)
		b.WriteString(")\n")
	}
	b.WriteString("\nGenera un JSON con las claves 'executive_summary' (resumen ejecutivo del estado del mercado) y 'competitor_analysis' (análisis de la competencia y sus estrategias).")
	return b.String()
}

func stripJSONFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
