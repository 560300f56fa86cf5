package reports

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/matias-olea/inmobrain/internal/analytics"
	"github.com/matias-olea/inmobrain/internal/brain"
	"github.com/matias-olea/inmobrain/internal/models"
	pgrepo "github.com/matias-olea/inmobrain/internal/repositories/postgres"
	"github.com/matias-olea/inmobrain/internal/utils"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }

// mockReportRepo records state transitions instead of hitting Postgres.
type mockReportRepo struct {
	Reports map[string]*models.GeneratedReport

	CompletedID      string
	CompletedContent datatypes.JSON
	FailedID         string
	FailedMessage    string

	CompleteErr error
	FailErr     error
}

func (m *mockReportRepo) Create(ctx context.Context, r *models.GeneratedReport) error {
	if m.Reports == nil {
		m.Reports = map[string]*models.GeneratedReport{}
	}
	m.Reports[r.ID] = r
	return nil
}

func (m *mockReportRepo) GetByID(ctx context.Context, id string) (*models.GeneratedReport, error) {
	r, ok := m.Reports[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return r, nil
}

func (m *mockReportRepo) List(ctx context.Context, limit int) ([]models.GeneratedReport, error) {
	out := make([]models.GeneratedReport, 0, len(m.Reports))
	for _, r := range m.Reports {
		out = append(out, *r)
	}
	return out, nil
}

func (m *mockReportRepo) SetCompleted(ctx context.Context, id string, content datatypes.JSON) error {
	if m.CompleteErr != nil {
		return m.CompleteErr
	}
	m.CompletedID = id
	m.CompletedContent = content
	return nil
}

func (m *mockReportRepo) SetFailed(ctx context.Context, id, errorMessage string) error {
	if m.FailErr != nil {
		return m.FailErr
	}
	m.FailedID = id
	m.FailedMessage = errorMessage
	return nil
}

// mockProjectsRepo serves projects per commune and records the filters the
// generator asked with.
type mockProjectsRepo struct {
	All        []models.Project
	ByCommune  map[string][]models.Project
	ListErr    error
	Filters    []pgrepo.ProjectFilter
	Typologies []models.Typology
	Snapshots  []models.MetricsSnapshot
}

func (m *mockProjectsRepo) List(ctx context.Context, f pgrepo.ProjectFilter) ([]models.Project, error) {
	m.Filters = append(m.Filters, f)
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	if f.Commune != "" {
		return m.ByCommune[f.Commune], nil
	}
	if len(f.Communes) == 1 {
		return m.ByCommune[f.Communes[0]], nil
	}
	return m.All, nil
}

func (m *mockProjectsRepo) ListTypologies(ctx context.Context, projectIDs []string) ([]models.Typology, error) {
	return m.Typologies, nil
}

func (m *mockProjectsRepo) ListMetricHistory(ctx context.Context, projectIDs []string, from, to time.Time) ([]models.MetricsSnapshot, error) {
	return m.Snapshots, nil
}

func (m *mockProjectsRepo) Communes(ctx context.Context) ([]string, error) { return nil, nil }

// mockWriter returns a fixed narrative, or an error when primed with one.
type mockWriter struct {
	Err    error
	Scopes []string
}

func (m *mockWriter) ReportNarrative(ctx context.Context, scope string, stats analytics.Stats, top []models.Project) (*brain.Narrative, error) {
	m.Scopes = append(m.Scopes, scope)
	if m.Err != nil {
		return nil, m.Err
	}
	return &brain.Narrative{
		ExecutiveSummary:   "Resumen ejecutivo de prueba.",
		CompetitorAnalysis: "Análisis de competencia de prueba.",
	}, nil
}
