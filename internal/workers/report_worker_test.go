package workers

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"

	"github.com/matias-olea/inmobrain/internal/analytics"
	"github.com/matias-olea/inmobrain/internal/brain"
	"github.com/matias-olea/inmobrain/internal/models"
	pgrepo "github.com/matias-olea/inmobrain/internal/repositories/postgres"
	"github.com/matias-olea/inmobrain/internal/reports"
	"github.com/matias-olea/inmobrain/internal/utils"
)

type mockReportRepo struct {
	Reports     map[string]*models.GeneratedReport
	CompleteErr error
	CompletedID string
	FailedID    string
}

func (m *mockReportRepo) Create(ctx context.Context, r *models.GeneratedReport) error { return nil }

func (m *mockReportRepo) GetByID(ctx context.Context, id string) (*models.GeneratedReport, error) {
	r, ok := m.Reports[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return r, nil
}

func (m *mockReportRepo) List(ctx context.Context, limit int) ([]models.GeneratedReport, error) {
	return nil, nil
}

func (m *mockReportRepo) SetCompleted(ctx context.Context, id string, content datatypes.JSON) error {
	if m.CompleteErr != nil {
		return m.CompleteErr
	}
	m.CompletedID = id
	return nil
}

func (m *mockReportRepo) SetFailed(ctx context.Context, id, errorMessage string) error {
	m.FailedID = id
	return nil
}

type mockProjectsRepo struct{}

func (mockProjectsRepo) List(ctx context.Context, f pgrepo.ProjectFilter) ([]models.Project, error) {
	return []models.Project{{ID: "p1", Name: "Uno"}}, nil
}

func (mockProjectsRepo) ListTypologies(ctx context.Context, projectIDs []string) ([]models.Typology, error) {
	return nil, nil
}

func (mockProjectsRepo) ListMetricHistory(ctx context.Context, projectIDs []string, from, to time.Time) ([]models.MetricsSnapshot, error) {
	return nil, nil
}

func (mockProjectsRepo) Communes(ctx context.Context) ([]string, error) { return nil, nil }

type mockWriter struct{}

func (mockWriter) ReportNarrative(ctx context.Context, scope string, stats analytics.Stats, top []models.Project) (*brain.Narrative, error) {
	return &brain.Narrative{ExecutiveSummary: "resumen", CompetitorAnalysis: "competencia"}, nil
}

// unreachableRedis fails every command fast; status publishes are best-effort
// and must not affect the outcome.
func unreachableRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func newTestPool(repo *mockReportRepo) *ReportWorkerPool {
	lg := logrus.New()
	lg.SetOutput(io.Discard)
	return &ReportWorkerPool{
		Redis:     unreachableRedis(),
		Generator: reports.NewGenerator(repo, mockProjectsRepo{}, mockWriter{}, lg),
		Logger:    lg,
	}
}

func generatingReport(id string) *models.GeneratedReport {
	return &models.GeneratedReport{
		ID:         id,
		Title:      "Reporte",
		ReportType: models.ReportCommuneMarket,
		Parameters: datatypes.JSON(`{"commune":"Ñuñoa"}`),
		Status:     models.ReportGenerating,
	}
}

func TestHandleMsgAcksCompletedJob(t *testing.T) {
	repo := &mockReportRepo{Reports: map[string]*models.GeneratedReport{
		"r1": generatingReport("r1"),
	}}
	pool := newTestPool(repo)

	err := pool.handleMsg(context.Background(), redis.XMessage{
		ID:     "1-0",
		Values: map[string]any{"report_id": "r1"},
	})

	assert.NoError(t, err)
	assert.Equal(t, "r1", repo.CompletedID)
}

func TestHandleMsgKeepsJobWhenTerminalWriteFails(t *testing.T) {
	repo := &mockReportRepo{
		Reports:     map[string]*models.GeneratedReport{"r1": generatingReport("r1")},
		CompleteErr: errors.New("deadlock"),
	}
	pool := newTestPool(repo)

	err := pool.handleMsg(context.Background(), redis.XMessage{
		ID:     "1-0",
		Values: map[string]any{"report_id": "r1"},
	})

	// no ack: the entry must stay pending so the claim pass replays it
	assert.Error(t, err)
	assert.Empty(t, repo.CompletedID)
}

func TestHandleMsgDropsDeletedReport(t *testing.T) {
	pool := newTestPool(&mockReportRepo{})

	err := pool.handleMsg(context.Background(), redis.XMessage{
		ID:     "1-0",
		Values: map[string]any{"report_id": "gone"},
	})

	assert.NoError(t, err)
}

func TestHandleMsgDropsMalformedEntry(t *testing.T) {
	pool := newTestPool(&mockReportRepo{})

	err := pool.handleMsg(context.Background(), redis.XMessage{ID: "1-0", Values: map[string]any{}})

	assert.NoError(t, err)
}
