package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"

	"github.com/matias-olea/inmobrain/internal/models"
	pgrepo "github.com/matias-olea/inmobrain/internal/repositories/postgres"
	"github.com/matias-olea/inmobrain/internal/utils"
)

const ReportStream = "reports:stream"

type ReportService interface {
	Generate(ctx context.Context, ownerID, title string, reportType models.ReportType, parameters json.RawMessage) (*models.GeneratedReport, error)
	Get(ctx context.Context, id string) (*models.GeneratedReport, error)
	List(ctx context.Context, limit int) ([]models.GeneratedReport, error)
	Communes(ctx context.Context) ([]string, error)
}

type reportService struct {
	reports  pgrepo.ReportRepo
	projects pgrepo.ProjectRepo
	redis    *redis.Client
}

func NewReportService(reports pgrepo.ReportRepo, projects pgrepo.ProjectRepo, rdb *redis.Client) ReportService {
	return &reportService{reports: reports, projects: projects, redis: rdb}
}

// Generate persists the report in generating state and enqueues the job.
// The caller polls the returned row until a worker lands it in a terminal
// status.
func (s *reportService) Generate(ctx context.Context, ownerID, title string, reportType models.ReportType, parameters json.RawMessage) (*models.GeneratedReport, error) {
	const op = "ReportService.Generate"

	if strings.TrimSpace(title) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "title is required", nil)
	}
	switch reportType {
	case models.ReportCommuneMarket, models.ReportMultiCommune,
		models.ReportProjectBenchmark, models.ReportAreaPolygon:
	default:
		return nil, utils.E(utils.CodeInvalidArgument, op, "unknown report_type", nil)
	}
	if len(parameters) == 0 {
		parameters = json.RawMessage("{}")
	}

	rep := &models.GeneratedReport{
		ID:         uuid.NewString(),
		Title:      title,
		ReportType: reportType,
		Parameters: datatypes.JSON(parameters),
		Status:     models.ReportGenerating,
		OwnerID:    ownerID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.reports.Create(ctx, rep); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create report record", err)
	}

	err := s.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: ReportStream,
		Values: map[string]any{"report_id": rep.ID},
	}).Err()
	if err != nil {
		// never leave the row stuck in generating
		if ferr := s.reports.SetFailed(ctx, rep.ID, "no fue posible encolar la generación del reporte"); ferr == nil {
			rep.Status = models.ReportFailed
			rep.ErrorMessage = "no fue posible encolar la generación del reporte"
		}
		return nil, utils.E(utils.CodeUnavailable, op, "failed to enqueue report job", err)
	}
	return rep, nil
}

func (s *reportService) Get(ctx context.Context, id string) (*models.GeneratedReport, error) {
	const op = "ReportService.Get"

	if id == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "report id is required", nil)
	}
	rep, err := s.reports.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "report not found", nil)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load report", err)
	}
	return rep, nil
}

func (s *reportService) List(ctx context.Context, limit int) ([]models.GeneratedReport, error) {
	const op = "ReportService.List"

	rows, err := s.reports.List(ctx, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list reports", err)
	}
	return rows, nil
}

func (s *reportService) Communes(ctx context.Context) ([]string, error) {
	const op = "ReportService.Communes"

	communes, err := s.projects.Communes(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list communes", err)
	}
	return communes, nil
}
