package postgres

import (
	"context"
	"errors"

	"github.com/matias-olea/inmobrain/internal/models"
	"github.com/matias-olea/inmobrain/internal/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ReportRepo interface {
	Create(ctx context.Context, r *models.GeneratedReport) error
	GetByID(ctx context.Context, id string) (*models.GeneratedReport, error)
	List(ctx context.Context, limit int) ([]models.GeneratedReport, error)
	SetCompleted(ctx context.Context, id string, content datatypes.JSON) error
	SetFailed(ctx context.Context, id, errorMessage string) error
}

type reportRepo struct {
	db *gorm.DB
}

func NewReportRepo(db *gorm.DB) ReportRepo {
	return &reportRepo{db: db}
}

func (r *reportRepo) Create(ctx context.Context, rep *models.GeneratedReport) error {
	return r.db.WithContext(ctx).Create(rep).Error
}

func (r *reportRepo) GetByID(ctx context.Context, id string) (*models.GeneratedReport, error) {
	var rep models.GeneratedReport
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&rep).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &rep, err
}

func (r *reportRepo) List(ctx context.Context, limit int) ([]models.GeneratedReport, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []models.GeneratedReport
	err := r.db.WithContext(ctx).
		Select("id, title, report_type, parameters, status, error_message, owner_id, created_at").
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *reportRepo) SetCompleted(ctx context.Context, id string, content datatypes.JSON) error {
	return r.db.WithContext(ctx).
		Model(&models.GeneratedReport{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":  models.ReportCompleted,
			"content": content,
		}).Error
}

func (r *reportRepo) SetFailed(ctx context.Context, id, errorMessage string) error {
	return r.db.WithContext(ctx).
		Model(&models.GeneratedReport{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        models.ReportFailed,
			"error_message": errorMessage,
		}).Error
}
