package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/matias-olea/inmobrain/internal/models"
	"gorm.io/gorm"
)

// ProjectFilter scopes project reads. String filters are case-insensitive
// substring matches except Region, which is an exact (upper-cased) match.
type ProjectFilter struct {
	Commune      string
	Communes     []string
	Region       string
	PropertyType string
	MinPrice     *float64
	MaxPrice     *float64
	MinUnits     *int
	Limit        int
}

type ProjectRepo interface {
	List(ctx context.Context, f ProjectFilter) ([]models.Project, error)
	ListTypologies(ctx context.Context, projectIDs []string) ([]models.Typology, error)
	ListMetricHistory(ctx context.Context, projectIDs []string, from, to time.Time) ([]models.MetricsSnapshot, error)
	Communes(ctx context.Context) ([]string, error)
}

type projectRepo struct {
	db *gorm.DB
}

func NewProjectRepo(db *gorm.DB) ProjectRepo {
	return &projectRepo{db: db}
}

func (r *projectRepo) List(ctx context.Context, f ProjectFilter) ([]models.Project, error) {
	q := r.db.WithContext(ctx).Model(&models.Project{})

	if f.Commune != "" {
		q = q.Where("commune ILIKE ?", "%"+f.Commune+"%")
	}
	if len(f.Communes) > 0 {
		upper := make([]string, 0, len(f.Communes))
		for _, c := range f.Communes {
			upper = append(upper, strings.ToUpper(strings.TrimSpace(c)))
		}
		q = q.Where("UPPER(commune) IN ?", upper)
	}
	if f.Region != "" {
		q = q.Where("region = ?", strings.ToUpper(f.Region))
	}
	if f.PropertyType != "" {
		q = q.Where("property_type ILIKE ?", "%"+f.PropertyType+"%")
	}
	if f.MinPrice != nil {
		q = q.Where("avg_price_uf >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("avg_price_uf <= ?", *f.MaxPrice)
	}
	if f.MinUnits != nil {
		q = q.Where("total_units >= ?", *f.MinUnits)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var rows []models.Project
	err := q.Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *projectRepo) ListTypologies(ctx context.Context, projectIDs []string) ([]models.Typology, error) {
	if len(projectIDs) == 0 {
		return nil, nil
	}
	var rows []models.Typology
	err := r.db.WithContext(ctx).
		Where("project_id IN ?", projectIDs).
		Order("project_id, code").
		Find(&rows).Error
	return rows, err
}

func (r *projectRepo) ListMetricHistory(ctx context.Context, projectIDs []string, from, to time.Time) ([]models.MetricsSnapshot, error) {
	if len(projectIDs) == 0 {
		return nil, nil
	}
	var rows []models.MetricsSnapshot
	err := r.db.WithContext(ctx).
		Where("project_id IN ? AND recorded_at >= ? AND recorded_at <= ?", projectIDs, from, to).
		Order("recorded_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *projectRepo) Communes(ctx context.Context) ([]string, error) {
	var rows []string
	err := r.db.WithContext(ctx).
		Model(&models.Project{}).
		Distinct("commune").
		Where("commune <> ''").
		Order("commune ASC").
		Pluck("commune", &rows).Error
	return rows, err
}
