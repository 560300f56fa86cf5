package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/matias-olea/inmobrain/internal/analytics"
	"github.com/matias-olea/inmobrain/internal/brain"
	"github.com/matias-olea/inmobrain/internal/models"
	pgrepo "github.com/matias-olea/inmobrain/internal/repositories/postgres"
)

const trendMonths = 6

// narrativeFallback replaces the model-written sections when the model is
// unreachable. The statistical sections are computed locally and stay valid.
const narrativeFallback = "No fue posible generar el análisis narrativo. Las secciones estadísticas del reporte mantienen su validez."

// Params is the scoping input of a report, decoded from the JSONB column.
// Which fields are required depends on the report type.
type Params struct {
	Commune      string   `json:"commune"`
	Communes     []string `json:"communes"`
	PropertyType string   `json:"property_type"`
	Polygon      []Point  `json:"polygon"`
}

// NarrativeWriter is the slice of the agent the generator needs.
type NarrativeWriter interface {
	ReportNarrative(ctx context.Context, scope string, stats analytics.Stats, top []models.Project) (*brain.Narrative, error)
}

// Generator drives a report from generating to a terminal status. Every
// consumed report id ends completed or failed; only repository write
// failures leave the row untouched, and those bubble up for retry.
type Generator struct {
	reports  pgrepo.ReportRepo
	projects pgrepo.ProjectRepo
	writer   NarrativeWriter
	log      *logrus.Logger
}

func NewGenerator(reports pgrepo.ReportRepo, projects pgrepo.ProjectRepo, writer NarrativeWriter, log *logrus.Logger) *Generator {
	return &Generator{reports: reports, projects: projects, writer: writer, log: log}
}

// Run generates the report and persists the outcome. The returned status is
// the terminal state written to the row.
func (g *Generator) Run(ctx context.Context, reportID string) (models.ReportStatus, error) {
	rep, err := g.reports.GetByID(ctx, reportID)
	if err != nil {
		return "", err
	}
	if rep.Status != models.ReportGenerating {
		// already terminal, nothing to redo
		return rep.Status, nil
	}

	content, err := g.build(ctx, rep)
	if err != nil {
		g.log.WithError(err).WithField("report_id", reportID).Warn("report generation failed")
		if ferr := g.reports.SetFailed(ctx, reportID, err.Error()); ferr != nil {
			return "", ferr
		}
		return models.ReportFailed, nil
	}

	body, err := json.Marshal(content)
	if err != nil {
		if ferr := g.reports.SetFailed(ctx, reportID, err.Error()); ferr != nil {
			return "", ferr
		}
		return models.ReportFailed, nil
	}
	if err := g.reports.SetCompleted(ctx, reportID, datatypes.JSON(body)); err != nil {
		return "", err
	}
	return models.ReportCompleted, nil
}

func (g *Generator) build(ctx context.Context, rep *models.GeneratedReport) (*Content, error) {
	var params Params
	if len(rep.Parameters) > 0 {
		if err := json.Unmarshal(rep.Parameters, &params); err != nil {
			return nil, fmt.Errorf("parámetros de reporte inválidos: %v", err)
		}
	}

	switch rep.ReportType {
	case models.ReportCommuneMarket, models.ReportProjectBenchmark:
		return g.communeReport(ctx, rep.Title, params)
	case models.ReportMultiCommune:
		return g.multiCommuneReport(ctx, rep.Title, params)
	case models.ReportAreaPolygon:
		return g.areaReport(ctx, rep.Title, params)
	default:
		return nil, fmt.Errorf("tipo de reporte desconocido: %s", rep.ReportType)
	}
}

func (g *Generator) communeReport(ctx context.Context, title string, params Params) (*Content, error) {
	commune := strings.TrimSpace(params.Commune)
	if commune == "" {
		return nil, fmt.Errorf(`se requiere el parámetro "commune"`)
	}

	rows, err := g.projects.List(ctx, pgrepo.ProjectFilter{
		Commune:      commune,
		PropertyType: params.PropertyType,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return noResultsContent(title, "la comuna "+commune), nil
	}

	ds, err := g.dataset(ctx, rows)
	if err != nil {
		return nil, err
	}
	narrative := g.narrative(ctx, "la comuna "+commune, ds)
	return marketContent(title, narrative, ds), nil
}

func (g *Generator) multiCommuneReport(ctx context.Context, title string, params Params) (*Content, error) {
	if len(params.Communes) < 2 {
		return nil, fmt.Errorf(`se requieren al menos dos comunas en "communes"`)
	}

	communeRows := make([]CommuneRow, 0, len(params.Communes))
	var combined []models.Project
	for _, commune := range params.Communes {
		rows, err := g.projects.List(ctx, pgrepo.ProjectFilter{
			Communes:     []string{commune},
			PropertyType: params.PropertyType,
		})
		if err != nil {
			return nil, err
		}
		row := CommuneRow{Commune: commune}
		if len(rows) == 0 {
			row.NoData = true
		} else {
			row.Stats = analytics.MarketStats(rows)
			combined = append(combined, rows...)
		}
		communeRows = append(communeRows, row)
	}
	if len(combined) == 0 {
		return noResultsContent(title, "las comunas seleccionadas"), nil
	}

	ds, err := g.dataset(ctx, combined)
	if err != nil {
		return nil, err
	}
	scope := "las comunas " + strings.Join(params.Communes, ", ")
	narrative := g.narrative(ctx, scope, ds)
	return comparisonContent(title, narrative, communeRows, ds), nil
}

func (g *Generator) areaReport(ctx context.Context, title string, params Params) (*Content, error) {
	if len(params.Polygon) < 3 {
		return nil, fmt.Errorf("se requiere un polígono con al menos 3 vértices")
	}

	all, err := g.projects.List(ctx, pgrepo.ProjectFilter{PropertyType: params.PropertyType})
	if err != nil {
		return nil, err
	}
	rows := FilterByPolygon(all, params.Polygon)
	if len(rows) == 0 {
		return noResultsContent(title, "la zona dibujada"), nil
	}

	ds, err := g.dataset(ctx, rows)
	if err != nil {
		return nil, err
	}
	narrative := g.narrative(ctx, "la zona personalizada dibujada", ds)
	return marketContent(title, narrative, ds), nil
}

func (g *Generator) dataset(ctx context.Context, rows []models.Project) (marketDataset, error) {
	ids := make([]string, 0, len(rows))
	for i := range rows {
		ids = append(ids, rows[i].ID)
	}

	typologies, err := g.projects.ListTypologies(ctx, ids)
	if err != nil {
		return marketDataset{}, err
	}
	snapshots, err := g.projects.ListMetricHistory(ctx, ids,
		time.Now().AddDate(0, -trendMonths, 0), time.Now())
	if err != nil {
		return marketDataset{}, err
	}
	return newDataset(rows, typologies, snapshots), nil
}

func (g *Generator) narrative(ctx context.Context, scope string, ds marketDataset) *brain.Narrative {
	n, err := g.writer.ReportNarrative(ctx, scope, ds.stats, ds.top)
	if err != nil {
		g.log.WithError(err).Warn("narrative generation failed, using fallback")
		return &brain.Narrative{ExecutiveSummary: narrativeFallback}
	}
	return n
}
