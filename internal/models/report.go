package models

import (
	"time"

	"gorm.io/datatypes"
)

type ReportStatus string

const (
	ReportGenerating ReportStatus = "generating"
	ReportCompleted  ReportStatus = "completed"
	ReportFailed     ReportStatus = "failed"
)

type ReportType string

const (
	ReportCommuneMarket    ReportType = "COMMUNE_MARKET"
	ReportMultiCommune     ReportType = "MULTI_COMMUNE"
	ReportProjectBenchmark ReportType = "PROJECT_BENCHMARK"
	ReportAreaPolygon      ReportType = "AREA_POLYGON"
)

// GeneratedReport is created in "generating" state before any data fetch and
// transitions exactly once to "completed" (with content) or "failed" (with
// error_message). Immutable after that.
type GeneratedReport struct {
	ID         string     `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Title      string     `gorm:"column:title;type:text" json:"title"`
	ReportType ReportType `gorm:"column:report_type;type:text" json:"report_type"`

	Parameters datatypes.JSON `gorm:"column:parameters;type:jsonb" json:"parameters"`

	Status       ReportStatus   `gorm:"column:status;type:text;index" json:"status"`
	Content      datatypes.JSON `gorm:"column:content;type:jsonb" json:"content,omitempty"`
	ErrorMessage string         `gorm:"column:error_message;type:text" json:"error_message,omitempty"`

	OwnerID   string    `gorm:"column:owner_id;type:uuid;index" json:"owner_id"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (GeneratedReport) TableName() string { return "generated_reports" }
