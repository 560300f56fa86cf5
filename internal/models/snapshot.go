package models

import "time"

// MetricsSnapshot is an append-only time series row: one entry per project per
// snapshot date, written by the TINSA importer. Unique on (project_id, recorded_at).
type MetricsSnapshot struct {
	ID         string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProjectID  string    `gorm:"column:project_id;type:uuid;uniqueIndex:idx_snapshot_project_date" json:"project_id"`
	RecordedAt time.Time `gorm:"column:recorded_at;type:date;uniqueIndex:idx_snapshot_project_date" json:"recorded_at"`

	Stock           *int     `gorm:"column:stock" json:"stock"`
	SoldAccumulated *int     `gorm:"column:sold_accumulated" json:"sold_accumulated"`
	SalesMonthly    *float64 `gorm:"column:sales_monthly" json:"sales_monthly"`
	PriceAvgUF      *float64 `gorm:"column:price_avg_uf" json:"price_avg_uf"`
	PriceAvgM2      *float64 `gorm:"column:price_avg_m2" json:"price_avg_m2"`
	MonthsToSellOut *float64 `gorm:"column:months_to_sell_out" json:"months_to_sell_out"`
}

func (MetricsSnapshot) TableName() string { return "project_metrics_history" }
