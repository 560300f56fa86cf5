package models

import "time"

// Project is a row of the ingested project inventory. Numeric columns are
// nullable in the source CSVs, so they stay pointers here: a missing price is
// not a zero price.
type Project struct {
	ID        string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name      string `gorm:"column:name;type:text" json:"name"`
	Developer string `gorm:"column:developer;type:text" json:"developer"`
	Commune   string `gorm:"column:commune;type:text;index" json:"commune"`
	Region    string `gorm:"column:region;type:text;index" json:"region"`
	Address   string `gorm:"column:address;type:text" json:"address"`

	Latitude  *float64 `gorm:"column:latitude;type:double precision" json:"latitude"`
	Longitude *float64 `gorm:"column:longitude;type:double precision" json:"longitude"`

	TotalUnits     *int `gorm:"column:total_units" json:"total_units"`
	SoldUnits      *int `gorm:"column:sold_units" json:"sold_units"`
	AvailableUnits *int `gorm:"column:available_units" json:"available_units"`

	SalesSpeedMonthly *float64 `gorm:"column:sales_speed_monthly" json:"sales_speed_monthly"`

	AvgPriceUF   *float64 `gorm:"column:avg_price_uf" json:"avg_price_uf"`
	AvgPriceM2UF *float64 `gorm:"column:avg_price_m2_uf" json:"avg_price_m2_uf"`
	MinPriceUF   *float64 `gorm:"column:min_price_uf" json:"min_price_uf"`
	MaxPriceUF   *float64 `gorm:"column:max_price_uf" json:"max_price_uf"`

	ProjectStatus string `gorm:"column:project_status;type:text" json:"project_status"`
	PropertyType  string `gorm:"column:property_type;type:text" json:"property_type"`
	Category      string `gorm:"column:category;type:text" json:"category"`
	SubsidyType   string `gorm:"column:subsidy_type;type:text" json:"subsidy_type"`

	Year   *int   `gorm:"column:year" json:"year"`
	Period string `gorm:"column:period;type:text" json:"period"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (Project) TableName() string { return "projects" }

// Typology is a unit configuration (bedrooms/bathrooms mix) inside a project.
type Typology struct {
	ID        string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProjectID string `gorm:"column:project_id;type:uuid;index" json:"project_id"`

	// Explicit typology code from the source when present (ex: "2D2B");
	// derived from bedrooms+bathrooms otherwise.
	Code string `gorm:"column:code;type:text" json:"code"`

	Bedrooms  *int     `gorm:"column:bedrooms" json:"bedrooms"`
	Bathrooms *int     `gorm:"column:bathrooms" json:"bathrooms"`
	SurfaceM2 *float64 `gorm:"column:surface_m2" json:"surface_m2"`

	Stock      *int `gorm:"column:stock" json:"stock"`
	TotalUnits *int `gorm:"column:total_units" json:"total_units"`

	CurrentPriceUF *float64 `gorm:"column:current_price_uf" json:"current_price_uf"`
	PricePerM2UF   *float64 `gorm:"column:price_per_m2_uf" json:"price_per_m2_uf"`
}

func (Typology) TableName() string { return "project_typologies" }
