package brain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/matias-olea/inmobrain/internal/cache"
	"github.com/matias-olea/inmobrain/internal/providers/llm"
	pgrepo "github.com/matias-olea/inmobrain/internal/repositories/postgres"
)

const (
	statsCacheTTL    = 10 * time.Minute
	projectsCacheTTL = 5 * time.Minute
)

// ToolFunc executes one tool over already-decoded arguments. It returns a
// serializable result or an error; the dispatcher turns either into the
// string the model sees.
type ToolFunc func(ctx context.Context, args json.RawMessage) (any, error)

type registeredTool struct {
	def llm.ToolDef
	run ToolFunc
}

// Registry holds the tools exposed to the model, preserving registration
// order so Definitions is deterministic.
type Registry struct {
	order  []string
	byName map[string]registeredTool
}

func NewRegistry() *Registry {
	return &Registry{byName: map[string]registeredTool{}}
}

func (r *Registry) Register(def llm.ToolDef, fn ToolFunc) {
	if _, exists := r.byName[def.Name]; !exists {
		r.order = append(r.order, def.Name)
	}
	r.byName[def.Name] = registeredTool{def: def, run: fn}
}

func (r *Registry) Definitions() []llm.ToolDef {
	defs := make([]llm.ToolDef, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.byName[name].def)
	}
	return defs
}

// Dispatch runs a tool call and always returns a string for the model.
// Failures become descriptive messages rather than errors so the second
// model pass can explain them to the user.
func (r *Registry) Dispatch(ctx context.Context, name, arguments string) string {
	tool, ok := r.byName[name]
	if !ok {
		return fmt.Sprintf("herramienta no encontrada: %s", name)
	}
	raw := json.RawMessage(arguments)
	if len(strings.TrimSpace(arguments)) == 0 {
		raw = json.RawMessage("{}")
	}
	result, err := tool.run(ctx, raw)
	if err != nil {
		return fmt.Sprintf("error al ejecutar %s: %v", name, err)
	}
	b, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf("error al serializar el resultado de %s: %v", name, err)
	}
	return string(b)
}

// Tools binds the tool implementations to their data dependencies.
type Tools struct {
	projects pgrepo.ProjectRepo
	cache    cache.Cache
	log      *logrus.Logger
}

func NewTools(projects pgrepo.ProjectRepo, c cache.Cache, log *logrus.Logger) *Tools {
	return &Tools{projects: projects, cache: c, log: log}
}

// Registry builds the full tool set offered to the model.
func (t *Tools) Registry() *Registry {
	r := NewRegistry()
	r.Register(llm.ToolDef{
		Name:        "get_market_stats",
		Description: "Obtiene estadísticas agregadas del mercado inmobiliario: proyectos, unidades, precios promedio, velocidad de venta y distribución por estado. Filtrable por comuna, región y tipo de propiedad.",
		Parameters: llm.Schema{
			Type: "object",
			Properties: map[string]llm.Schema{
				"comuna":        {Type: "string", Description: "Comuna a filtrar, ej. Ñuñoa"},
				"region":        {Type: "string", Description: "Región a filtrar, ej. RM"},
				"property_type": {Type: "string", Description: "Tipo de propiedad: DEPARTAMENTO o CASA"},
			},
		},
	}, t.getMarketStats)
	r.Register(llm.ToolDef{
		Name:        "search_projects",
		Description: "Busca proyectos inmobiliarios por comuna, región, rango de precios en UF, tipo de propiedad y tamaño mínimo.",
		Parameters: llm.Schema{
			Type: "object",
			Properties: map[string]llm.Schema{
				"comuna":        {Type: "string", Description: "Comuna a filtrar"},
				"region":        {Type: "string", Description: "Región a filtrar"},
				"min_price":     {Type: "number", Description: "Precio mínimo en UF"},
				"max_price":     {Type: "number", Description: "Precio máximo en UF"},
				"property_type": {Type: "string", Description: "Tipo de propiedad"},
				"min_units":     {Type: "integer", Description: "Cantidad mínima de unidades totales"},
				"limit":         {Type: "integer", Description: "Máximo de proyectos a retornar (por defecto 5)"},
			},
		},
	}, t.searchProjects)
	r.Register(llm.ToolDef{
		Name:        "compare_regions",
		Description: "Compara métricas de mercado entre dos o más regiones.",
		Parameters: llm.Schema{
			Type: "object",
			Properties: map[string]llm.Schema{
				"regions": {
					Type:        "array",
					Description: "Lista de regiones a comparar",
					Items:       &llm.Schema{Type: "string"},
				},
			},
			Required: []string{"regions"},
		},
	}, t.compareRegions)
	r.Register(llm.ToolDef{
		Name:        "get_top_sales_projects",
		Description: "Obtiene los proyectos con mayor velocidad de venta mensual.",
		Parameters: llm.Schema{
			Type: "object",
			Properties: map[string]llm.Schema{
				"limit": {Type: "integer", Description: "Cantidad de proyectos a retornar (por defecto 10)"},
			},
		},
	}, t.getTopSalesProjects)
	r.Register(llm.ToolDef{
		Name:        "get_market_summary",
		Description: "Entrega un resumen global del mercado: totales, absorción y principales regiones.",
		Parameters:  llm.Schema{Type: "object", Properties: map[string]llm.Schema{}},
	}, t.getMarketSummary)
	r.Register(llm.ToolDef{
		Name:        "compare_communes",
		Description: "Compara métricas de mercado entre dos o más comunas, incluyendo absorción y meses para agotar stock.",
		Parameters: llm.Schema{
			Type: "object",
			Properties: map[string]llm.Schema{
				"communes": {
					Type:        "array",
					Description: "Lista de comunas a comparar",
					Items:       &llm.Schema{Type: "string"},
				},
			},
			Required: []string{"communes"},
		},
	}, t.compareCommunes)
	r.Register(llm.ToolDef{
		Name:        "get_historical_trends",
		Description: "Obtiene la evolución mensual de precios, stock y velocidad de venta de una comuna.",
		Parameters: llm.Schema{
			Type: "object",
			Properties: map[string]llm.Schema{
				"commune": {Type: "string", Description: "Comuna a analizar"},
				"months":  {Type: "integer", Description: "Meses hacia atrás (1 a 12, por defecto 6)"},
			},
			Required: []string{"commune"},
		},
	}, t.getHistoricalTrends)
	r.Register(llm.ToolDef{
		Name:        "get_typology_analysis",
		Description: "Analiza la oferta por tipología (dormitorios) en una comuna: stock, participación y precios.",
		Parameters: llm.Schema{
			Type: "object",
			Properties: map[string]llm.Schema{
				"commune": {Type: "string", Description: "Comuna a analizar"},
			},
			Required: []string{"commune"},
		},
	}, t.getTypologyAnalysis)
	return r
}

func decodeArgs(name string, raw json.RawMessage, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("argumentos inválidos para %s: %v", name, err)
	}
	return nil
}

// cacheKeyList keeps the caller's order: comparison entries mirror the
// request order, so reordered requests must not share a cache slot.
func cacheKeyList(prefix string, values []string) string {
	norm := make([]string, len(values))
	for i, v := range values {
		norm[i] = strings.ToUpper(strings.TrimSpace(v))
	}
	return prefix + ":" + strings.Join(norm, ",")
}
