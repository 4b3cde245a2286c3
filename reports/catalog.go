package reports

import "strings"

// Type groups reports for labelling and counters.
type Type string

const (
	TypeApproved     Type = "approved"
	TypeProductivity Type = "productivity"
	TypePriority     Type = "priority"
	TypeAudit        Type = "audit"
	TypeRejected     Type = "rejected"
)

// Label is the human name of the report type.
func (t Type) Label() string {
	switch t {
	case TypeApproved:
		return "Historial de Aprobados"
	case TypeProductivity:
		return "Productividad por Unidad"
	case TypePriority:
		return "Prioridad y Criticidad"
	case TypeAudit:
		return "Auditoría y Seguridad"
	case TypeRejected:
		return "Historial de Rechazados"
	}
	return "Reporte"
}

// Color is the hex accent used when rendering the type.
func (t Type) Color() string {
	switch t {
	case TypeApproved:
		return "#10B981"
	case TypeProductivity:
		return "#3B82F6"
	case TypePriority:
		return "#F59E0B"
	case TypeAudit:
		return "#8B5CF6"
	case TypeRejected:
		return "#EF4444"
	}
	return "#6B7280"
}

type Definition struct {
	Code        string
	Name        string
	Type        Type
	Description string
}

var catalog = []Definition{
	{Code: "RPT_SOLICITUDES_APROBADAS", Name: "Historial de Aprobados", Type: TypeApproved, Description: "Reporte completo de todas las tareas aprobadas en el sistema"},
	{Code: "RPT_PRODUCTIVIDAD_UNIDAD", Name: "Reportes de Productividad por Unidad", Type: TypeProductivity, Description: "Análisis de productividad y rendimiento de cada unidad organizacional"},
	{Code: "RPT_PRIORIDAD_CRITICIDAD", Name: "Reportes de Prioridad y Criticidad", Type: TypePriority, Description: "Distribución de tareas por nivel de prioridad y estado crítico"},
	{Code: "RPT_AUDITORIA_SISTEMA", Name: "Reportes de Auditoría y Seguridad", Type: TypeAudit, Description: "Reporte de auditoría de accesos, cambios y cumplimiento en el sistema"},
	{Code: "RPT_SOLICITUDES_RECHAZADAS", Name: "Historial de Rechazados", Type: TypeRejected, Description: "Reporte completo de todas las solicitudes rechazadas en el sistema"},
}

// Catalog returns the reports the backend can run, in display order.
func Catalog() []Definition {
	return append([]Definition(nil), catalog...)
}

func Lookup(code string) (Definition, bool) {
	for _, d := range catalog {
		if d.Code == code {
			return d, true
		}
	}
	return Definition{}, false
}

// Search matches term case-insensitively against name and description.
// An empty term returns the whole catalog.
func Search(term string) []Definition {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return Catalog()
	}
	var out []Definition
	for _, d := range catalog {
		if strings.Contains(strings.ToLower(d.Name), term) || strings.Contains(strings.ToLower(d.Description), term) {
			out = append(out, d)
		}
	}
	return out
}
