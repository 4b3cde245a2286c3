package fakebackend

import (
	"net/http"

	"github.com/jrsteele09/go-tareas-client/approvals"
	"github.com/jrsteele09/go-tareas-client/internal/utils"
	"github.com/jrsteele09/go-tareas-client/reports"
	"github.com/jrsteele09/go-tareas-client/tasks"
)

type reportResult struct {
	Rows  any `json:"datos"`
	Total int `json:"registros"`
}

type approvedRow struct {
	ID         string  `json:"ID"`
	Title      string  `json:"TITULO"`
	ActionType string  `json:"TIPO_ACCION"`
	Priority   string  `json:"PRIORIDAD"`
	ApprovedBy *string `json:"APROBADO_POR"`
	ResolvedAt *string `json:"FECHA_RESOLUCION"`
}

type rejectedRow struct {
	ID         string  `json:"ID"`
	Title      string  `json:"TITULO"`
	Reason     *string `json:"MOTIVO_RECHAZO"`
	ResolvedAt *string `json:"FECHA_RESOLUCION"`
}

type productivityRow struct {
	Unit      string `json:"UNIDAD"`
	Total     int    `json:"TOTAL_TAREAS"`
	Completed int    `json:"COMPLETADAS"`
}

type priorityRow struct {
	Priority string `json:"PRIORIDAD"`
	Total    int    `json:"TOTAL"`
}

type auditRow struct {
	Action    string `json:"ACCION"`
	Entity    string `json:"ENTIDAD"`
	Result    string `json:"RESULTADO"`
	CreatedAt string `json:"CREADO_EN"`
}

func (b *Backend) handleReportCounters(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var c reports.Counters
	for _, s := range b.requests {
		if s.Status == approvals.StatusApproved {
			c.Approved++
		}
	}
	c.Productivity = len(b.units)
	for _, t := range b.tasks {
		if t.Priority == string(tasks.PriorityHigh) {
			c.Priority++
		}
	}
	c.Audit = len(b.auditLog)
	b.ok(w, "Contadores obtenidos", c)
}

// inRange compares the date part of an RFC3339 stamp with YYYY-MM-DD bounds.
func inRange(stamp, from, to string) bool {
	if len(stamp) >= 10 {
		stamp = stamp[:10]
	}
	return (from == "" || stamp >= from) && (to == "" || stamp <= to)
}

func (b *Backend) handleExecuteReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to, unit := q.Get("fecha_desde"), q.Get("fecha_hasta"), q.Get("unidad_id")

	b.mu.Lock()
	defer b.mu.Unlock()

	var rows any
	total := 0
	switch reports.Type(b.reportType(urlParam(r, "codigo"))) {
	case reports.TypeApproved:
		out := []approvedRow{}
		for _, s := range b.requests {
			if s.Status != approvals.StatusApproved || (unit != "" && s.UnitID != unit) || !inRange(utils.Value(s.ResolvedAt), from, to) {
				continue
			}
			out = append(out, approvedRow{s.ID, s.Title, s.ActionType, s.Priority, s.ApprovedBy, s.ResolvedAt})
		}
		rows, total = out, len(out)
	case reports.TypeRejected:
		out := []rejectedRow{}
		for _, s := range b.requests {
			if s.Status != approvals.StatusRejected || (unit != "" && s.UnitID != unit) || !inRange(utils.Value(s.ResolvedAt), from, to) {
				continue
			}
			out = append(out, rejectedRow{s.ID, s.Title, s.RejectionReason, s.ResolvedAt})
		}
		rows, total = out, len(out)
	case reports.TypeProductivity:
		out := []productivityRow{}
		for _, u := range b.units {
			if unit != "" && u.ID != unit {
				continue
			}
			row := productivityRow{Unit: u.Name}
			for _, t := range b.tasks {
				if t.UnitID != u.ID || !inRange(t.CreatedAt, from, to) {
					continue
				}
				row.Total++
				if b.isFinalState(t.StateID) {
					row.Completed++
				}
			}
			out = append(out, row)
		}
		rows, total = out, len(out)
	case reports.TypePriority:
		out := []priorityRow{}
		for _, p := range []tasks.Priority{tasks.PriorityHigh, tasks.PriorityMedium, tasks.PriorityLow} {
			row := priorityRow{Priority: string(p)}
			for _, t := range b.tasks {
				if t.Priority == string(p) && (unit == "" || t.UnitID == unit) && inRange(t.CreatedAt, from, to) {
					row.Total++
				}
			}
			out = append(out, row)
		}
		rows, total = out, len(out)
	case reports.TypeAudit:
		out := []auditRow{}
		for _, e := range b.auditLog {
			if inRange(e.CreatedAt, from, to) {
				out = append(out, auditRow{e.Action, e.Entity, e.Result, e.CreatedAt})
			}
		}
		rows, total = out, len(out)
	default:
		b.fail(w, http.StatusNotFound, "Reporte no encontrado")
		return
	}
	b.ok(w, "Reporte ejecutado", reportResult{Rows: rows, Total: total})
}

func (b *Backend) reportType(code string) string {
	for _, d := range b.reportDefs {
		if d.Code == code {
			return d.Type
		}
	}
	return ""
}

// isFinalState reports whether id is the last active column.
func (b *Backend) isFinalState(id string) bool {
	last := ""
	order := -1
	for _, st := range b.states {
		if st.Active && st.Order > order {
			last, order = st.ID, st.Order
		}
	}
	return id != "" && id == last
}

