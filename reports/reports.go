// Package reports runs the tareas backend's canned reports and turns their
// results into tables.
package reports

import (
	"context"
	"encoding/json"

	"github.com/jrsteele09/go-tareas-client/apiclient"
	errs "github.com/jrsteele09/go-tareas-client/internal/errors"
	"github.com/tidwall/gjson"
)

const basePath = "/api/tareas/reportes"

type Counters struct {
	Approved     int `json:"REPORTES_APROBADOS"`
	Productivity int `json:"REPORTES_PRODUCTIVIDAD"`
	Priority     int `json:"REPORTES_CRITICIDAD"`
	Audit        int `json:"REPORTES_AUDITORIA"`
}

// For returns the counter shown next to reports of type t.
func (c Counters) For(t Type) int {
	switch t {
	case TypeApproved:
		return c.Approved
	case TypeProductivity:
		return c.Productivity
	case TypePriority:
		return c.Priority
	case TypeAudit:
		return c.Audit
	}
	return 0
}

type ExecuteParams struct {
	DateFrom string
	DateTo   string
	UnitID   string
}

type Service struct {
	client *apiclient.Client
}

func New(client *apiclient.Client) *Service {
	return &Service{client: client}
}

func (s *Service) Counters(ctx context.Context) (*apiclient.Envelope[Counters], error) {
	return apiclient.Get[Counters](ctx, s.client, basePath+"/contadores", nil)
}

// Execute runs the report and returns its payload undecoded; use ParseTable on it.
func (s *Service) Execute(ctx context.Context, code string, p ExecuteParams) (*apiclient.Envelope[json.RawMessage], error) {
	q := apiclient.Query{}.
		Set("fecha_desde", p.DateFrom).
		Set("fecha_hasta", p.DateTo).
		Set("unidad_id", p.UnitID)
	return apiclient.Get[json.RawMessage](ctx, s.client, apiclient.Join(basePath+"/ejecutar", code), q.Values())
}

// Table is a report result laid out for display.
type Table struct {
	Columns []string
	Rows    [][]string
	Total   int
}

func (t *Table) Empty() bool {
	return t == nil || len(t.Rows) == 0
}

// ParseTable reads {"datos": [...], "registros": n}. Columns come from the
// first row's keys in document order. Missing and null cells are empty.
func ParseTable(raw json.RawMessage) (*Table, error) {
	t := &Table{}
	if len(raw) == 0 || string(raw) == "null" {
		return t, nil
	}
	if !gjson.ValidBytes(raw) {
		return nil, errs.Wrapf(errs.ErrInvalidInput, "report result is not valid JSON")
	}

	doc := gjson.ParseBytes(raw)
	rows := doc.Get("datos")
	if rows.IsArray() {
		records := rows.Array()
		if len(records) > 0 {
			records[0].ForEach(func(key, _ gjson.Result) bool {
				t.Columns = append(t.Columns, key.String())
				return true
			})
		}
		for _, rec := range records {
			row := make([]string, len(t.Columns))
			for i, col := range t.Columns {
				row[i] = rec.Get(gjson.Escape(col)).String()
			}
			t.Rows = append(t.Rows, row)
		}
	}

	t.Total = int(doc.Get("registros").Int())
	if t.Total == 0 {
		t.Total = len(t.Rows)
	}
	return t, nil
}
