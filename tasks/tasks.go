// Package tasks manages the tasks shown on the dashboard board. Changes made by
// users without direct rights come back as approval requests instead.
package tasks

import (
	"context"

	"github.com/jrsteele09/go-tareas-client/apiclient"
)

const basePath = "/api/tareas/dashboard/tareas"

type Priority string

const (
	PriorityHigh   Priority = "ALTA"
	PriorityMedium Priority = "MEDIA"
	PriorityLow    Priority = "BAJA"
)

type Task struct {
	ID          string  `json:"ID"`
	Title       string  `json:"TITULO"`
	Description *string `json:"DESCRIPCION"`
	Priority    string  `json:"PRIORIDAD"`
	UnitID      string  `json:"UNIDAD_ID"`
	CreatedBy   string  `json:"CREADO_POR"`
	CreatedAt   string  `json:"FECHA_CREACION"`
	StateID     string  `json:"ESTADO_ID"`
	StateName   string  `json:"ESTADO_NOMBRE"`
	StateColor  string  `json:"ESTADO_COLOR"`
}

type CreateRequest struct {
	Title       string `json:"titulo"`
	Description string `json:"descripcion,omitempty"`
	StateID     string `json:"estado_id,omitempty"`
	Priority    string `json:"prioridad,omitempty"`
	UnitID      string `json:"unidad_id,omitempty"`
}

type UpdateRequest struct {
	Title       *string `json:"titulo,omitempty"`
	Description *string `json:"descripcion,omitempty"`
	StateID     *string `json:"estado_id,omitempty"`
	Priority    *string `json:"prioridad,omitempty"`
}

type ResultKind string

const (
	ResultTask    ResultKind = "TAREA"
	ResultRequest ResultKind = "SOLICITUD"
)

// ActionResult says whether a change was applied to the task or filed as an
// approval request.
type ActionResult struct {
	Kind ResultKind `json:"tipo"`
	ID   string     `json:"id"`
}

func (r *ActionResult) PendingApproval() bool {
	return r != nil && r.Kind == ResultRequest
}

type HistoryEntry struct {
	ID        int64   `json:"ID"`
	TaskID    string  `json:"TAREA_ID"`
	Action    string  `json:"ACCION"`
	Before    *string `json:"DATOS_ANTERIORES"`
	After     *string `json:"DATOS_NUEVOS"`
	RequestID *string `json:"SOLICITUD_ID"`
	DoneBy    string  `json:"REALIZADO_POR"`
	CreatedAt string  `json:"CREADO_EN"`
}

type Service struct {
	client *apiclient.Client
}

func New(client *apiclient.Client) *Service {
	return &Service{client: client}
}

func (s *Service) List(ctx context.Context, unitID string) (*apiclient.Envelope[[]Task], error) {
	return apiclient.Get[[]Task](ctx, s.client, basePath, apiclient.Query{}.Set("unidad_id", unitID).Values())
}

func (s *Service) Get(ctx context.Context, id string) (*apiclient.Envelope[Task], error) {
	return apiclient.Get[Task](ctx, s.client, apiclient.Join(basePath, id), nil)
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*apiclient.Envelope[ActionResult], error) {
	return apiclient.Post[ActionResult](ctx, s.client, basePath, req)
}

func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*apiclient.Envelope[ActionResult], error) {
	return apiclient.Put[ActionResult](ctx, s.client, apiclient.Join(basePath, id), req)
}

func (s *Service) Delete(ctx context.Context, id string) (*apiclient.Envelope[ActionResult], error) {
	return apiclient.Delete[ActionResult](ctx, s.client, apiclient.Join(basePath, id))
}

func (s *Service) Complete(ctx context.Context, id string) (*apiclient.Envelope[ActionResult], error) {
	return apiclient.Post[ActionResult](ctx, s.client, apiclient.Join(basePath, id, "completar"), nil)
}

func (s *Service) History(ctx context.Context, id string) (*apiclient.Envelope[[]HistoryEntry], error) {
	return apiclient.Get[[]HistoryEntry](ctx, s.client, apiclient.Join(basePath, id, "historial"), nil)
}
