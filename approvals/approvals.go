// Package approvals works the queue of change requests waiting for a decision.
package approvals

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/jrsteele09/go-tareas-client/apiclient"
	errs "github.com/jrsteele09/go-tareas-client/internal/errors"
)

const (
	basePath = "/api/tareas/aprobaciones"

	minRejectReasonLength = 10
)

var RejectReasonTooShortErr = errs.Invalid("motivo", "El motivo debe tener al menos 10 caracteres")

const (
	StatusPending  = "PENDIENTE"
	StatusApproved = "APROBADA"
	StatusRejected = "RECHAZADA"
)

type Request struct {
	ID              string  `json:"ID"`
	TaskID          *string `json:"TAREA_ID"`
	ActionType      string  `json:"TIPO_ACCION"`
	Title           string  `json:"TITULO"`
	Description     *string `json:"DESCRIPCION"`
	Priority        string  `json:"PRIORIDAD"`
	UnitID          string  `json:"UNIDAD_ID"`
	RequesterID     string  `json:"SOLICITANTE_ID"`
	Status          string  `json:"ESTADO_SOLICITUD"`
	ApprovedBy      *string `json:"APROBADO_POR"`
	RejectionReason *string `json:"MOTIVO_RECHAZO"`
	ResolvedAt      *string `json:"FECHA_RESOLUCION"`
	CreatedAt       string  `json:"CREADO_EN"`
	TaskStateName   string  `json:"ESTADO_TAREA_NOMBRE,omitempty"`
	TaskStateColor  string  `json:"ESTADO_TAREA_COLOR,omitempty"`
}

type Counters struct {
	Pending  int `json:"TOTAL_PENDIENTES"`
	Approved int `json:"TOTAL_APROBADAS"`
	Rejected int `json:"TOTAL_RECHAZADAS"`
}

// Outcome reports a decision. Success is numeric on the wire.
type Outcome struct {
	Success int    `json:"exito"`
	Message string `json:"mensaje"`
	TaskID  string `json:"tarea_id,omitempty"`
}

type ListParams struct {
	Status     string
	Priority   string
	ActionType string
	UnitID     string
	Search     string
}

type ResubmitRequest struct {
	Title       *string `json:"titulo,omitempty"`
	Description *string `json:"descripcion,omitempty"`
	Priority    *string `json:"prioridad,omitempty"`
}

type ResubmitResult struct {
	RequestID string `json:"solicitud_id"`
}

type Service struct {
	client *apiclient.Client
}

func New(client *apiclient.Client) *Service {
	return &Service{client: client}
}

func (s *Service) Counters(ctx context.Context, unitID string) (*apiclient.Envelope[Counters], error) {
	return apiclient.Get[Counters](ctx, s.client, basePath+"/contadores", apiclient.Query{}.Set("unidad_id", unitID).Values())
}

func (s *Service) List(ctx context.Context, p ListParams) (*apiclient.Envelope[[]Request], error) {
	q := apiclient.Query{}.
		Set("estado_solicitud", p.Status).
		Set("prioridad", p.Priority).
		Set("tipo_accion", p.ActionType).
		Set("unidad_id", p.UnitID).
		Set("busqueda", p.Search)
	return apiclient.Get[[]Request](ctx, s.client, basePath, q.Values())
}

func (s *Service) Get(ctx context.Context, id string) (*apiclient.Envelope[Request], error) {
	return apiclient.Get[Request](ctx, s.client, apiclient.Join(basePath, id), nil)
}

func (s *Service) Approve(ctx context.Context, id, note string) (*apiclient.Envelope[Outcome], error) {
	body := map[string]string{}
	if note != "" {
		body["observacion"] = note
	}
	return apiclient.Post[Outcome](ctx, s.client, apiclient.Join(basePath, id, "aprobar"), body)
}

// Reject needs a reason of at least ten characters once trimmed.
func (s *Service) Reject(ctx context.Context, id, reason string) (*apiclient.Envelope[Outcome], error) {
	if err := ValidateRejectReason(reason); err != nil {
		return nil, err
	}
	return apiclient.Post[Outcome](ctx, s.client, apiclient.Join(basePath, id, "rechazar"),
		map[string]string{"motivo": reason})
}

func ValidateRejectReason(reason string) error {
	if utf8.RuneCountInString(strings.TrimSpace(reason)) < minRejectReasonLength {
		return RejectReasonTooShortErr
	}
	return nil
}

func (s *Service) MyRequests(ctx context.Context, status string) (*apiclient.Envelope[[]Request], error) {
	return apiclient.Get[[]Request](ctx, s.client, basePath+"/mis-solicitudes/listar",
		apiclient.Query{}.Set("estado_solicitud", status).Values())
}

func (s *Service) Resubmit(ctx context.Context, id string, req ResubmitRequest) (*apiclient.Envelope[ResubmitResult], error) {
	return apiclient.Post[ResubmitResult](ctx, s.client, apiclient.Join(basePath, id, "reenviar"), req)
}
