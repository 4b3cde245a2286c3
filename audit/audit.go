// Package audit reads the auth backend's audit trail.
package audit

import (
	"context"

	"github.com/jrsteele09/go-tareas-client/apiclient"
)

const basePath = "/api/auth/identidad/auditoria"

type Entry struct {
	ID        int64   `json:"ID"`
	UserID    *string `json:"USUARIO_ID"`
	Action    string  `json:"ACCION"`
	Entity    string  `json:"ENTIDAD"`
	EntityID  *string `json:"ENTIDAD_ID"`
	IPAddress *string `json:"DIRECCION_IP"`
	Result    string  `json:"RESULTADO"`
	Detail    *string `json:"DETALLE"`
	CreatedAt string  `json:"CREADO_EN"`
}

// ListParams filters the trail. Dates are sent as given (YYYY-MM-DD).
type ListParams struct {
	Page     int
	PerPage  int
	UserID   string
	Action   string
	DateFrom string
	DateTo   string
}

type Service struct {
	client *apiclient.Client
}

func New(client *apiclient.Client) *Service {
	return &Service{client: client}
}

func (s *Service) List(ctx context.Context, p ListParams) (*apiclient.Envelope[apiclient.Page[Entry]], error) {
	q := apiclient.Query{}.
		SetInt("pagina", p.Page).
		SetInt("por_pagina", p.PerPage).
		Set("usuario_id", p.UserID).
		Set("accion", p.Action).
		Set("fecha_desde", p.DateFrom).
		Set("fecha_hasta", p.DateTo)
	return apiclient.Get[apiclient.Page[Entry]](ctx, s.client, basePath, q.Values())
}
