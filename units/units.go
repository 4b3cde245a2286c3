// Package units manages organizational units.
package units

import (
	"context"

	"github.com/jrsteele09/go-tareas-client/apiclient"
)

const basePath = "/api/auth/unidades"

type Unit struct {
	ID          string  `json:"ID"`
	Name        string  `json:"NOMBRE"`
	Code        string  `json:"CODIGO"`
	Description *string `json:"DESCRIPCION"`
	Color       string  `json:"COLOR"`
	Active      bool    `json:"ESTA_ACTIVA"`
}

type CreateRequest struct {
	Name        string `json:"nombre"`
	Code        string `json:"codigo"`
	Description string `json:"descripcion,omitempty"`
	Color       string `json:"color,omitempty"`
}

// UpdateRequest is partial; nil fields are left unchanged.
type UpdateRequest struct {
	Name        *string `json:"nombre,omitempty"`
	Code        *string `json:"codigo,omitempty"`
	Description *string `json:"descripcion,omitempty"`
	Color       *string `json:"color,omitempty"`
	Active      *bool   `json:"esta_activa,omitempty"`
}

type Service struct {
	client *apiclient.Client
}

func New(client *apiclient.Client) *Service {
	return &Service{client: client}
}

func (s *Service) List(ctx context.Context, search string) (*apiclient.Envelope[[]Unit], error) {
	return apiclient.Get[[]Unit](ctx, s.client, basePath, apiclient.Query{}.Set("busqueda", search).Values())
}

func (s *Service) Get(ctx context.Context, id string) (*apiclient.Envelope[Unit], error) {
	return apiclient.Get[Unit](ctx, s.client, apiclient.Join(basePath, id), nil)
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*apiclient.Envelope[apiclient.IDResult], error) {
	return apiclient.Post[apiclient.IDResult](ctx, s.client, basePath, req)
}

func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*apiclient.Envelope[apiclient.Nothing], error) {
	return apiclient.Put[apiclient.Nothing](ctx, s.client, apiclient.Join(basePath, id), req)
}

func (s *Service) Delete(ctx context.Context, id string) (*apiclient.Envelope[apiclient.Nothing], error) {
	return apiclient.Delete[apiclient.Nothing](ctx, s.client, apiclient.Join(basePath, id))
}

// ByID indexes units for lookups such as rendering a task's unit name.
func ByID(list []Unit) map[string]Unit {
	m := make(map[string]Unit, len(list))
	for _, u := range list {
		m[u.ID] = u
	}
	return m
}
