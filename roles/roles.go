// Package roles manages roles and the access catalogs they draw from.
package roles

import (
	"context"
	"encoding/json"

	"github.com/jrsteele09/go-tareas-client/apiclient"
)

const basePath = "/api/auth/acceso"

type Role struct {
	ID          string  `json:"ID"`
	Name        string  `json:"NOMBRE"`
	Code        string  `json:"CODIGO"`
	Description *string `json:"DESCRIPCION"`
	System      bool    `json:"ES_SISTEMA"`
	Active      bool    `json:"ESTA_ACTIVO"`
}

// SaveRequest is used for both create and update.
type SaveRequest struct {
	Name          string   `json:"nombre"`
	Code          string   `json:"codigo"`
	Description   string   `json:"descripcion,omitempty"`
	PermissionIDs []string `json:"permisos_ids,omitempty"`
	ScreenIDs     []string `json:"pantallas_ids,omitempty"`
	ReportIDs     []string `json:"reportes_ids,omitempty"`
}

type Permission struct {
	ID          string  `json:"ID"`
	Name        string  `json:"NOMBRE"`
	Code        string  `json:"CODIGO"`
	Description *string `json:"DESCRIPCION"`
}

type Screen struct {
	ID    string  `json:"ID"`
	Name  string  `json:"NOMBRE"`
	Code  string  `json:"CODIGO"`
	Route string  `json:"RUTA"`
	Icon  *string `json:"ICONO"`
	Order int     `json:"ORDEN"`
}

type Report struct {
	ID          string  `json:"ID"`
	Name        string  `json:"NOMBRE"`
	Code        string  `json:"CODIGO"`
	Type        string  `json:"TIPO"`
	Description *string `json:"DESCRIPCION"`
}

type Service struct {
	client *apiclient.Client
}

func New(client *apiclient.Client) *Service {
	return &Service{client: client}
}

func (s *Service) List(ctx context.Context) (*apiclient.Envelope[[]Role], error) {
	return apiclient.Get[[]Role](ctx, s.client, basePath+"/roles", nil)
}

// Get returns the role detail as sent by the backend; its shape is not fixed.
func (s *Service) Get(ctx context.Context, id string) (*apiclient.Envelope[json.RawMessage], error) {
	return apiclient.Get[json.RawMessage](ctx, s.client, apiclient.Join(basePath+"/roles", id), nil)
}

func (s *Service) Create(ctx context.Context, req SaveRequest) (*apiclient.Envelope[apiclient.IDResult], error) {
	return apiclient.Post[apiclient.IDResult](ctx, s.client, basePath+"/roles", req)
}

func (s *Service) Update(ctx context.Context, id string, req SaveRequest) (*apiclient.Envelope[apiclient.Nothing], error) {
	return apiclient.Put[apiclient.Nothing](ctx, s.client, apiclient.Join(basePath+"/roles", id), req)
}

func (s *Service) Delete(ctx context.Context, id string) (*apiclient.Envelope[apiclient.Nothing], error) {
	return apiclient.Delete[apiclient.Nothing](ctx, s.client, apiclient.Join(basePath+"/roles", id))
}

func (s *Service) Permissions(ctx context.Context) (*apiclient.Envelope[[]Permission], error) {
	return apiclient.Get[[]Permission](ctx, s.client, basePath+"/permisos", nil)
}

func (s *Service) Screens(ctx context.Context) (*apiclient.Envelope[[]Screen], error) {
	return apiclient.Get[[]Screen](ctx, s.client, basePath+"/pantallas", nil)
}

func (s *Service) ReportCatalog(ctx context.Context) (*apiclient.Envelope[[]Report], error) {
	return apiclient.Get[[]Report](ctx, s.client, basePath+"/reportes-catalogo", nil)
}
