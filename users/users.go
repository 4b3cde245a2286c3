// Package users manages user accounts on the auth backend.
package users

import (
	"context"
	"unicode/utf8"

	"github.com/jrsteele09/go-tareas-client/apiclient"
	"github.com/jrsteele09/go-tareas-client/auth"
	"github.com/jrsteele09/go-tareas-client/identity"
	errs "github.com/jrsteele09/go-tareas-client/internal/errors"
)

const basePath = "/api/auth/identidad/usuarios"

var PasswordTooShortErr = errs.Invalid("contrasena", "La contraseña debe tener al menos 8 caracteres")

// ListItem is a row of the paginated user list.
type ListItem struct {
	ID        string `json:"id"`
	FullName  string `json:"nombre_completo"`
	Email     string `json:"correo"`
	Active    bool   `json:"esta_activo"`
	UnitName  string `json:"unidad_nombre"`
	UnitCode  string `json:"unidad_codigo"`
	RoleName  string `json:"rol_nombre"`
	RoleCode  string `json:"rol_codigo"`
	CreatedAt string `json:"creado_en"`
}

type ListParams struct {
	Page    int
	PerPage int
	UnitID  string
	RoleID  string
	Search  string
}

func (p ListParams) query() apiclient.Query {
	return apiclient.Query{}.
		SetInt("pagina", p.Page).
		SetInt("por_pagina", p.PerPage).
		Set("unidad_id", p.UnitID).
		Set("rol_id", p.RoleID).
		Set("busqueda", p.Search)
}

type CreateRequest struct {
	FullName     string `json:"nombre_completo"`
	Email        string `json:"correo"`
	Password     string `json:"contrasena,omitempty"`
	UnitID       string `json:"unidad_id"`
	RoleID       string `json:"rol_id"`
	FirebaseUID  string `json:"firebase_uid,omitempty"`
	AuthProvider string `json:"proveedor_auth,omitempty"`
}

// UpdateRequest is partial; nil fields are not sent.
type UpdateRequest struct {
	FullName *string `json:"nombre_completo,omitempty"`
	Email    *string `json:"correo,omitempty"`
	UnitID   *string `json:"unidad_id,omitempty"`
	RoleID   *string `json:"rol_id,omitempty"`
	Active   *bool   `json:"esta_activo,omitempty"`
}

type Service struct {
	client *apiclient.Client
}

func New(client *apiclient.Client) *Service {
	return &Service{client: client}
}

func (s *Service) List(ctx context.Context, params ListParams) (*apiclient.Envelope[apiclient.Page[ListItem]], error) {
	return apiclient.Get[apiclient.Page[ListItem]](ctx, s.client, basePath, params.query().Values())
}

func (s *Service) Get(ctx context.Context, id string) (*apiclient.Envelope[identity.UserProfile], error) {
	return apiclient.Get[identity.UserProfile](ctx, s.client, apiclient.Join(basePath, id), nil)
}

// Create requires a password of at least eight characters for password
// accounts. Accounts backed by an external provider may omit it.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*apiclient.Envelope[apiclient.IDResult], error) {
	if req.AuthProvider == "" && utf8.RuneCountInString(req.Password) < identity.MinPasswordLength {
		return nil, PasswordTooShortErr
	}
	return apiclient.Post[apiclient.IDResult](ctx, s.client, basePath, req)
}

func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*apiclient.Envelope[apiclient.Nothing], error) {
	return apiclient.Put[apiclient.Nothing](ctx, s.client, apiclient.Join(basePath, id), req)
}

func (s *Service) Delete(ctx context.Context, id string) (*apiclient.Envelope[apiclient.Nothing], error) {
	return apiclient.Delete[apiclient.Nothing](ctx, s.client, apiclient.Join(basePath, id))
}

func (s *Service) Unblock(ctx context.Context, id string) (*apiclient.Envelope[apiclient.Nothing], error) {
	return apiclient.Post[apiclient.Nothing](ctx, s.client, apiclient.Join(basePath, id, "desbloquear"), nil)
}

func (s *Service) ResetPassword(ctx context.Context, id, newPassword string) (*apiclient.Envelope[apiclient.Nothing], error) {
	return apiclient.Post[apiclient.Nothing](ctx, s.client, apiclient.Join(basePath, id, "resetear-contrasena"),
		map[string]string{"nueva_contrasena": newPassword})
}

func (s *Service) Sessions(ctx context.Context, id string) (*apiclient.Envelope[[]auth.ActiveSession], error) {
	return apiclient.Get[[]auth.ActiveSession](ctx, s.client, apiclient.Join(basePath, id, "sesiones"), nil)
}

func (s *Service) RevokeSessions(ctx context.Context, id string) (*apiclient.Envelope[apiclient.Nothing], error) {
	return apiclient.Post[apiclient.Nothing](ctx, s.client, apiclient.Join(basePath, id, "revocar-sesiones"), nil)
}
