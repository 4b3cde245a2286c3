// Package identity holds the signed-in user's profile as returned by the auth backend.
package identity

import "slices"

// UserProfile is the "usuario" object of a login response and the payload of
// the profile endpoints. Permission, screen and report codes are what the
// backend granted through the user's role.
type UserProfile struct {
	ID         string   `json:"id"`
	FullName   string   `json:"nombre_completo"`
	Email      string   `json:"correo"`
	UnitID     string   `json:"unidad_id"`
	UnitName   string   `json:"unidad_nombre"`
	UnitCode   string   `json:"unidad_codigo"`
	RoleID     string   `json:"rol_id"`
	RoleName   string   `json:"rol_nombre"`
	RoleCode   string   `json:"rol_codigo"`
	Permisos   []string `json:"permisos"`
	Pantallas  []string `json:"pantallas"`
	Reportes   []string `json:"reportes"`
	LastAccess *string  `json:"ultimo_acceso"`
}

func (p *UserProfile) HasPermission(code string) bool {
	return p != nil && slices.Contains(p.Permisos, code)
}

func (p *UserProfile) CanSeeScreen(code string) bool {
	return p != nil && slices.Contains(p.Pantallas, code)
}

func (p *UserProfile) CanRunReport(code string) bool {
	return p != nil && slices.Contains(p.Reportes, code)
}

// MinPasswordLength is the shortest password the backend accepts for new or
// changed credentials.
const MinPasswordLength = 8
