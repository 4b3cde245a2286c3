package fakebackend

import (
	"github.com/jrsteele09/go-tareas-client/identity"
	"github.com/jrsteele09/go-tareas-client/roles"
	"github.com/jrsteele09/go-tareas-client/users"
)

type userRecord struct {
	ID           string
	FullName     string
	Email        string
	PasswordHash string
	UnitID       string
	RoleID       string
	Active       bool
	Blocked      bool
	CreatedAt    string
	LastAccess   *string
}

type roleRecord struct {
	ID            string
	Name          string
	Code          string
	Description   *string
	System        bool
	Active        bool
	PermissionIDs []string
	ScreenIDs     []string
	ReportIDs     []string
}

type refreshRecord struct {
	Token     string
	UserID    string
	SessionID string
	IssuedAt  int64
}

type sessionRecord struct {
	ID        string
	UserID    string
	IPAddress *string
	UserAgent *string
	CreatedAt string
	ExpiresAt string
	Revoked   bool
}

func (b *Backend) roleByID(id string) *roleRecord {
	for i := range b.roles {
		if b.roles[i].ID == id {
			return &b.roles[i]
		}
	}
	return nil
}

func (b *Backend) userByEmail(email string) *userRecord {
	for _, u := range b.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

// isAdmin reports whether the user applies task changes directly instead of
// filing approval requests.
func (b *Backend) isAdmin(userID string) bool {
	u, ok := b.users[userID]
	if !ok {
		return false
	}
	role := b.roleByID(u.RoleID)
	return role != nil && role.Code == RoleAdmin
}

func (b *Backend) profile(u *userRecord) identity.UserProfile {
	p := identity.UserProfile{
		ID:         u.ID,
		FullName:   u.FullName,
		Email:      u.Email,
		UnitID:     u.UnitID,
		RoleID:     u.RoleID,
		Permisos:   []string{},
		Pantallas:  []string{},
		Reportes:   []string{},
		LastAccess: u.LastAccess,
	}
	for _, unit := range b.units {
		if unit.ID == u.UnitID {
			p.UnitName, p.UnitCode = unit.Name, unit.Code
		}
	}
	if role := b.roleByID(u.RoleID); role != nil {
		p.RoleName, p.RoleCode = role.Name, role.Code
		p.Permisos = codesOf(role.PermissionIDs, b.permissions, func(x roles.Permission) (string, string) { return x.ID, x.Code })
		p.Pantallas = codesOf(role.ScreenIDs, b.screens, func(x roles.Screen) (string, string) { return x.ID, x.Code })
		p.Reportes = codesOf(role.ReportIDs, b.reportDefs, func(x roles.Report) (string, string) { return x.ID, x.Code })
	}
	return p
}

// codesOf maps catalog ids to their codes.
func codesOf[T any](ids []string, catalog []T, idCode func(T) (string, string)) []string {
	codes := []string{}
	for _, id := range ids {
		for _, item := range catalog {
			if cid, code := idCode(item); cid == id {
				codes = append(codes, code)
			}
		}
	}
	return codes
}

func (b *Backend) listItem(u *userRecord) users.ListItem {
	p := b.profile(u)
	return users.ListItem{
		ID:        u.ID,
		FullName:  u.FullName,
		Email:     u.Email,
		Active:    u.Active,
		UnitName:  p.UnitName,
		UnitCode:  p.UnitCode,
		RoleName:  p.RoleName,
		RoleCode:  p.RoleCode,
		CreatedAt: u.CreatedAt,
	}
}
