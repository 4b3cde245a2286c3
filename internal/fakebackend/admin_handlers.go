package fakebackend

import (
	"net/http"
	"slices"
	"strings"

	"github.com/jrsteele09/go-tareas-client/audit"
	"github.com/jrsteele09/go-tareas-client/identity"
	"github.com/jrsteele09/go-tareas-client/roles"
	"github.com/jrsteele09/go-tareas-client/units"
	"github.com/jrsteele09/go-tareas-client/users"
)

func (b *Backend) handleListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	b.mu.Lock()
	defer b.mu.Unlock()

	items := []users.ListItem{}
	for _, u := range b.users {
		if unit := q.Get("unidad_id"); unit != "" && u.UnitID != unit {
			continue
		}
		if role := q.Get("rol_id"); role != "" && u.RoleID != role {
			continue
		}
		if s := q.Get("busqueda"); s != "" && !containsFold(u.FullName, s) && !containsFold(u.Email, s) {
			continue
		}
		items = append(items, b.listItem(u))
	}
	slices.SortFunc(items, func(a, c users.ListItem) int {
		return strings.Compare(a.Email, c.Email)
	})
	b.ok(w, "Usuarios obtenidos", paginate(items, queryInt(r, "pagina", 1), queryInt(r, "por_pagina", 10)))
}

func (b *Backend) handleGetUser(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	u, ok := b.users[urlParam(r, "id")]
	if !ok {
		b.fail(w, http.StatusNotFound, "Usuario no encontrado")
		return
	}
	b.ok(w, "Usuario obtenido", b.profile(u))
}

func (b *Backend) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req users.CreateRequest
	if err := decode(r, &req); err != nil {
		b.fail(w, http.StatusBadRequest, "Solicitud inválida")
		return
	}
	if req.FullName == "" || req.Email == "" {
		b.fail(w, http.StatusUnprocessableEntity, "Nombre y correo son obligatorios", "nombre_completo", "correo")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.userByEmail(req.Email) != nil {
		b.fail(w, http.StatusConflict, "El correo ya está registrado")
		return
	}
	u := &userRecord{
		ID: newID("usr"), FullName: req.FullName, Email: req.Email,
		UnitID: req.UnitID, RoleID: req.RoleID, Active: true, CreatedAt: b.stamp(),
	}
	if req.Password != "" {
		hash, err := hashPassword(req.Password)
		if err != nil {
			b.fail(w, http.StatusInternalServerError, err.Error())
			return
		}
		u.PasswordHash = hash
	}
	b.users[u.ID] = u
	b.recordAudit(callerID(r), "CREAR_USUARIO", "USUARIO", &u.ID, r, "EXITOSO")
	b.created(w, "Usuario creado", map[string]string{"id": u.ID})
}

func (b *Backend) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req users.UpdateRequest
	if err := decode(r, &req); err != nil {
		b.fail(w, http.StatusBadRequest, "Solicitud inválida")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	u, ok := b.users[urlParam(r, "id")]
	if !ok {
		b.fail(w, http.StatusNotFound, "Usuario no encontrado")
		return
	}
	if req.FullName != nil {
		u.FullName = *req.FullName
	}
	if req.Email != nil {
		u.Email = *req.Email
	}
	if req.UnitID != nil {
		u.UnitID = *req.UnitID
	}
	if req.RoleID != nil {
		u.RoleID = *req.RoleID
	}
	if req.Active != nil {
		u.Active = *req.Active
	}
	b.ok(w, "Usuario actualizado", nil)
}

func (b *Backend) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.users[id]; !ok {
		b.fail(w, http.StatusNotFound, "Usuario no encontrado")
		return
	}
	if id == callerID(r) {
		b.fail(w, http.StatusConflict, "No puede eliminar su propio usuario")
		return
	}
	delete(b.users, id)
	b.ok(w, "Usuario eliminado", nil)
}

func (b *Backend) handleUnblockUser(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	u, ok := b.users[urlParam(r, "id")]
	if !ok {
		b.fail(w, http.StatusNotFound, "Usuario no encontrado")
		return
	}
	u.Blocked = false
	b.ok(w, "Usuario desbloqueado", nil)
}

// Block marks a user as blocked, as the real backend does after repeated
// failed logins.
func (b *Backend) Block(email string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if u := b.userByEmail(email); u != nil {
		u.Blocked = true
	}
}

func (b *Backend) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NewPassword string `json:"nueva_contrasena"`
	}
	if err := decode(r, &req); err != nil {
		b.fail(w, http.StatusBadRequest, "Solicitud inválida")
		return
	}
	if len(req.NewPassword) < identity.MinPasswordLength {
		b.fail(w, http.StatusBadRequest, "La contraseña debe tener al menos 8 caracteres", "nueva_contrasena")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	u, ok := b.users[urlParam(r, "id")]
	if !ok {
		b.fail(w, http.StatusNotFound, "Usuario no encontrado")
		return
	}
	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		b.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	u.PasswordHash = hash
	b.ok(w, "Contraseña restablecida", nil)
}

func (b *Backend) handleUserSessions(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ok(w, "Sesiones obtenidas", b.sessionsOf(urlParam(r, "id")))
}

func (b *Backend) handleRevokeUserSessions(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, s := range b.sessions {
		if s.UserID == id {
			b.revokeSession(s.ID)
		}
	}
	b.ok(w, "Sesiones revocadas", nil)
}

func (b *Backend) handleAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	b.mu.Lock()
	defer b.mu.Unlock()

	entries := []audit.Entry{}
	for i := len(b.auditLog) - 1; i >= 0; i-- {
		e := b.auditLog[i]
		if uid := q.Get("usuario_id"); uid != "" && (e.UserID == nil || *e.UserID != uid) {
			continue
		}
		if action := q.Get("accion"); action != "" && e.Action != action {
			continue
		}
		day := e.CreatedAt[:10]
		if from := q.Get("fecha_desde"); from != "" && day < from {
			continue
		}
		if to := q.Get("fecha_hasta"); to != "" && day > to {
			continue
		}
		entries = append(entries, e)
	}
	b.ok(w, "Auditoría obtenida", paginate(entries, queryInt(r, "pagina", 1), queryInt(r, "por_pagina", 20)))
}

func (b *Backend) roleView(rr roleRecord) roles.Role {
	return roles.Role{ID: rr.ID, Name: rr.Name, Code: rr.Code, Description: rr.Description, System: rr.System, Active: rr.Active}
}

func (b *Backend) handleListRoles(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]roles.Role, 0, len(b.roles))
	for _, rr := range b.roles {
		out = append(out, b.roleView(rr))
	}
	b.ok(w, "Roles obtenidos", out)
}

func (b *Backend) handleGetRole(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rr := b.roleByID(urlParam(r, "id"))
	if rr == nil {
		b.fail(w, http.StatusNotFound, "Rol no encontrado")
		return
	}
	b.ok(w, "Rol obtenido", map[string]any{
		"rol":       b.roleView(*rr),
		"permisos":  codesOf(rr.PermissionIDs, b.permissions, func(x roles.Permission) (string, string) { return x.ID, x.Code }),
		"pantallas": codesOf(rr.ScreenIDs, b.screens, func(x roles.Screen) (string, string) { return x.ID, x.Code }),
		"reportes":  codesOf(rr.ReportIDs, b.reportDefs, func(x roles.Report) (string, string) { return x.ID, x.Code }),
	})
}

func (b *Backend) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	var req roles.SaveRequest
	if err := decode(r, &req); err != nil || req.Name == "" || req.Code == "" {
		b.fail(w, http.StatusUnprocessableEntity, "Nombre y código son obligatorios", "nombre", "codigo")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, rr := range b.roles {
		if rr.Code == req.Code {
			b.fail(w, http.StatusConflict, "El código de rol ya existe")
			return
		}
	}
	rr := roleRecord{
		ID: newID("rol"), Name: req.Name, Code: req.Code, Description: strPtr(req.Description), Active: true,
		PermissionIDs: req.PermissionIDs, ScreenIDs: req.ScreenIDs, ReportIDs: req.ReportIDs,
	}
	b.roles = append(b.roles, rr)
	b.created(w, "Rol creado", map[string]string{"id": rr.ID})
}

func (b *Backend) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	var req roles.SaveRequest
	if err := decode(r, &req); err != nil {
		b.fail(w, http.StatusBadRequest, "Solicitud inválida")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	rr := b.roleByID(urlParam(r, "id"))
	if rr == nil {
		b.fail(w, http.StatusNotFound, "Rol no encontrado")
		return
	}
	if rr.System {
		b.fail(w, http.StatusForbidden, "Los roles del sistema no se pueden modificar")
		return
	}
	rr.Name, rr.Code, rr.Description = req.Name, req.Code, strPtr(req.Description)
	rr.PermissionIDs, rr.ScreenIDs, rr.ReportIDs = req.PermissionIDs, req.ScreenIDs, req.ReportIDs
	b.ok(w, "Rol actualizado", nil)
}

func (b *Backend) handleDeleteRole(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")

	b.mu.Lock()
	defer b.mu.Unlock()

	for i, rr := range b.roles {
		if rr.ID != id {
			continue
		}
		if rr.System {
			b.fail(w, http.StatusForbidden, "Los roles del sistema no se pueden eliminar")
			return
		}
		b.roles = slices.Delete(b.roles, i, i+1)
		b.ok(w, "Rol eliminado", nil)
		return
	}
	b.fail(w, http.StatusNotFound, "Rol no encontrado")
}

func (b *Backend) handlePermissions(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ok(w, "Permisos obtenidos", b.permissions)
}

func (b *Backend) handleScreens(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ok(w, "Pantallas obtenidas", b.screens)
}

func (b *Backend) handleReportCatalog(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ok(w, "Reportes obtenidos", b.reportDefs)
}

func (b *Backend) handleListUnits(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("busqueda")

	b.mu.Lock()
	defer b.mu.Unlock()

	out := []units.Unit{}
	for _, u := range b.units {
		if search == "" || containsFold(u.Name, search) || containsFold(u.Code, search) {
			out = append(out, u)
		}
	}
	b.ok(w, "Unidades obtenidas", out)
}

func (b *Backend) unitIndex(id string) int {
	return slices.IndexFunc(b.units, func(u units.Unit) bool { return u.ID == id })
}

func (b *Backend) handleGetUnit(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.unitIndex(urlParam(r, "id"))
	if i < 0 {
		b.fail(w, http.StatusNotFound, "Unidad no encontrada")
		return
	}
	b.ok(w, "Unidad obtenida", b.units[i])
}

func (b *Backend) handleCreateUnit(w http.ResponseWriter, r *http.Request) {
	var req units.CreateRequest
	if err := decode(r, &req); err != nil || req.Name == "" || req.Code == "" {
		b.fail(w, http.StatusUnprocessableEntity, "Nombre y código son obligatorios", "nombre", "codigo")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	color := req.Color
	if color == "" {
		color = "#9D833E"
	}
	u := units.Unit{ID: newID("uni"), Name: req.Name, Code: req.Code, Description: strPtr(req.Description), Color: color, Active: true}
	b.units = append(b.units, u)
	b.created(w, "Unidad creada", map[string]string{"id": u.ID})
}

func (b *Backend) handleUpdateUnit(w http.ResponseWriter, r *http.Request) {
	var req units.UpdateRequest
	if err := decode(r, &req); err != nil {
		b.fail(w, http.StatusBadRequest, "Solicitud inválida")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.unitIndex(urlParam(r, "id"))
	if i < 0 {
		b.fail(w, http.StatusNotFound, "Unidad no encontrada")
		return
	}
	u := &b.units[i]
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Code != nil {
		u.Code = *req.Code
	}
	if req.Description != nil {
		u.Description = req.Description
	}
	if req.Color != nil {
		u.Color = *req.Color
	}
	if req.Active != nil {
		u.Active = *req.Active
	}
	b.ok(w, "Unidad actualizada", nil)
}

func (b *Backend) handleDeleteUnit(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")

	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.unitIndex(id)
	if i < 0 {
		b.fail(w, http.StatusNotFound, "Unidad no encontrada")
		return
	}
	for _, u := range b.users {
		if u.UnitID == id {
			b.fail(w, http.StatusConflict, "La unidad tiene usuarios asignados")
			return
		}
	}
	b.units = slices.Delete(b.units, i, i+1)
	b.ok(w, "Unidad eliminada", nil)
}
