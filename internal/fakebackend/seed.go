package fakebackend

import (
	"github.com/jrsteele09/go-tareas-client/roles"
	"github.com/jrsteele09/go-tareas-client/states"
	"github.com/jrsteele09/go-tareas-client/tasks"
	"github.com/jrsteele09/go-tareas-client/units"
)

// Seeded accounts. Passwords are for local use only.
const (
	AdminEmail    = "admin@tareas.local"
	AdminPassword = "Admin12345"
	AdminID       = "usr-admin"

	OperatorEmail    = "operador@tareas.local"
	OperatorPassword = "Operador123"
	OperatorID       = "usr-operador"

	RoleAdmin    = "ADMIN"
	RoleOperator = "OPERADOR"
)

func (b *Backend) seed() {
	ts := b.stamp()

	b.units = []units.Unit{
		{ID: "uni-ti", Name: "Tecnología", Code: "TI", Color: "#3B82F6", Active: true},
		{ID: "uni-ops", Name: "Operaciones", Code: "OPS", Color: "#10B981", Active: true},
	}

	b.permissions = []roles.Permission{
		{ID: "per-tareas", Name: "Gestionar tareas", Code: "TAREAS_GESTIONAR"},
		{ID: "per-aprobar", Name: "Aprobar solicitudes", Code: "SOLICITUDES_APROBAR"},
		{ID: "per-usuarios", Name: "Gestionar usuarios", Code: "USUARIOS_GESTIONAR"},
	}
	b.screens = []roles.Screen{
		{ID: "pan-dashboard", Name: "Dashboard", Code: "DASHBOARD", Route: "/dashboard", Order: 1},
		{ID: "pan-aprobaciones", Name: "Aprobaciones", Code: "APROBACIONES", Route: "/aprobaciones", Order: 2},
		{ID: "pan-reportes", Name: "Reportes", Code: "REPORTES", Route: "/reportes", Order: 3},
	}
	b.reportDefs = []roles.Report{
		{ID: "rep-aprobadas", Name: "Historial de Aprobados", Code: "RPT_SOLICITUDES_APROBADAS", Type: "approved"},
		{ID: "rep-productividad", Name: "Productividad por Unidad", Code: "RPT_PRODUCTIVIDAD_UNIDAD", Type: "productivity"},
		{ID: "rep-prioridad", Name: "Prioridad y Criticidad", Code: "RPT_PRIORIDAD_CRITICIDAD", Type: "priority"},
		{ID: "rep-auditoria", Name: "Auditoría y Seguridad", Code: "RPT_AUDITORIA_SISTEMA", Type: "audit"},
		{ID: "rep-rechazadas", Name: "Historial de Rechazados", Code: "RPT_SOLICITUDES_RECHAZADAS", Type: "rejected"},
	}

	b.roles = []roleRecord{
		{
			ID: "rol-admin", Name: "Administrador", Code: RoleAdmin, System: true, Active: true,
			PermissionIDs: []string{"per-tareas", "per-aprobar", "per-usuarios"},
			ScreenIDs:     []string{"pan-dashboard", "pan-aprobaciones", "pan-reportes"},
			ReportIDs:     []string{"rep-aprobadas", "rep-productividad", "rep-prioridad", "rep-auditoria", "rep-rechazadas"},
		},
		{
			ID: "rol-operador", Name: "Operador", Code: RoleOperator, Active: true,
			PermissionIDs: []string{"per-tareas"},
			ScreenIDs:     []string{"pan-dashboard"},
		},
	}

	for _, u := range []struct {
		id, name, email, password, unit, role string
	}{
		{AdminID, "Administrador General", AdminEmail, AdminPassword, "uni-ti", "rol-admin"},
		{OperatorID, "Operador de Turno", OperatorEmail, OperatorPassword, "uni-ops", "rol-operador"},
	} {
		hash, err := hashPassword(u.password)
		if err != nil {
			panic(err)
		}
		b.users[u.id] = &userRecord{
			ID: u.id, FullName: u.name, Email: u.email, PasswordHash: hash,
			UnitID: u.unit, RoleID: u.role, Active: true, CreatedAt: ts,
		}
	}

	b.states = []states.State{
		{ID: "est-pendiente", Name: "Pendiente", Color: "#F59E0B", Order: 1, IsDefault: true, Active: true},
		{ID: "est-progreso", Name: "En progreso", Color: "#3B82F6", Order: 2, Active: true},
		{ID: "est-completada", Name: "Completada", Color: "#10B981", Order: 3, Active: true},
	}

	b.tasks = []tasks.Task{
		b.newTask("tar-1", "Revisar inventario", "ALTA", "uni-ops", AdminID, "est-pendiente"),
		b.newTask("tar-2", "Actualizar servidores", "MEDIA", "uni-ti", AdminID, "est-progreso"),
		b.newTask("tar-3", "Capacitación de personal", "BAJA", "uni-ops", AdminID, "est-pendiente"),
	}
}

func (b *Backend) newTask(id, title, priority, unitID, createdBy, stateID string) tasks.Task {
	t := tasks.Task{
		ID:        id,
		Title:     title,
		Priority:  priority,
		UnitID:    unitID,
		CreatedBy: createdBy,
		CreatedAt: b.stamp(),
	}
	b.applyState(&t, stateID)
	return t
}

// applyState sets the task's state triple from the state catalog.
func (b *Backend) applyState(t *tasks.Task, stateID string) bool {
	for _, st := range b.states {
		if st.ID == stateID {
			t.StateID, t.StateName, t.StateColor = st.ID, st.Name, st.Color
			return true
		}
	}
	return false
}

// RegisterGoogleToken makes idToken log in as the user with email.
func (b *Backend) RegisterGoogleToken(idToken, email string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if u := b.userByEmail(email); u != nil {
		b.googleTokens[idToken] = u.ID
	}
}
