// Package fakebackend is an in-memory stand-in for the auth and tareas
// backends. Tests and the CLI's demo mode run against it.
package fakebackend

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jrsteele09/go-tareas-client/approvals"
	"github.com/jrsteele09/go-tareas-client/audit"
	"github.com/jrsteele09/go-tareas-client/roles"
	"github.com/jrsteele09/go-tareas-client/states"
	"github.com/jrsteele09/go-tareas-client/tasks"
	"github.com/jrsteele09/go-tareas-client/units"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// Backend holds all state behind one mutex. Handlers are short and never call
// out, so a single lock keeps things simple.
type Backend struct {
	mu sync.Mutex

	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	nowTime    func() time.Time

	users         map[string]*userRecord
	googleTokens  map[string]string // id_token -> user id
	refreshTokens map[string]*refreshRecord
	sessions      []*sessionRecord

	roles       []roleRecord
	permissions []roles.Permission
	screens     []roles.Screen
	reportDefs  []roles.Report
	units       []units.Unit
	states      []states.State
	tasks       []tasks.Task
	history     []tasks.HistoryEntry
	requests    []approvals.Request
	proposals   map[string]proposal
	auditLog    []audit.Entry

	faults   *faults
	counters map[string]int
}

type Option func(*Backend)

// WithNowTime sets the clock (primarily for testing token expiry).
func WithNowTime(nowFunc func() time.Time) Option {
	return func(b *Backend) {
		b.nowTime = nowFunc
	}
}

func WithAccessTTL(d time.Duration) Option {
	return func(b *Backend) {
		b.accessTTL = d
	}
}

func WithSecret(secret []byte) Option {
	return func(b *Backend) {
		b.secret = secret
	}
}

// New builds a backend seeded with the demo data in seed.go.
func New(options ...Option) *Backend {
	b := &Backend{
		secret:        []byte("fakebackend-secret"),
		accessTTL:     defaultAccessTTL,
		refreshTTL:    defaultRefreshTTL,
		nowTime:       time.Now,
		users:         make(map[string]*userRecord),
		googleTokens:  make(map[string]string),
		refreshTokens: make(map[string]*refreshRecord),
		proposals:     make(map[string]proposal),
		faults:        newFaults(),
		counters:      make(map[string]int),
	}
	for _, opt := range options {
		opt(b)
	}
	b.seed()
	return b
}

// Handler serves both backends on one router; their paths do not overlap.
func (b *Backend) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(b.countCalls)
	r.Use(b.injectFaults)

	r.Route("/api/auth/identidad", func(r chi.Router) {
		r.Post("/login", b.handleLogin)
		r.Post("/login-google", b.handleLoginGoogle)
		r.Post("/refresh-token", b.handleRefresh)

		r.Group(func(r chi.Router) {
			r.Use(b.requireAuth)
			r.Post("/logout", b.handleLogout)
			r.Get("/perfil", b.handleProfile)
			r.Post("/cambiar-contrasena", b.handleChangePassword)
			r.Get("/sesiones", b.handleMySessions)
			r.Post("/sesiones/revocar-todas", b.handleRevokeAllSessions)
			r.Post("/sesiones/{id}/revocar", b.handleRevokeSession)

			r.Get("/usuarios", b.handleListUsers)
			r.Post("/usuarios", b.handleCreateUser)
			r.Get("/usuarios/{id}", b.handleGetUser)
			r.Put("/usuarios/{id}", b.handleUpdateUser)
			r.Delete("/usuarios/{id}", b.handleDeleteUser)
			r.Post("/usuarios/{id}/desbloquear", b.handleUnblockUser)
			r.Post("/usuarios/{id}/resetear-contrasena", b.handleResetPassword)
			r.Get("/usuarios/{id}/sesiones", b.handleUserSessions)
			r.Post("/usuarios/{id}/revocar-sesiones", b.handleRevokeUserSessions)

			r.Get("/auditoria", b.handleAudit)
		})
	})

	r.Route("/api/auth/acceso", func(r chi.Router) {
		r.Use(b.requireAuth)
		r.Get("/roles", b.handleListRoles)
		r.Post("/roles", b.handleCreateRole)
		r.Get("/roles/{id}", b.handleGetRole)
		r.Put("/roles/{id}", b.handleUpdateRole)
		r.Delete("/roles/{id}", b.handleDeleteRole)
		r.Get("/permisos", b.handlePermissions)
		r.Get("/pantallas", b.handleScreens)
		r.Get("/reportes-catalogo", b.handleReportCatalog)
	})

	r.Route("/api/auth/unidades", func(r chi.Router) {
		r.Use(b.requireAuth)
		r.Get("/", b.handleListUnits)
		r.Post("/", b.handleCreateUnit)
		r.Get("/{id}", b.handleGetUnit)
		r.Put("/{id}", b.handleUpdateUnit)
		r.Delete("/{id}", b.handleDeleteUnit)
	})

	r.Route("/api/tareas", func(r chi.Router) {
		r.Use(b.requireAuth)

		r.Get("/estados", b.handleListStates)
		r.Post("/estados", b.handleCreateState)
		r.Put("/estados/{id}", b.handleUpdateState)
		r.Delete("/estados/{id}", b.handleDeleteState)

		r.Get("/dashboard/tareas", b.handleListTasks)
		r.Post("/dashboard/tareas", b.handleCreateTask)
		r.Get("/dashboard/tareas/{id}", b.handleGetTask)
		r.Put("/dashboard/tareas/{id}", b.handleUpdateTask)
		r.Delete("/dashboard/tareas/{id}", b.handleDeleteTask)
		r.Post("/dashboard/tareas/{id}/completar", b.handleCompleteTask)
		r.Get("/dashboard/tareas/{id}/historial", b.handleTaskHistory)

		r.Get("/aprobaciones", b.handleListRequests)
		r.Get("/aprobaciones/contadores", b.handleRequestCounters)
		r.Get("/aprobaciones/mis-solicitudes/listar", b.handleMyRequests)
		r.Get("/aprobaciones/{id}", b.handleGetRequest)
		r.Post("/aprobaciones/{id}/aprobar", b.handleApprove)
		r.Post("/aprobaciones/{id}/rechazar", b.handleReject)
		r.Post("/aprobaciones/{id}/reenviar", b.handleResubmit)

		r.Get("/reportes/contadores", b.handleReportCounters)
		r.Get("/reportes/ejecutar/{codigo}", b.handleExecuteReport)
	})

	return r
}

// Serve starts an httptest server for the backend. Callers close it.
func (b *Backend) Serve() *httptest.Server {
	return httptest.NewServer(b.Handler())
}

func (b *Backend) now() time.Time {
	return b.nowTime().UTC()
}

func (b *Backend) stamp() string {
	return b.now().Format(time.RFC3339)
}
