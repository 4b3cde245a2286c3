package fakebackend

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-tareas-client/auth"
	"github.com/jrsteele09/go-tareas-client/identity"
)

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := decode(r, &req); err != nil {
		b.fail(w, http.StatusBadRequest, "Solicitud inválida")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	u := b.userByEmail(req.Email)
	if u == nil || !checkPasswordHash(req.Password, u.PasswordHash) {
		b.recordAudit("", "LOGIN", "USUARIO", nil, r, "FALLIDO")
		b.fail(w, http.StatusUnauthorized, "Credenciales inválidas")
		return
	}
	b.completeLogin(w, r, u)
}

func (b *Backend) handleLoginGoogle(w http.ResponseWriter, r *http.Request) {
	var req auth.GoogleLoginRequest
	if err := decode(r, &req); err != nil || req.IDToken == "" {
		b.fail(w, http.StatusBadRequest, "Token de Google requerido")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	u, ok := b.users[b.googleTokens[req.IDToken]]
	if !ok {
		b.fail(w, http.StatusUnauthorized, "Token de Google inválido")
		return
	}
	b.completeLogin(w, r, u)
}

// completeLogin opens a session for u. Callers hold b.mu.
func (b *Backend) completeLogin(w http.ResponseWriter, r *http.Request, u *userRecord) {
	if u.Blocked || !u.Active {
		b.fail(w, http.StatusForbidden, "Usuario bloqueado o inactivo")
		return
	}

	now := b.now()
	ua := r.UserAgent()
	ip := r.RemoteAddr
	sess := &sessionRecord{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		IPAddress: &ip,
		UserAgent: &ua,
		CreatedAt: now.Format(timeLayout),
		ExpiresAt: now.Add(b.refreshTTL).Format(timeLayout),
	}
	b.sessions = append(b.sessions, sess)

	pair, err := b.issuePair(u, sess.ID)
	if err != nil {
		b.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	last := now.Format(timeLayout)
	u.LastAccess = &last
	b.recordAudit(u.ID, "LOGIN", "USUARIO", &u.ID, r, "EXITOSO")

	b.ok(w, "Inicio de sesión exitoso", auth.LoginResponse{TokenPair: pair, User: b.profile(u)})
}

func (b *Backend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := decode(r, &req); err != nil {
		b.fail(w, http.StatusBadRequest, "Solicitud inválida")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.refreshTokens[req.RefreshToken]
	if !ok || b.refreshExpired(rec) || !b.sessionActive(rec.SessionID) {
		b.fail(w, http.StatusUnauthorized, "Refresh token inválido o expirado")
		return
	}
	u, ok := b.users[rec.UserID]
	if !ok {
		b.fail(w, http.StatusUnauthorized, "Usuario no encontrado")
		return
	}
	pair, err := b.issuePair(u, rec.SessionID)
	if err != nil {
		b.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	b.ok(w, "Token renovado", auth.LoginResponse{TokenPair: pair, User: b.profile(u)})
}

func (b *Backend) handleLogout(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.revokeSession(callerSession(r))
	b.recordAudit(callerID(r), "LOGOUT", "USUARIO", nil, r, "EXITOSO")
	b.ok(w, "Sesión cerrada", nil)
}

func (b *Backend) handleProfile(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	u, ok := b.users[callerID(r)]
	if !ok {
		b.fail(w, http.StatusNotFound, "Usuario no encontrado")
		return
	}
	b.ok(w, "Perfil obtenido", b.profile(u))
}

func (b *Backend) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req auth.ChangePasswordRequest
	if err := decode(r, &req); err != nil {
		b.fail(w, http.StatusBadRequest, "Solicitud inválida")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	u, ok := b.users[callerID(r)]
	if !ok {
		b.fail(w, http.StatusNotFound, "Usuario no encontrado")
		return
	}
	if !checkPasswordHash(req.Current, u.PasswordHash) {
		b.fail(w, http.StatusBadRequest, "La contraseña actual es incorrecta")
		return
	}
	if len(req.New) < identity.MinPasswordLength {
		b.fail(w, http.StatusBadRequest, "La nueva contraseña es demasiado corta", "contrasena_nueva")
		return
	}
	hash, err := hashPassword(req.New)
	if err != nil {
		b.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	u.PasswordHash = hash
	b.recordAudit(u.ID, "CAMBIAR_CONTRASENA", "USUARIO", &u.ID, r, "EXITOSO")
	b.ok(w, "Contraseña actualizada", nil)
}

func (b *Backend) handleMySessions(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ok(w, "Sesiones obtenidas", b.sessionsOf(callerID(r)))
}

func (b *Backend) handleRevokeSession(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, s := range b.sessions {
		if s.ID == id && s.UserID == callerID(r) {
			b.revokeSession(id)
			b.ok(w, "Sesión revocada", nil)
			return
		}
	}
	b.fail(w, http.StatusNotFound, "Sesión no encontrada")
}

func (b *Backend) handleRevokeAllSessions(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	current := callerSession(r)
	for _, s := range b.sessions {
		if s.UserID == callerID(r) && s.ID != current {
			b.revokeSession(s.ID)
		}
	}
	b.ok(w, "Sesiones revocadas", nil)
}

func (b *Backend) sessionsOf(userID string) []auth.ActiveSession {
	out := []auth.ActiveSession{}
	for _, s := range b.sessions {
		if s.UserID != userID {
			continue
		}
		out = append(out, auth.ActiveSession{
			ID:        s.ID,
			IPAddress: s.IPAddress,
			UserAgent: s.UserAgent,
			CreatedAt: s.CreatedAt,
			ExpiresAt: s.ExpiresAt,
			Revoked:   s.Revoked,
		})
	}
	return out
}

// revokeSession marks the session revoked and drops its refresh token.
func (b *Backend) revokeSession(id string) {
	for _, s := range b.sessions {
		if s.ID == id {
			s.Revoked = true
		}
	}
	for tok, rec := range b.refreshTokens {
		if rec.SessionID == id {
			delete(b.refreshTokens, tok)
		}
	}
}
