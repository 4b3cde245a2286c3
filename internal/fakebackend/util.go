package fakebackend

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-tareas-client/apiclient"
	"github.com/jrsteele09/go-tareas-client/audit"
)

const timeLayout = time.RFC3339

func urlParam(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

func newID(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

func queryInt(r *http.Request, key string, def int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(key)); err == nil && v > 0 {
		return v
	}
	return def
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// paginate slices items for the requested page, 1-based.
func paginate[T any](items []T, page, perPage int) apiclient.Page[T] {
	total := len(items)
	pages := (total + perPage - 1) / perPage
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := min(start+perPage, total)
	return apiclient.Page[T]{
		Records:    append([]T{}, items[start:end]...),
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: pages,
	}
}

// recordAudit appends to the audit trail. Callers hold b.mu.
func (b *Backend) recordAudit(userID, action, entity string, entityID *string, r *http.Request, result string) {
	var uid *string
	if userID != "" {
		uid = &userID
	}
	ip := r.RemoteAddr
	b.auditLog = append(b.auditLog, audit.Entry{
		ID:        int64(len(b.auditLog) + 1),
		UserID:    uid,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		IPAddress: &ip,
		Result:    result,
		CreatedAt: b.stamp(),
	})
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
