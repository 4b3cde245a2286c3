package fakebackend

import (
	"net/http"
	"slices"
	"strings"

	"github.com/jrsteele09/go-tareas-client/approvals"
	"github.com/jrsteele09/go-tareas-client/states"
	"github.com/jrsteele09/go-tareas-client/tasks"
)

// Request action types.
const (
	actionCreate = "CREAR"
	actionEdit   = "EDITAR"
	actionDelete = "ELIMINAR"
)

func (b *Backend) handleListStates(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ok(w, "Estados obtenidos", b.states)
}

func (b *Backend) stateIndex(id string) int {
	return slices.IndexFunc(b.states, func(s states.State) bool { return s.ID == id })
}

func (b *Backend) handleCreateState(w http.ResponseWriter, r *http.Request) {
	var req states.SaveRequest
	if err := decode(r, &req); err != nil || strings.TrimSpace(req.Name) == "" {
		b.fail(w, http.StatusUnprocessableEntity, "El nombre es obligatorio", "nombre")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	order := 0
	for _, st := range b.states {
		order = max(order, st.Order)
	}
	color := req.Color
	if color == "" {
		color = "#9D833E"
	}
	st := states.State{ID: newID("est"), Name: req.Name, Color: color, Order: order + 1, Active: true}
	b.states = append(b.states, st)
	b.created(w, "Estado creado", map[string]string{"id": st.ID})
}

func (b *Backend) handleUpdateState(w http.ResponseWriter, r *http.Request) {
	var req states.SaveRequest
	if err := decode(r, &req); err != nil {
		b.fail(w, http.StatusBadRequest, "Solicitud inválida")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.stateIndex(urlParam(r, "id"))
	if i < 0 {
		b.fail(w, http.StatusNotFound, "Estado no encontrado")
		return
	}
	if req.Name != "" {
		b.states[i].Name = req.Name
	}
	if req.Color != "" {
		b.states[i].Color = req.Color
	}
	for j := range b.tasks {
		if b.tasks[j].StateID == b.states[i].ID {
			b.applyState(&b.tasks[j], b.states[i].ID)
		}
	}
	b.ok(w, "Estado actualizado", nil)
}

func (b *Backend) handleDeleteState(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")

	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.stateIndex(id)
	if i < 0 {
		b.fail(w, http.StatusNotFound, "Estado no encontrado")
		return
	}
	if len(b.states) <= 1 {
		b.fail(w, http.StatusConflict, "Debe existir al menos un estado")
		return
	}
	for _, t := range b.tasks {
		if t.StateID == id {
			b.fail(w, http.StatusConflict, "El estado tiene tareas asignadas")
			return
		}
	}
	b.states = slices.Delete(b.states, i, i+1)
	b.ok(w, "Estado eliminado", nil)
}

func (b *Backend) taskIndex(id string) int {
	return slices.IndexFunc(b.tasks, func(t tasks.Task) bool { return t.ID == id })
}

func (b *Backend) defaultStateID() string {
	for _, st := range b.states {
		if st.IsDefault && st.Active {
			return st.ID
		}
	}
	if active := states.ActiveOrdered(b.states); len(active) > 0 {
		return active[0].ID
	}
	return ""
}

func (b *Backend) handleListTasks(w http.ResponseWriter, r *http.Request) {
	unit := r.URL.Query().Get("unidad_id")

	b.mu.Lock()
	defer b.mu.Unlock()

	out := []tasks.Task{}
	for _, t := range b.tasks {
		if unit == "" || t.UnitID == unit {
			out = append(out, t)
		}
	}
	b.ok(w, "Tareas obtenidas", out)
}

func (b *Backend) handleGetTask(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.taskIndex(urlParam(r, "id"))
	if i < 0 {
		b.fail(w, http.StatusNotFound, "Tarea no encontrada")
		return
	}
	b.ok(w, "Tarea obtenida", b.tasks[i])
}

func (b *Backend) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req tasks.CreateRequest
	if err := decode(r, &req); err != nil || strings.TrimSpace(req.Title) == "" {
		b.fail(w, http.StatusUnprocessableEntity, "El título es obligatorio", "titulo")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	caller := callerID(r)
	unitID := req.UnitID
	if unitID == "" {
		unitID = b.users[caller].UnitID
	}
	priority := req.Priority
	if priority == "" {
		priority = string(tasks.PriorityMedium)
	}

	if !b.isAdmin(caller) {
		sol := b.newRequest(caller, actionCreate, nil, req.Title, strPtr(req.Description), priority, unitID)
		b.proposals[sol.ID] = proposal{create: &req}
		b.created(w, "Solicitud de creación enviada", tasks.ActionResult{Kind: tasks.ResultRequest, ID: sol.ID})
		return
	}

	t := b.createTask(req, caller, unitID, priority)
	b.created(w, "Tarea creada", tasks.ActionResult{Kind: tasks.ResultTask, ID: t.ID})
}

func (b *Backend) createTask(req tasks.CreateRequest, caller, unitID, priority string) tasks.Task {
	stateID := req.StateID
	if b.stateIndex(stateID) < 0 {
		stateID = b.defaultStateID()
	}
	t := b.newTask(newID("tar"), req.Title, priority, unitID, caller, stateID)
	t.Description = strPtr(req.Description)
	b.tasks = append(b.tasks, t)
	b.recordHistory(t.ID, "CREAR", nil, t, nil, caller)
	return t
}

func (b *Backend) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var req tasks.UpdateRequest
	if err := decode(r, &req); err != nil {
		b.fail(w, http.StatusBadRequest, "Solicitud inválida")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	id := urlParam(r, "id")
	i := b.taskIndex(id)
	if i < 0 {
		b.fail(w, http.StatusNotFound, "Tarea no encontrada")
		return
	}
	if req.StateID != nil && b.stateIndex(*req.StateID) < 0 {
		b.fail(w, http.StatusUnprocessableEntity, "Estado inválido", "estado_id")
		return
	}

	caller := callerID(r)
	if !b.isAdmin(caller) {
		t := b.tasks[i]
		title := t.Title
		if req.Title != nil {
			title = *req.Title
		}
		sol := b.newRequest(caller, actionEdit, &t.ID, title, req.Description, t.Priority, t.UnitID)
		b.proposals[sol.ID] = proposal{update: &req}
		b.ok(w, "Solicitud de edición enviada", tasks.ActionResult{Kind: tasks.ResultRequest, ID: sol.ID})
		return
	}

	b.updateTask(i, req, nil, caller)
	b.ok(w, "Tarea actualizada", tasks.ActionResult{Kind: tasks.ResultTask, ID: id})
}

func (b *Backend) updateTask(i int, req tasks.UpdateRequest, requestID *string, caller string) {
	before := b.tasks[i]
	t := &b.tasks[i]
	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Description != nil {
		t.Description = req.Description
	}
	if req.Priority != nil {
		t.Priority = *req.Priority
	}
	if req.StateID != nil {
		b.applyState(t, *req.StateID)
	}
	b.recordHistory(t.ID, "EDITAR", &before, *t, requestID, caller)
}

func (b *Backend) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")

	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.taskIndex(id)
	if i < 0 {
		b.fail(w, http.StatusNotFound, "Tarea no encontrada")
		return
	}

	caller := callerID(r)
	if !b.isAdmin(caller) {
		t := b.tasks[i]
		sol := b.newRequest(caller, actionDelete, &t.ID, t.Title, t.Description, t.Priority, t.UnitID)
		b.proposals[sol.ID] = proposal{}
		b.ok(w, "Solicitud de eliminación enviada", tasks.ActionResult{Kind: tasks.ResultRequest, ID: sol.ID})
		return
	}

	b.deleteTask(i, nil, caller)
	b.ok(w, "Tarea eliminada", tasks.ActionResult{Kind: tasks.ResultTask, ID: id})
}

func (b *Backend) deleteTask(i int, requestID *string, caller string) {
	before := b.tasks[i]
	b.tasks = slices.Delete(b.tasks, i, i+1)
	b.recordHistory(before.ID, "ELIMINAR", &before, tasks.Task{}, requestID, caller)
}

// handleCompleteTask moves the task to the last active column.
func (b *Backend) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")

	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.taskIndex(id)
	if i < 0 {
		b.fail(w, http.StatusNotFound, "Tarea no encontrada")
		return
	}
	active := states.ActiveOrdered(b.states)
	if len(active) == 0 {
		b.fail(w, http.StatusConflict, "No hay estados activos")
		return
	}
	last := active[len(active)-1].ID
	b.updateTask(i, tasks.UpdateRequest{StateID: &last}, nil, callerID(r))
	b.ok(w, "Tarea completada", tasks.ActionResult{Kind: tasks.ResultTask, ID: id})
}

func (b *Backend) handleTaskHistory(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")

	b.mu.Lock()
	defer b.mu.Unlock()

	out := []tasks.HistoryEntry{}
	for _, h := range b.history {
		if h.TaskID == id {
			out = append(out, h)
		}
	}
	b.ok(w, "Historial obtenido", out)
}

func (b *Backend) handleRequestCounters(w http.ResponseWriter, r *http.Request) {
	unit := r.URL.Query().Get("unidad_id")

	b.mu.Lock()
	defer b.mu.Unlock()

	var c approvals.Counters
	for _, s := range b.requests {
		if unit != "" && s.UnitID != unit {
			continue
		}
		switch s.Status {
		case approvals.StatusPending:
			c.Pending++
		case approvals.StatusApproved:
			c.Approved++
		case approvals.StatusRejected:
			c.Rejected++
		}
	}
	b.ok(w, "Contadores obtenidos", c)
}

func (b *Backend) handleListRequests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	b.mu.Lock()
	defer b.mu.Unlock()

	out := []approvals.Request{}
	for _, s := range b.requests {
		if v := q.Get("estado_solicitud"); v != "" && s.Status != v {
			continue
		}
		if v := q.Get("prioridad"); v != "" && s.Priority != v {
			continue
		}
		if v := q.Get("tipo_accion"); v != "" && s.ActionType != v {
			continue
		}
		if v := q.Get("unidad_id"); v != "" && s.UnitID != v {
			continue
		}
		if v := q.Get("busqueda"); v != "" && !containsFold(s.Title, v) {
			continue
		}
		out = append(out, s)
	}
	b.ok(w, "Solicitudes obtenidas", out)
}

func (b *Backend) handleMyRequests(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("estado_solicitud")

	b.mu.Lock()
	defer b.mu.Unlock()

	out := []approvals.Request{}
	for _, s := range b.requests {
		if s.RequesterID == callerID(r) && (status == "" || s.Status == status) {
			out = append(out, s)
		}
	}
	b.ok(w, "Solicitudes obtenidas", out)
}

func (b *Backend) requestIndex(id string) int {
	return slices.IndexFunc(b.requests, func(s approvals.Request) bool { return s.ID == id })
}

func (b *Backend) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.requestIndex(urlParam(r, "id"))
	if i < 0 {
		b.fail(w, http.StatusNotFound, "Solicitud no encontrada")
		return
	}
	b.ok(w, "Solicitud obtenida", b.requests[i])
}

func (b *Backend) handleApprove(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	caller := callerID(r)
	if !b.isAdmin(caller) {
		b.fail(w, http.StatusForbidden, "No tiene permisos para aprobar")
		return
	}
	i := b.requestIndex(urlParam(r, "id"))
	if i < 0 {
		b.fail(w, http.StatusNotFound, "Solicitud no encontrada")
		return
	}
	sol := &b.requests[i]
	if sol.Status != approvals.StatusPending {
		b.fail(w, http.StatusConflict, "La solicitud ya fue resuelta")
		return
	}

	taskID := b.applyProposal(sol, caller)
	now := b.stamp()
	sol.Status, sol.ApprovedBy, sol.ResolvedAt = approvals.StatusApproved, &caller, &now
	b.ok(w, "Solicitud aprobada", approvals.Outcome{Success: 1, Message: "Solicitud aprobada", TaskID: taskID})
}

// applyProposal carries out an approved request. Callers hold b.mu.
func (b *Backend) applyProposal(sol *approvals.Request, caller string) string {
	p := b.proposals[sol.ID]
	delete(b.proposals, sol.ID)
	reqID := sol.ID

	switch sol.ActionType {
	case actionCreate:
		req := tasks.CreateRequest{Title: sol.Title, Priority: sol.Priority, UnitID: sol.UnitID}
		if p.create != nil {
			req = *p.create
		}
		t := b.createTask(req, sol.RequesterID, sol.UnitID, sol.Priority)
		sol.TaskID = &t.ID
		return t.ID
	case actionEdit:
		if sol.TaskID == nil {
			return ""
		}
		if i := b.taskIndex(*sol.TaskID); i >= 0 && p.update != nil {
			b.updateTask(i, *p.update, &reqID, caller)
		}
		return *sol.TaskID
	case actionDelete:
		if sol.TaskID == nil {
			return ""
		}
		if i := b.taskIndex(*sol.TaskID); i >= 0 {
			b.deleteTask(i, &reqID, caller)
		}
		return *sol.TaskID
	}
	return ""
}

func (b *Backend) handleReject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"motivo"`
	}
	if err := decode(r, &req); err != nil {
		b.fail(w, http.StatusBadRequest, "Solicitud inválida")
		return
	}
	if err := approvals.ValidateRejectReason(req.Reason); err != nil {
		b.fail(w, http.StatusUnprocessableEntity, "El motivo debe tener al menos 10 caracteres", "motivo")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	caller := callerID(r)
	if !b.isAdmin(caller) {
		b.fail(w, http.StatusForbidden, "No tiene permisos para rechazar")
		return
	}
	i := b.requestIndex(urlParam(r, "id"))
	if i < 0 {
		b.fail(w, http.StatusNotFound, "Solicitud no encontrada")
		return
	}
	sol := &b.requests[i]
	if sol.Status != approvals.StatusPending {
		b.fail(w, http.StatusConflict, "La solicitud ya fue resuelta")
		return
	}
	now := b.stamp()
	reason := strings.TrimSpace(req.Reason)
	sol.Status, sol.RejectionReason, sol.ResolvedAt = approvals.StatusRejected, &reason, &now
	b.ok(w, "Solicitud rechazada", approvals.Outcome{Success: 1, Message: "Solicitud rechazada"})
}

func (b *Backend) handleResubmit(w http.ResponseWriter, r *http.Request) {
	var req approvals.ResubmitRequest
	if err := decode(r, &req); err != nil {
		b.fail(w, http.StatusBadRequest, "Solicitud inválida")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.requestIndex(urlParam(r, "id"))
	if i < 0 {
		b.fail(w, http.StatusNotFound, "Solicitud no encontrada")
		return
	}
	old := b.requests[i]
	if old.RequesterID != callerID(r) || old.Status != approvals.StatusRejected {
		b.fail(w, http.StatusConflict, "Solo se pueden reenviar solicitudes propias rechazadas")
		return
	}

	title, desc, priority := old.Title, old.Description, old.Priority
	if req.Title != nil {
		title = *req.Title
	}
	if req.Description != nil {
		desc = req.Description
	}
	if req.Priority != nil {
		priority = *req.Priority
	}
	sol := b.newRequest(old.RequesterID, old.ActionType, old.TaskID, title, desc, priority, old.UnitID)
	p := b.proposals[old.ID]
	if p.create != nil {
		c := *p.create
		c.Title, c.Priority = title, priority
		if desc != nil {
			c.Description = *desc
		}
		p.create = &c
	}
	if p.update != nil {
		u := *p.update
		if req.Title != nil {
			u.Title = req.Title
		}
		if req.Description != nil {
			u.Description = req.Description
		}
		if req.Priority != nil {
			u.Priority = req.Priority
		}
		p.update = &u
	}
	b.proposals[sol.ID] = p
	b.created(w, "Solicitud reenviada", approvals.ResubmitResult{RequestID: sol.ID})
}

// proposal is the change a pending request will apply once approved.
type proposal struct {
	create *tasks.CreateRequest
	update *tasks.UpdateRequest
}

func (b *Backend) newRequest(requester, action string, taskID *string, title string, desc *string, priority, unitID string) approvals.Request {
	sol := approvals.Request{
		ID:          newID("sol"),
		TaskID:      taskID,
		ActionType:  action,
		Title:       title,
		Description: desc,
		Priority:    priority,
		UnitID:      unitID,
		RequesterID: requester,
		Status:      approvals.StatusPending,
		CreatedAt:   b.stamp(),
	}
	if taskID != nil {
		if i := b.taskIndex(*taskID); i >= 0 {
			sol.TaskStateName, sol.TaskStateColor = b.tasks[i].StateName, b.tasks[i].StateColor
		}
	}
	b.requests = append(b.requests, sol)
	return sol
}

func (b *Backend) recordHistory(taskID, action string, before *tasks.Task, after tasks.Task, requestID *string, caller string) {
	var beforeRaw, afterRaw *string
	if before != nil {
		beforeRaw = strPtr(compactTask(*before))
	}
	if after.ID != "" {
		afterRaw = strPtr(compactTask(after))
	}
	b.history = append(b.history, tasks.HistoryEntry{
		ID:        int64(len(b.history) + 1),
		TaskID:    taskID,
		Action:    action,
		Before:    beforeRaw,
		After:     afterRaw,
		RequestID: requestID,
		DoneBy:    caller,
		CreatedAt: b.stamp(),
	})
}

func compactTask(t tasks.Task) string {
	return t.Title + " | " + t.Priority + " | " + t.StateName
}
