package tasks_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/jrsteele09/go-tareas-client/apiclient"
	"github.com/jrsteele09/go-tareas-client/internal/testenv"
	"github.com/jrsteele09/go-tareas-client/tasks"
	"github.com/stretchr/testify/require"
)

type testFixture struct {
	env *testenv.Env
	svc *tasks.Service
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	env := testenv.New(t)
	return &testFixture{env: env, svc: tasks.New(env.Tareas)}
}

func TestList(t *testing.T) {
	f := setupTestFixture(t)
	f.env.LoginAdmin(t)

	all, err := f.svc.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, *all.Data, 3)

	ops, err := f.svc.List(context.Background(), "uni-ops")
	require.NoError(t, err)
	require.Len(t, *ops.Data, 2)
}

func TestAdminChangesApplyDirectly(t *testing.T) {
	f := setupTestFixture(t)
	f.env.LoginAdmin(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, tasks.CreateRequest{Title: "Preparar informe", Priority: string(tasks.PriorityHigh), UnitID: "uni-ti"})
	require.NoError(t, err)
	require.False(t, created.Data.PendingApproval())
	id := created.Data.ID

	state := "est-progreso"
	title := "Preparar informe mensual"
	updated, err := f.svc.Update(ctx, id, tasks.UpdateRequest{Title: &title, StateID: &state})
	require.NoError(t, err)
	require.Equal(t, tasks.ResultTask, updated.Data.Kind)

	got, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, title, got.Data.Title)
	require.Equal(t, "En progreso", got.Data.StateName)
	require.Equal(t, "#3B82F6", got.Data.StateColor)

	_, err = f.svc.Complete(ctx, id)
	require.NoError(t, err)
	got, err = f.svc.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "est-completada", got.Data.StateID)

	history, err := f.svc.History(ctx, id)
	require.NoError(t, err)
	require.Len(t, *history.Data, 3)
	require.Equal(t, "CREAR", (*history.Data)[0].Action)
	require.Nil(t, (*history.Data)[0].Before)

	_, err = f.svc.Delete(ctx, id)
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, id)
	require.Equal(t, http.StatusNotFound, apiclient.StatusCode(err))
}

func TestOperatorChangesBecomeRequests(t *testing.T) {
	f := setupTestFixture(t)
	f.env.LoginOperator(t)
	ctx := context.Background()

	title := "Otro título"
	updated, err := f.svc.Update(ctx, "tar-1", tasks.UpdateRequest{Title: &title})
	require.NoError(t, err)
	require.True(t, updated.Data.PendingApproval())

	deleted, err := f.svc.Delete(ctx, "tar-1")
	require.NoError(t, err)
	require.True(t, deleted.Data.PendingApproval())

	got, err := f.svc.Get(ctx, "tar-1")
	require.NoError(t, err)
	require.Equal(t, "Revisar inventario", got.Data.Title)
}

func TestUpdate_InvalidState(t *testing.T) {
	f := setupTestFixture(t)
	f.env.LoginAdmin(t)

	bad := "est-nope"
	_, err := f.svc.Update(context.Background(), "tar-1", tasks.UpdateRequest{StateID: &bad})
	require.Equal(t, http.StatusUnprocessableEntity, apiclient.StatusCode(err))

	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, []string{"estado_id"}, apiErr.FieldErrors())
}

func TestActionResult_PendingApproval(t *testing.T) {
	var nilResult *tasks.ActionResult
	require.False(t, nilResult.PendingApproval())
	require.True(t, (&tasks.ActionResult{Kind: tasks.ResultRequest}).PendingApproval())
	require.False(t, (&tasks.ActionResult{Kind: tasks.ResultTask}).PendingApproval())
}
