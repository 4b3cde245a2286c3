package approvals_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/jrsteele09/go-tareas-client/apiclient"
	"github.com/jrsteele09/go-tareas-client/approvals"
	errs "github.com/jrsteele09/go-tareas-client/internal/errors"
	"github.com/jrsteele09/go-tareas-client/internal/testenv"
	"github.com/jrsteele09/go-tareas-client/tasks"
	"github.com/stretchr/testify/require"
)

type testFixture struct {
	env       *testenv.Env
	svc       *approvals.Service
	requestID string
}

// setupTestFixture files one edit request as the operator and signs in as admin.
func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	env := testenv.New(t)
	env.LoginOperator(t)

	title := "Revisar inventario completo"
	res, err := tasks.New(env.Tareas).Update(context.Background(), "tar-1", tasks.UpdateRequest{Title: &title})
	require.NoError(t, err)
	require.True(t, res.Data.PendingApproval())

	env.LoginAdmin(t)
	return &testFixture{env: env, svc: approvals.New(env.Tareas), requestID: res.Data.ID}
}

func TestCountersAndList(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	counters, err := f.svc.Counters(ctx, "")
	require.NoError(t, err)
	require.Equal(t, approvals.Counters{Pending: 1}, *counters.Data)

	list, err := f.svc.List(ctx, approvals.ListParams{Status: approvals.StatusPending, Search: "inventario"})
	require.NoError(t, err)
	require.Len(t, *list.Data, 1)
	require.Equal(t, "EDITAR", (*list.Data)[0].ActionType)
	require.Equal(t, "Pendiente", (*list.Data)[0].TaskStateName)

	none, err := f.svc.List(ctx, approvals.ListParams{UnitID: "uni-ti"})
	require.NoError(t, err)
	require.Empty(t, *none.Data)
}

func TestApprove(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	outcome, err := f.svc.Approve(ctx, f.requestID, "Conforme")
	require.NoError(t, err)
	require.Equal(t, 1, outcome.Data.Success)
	require.Equal(t, "tar-1", outcome.Data.TaskID)

	task, err := tasks.New(f.env.Tareas).Get(ctx, "tar-1")
	require.NoError(t, err)
	require.Equal(t, "Revisar inventario completo", task.Data.Title)

	got, err := f.svc.Get(ctx, f.requestID)
	require.NoError(t, err)
	require.Equal(t, approvals.StatusApproved, got.Data.Status)
	require.NotNil(t, got.Data.ResolvedAt)

	_, err = f.svc.Approve(ctx, f.requestID, "")
	require.Equal(t, http.StatusConflict, apiclient.StatusCode(err))
}

func TestReject(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	rejectPath := "/api/tareas/aprobaciones/" + f.requestID + "/rechazar"

	t.Run("short reason is rejected locally", func(t *testing.T) {
		for _, reason := range []string{"", "corto", "   123456789   "} {
			_, err := f.svc.Reject(ctx, f.requestID, reason)
			require.ErrorIs(t, err, approvals.RejectReasonTooShortErr)
			require.ErrorIs(t, err, errs.ErrInvalidInput)
		}
		require.Zero(t, f.env.Backend.Calls(http.MethodPost, rejectPath))
	})

	t.Run("valid reason", func(t *testing.T) {
		_, err := f.svc.Reject(ctx, f.requestID, "  Falta información del proveedor  ")
		require.NoError(t, err)

		got, err := f.svc.Get(ctx, f.requestID)
		require.NoError(t, err)
		require.Equal(t, approvals.StatusRejected, got.Data.Status)
		require.Equal(t, "Falta información del proveedor", *got.Data.RejectionReason)
	})
}

func TestMyRequestsAndResubmit(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	_, err := f.svc.Reject(ctx, f.requestID, "Título poco descriptivo")
	require.NoError(t, err)

	f.env.LoginOperator(t)
	mine, err := f.svc.MyRequests(ctx, approvals.StatusRejected)
	require.NoError(t, err)
	require.Len(t, *mine.Data, 1)

	title := "Revisar inventario del almacén central"
	res, err := f.svc.Resubmit(ctx, f.requestID, approvals.ResubmitRequest{Title: &title})
	require.NoError(t, err)
	require.NotEqual(t, f.requestID, res.Data.RequestID)

	pending, err := f.svc.MyRequests(ctx, approvals.StatusPending)
	require.NoError(t, err)
	require.Len(t, *pending.Data, 1)
	require.Equal(t, title, (*pending.Data)[0].Title)

	_, err = f.svc.Approve(ctx, res.Data.RequestID, "")
	require.Equal(t, http.StatusForbidden, apiclient.StatusCode(err), "operators cannot approve")
}

func TestValidateRejectReason(t *testing.T) {
	require.NoError(t, approvals.ValidateRejectReason("diez chars"))
	require.NoError(t, approvals.ValidateRejectReason("ñandúes aquí"))
	require.Error(t, approvals.ValidateRejectReason("ñandú"))
}
