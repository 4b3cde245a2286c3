package roles_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/jrsteele09/go-tareas-client/apiclient"
	"github.com/jrsteele09/go-tareas-client/internal/testenv"
	"github.com/jrsteele09/go-tareas-client/roles"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func setupTestFixture(t *testing.T) *roles.Service {
	t.Helper()
	env := testenv.New(t)
	env.LoginAdmin(t)
	return roles.New(env.Auth)
}

func TestCatalogs(t *testing.T) {
	svc := setupTestFixture(t)
	ctx := context.Background()

	perms, err := svc.Permissions(ctx)
	require.NoError(t, err)
	require.Len(t, *perms.Data, 3)

	screens, err := svc.Screens(ctx)
	require.NoError(t, err)
	require.Equal(t, "DASHBOARD", (*screens.Data)[0].Code)

	reps, err := svc.ReportCatalog(ctx)
	require.NoError(t, err)
	require.Len(t, *reps.Data, 5)
}

func TestRoleLifecycle(t *testing.T) {
	svc := setupTestFixture(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, roles.SaveRequest{
		Name: "Supervisor", Code: "SUPERVISOR", PermissionIDs: []string{"per-aprobar"}, ScreenIDs: []string{"pan-aprobaciones"},
	})
	require.NoError(t, err)
	id := created.Data.ID

	detail, err := svc.Get(ctx, id)
	require.NoError(t, err)
	doc := gjson.ParseBytes(*detail.Data)
	require.Equal(t, "SUPERVISOR", doc.Get("rol.CODIGO").String())
	require.Equal(t, "SOLICITUDES_APROBAR", doc.Get("permisos.0").String())

	_, err = svc.Update(ctx, id, roles.SaveRequest{Name: "Supervisora", Code: "SUPERVISOR"})
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, *list.Data, 3)

	_, err = svc.Delete(ctx, id)
	require.NoError(t, err)

	_, err = svc.Get(ctx, id)
	require.Equal(t, http.StatusNotFound, apiclient.StatusCode(err))
}

func TestSystemRolesAreProtected(t *testing.T) {
	svc := setupTestFixture(t)

	_, err := svc.Delete(context.Background(), "rol-admin")
	require.Equal(t, http.StatusForbidden, apiclient.StatusCode(err))
	require.Equal(t, "Los roles del sistema no se pueden eliminar", apiclient.Message(err, ""))
}
