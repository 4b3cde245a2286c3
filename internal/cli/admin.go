package cli

import (
	"fmt"
	"strconv"

	"github.com/jrsteele09/go-tareas-client/audit"
	"github.com/jrsteele09/go-tareas-client/internal/utils"
	"github.com/jrsteele09/go-tareas-client/units"
	"github.com/jrsteele09/go-tareas-client/users"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

func yesNo(b bool) string {
	if b {
		return "sí"
	}
	return "no"
}

func pageFooter(a *app, page, totalPages, total int) {
	a.println(dimStyle.Render(fmt.Sprintf("Página %d de %d (%d registros)", page, max(totalPages, 1), total)))
}

func newUsersCmd(st *state) *cobra.Command {
	var params users.ListParams
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Administración de usuarios",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := st.app
			env, err := a.users.List(cmd.Context(), params)
			if err != nil {
				return userError(err, "list users failed")
			}
			if env.Data == nil {
				return nil
			}
			rows := make([][]string, 0, len(env.Data.Records))
			for _, u := range env.Data.Records {
				rows = append(rows, []string{u.ID, u.FullName, u.Email, u.RoleCode, u.UnitCode, yesNo(u.Active)})
			}
			fmt.Fprint(a.out, renderTable([]string{"ID", "NOMBRE", "CORREO", "ROL", "UNIDAD", "ACTIVO"}, rows))
			pageFooter(a, env.Data.Page, env.Data.TotalPages, env.Data.Total)
			return nil
		},
	}
	cmd.Flags().IntVar(&params.Page, "page", 1, "Página")
	cmd.Flags().IntVar(&params.PerPage, "per-page", 10, "Usuarios por página")
	cmd.Flags().StringVar(&params.UnitID, "unit", "", "Filtrar por unidad")
	cmd.Flags().StringVar(&params.RoleID, "role", "", "Filtrar por rol")
	cmd.Flags().StringVar(&params.Search, "search", "", "Buscar por nombre o correo")

	var create users.CreateRequest
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Crear un usuario",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := st.app.users.Create(cmd.Context(), create)
			if err != nil {
				return userError(err, "create user failed")
			}
			st.app.println(successStyle.Render("Usuario creado: " + env.Data.ID))
			return nil
		},
	}
	createCmd.Flags().StringVar(&create.FullName, "name", "", "Nombre completo")
	createCmd.Flags().StringVar(&create.Email, "email", "", "Correo")
	createCmd.Flags().StringVar(&create.Password, "password", "", "Contraseña inicial")
	createCmd.Flags().StringVar(&create.UnitID, "unit", "", "Unidad")
	createCmd.Flags().StringVar(&create.RoleID, "role", "", "Rol")

	simple := func(use, short, done string, call func(cmd *cobra.Command, id string) error) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <user-id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := call(cmd, args[0]); err != nil {
					return userError(err, use+" failed")
				}
				st.app.println(successStyle.Render(done))
				return nil
			},
		}
	}
	deleteCmd := simple("delete", "Eliminar un usuario", "Usuario eliminado", func(cmd *cobra.Command, id string) error {
		_, err := st.app.users.Delete(cmd.Context(), id)
		return err
	})
	unblockCmd := simple("unblock", "Desbloquear un usuario", "Usuario desbloqueado", func(cmd *cobra.Command, id string) error {
		_, err := st.app.users.Unblock(cmd.Context(), id)
		return err
	})
	revokeCmd := simple("revoke-sessions", "Revocar las sesiones de un usuario", "Sesiones revocadas", func(cmd *cobra.Command, id string) error {
		_, err := st.app.users.RevokeSessions(cmd.Context(), id)
		return err
	})

	var newPassword string
	resetCmd := simple("reset-password", "Restablecer la contraseña de un usuario", "Contraseña restablecida", func(cmd *cobra.Command, id string) error {
		_, err := st.app.users.ResetPassword(cmd.Context(), id, newPassword)
		return err
	})
	resetCmd.Flags().StringVar(&newPassword, "password", "", "Nueva contraseña")

	cmd.AddCommand(createCmd, deleteCmd, unblockCmd, revokeCmd, resetCmd)
	return cmd
}

func newUnitsCmd(st *state) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "units",
		Short: "Unidades organizativas",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := st.app
			env, err := a.units.List(cmd.Context(), search)
			if err != nil {
				return userError(err, "list units failed")
			}
			var rows [][]string
			for _, u := range utils.Value(env.Data) {
				rows = append(rows, []string{u.ID, u.Code, u.Name, u.Color, yesNo(u.Active)})
			}
			fmt.Fprint(a.out, renderTable([]string{"ID", "CÓDIGO", "NOMBRE", "COLOR", "ACTIVA"}, rows))
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "Buscar por nombre o código")

	var create units.CreateRequest
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Crear una unidad",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := st.app.units.Create(cmd.Context(), create)
			if err != nil {
				return userError(err, "create unit failed")
			}
			st.app.println(successStyle.Render("Unidad creada: " + env.Data.ID))
			return nil
		},
	}
	createCmd.Flags().StringVar(&create.Name, "name", "", "Nombre")
	createCmd.Flags().StringVar(&create.Code, "code", "", "Código")
	createCmd.Flags().StringVar(&create.Description, "description", "", "Descripción")
	createCmd.Flags().StringVar(&create.Color, "color", "", "Color (#RRGGBB)")
	cmd.AddCommand(createCmd)
	return cmd
}

func newRolesCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Roles y permisos",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := st.app
			env, err := a.roles.List(cmd.Context())
			if err != nil {
				return userError(err, "list roles failed")
			}
			var rows [][]string
			for _, r := range utils.Value(env.Data) {
				rows = append(rows, []string{r.ID, r.Code, r.Name, yesNo(r.System), yesNo(r.Active)})
			}
			fmt.Fprint(a.out, renderTable([]string{"ID", "CÓDIGO", "NOMBRE", "SISTEMA", "ACTIVO"}, rows))
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show <role-id>",
		Short: "Detalle de un rol con sus permisos",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := st.app
			env, err := a.roles.Get(cmd.Context(), args[0])
			if err != nil {
				return userError(err, "get role failed")
			}
			if env.Data == nil {
				return nil
			}
			detail := gjson.ParseBytes(*env.Data)
			role := detail.Get("rol")
			if !role.Exists() {
				role = detail
			}
			a.println(titleStyle.Render(role.Get("NOMBRE").String()) + dimStyle.Render(" ("+role.Get("CODIGO").String()+")"))
			for _, section := range []struct{ label, key string }{
				{"Permisos", "permisos"},
				{"Pantallas", "pantallas"},
				{"Reportes", "reportes"},
			} {
				codes := detail.Get(section.key).Array()
				a.printf("%s (%d):", section.label, len(codes))
				for _, c := range codes {
					// Entries are plain codes or catalog objects.
					if c.IsObject() {
						c = c.Get("CODIGO")
					}
					a.printf(" %s", c.String())
				}
				a.println()
			}
			return nil
		},
	}
	cmd.AddCommand(show)
	return cmd
}

func newAuditCmd(st *state) *cobra.Command {
	var params audit.ListParams
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Bitácora de auditoría",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := st.app
			env, err := a.audit.List(cmd.Context(), params)
			if err != nil {
				return userError(err, "list audit failed")
			}
			if env.Data == nil {
				return nil
			}
			rows := make([][]string, 0, len(env.Data.Records))
			for _, e := range env.Data.Records {
				rows = append(rows, []string{strconv.FormatInt(e.ID, 10), e.CreatedAt, utils.Value(e.UserID), e.Action, e.Entity, e.Result})
			}
			fmt.Fprint(a.out, renderTable([]string{"ID", "FECHA", "USUARIO", "ACCIÓN", "ENTIDAD", "RESULTADO"}, rows))
			pageFooter(a, env.Data.Page, env.Data.TotalPages, env.Data.Total)
			return nil
		},
	}
	cmd.Flags().IntVar(&params.Page, "page", 1, "Página")
	cmd.Flags().IntVar(&params.PerPage, "per-page", 20, "Registros por página")
	cmd.Flags().StringVar(&params.UserID, "user", "", "Filtrar por usuario")
	cmd.Flags().StringVar(&params.Action, "action", "", "Filtrar por acción")
	cmd.Flags().StringVar(&params.DateFrom, "from", "", "Desde (AAAA-MM-DD)")
	cmd.Flags().StringVar(&params.DateTo, "to", "", "Hasta (AAAA-MM-DD)")
	return cmd
}
