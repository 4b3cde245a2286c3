package cli

import (
	"fmt"
	"strings"

	"github.com/jrsteele09/go-tareas-client/dashboard"
	"github.com/jrsteele09/go-tareas-client/internal/utils"
	"github.com/jrsteele09/go-tareas-client/states"
	"github.com/jrsteele09/go-tareas-client/tasks"
	"github.com/spf13/cobra"
)

func (a *app) board() *dashboard.Board {
	return dashboard.NewBoard(a.tasks, a.states, a.units, dashboard.WithLogger(a.logger))
}

// describeResult says whether a change was applied or is waiting for approval.
func describeResult(a *app, r *tasks.ActionResult, applied string) {
	if r.PendingApproval() {
		a.println(warnStyle.Render("Solicitud enviada para aprobación: " + r.ID))
		return
	}
	a.println(successStyle.Render(applied))
}

func newTasksCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Tablero de tareas",
	}
	cmd.AddCommand(
		newTasksListCmd(st),
		newTasksBoardCmd(st),
		newTasksCreateCmd(st),
		newTasksMoveCmd(st),
		newTasksDeleteCmd(st),
		newTasksCompleteCmd(st),
		newTasksHistoryCmd(st),
	)
	return cmd
}

func newTasksListCmd(st *state) *cobra.Command {
	var unitID string
	var page, perPage int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Listar tareas",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := st.app
			b := a.board()
			if err := b.Load(cmd.Context()); err != nil {
				return userError(err, "load board failed")
			}
			list, pages := b.Page(unitID, page, perPage)
			rows := make([][]string, 0, len(list))
			for _, t := range list {
				rows = append(rows, []string{t.ID, t.Title, t.Priority, t.StateName, t.UnitID})
			}
			fmt.Fprint(a.out, renderTable([]string{"ID", "TÍTULO", "PRIORIDAD", "ESTADO", "UNIDAD"}, rows))
			a.println(dimStyle.Render(fmt.Sprintf("Página %d de %d", min(max(page, 1), max(pages, 1)), max(pages, 1))))
			return nil
		},
	}
	cmd.Flags().StringVar(&unitID, "unit", "", "Filtrar por unidad")
	cmd.Flags().IntVar(&page, "page", 1, "Página")
	cmd.Flags().IntVar(&perPage, "per-page", 10, "Tareas por página")
	return cmd
}

func newTasksBoardCmd(st *state) *cobra.Command {
	var unitID string
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Mostrar el tablero por estados",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := st.app
			b := a.board()
			if err := b.Load(cmd.Context()); err != nil {
				return userError(err, "load board failed")
			}
			a.println(renderBoard(b.Columns(unitID)))
			return nil
		},
	}
	cmd.Flags().StringVar(&unitID, "unit", "", "Filtrar por unidad")
	return cmd
}

func newTasksCreateCmd(st *state) *cobra.Command {
	var req tasks.CreateRequest
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Crear una tarea",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := st.app
			req.Priority = strings.ToUpper(req.Priority)
			env, err := a.tasks.Create(cmd.Context(), req)
			if err != nil {
				return userError(err, "create task failed")
			}
			describeResult(a, env.Data, "Tarea creada")
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Title, "title", "", "Título")
	cmd.Flags().StringVar(&req.Description, "description", "", "Descripción")
	cmd.Flags().StringVar(&req.Priority, "priority", "", "Prioridad (ALTA, MEDIA, BAJA)")
	cmd.Flags().StringVar(&req.StateID, "state", "", "Estado inicial")
	cmd.Flags().StringVar(&req.UnitID, "unit", "", "Unidad")
	return cmd
}

func newTasksMoveCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "move <task-id> <state-id>",
		Short: "Mover una tarea a otro estado",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := st.app
			b := a.board()
			if err := b.Load(cmd.Context()); err != nil {
				return userError(err, "load board failed")
			}
			res, err := b.Move(cmd.Context(), args[0], args[1])
			if err != nil {
				return userError(err, "move task failed")
			}
			describeResult(a, res, "Tarea movida")
			return nil
		},
	}
}

func newTasksDeleteCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Eliminar una tarea",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := st.app
			b := a.board()
			if err := b.Load(cmd.Context()); err != nil {
				return userError(err, "load board failed")
			}
			res, err := b.Delete(cmd.Context(), args[0])
			if err != nil {
				return userError(err, "delete task failed")
			}
			describeResult(a, res, "Tarea eliminada")
			return nil
		},
	}
}

func newTasksCompleteCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <task-id>",
		Short: "Marcar una tarea como completada",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := st.app.tasks.Complete(cmd.Context(), args[0])
			if err != nil {
				return userError(err, "complete task failed")
			}
			describeResult(st.app, env.Data, "Tarea completada")
			return nil
		},
	}
}

func newTasksHistoryCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "history <task-id>",
		Short: "Historial de cambios de una tarea",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := st.app
			env, err := a.tasks.History(cmd.Context(), args[0])
			if err != nil {
				return userError(err, "task history failed")
			}
			var rows [][]string
			for _, h := range utils.Value(env.Data) {
				rows = append(rows, []string{h.CreatedAt, h.Action, utils.Value(h.Before), utils.Value(h.After), h.DoneBy})
			}
			fmt.Fprint(a.out, renderTable([]string{"FECHA", "ACCIÓN", "ANTES", "DESPUÉS", "POR"}, rows))
			return nil
		},
	}
}

func newStatesCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "states",
		Short: "Estados (columnas) del tablero",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := st.app
			env, err := a.states.List(cmd.Context())
			if err != nil {
				return userError(err, "list states failed")
			}
			var rows [][]string
			for _, s := range states.ActiveOrdered(utils.Value(env.Data)) {
				def := ""
				if s.IsDefault {
					def = "sí"
				}
				rows = append(rows, []string{s.ID, s.Name, s.Color, fmt.Sprint(s.Order), def})
			}
			fmt.Fprint(a.out, renderTable([]string{"ID", "NOMBRE", "COLOR", "ORDEN", "DEFECTO"}, rows))
			return nil
		},
	}

	var req states.SaveRequest
	save := &cobra.Command{
		Use:   "save [state-id]",
		Short: "Crear (sin id) o modificar un estado",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := st.app
			b := a.board()
			if err := b.Load(cmd.Context()); err != nil {
				return userError(err, "load board failed")
			}
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			if err := b.SaveColumn(cmd.Context(), id, req); err != nil {
				return userError(err, "save state failed")
			}
			a.println(successStyle.Render("Estado guardado"))
			return nil
		},
	}
	save.Flags().StringVar(&req.Name, "name", "", "Nombre")
	save.Flags().StringVar(&req.Color, "color", "", "Color (#RRGGBB)")

	remove := &cobra.Command{
		Use:   "delete <state-id>",
		Short: "Eliminar un estado",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := st.app
			b := a.board()
			if err := b.Load(cmd.Context()); err != nil {
				return userError(err, "load board failed")
			}
			if err := b.DeleteColumn(cmd.Context(), args[0]); err != nil {
				return userError(err, "delete state failed")
			}
			a.println(successStyle.Render("Estado eliminado"))
			return nil
		},
	}
	cmd.AddCommand(save, remove)
	return cmd
}
