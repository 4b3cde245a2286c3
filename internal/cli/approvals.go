package cli

import (
	"fmt"
	"strings"

	"github.com/jrsteele09/go-tareas-client/approvals"
	"github.com/jrsteele09/go-tareas-client/dashboard"
	"github.com/jrsteele09/go-tareas-client/internal/utils"
	"github.com/spf13/cobra"
)

func requestRows(list []approvals.Request) [][]string {
	rows := make([][]string, 0, len(list))
	for _, r := range list {
		rows = append(rows, []string{r.ID, r.ActionType, r.Title, r.Priority, r.Status, r.CreatedAt})
	}
	return rows
}

var requestHeaders = []string{"ID", "ACCIÓN", "TÍTULO", "PRIORIDAD", "ESTADO", "CREADA"}

func newApprovalsCmd(st *state) *cobra.Command {
	var filter approvals.ListParams
	cmd := &cobra.Command{
		Use:   "approvals",
		Short: "Bandeja de solicitudes de aprobación",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := st.app
			inbox := dashboard.NewInbox(a.approvals, &a.logger)
			if err := inbox.Load(cmd.Context(), filter); err != nil {
				return userError(err, "load approvals failed")
			}
			c := inbox.Counters()
			a.println(titleStyle.Render(fmt.Sprintf("Pendientes: %d  Aprobadas: %d  Rechazadas: %d", c.Pending, c.Approved, c.Rejected)))
			fmt.Fprint(a.out, renderTable(requestHeaders, requestRows(inbox.Requests.Snapshot())))
			return nil
		},
	}
	cmd.Flags().StringVar(&filter.Status, "status", approvals.StatusPending, "Estado de la solicitud")
	cmd.Flags().StringVar(&filter.Priority, "priority", "", "Prioridad")
	cmd.Flags().StringVar(&filter.ActionType, "action", "", "Tipo de acción (CREAR, EDITAR, ELIMINAR)")
	cmd.Flags().StringVar(&filter.UnitID, "unit", "", "Unidad")
	cmd.Flags().StringVar(&filter.Search, "search", "", "Buscar por título")

	var note string
	approve := &cobra.Command{
		Use:   "approve <request-id>",
		Short: "Aprobar una solicitud",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := st.app
			inbox := dashboard.NewInbox(a.approvals, &a.logger)
			if err := inbox.Load(cmd.Context(), approvals.ListParams{Status: approvals.StatusPending}); err != nil {
				return userError(err, "load approvals failed")
			}
			out, err := inbox.Approve(cmd.Context(), args[0], note)
			if err != nil {
				return userError(err, "approve failed")
			}
			a.println(successStyle.Render(out.Message))
			return nil
		},
	}
	approve.Flags().StringVar(&note, "note", "", "Comentario")

	var reason string
	reject := &cobra.Command{
		Use:   "reject <request-id>",
		Short: "Rechazar una solicitud",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := st.app
			if err := approvals.ValidateRejectReason(reason); err != nil {
				return userError(err, "reject failed")
			}
			inbox := dashboard.NewInbox(a.approvals, &a.logger)
			if err := inbox.Load(cmd.Context(), approvals.ListParams{Status: approvals.StatusPending}); err != nil {
				return userError(err, "load approvals failed")
			}
			out, err := inbox.Reject(cmd.Context(), args[0], reason)
			if err != nil {
				return userError(err, "reject failed")
			}
			a.println(successStyle.Render(out.Message))
			return nil
		},
	}
	reject.Flags().StringVar(&reason, "reason", "", "Motivo del rechazo (mínimo 10 caracteres)")

	var mineStatus string
	mine := &cobra.Command{
		Use:   "mine",
		Short: "Mis solicitudes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := st.app
			env, err := a.approvals.MyRequests(cmd.Context(), mineStatus)
			if err != nil {
				return userError(err, "list my requests failed")
			}
			fmt.Fprint(a.out, renderTable(requestHeaders, requestRows(utils.Value(env.Data))))
			return nil
		},
	}
	mine.Flags().StringVar(&mineStatus, "status", "", "Estado de la solicitud")

	var resubmitTitle, resubmitDesc, resubmitPriority string
	resubmit := &cobra.Command{
		Use:   "resubmit <request-id>",
		Short: "Reenviar una solicitud rechazada",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := st.app
			var req approvals.ResubmitRequest
			if cmd.Flags().Changed("title") {
				req.Title = utils.Ptr(resubmitTitle)
			}
			if cmd.Flags().Changed("description") {
				req.Description = utils.Ptr(resubmitDesc)
			}
			if cmd.Flags().Changed("priority") {
				req.Priority = utils.Ptr(strings.ToUpper(resubmitPriority))
			}
			env, err := a.approvals.Resubmit(cmd.Context(), args[0], req)
			if err != nil {
				return userError(err, "resubmit failed")
			}
			a.println(successStyle.Render("Solicitud reenviada: " + env.Data.RequestID))
			return nil
		},
	}
	resubmit.Flags().StringVar(&resubmitTitle, "title", "", "Nuevo título")
	resubmit.Flags().StringVar(&resubmitDesc, "description", "", "Nueva descripción")
	resubmit.Flags().StringVar(&resubmitPriority, "priority", "", "Nueva prioridad")

	cmd.AddCommand(approve, reject, mine, resubmit)
	return cmd
}
