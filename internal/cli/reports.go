package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jrsteele09/go-tareas-client/internal/utils"
	"github.com/jrsteele09/go-tareas-client/reportpdf"
	"github.com/jrsteele09/go-tareas-client/reports"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newReportsCmd(st *state) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Centro de reportes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := st.app
			user, err := a.auth.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			env, err := a.reports.Counters(cmd.Context())
			if err != nil {
				return userError(err, "report counters failed")
			}
			counters := utils.Value(env.Data)

			var rows [][]string
			for _, def := range reports.Search(search) {
				if !user.CanRunReport(def.Code) {
					continue
				}
				label := lipgloss.NewStyle().Foreground(lipgloss.Color(def.Type.Color())).Render(def.Type.Label())
				rows = append(rows, []string{def.Code, def.Name, label, strconv.Itoa(counters.For(def.Type))})
			}
			fmt.Fprint(a.out, renderTable([]string{"CÓDIGO", "NOMBRE", "TIPO", "REGISTROS"}, rows))
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "Buscar por nombre o descripción")

	var params reports.ExecuteParams
	var pdfDir string
	run := &cobra.Command{
		Use:   "run <code>",
		Short: "Ejecutar un reporte",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := st.app
			def, ok := reports.Lookup(args[0])
			if !ok {
				return errors.Errorf("Reporte no encontrado: %s", args[0])
			}
			env, err := a.reports.Execute(cmd.Context(), def.Code, params)
			if err != nil {
				return userError(err, "run report failed")
			}
			table, err := reports.ParseTable(utils.Value(env.Data))
			if err != nil {
				return err
			}

			a.println(titleStyle.Render(def.Name))
			if table.Empty() {
				a.println(dimStyle.Render("No se encontraron registros para este reporte"))
			} else {
				fmt.Fprint(a.out, renderTable(table.Columns, table.Rows))
				a.println(dimStyle.Render(fmt.Sprintf("Total de registros: %d", table.Total)))
			}

			if pdfDir == "" {
				return nil
			}
			now := time.Now()
			path := filepath.Join(pdfDir, reportpdf.FileName(def, now))
			f, err := os.Create(path)
			if err != nil {
				return errors.Wrap(err, "[reports.run] unable to create pdf")
			}
			if err := reportpdf.Render(f, def, table, now); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return errors.Wrap(err, "[reports.run] unable to write pdf")
			}
			a.println(successStyle.Render("PDF generado: " + path))
			return nil
		},
	}
	run.Flags().StringVar(&params.DateFrom, "from", "", "Desde (AAAA-MM-DD)")
	run.Flags().StringVar(&params.DateTo, "to", "", "Hasta (AAAA-MM-DD)")
	run.Flags().StringVar(&params.UnitID, "unit", "", "Unidad")
	run.Flags().StringVar(&pdfDir, "pdf", "", "Directorio donde guardar el PDF")

	cmd.AddCommand(run)
	return cmd
}
