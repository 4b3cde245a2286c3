// Package cli is the tareasctl command tree.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

const skipAppAnnotation = "skip-app"

// state is shared by every command of one root: the flags and the app built
// from them before a command runs.
type state struct {
	flags globalFlags
	app   *app
	out   io.Writer
	err   io.Writer
}

// NewRootCmd builds the command tree writing to out and errOut.
func NewRootCmd(version string, out, errOut io.Writer) *cobra.Command {
	st := &state{out: out, err: errOut}

	rootCmd := &cobra.Command{
		Use:           "tareasctl",
		Short:         "Cliente de línea de comandos del Sistema de Gestión de Tareas",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[skipAppAnnotation] == "true" {
				return nil
			}
			a, err := newApp(st.flags, st.out, st.err)
			if err != nil {
				return err
			}
			st.app = a
			return nil
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.PersistentFlags().StringVar(&st.flags.envFile, "env-file", ".env", "Archivo .env con variables de entorno")
	rootCmd.PersistentFlags().StringVar(&st.flags.configFile, "config", "tareas.yaml", "Archivo de configuración YAML")
	rootCmd.PersistentFlags().BoolVarP(&st.flags.verbose, "verbose", "v", false, "Registro detallado")

	rootCmd.AddCommand(
		newLoginCmd(st),
		newLogoutCmd(st),
		newProfileCmd(st),
		newPasswordCmd(st),
		newSessionsCmd(st),
		newTasksCmd(st),
		newStatesCmd(st),
		newApprovalsCmd(st),
		newUsersCmd(st),
		newUnitsCmd(st),
		newRolesCmd(st),
		newAuditCmd(st),
		newReportsCmd(st),
		newServeFakeCmd(st),
	)
	closeAfterRun(rootCmd, st)
	return rootCmd
}

// closeAfterRun releases the app once a command finishes, whether it failed or not.
func closeAfterRun(cmd *cobra.Command, st *state) {
	if run := cmd.RunE; run != nil {
		cmd.RunE = func(cmd *cobra.Command, args []string) error {
			err := run(cmd, args)
			if st.app != nil {
				if cerr := st.app.Close(); err == nil {
					err = cerr
				}
				st.app = nil
			}
			return err
		}
	}
	for _, child := range cmd.Commands() {
		closeAfterRun(child, st)
	}
}

// Execute runs the command line against the process streams.
func Execute(ctx context.Context, version string) error {
	out, errOut := stdStreams()
	rootCmd := NewRootCmd(version, out, errOut)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(errOut, errorStyle.Render("Error: "+err.Error()))
		return err
	}
	return nil
}
