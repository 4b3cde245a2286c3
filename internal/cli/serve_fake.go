package cli

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/jrsteele09/go-tareas-client/internal/fakebackend"
	"github.com/spf13/cobra"
)

// newServeFakeCmd runs the in-memory backend so the other commands can be
// tried without the real services.
func newServeFakeCmd(st *state) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:         "serve-fake",
		Short:       "Servir un backend de demostración en memoria",
		Annotations: map[string]string{skipAppAnnotation: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", addr, err)
			}
			server := &http.Server{Handler: fakebackend.New().Handler(), ReadHeaderTimeout: 10 * time.Second}

			url := "http://" + ln.Addr().String()
			fmt.Fprintf(st.out, "Backend de demostración en %s\n", url)
			fmt.Fprintf(st.out, "  TAREAS_AUTH_URL=%s TAREAS_TASKS_URL=%s\n", url, url)
			fmt.Fprintf(st.out, "  admin: %s / %s\n", fakebackend.AdminEmail, fakebackend.AdminPassword)
			fmt.Fprintf(st.out, "  operador: %s / %s\n", fakebackend.OperatorEmail, fakebackend.OperatorPassword)

			served := make(chan error, 1)
			go func() {
				if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
					served <- fmt.Errorf("server.Serve %w", err)
					return
				}
				served <- nil
			}()

			select {
			case err := <-served:
				return err
			case <-cmd.Context().Done():
			}
			return shutdown(server)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:4000", "Dirección de escucha")
	return cmd
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
