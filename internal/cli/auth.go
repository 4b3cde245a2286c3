package cli

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/go-tareas-client/googlelogin"
	"github.com/jrsteele09/go-tareas-client/internal/utils"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const googleLoginTimeout = 2 * time.Minute

func newLoginCmd(st *state) *cobra.Command {
	var email, password string
	var google bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Iniciar sesión",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := st.app
			if google {
				return googleSignIn(cmd.Context(), a)
			}
			env, err := a.auth.Login(cmd.Context(), email, password)
			if err != nil {
				return userError(err, "login failed")
			}
			a.println(successStyle.Render("Bienvenido, " + env.Data.User.FullName))
			a.printf("Rol: %s  Unidad: %s\n", env.Data.User.RoleName, env.Data.User.UnitName)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Correo electrónico")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Contraseña")
	cmd.Flags().BoolVar(&google, "google", false, "Iniciar sesión con Google en el navegador")
	return cmd
}

// googleSignIn serves the redirect URL locally until the browser comes back
// with a code.
func googleSignIn(ctx context.Context, a *app) error {
	flow, err := googlelogin.New(ctx, googlelogin.Config{
		Issuer:       a.cfg.GetGoogleIssuer(),
		ClientID:     a.cfg.GetGoogleClientID(),
		ClientSecret: a.cfg.GetGoogleClientSecret(),
		RedirectURL:  a.cfg.GetGoogleRedirectURL(),
	}, a.auth, googlelogin.WithLogger(a.logger))
	if err != nil {
		return err
	}
	redirect, err := url.Parse(a.cfg.GetGoogleRedirectURL())
	if err != nil {
		return errors.Wrap(err, "[googleSignIn] invalid redirect url")
	}

	done := make(chan error, 1)
	finish := func(err error) {
		select {
		case done <- err:
		default:
		}
	}
	r := chi.NewRouter()
	r.Get(redirect.Path, func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		res, err := flow.Complete(req.Context(), q.Get("state"), q.Get("code"))
		if err != nil {
			http.Error(w, "No se pudo iniciar sesión: "+err.Error(), http.StatusUnauthorized)
			finish(err)
			return
		}
		fmt.Fprintf(w, "Sesión iniciada como %s. Puede cerrar esta ventana.\n", res.Login.User.Email)
		finish(nil)
	})

	ln, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return errors.Wrap(err, "[googleSignIn] unable to listen for the callback")
	}
	srv := &http.Server{Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() { _ = srv.Serve(ln) }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	authURL, err := flow.Begin("/")
	if err != nil {
		return err
	}
	a.println("Abra esta dirección en el navegador para continuar:")
	a.println(authURL)

	ctx, cancel := context.WithTimeout(ctx, googleLoginTimeout)
	defer cancel()
	select {
	case err := <-done:
		if err != nil {
			return userError(err, "google sign-in failed")
		}
	case <-ctx.Done():
		return errors.New("tiempo de espera agotado para el inicio de sesión con Google")
	}

	user, err := a.auth.CurrentUser(ctx)
	if err != nil {
		return err
	}
	a.println(successStyle.Render("Bienvenido, " + user.FullName))
	return nil
}

func newLogoutCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Cerrar sesión",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := st.app.auth.Logout(cmd.Context()); err != nil {
				return err
			}
			st.app.println("Sesión cerrada")
			return nil
		},
	}
}

func newProfileCmd(st *state) *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Mostrar el usuario actual",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := st.app
			user, err := a.auth.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			if remote {
				env, err := a.auth.Profile(cmd.Context())
				if err != nil {
					return userError(err, "profile failed")
				}
				user = env.Data
			}
			a.println(titleStyle.Render(user.FullName))
			a.printf("Correo:   %s\n", user.Email)
			a.printf("Rol:      %s (%s)\n", user.RoleName, user.RoleCode)
			a.printf("Unidad:   %s (%s)\n", user.UnitName, user.UnitCode)
			if len(user.Permisos) > 0 {
				a.printf("Permisos: %s\n", strings.Join(user.Permisos, ", "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "Consultar el perfil en el servidor")
	return cmd
}

func newPasswordCmd(st *state) *cobra.Command {
	var current, next, confirm string
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Cambiar la contraseña",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := st.app.auth.ChangePassword(cmd.Context(), current, next, confirm)
			if err != nil {
				return userError(err, "change password failed")
			}
			st.app.println(successStyle.Render(env.Message))
			return nil
		},
	}
	cmd.Flags().StringVar(&current, "current", "", "Contraseña actual")
	cmd.Flags().StringVar(&next, "new", "", "Nueva contraseña")
	cmd.Flags().StringVar(&confirm, "confirm", "", "Confirmación de la nueva contraseña")
	return cmd
}

func newSessionsCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Sesiones activas del usuario",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := st.app
			env, err := a.auth.MySessions(cmd.Context())
			if err != nil {
				return userError(err, "list sessions failed")
			}
			var rows [][]string
			for _, s := range utils.Value(env.Data) {
				rows = append(rows, []string{s.ID, utils.Value(s.IPAddress), s.CreatedAt, s.ExpiresAt})
			}
			fmt.Fprint(a.out, renderTable([]string{"ID", "IP", "CREADA", "EXPIRA"}, rows))
			return nil
		},
	}

	revoke := &cobra.Command{
		Use:   "revoke <id>",
		Short: "Revocar una sesión",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := st.app.auth.RevokeSession(cmd.Context(), args[0])
			if err != nil {
				return userError(err, "revoke session failed")
			}
			st.app.println(env.Message)
			return nil
		},
	}
	revokeAll := &cobra.Command{
		Use:   "revoke-all",
		Short: "Revocar todas las sesiones",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := st.app.auth.RevokeAllSessions(cmd.Context())
			if err != nil {
				return userError(err, "revoke sessions failed")
			}
			st.app.println(env.Message)
			return nil
		},
	}
	cmd.AddCommand(revoke, revokeAll)
	return cmd
}


