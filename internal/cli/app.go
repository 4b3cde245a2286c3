package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/jrsteele09/go-tareas-client/apiclient"
	"github.com/jrsteele09/go-tareas-client/approvals"
	"github.com/jrsteele09/go-tareas-client/audit"
	"github.com/jrsteele09/go-tareas-client/auth"
	"github.com/jrsteele09/go-tareas-client/internal/config"
	"github.com/jrsteele09/go-tareas-client/reports"
	"github.com/jrsteele09/go-tareas-client/roles"
	"github.com/jrsteele09/go-tareas-client/session/sqlitestore"
	"github.com/jrsteele09/go-tareas-client/states"
	"github.com/jrsteele09/go-tareas-client/tasks"
	"github.com/jrsteele09/go-tareas-client/units"
	"github.com/jrsteele09/go-tareas-client/users"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// app is everything a command needs, built once per invocation.
type app struct {
	cfg     config.Config
	logger  zerolog.Logger
	out     io.Writer
	errOut  io.Writer
	store   *sqlitestore.Store
	factory *apiclient.Factory
	metrics *prometheus.Registry

	auth      *auth.Service
	users     *users.Service
	roles     *roles.Service
	units     *units.Service
	audit     *audit.Service
	states    *states.Service
	tasks     *tasks.Service
	approvals *approvals.Service
	reports   *reports.Service

	unsubscribe func()
}

type globalFlags struct {
	envFile    string
	configFile string
	verbose    bool
}

func newLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).
		Level(level).
		With().Timestamp().Logger()
}

func newApp(flags globalFlags, out, errOut io.Writer) (*app, error) {
	cfg, err := config.Load(flags.envFile, flags.configFile)
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:     cfg,
		logger:  newLogger(errOut, flags.verbose),
		out:     out,
		errOut:  errOut,
		metrics: prometheus.NewRegistry(),
	}

	a.store, err = sqlitestore.Open(cfg.GetSessionDBPath())
	if err != nil {
		return nil, errors.Wrap(err, "[newApp] unable to open session store")
	}

	m, err := apiclient.NewMetrics(a.metrics)
	if err != nil {
		_ = a.store.Close()
		return nil, errors.Wrap(err, "[newApp] unable to register metrics")
	}

	httpClient := &http.Client{Timeout: cfg.GetRequestTimeout()}
	options := []apiclient.FactoryOption{
		apiclient.WithHTTPClient(httpClient),
		apiclient.WithLogger(a.logger),
		apiclient.WithMetrics(m),
		apiclient.WithRefreshTimeout(cfg.GetRefreshTimeout()),
		apiclient.WithLoginPath(cfg.GetLoginPath()),
	}
	if limit := cfg.GetRateLimit(); limit > 0 {
		options = append(options, apiclient.WithRateLimiter(rate.NewLimiter(rate.Limit(limit), cfg.GetRateBurst())))
	}

	a.factory, err = apiclient.NewFactory(a.store, apiclient.NewEndpointRefresher(cfg.GetAuthURL(), httpClient), options...)
	if err != nil {
		_ = a.store.Close()
		return nil, err
	}
	a.unsubscribe = a.factory.OnSessionInvalidated(func(_ context.Context, inv apiclient.Invalidation) {
		fmt.Fprintln(a.errOut, warnStyle.Render(fmt.Sprintf("La sesión ha expirado. Inicie sesión de nuevo (%s): tareasctl login", inv.LoginPath)))
	})

	authClient := a.factory.NewClient("auth", cfg.GetAuthURL())
	tareasClient := a.factory.NewClient("tareas", cfg.GetTareasURL())

	a.auth, err = auth.NewService(authClient, a.store, auth.WithLogger(a.logger))
	if err != nil {
		_ = a.store.Close()
		return nil, err
	}
	a.users = users.New(authClient)
	a.roles = roles.New(authClient)
	a.units = units.New(authClient)
	a.audit = audit.New(authClient)
	a.states = states.New(tareasClient)
	a.tasks = tasks.New(tareasClient)
	a.approvals = approvals.New(tareasClient)
	a.reports = reports.New(tareasClient)
	return a, nil
}

// Close logs the request counters at debug level and releases the store.
func (a *app) Close() error {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	a.logMetrics()
	return a.store.Close()
}

func (a *app) logMetrics() {
	families, err := a.metrics.Gather()
	if err != nil {
		a.logger.Debug().Err(err).Msg("gather metrics")
		return
	}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			ev := a.logger.Debug().Str("metric", mf.GetName())
			for _, lp := range metric.GetLabel() {
				ev = ev.Str(lp.GetName(), lp.GetValue())
			}
			ev.Float64("value", metric.GetCounter().GetValue()).Msg("metrics")
		}
	}
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *app) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

// userError turns a pipeline error into the message the backend sent, if any.
func userError(err error, fallback string) error {
	if err == nil {
		return nil
	}
	msg := apiclient.Message(err, "")
	if msg == "" {
		return errors.Wrap(err, fallback)
	}
	return errors.New(msg)
}

func stdStreams() (io.Writer, io.Writer) {
	return os.Stdout, os.Stderr
}
