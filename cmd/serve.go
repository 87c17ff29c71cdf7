package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/distancia360/agroanalytics/internal/api"
	"github.com/distancia360/agroanalytics/internal/app"
	"github.com/distancia360/agroanalytics/internal/monitoring"
	"github.com/distancia360/agroanalytics/internal/refdata"
	"github.com/distancia360/agroanalytics/internal/store"
)

const shutdownTimeout = 15 * time.Second

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		env, err := newServeEnv(ctx, monitoring.NewMetrics())
		if err != nil {
			return err
		}
		defer env.close()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			env.checker.Run(gctx)
			return nil
		})
		g.Go(func() error {
			if err := env.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return eris.Wrap(err, "http server")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return env.server.Shutdown(shutdownCtx)
		})
		return g.Wait()
	},
}

// serveEnv is everything serve runs.
type serveEnv struct {
	app     *app.App
	server  *api.Server
	checker *monitoring.Checker
	store   store.Store // nil with --data
}

func (e *serveEnv) close() {
	if e.store != nil {
		_ = e.store.Close()
	}
}

// storeReadiness reports ready while the store answers pings.
type storeReadiness struct {
	st store.Store
}

func (r storeReadiness) CheckReadiness(ctx context.Context) error {
	return r.st.Ping(ctx)
}

// newServeEnv loads the reference data and wires the API server, its pair
// cache and the metrics refresher. The store stays open for readiness checks.
func newServeEnv(ctx context.Context, metrics *monitoring.Metrics) (*serveEnv, error) {
	env := &serveEnv{}

	var t *refdata.Tables
	var err error
	if dataDirFlag != "" {
		t, err = refdata.Load(ctx, dataDirFlag, cfg.Data.Files)
	} else {
		env.store, err = initStore(ctx)
		if err != nil {
			return nil, eris.Wrap(err, "open store")
		}
		t, err = tablesFromStore(ctx, env.store)
	}
	if err != nil {
		env.close()
		return nil, err
	}

	opts := app.OptionsFromConfig(cfg)
	opts.Cache = true
	opts.Search.Observer = metrics
	env.app = app.New(t, opts)

	serverOpts := api.Options{
		CORSOrigins:    cfg.Server.CORSOrigins,
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
		RequestTimeout: time.Duration(cfg.Server.RequestTimeoutSecs) * time.Second,
		Metrics:        metrics,
	}
	var imports monitoring.ImportLog
	if env.store != nil {
		serverOpts.Ready = storeReadiness{st: env.store}
		imports = env.store
	}
	env.server = api.NewServer(fmt.Sprintf(":%d", cfg.Server.Port), env.app, serverOpts)

	collector := monitoring.NewCollector(t, env.app.Cache, imports, nil)
	env.checker = monitoring.NewChecker(collector, metrics,
		time.Duration(cfg.Monitoring.RefreshIntervalSecs)*time.Second, nil)

	zap.L().Info("api ready",
		zap.String("command", "serve"),
		zap.Int("port", cfg.Server.Port),
		zap.Int("municipalities", env.app.Catalog.Len()),
	)
	return env, nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default server.port)")
	rootCmd.AddCommand(serveCmd)
}
