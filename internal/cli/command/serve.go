// Package command provides CLI command definitions for restkit-server.
package command

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/restkit-go/internal/core/service"
	"github.com/yndnr/restkit-go/internal/infra/buildinfo"
	"github.com/yndnr/restkit-go/internal/infra/certprovider"
	"github.com/yndnr/restkit-go/internal/infra/confloader"
	"github.com/yndnr/restkit-go/internal/infra/kerberos"
	"github.com/yndnr/restkit-go/internal/infra/shutdown"
	"github.com/yndnr/restkit-go/internal/server/config"
	"github.com/yndnr/restkit-go/internal/server/httpserver"
	"github.com/yndnr/restkit-go/internal/server/httpserver/handler"
	"github.com/yndnr/restkit-go/internal/telemetry/logger"
	"github.com/yndnr/restkit-go/internal/telemetry/metric"
)

// ServeCommand returns the serve command.
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the HTTP server",
		Action: serve,
	}
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig(newLoader(c))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)
	slogger := log.Slog()
	slog.SetDefault(slogger)

	slogger.Info("starting restkit-server",
		"version", buildinfo.Version,
		"commit", buildinfo.Get().Commit,
		"config", c.String("config"))
	slogger.Debug("effective configuration", "config", config.Sanitize(cfg))

	rt, err := newInstance(cfg, slogger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancelCause(c.Context)
	defer cancel(nil)

	sh := shutdown.NewHandler(cfg.Server.ShutdownTimeout, shutdown.WithLogger(slogger))
	rt.reload = func() (*config.ServerConfig, error) { return loadConfig(newLoader(c)) }
	if err := rt.start(ctx, cancel, sh, c.String("config")); err != nil {
		return err
	}

	if err := sh.Wait(ctx); err != nil {
		slogger.Error("shutdown error", "error", err)
		return err
	}
	if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}

	slogger.Info("server stopped gracefully")
	return nil
}

// instance holds the components of a running server.
type instance struct {
	cfg        *config.ServerConfig
	logger     *slog.Logger
	metrics    *metric.Registry
	negotiator *service.NegotiateAuthenticator
	certs      *certprovider.Watcher
	router     *httpserver.Router
	server     *httpserver.Server

	// reload returns the configuration to apply on a reload request.
	reload func() (*config.ServerConfig, error)
}

// newInstance builds every component from cfg without starting anything.
func newInstance(cfg *config.ServerConfig, log *slog.Logger) (*instance, error) {
	rt := &instance{
		cfg:     cfg,
		logger:  log,
		metrics: metric.NewRegistry(),
	}

	if cfg.Kerberos.Enabled {
		mech, err := kerberos.AcquireServerCredential(kerberos.Config{
			Keytab:           cfg.Kerberos.Keytab,
			ServicePrincipal: cfg.Kerberos.ServicePrincipal,
			MaxClockSkew:     cfg.Kerberos.MaxClockSkew,
			Logger:           log,
		})
		if err != nil {
			return nil, err
		}
		rt.negotiator, err = service.NewNegotiateAuthenticator(service.NegotiateConfig{
			Mechanism: mech,
			Proxy:     cfg.Kerberos.Proxy,
			OnRound: func(s service.HandshakeState) {
				rt.metrics.RecordNegotiateRound(s.String())
			},
		})
		if err != nil {
			return nil, err
		}
		log.Info("kerberos negotiate enabled",
			"service_principal", mech.ServicePrincipal(),
			"proxy", cfg.Kerberos.Proxy)
	}

	sessions := func() int {
		if rt.negotiator == nil {
			return 0
		}
		return rt.negotiator.Sessions().Count()
	}
	if err := rt.metrics.Register(metric.NewCollector(sessions)); err != nil {
		return nil, fmt.Errorf("register collector: %w", err)
	}

	tlsConfig, err := rt.tlsConfig()
	if err != nil {
		return nil, err
	}

	rt.router = httpserver.NewRouter(httpserver.RouterConfig{
		Validator: service.NewValidator(service.ValidatorConfig{MaxBodyBytes: cfg.Server.MaxBodyBytes}),
		Responses: httpserver.NewResponseWriter(httpserver.ResponseConfig{
			ChunkSize: cfg.Server.StreamChunkSize,
			Observe:   rt.metrics.RecordResponse,
		}),
		Negotiator:         rt.negotiator,
		Logger:             log,
		HideInternalErrors: cfg.Server.HideInternalErrors,
		OnReject:           rt.metrics.RecordRejection,
	})

	hcfg := handler.Config{
		Logger:        log,
		CORS:          cfg.CORS.Enabled,
		ExtraHeaders:  cfg.CORS.ExtraHeaders,
		TokenRequired: cfg.Auth.TokenRequired,
		Negotiate:     rt.negotiator != nil,
		Sessions:      sessions,
	}
	if cfg.Metrics.Enabled {
		hcfg.Metrics = rt.metrics.Handler()
		hcfg.MetricsPath = cfg.Metrics.Path
	}
	if err := handler.New(hcfg).Register(rt.router); err != nil {
		return nil, fmt.Errorf("register endpoints: %w", err)
	}

	conns := httpserver.NewConnTracker()
	if rt.negotiator != nil {
		conns.OnClose(rt.negotiator.Evict)
	}

	rt.server = httpserver.New(httpserver.ServerConfig{
		Addr:              cfg.Server.Addr,
		Handler:           rt.handler(),
		Router:            rt.router,
		TLSConfig:         tlsConfig,
		Conns:             conns,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		Logger:            log,
	})
	return rt, nil
}

// handler wraps the router in the middleware chain. Recover runs outermost.
func (rt *instance) handler() http.Handler {
	workers := int64(rt.cfg.Server.Workers)
	if rt.cfg.Server.Executor == config.ExecutorSingle {
		workers = 1
	}

	mws := []httpserver.Middleware{
		httpserver.Recover(rt.logger),
		httpserver.RequestID(),
		httpserver.Metrics(rt.metrics),
		httpserver.Audit(rt.logger),
	}
	if rt.cfg.Server.RateLimit > 0 {
		mws = append(mws, httpserver.RateLimit(httpserver.RateLimitConfig{
			RequestsPerSecond: rt.cfg.Server.RateLimit,
			OnLimited:         rt.metrics.IncRateLimited,
		}))
	}
	mws = append(mws, httpserver.Executor(workers))

	return httpserver.Chain(rt.router, mws...)
}

func (rt *instance) tlsConfig() (*tls.Config, error) {
	tc := rt.cfg.TLS
	if !tc.Enabled() {
		return nil, nil
	}
	src := certprovider.Source{
		Keystore: tc.Keystore,
		Password: tc.KeystorePassword,
		CertFile: tc.CertFile,
		KeyFile:  tc.KeyFile,
	}
	if !tc.Watch {
		return certprovider.ServerConfig(src)
	}

	w, err := certprovider.NewWatcher(src, certprovider.WithLogger(rt.logger))
	if err != nil {
		return nil, err
	}
	rt.certs = w
	return w.TLSConfig(), nil
}

// start launches the listener and the background workers and registers
// their shutdown hooks. Hooks run in reverse order, so the server stops first.
func (rt *instance) start(ctx context.Context, cancel context.CancelCauseFunc, sh *shutdown.Handler, configFile string) error {
	if rt.certs != nil {
		rt.certs.StartAsync()
		sh.OnShutdown("certificate watcher", func(context.Context) error {
			rt.certs.Stop()
			return nil
		})
	}

	if configFile != "" {
		w, err := confloader.NewWatcher(confloader.WithWatcherLogger(rt.logger))
		if err != nil {
			return fmt.Errorf("config watcher: %w", err)
		}
		if err := w.Watch(configFile); err != nil {
			w.Stop()
			return fmt.Errorf("config watcher: %w", err)
		}
		w.OnChange(func(string) { rt.applyReload() })
		w.StartAsync()
		sh.OnShutdown("config watcher", func(context.Context) error { return w.Stop() })
	}
	sh.OnReload(rt.applyReload)

	if rt.negotiator != nil {
		stop := rt.sweepHandshakes(ctx)
		sh.OnShutdown("handshake sweeper", func(context.Context) error {
			stop()
			return nil
		})
	}

	go func() {
		if err := rt.server.ListenAndServe(); err != nil {
			rt.logger.Error("http server error", "error", err)
			cancel(err)
		}
	}()
	sh.OnShutdown("http server", rt.server.Shutdown)
	return nil
}

// sweepHandshakes drops handshakes left unfinished past the configured TTL.
func (rt *instance) sweepHandshakes(ctx context.Context) (stop func()) {
	ttl := rt.cfg.Kerberos.HandshakeTTL
	if ttl <= 0 {
		ttl = config.DefaultHandshakeTTL
	}
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(ttl / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := rt.negotiator.SweepIdle(ttl); n > 0 {
					rt.logger.Debug("dropped idle negotiate handshakes", "count", n)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return cancel
}

// applyReload re-reads the configuration and applies the log level.
// Other settings take effect on restart.
func (rt *instance) applyReload() {
	if rt.reload == nil {
		return
	}
	cfg, err := rt.reload()
	if err != nil {
		rt.logger.Error("configuration reload failed, keeping current settings", "error", err)
		return
	}
	logger.SetLevel(cfg.Log.Level)
	rt.logger.Info("configuration reloaded", "log_level", logger.GetLevel())
}
