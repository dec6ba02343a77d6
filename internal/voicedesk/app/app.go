// Package app assembles and runs the voicedeskd daemon.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/bdobrica/voicedesk/common/retry"
	"github.com/bdobrica/voicedesk/internal/voicedesk/actions"
	"github.com/bdobrica/voicedesk/internal/voicedesk/alexa"
	"github.com/bdobrica/voicedesk/internal/voicedesk/config"
	"github.com/bdobrica/voicedesk/internal/voicedesk/mgmt"
	"github.com/bdobrica/voicedesk/internal/voicedesk/nlu"
	"github.com/bdobrica/voicedesk/internal/voicedesk/notify"
	"github.com/bdobrica/voicedesk/internal/voicedesk/pipeline"
	"github.com/bdobrica/voicedesk/internal/voicedesk/session"
)

// App is the assembled daemon: HTTP surface, dialog orchestrator, and the
// session store behind it.
type App struct {
	cfg       config.Config
	engine    *nlu.Client
	store     session.Store
	locks     *session.Locks
	orch      *pipeline.Orchestrator
	verifier  alexa.Verifier
	startedAt time.Time

	mux    *http.ServeMux
	server *http.Server
}

// New wires the application from its configuration.  It opens the session
// store but performs no network calls; reachability of the NLU engine is
// checked by Run.
func New(cfg config.Config) (*App, error) {
	store, err := newStore(cfg.Session)
	if err != nil {
		return nil, err
	}

	engine := nlu.NewClient(nlu.Config{
		BaseURL:     cfg.NLU.BaseURL,
		Username:    cfg.NLU.Username,
		Password:    cfg.NLU.Password,
		WorkspaceID: cfg.NLU.WorkspaceID,
		Timeout:     cfg.NLU.Timeout,
	})

	notifier := &notify.Notifier{}
	if cfg.Notify.SMSBaseURL != "" {
		notifier.SMS = notify.NewGatewaySMS(notify.GatewaySMSConfig{
			BaseURL: cfg.Notify.SMSBaseURL,
			APIKey:  cfg.Notify.SMSAPIKey,
			Sender:  cfg.Notify.SMSSender,
		})
	}
	if cfg.Notify.MailAPIKey != "" {
		notifier.Email = notify.NewMailAPI(notify.MailAPIConfig{
			APIKey:  cfg.Notify.MailAPIKey,
			From:    cfg.Notify.MailFrom,
			BaseURL: cfg.Notify.MailBaseURL,
		})
	}

	orch := &pipeline.Orchestrator{
		Engine:   engine,
		Store:    store,
		Registry: actions.DefaultRegistry(),
		Deps: actions.Deps{
			Mgmt:        mgmt.NewClient(mgmt.Config{BaseURL: cfg.Mgmt.BaseURL, Timeout: cfg.Mgmt.Timeout}),
			Notifier:    notifier,
			AudioURL:    cfg.Dialog.AudioURL,
			AudioToken:  cfg.Dialog.AudioToken,
			CodeSubject: cfg.Notify.CodeSubject,
		},
		WakePhrase: cfg.Dialog.WakePhrase,
	}

	var verifier alexa.Verifier = alexa.NoopVerifier{}
	if cfg.Server.WebhookSecret != "" {
		verifier = &alexa.HMACVerifier{Secret: []byte(cfg.Server.WebhookSecret)}
	} else {
		slog.Warn("webhook secret not set, inbound verification disabled")
	}

	a := &App{
		cfg:       cfg,
		engine:    engine,
		store:     store,
		locks:     session.NewLocks(),
		orch:      orch,
		verifier:  verifier,
		startedAt: time.Now(),
		mux:       http.NewServeMux(),
	}
	a.routes()
	return a, nil
}

// newStore opens the configured session backend.
func newStore(cfg config.Session) (session.Store, error) {
	switch cfg.Backend {
	case "redis":
		return session.NewRedis(cfg.RedisURL, cfg.RedisTTL)
	default:
		return session.NewSQLite(cfg.SQLitePath)
	}
}

// routes registers the HTTP surface.
func (a *App) routes() {
	a.mux.HandleFunc("/v1/turns", a.handleTurn)
	a.mux.HandleFunc("/health", a.handleHealth)
	a.mux.HandleFunc("/status", a.handleStatus)
}

// ServeHTTP implements http.Handler so the daemon can be exercised with
// httptest without a live listener.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

// Start begins listening in the background.  Blocks until the listener is
// established so the caller knows the port is open before returning.
func (a *App) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.cfg.Server.Addr, err)
	}

	a.server = &http.Server{
		Handler:      a,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("listening", "addr", ln.Addr().String())
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server stopped", "err", err)
		}
	}()
	return nil
}

// Stop shuts down the HTTP server and closes the session store.
func (a *App) Stop() {
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.server.Shutdown(ctx); err != nil {
			slog.Warn("http server shutdown error", "err", err)
		}
	}
	if err := a.store.Close(); err != nil {
		slog.Warn("session store close error", "err", err)
	}
}

// Run probes the NLU engine, starts the HTTP server, and blocks until ctx is
// cancelled.
func (a *App) Run(ctx context.Context) error {
	probe := retry.Config{
		MaxAttempts:  5,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
	}
	if err := retry.Do(ctx, probe, func() error {
		return a.engine.Probe(ctx)
	}); err != nil {
		a.Stop()
		return fmt.Errorf("nlu engine unreachable: %w", err)
	}

	if err := a.Start(ctx); err != nil {
		a.Stop()
		return err
	}

	<-ctx.Done()
	slog.Info("shutting down")
	a.Stop()
	return nil
}
