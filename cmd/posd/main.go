package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"posflow/internal/api"
	"posflow/internal/backend"
	"posflow/internal/checkout"
	"posflow/internal/config"
	"posflow/internal/countdown"
	"posflow/internal/db"
	"posflow/internal/draft"
	"posflow/internal/flow"
	"posflow/internal/logger"
	"posflow/internal/metrics"
	"posflow/internal/middleware"
	"posflow/internal/payment/webhook"
	"posflow/internal/persist"
	"posflow/internal/poller"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var (
	initDBFunc      = db.InitDB
	startServerFunc = serve
)

type app struct {
	handler http.Handler
	machine *flow.Machine
	writer  *persist.Writer
	limiter *middleware.Limiter
	poller  *poller.Poller
	timer   *countdown.Countdown
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.L().Fatal("posd stopped", zap.Error(err))
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Init(cfg.AppEnv, cfg.LogLevel)
	defer logger.Sync()

	var database *sql.DB
	if cfg.StoreDriver == persist.DriverPostgres {
		database = initDBFunc(cfg)
		defer database.Close()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a, err := newApp(ctx, cfg, database)
	if err != nil {
		return err
	}
	go a.writer.Run(ctx)
	go a.limiter.Run(ctx)

	logger.L().Info("posd listening",
		zap.String("port", cfg.AppPort),
		zap.String("store", cfg.StoreDriver),
		zap.String("step", string(a.machine.Step())),
	)
	err = startServerFunc(ctx, ":"+cfg.AppPort, a.handler)

	a.poller.Stop()
	a.timer.Stop()
	cancel()
	<-a.writer.Done()
	return err
}

// newApp builds the state container from the persisted snapshot and wires
// everything that reads or drives it.
func newApp(ctx context.Context, cfg *config.Config, database *sql.DB) (*app, error) {
	log := logger.L()

	store, err := persist.NewStore(cfg.StoreDriver, cfg.StorePath, database)
	if err != nil {
		return nil, err
	}
	adapter := persist.NewAdapter(store, log)
	writer := persist.NewWriter(adapter, log)
	notices := api.NewNotices()
	rec := metrics.NewRecorder(nil)
	now := clock(cfg.Location)

	machine := flow.New(
		flow.WithLogger(log),
		flow.WithClock(now),
		flow.WithObserver(writer.Observe),
		flow.WithObserver(rec.Observe),
		flow.WithNotifier(rec.Notifier(notices.Push)),
	)
	machine.Hydrate(adapter.Load(ctx))
	rec.Observe(machine.State())

	client := backend.NewClient(cfg.BackendURL, cfg.BackendToken)

	opts := []checkout.Option{checkout.WithClock(now)}
	if cfg.DraftDiff == config.DraftDiffID {
		opts = append(opts, checkout.WithComparator(draft.CompareByID))
	}
	svc := checkout.NewService(client, machine, cfg.DeliveryFee, opts...)

	p := poller.New(client, machine, cfg.PollInterval, log)
	timer := countdown.New(machine, nil, log)

	// An order left in edit mode by the last run resumes its watch.
	if d := machine.State().Updating(); d != nil {
		p.Watch(ctx, d.OriginalOrder.ID)
		timer.Start(d.OriginalOrder.ID, d.OriginalOrder.CreatedAt)
	}

	hook := webhook.NewWebhookHandler(machine, cfg.CallbackToken)
	server := api.NewServer(api.Deps{
		Machine:     machine,
		Checkout:    svc,
		Orders:      client,
		Watcher:     p,
		Timer:       timer,
		Notices:     notices,
		Metrics:     rec,
		Webhook:     hook.WebhookHandler,
		Context:     ctx,
		Now:         now,
		DeliveryFee: cfg.DeliveryFee,
	})

	limiter := middleware.NewLimiter()
	return &app{
		handler: setupRouter(cfg, server.Routes(), limiter),
		machine: machine,
		writer:  writer,
		limiter: limiter,
		poller:  p,
		timer:   timer,
	}, nil
}

// clock reads the wall clock in the shop's zone so that calendar rules see
// the local business day.
func clock(loc *time.Location) func() time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return func() time.Time { return time.Now().In(loc) }
}

func setupRouter(cfg *config.Config, routes http.Handler, limiter *middleware.Limiter) chi.Router {
	r := chi.NewRouter()

	r.Use(logger.RequestIDMiddleware)
	r.Use(logger.LoggingMiddleware)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Device-ID", logger.RequestIDHeader},
		ExposedHeaders:   []string{logger.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.Auth(cfg.JWTSecret))
	r.Use(limiter.Middleware)

	r.Mount("/", routes)
	return r
}

// serve runs the HTTP server until ctx is cancelled.
func serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
