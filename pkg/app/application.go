package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"staybook/pkg/config"
	"staybook/pkg/contracts"
	"staybook/pkg/middleware"
	"syscall"

	"github.com/julienschmidt/httprouter"
)

// publicPrefixes are served without a bearer token. The payment webhook is
// authenticated by its signature instead.
var publicPrefixes = []string{"/webhook/"}

type shutdownHook struct {
	name string
	fn   func() error
}

type Application struct {
	cfg              *config.Config
	server           *http.Server
	idempotencyStore middleware.IdempotencyStore
	rateLimiter      *middleware.RequesterRateLimiter
	healthHandler    http.Handler
	appHttpHandler   http.Handler
	hooks            []shutdownHook
}

func NewApplication(cfg *config.Config) *Application {
	return &Application{cfg: cfg}
}

// SetApp mounts health with a minimal stack and every other handler behind
// the full one.
func (a *Application) SetApp(health contracts.Handler, handlers ...contracts.Handler) {
	a.setHealthHandler(health)
	a.setAppHandler(handlers...)
	a.setAppServer()
}

// OnShutdown registers fn to run after the server has stopped, in
// registration order.
func (a *Application) OnShutdown(name string, fn func() error) {
	a.hooks = append(a.hooks, shutdownHook{name: name, fn: fn})
}

// Handler returns the composed root handler.
func (a *Application) Handler() http.Handler {
	return a.server.Handler
}

func (a *Application) setHealthHandler(health contracts.Handler) {
	healthRouter := httprouter.New()
	health.RegisterRoutes(healthRouter)

	var healthHTTPHandler http.Handler = healthRouter
	healthHTTPHandler = middleware.RequestLogging(a.cfg.Log)(healthHTTPHandler)
	healthHTTPHandler = middleware.Recovery(a.cfg.Log)(healthHTTPHandler)
	a.healthHandler = healthHTTPHandler
	a.cfg.Log.Info("Health endpoints configured with minimal middleware (Recovery + Logging only)")
}

func (a *Application) setAppHandler(handlers ...contracts.Handler) {
	cfg := a.cfg
	appRouter := httprouter.New()
	for _, h := range handlers {
		h.RegisterRoutes(appRouter)
	}

	if cfg.Client != nil && cfg.Client.Redis != nil {
		a.idempotencyStore = middleware.NewRedisIdempotencyStore(cfg.Client.Redis, cfg.IdempotencyTTL, cfg.Log)
		cfg.Log.Info("Idempotency keys stored in Redis", "addr", cfg.RedisAddr)
	} else {
		a.idempotencyStore = middleware.NewInMemoryIdempotencyStore(cfg.IdempotencyTTL)
	}
	a.rateLimiter = middleware.NewRequesterRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow, cfg.Log)

	var appHttpHandler http.Handler = appRouter
	appHttpHandler = middleware.Idempotency(a.idempotencyStore, middleware.IdempotencyHeader)(appHttpHandler)
	appHttpHandler = middleware.RequestTimeout(cfg.RequestTimeout)(appHttpHandler)
	appHttpHandler = middleware.RateLimit(a.rateLimiter)(appHttpHandler)
	appHttpHandler = middleware.Authenticate(cfg.JWTSecret, cfg.Log, publicPrefixes...)(appHttpHandler)
	appHttpHandler = middleware.ContentTypeValidation(cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.MaxRequestSize(int64(cfg.MaxRequestSize))(appHttpHandler)
	appHttpHandler = middleware.RequestLogging(cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.Recovery(cfg.Log)(appHttpHandler)
	a.appHttpHandler = appHttpHandler
	cfg.Log.Info("Application endpoints configured with full security middleware stack")
}

func (a *Application) setAppServer() {
	mux := http.NewServeMux()
	mux.Handle("/health", a.healthHandler)
	mux.Handle("/ready", a.healthHandler)
	mux.Handle("/", a.appHttpHandler)

	a.server = &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      mux,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}

	a.cfg.Log.Info("HTTP server configured", "port", a.cfg.Port)
}

func (a *Application) Run() {
	serverErrors := make(chan error, 1)

	go func() {
		a.cfg.Log.Info("Starting HTTP server", "address", a.server.Addr)
		serverErrors <- a.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		a.cfg.Log.Fatal("HTTP server failed", "error", err)

	case sig := <-shutdown:
		a.cfg.Log.Info("Shutdown signal received", "signal", sig)
		a.gracefulShutdown()
	}
}

func (a *Application) gracefulShutdown() {
	a.cfg.Log.Info("Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Fatal("Could not stop server gracefully", "error", err)
		}
	}

	a.cfg.Log.Info("Stopping background workers...")
	a.idempotencyStore.Stop()
	a.rateLimiter.Stop()
	for _, hook := range a.hooks {
		if err := hook.fn(); err != nil {
			a.cfg.Log.Error("Shutdown hook failed", "hook", hook.name, "error", err)
		}
	}
	if a.cfg.Client != nil {
		a.cfg.Client.GracefulShutdown(a.cfg.Log)
	}

	a.cfg.Log.Info("Server stopped gracefully")
}
