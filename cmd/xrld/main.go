// Entry point for the XRL demo backend — chi router, browser-backed
// capture endpoints, embedded example sites, MCP over streamable HTTP.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/aaltoxr/xrld/browser"
	"github.com/aaltoxr/xrld/config"
	"github.com/aaltoxr/xrld/dbopen"
	"github.com/aaltoxr/xrld/fetch"
	"github.com/aaltoxr/xrld/imagestore"
	"github.com/aaltoxr/xrld/routestore"
	"github.com/aaltoxr/xrld/safeweb"
	"github.com/aaltoxr/xrld/shield"
	"github.com/aaltoxr/xrld/xrl"
)

func main() {
	logLevel := env("LOG_LEVEL", "info")
	var lvl slog.Level
	switch logLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(env("CONFIG_FILE", ""))
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	// Routes DB carries both the custom route slots and the rate-limit rules.
	db, err := dbopen.Open(cfg.RoutesDB,
		dbopen.WithMkdirAll(),
		dbopen.WithSchema(routestore.Schema+shield.RateLimitSchema))
	if err != nil {
		slog.Error("routes db", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	routes, err := routestore.New(ctx, db, cfg.Slots)
	if err != nil {
		slog.Error("routestore", "error", err)
		os.Exit(1)
	}

	images, err := imagestore.New(cfg.ImagesDir)
	if err != nil {
		slog.Error("imagestore", "error", err)
		os.Exit(1)
	}

	mgr := browser.NewManager(browser.Config{
		RemoteURL:        cfg.Browser.Remote,
		MemoryLimit:      cfg.Browser.MemoryLimit,
		RecycleInterval:  cfg.Browser.RecycleInterval,
		ResourceBlocking: cfg.Browser.ResourceBlocking,
		ViewportWidth:    cfg.Browser.ViewportWidth,
		ViewportHeight:   cfg.Browser.ViewportHeight,
		NavTimeout:       cfg.Browser.NavTimeout,
		Mode:             browser.ParseMode(cfg.Browser.Stealth),
		XvfbDisplay:      cfg.Browser.XvfbDisplay,
		Logger:           logger,
	})
	if err := mgr.Start(ctx); err != nil {
		slog.Error("browser start", "error", err)
		os.Exit(1)
	}
	defer mgr.Close()

	validator := safeweb.Validator{AllowPrivate: cfg.AllowPrivate()}
	fetcher := fetch.New(fetch.Config{
		Timeout:      cfg.Fetch.Timeout,
		MaxBytes:     cfg.Fetch.MaxBytes,
		UserAgent:    cfg.Fetch.UserAgent,
		URLValidator: validator.Validate,
	})

	svc, err := xrl.New(mgr, fetcher, images, logger,
		xrl.WithURLValidator(validator.Validate))
	if err != nil {
		slog.Error("xrl service", "error", err)
		os.Exit(1)
	}

	mcpSrv := mcp.NewServer(&mcp.Implementation{
		Name:    "xrld",
		Version: "1.0.0",
	}, nil)
	svc.RegisterMCP(mcpSrv, routes)
	mcpHandler := mcp.NewStreamableHTTPHandler(
		func(*http.Request) *mcp.Server { return mcpSrv },
		&mcp.StreamableHTTPOptions{Stateless: true},
	)

	h := &handlers{
		svc:    svc,
		routes: routes,
		images: images,
	}

	r := chi.NewRouter()
	for _, mw := range shield.DefaultStack(db, ctx.Done()) {
		r.Use(mw)
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]string{"status": "ok"})
	})
	r.Get("/", h.index)
	r.Get("/favicon.ico", h.favicon)
	r.Get("/routes", h.routeInfo)
	r.Get("/xrl", h.layout)
	r.Get("/xrl/view", h.view)
	r.Get("/render", h.render)
	r.Get("/images/*", h.image)
	r.Get("/custom/{num}", h.custom)
	r.Handle("/mcp", mcpHandler)
	r.Get("/{name}", h.site)

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		// Browser captures of slow pages run long; the write timeout has to
		// outlast navigation plus per-region screenshots.
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}
