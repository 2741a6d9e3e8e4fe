package main

import (
	"context"
	"flag"
	"marketmaster/config"
	"marketmaster/editor/canvas"
	"marketmaster/handlers/api/categories"
	"marketmaster/handlers/api/designs"
	apiproperties "marketmaster/handlers/api/properties"
	"marketmaster/handlers/websocket"
	"marketmaster/metrics"
	"marketmaster/properties"
	"marketmaster/stores"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

func setupRouter(store stores.Store, catalog *properties.Catalog, notifier websocket.Notifier, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length", "Origin", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/designs", func(r chi.Router) {
			r.Get("/", designs.HandleList(store))
			r.Post("/", designs.HandleCreate(store, notifier))
			r.Get("/category", designs.HandleListByCategory(store))
			r.Get("/category/{category}", designs.HandleListByCategory(store))
			r.Get("/category/{category}/subcategory/{subcategory}", designs.HandleListBySubcategory(store))
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", designs.HandleGet(store))
				r.Patch("/", designs.HandleUpdate(store, notifier))
				r.Delete("/", designs.HandleDelete(store, notifier))
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", categories.HandleList(store))
			r.Post("/", categories.HandleCreate(store, notifier))
			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", categories.HandleGet(store))
				r.Patch("/", categories.HandleUpdate(store, notifier))
			})
		})

		r.Route("/properties", func(r chi.Router) {
			r.Get("/", apiproperties.HandleList(catalog))
			r.Get("/{id}", apiproperties.HandleGet(catalog))
		})
	})

	r.Handle("/metrics", metrics.Handler())

	return r
}

// checkCanvasEngine reports at startup whether editors will get a live canvas
// or the simplified fallback.
func checkCanvasEngine(licenseKey string) canvas.Mode {
	scene, err := canvas.NewHeadless(licenseKey).CreateScene(1, 1)
	if err != nil {
		logrus.WithError(err).Warn("Canvas engine unavailable, editors will use the simplified editor")
		return canvas.ModeFallback
	}
	if err := scene.Dispose(); err != nil {
		logrus.WithError(err).Warn("Failed to dispose probe scene")
	}
	logrus.Info("Canvas engine licensed")
	return canvas.ModeCanvas
}

func waitForShutdown(ioo *socketio.Server, store stores.Store) {
	exit := make(chan struct{})
	SignalC := make(chan os.Signal, 1)

	signal.Notify(SignalC, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range SignalC {
			switch s {
			case os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				close(exit)
				return
			}
		}
	}()

	<-exit
	logrus.Info("Shutting down...")
	ioo.Close(nil)
	if closer, ok := store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close store")
		}
	}
	os.Exit(0)
}

func main() {
	listenAddress := flag.String("listen", ":3002", "The address to listen on.")
	logLevel := flag.String("loglevel", "info", "The log level (debug, info, warn, error).")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	cfg := config.Load()

	store, err := stores.GetStore(context.Background(), cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to open store")
	}
	catalog, err := properties.Default()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load property listings")
	}
	checkCanvasEngine(cfg.EngineLicenseKey)

	ioo, notifier := websocket.SetupSocketIO(cfg.CORSAllowedOrigins)
	r := setupRouter(store, catalog, notifier, cfg)
	r.Mount("/socket.io/", ioo.ServeHandler(nil))

	logrus.WithField("addr", *listenAddress).Info("starting server")
	go func() {
		if err := http.ListenAndServe(*listenAddress, r); err != nil {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	logrus.Debug("Server is running in the background")
	waitForShutdown(ioo, store)
}
