package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	promcollectors "github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yair/whats-on/pkg/autocomplete"
	"github.com/yair/whats-on/pkg/collectors"
	"github.com/yair/whats-on/pkg/config"
	"github.com/yair/whats-on/pkg/integrations"
	"github.com/yair/whats-on/pkg/interfaces"
)

func main() {
	log.Println("Starting What's On...")

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Failed to load .env file: %v", err)
	}

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.json"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	location, err := cfg.Viewer.Location()
	if err != nil {
		log.Fatalf("Failed to load viewer timezone: %v", err)
	}
	clock := func() time.Time { return time.Now().In(location) }

	// Initialize local session store
	db, err := collectors.NewSQLiteDB(cfg.Session.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	sessionRepo, err := collectors.NewSessionRepository(db)
	if err != nil {
		log.Fatalf("Failed to create session repository: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	session, err := sessionRepo.Load(ctx)
	cancel()
	if err != nil {
		log.Printf("Warning: Failed to load session: %v. Continuing anonymously.", err)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		promcollectors.NewGoCollector(),
		promcollectors.NewProcessCollector(promcollectors.ProcessCollectorOpts{}),
	)
	metrics := integrations.NewMetrics(registry)

	// Initialize integrations
	eventsClient, err := integrations.NewEventsClient(integrations.EventsConfig{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.Timeout(),
		Metrics: metrics,
	})
	if err != nil {
		log.Fatalf("Failed to create events client: %v", err)
	}

	geocoder, err := integrations.NewNominatimClient(integrations.NominatimConfig{
		BaseURL:        cfg.Geocoder.BaseURL,
		UserAgent:      cfg.Geocoder.UserAgent,
		LocalityFields: cfg.Geocoder.LocalityFields,
		Timeout:        cfg.Geocoder.Timeout(),
		Metrics:        metrics,
	})
	if err != nil {
		log.Fatalf("Failed to create geocoder: %v", err)
	}

	// Initialize controllers
	notices := interfaces.NewNoticeBoard(0)

	list, err := interfaces.NewEventListController(interfaces.EventListConfig{
		API:          eventsClient,
		Session:      session,
		Notifier:     notices,
		Clock:        clock,
		MediaBaseURL: cfg.Backend.MediaBaseURL,
	})
	if err != nil {
		log.Fatalf("Failed to create event list: %v", err)
	}

	cities := autocomplete.New(autocomplete.Config{
		BlurDelay: cfg.Viewer.BlurDelay(),
		Geocoder:  geocoder,
		Notifier:  notices,
	})

	ctx, cancel = context.WithTimeout(context.Background(), cfg.Backend.Timeout())
	if err := list.Refresh(ctx, list.Filters()); err != nil {
		log.Printf("Warning: Initial event fetch failed: %v", err)
	}
	cancel()

	// Initialize HTTP handlers
	viewHandler := interfaces.NewViewHandler(interfaces.ViewConfig{
		List:     list,
		Cities:   cities,
		Notices:  notices,
		Sessions: sessionRepo,
	})

	// Setup router
	router := mux.NewRouter()
	viewHandler.RegisterRoutes(router)

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods("GET")

	// Log available routes
	log.Println("Available routes:")
	router.Walk(func(route *mux.Route, router *mux.Router, ancestors []*mux.Route) error {
		path, _ := route.GetPathTemplate()
		methods, _ := route.GetMethods()
		log.Printf("  %v %s", methods, path)
		return nil
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown
	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped.")
}
