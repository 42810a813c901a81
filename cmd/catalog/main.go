package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/brewline/cafe-kiosk/internal/catalog"
	"github.com/brewline/cafe-kiosk/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "catalog", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	postgresURL := os.Getenv("POSTGRES_URL")
	if postgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	db, err := telemetry.OpenDB("postgres", postgresURL)
	if err != nil {
		logger.Error("failed to open database connection", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if _, err := db.Exec("SET search_path TO catalog"); err != nil {
		logger.Error("failed to set search_path", "error", err)
		os.Exit(1)
	}

	repo := catalog.NewCatalogRepository(db)
	handler := catalog.NewHandler(repo, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /menu", handler.HandleListMenu)
	mux.HandleFunc("POST /menu", handler.HandleCreateMenuItem)
	mux.HandleFunc("PATCH /menu/{id}", handler.HandleUpdateMenuItem)
	mux.HandleFunc("DELETE /menu/{id}", handler.HandleDeleteMenuItem)
	mux.HandleFunc("GET /inventory", handler.HandleListInventory)
	mux.HandleFunc("POST /inventory", handler.HandleCreateInventoryItem)
	mux.HandleFunc("PUT /inventory/{id}/quantity", handler.HandleSetQuantity)
	mux.HandleFunc("POST /inventory/{id}/toggle", handler.HandleToggleAvailability)
	mux.HandleFunc("POST /inventory/restock-all", handler.HandleRestockAll)
	mux.HandleFunc("GET /faqs", handler.HandleListFAQs)
	mux.HandleFunc("GET /rating-sources", handler.HandleListRatingSources)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8082"
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting catalog service", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
