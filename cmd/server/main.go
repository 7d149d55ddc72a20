package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"tessera/internal/config"
	"tessera/internal/handler"
	"tessera/internal/hub"
	"tessera/internal/repository/sqlite"
	"tessera/internal/service"
)

func main() {
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	cfg, cfgPath, err := config.Load()
	if err != nil {
		panic(err)
	}
	if *addr != "" {
		cfg.Server.Listen = *addr
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	log, err := newLogger(cfg.Logging.Level)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfgPath != "" {
		log.Info("config loaded", zap.String("path", cfgPath))
	} else {
		log.Info("no config file found, using defaults")
	}

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	defer store.Close()
	log.Info("database opened", zap.String("path", cfg.Database.Path))

	eventBus := service.NewEventBus()

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	sseHub := hub.New(log.Named("hub"))
	go sseHub.Run(hubCtx)

	// Connect event bus to SSE hub
	eventChan := make(chan service.Event, 100)
	eventBus.Subscribe(eventChan)
	go func() {
		for event := range eventChan {
			sseHub.Broadcast(event)
		}
	}()

	engine := service.NewEngine(store, eventBus, log.Named("engine"))
	api := handler.New(engine, sseHub, log.Named("http"))

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	})

	server := &http.Server{
		Addr:         cfg.Server.Listen,
		Handler:      corsHandler.Handler(api.Routes()),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // SSE connections stay open
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("addr", cfg.Server.Listen))
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Warn("server shutdown error", zap.Error(err))
	}
	stopHub()

	log.Info("server stopped")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}
