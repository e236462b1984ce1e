package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fieldservice/app/config"
	"fieldservice/app/usecase"
	mongorepo "fieldservice/internal/infrastructure/store/mongodb"
	"fieldservice/internal/infrastructure/transport"
	"fieldservice/internal/workflow"
)

func main() {
	// logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg := config.Load()

	// Connect to MongoDB
	mongoCtx, mongoCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer mongoCancel()
	mongoClient, err := mongo.Connect(mongoCtx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		logger.Error("mongo connect failed", "err", err)
		log.Fatalf("mongo connect: %v", err)
	}
	if err := mongoClient.Ping(mongoCtx, nil); err != nil {
		logger.Error("mongo ping failed", "err", err)
		log.Fatalf("mongo ping: %v", err)
	}
	logger.Info("connected to mongo", "uri", cfg.Mongo.URI)
	db := mongoClient.Database(cfg.Mongo.Database)

	// Repositories
	jobRepo := mongorepo.NewMongoJobRepo(db)
	userRepo := mongorepo.NewMongoUserRepo(db)
	historyRepo := mongorepo.NewMongoHistoryRepo(db)

	// Workflow policy: built-in tables unless an override file is configured.
	policy := workflow.DefaultPolicy()
	if cfg.Workflow.PolicyPath != "" {
		policy, err = workflow.LoadPolicyFile(cfg.Workflow.PolicyPath)
		if err != nil {
			logger.Error("load workflow policy failed", "path", cfg.Workflow.PolicyPath, "err", err)
			log.Fatalf("load workflow policy: %v", err)
		}
		logger.Info("loaded workflow policy override", "path", cfg.Workflow.PolicyPath)
	}
	validator := workflow.NewValidator(policy, workflow.DefaultRules())

	// Usecases / services
	recorder := usecase.NewHistoryRecorder(historyRepo, logger, cfg.Workflow.AuditFailClosed)
	feed := transport.NewStatusFeed(logger)
	workflowSvc := usecase.NewWorkflowService(jobRepo, userRepo, historyRepo, recorder, validator, feed, logger)
	jobSvc := usecase.NewJobService(jobRepo, userRepo, historyRepo, recorder, logger)
	analyticsSvc := usecase.NewAnalyticsService(jobRepo, historyRepo)

	// Transport (HTTP handlers)
	handler := transport.NewFieldServiceHandler(jobSvc, workflowSvc, analyticsSvc, feed, logger)

	// Router and server
	r := mux.NewRouter()
	handler.RegisterRoutes(r)
	corsHandler := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-User-ID"}),
	)(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      corsHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		logger.Info("starting HTTP server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", "err", err)
			cancel()
		}
	}()

	// OS signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutdown signal received")
	case <-ctx.Done():
		logger.Info("context cancelled")
	}

	// Shutdown sequence
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	logger.Info("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}

	feed.Close()

	logger.Info("disconnecting mongo")
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		logger.Error("mongo disconnect error", "err", err)
	}

	logger.Info("service stopped")
}
