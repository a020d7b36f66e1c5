// Path: cmd/portal/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pastry-portal/internal/backend"
	"pastry-portal/internal/config"
	"pastry-portal/internal/delivery/rest"
	"pastry-portal/internal/delivery/ui"
	"pastry-portal/internal/events"
	"pastry-portal/internal/logging"
	"pastry-portal/internal/service"
	"pastry-portal/internal/storage"
)

func main() {
	// 1. Load configuration and set up logging
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	logging.Setup(cfg.Logging)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Connect to MongoDB
	logrus.Info("Connecting to MongoDB...")
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Database.URI))
	if err != nil {
		logrus.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logrus.WithError(err).Warn("MongoDB disconnect failed")
		}
	}()
	db := mongoClient.Database(cfg.Database.Name)

	// 3. Initialize components
	savedQueries := storage.NewMongoSavedQueryStorage(db, cfg.Database.SavedQueryCollection)
	indexCtx, indexCancel := context.WithTimeout(ctx, 10*time.Second)
	if err := savedQueries.EnsureIndexes(indexCtx); err != nil {
		logrus.WithError(err).Warn("Could not create saved query indexes")
	}
	indexCancel()
	statuses := storage.NewMongoStatusStorage(db, cfg.Database.StatusCollection)

	broker := events.NewBroker()
	go logRefreshEvents(ctx, broker)

	client := backend.NewClient(cfg.Backend)
	svc := service.NewService(cfg.Refresh, cfg.Display.LocaleTag(), client, savedQueries, statuses, broker)

	// 4. Start the refresh loop in the background
	go func() {
		if err := svc.Start(ctx); err != nil {
			logrus.WithError(err).Error("Refresh loop failed")
			cancel()
		}
	}()

	// 5. Start the HTTP server with the JSON API and the HTML views
	server := rest.NewServer(cfg.Server, svc, ui.NewHandlers(svc))
	go func() {
		logrus.WithField("port", cfg.Server.Port).Info("Portal listening")
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// 6. Wait for a shutdown signal or a fatal service error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		logrus.Info("Shutdown signal received. Shutting down gracefully...")
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Stop(shutdownCtx); err != nil {
		logrus.WithError(err).Error("HTTP server shutdown failed")
	}
	svc.Stop()

	logrus.Info("Portal shut down.")
}

// logRefreshEvents logs every refresh outcome published on the broker.
func logRefreshEvents(ctx context.Context, broker *events.Broker) {
	refreshed := broker.SubscribeBuffered(events.TopicRefreshed, 16)
	failed := broker.SubscribeBuffered(events.TopicRefreshFailed, 16)
	defer broker.Unsubscribe(events.TopicRefreshed, refreshed)
	defer broker.Unsubscribe(events.TopicRefreshFailed, failed)

	log := logrus.WithField("component", "events")
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-refreshed:
			if e, ok := ev.Data.(events.RefreshEvent); ok {
				log.WithFields(logrus.Fields{"resource": e.Resource, "records": e.Records}).Debug("Snapshot refreshed")
			}
		case ev := <-failed:
			if e, ok := ev.Data.(events.RefreshEvent); ok {
				log.WithError(e.Err).WithField("resource", e.Resource).Warn("Snapshot refresh failed")
			}
		}
	}
}
