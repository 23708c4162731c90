package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/example/sozyola/internal/auth"
	"github.com/example/sozyola/internal/database"
	"github.com/example/sozyola/internal/localstore"
	"github.com/example/sozyola/internal/progress"
	"github.com/example/sozyola/internal/sync"
)

func main() {
	// .env is optional; real deployments configure the environment directly
	_ = godotenv.Load()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := database.Connect(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}
	store, err := localstore.New(dataDir)
	if err != nil {
		log.Fatalf("Failed to open local store: %v", err)
	}

	manager := progress.NewManager(store)

	reconciler := sync.NewReconciler(manager, sync.NewDatabaseGateway())
	scheduler := sync.NewScheduler(reconciler, sync.DefaultConfig())

	if session, ok := auth.FromEnv(); ok {
		manager.SetNotifier(scheduler)
		scheduler.Start(session.UserID)
		log.Printf("Sync started for user %s", session.UserID)
	} else {
		log.Println("No authenticated user, running in local-only mode")
	}

	log.Println("Progress service started. Press Ctrl+C to stop.")
	sig := <-sigChan
	log.Printf("Received signal: %v", sig)

	// Cancel timers before the session identity goes away, then flush
	scheduler.Stop()
	manager.SetNotifier(nil)
	if err := store.Save(manager.Snapshot()); err != nil {
		log.Printf("Failed to flush progress: %v", err)
	}
	log.Println("Progress service stopped")
}
