package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"weather-state/api"
	"weather-state/datasource"
	"weather-state/journal"
	"weather-state/viewstate"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	// Parse command line arguments
	port := flag.Int("port", 0, "Port to run the server on (overrides config)")
	configFile := flag.String("config", "config.json", "Path to configuration file")
	darkMode := flag.Bool("dark", false, "Start with dark mode enabled")
	flag.Parse()

	config, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != 0 {
		config.Port = *port
	}
	if err := config.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	source, err := config.NewSource()
	if err != nil {
		log.Fatalf("Failed to create forecast source: %v", err)
	}
	log.Printf("Using forecast source %s (%d days, %s delay, outcomes %v)",
		source.Name(), config.Days, time.Duration(config.FetchDelay), config.Outcomes)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	controller := viewstate.NewController(ctx, source,
		viewstate.WithFetchTimeout(time.Duration(config.FetchTimeout)))

	var history journal.Store
	if config.JournalPath != "" {
		store, err := journal.NewSQLite(config.JournalPath)
		if err != nil {
			log.Fatalf("Failed to open journal: %v", err)
		}
		history = store
		controller.Subscribe(journal.Recorder(store, nil))
		log.Printf("Journaling state transitions to %s", config.JournalPath)
	}

	server := api.NewServer(controller, history, api.NewPreferenceStore(api.Preferences{DarkMode: *darkMode}), config.Port)

	// Set up channel for graceful shutdown
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	// Start the API server in a goroutine
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	select {
	case sig := <-shutdownChan:
		log.Printf("Shutting down due to %s signal", sig)
	case err := <-serverErr:
		if err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}

	// Close returns after every subscription has delivered its queued states,
	// so open streams end and pending journal writes land before the journal
	// is closed below.
	controller.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if history != nil {
		if err := history.Close(); err != nil {
			log.Printf("Error closing journal: %v", err)
		}
	}

	fmt.Println("Shutdown complete")
}

// loadConfig reads the JSON config if present, then applies WEATHER_* overrides
func loadConfig(path string) (*datasource.Config, error) {
	config, err := datasource.LoadConfig(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("No config file at %s, using defaults", path)
		config = datasource.DefaultConfig()
	} else if err != nil {
		return nil, err
	}

	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}
	return config, nil
}
