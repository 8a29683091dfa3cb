package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"classledger/backend/internal/gateway"
	"classledger/backend/internal/shared"
)

func main() {
	log.Println("INFO: Starting Gateway Service...")

	if err := shared.LoadEnv(".env"); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg, err := shared.LoadGatewayConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	if err := shared.ValidateGatewayConfig(cfg); err != nil {
		log.Fatalf("FATAL: Invalid configuration: %v", err)
	}
	if cfg.Environment == "development" {
		shared.PrintGatewayConfig(cfg)
	}

	// 1. Initialize gRPC Clients
	serviceClients := gateway.NewServiceClients(cfg)
	defer serviceClients.Close()

	// 2. Setup Routes and Middleware
	router := gateway.SetupRoutes(serviceClients, cfg)

	// 3. Configure Server
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 4. Start Server in a Goroutine
	go func() {
		log.Printf("INFO: Gateway listening on port %s", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("FATAL: HTTP server error: %v", err)
		}
	}()

	// 5. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("INFO: Shutting down Gateway...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("WARN: Gateway shutdown: %v", err)
	}

	log.Println("INFO: Gateway stopped.")
}
