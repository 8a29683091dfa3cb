// ============================================================================
// backend/cmd/records/main.go
// Entry point for the Records Service (attendance, grading, export)
// ============================================================================

package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"classledger/backend/internal/records"
	"classledger/backend/internal/recordstore"
	"classledger/backend/internal/roster"
	"classledger/backend/internal/session"
	"classledger/backend/internal/shared"
)

func main() {
	// Load environment variables
	if err := shared.LoadEnv(".env"); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	config, err := shared.LoadServiceConfig("records-service")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	config.ServicePort = shared.GetEnv("RECORDS_SERVICE_PORT", config.ServicePort)

	if err := shared.ValidateServiceConfig(config); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if shared.IsDevelopment(config) {
		shared.PrintConfig(config)
	}

	// Open the record store and the roster directory beside it
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn, err := recordstore.Open(ctx, config)
	if err != nil {
		log.Fatalf("Failed to open %s record store: %v", config.StoreDriver, err)
	}
	defer conn.Close()

	directory, err := roster.ForConn(conn, config.RosterFile)
	if err != nil {
		log.Fatalf("Failed to open roster directory: %v", err)
	}

	// Grading sessions expire after SESSION_TIMEOUT of inactivity
	sessions := session.NewRegistry(config.Session.IdleTimeout)
	if config.Session.IdleTimeout > 0 {
		go sessions.RunJanitor(ctx, time.Minute)
	}

	grpcServer := grpc.NewServer(
		grpc.MaxRecvMsgSize(config.GRPC.MaxRecvMsgSize),
		grpc.MaxSendMsgSize(config.GRPC.MaxSendMsgSize),
		grpc.ConnectionTimeout(config.GRPC.ConnectionTimeout),
	)

	recordsService := records.NewRecordsService(conn.Store, directory, sessions)
	records.RegisterRecordsServer(grpcServer, recordsService)

	// Register health check service
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(records.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	// Register reflection service (useful for debugging with grpcurl)
	if !shared.IsProduction(config) {
		reflection.Register(grpcServer)
	}

	listener, err := net.Listen("tcp", ":"+config.ServicePort)
	if err != nil {
		log.Fatalf("Failed to listen on port %s: %v", config.ServicePort, err)
	}

	go func() {
		log.Printf("Records Service is listening on port %s (store: %s)", config.ServicePort, conn.Driver)
		if err := grpcServer.Serve(listener); err != nil {
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down Records Service...")

	healthServer.SetServingStatus(records.ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	grpcServer.GracefulStop()
	cancel()

	if n := sessions.Len(); n > 0 {
		log.Printf("WARN: %d grading session(s) discarded with unsaved edits", n)
	}
	log.Println("Records Service stopped")
}
