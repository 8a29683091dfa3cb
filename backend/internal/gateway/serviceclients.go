package gateway

import (
	"context"
	"log"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"classledger/backend/internal/records"
	"classledger/backend/internal/shared"
)

// ServiceClients holds the gRPC clients the gateway forwards to
type ServiceClients struct {
	RecordsClient records.RecordsClient

	conns []*grpc.ClientConn
}

// MustConnectGRPC establishes a connection to a gRPC server or exits.
// The gateway fails fast when the records service is down at startup.
func MustConnectGRPC(addr string, timeout time.Duration) *grpc.ClientConn {
	log.Printf("INFO: [Gateway] Connecting to gRPC service at %s...", addr)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	conn, err := grpc.DialContext(ctx, addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(records.CodecName)),
		grpc.WithBlock(),
	)
	if err != nil {
		log.Fatalf("FATAL: Failed to connect to gRPC server at %s: %v", addr, err)
	}

	log.Printf("INFO: [Gateway] Connected to %s", addr)
	return conn
}

// NewServiceClients dials the records service named in cfg
func NewServiceClients(cfg *shared.GatewayConfig) *ServiceClients {
	recordsConn := MustConnectGRPC(cfg.RecordsServiceAddr, 5*time.Second)

	return &ServiceClients{
		RecordsClient: records.NewRecordsClient(recordsConn),
		conns:         []*grpc.ClientConn{recordsConn},
	}
}

// Close closes all underlying gRPC connections
func (sc *ServiceClients) Close() {
	for _, conn := range sc.conns {
		if err := conn.Close(); err != nil {
			log.Printf("WARN: [Gateway] Error closing gRPC connection: %v", err)
		}
	}
}
