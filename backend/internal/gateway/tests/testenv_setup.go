package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"classledger/backend/internal/gateway"
	"classledger/backend/internal/records"
	"classledger/backend/internal/recordstore"
	"classledger/backend/internal/roster"
	"classledger/backend/internal/session"
	"classledger/backend/internal/shared"
)

const bufSize = 1024 * 1024

// rosterFixture is shared with the roster package tests
const rosterFixture = "../../roster/testdata/roster.json"

// TestEnv holds all the running components for the test
type TestEnv struct {
	Router        http.Handler
	RecordsClient records.RecordsClient
	Store         *recordstore.MemoryStore
}

// setupGatewayTestEnv spins up the records service over bufconn and puts
// the gateway router in front of it
func setupGatewayTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	if err := godotenv.Load(".env"); err != nil {
		log.Println("Note: No .env file found, using defaults")
	}

	fixture, err := roster.LoadFixture(rosterFixture)
	if err != nil {
		t.Fatalf("Failed to load roster fixture: %v", err)
	}

	// --- 1. Records Service ---
	store := recordstore.NewMemoryStore()
	svc := records.NewRecordsService(store, roster.NewMemoryDirectory(fixture), session.NewRegistry(time.Hour))

	lis := bufconn.Listen(bufSize)
	s := grpc.NewServer()
	records.RegisterRecordsServer(s, svc)
	go func() { s.Serve(lis) }()
	t.Cleanup(s.Stop)

	// --- 2. Connect Gateway to Backend ---
	conn, err := grpc.NewClient("passthrough://bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("Failed to dial records service: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	clients := &gateway.ServiceClients{RecordsClient: records.NewRecordsClient(conn)}

	// --- 3. Initialize Gateway Router ---
	cfg := &shared.GatewayConfig{
		RequestTimeout: 30 * time.Second,
		CORS: shared.CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		},
	}

	return &TestEnv{
		Router:        gateway.SetupRoutes(clients, cfg),
		RecordsClient: clients.RecordsClient,
		Store:         store,
	}
}

// do sends a request through the router. body is JSON-encoded when not nil.
func (env *TestEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	env.Router.ServeHTTP(rr, req)
	return rr
}

// decode unmarshals a JSON response body
func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var out map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return out
}
