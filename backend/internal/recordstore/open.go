package recordstore

import (
	"context"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	"google.golang.org/api/option"

	"classledger/backend/internal/shared"
)

// Conn is an opened backend. Store is always set; Mongo or Firestore is set
// when that driver is in use so the roster directory can run queries.
type Conn struct {
	Driver    string
	Store     Store
	Mongo     *mongo.Database
	Firestore *firestore.Client

	closers []func() error
}

// Open connects the driver selected in cfg
func Open(ctx context.Context, cfg *shared.ServiceConfig) (*Conn, error) {
	conn := &Conn{Driver: cfg.StoreDriver}

	switch cfg.StoreDriver {
	case shared.DriverMongo:
		client, db, err := shared.ConnectMongoDB(&cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		conn.Mongo = db
		conn.Store = NewMongoStore(db)
		conn.closers = append(conn.closers, func() error { return shared.DisconnectMongoDB(client) })

	case shared.DriverFirestore:
		client, err := connectFirestore(ctx, &cfg.Firestore)
		if err != nil {
			return nil, err
		}
		conn.Firestore = client
		conn.Store = NewFirestoreStore(client)
		conn.closers = append(conn.closers, client.Close)

	case shared.DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to ping Redis at %s: %w", cfg.Redis.Addr, err)
		}
		log.Printf("INFO: Connected to Redis at %s", cfg.Redis.Addr)
		conn.Store = NewRedisStore(client, cfg.Redis.KeyPrefix)
		conn.closers = append(conn.closers, client.Close)

	case shared.DriverMemory:
		log.Println("WARN: Using in-memory record store, data is lost on shutdown")
		conn.Store = NewMemoryStore()

	default:
		return nil, fmt.Errorf("unknown record store driver %q", cfg.StoreDriver)
	}

	return conn, nil
}

// Close releases driver connections
func (c *Conn) Close() error {
	var firstErr error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			log.Printf("WARN: Error closing %s connection: %v", c.Driver, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func connectFirestore(ctx context.Context, cfg *shared.FirestoreConfig) (*firestore.Client, error) {
	var opts []option.ClientOption
	switch {
	case cfg.CredentialsFile != "":
		log.Printf("INFO: Using Firebase credentials from %s", cfg.CredentialsFile)
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	default:
		log.Println("WARN: No explicit Firebase credentials, falling back to application default")
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firestore: %w", err)
	}

	log.Printf("INFO: Connected to Firestore (Project: %s)", cfg.ProjectID)
	return client, nil
}
