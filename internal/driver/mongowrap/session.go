package mongowrap

import (
	"context"
	"net/url"
	"strings"
	"time"

	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ModernMGO is a connected session, the mgo-API-compatible handle
// internal/engine.Engine dials once at Open and closes at Close.
type ModernMGO struct {
	client *mongodrv.Client
	dbName string
}

// DialModernMGOWithTimeout connects to mongoURL, bounding the initial
// handshake by timeout. Retryable writes are disabled, matching the original
// mgo driver's write semantics that the migration core's executor already
// assumes (a failed batch write is not retried, by the driver or by the
// executor).
func DialModernMGOWithTimeout(mongoURL string, timeout time.Duration) (*ModernMGO, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	clientOpts := options.Client().ApplyURI(mongoURL).SetRetryWrites(false)
	client, err := mongodrv.Connect(ctx, clientOpts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	dbName := "test"
	if parsed, err := url.Parse(mongoURL); err == nil {
		if name := strings.TrimPrefix(parsed.Path, "/"); name != "" {
			dbName = name
		}
	}

	return &ModernMGO{client: client, dbName: dbName}, nil
}

// Close disconnects the underlying client.
func (m *ModernMGO) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	m.client.Disconnect(ctx)
}

// DB returns a handle to the named database, or the database carried on the
// connection URI when name is empty.
func (m *ModernMGO) DB(name string) *ModernDB {
	if name == "" {
		name = m.dbName
	}
	return &ModernDB{mgoDB: m.client.Database(name), name: name}
}
