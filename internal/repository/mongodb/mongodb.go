// Package mongodb implements the repository interfaces against a MongoDB
// deployment (Atlas in production).
//
// One client is opened at process start and shared by every request; the
// driver maintains the connection pool internally. Every store operation runs
// under a bounded per-operation timeout so a slow cluster cannot wedge a
// request forever.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names as they exist in the deployed database.
const (
	collUsers    = "users"
	collGallery  = "gallery"
	collFoods    = "foods"
	collPurchase = "purchase"
)

// defaultOpTimeout bounds every individual store operation.
const defaultOpTimeout = 5 * time.Second

// DB owns the client and hands out per-collection stores.
type DB struct {
	client    *mongo.Client
	database  *mongo.Database
	opTimeout time.Duration
}

// New connects to the deployment, verifies it with a ping, and returns the
// shared handle. The Stable API version is pinned the same way the deployed
// cluster expects.
func New(ctx context.Context, uri, dbName string) (*DB, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	clientOpts := options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(serverAPI).
		SetRetryWrites(true)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongodb: connecting: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultOpTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb: pinging deployment: %w", err)
	}

	return &DB{
		client:    client,
		database:  client.Database(dbName),
		opTimeout: defaultOpTimeout,
	}, nil
}

// Close disconnects the shared client. Call on shutdown, after the HTTP
// server has drained.
func (db *DB) Close(ctx context.Context) error {
	return db.client.Disconnect(ctx)
}

// Foods returns the store for the foods collection.
func (db *DB) Foods() *FoodStore {
	return &FoodStore{coll: db.database.Collection(collFoods), opTimeout: db.opTimeout}
}

// Purchases returns the store for the purchase collection.
func (db *DB) Purchases() *PurchaseStore {
	return &PurchaseStore{coll: db.database.Collection(collPurchase), opTimeout: db.opTimeout}
}

// Users returns the schemaless store for the users collection.
func (db *DB) Users() *UserStore {
	return &UserStore{DocumentStore: DocumentStore{coll: db.database.Collection(collUsers), opTimeout: db.opTimeout}}
}

// Gallery returns the schemaless store for the gallery collection.
func (db *DB) Gallery() *DocumentStore {
	return &DocumentStore{coll: db.database.Collection(collGallery), opTimeout: db.opTimeout}
}

// opCtx derives the bounded context every store operation runs under.
func opCtx(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultOpTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// all drains a cursor into out, closing it in every path.
func all[T any](ctx context.Context, cur *mongo.Cursor) ([]T, error) {
	defer cur.Close(ctx)
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// emptyFilter matches every document in a collection.
var emptyFilter = bson.D{}
