// Package mongo stores snapshots in a MongoDB collection so several
// `orgchart serve` instances share one history.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/orgchart/pkg/graph"
	"github.com/matzehuels/orgchart/pkg/store"
)

// Collection is the name of the snapshot collection.
const Collection = "snapshots"

// connectTimeout bounds Open's connect and ping.
const connectTimeout = 10 * time.Second

// Store is a MongoDB-backed store.Store.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
	owned  bool
}

var _ store.Store = (*Store)(nil)

// Open connects to uri, pings the server and ensures the created_at index
// on database.snapshots.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s, err := New(ctx, client, database)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	s.owned = true
	return s, nil
}

// New wraps an existing client. Close does not disconnect it.
func New(ctx context.Context, client *mongo.Client, database string) (*Store, error) {
	coll := client.Database(database).Collection(Collection)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	return &Store{client: client, coll: coll}, nil
}

// Save inserts snap.
func (s *Store) Save(ctx context.Context, snap *store.Snapshot) error {
	if err := store.Prepare(snap); err != nil {
		return err
	}
	if _, err := s.coll.InsertOne(ctx, snap); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.Duplicate(snap.ID)
		}
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// Get loads the snapshot with the given id. Rows are rebuilt from node
// ranks since they are not persisted.
func (s *Store) Get(ctx context.Context, id string) (*store.Snapshot, error) {
	var snap store.Snapshot
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&snap)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.NotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	snap.CreatedAt = snap.CreatedAt.UTC()
	if snap.Layout.Nodes == nil {
		snap.Layout.Nodes = []graph.Node{}
	}
	if snap.Layout.Edges == nil {
		snap.Layout.Edges = []graph.Edge{}
	}
	snap.Layout.RebuildRows()
	return &snap, nil
}

// List returns up to limit summaries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]store.Snapshot, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(store.Limit(limit))).
		SetProjection(bson.M{"layout": 0})

	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	out := make([]store.Snapshot, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode snapshots: %w", err)
	}
	for i := range out {
		out[i].CreatedAt = out[i].CreatedAt.UTC()
	}
	return out, nil
}

// Close disconnects the client if Open created it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}
