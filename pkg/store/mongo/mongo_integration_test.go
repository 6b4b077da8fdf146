//go:build integration

package mongo

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/orgchart/pkg/store"
	"github.com/matzehuels/orgchart/pkg/store/storetest"
)

// Run with: ORGCHART_TEST_MONGO=mongodb://localhost:27017 go test -tags integration ./pkg/store/mongo
func TestStore(t *testing.T) {
	uri := os.Getenv("ORGCHART_TEST_MONGO")
	if uri == "" {
		t.Skip("ORGCHART_TEST_MONGO not set")
	}
	ctx := context.Background()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	storetest.Run(t, func(t *testing.T) store.Store {
		db := "orgchart_test_" + uuid.NewString()[:8]
		t.Cleanup(func() { _ = client.Database(db).Drop(context.Background()) })

		s, err := New(ctx, client, db)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		return s
	})
}

func TestOpen(t *testing.T) {
	uri := os.Getenv("ORGCHART_TEST_MONGO")
	if uri == "" {
		t.Skip("ORGCHART_TEST_MONGO not set")
	}
	s, err := Open(context.Background(), uri, "orgchart_test_open")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
