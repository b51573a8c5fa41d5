package mongo

import (
	"alcyxob/anyshare/internal/repository"
	"alcyxob/anyshare/internal/repository/repotest"
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Runs against a real server: MONGO_URI=mongodb://localhost:27017 go test ./...
func TestMongoFileRepository(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("skipping integration test: MONGO_URI not set")
	}

	ctx := context.Background()
	client, err := Connect(ctx, uri)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Disconnect(client) })

	db := client.Database("anyshare_test")
	repotest.RunFileRepository(t, func(t *testing.T) repository.FileRepository {
		name := "files_" + uuid.NewString()
		require.NoError(t, EnsureFileIndexes(ctx, db.Collection(name)))
		t.Cleanup(func() { _ = db.Collection(name).Drop(ctx) })
		return NewMongoFileRepository(db, name)
	})
}
