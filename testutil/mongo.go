package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/princinho/cragbase/database"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"
)

// MongoURIEnv names the server used by the integration tests.
const MongoURIEnv = "CRAGBASE_TEST_MONGODB_URI"

// MongoDB returns a fresh database on the server named by MongoURIEnv and
// drops it when the test ends. Without the variable the test is skipped.
func MongoDB(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv(MongoURIEnv)
	if uri == "" {
		t.Skip(MongoURIEnv + " not set")
	}

	client, err := database.Connect(context.Background(), uri, zap.NewNop())
	require.NoError(t, err)
	db := client.Database("cragbase_test_" + bson.NewObjectID().Hex())
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	return db
}
