package manifest

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore persists manifests in a Mongo collection, keyed by job_id.
// Every field on Manifest (and its nested types) carries a bson tag for
// exactly this purpose.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoStore connects to uri and returns a MongoStore backed by
// database.manifests.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection("manifests"),
	}, nil
}

// Save upserts m keyed by JobID.
func (s *MongoStore) Save(ctx context.Context, m Manifest) error {
	_, err := s.collection.ReplaceOne(ctx,
		bson.M{"job_id": m.JobID},
		m,
		options.Replace().SetUpsert(true),
	)
	return err
}

// Get retrieves the manifest for jobID, if present.
func (s *MongoStore) Get(ctx context.Context, jobID string) (Manifest, bool, error) {
	var m Manifest
	err := s.collection.FindOne(ctx, bson.M{"job_id": jobID}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return Manifest{}, false, nil
	}
	if err != nil {
		return Manifest{}, false, err
	}
	return m, true, nil
}

// Close disconnects the underlying Mongo client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
