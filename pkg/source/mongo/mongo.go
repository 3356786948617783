// Package mongo reads flow documents from the authoring application's
// MongoDB. The exporter is a read-only collaborator of that store: it never
// creates, updates, or deletes flows.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mkessel/flowscribe/pkg/io"
	"github.com/mkessel/flowscribe/pkg/source"
)

// DefaultCollection is the authoring application's flow collection name.
const DefaultCollection = "flows"

const connectTimeout = 10 * time.Second

// Source serves flow documents from a MongoDB collection. Each stored
// document has the flow document shape plus whatever authoring metadata the
// application adds; decoding ignores unknown fields.
type Source struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// New connects to MongoDB and verifies the connection. uri is a standard
// connection string; db and collection select the authoring store, with
// collection falling back to [DefaultCollection] when empty.
func New(ctx context.Context, uri, db, collection string) (*Source, error) {
	if collection == "" {
		collection = DefaultCollection
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return &Source{
		client: client,
		coll:   client.Database(db).Collection(collection),
	}, nil
}

// List returns the available flows, sorted by flow ID. Only the identifying
// fields are projected; full documents are fetched by Get.
func (s *Source) List(ctx context.Context) ([]source.FlowInfo, error) {
	opts := options.Find().
		SetProjection(bson.D{{Key: "flow.id", Value: 1}, {Key: "flow.title", Value: 1}}).
		SetSort(bson.D{{Key: "flow.id", Value: 1}})

	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list flows: %w", err)
	}
	defer cur.Close(ctx)

	var flows []source.FlowInfo
	for cur.Next(ctx) {
		var doc struct {
			Flow struct {
				ID    string `bson:"id"`
				Title string `bson:"title"`
			} `bson:"flow"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode flow listing: %w", err)
		}
		flows = append(flows, source.FlowInfo{ID: doc.Flow.ID, Title: doc.Flow.Title})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list flows: %w", err)
	}
	return flows, nil
}

// Get fetches one flow document by flow ID.
func (s *Source) Get(ctx context.Context, id string) (*io.Document, error) {
	var doc io.Document
	err := s.coll.FindOne(ctx, bson.D{{Key: "flow.id", Value: id}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("flow %q: %w", id, source.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch flow %q: %w", id, err)
	}
	return &doc, nil
}

// Close disconnects from MongoDB.
func (s *Source) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Ensure Source implements FlowSource.
var _ source.FlowSource = (*Source)(nil)
