package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultCollection = "reports"

// MongoStore implements Store on a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to uri and uses database db. The connection is
// verified with a ping before returning.
func NewMongoStore(ctx context.Context, uri, db string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	log.Infof("report store using mongodb %s.%s", db, defaultCollection)
	return &MongoStore{
		client: client,
		coll:   client.Database(db).Collection(defaultCollection),
	}, nil
}

func (ms *MongoStore) Save(ctx context.Context, r *Report) error {
	if r == nil || r.ID == "" {
		return fmt.Errorf("report ID is required")
	}
	_, err := ms.coll.ReplaceOne(ctx, bson.M{"_id": r.ID}, r, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

func (ms *MongoStore) Get(ctx context.Context, id string) (*Report, error) {
	var r Report
	err := ms.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	return &r, nil
}

func (ms *MongoStore) List(ctx context.Context) ([]*Report, error) {
	opts := options.Find().SetSort(bson.D{{Key: "finished_at", Value: -1}})
	cur, err := ms.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer cur.Close(ctx)

	reports := make([]*Report, 0)
	if err := cur.All(ctx, &reports); err != nil {
		return nil, fmt.Errorf("failed to decode reports: %w", err)
	}
	return reports, nil
}

func (ms *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := ms.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrReportNotFound
	}
	return nil
}

// Close disconnects the underlying client.
func (ms *MongoStore) Close(ctx context.Context) error {
	return ms.client.Disconnect(ctx)
}
