package warehouse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	mongoNamespaceExists    = 48
	mongoDocumentValidation = 121
	mongoDisconnectTimeout  = 10 * time.Second
)

// MongoSink stores rows as documents in a validated collection.
type MongoSink struct {
	client     *mongo.Client
	database   *mongo.Database
	collection string
}

// OpenMongo connects to uri and selects database. The collection is named
// after the table.
func OpenMongo(ctx context.Context, uri, database, collection string) (*MongoSink, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoSink{client: client, database: client.Database(database), collection: collection}, nil
}

func (s *MongoSink) Name() string {
	return "mongo"
}

func (s *MongoSink) TableExists(ctx context.Context) (bool, error) {
	names, err := s.database.ListCollectionNames(ctx, bson.D{{Key: "name", Value: s.collection}})
	if err != nil {
		return false, fmt.Errorf("list collections: %w", err)
	}
	return len(names) > 0, nil
}

func (s *MongoSink) CreateTable(ctx context.Context) error {
	properties := bson.M{}
	for _, col := range Columns {
		properties[col] = bson.M{"bsonType": "string"}
	}
	properties["title"] = bson.M{"bsonType": "string", "minLength": 1}
	properties["description"] = bson.M{"bsonType": "string", "maxLength": DescriptionLimit}
	schema := bson.M{
		"bsonType":   "object",
		"required":   bson.A{"title"},
		"properties": properties,
	}
	opts := options.CreateCollection().SetValidator(bson.M{"$jsonSchema": schema})
	err := s.database.CreateCollection(ctx, s.collection, opts)
	if err == nil {
		return nil
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == mongoNamespaceExists {
		return nil
	}
	return fmt.Errorf("create collection %s: %w", s.collection, err)
}

func (s *MongoSink) Insert(ctx context.Context, row Row) error {
	_, err := s.database.Collection(s.collection).InsertOne(ctx, row)
	if err == nil {
		return nil
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, w := range we.WriteErrors {
			if w.Code == mongoDocumentValidation {
				return Malformed(err)
			}
		}
	}
	return fmt.Errorf("insert into %s: %w", s.collection, err)
}

func (s *MongoSink) CountRows(ctx context.Context) (int64, error) {
	n, err := s.database.Collection(s.collection).CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", s.collection, err)
	}
	return n, nil
}

func (s *MongoSink) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), mongoDisconnectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}
