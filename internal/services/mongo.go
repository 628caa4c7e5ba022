package services

import (
	"context"
	"crypto/tls"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection    = "users"
	profilesCollection = "profiles"
	postsCollection    = "posts"
)

// Connect dials MongoDB and verifies the connection with a ping.
func Connect(ctx context.Context, mongoURI, dbName string) (*mongo.Client, *mongo.Database, error) {
	opts := options.Client().ApplyURI(mongoURI)
	// Atlas SRV endpoints occasionally fail TLS negotiation unless pinned to 1.2.
	if strings.HasPrefix(mongoURI, "mongodb+srv://") {
		opts.SetTLSConfig(&tls.Config{
			MinVersion: tls.VersionTLS12,
			MaxVersion: tls.VersionTLS12,
		})
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, err
	}
	return client, client.Database(dbName), nil
}

// EnsureIndexes creates the indexes the services rely on. The unique email
// index is what makes concurrent registrations for one address safe.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	if _, err := db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return err
	}
	if _, err := db.Collection(profilesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return err
	}
	_, err := db.Collection(postsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "date", Value: -1}}},
		{Keys: bson.D{{Key: "user", Value: 1}}},
	})
	return err
}
