package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type AccountService interface {
	DeleteAccount(ctx context.Context, userID primitive.ObjectID) error
}

type MongoAccountService struct {
	postsCol    *mongo.Collection
	profilesCol *mongo.Collection
	usersCol    *mongo.Collection
}

func NewMongoAccountService(db *mongo.Database) *MongoAccountService {
	return &MongoAccountService{
		postsCol:    db.Collection(postsCollection),
		profilesCol: db.Collection(profilesCollection),
		usersCol:    db.Collection(usersCollection),
	}
}

// DeleteAccount removes the user's posts, then their profile, then the user.
// It stops at the first failure and does not undo earlier steps.
func (s *MongoAccountService) DeleteAccount(ctx context.Context, userID primitive.ObjectID) error {
	if _, err := s.postsCol.DeleteMany(ctx, bson.M{"user": userID}); err != nil {
		return fmt.Errorf("delete posts: %w", err)
	}
	if _, err := s.profilesCol.DeleteOne(ctx, bson.M{"user": userID}); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if _, err := s.usersCol.DeleteOne(ctx, bson.M{"_id": userID}); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
