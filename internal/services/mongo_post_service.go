package services

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/devconnector/backend/internal/models"
)

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrNotAuthorized   = errors.New("user not authorized")
	ErrAlreadyLiked    = errors.New("post already liked")
	ErrNotLiked        = errors.New("post has not yet been liked")
	ErrCommentNotFound = errors.New("comment does not exist")
)

type PostService interface {
	Create(ctx context.Context, author *models.User, text string) (*models.Post, error)
	List(ctx context.Context) ([]*models.Post, error)
	GetByID(ctx context.Context, postID primitive.ObjectID) (*models.Post, error)
	Delete(ctx context.Context, postID, callerID primitive.ObjectID) error
	Like(ctx context.Context, postID, callerID primitive.ObjectID) ([]models.Like, error)
	Unlike(ctx context.Context, postID, callerID primitive.ObjectID) ([]models.Like, error)
	AddComment(ctx context.Context, postID primitive.ObjectID, author *models.User, text string) ([]models.Comment, error)
	RemoveComment(ctx context.Context, postID primitive.ObjectID, commentID string) ([]models.Comment, error)
}

type MongoPostService struct {
	postsCol *mongo.Collection
}

func NewMongoPostService(db *mongo.Database) *MongoPostService {
	return &MongoPostService{postsCol: db.Collection(postsCollection)}
}

func (s *MongoPostService) Create(ctx context.Context, author *models.User, text string) (*models.Post, error) {
	post := models.NewPost(author, text)
	if _, err := s.postsCol.InsertOne(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *MongoPostService) List(ctx context.Context) ([]*models.Post, error) {
	cur, err := s.postsCol.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]*models.Post, 0)
	for cur.Next(ctx) {
		var p models.Post
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		p.Normalize()
		out = append(out, &p)
	}
	return out, cur.Err()
}

func (s *MongoPostService) GetByID(ctx context.Context, postID primitive.ObjectID) (*models.Post, error) {
	var p models.Post
	if err := s.postsCol.FindOne(ctx, bson.M{"_id": postID}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	p.Normalize()
	return &p, nil
}

func (s *MongoPostService) Delete(ctx context.Context, postID, callerID primitive.ObjectID) error {
	post, err := s.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.User != callerID {
		return ErrNotAuthorized
	}
	res, err := s.postsCol.DeleteOne(ctx, bson.M{"_id": postID, "user": callerID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrPostNotFound
	}
	return nil
}

// Like prepends a like only when the caller has none on the post, so two
// concurrent likes from one user cannot both land.
func (s *MongoPostService) Like(ctx context.Context, postID, callerID primitive.ObjectID) ([]models.Like, error) {
	like := models.Like{ID: primitive.NewObjectID(), User: callerID}
	post, err := s.findAndModify(ctx,
		bson.M{"_id": postID, "likes.user": bson.M{"$ne": callerID}},
		bson.M{"$push": bson.M{"likes": bson.M{"$each": bson.A{like}, "$position": 0}}},
	)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, s.missOr(ctx, postID, ErrAlreadyLiked)
	}
	if err != nil {
		return nil, err
	}
	return post.Likes, nil
}

func (s *MongoPostService) Unlike(ctx context.Context, postID, callerID primitive.ObjectID) ([]models.Like, error) {
	post, err := s.findAndModify(ctx,
		bson.M{"_id": postID, "likes.user": callerID},
		bson.M{"$pull": bson.M{"likes": bson.M{"user": callerID}}},
	)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, s.missOr(ctx, postID, ErrNotLiked)
	}
	if err != nil {
		return nil, err
	}
	return post.Likes, nil
}

func (s *MongoPostService) AddComment(ctx context.Context, postID primitive.ObjectID, author *models.User, text string) ([]models.Comment, error) {
	comment := models.NewComment(author, text)
	post, err := s.findAndModify(ctx,
		bson.M{"_id": postID},
		bson.M{"$push": bson.M{"comments": bson.M{"$each": bson.A{comment}, "$position": 0}}},
	)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	return post.Comments, nil
}

func (s *MongoPostService) RemoveComment(ctx context.Context, postID primitive.ObjectID, commentID string) ([]models.Comment, error) {
	cid, err := primitive.ObjectIDFromHex(commentID)
	if err != nil {
		return nil, s.missOr(ctx, postID, ErrCommentNotFound)
	}
	post, err := s.findAndModify(ctx,
		bson.M{"_id": postID, "comments._id": cid},
		bson.M{"$pull": bson.M{"comments": bson.M{"_id": cid}}},
	)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, s.missOr(ctx, postID, ErrCommentNotFound)
	}
	if err != nil {
		return nil, err
	}
	return post.Comments, nil
}

func (s *MongoPostService) findAndModify(ctx context.Context, filter, update bson.M) (*models.Post, error) {
	var p models.Post
	err := s.postsCol.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if err != nil {
		return nil, err
	}
	p.Normalize()
	return &p, nil
}

// missOr explains a conditional update that matched nothing: ErrPostNotFound
// when the post is gone, otherwise the supplied rule violation.
func (s *MongoPostService) missOr(ctx context.Context, postID primitive.ObjectID, ruleErr error) error {
	err := s.postsCol.FindOne(ctx, bson.M{"_id": postID},
		options.FindOne().SetProjection(bson.M{"_id": 1}),
	).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrPostNotFound
	}
	if err != nil {
		return err
	}
	return ruleErr
}
