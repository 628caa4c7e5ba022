package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/devconnector/backend/internal/models"
)

var ErrProfileNotFound = errors.New("profile not found")

type ProfileService interface {
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.PopulatedProfile, error)
	List(ctx context.Context) ([]*models.PopulatedProfile, error)
	Upsert(ctx context.Context, userID primitive.ObjectID, fields *models.ProfileFields) (*models.Profile, error)
	AddExperience(ctx context.Context, userID primitive.ObjectID, exp models.Experience) (*models.Profile, error)
	RemoveExperience(ctx context.Context, userID primitive.ObjectID, expID string) (*models.Profile, error)
	AddEducation(ctx context.Context, userID primitive.ObjectID, edu models.Education) (*models.Profile, error)
	RemoveEducation(ctx context.Context, userID primitive.ObjectID, eduID string) (*models.Profile, error)
}

type MongoProfileService struct {
	profilesCol *mongo.Collection
	usersCol    *mongo.Collection
}

func NewMongoProfileService(db *mongo.Database) *MongoProfileService {
	return &MongoProfileService{
		profilesCol: db.Collection(profilesCollection),
		usersCol:    db.Collection(usersCollection),
	}
}

func (s *MongoProfileService) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.PopulatedProfile, error) {
	var prof models.Profile
	if err := s.profilesCol.FindOne(ctx, bson.M{"user": userID}).Decode(&prof); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	out, err := s.populate(ctx, []models.Profile{prof})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (s *MongoProfileService) List(ctx context.Context) ([]*models.PopulatedProfile, error) {
	cur, err := s.profilesCol.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	profiles := make([]models.Profile, 0)
	if err := cur.All(ctx, &profiles); err != nil {
		return nil, err
	}
	return s.populate(ctx, profiles)
}

// populate resolves each profile's user reference with a single $in lookup.
// Profiles whose user no longer exists keep a nil User.
func (s *MongoProfileService) populate(ctx context.Context, profiles []models.Profile) ([]*models.PopulatedProfile, error) {
	out := make([]*models.PopulatedProfile, 0, len(profiles))
	if len(profiles) == 0 {
		return out, nil
	}

	ids := make([]primitive.ObjectID, 0, len(profiles))
	seen := make(map[primitive.ObjectID]struct{}, len(profiles))
	for _, p := range profiles {
		if _, ok := seen[p.User]; ok {
			continue
		}
		seen[p.User] = struct{}{}
		ids = append(ids, p.User)
	}

	cur, err := s.usersCol.Find(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"_id": 1, "name": 1, "avatar": 1}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	users := make(map[primitive.ObjectID]*models.PublicUser, len(ids))
	for cur.Next(ctx) {
		var u models.PublicUser
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		users[u.ID] = &u
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}

	for _, p := range profiles {
		p.Normalize()
		out = append(out, &models.PopulatedProfile{Profile: p, User: users[p.User]})
	}
	return out, nil
}

// Upsert creates or replaces the caller's profile fields in one round trip.
// Sub-lists and the creation date are only written on insert.
func (s *MongoProfileService) Upsert(ctx context.Context, userID primitive.ObjectID, fields *models.ProfileFields) (*models.Profile, error) {
	skills := fields.Skills
	if skills == nil {
		skills = []string{}
	}
	update := bson.M{
		"$set": bson.M{
			"company":        fields.Company,
			"website":        fields.Website,
			"location":       fields.Location,
			"status":         fields.Status,
			"skills":         skills,
			"bio":            fields.Bio,
			"githubusername": fields.GitHubUsername,
			"social":         fields.Social,
		},
		"$setOnInsert": bson.M{
			"experience": bson.A{},
			"education":  bson.A{},
			"date":       time.Now().UTC(),
		},
	}

	var prof models.Profile
	err := s.profilesCol.FindOneAndUpdate(
		ctx,
		bson.M{"user": userID},
		update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&prof)
	if err != nil {
		return nil, err
	}
	prof.Normalize()
	return &prof, nil
}

func (s *MongoProfileService) AddExperience(ctx context.Context, userID primitive.ObjectID, exp models.Experience) (*models.Profile, error) {
	return s.prepend(ctx, userID, "experience", exp)
}

func (s *MongoProfileService) AddEducation(ctx context.Context, userID primitive.ObjectID, edu models.Education) (*models.Profile, error) {
	return s.prepend(ctx, userID, "education", edu)
}

func (s *MongoProfileService) RemoveExperience(ctx context.Context, userID primitive.ObjectID, expID string) (*models.Profile, error) {
	return s.pull(ctx, userID, "experience", expID)
}

func (s *MongoProfileService) RemoveEducation(ctx context.Context, userID primitive.ObjectID, eduID string) (*models.Profile, error) {
	return s.pull(ctx, userID, "education", eduID)
}

func (s *MongoProfileService) prepend(ctx context.Context, userID primitive.ObjectID, field string, entry any) (*models.Profile, error) {
	update := bson.M{
		"$push": bson.M{
			field: bson.M{"$each": bson.A{entry}, "$position": 0},
		},
	}
	return s.findAndModify(ctx, userID, update)
}

// pull removes the entry with the given id. An id that is not a valid
// ObjectID cannot match anything, so the profile is returned unchanged.
func (s *MongoProfileService) pull(ctx context.Context, userID primitive.ObjectID, field, entryID string) (*models.Profile, error) {
	oid, err := primitive.ObjectIDFromHex(entryID)
	if err != nil {
		var prof models.Profile
		if err := s.profilesCol.FindOne(ctx, bson.M{"user": userID}).Decode(&prof); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, ErrProfileNotFound
			}
			return nil, err
		}
		prof.Normalize()
		return &prof, nil
	}

	update := bson.M{
		"$pull": bson.M{
			field: bson.M{"_id": oid},
		},
	}
	return s.findAndModify(ctx, userID, update)
}

func (s *MongoProfileService) findAndModify(ctx context.Context, userID primitive.ObjectID, update bson.M) (*models.Profile, error) {
	var prof models.Profile
	err := s.profilesCol.FindOneAndUpdate(
		ctx,
		bson.M{"user": userID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&prof)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	prof.Normalize()
	return &prof, nil
}
