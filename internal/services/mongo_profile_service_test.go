package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/devconnector/backend/internal/models"
)

func sampleProfile(userID primitive.ObjectID) models.Profile {
	return models.Profile{
		ID:         primitive.NewObjectID(),
		User:       userID,
		Status:     "Developer",
		Skills:     []string{"go"},
		Experience: []models.Experience{},
		Education:  []models.Education{},
		Date:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestMongoProfileService_GetByUserID(t *testing.T) {
	mt := newMockT(t)
	ctx := context.Background()
	uid := primitive.NewObjectID()

	mt.Run("populates user", func(mt *mtest.T) {
		prof := sampleProfile(uid)
		user := models.PublicUser{ID: uid, Name: "Ada", Avatar: "//avatar"}
		mt.AddMockResponses(findReply(toDoc(mt.T, prof)), findReply(toDoc(mt.T, user)))

		got, err := NewMongoProfileService(mt.DB).GetByUserID(ctx, uid)
		require.NoError(mt, err)
		require.NotNil(mt, got.User)
		assert.Equal(mt, "Ada", got.User.Name)
		assert.Equal(mt, prof.ID, got.ID)
		assert.Equal(mt, []string{"go"}, got.Skills)
	})

	mt.Run("missing", func(mt *mtest.T) {
		mt.AddMockResponses(findReply())
		_, err := NewMongoProfileService(mt.DB).GetByUserID(ctx, uid)
		assert.ErrorIs(mt, err, ErrProfileNotFound)
	})
}

func TestMongoProfileService_List(t *testing.T) {
	mt := newMockT(t)

	mt.Run("orphaned profile keeps nil user", func(mt *mtest.T) {
		alive, gone := primitive.NewObjectID(), primitive.NewObjectID()
		p1, p2 := sampleProfile(alive), sampleProfile(gone)
		mt.AddMockResponses(
			findReply(toDoc(mt.T, p1), toDoc(mt.T, p2)),
			findReply(toDoc(mt.T, models.PublicUser{ID: alive, Name: "Ada"})),
		)

		got, err := NewMongoProfileService(mt.DB).List(context.Background())
		require.NoError(mt, err)
		require.Len(mt, got, 2)
		require.NotNil(mt, got[0].User)
		assert.Equal(mt, "Ada", got[0].User.Name)
		assert.Nil(mt, got[1].User)
	})

	mt.Run("empty", func(mt *mtest.T) {
		mt.AddMockResponses(findReply())
		got, err := NewMongoProfileService(mt.DB).List(context.Background())
		require.NoError(mt, err)
		assert.Empty(mt, got)
	})
}

func TestMongoProfileService_Upsert(t *testing.T) {
	mt := newMockT(t)

	mt.Run("upserts with setOnInsert lists", func(mt *mtest.T) {
		uid := primitive.NewObjectID()
		stored := sampleProfile(uid)
		stored.Website = "https://example.com"
		mt.AddMockResponses(findAndModifyReply(toDoc(mt.T, stored)))

		got, err := NewMongoProfileService(mt.DB).Upsert(context.Background(), uid, &models.ProfileFields{
			Status:  "Developer",
			Skills:  []string{"go"},
			Website: "https://example.com",
		})
		require.NoError(mt, err)
		assert.Equal(mt, "https://example.com", got.Website)

		cmd := mt.GetStartedEvent().Command
		assert.True(mt, cmd.Lookup("upsert").Boolean())
		assert.Equal(mt, "Developer", cmd.Lookup("update", "$set", "status").StringValue())
		_, ok := cmd.Lookup("update", "$setOnInsert", "experience").ArrayOK()
		assert.True(mt, ok)
	})
}

func TestMongoProfileService_Experience(t *testing.T) {
	mt := newMockT(t)
	ctx := context.Background()
	uid := primitive.NewObjectID()

	mt.Run("prepends with position zero", func(mt *mtest.T) {
		exp := models.Experience{ID: primitive.NewObjectID(), Title: "Dev", Company: "Acme", From: time.Now().UTC()}
		stored := sampleProfile(uid)
		stored.Experience = []models.Experience{exp}
		mt.AddMockResponses(findAndModifyReply(toDoc(mt.T, stored)))

		got, err := NewMongoProfileService(mt.DB).AddExperience(ctx, uid, exp)
		require.NoError(mt, err)
		require.Len(mt, got.Experience, 1)
		assert.Equal(mt, exp.ID, got.Experience[0].ID)

		pos, ok := mt.GetStartedEvent().Command.Lookup("update", "$push", "experience", "$position").Int32OK()
		require.True(mt, ok)
		assert.Equal(mt, int32(0), pos)
	})

	mt.Run("no profile", func(mt *mtest.T) {
		mt.AddMockResponses(findAndModifyReply(nil))
		_, err := NewMongoProfileService(mt.DB).AddEducation(ctx, uid, models.Education{ID: primitive.NewObjectID()})
		assert.ErrorIs(mt, err, ErrProfileNotFound)
	})

	mt.Run("pull by id", func(mt *mtest.T) {
		entryID := primitive.NewObjectID()
		mt.AddMockResponses(findAndModifyReply(toDoc(mt.T, sampleProfile(uid))))

		got, err := NewMongoProfileService(mt.DB).RemoveExperience(ctx, uid, entryID.Hex())
		require.NoError(mt, err)
		assert.Empty(mt, got.Experience)

		pulled := mt.GetStartedEvent().Command.Lookup("update", "$pull", "experience", "_id").ObjectID()
		assert.Equal(mt, entryID, pulled)
	})

	mt.Run("malformed id is a no-op", func(mt *mtest.T) {
		stored := sampleProfile(uid)
		stored.Education = []models.Education{{ID: primitive.NewObjectID(), School: "MIT"}}
		mt.AddMockResponses(findReply(toDoc(mt.T, stored)))

		got, err := NewMongoProfileService(mt.DB).RemoveEducation(ctx, uid, "not-an-id")
		require.NoError(mt, err)
		assert.Len(mt, got.Education, 1)
		assert.Equal(mt, "find", mt.GetStartedEvent().CommandName)
	})
}

func TestMongoAccountService_DeleteAccount(t *testing.T) {
	mt := newMockT(t)
	uid := primitive.NewObjectID()

	mt.Run("deletes posts, profile then user", func(mt *mtest.T) {
		ok := mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1})
		mt.AddMockResponses(ok, ok, ok)

		require.NoError(mt, NewMongoAccountService(mt.DB).DeleteAccount(context.Background(), uid))

		var colls []string
		for evt := mt.GetStartedEvent(); evt != nil; evt = mt.GetStartedEvent() {
			colls = append(colls, evt.Command.Lookup("delete").StringValue())
		}
		assert.Equal(mt, []string{"posts", "profiles", "users"}, colls)
	})

	mt.Run("stops at first failure", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}),
			mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 8000, Name: "AtlasError", Message: "boom"}),
		)

		err := NewMongoAccountService(mt.DB).DeleteAccount(context.Background(), uid)
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "delete profile")
	})
}
