package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/devconnector/backend/internal/models"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user already exists")
	ErrInvalidPassword = errors.New("invalid password")
)

type UserService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type MongoUserService struct {
	usersCol *mongo.Collection
}

func NewMongoUserService(db *mongo.Database) *MongoUserService {
	return &MongoUserService{usersCol: db.Collection(usersCollection)}
}

func (s *MongoUserService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	email := NormalizeEmail(req.Email)

	err := s.usersCol.FindOne(ctx, bson.M{"email": email}).Err()
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:       primitive.NewObjectID(),
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Password: string(hashedPassword),
		Avatar:   GravatarURL(email),
		Date:     time.Now().UTC(),
	}
	if _, err := s.usersCol.InsertOne(ctx, user); err != nil {
		// Lost a race against another registration for the same address.
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	return user, nil
}

// Login returns ErrUserNotFound or ErrInvalidPassword; callers must not
// reveal which one occurred.
func (s *MongoUserService) Login(ctx context.Context, req *models.LoginRequest) (*models.User, error) {
	var user models.User
	if err := s.usersCol.FindOne(ctx, bson.M{"email": NormalizeEmail(req.Email)}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidPassword
	}
	return &user, nil
}

func (s *MongoUserService) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	if err := s.usersCol.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GravatarURL builds a protocol-relative avatar link: 200px, PG rated,
// mystery-person fallback.
func GravatarURL(email string) string {
	sum := md5.Sum([]byte(NormalizeEmail(email)))
	return fmt.Sprintf("//www.gravatar.com/avatar/%s?s=200&r=pg&d=mm", hex.EncodeToString(sum[:]))
}
