package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID       primitive.ObjectID `json:"_id" bson:"_id"`
	Name     string             `json:"name" bson:"name"`
	Email    string             `json:"email" bson:"email"`
	Password string             `json:"-" bson:"password"`
	Avatar   string             `json:"avatar" bson:"avatar"`
	Date     time.Time          `json:"date" bson:"date"`
}

// PublicUser is the subset of a user joined into profiles.
type PublicUser struct {
	ID     primitive.ObjectID `json:"_id" bson:"_id"`
	Name   string             `json:"name" bson:"name"`
	Avatar string             `json:"avatar" bson:"avatar"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required" msg:"Name is required"`
	Email    string `json:"email" validate:"required,email" msg:"Please include a valid email"`
	Password string `json:"password" validate:"min=6" msg:"Please enter a password with 6 or more characters"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" msg:"Please include a valid email"`
	Password string `json:"password" validate:"required" msg:"Password is required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}
