package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Like struct {
	ID   primitive.ObjectID `json:"_id" bson:"_id"`
	User primitive.ObjectID `json:"user" bson:"user"`
}

type Comment struct {
	ID     primitive.ObjectID `json:"_id" bson:"_id"`
	User   primitive.ObjectID `json:"user" bson:"user"`
	Text   string             `json:"text" bson:"text"`
	Name   string             `json:"name" bson:"name"`
	Avatar string             `json:"avatar" bson:"avatar"`
	Date   time.Time          `json:"date" bson:"date"`
}

// Post keeps the author's name and avatar as they were when it was written.
type Post struct {
	ID       primitive.ObjectID `json:"_id" bson:"_id"`
	User     primitive.ObjectID `json:"user" bson:"user"`
	Text     string             `json:"text" bson:"text"`
	Name     string             `json:"name" bson:"name"`
	Avatar   string             `json:"avatar" bson:"avatar"`
	Likes    []Like             `json:"likes" bson:"likes"`
	Comments []Comment          `json:"comments" bson:"comments"`
	Date     time.Time          `json:"date" bson:"date"`
}

func (p *Post) Normalize() {
	if p.Likes == nil {
		p.Likes = []Like{}
	}
	if p.Comments == nil {
		p.Comments = []Comment{}
	}
}

// NewPost snapshots author into a post with empty like and comment lists.
func NewPost(author *User, text string) *Post {
	return &Post{
		ID:       primitive.NewObjectID(),
		User:     author.ID,
		Text:     text,
		Name:     author.Name,
		Avatar:   author.Avatar,
		Likes:    []Like{},
		Comments: []Comment{},
		Date:     time.Now().UTC(),
	}
}

func NewComment(author *User, text string) Comment {
	return Comment{
		ID:     primitive.NewObjectID(),
		User:   author.ID,
		Text:   text,
		Name:   author.Name,
		Avatar: author.Avatar,
		Date:   time.Now().UTC(),
	}
}

type PostRequest struct {
	Text string `json:"text" validate:"required" msg:"Text is required"`
}
