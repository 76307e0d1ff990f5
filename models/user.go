package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Username     string             `bson:"username,omitempty" json:"username,omitempty"`
	Email        string             `bson:"email" json:"email"`
	Password     string             `bson:"password" json:"-"` // bcrypt hash
	ImageURL     string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	ImageKey     string             `bson:"imageKey,omitempty" json:"-"` // object key in S3
	TokenVersion int                `bson:"tokenVersion" json:"-"`       // bumped to revoke all outstanding tokens
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}
