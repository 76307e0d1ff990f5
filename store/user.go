package store

import (
	"context"
	"time"

	"github.com/kevinaaaquil/novel-tracker/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *DB) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := db.Users().FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (db *DB) UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	err := db.Users().FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (db *DB) CreateUser(ctx context.Context, user *models.User) (primitive.ObjectID, error) {
	res, err := db.Users().InsertOne(ctx, user, options.InsertOne())
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

// UpdateUserProfile updates the mutable profile fields. Image fields are only
// touched when a new image was uploaded (non-nil).
func (db *DB) UpdateUserProfile(ctx context.Context, id primitive.ObjectID, name, email string, imageURL, imageKey *string) error {
	updates := bson.M{
		"name":      name,
		"email":     email,
		"updatedAt": time.Now(),
	}
	if imageURL != nil {
		updates["imageUrl"] = *imageURL
	}
	if imageKey != nil {
		updates["imageKey"] = *imageKey
	}
	_, err := db.Users().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": updates})
	return err
}

// UpdateUserPassword replaces the stored hash and bumps tokenVersion so all
// previously issued tokens stop verifying.
func (db *DB) UpdateUserPassword(ctx context.Context, id primitive.ObjectID, hashedPassword string) error {
	_, err := db.Users().UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"password": hashedPassword, "updatedAt": time.Now()},
		"$inc": bson.M{"tokenVersion": 1},
	})
	return err
}

// IncrementTokenVersion revokes every outstanding token for the user; issued
// tokens fail the version check on their next verification.
func (db *DB) IncrementTokenVersion(ctx context.Context, id primitive.ObjectID) error {
	_, err := db.Users().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"tokenVersion": 1}})
	return err
}

func (db *DB) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	_, err := db.Users().DeleteOne(ctx, bson.M{"_id": id})
	return err
}
