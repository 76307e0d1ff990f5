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

func (db *DB) InsertBook(ctx context.Context, book *models.Book) (primitive.ObjectID, error) {
	res, err := db.Books().InsertOne(ctx, book, options.InsertOne())
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

// BooksForUser returns all books owned by the user, newest first.
func (db *DB) BooksForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Book, error) {
	cur, err := db.Books().Find(ctx, bson.M{"user": userID}, options.Find().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var books []models.Book
	if err := cur.All(ctx, &books); err != nil {
		return nil, err
	}
	return books, nil
}

func (db *DB) BookByID(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	var book models.Book
	err := db.Books().FindOne(ctx, bson.M{"_id": id}).Decode(&book)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// BookByIDForUser loads a book only when it belongs to the user. A foreign
// book looks the same as a missing one to the caller.
func (db *DB) BookByIDForUser(ctx context.Context, id, userID primitive.ObjectID) (*models.Book, error) {
	var book models.Book
	err := db.Books().FindOne(ctx, bson.M{"_id": id, "user": userID}).Decode(&book)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// UpdateBookDetails updates the user-editable fields of a book.
func (db *DB) UpdateBookDetails(ctx context.Context, id primitive.ObjectID, book *models.Book) error {
	update := bson.M{
		"title":         book.Title,
		"author":        book.Author,
		"description":   book.Description,
		"numberOfPages": book.NumberOfPages,
		"imageUrl":      book.ImageURL,
		"imageKey":      book.ImageKey,
		"updatedAt":     time.Now(),
	}
	_, err := db.Books().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update})
	return err
}

// ReplaceBookProgress persists the progress subdocument and rating after a
// reading session or a re-read reset.
func (db *DB) ReplaceBookProgress(ctx context.Context, id primitive.ObjectID, book *models.Book) error {
	update := bson.M{
		"progress":  book.Progress,
		"rating":    book.Rating,
		"updatedAt": time.Now(),
	}
	_, err := db.Books().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update})
	return err
}

// DeleteBook removes a book owned by the user and returns the deleted
// document so its progress snapshot can be reversed out of the stats.
func (db *DB) DeleteBook(ctx context.Context, id, userID primitive.ObjectID) (*models.Book, error) {
	var book models.Book
	err := db.Books().FindOneAndDelete(ctx, bson.M{"_id": id, "user": userID}).Decode(&book)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// DeleteBooksForUser removes every book owned by the user (account deletion
// cascade) and returns the removed books so their images can be cleaned up.
func (db *DB) DeleteBooksForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Book, error) {
	books, err := db.BooksForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := db.Books().DeleteMany(ctx, bson.M{"user": userID}); err != nil {
		return nil, err
	}
	return books, nil
}
