package store

import (
	"context"
	"time"

	"github.com/kevinaaaquil/novel-tracker/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// StatsForUser returns the user's reading stats, or nil when no document
// exists yet (stats are created lazily on the first book add).
func (db *DB) StatsForUser(ctx context.Context, userID primitive.ObjectID) (*models.ReadingStats, error) {
	var stats models.ReadingStats
	err := db.ReadingStats().FindOne(ctx, bson.M{"user": userID}).Decode(&stats)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (db *DB) CreateStats(ctx context.Context, stats *models.ReadingStats) error {
	_, err := db.ReadingStats().InsertOne(ctx, stats)
	return err
}

// SaveStats writes the counter fields back for an existing stats document.
func (db *DB) SaveStats(ctx context.Context, stats *models.ReadingStats) error {
	update := bson.M{
		"booksRead":      stats.BooksRead,
		"totalPagesRead": stats.TotalPagesRead,
		"totalBooks":     stats.TotalBooks,
		"updatedAt":      time.Now(),
	}
	_, err := db.ReadingStats().UpdateOne(ctx, bson.M{"_id": stats.ID}, bson.M{"$set": update})
	return err
}

func (db *DB) DeleteStatsForUser(ctx context.Context, userID primitive.ObjectID) error {
	_, err := db.ReadingStats().DeleteOne(ctx, bson.M{"user": userID})
	return err
}
