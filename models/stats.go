package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReadingStats is the per-user aggregate counter document. It is created
// lazily on the first book add and mutated alongside book writes with no
// transactional tie between the two.
type ReadingStats struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID `bson:"user" json:"userId"`
	BooksRead      int                `bson:"booksRead" json:"booksRead"`
	TotalPagesRead int                `bson:"totalPagesRead" json:"totalPagesRead"`
	TotalBooks     int                `bson:"totalBooks" json:"totalBooks"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// AddBook counts a newly added book.
func (s *ReadingStats) AddBook() {
	s.TotalBooks++
}

// RemoveBook reverses a deleted book's contribution to the aggregates using
// its last progress snapshot. The reversal approximates the forward
// accounting in ApplyReading: completed reads are charged at full page count
// per read, and an in-flight re-read additionally subtracts the partial
// pagesRead.
func (s *ReadingStats) RemoveBook(b *Book) {
	p := b.Progress
	switch {
	case p.Finished && p.TimesRead > 0:
		s.TotalPagesRead -= b.NumberOfPages * p.TimesRead
		s.BooksRead--
	case p.TimesRead > 0 && !p.Finished:
		s.TotalPagesRead -= b.NumberOfPages * p.TimesRead
		s.TotalPagesRead -= p.PagesRead
		s.BooksRead--
	default:
		s.TotalPagesRead -= p.PagesRead
	}
	s.TotalBooks--
}
