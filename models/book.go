package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Progress status values.
const (
	StatusNotStarted = "not-started"
	StatusReading    = "reading"
	StatusFinished   = "finished"
)

var (
	// ErrPageOutOfRange is returned when a progress update places the
	// current page past the end of the book.
	ErrPageOutOfRange = errors.New("current page cannot be greater than total pages")
	// ErrNotFinished is returned when resetting a book that was never finished.
	ErrNotFinished = errors.New("can't re-read an unfinished book")
)

// Progress is the per-book reading state embedded in a Book document.
type Progress struct {
	CurrentPage    int        `bson:"currentPage" json:"currentPage"`
	PagesRead      int        `bson:"pagesRead" json:"pagesRead"` // cumulative across sessions
	PagesReadToday int        `bson:"pagesReadToday" json:"pagesReadToday"`
	LastReadAt     *time.Time `bson:"lastReadAt,omitempty" json:"lastReadAt,omitempty"`
	Finished       bool       `bson:"finished" json:"finished"`
	TimesRead      int        `bson:"timesRead" json:"timesRead"`
	Status         string     `bson:"status" json:"status"`
}

type Book struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID `bson:"user" json:"userId"`
	Title         string             `bson:"title" json:"title"`
	Author        string             `bson:"author" json:"author"`
	Description   string             `bson:"description" json:"description"`
	NumberOfPages int                `bson:"numberOfPages" json:"numberOfPages"`
	ImageURL      string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	ImageKey      string             `bson:"imageKey,omitempty" json:"-"` // object key in S3
	Rating        float64            `bson:"rating" json:"rating"`
	Progress      Progress           `bson:"progress" json:"progress"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// NewProgress returns the initial progress state for a newly added book.
func NewProgress() Progress {
	return Progress{Status: StatusNotStarted}
}

// ApplyReading records one reading session on the book and folds it into the
// user's aggregate stats. currentPage is the new position; pagesReadToday is
// added to the cumulative pagesRead counter without reconciling against the
// position, and to stats.TotalPagesRead unconditionally. Finishing the book
// for the first time bumps stats.BooksRead. Returns ErrPageOutOfRange (and
// mutates nothing) when currentPage exceeds the page count.
func (b *Book) ApplyReading(stats *ReadingStats, pagesReadToday, currentPage int, rating *float64, now time.Time) error {
	if currentPage > b.NumberOfPages {
		return ErrPageOutOfRange
	}

	p := &b.Progress
	p.CurrentPage = currentPage
	p.PagesRead += pagesReadToday
	p.PagesReadToday = pagesReadToday
	p.LastReadAt = &now

	if currentPage == b.NumberOfPages && !p.Finished {
		p.Finished = true
		p.Status = StatusFinished
		p.TimesRead++
		if p.TimesRead == 1 {
			stats.BooksRead++
		}
	} else if !p.Finished {
		p.Status = StatusReading
	}

	stats.TotalPagesRead += pagesReadToday

	if rating != nil {
		b.Rating = *rating
	}
	b.UpdatedAt = now
	return nil
}

// ResetForRereading clears the reading position of a finished book so it can
// be read again. TimesRead is kept so completed reads stay counted; aggregate
// stats are untouched. Returns ErrNotFinished for a book still in progress.
func (b *Book) ResetForRereading() error {
	if !b.Progress.Finished {
		return ErrNotFinished
	}
	b.Progress.CurrentPage = 0
	b.Progress.PagesRead = 0
	b.Progress.PagesReadToday = 0
	b.Progress.LastReadAt = nil
	b.Progress.Finished = false
	b.Progress.Status = StatusNotStarted
	return nil
}
