package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestBook(pages int) *Book {
	return &Book{
		ID:            primitive.NewObjectID(),
		UserID:        primitive.NewObjectID(),
		Title:         "The Test Novel",
		Author:        "A. Writer",
		NumberOfPages: pages,
		Progress:      NewProgress(),
	}
}

func TestApplyReading_PageOutOfRange(t *testing.T) {
	t.Parallel()

	book := newTestBook(100)
	stats := &ReadingStats{}
	before := *book
	statsBefore := *stats

	err := book.ApplyReading(stats, 10, 101, nil, time.Now())
	require.ErrorIs(t, err, ErrPageOutOfRange)
	assert.Equal(t, before, *book, "book must be unmodified on rejection")
	assert.Equal(t, statsBefore, *stats, "stats must be unmodified on rejection")
}

func TestApplyReading_InProgress(t *testing.T) {
	t.Parallel()

	book := newTestBook(100)
	stats := &ReadingStats{}
	now := time.Now()

	require.NoError(t, book.ApplyReading(stats, 30, 30, nil, now))

	assert.Equal(t, 30, book.Progress.CurrentPage)
	assert.Equal(t, 30, book.Progress.PagesRead)
	assert.Equal(t, 30, book.Progress.PagesReadToday)
	assert.Equal(t, StatusReading, book.Progress.Status)
	assert.False(t, book.Progress.Finished)
	assert.Equal(t, 0, book.Progress.TimesRead)
	require.NotNil(t, book.Progress.LastReadAt)
	assert.Equal(t, now, *book.Progress.LastReadAt)
	assert.Equal(t, 30, stats.TotalPagesRead)
	assert.Equal(t, 0, stats.BooksRead)
}

func TestApplyReading_PagesReadAccumulates(t *testing.T) {
	t.Parallel()

	book := newTestBook(200)
	stats := &ReadingStats{}

	require.NoError(t, book.ApplyReading(stats, 40, 40, nil, time.Now()))
	require.NoError(t, book.ApplyReading(stats, 25, 65, nil, time.Now()))

	// pagesRead accumulates session deltas; pagesReadToday is overwritten.
	assert.Equal(t, 65, book.Progress.PagesRead)
	assert.Equal(t, 25, book.Progress.PagesReadToday)
	assert.Equal(t, 65, book.Progress.CurrentPage)
	assert.Equal(t, 65, stats.TotalPagesRead)
}

func TestApplyReading_FirstCompletion(t *testing.T) {
	t.Parallel()

	book := newTestBook(100)
	stats := &ReadingStats{}

	require.NoError(t, book.ApplyReading(stats, 100, 100, nil, time.Now()))

	assert.True(t, book.Progress.Finished)
	assert.Equal(t, StatusFinished, book.Progress.Status)
	assert.Equal(t, 1, book.Progress.TimesRead)
	assert.Equal(t, 1, stats.BooksRead, "first completion increments booksRead exactly once")
	assert.Equal(t, 100, stats.TotalPagesRead)
}

func TestApplyReading_SecondCompletionDoesNotRecountBooksRead(t *testing.T) {
	t.Parallel()

	book := newTestBook(100)
	stats := &ReadingStats{}

	require.NoError(t, book.ApplyReading(stats, 100, 100, nil, time.Now()))
	require.NoError(t, book.ResetForRereading())
	require.NoError(t, book.ApplyReading(stats, 100, 100, nil, time.Now()))

	assert.Equal(t, 2, book.Progress.TimesRead)
	assert.Equal(t, 1, stats.BooksRead, "only the first completion counts")
}

func TestApplyReading_Rating(t *testing.T) {
	t.Parallel()

	book := newTestBook(100)
	stats := &ReadingStats{}
	rating := 4.5

	require.NoError(t, book.ApplyReading(stats, 10, 10, &rating, time.Now()))
	assert.Equal(t, 4.5, book.Rating)

	require.NoError(t, book.ApplyReading(stats, 10, 20, nil, time.Now()))
	assert.Equal(t, 4.5, book.Rating, "rating kept when not provided")
}

func TestResetForRereading_Unfinished(t *testing.T) {
	t.Parallel()

	book := newTestBook(100)
	stats := &ReadingStats{}
	require.NoError(t, book.ApplyReading(stats, 50, 50, nil, time.Now()))

	require.ErrorIs(t, book.ResetForRereading(), ErrNotFinished)
}

func TestResetForRereading_Finished(t *testing.T) {
	t.Parallel()

	book := newTestBook(100)
	stats := &ReadingStats{}
	require.NoError(t, book.ApplyReading(stats, 100, 100, nil, time.Now()))

	require.NoError(t, book.ResetForRereading())

	assert.Equal(t, 0, book.Progress.CurrentPage)
	assert.Equal(t, 0, book.Progress.PagesRead)
	assert.Equal(t, 0, book.Progress.PagesReadToday)
	assert.Nil(t, book.Progress.LastReadAt)
	assert.False(t, book.Progress.Finished)
	assert.Equal(t, StatusNotStarted, book.Progress.Status)
	assert.Equal(t, 1, book.Progress.TimesRead, "timesRead preserves read history")
}

// Mirrors a full user story: finish a 100-page book, reset it, and read the
// first 50 pages again.
func TestReadFinishResetReread(t *testing.T) {
	t.Parallel()

	book := newTestBook(100)
	stats := &ReadingStats{TotalBooks: 1}

	require.NoError(t, book.ApplyReading(stats, 100, 100, nil, time.Now()))
	assert.True(t, book.Progress.Finished)
	assert.Equal(t, 1, book.Progress.TimesRead)
	assert.Equal(t, 1, stats.BooksRead)
	assert.Equal(t, 100, stats.TotalPagesRead)

	require.NoError(t, book.ResetForRereading())
	assert.Equal(t, StatusNotStarted, book.Progress.Status)
	assert.Equal(t, 1, book.Progress.TimesRead)

	require.NoError(t, book.ApplyReading(stats, 50, 50, nil, time.Now()))
	assert.Equal(t, StatusReading, book.Progress.Status)
	assert.Equal(t, 1, book.Progress.TimesRead)
	assert.Equal(t, 150, stats.TotalPagesRead, "running total, no reconciliation")
	assert.Equal(t, 1, stats.BooksRead)
}

func TestStatsAddBook(t *testing.T) {
	t.Parallel()

	stats := &ReadingStats{}
	stats.AddBook()
	stats.AddBook()
	assert.Equal(t, 2, stats.TotalBooks)
}

func TestStatsRemoveBook_NeverFinished(t *testing.T) {
	t.Parallel()

	book := newTestBook(100)
	stats := &ReadingStats{TotalBooks: 1}
	require.NoError(t, book.ApplyReading(stats, 40, 40, nil, time.Now()))

	stats.RemoveBook(book)

	assert.Equal(t, 0, stats.TotalBooks)
	assert.Equal(t, 0, stats.BooksRead)
	assert.Equal(t, 0, stats.TotalPagesRead)
}

func TestStatsRemoveBook_Finished(t *testing.T) {
	t.Parallel()

	book := newTestBook(100)
	stats := &ReadingStats{TotalBooks: 1}
	require.NoError(t, book.ApplyReading(stats, 100, 100, nil, time.Now()))

	stats.RemoveBook(book)

	assert.Equal(t, 0, stats.TotalBooks)
	assert.Equal(t, 0, stats.BooksRead)
	// Finished books are charged back at full page count per completed read.
	assert.Equal(t, 0, stats.TotalPagesRead)
}

func TestStatsRemoveBook_RereadInProgress(t *testing.T) {
	t.Parallel()

	book := newTestBook(100)
	stats := &ReadingStats{TotalBooks: 1}
	require.NoError(t, book.ApplyReading(stats, 100, 100, nil, time.Now()))
	require.NoError(t, book.ResetForRereading())
	require.NoError(t, book.ApplyReading(stats, 30, 30, nil, time.Now()))

	// Snapshot before deletion: timesRead=1, not finished, pagesRead=30,
	// totalPagesRead=130.
	stats.RemoveBook(book)

	assert.Equal(t, 0, stats.TotalBooks)
	assert.Equal(t, 0, stats.BooksRead)
	// Reversal subtracts 100*1 and the partial 30.
	assert.Equal(t, 0, stats.TotalPagesRead)
}
