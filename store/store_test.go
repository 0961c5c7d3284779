package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"booklend/config"
	"booklend/database"
	"booklend/errs"
	"booklend/log"
	"booklend/model"
)

// Initialize the logger and config
func init() {
	config.Opts = config.GetDefaultOptions()
	config.Opts.LogFile = filepath.Join(os.TempDir(), "booklend-test.log")
	log.Logger = log.NewLogger()
}

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "booklend.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(context.Background(), db))

	s := NewStore(db)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedBook(t *testing.T, s *Store, ownerID, genreID int, title string) *model.Book {
	t.Helper()
	book, err := s.CreateBook(&model.Book{
		OwnerID: ownerID,
		Title:   title,
		Author:  "Test Author",
		GenreID: genreID,
	})
	require.NoError(t, err)
	return book
}

func TestCreateUser(t *testing.T) {
	s := newTestStore(t)

	user, err := s.CreateUser(&model.User{Username: "alice", Email: "alice@example.com"}, "s3cret")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, model.RoleUser, user.Role)
	// the hash must verify against the plaintext
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret")))

	_, err = s.CreateUser(&model.User{Username: "alice"}, "other")
	assert.ErrorIs(t, err, errs.ErrDuplicate)

	got, err := s.GetUser(&model.FindUser{ID: &user.ID})
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
}

func TestBookISBNUnique(t *testing.T) {
	s := newTestStore(t)
	user, err := s.CreateUser(&model.User{Username: "alice"}, "secret")
	require.NoError(t, err)
	genre, err := s.CreateGenre(&model.Genre{Name: "Fiction", Slug: "fiction"})
	require.NoError(t, err)

	_, err = s.CreateBook(&model.Book{
		OwnerID: user.ID, Title: "First", Author: "A", GenreID: genre.ID, ISBN: "978-1",
	})
	require.NoError(t, err)

	_, err = s.CreateBook(&model.Book{
		OwnerID: user.ID, Title: "Second", Author: "B", GenreID: genre.ID, ISBN: "978-1",
	})
	assert.ErrorIs(t, err, errs.ErrDuplicate)

	// books without an ISBN do not collide with each other
	_, err = s.CreateBook(&model.Book{OwnerID: user.ID, Title: "Third", Author: "C", GenreID: genre.ID})
	require.NoError(t, err)
	_, err = s.CreateBook(&model.Book{OwnerID: user.ID, Title: "Fourth", Author: "D", GenreID: genre.ID})
	require.NoError(t, err)
}

func TestRemoveGenreInUse(t *testing.T) {
	s := newTestStore(t)
	user, err := s.CreateUser(&model.User{Username: "alice"}, "secret")
	require.NoError(t, err)
	genre, err := s.CreateGenre(&model.Genre{Name: "Fiction", Slug: "fiction"})
	require.NoError(t, err)

	_, err = s.CreateGenre(&model.Genre{Name: "Fiction", Slug: "fiction"})
	assert.ErrorIs(t, err, errs.ErrDuplicate)

	book := seedBook(t, s, user.ID, genre.ID, "Book X")

	err = s.RemoveGenre(genre.ID)
	assert.ErrorIs(t, err, errs.ErrInvalidState)

	require.NoError(t, s.RemoveBook(book.ID))
	require.NoError(t, s.RemoveGenre(genre.ID))
}

func TestWishlist(t *testing.T) {
	s := newTestStore(t)
	owner, err := s.CreateUser(&model.User{Username: "alice"}, "secret")
	require.NoError(t, err)
	user, err := s.CreateUser(&model.User{Username: "bob"}, "secret")
	require.NoError(t, err)
	genre, err := s.CreateGenre(&model.Genre{Name: "Fiction", Slug: "fiction"})
	require.NoError(t, err)
	book := seedBook(t, s, owner.ID, genre.ID, "Book X")

	entry, err := s.AddWishlistEntry(user.ID, book.ID)
	require.NoError(t, err)
	assert.NotZero(t, entry.ID)

	_, err = s.AddWishlistEntry(user.ID, book.ID)
	assert.ErrorIs(t, err, errs.ErrDuplicate)

	list, err := s.ListWishlist(user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, book.ID, list[0].BookID)

	// removal is scoped to the owning user
	err = s.RemoveWishlistEntry(owner.ID, book.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, s.RemoveWishlistEntry(user.ID, book.ID))
	list, err = s.ListWishlist(user.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestListBooksFilters(t *testing.T) {
	s := newTestStore(t)
	user, err := s.CreateUser(&model.User{Username: "alice"}, "secret")
	require.NoError(t, err)
	genre, err := s.CreateGenre(&model.Genre{Name: "Fiction", Slug: "fiction"})
	require.NoError(t, err)

	withSummary := seedBook(t, s, user.ID, genre.ID, "Summarized")
	_, err = s.UpdateBook(&model.UpdateBook{ID: withSummary.ID, AISummary: ptr("done")})
	require.NoError(t, err)
	bare := seedBook(t, s, user.ID, genre.ID, "Bare")

	missing, err := s.ListBooks(&model.FindBook{MissingSummary: true})
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, bare.ID, missing[0].ID)

	available := true
	books, err := s.ListBooks(&model.FindBook{Available: &available})
	require.NoError(t, err)
	assert.Len(t, books, 2)
}

func ptr[T any](v T) *T {
	return &v
}
