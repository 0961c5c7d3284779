package store

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"booklend/errs"
	"booklend/log"
	"booklend/model"
)

func (s *Store) CreateBook(create *model.Book) (*model.Book, error) {
	stmt := `
    INSERT INTO book (owner_id, title, author, isbn, genre_id, description, is_available, created_ts, updated_ts)
    VALUES (?, ?, ?, NULLIF(?, ''), ?, ?, ?, ?, ?)
    RETURNING id
    `
	now := time.Now().Unix()
	create.IsAvailable = true
	create.CreatedTs = now
	create.UpdatedTs = now

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return nil, errs.Infrastructure(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if err := tx.QueryRow(stmt,
		create.OwnerID,
		create.Title,
		create.Author,
		create.ISBN,
		create.GenreID,
		create.Description,
		create.IsAvailable,
		create.CreatedTs,
		create.UpdatedTs,
	).Scan(&create.ID); err != nil {
		if isUniqueViolation(err) {
			return nil, errs.Duplicate("book with ISBN %s", create.ISBN)
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, errs.Infrastructure(err, "failed to commit transaction")
	}

	return create, nil
}

func (s *Store) GetBook(find *model.FindBook) (*model.Book, error) {
	list, err := s.ListBooks(find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) ListBooks(find *model.FindBook) ([]*model.Book, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = ?"), append(args, *v)
	}
	if v := find.OwnerID; v != nil {
		where, args = append(where, "owner_id = ?"), append(args, *v)
	}
	if v := find.GenreID; v != nil {
		where, args = append(where, "genre_id = ?"), append(args, *v)
	}
	if v := find.ISBN; v != nil {
		where, args = append(where, "isbn = ?"), append(args, *v)
	}
	if v := find.Available; v != nil {
		where, args = append(where, "is_available = ?"), append(args, *v)
	}
	if find.MissingSummary {
		where = append(where, "ai_summary = ''")
	}

	orderBy := []string{"created_ts DESC"}
	if find.OrderBy != nil {
		orderBy = []string{*find.OrderBy}
	}

	query := `
        SELECT
            id,
            owner_id,
            title,
            author,
            IFNULL(isbn, ''),
            genre_id,
            description,
            ai_summary,
            is_available,
            created_ts,
            updated_ts
        FROM book
    WHERE ` + strings.Join(where, " AND ") + ` ORDER BY ` + strings.Join(orderBy, ", ")
	if v := find.Limit; v != nil {
		query += fmt.Sprintf(" LIMIT %d", *v)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		log.Error("Failed to query books", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	list := make([]*model.Book, 0)
	for rows.Next() {
		var book model.Book
		if err := rows.Scan(
			&book.ID,
			&book.OwnerID,
			&book.Title,
			&book.Author,
			&book.ISBN,
			&book.GenreID,
			&book.Description,
			&book.AISummary,
			&book.IsAvailable,
			&book.CreatedTs,
			&book.UpdatedTs,
		); err != nil {
			return nil, err
		}
		list = append(list, &book)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

func (s *Store) UpdateBook(update *model.UpdateBook) (*model.Book, error) {
	set, args := []string{}, []any{}

	if v := update.Title; v != nil {
		set, args = append(set, "title = ?"), append(args, *v)
	}
	if v := update.Author; v != nil {
		set, args = append(set, "author = ?"), append(args, *v)
	}
	if v := update.ISBN; v != nil {
		set, args = append(set, "isbn = NULLIF(?, '')"), append(args, *v)
	}
	if v := update.GenreID; v != nil {
		set, args = append(set, "genre_id = ?"), append(args, *v)
	}
	if v := update.Description; v != nil {
		set, args = append(set, "description = ?"), append(args, *v)
	}
	if v := update.AISummary; v != nil {
		set, args = append(set, "ai_summary = ?"), append(args, *v)
	}
	if v := update.IsAvailable; v != nil {
		set, args = append(set, "is_available = ?"), append(args, *v)
	}
	if len(set) == 0 {
		return s.GetBook(&model.FindBook{ID: &update.ID})
	}
	set, args = append(set, "updated_ts = ?"), append(args, time.Now().Unix())
	args = append(args, update.ID)

	stmt := `UPDATE book SET ` + strings.Join(set, ", ") + ` WHERE id = ?`

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return nil, errs.Infrastructure(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	res, err := tx.Exec(stmt, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errs.Duplicate("book ISBN")
		}
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, errs.NotFound("book %d", update.ID)
	}
	if err := tx.Commit(); err != nil {
		return nil, errs.Infrastructure(err, "failed to commit transaction")
	}

	return s.GetBook(&model.FindBook{ID: &update.ID})
}

// RemoveBook deletes a book, loans and reviews cascade at the schema level.
func (s *Store) RemoveBook(bookID int) error {
	stmt := `DELETE FROM book WHERE id = ?`

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return errs.Infrastructure(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	res, err := tx.Exec(stmt, bookID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.NotFound("book %d", bookID)
	}
	if err := tx.Commit(); err != nil {
		return errs.Infrastructure(err, "failed to commit transaction")
	}
	return nil
}

// AvailabilityDrift is one book whose is_available projection disagrees with
// its live loans.
type AvailabilityDrift struct {
	BookID      int
	IsAvailable bool
	ActiveLoans int
}

// ListAvailabilityDrift reports books where the cached availability
// projection has desynced from the loan table.
func (s *Store) ListAvailabilityDrift() ([]*AvailabilityDrift, error) {
	query := `
        SELECT
            b.id,
            b.is_available,
            (SELECT COUNT(*) FROM loan l WHERE l.book_id = b.id AND l.status IN ('pending', 'approved')) AS active_loans
        FROM book b
        WHERE b.is_available = ((SELECT COUNT(*) FROM loan l WHERE l.book_id = b.id AND l.status IN ('pending', 'approved')) > 0)
    `

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]*AvailabilityDrift, 0)
	for rows.Next() {
		var d AvailabilityDrift
		if err := rows.Scan(&d.BookID, &d.IsAvailable, &d.ActiveLoans); err != nil {
			return nil, err
		}
		list = append(list, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}
