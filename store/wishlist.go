package store

import (
	"time"

	"booklend/errs"
	"booklend/model"
)

func (s *Store) AddWishlistEntry(userID, bookID int) (*model.WishlistEntry, error) {
	stmt := `
    INSERT INTO wishlist (user_id, book_id, created_ts)
    VALUES (?, ?, ?)
    RETURNING id
    `
	entry := &model.WishlistEntry{
		UserID:    userID,
		BookID:    bookID,
		CreatedTs: time.Now().Unix(),
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return nil, errs.Infrastructure(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if err := tx.QueryRow(stmt, entry.UserID, entry.BookID, entry.CreatedTs).Scan(&entry.ID); err != nil {
		if isUniqueViolation(err) {
			return nil, errs.Duplicate("book %d already on wishlist of user %d", bookID, userID)
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, errs.Infrastructure(err, "failed to commit transaction")
	}

	return entry, nil
}

// RemoveWishlistEntry deletes the (user, book) pair. Keying the delete on the
// user id doubles as the ownership check.
func (s *Store) RemoveWishlistEntry(userID, bookID int) error {
	stmt := `DELETE FROM wishlist WHERE user_id = ? AND book_id = ?`

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return errs.Infrastructure(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	res, err := tx.Exec(stmt, userID, bookID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.NotFound("wishlist entry for book %d", bookID)
	}
	if err := tx.Commit(); err != nil {
		return errs.Infrastructure(err, "failed to commit transaction")
	}
	return nil
}

func (s *Store) ListWishlist(userID int) ([]*model.WishlistEntry, error) {
	query := `
        SELECT id, user_id, book_id, created_ts
        FROM wishlist
        WHERE user_id = ?
        ORDER BY created_ts DESC
    `

	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]*model.WishlistEntry, 0)
	for rows.Next() {
		var entry model.WishlistEntry
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.BookID, &entry.CreatedTs); err != nil {
			return nil, err
		}
		list = append(list, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}
