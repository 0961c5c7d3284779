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

func (s *Store) CreateReview(create *model.Review) (*model.Review, error) {
	stmt := `
    INSERT INTO review (book_id, user_id, rating, comment, is_flagged, created_ts)
    VALUES (?, ?, ?, ?, ?, ?)
    RETURNING id
    `
	create.IsFlagged = false
	create.CreatedTs = time.Now().Unix()

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return nil, errs.Infrastructure(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if err := tx.QueryRow(stmt,
		create.BookID,
		create.UserID,
		create.Rating,
		create.Comment,
		create.IsFlagged,
		create.CreatedTs,
	).Scan(&create.ID); err != nil {
		if isUniqueViolation(err) {
			return nil, errs.Duplicate("review of book %d by user %d", create.BookID, create.UserID)
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, errs.Infrastructure(err, "failed to commit transaction")
	}

	return create, nil
}

func (s *Store) GetReview(find *model.FindReview) (*model.Review, error) {
	list, err := s.ListReviews(find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) ListReviews(find *model.FindReview) ([]*model.Review, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = ?"), append(args, *v)
	}
	if v := find.BookID; v != nil {
		where, args = append(where, "book_id = ?"), append(args, *v)
	}
	if v := find.UserID; v != nil {
		where, args = append(where, "user_id = ?"), append(args, *v)
	}
	if v := find.Flagged; v != nil {
		where, args = append(where, "is_flagged = ?"), append(args, *v)
	}

	query := `
        SELECT
            id,
            book_id,
            user_id,
            rating,
            comment,
            is_flagged,
            created_ts
        FROM review
    WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_ts DESC`
	if v := find.Limit; v != nil {
		query += fmt.Sprintf(" LIMIT %d", *v)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		log.Error("Failed to query reviews", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	list := make([]*model.Review, 0)
	for rows.Next() {
		var review model.Review
		if err := rows.Scan(
			&review.ID,
			&review.BookID,
			&review.UserID,
			&review.Rating,
			&review.Comment,
			&review.IsFlagged,
			&review.CreatedTs,
		); err != nil {
			return nil, err
		}
		list = append(list, &review)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

func (s *Store) UpdateReview(reviewID int, rating *int, comment *string) (*model.Review, error) {
	set, args := []string{}, []any{}

	if rating != nil {
		set, args = append(set, "rating = ?"), append(args, *rating)
	}
	if comment != nil {
		set, args = append(set, "comment = ?"), append(args, *comment)
	}
	if len(set) == 0 {
		return s.GetReview(&model.FindReview{ID: &reviewID})
	}
	args = append(args, reviewID)

	stmt := `UPDATE review SET ` + strings.Join(set, ", ") + ` WHERE id = ?`

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return nil, errs.Infrastructure(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	res, err := tx.Exec(stmt, args...)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, errs.NotFound("review %d", reviewID)
	}
	if err := tx.Commit(); err != nil {
		return nil, errs.Infrastructure(err, "failed to commit transaction")
	}

	return s.GetReview(&model.FindReview{ID: &reviewID})
}

// SetReviewFlagged flips the moderation flag. The moderation pipeline only
// ever moves it false -> true, administrators may clear it.
func (s *Store) SetReviewFlagged(reviewID int, flagged bool) error {
	stmt := `UPDATE review SET is_flagged = ? WHERE id = ?`

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return errs.Infrastructure(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	res, err := tx.Exec(stmt, flagged, reviewID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.NotFound("review %d", reviewID)
	}
	if err := tx.Commit(); err != nil {
		return errs.Infrastructure(err, "failed to commit transaction")
	}
	return nil
}

func (s *Store) RemoveReview(reviewID int) error {
	stmt := `DELETE FROM review WHERE id = ?`

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return errs.Infrastructure(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	res, err := tx.Exec(stmt, reviewID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.NotFound("review %d", reviewID)
	}
	if err := tx.Commit(); err != nil {
		return errs.Infrastructure(err, "failed to commit transaction")
	}
	return nil
}

// GetAverageRating returns the arithmetic mean of the book's ratings,
// 0.0 when no reviews exist.
func (s *Store) GetAverageRating(bookID int) (float64, error) {
	query := `SELECT IFNULL(AVG(rating), 0) FROM review WHERE book_id = ?`

	var avg float64
	if err := s.db.QueryRow(query, bookID).Scan(&avg); err != nil {
		return 0, err
	}
	return avg, nil
}
