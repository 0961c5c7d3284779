package store

import (
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"booklend/errs"
	"booklend/log"
	"booklend/model"
)

const loanFields = `
            l.id,
            l.book_id,
            l.borrower_id,
            l.status,
            l.requested_at,
            l.approved_at,
            l.returned_at`

func (s *Store) GetLoan(find *model.FindLoan) (*model.Loan, error) {
	list, err := s.ListLoans(find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) ListLoans(find *model.FindLoan) ([]*model.Loan, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "l.id = ?"), append(args, *v)
	}
	if v := find.BookID; v != nil {
		where, args = append(where, "l.book_id = ?"), append(args, *v)
	}
	if v := find.BorrowerID; v != nil {
		where, args = append(where, "l.borrower_id = ?"), append(args, *v)
	}
	if v := find.OwnerID; v != nil {
		where, args = append(where, "b.owner_id = ?"), append(args, *v)
	}
	if v := find.Status; v != nil {
		where, args = append(where, "l.status = ?"), append(args, *v)
	}

	query := `
        SELECT` + loanFields + `
        FROM loan l
        JOIN book b ON b.id = l.book_id
    WHERE ` + strings.Join(where, " AND ") + ` ORDER BY l.requested_at DESC`
	if v := find.Limit; v != nil {
		query += fmt.Sprintf(" LIMIT %d", *v)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		log.Error("Failed to query loans", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	return scanLoans(rows)
}

// RecentReturnedTitles returns the titles of the user's most recently
// returned loans, newest first, capped at limit. This is the reading history
// fed to the recommendation prompt.
func (s *Store) RecentReturnedTitles(userID, limit int) ([]string, error) {
	query := `
        SELECT b.title
        FROM loan l
        JOIN book b ON b.id = l.book_id
        WHERE l.borrower_id = ? AND l.status = ?
        ORDER BY l.returned_at DESC
        LIMIT ?
    `

	rows, err := s.db.Query(query, userID, model.LoanStatusReturned, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	titles := make([]string, 0)
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, err
		}
		titles = append(titles, title)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return titles, nil
}

// RemoveLoan hard-deletes a loan. Only administrative tooling calls this,
// loans are normally kept as the audit trail.
func (s *Store) RemoveLoan(loanID int) error {
	stmt := `DELETE FROM loan WHERE id = ?`

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return errs.Infrastructure(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	res, err := tx.Exec(stmt, loanID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.NotFound("loan %d", loanID)
	}
	if err := tx.Commit(); err != nil {
		return errs.Infrastructure(err, "failed to commit transaction")
	}
	return nil
}

func scanLoans(rows *sql.Rows) ([]*model.Loan, error) {
	list := make([]*model.Loan, 0)
	for rows.Next() {
		var loan model.Loan
		if err := rows.Scan(
			&loan.ID,
			&loan.BookID,
			&loan.BorrowerID,
			&loan.Status,
			&loan.RequestedAt,
			&loan.ApprovedAt,
			&loan.ReturnedAt,
		); err != nil {
			return nil, err
		}
		list = append(list, &loan)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}
