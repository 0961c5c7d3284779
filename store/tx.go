package store

import (
	"database/sql"
	"time"

	"booklend/model"
)

// The methods on Tx are the row operations the managers compose inside
// RunAtomically. They mirror the Store queries but run on the transaction.

func (t *Tx) GetBook(bookID int) (*model.Book, error) {
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
        WHERE id = ?
    `

	var book model.Book
	if err := t.tx.QueryRow(query, bookID).Scan(
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
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &book, nil
}

func (t *Tx) GetLoan(loanID int) (*model.Loan, error) {
	query := `
        SELECT` + loanFields + `
        FROM loan l
        WHERE l.id = ?
    `

	rows, err := t.tx.Query(query, loanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list, err := scanLoans(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (t *Tx) CreateLoan(create *model.Loan) (*model.Loan, error) {
	stmt := `
    INSERT INTO loan (book_id, borrower_id, status, requested_at)
    VALUES (?, ?, ?, ?)
    RETURNING id
    `

	if err := t.tx.QueryRow(stmt,
		create.BookID,
		create.BorrowerID,
		create.Status,
		create.RequestedAt,
	).Scan(&create.ID); err != nil {
		return nil, err
	}
	return create, nil
}

// SetLoanStatus moves a loan to status and stamps the matching timestamp
// column (approved_at for approved, returned_at for returned).
func (t *Tx) SetLoanStatus(loanID int, status string) error {
	now := time.Now().Unix()

	var stmt string
	switch status {
	case model.LoanStatusApproved:
		stmt = `UPDATE loan SET status = ?, approved_at = ? WHERE id = ?`
	case model.LoanStatusReturned:
		stmt = `UPDATE loan SET status = ?, returned_at = ? WHERE id = ?`
	default:
		_, err := t.tx.Exec(`UPDATE loan SET status = ? WHERE id = ?`, status, loanID)
		return err
	}

	_, err := t.tx.Exec(stmt, status, now, loanID)
	return err
}

func (t *Tx) SetBookAvailability(bookID int, available bool) error {
	stmt := `UPDATE book SET is_available = ?, updated_ts = ? WHERE id = ?`
	_, err := t.tx.Exec(stmt, available, time.Now().Unix(), bookID)
	return err
}
