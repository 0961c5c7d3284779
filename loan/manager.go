// Package loan owns the loan state machine:
//
//	        requestLoan
//	(none) ─────────────► pending
//	pending ─ approve ──► approved
//	pending ─ reject  ──► rejected   (book becomes available again)
//	approved ─ return ──► returned   (book becomes available again)
//
// rejected and returned are terminal. Every transition runs as one atomic
// unit against the store, and repeating a transition on a terminal or wrong
// state fails loudly instead of silently no-op'ing, so double submissions
// surface to the caller.
package loan

import (
	"time"

	"go.uber.org/zap"

	"booklend/errs"
	"booklend/log"
	"booklend/model"
	"booklend/store"
)

type Manager struct {
	store *store.Store
}

func NewManager(s *store.Store) *Manager {
	return &Manager{store: s}
}

// RequestLoan creates a pending loan for the book and marks the book
// unavailable. The availability flip inside the same transaction is the
// serialization point: of two concurrent requests for one book, exactly one
// observes is_available and wins.
func (m *Manager) RequestLoan(bookID, userID int) (*model.Loan, error) {
	var loan *model.Loan
	err := m.store.RunAtomically(func(tx *store.Tx) error {
		book, err := tx.GetBook(bookID)
		if err != nil {
			return err
		}
		if book == nil {
			return errs.NotFound("book %d", bookID)
		}
		if !book.IsAvailable {
			return errs.InvalidState("book %d is not available for loan", bookID)
		}
		if book.OwnerID == userID {
			return errs.Authorization("you cannot borrow your own book")
		}

		loan, err = tx.CreateLoan(&model.Loan{
			BookID:      bookID,
			BorrowerID:  userID,
			Status:      model.LoanStatusPending,
			RequestedAt: time.Now().Unix(),
		})
		if err != nil {
			return err
		}
		return tx.SetBookAvailability(bookID, false)
	})
	if err != nil {
		return nil, err
	}

	log.Info("Loan requested",
		zap.Int("book_id", bookID),
		zap.Int("user_id", userID),
		zap.Int("loan_id", loan.ID))
	return loan, nil
}

// ApproveLoan moves a pending loan to approved. The book stays unavailable.
func (m *Manager) ApproveLoan(loanID, ownerID int) (*model.Loan, error) {
	var loan *model.Loan
	err := m.store.RunAtomically(func(tx *store.Tx) error {
		var err error
		loan, err = m.loadOwnedLoan(tx, loanID, ownerID)
		if err != nil {
			return err
		}
		if loan.Status != model.LoanStatusPending {
			return errs.InvalidState("only pending loans can be approved, loan %d is %s", loanID, loan.Status)
		}
		return tx.SetLoanStatus(loanID, model.LoanStatusApproved)
	})
	if err != nil {
		return nil, err
	}

	log.Info("Loan approved", zap.Int("loan_id", loanID), zap.Int("owner_id", ownerID))
	return m.store.GetLoan(&model.FindLoan{ID: &loanID})
}

// RejectLoan moves a pending loan to rejected and releases the book.
func (m *Manager) RejectLoan(loanID, ownerID int) (*model.Loan, error) {
	var loan *model.Loan
	err := m.store.RunAtomically(func(tx *store.Tx) error {
		var err error
		loan, err = m.loadOwnedLoan(tx, loanID, ownerID)
		if err != nil {
			return err
		}
		if loan.Status != model.LoanStatusPending {
			return errs.InvalidState("only pending loans can be rejected, loan %d is %s", loanID, loan.Status)
		}
		if err := tx.SetLoanStatus(loanID, model.LoanStatusRejected); err != nil {
			return err
		}
		return tx.SetBookAvailability(loan.BookID, true)
	})
	if err != nil {
		return nil, err
	}

	log.Info("Loan rejected", zap.Int("loan_id", loanID), zap.Int("owner_id", ownerID))
	return m.store.GetLoan(&model.FindLoan{ID: &loanID})
}

// ReturnBook moves an approved loan to returned and releases the book.
// Either the borrower or the book owner may mark the return.
func (m *Manager) ReturnBook(loanID, userID int) (*model.Loan, error) {
	err := m.store.RunAtomically(func(tx *store.Tx) error {
		loan, err := tx.GetLoan(loanID)
		if err != nil {
			return err
		}
		if loan == nil {
			return errs.NotFound("loan %d", loanID)
		}
		book, err := tx.GetBook(loan.BookID)
		if err != nil {
			return err
		}
		if book == nil {
			return errs.NotFound("book %d", loan.BookID)
		}
		if loan.BorrowerID != userID && book.OwnerID != userID {
			return errs.Authorization("you are not authorized to return loan %d", loanID)
		}
		if loan.Status != model.LoanStatusApproved {
			return errs.InvalidState("only approved loans can be returned, loan %d is %s", loanID, loan.Status)
		}
		if err := tx.SetLoanStatus(loanID, model.LoanStatusReturned); err != nil {
			return err
		}
		return tx.SetBookAvailability(loan.BookID, true)
	})
	if err != nil {
		return nil, err
	}

	log.Info("Loan returned", zap.Int("loan_id", loanID))
	return m.store.GetLoan(&model.FindLoan{ID: &loanID})
}

// loadOwnedLoan loads the loan and checks the actor owns the loaned book.
func (m *Manager) loadOwnedLoan(tx *store.Tx, loanID, ownerID int) (*model.Loan, error) {
	loan, err := tx.GetLoan(loanID)
	if err != nil {
		return nil, err
	}
	if loan == nil {
		return nil, errs.NotFound("loan %d", loanID)
	}
	book, err := tx.GetBook(loan.BookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, errs.NotFound("book %d", loan.BookID)
	}
	if book.OwnerID != ownerID {
		return nil, errs.Authorization("you are not the owner of book %d", book.ID)
	}
	return loan, nil
}

// UserLoans lists loans where the user is the borrower.
func (m *Manager) UserLoans(userID int) ([]*model.Loan, error) {
	return m.store.ListLoans(&model.FindLoan{BorrowerID: &userID})
}

// OwnerLoans lists loans on books the user owns.
func (m *Manager) OwnerLoans(ownerID int) ([]*model.Loan, error) {
	return m.store.ListLoans(&model.FindLoan{OwnerID: &ownerID})
}

// PendingLoans lists loans awaiting the owner's decision.
func (m *Manager) PendingLoans(ownerID int) ([]*model.Loan, error) {
	status := model.LoanStatusPending
	return m.store.ListLoans(&model.FindLoan{OwnerID: &ownerID, Status: &status})
}

// ReconcileAvailability recomputes the is_available projection from live
// loans and repairs any drift. The projection only desyncs if a write escapes
// the atomic boundary, so a clean report is the expected outcome.
func (m *Manager) ReconcileAvailability() ([]*store.AvailabilityDrift, error) {
	drift, err := m.store.ListAvailabilityDrift()
	if err != nil {
		return nil, err
	}
	if len(drift) == 0 {
		return drift, nil
	}

	err = m.store.RunAtomically(func(tx *store.Tx) error {
		for _, d := range drift {
			if err := tx.SetBookAvailability(d.BookID, d.ActiveLoans == 0); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, d := range drift {
		log.Warn("Repaired availability drift",
			zap.Int("book_id", d.BookID),
			zap.Bool("was_available", d.IsAvailable),
			zap.Int("active_loans", d.ActiveLoans))
	}
	return drift, nil
}
