package model //import "booklend/model"

const (
	LoanStatusPending  = "pending"
	LoanStatusApproved = "approved"
	LoanStatusRejected = "rejected"
	LoanStatusReturned = "returned"
)

// Loan records one user borrowing one book. Loans are never deleted by the
// normal flow, they are the audit trail of the lending history.
type Loan struct {
	ID          int    `json:"id"`
	BookID      int    `json:"book_id"`
	BorrowerID  int    `json:"borrower_id"`
	Status      string `json:"status"`
	RequestedAt int64  `json:"requested_at"`
	ApprovedAt  *int64 `json:"approved_at,omitempty"`
	ReturnedAt  *int64 `json:"returned_at,omitempty"`
}

type FindLoan struct {
	ID         *int    `json:"id"`
	BookID     *int    `json:"book_id"`
	BorrowerID *int    `json:"borrower_id"`
	// OwnerID selects loans on books owned by the given user.
	OwnerID *int    `json:"owner_id"`
	Status  *string `json:"status"`
	Limit   *int    `json:"limit"`
}
