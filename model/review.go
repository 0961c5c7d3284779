package model //import "booklend/model"

// MaxReviewCommentLen caps the review comment length.
const MaxReviewCommentLen = 1000

// Review of a book by a user. At most one review exists per (book, user).
type Review struct {
	ID        int    `json:"id"`
	BookID    int    `json:"book_id"`
	UserID    int    `json:"user_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
	IsFlagged bool   `json:"is_flagged"`
	CreatedTs int64  `json:"created_ts"`
}

type FindReview struct {
	ID      *int  `json:"id"`
	BookID  *int  `json:"book_id"`
	UserID  *int  `json:"user_id"`
	Flagged *bool `json:"flagged"`
	Limit   *int  `json:"limit"`
}
