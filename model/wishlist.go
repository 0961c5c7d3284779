package model //import "booklend/model"

// WishlistEntry marks a book a user wants to borrow. (user, book) is unique.
type WishlistEntry struct {
	ID        int   `json:"id"`
	UserID    int   `json:"user_id"`
	BookID    int   `json:"book_id"`
	CreatedTs int64 `json:"created_ts"`
}
