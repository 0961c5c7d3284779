package model //import "booklend/model"

type Book struct {
	ID          int    `json:"id"`
	OwnerID     int    `json:"owner_id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	ISBN        string `json:"isbn,omitempty"`
	GenreID     int    `json:"genre_id"`
	Description string `json:"description,omitempty"`
	AISummary   string `json:"ai_summary,omitempty"`
	// IsAvailable is a cached projection of "no active claim": false while a
	// loan in {pending, approved} exists for the book.
	IsAvailable bool  `json:"is_available"`
	CreatedTs   int64 `json:"created_ts"`
	UpdatedTs   int64 `json:"updated_ts"`
}

type FindBook struct {
	ID      *int    `json:"id"`
	OwnerID *int    `json:"owner_id"`
	GenreID *int    `json:"genre_id"`
	ISBN    *string `json:"isbn"`
	// Available filters on the availability projection.
	Available *bool `json:"available"`
	// MissingSummary selects books without an AI summary.
	MissingSummary bool    `json:"missing_summary"`
	OrderBy        *string `json:"order_by"`

	// The maximum number of books to return.
	Limit *int `json:"limit"`
}

type UpdateBook struct {
	ID          int     `json:"id"`
	Title       *string `json:"title"`
	Author      *string `json:"author"`
	ISBN        *string `json:"isbn"`
	GenreID     *int    `json:"genre_id"`
	Description *string `json:"description"`
	AISummary   *string `json:"ai_summary"`
	IsAvailable *bool   `json:"is_available"`
}
