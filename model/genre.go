package model //import "booklend/model"

// Genre is referenced by books and cannot be deleted while referenced.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type FindGenre struct {
	ID   *int    `json:"id"`
	Name *string `json:"name"`
	Slug *string `json:"slug"`
}
