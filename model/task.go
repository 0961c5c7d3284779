package model //import "booklend/model"

type TaskKind string

const (
	// TaskSummary generates an AI summary for a book.
	TaskSummary TaskKind = "summary"
	// TaskModeration checks a review comment for inappropriate content.
	TaskModeration TaskKind = "moderation"
	// TaskRecommendation computes book recommendations for a user.
	TaskRecommendation TaskKind = "recommendation"
)

// Task is one unit of asynchronous pipeline work. EntityID is the book id for
// summaries, the review id for moderation and the user id for recommendations.
type Task struct {
	ID       string   `json:"id"`
	Kind     TaskKind `json:"kind"`
	EntityID int      `json:"entity_id"`
	Attempt  int      `json:"attempt"`
}

// ModerationResult is the verdict of the moderation capability.
type ModerationResult struct {
	Appropriate bool   `json:"appropriate"`
	Reason      string `json:"reason,omitempty"`
}

// Recommendation is one suggested book for a user.
type Recommendation struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Reason string `json:"reason,omitempty"`
	// BookID is set when the recommendation points at a book in the catalog
	// (the popular-books fallback), zero for AI-suggested external titles.
	BookID int `json:"book_id,omitempty"`
}
