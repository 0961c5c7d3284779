// Package ai defines the narrow contract with the AI backend: given text,
// return text or a structured verdict, fallibly. The backend is remote and
// latency-bearing, callers pick the implementation at construction time.
package ai

import (
	"context"

	"booklend/model"
)

type Capability interface {
	// Summarize produces a short summary for a book. An empty summary with a
	// nil error means the backend had nothing to say, callers must not cache
	// that as a result.
	Summarize(ctx context.Context, title, author, description string) (string, error)
	// Moderate judges a review comment.
	Moderate(ctx context.Context, text string) (model.ModerationResult, error)
	// Recommend suggests books based on a reading history of titles.
	Recommend(ctx context.Context, history []string) ([]model.Recommendation, error)
}
