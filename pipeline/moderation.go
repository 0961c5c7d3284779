package pipeline

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"booklend/log"
	"booklend/model"
)

// bannedWords is the deterministic fallback filter used when the AI
// moderator is unreachable. Extend as needed.
var bannedWords = []string{
	"spam", "hate", "offensive", "scam", "stupid", "idiot",
}

// processModeration judges a review comment and flags the review when the
// verdict is inappropriate. An AI infrastructure error degrades to the
// keyword filter rather than no moderation at all; only the flag write itself
// can fail the task. Re-running is idempotent, the flag only moves
// false -> true.
func (p *Pipeline) processModeration(ctx context.Context, reviewID int) error {
	review, err := p.store.GetReview(&model.FindReview{ID: &reviewID})
	if err != nil {
		return err
	}
	if review == nil {
		log.Warn("Review vanished before moderation", zap.Int("review_id", reviewID))
		return nil
	}

	result, err := p.capability.Moderate(ctx, review.Comment)
	if err != nil {
		log.Error("AI moderation failed, falling back to keyword filter",
			zap.Int("review_id", reviewID),
			zap.Error(err))
		result = keywordModeration(review.Comment)
	}

	if result.Appropriate {
		log.Debug("Review passed moderation", zap.Int("review_id", reviewID))
		return nil
	}

	if err := p.store.SetReviewFlagged(reviewID, true); err != nil {
		return err
	}
	log.Warn("Review flagged",
		zap.Int("review_id", reviewID),
		zap.String("reason", result.Reason))
	return nil
}

// keywordModeration is a case-insensitive substring match over the banned
// word list.
func keywordModeration(comment string) model.ModerationResult {
	lowered := strings.ToLower(comment)
	for _, word := range bannedWords {
		if strings.Contains(lowered, word) {
			return model.ModerationResult{
				Appropriate: false,
				Reason:      "Contains potentially inappropriate content",
			}
		}
	}
	return model.ModerationResult{Appropriate: true}
}
