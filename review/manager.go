// Package review owns review creation, author-only mutation and the
// moderation flag. Moderation itself runs asynchronously in the pipeline,
// creating a review never waits on it.
package review

import (
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

// CreateReview creates an unflagged review. The rating range and comment
// length are validated by the caller and re-checked here as invariant guards.
// At most one review exists per (book, user).
func (m *Manager) CreateReview(bookID, userID, rating int, comment string) (*model.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, errs.InvalidState("rating must be between 1 and 5, got %d", rating)
	}
	if len(comment) > model.MaxReviewCommentLen {
		return nil, errs.InvalidState("comment exceeds %d characters", model.MaxReviewCommentLen)
	}

	book, err := m.store.GetBook(&model.FindBook{ID: &bookID})
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, errs.NotFound("book %d", bookID)
	}

	existing, err := m.store.GetReview(&model.FindReview{BookID: &bookID, UserID: &userID})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errs.Duplicate("you have already reviewed book %d", bookID)
	}

	review, err := m.store.CreateReview(&model.Review{
		BookID:  bookID,
		UserID:  userID,
		Rating:  rating,
		Comment: comment,
	})
	if err != nil {
		return nil, err
	}

	log.Info("Review created",
		zap.Int("review_id", review.ID),
		zap.Int("book_id", bookID),
		zap.Int("user_id", userID))
	return review, nil
}

// UpdateReview changes rating and/or comment. Only the author may update.
func (m *Manager) UpdateReview(reviewID, userID int, rating *int, comment *string) (*model.Review, error) {
	if rating != nil && (*rating < 1 || *rating > 5) {
		return nil, errs.InvalidState("rating must be between 1 and 5, got %d", *rating)
	}
	if comment != nil && len(*comment) > model.MaxReviewCommentLen {
		return nil, errs.InvalidState("comment exceeds %d characters", model.MaxReviewCommentLen)
	}

	review, err := m.loadOwnReview(reviewID, userID)
	if err != nil {
		return nil, err
	}

	updated, err := m.store.UpdateReview(review.ID, rating, comment)
	if err != nil {
		return nil, err
	}

	log.Info("Review updated", zap.Int("review_id", reviewID))
	return updated, nil
}

// DeleteReview removes a review. Only the author may delete.
func (m *Manager) DeleteReview(reviewID, userID int) error {
	review, err := m.loadOwnReview(reviewID, userID)
	if err != nil {
		return err
	}

	if err := m.store.RemoveReview(review.ID); err != nil {
		return err
	}

	log.Info("Review deleted", zap.Int("review_id", reviewID))
	return nil
}

// FlagReview unconditionally flags a review. Administrative action, the
// moderation pipeline goes through the same store write.
func (m *Manager) FlagReview(reviewID int) (*model.Review, error) {
	if err := m.store.SetReviewFlagged(reviewID, true); err != nil {
		return nil, err
	}

	log.Info("Review flagged", zap.Int("review_id", reviewID))
	return m.store.GetReview(&model.FindReview{ID: &reviewID})
}

// GetAverageRating returns the mean rating of a book, 0.0 with no reviews.
func (m *Manager) GetAverageRating(bookID int) (float64, error) {
	return m.store.GetAverageRating(bookID)
}

func (m *Manager) BookReviews(bookID int) ([]*model.Review, error) {
	return m.store.ListReviews(&model.FindReview{BookID: &bookID})
}

func (m *Manager) UserReviews(userID int) ([]*model.Review, error) {
	return m.store.ListReviews(&model.FindReview{UserID: &userID})
}

func (m *Manager) FlaggedReviews() ([]*model.Review, error) {
	flagged := true
	return m.store.ListReviews(&model.FindReview{Flagged: &flagged})
}

func (m *Manager) loadOwnReview(reviewID, userID int) (*model.Review, error) {
	review, err := m.store.GetReview(&model.FindReview{ID: &reviewID})
	if err != nil {
		return nil, err
	}
	if review == nil {
		return nil, errs.NotFound("review %d", reviewID)
	}
	if review.UserID != userID {
		return nil, errs.Authorization("review %d does not belong to user %d", reviewID, userID)
	}
	return review, nil
}
