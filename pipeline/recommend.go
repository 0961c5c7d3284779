package pipeline

import (
	"context"

	"go.uber.org/zap"

	"booklend/log"
	"booklend/model"
)

// processRecommendation computes and caches recommendations for a user.
func (p *Pipeline) processRecommendation(ctx context.Context, userID int) error {
	recs, err := p.computeRecommendations(ctx, userID)
	if err != nil {
		return err
	}

	p.cache.Put(recommendationKey(userID), recs, recommendationTTL)
	log.Info("Recommendations computed",
		zap.Int("user_id", userID),
		zap.Int("count", len(recs)))
	return nil
}

// Recommendations is the read path: cache hit, or compute now. When the
// computation fails it reports to the monitoring sink and falls back to the
// popular-books list, so the caller never renders an empty recommendation
// set because the AI is down.
func (p *Pipeline) Recommendations(ctx context.Context, userID int) ([]model.Recommendation, error) {
	if v, ok := p.cache.Get(recommendationKey(userID)); ok {
		return v.([]model.Recommendation), nil
	}

	recs, err := p.computeRecommendations(ctx, userID)
	if err != nil {
		p.monitor(model.TaskRecommendation, userID, err)
		log.Error("Recommendation computation failed, serving popular books",
			zap.Int("user_id", userID),
			zap.Error(err))
		return p.popularBooks()
	}

	p.cache.Put(recommendationKey(userID), recs, recommendationTTL)
	return recs, nil
}

func (p *Pipeline) computeRecommendations(ctx context.Context, userID int) ([]model.Recommendation, error) {
	history, err := p.store.RecentReturnedTitles(userID, historyLimit)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return p.popularBooks()
	}
	return p.capability.Recommend(ctx, history)
}

// popularBooks is the degraded-but-useful fallback: the most recently listed
// available books, capped.
func (p *Pipeline) popularBooks() ([]model.Recommendation, error) {
	available := true
	limit := popularLimit
	books, err := p.store.ListBooks(&model.FindBook{Available: &available, Limit: &limit})
	if err != nil {
		return nil, err
	}

	recs := make([]model.Recommendation, 0, len(books))
	for _, book := range books {
		recs = append(recs, model.Recommendation{
			Title:  book.Title,
			Author: book.Author,
			Reason: "Popular book in our library",
			BookID: book.ID,
		})
	}
	return recs, nil
}
