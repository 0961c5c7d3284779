package pipeline

import (
	"context"

	"go.uber.org/zap"

	"booklend/log"
	"booklend/model"
)

// GenerateSummary computes the summary for one book synchronously. The
// backfill command uses it to run outside the queue.
func (p *Pipeline) GenerateSummary(ctx context.Context, bookID int) error {
	return p.processSummary(ctx, bookID)
}

// InvalidateSummary drops the cached summary so the next trigger recomputes.
func (p *Pipeline) InvalidateSummary(bookID int) {
	p.cache.Forget(summaryKey(bookID))
}

// processSummary generates the AI summary for a book. The cache is consulted
// first so rapid duplicate triggers cost one AI call, and an empty AI answer
// is never cached, the next trigger retries cleanly.
func (p *Pipeline) processSummary(ctx context.Context, bookID int) error {
	book, err := p.store.GetBook(&model.FindBook{ID: &bookID})
	if err != nil {
		return err
	}
	if book == nil {
		// Deleted between trigger and execution, nothing to do.
		log.Warn("Book vanished before summary generation", zap.Int("book_id", bookID))
		return nil
	}

	if v, ok := p.cache.Get(summaryKey(bookID)); ok {
		summary := v.(string)
		if book.AISummary != summary {
			if _, err := p.store.UpdateBook(&model.UpdateBook{ID: bookID, AISummary: &summary}); err != nil {
				return err
			}
		}
		log.Debug("Summary served from cache", zap.Int("book_id", bookID))
		return nil
	}

	summary, err := p.capability.Summarize(ctx, book.Title, book.Author, book.Description)
	if err != nil {
		return err
	}
	if summary == "" {
		log.Warn("AI returned no summary", zap.Int("book_id", bookID))
		return nil
	}

	if _, err := p.store.UpdateBook(&model.UpdateBook{ID: bookID, AISummary: &summary}); err != nil {
		return err
	}
	p.cache.Put(summaryKey(bookID), summary, summaryTTL)

	log.Info("AI summary generated", zap.Int("book_id", bookID))
	return nil
}
