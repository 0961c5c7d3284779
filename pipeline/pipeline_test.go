package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booklend/cache"
	"booklend/config"
	"booklend/database"
	"booklend/log"
	"booklend/model"
	"booklend/store"
)

// Initialize the logger and config
func init() {
	config.Opts = config.GetDefaultOptions()
	config.Opts.LogFile = filepath.Join(os.TempDir(), "booklend-test.log")
	log.Logger = log.NewLogger()
}

// fakeCapability scripts the AI backend per test.
type fakeCapability struct {
	mu             sync.Mutex
	summarizeCalls int
	moderateCalls  int
	recommendCalls int

	summary      string
	summarizeErr error
	moderation   model.ModerationResult
	moderateErr  error
	recs         []model.Recommendation
	recommendErr error
}

func (f *fakeCapability) Summarize(_ context.Context, _, _, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summarizeCalls++
	return f.summary, f.summarizeErr
}

func (f *fakeCapability) Moderate(_ context.Context, _ string) (model.ModerationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moderateCalls++
	return f.moderation, f.moderateErr
}

func (f *fakeCapability) Recommend(_ context.Context, _ []string) ([]model.Recommendation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recommendCalls++
	return f.recs, f.recommendErr
}

func (f *fakeCapability) calls() (int, int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.summarizeCalls, f.moderateCalls, f.recommendCalls
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "booklend.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(context.Background(), db))

	s := store.NewStore(db)
	t.Cleanup(func() { s.Close() })
	return s
}

type fixture struct {
	store *store.Store
	owner *model.User
	user  *model.User
	book  *model.Book
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := newTestStore(t)

	owner, err := s.CreateUser(&model.User{Username: "alice"}, "secret")
	require.NoError(t, err)
	user, err := s.CreateUser(&model.User{Username: "bob"}, "secret")
	require.NoError(t, err)

	genre, err := s.CreateGenre(&model.Genre{Name: "Fiction", Slug: "fiction"})
	require.NoError(t, err)

	book, err := s.CreateBook(&model.Book{
		OwnerID:     owner.ID,
		Title:       "Book X",
		Author:      "Test Author",
		GenreID:     genre.ID,
		Description: "a test book",
	})
	require.NoError(t, err)

	return &fixture{store: s, owner: owner, user: user, book: book}
}

func newTestPipeline(f *fixture, capability *fakeCapability, opts ...Option) *Pipeline {
	return New(f.store, cache.NewMemory(0), capability, opts...)
}

func TestSummaryGeneration(t *testing.T) {
	f := newFixture(t)
	capability := &fakeCapability{summary: "A gripping test book."}
	p := newTestPipeline(f, capability)
	ctx := context.Background()

	require.NoError(t, p.GenerateSummary(ctx, f.book.ID))

	book, err := f.store.GetBook(&model.FindBook{ID: &f.book.ID})
	require.NoError(t, err)
	assert.Equal(t, "A gripping test book.", book.AISummary)

	// the second run is served by the cache, not the AI
	require.NoError(t, p.GenerateSummary(ctx, f.book.ID))
	calls, _, _ := capability.calls()
	assert.Equal(t, 1, calls)
}

func TestSummaryEmptyResponseNotCached(t *testing.T) {
	f := newFixture(t)
	capability := &fakeCapability{summary: ""}
	p := newTestPipeline(f, capability)
	ctx := context.Background()

	require.NoError(t, p.GenerateSummary(ctx, f.book.ID))

	book, err := f.store.GetBook(&model.FindBook{ID: &f.book.ID})
	require.NoError(t, err)
	assert.Empty(t, book.AISummary)

	// an empty verdict is not cached, the next trigger retries
	require.NoError(t, p.GenerateSummary(ctx, f.book.ID))
	calls, _, _ := capability.calls()
	assert.Equal(t, 2, calls)
}

func TestSummaryRetryExhaustion(t *testing.T) {
	f := newFixture(t)
	capability := &fakeCapability{summarizeErr: errors.New("backend down")}
	p := newTestPipeline(f, capability)
	p.policies[model.TaskSummary] = policy{attempts: 3, backoff: time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx, 1)
	defer p.Stop()

	require.True(t, p.Enqueue(model.TaskSummary, f.book.ID))

	assert.Eventually(t, func() bool {
		calls, _, _ := capability.calls()
		return calls == 3
	}, 5*time.Second, 10*time.Millisecond)

	// exhaustion clears the dedup guard, a later trigger may run again
	assert.Eventually(t, func() bool {
		return p.Enqueue(model.TaskSummary, f.book.ID)
	}, 5*time.Second, 10*time.Millisecond)

	book, err := f.store.GetBook(&model.FindBook{ID: &f.book.ID})
	require.NoError(t, err)
	assert.Empty(t, book.AISummary)
}

func TestEnqueueDedup(t *testing.T) {
	f := newFixture(t)
	p := newTestPipeline(f, &fakeCapability{})

	assert.True(t, p.Enqueue(model.TaskSummary, f.book.ID))
	assert.False(t, p.Enqueue(model.TaskSummary, f.book.ID))
	// a different entity is not deduped
	assert.True(t, p.Enqueue(model.TaskSummary, f.book.ID+1))
	// nor a different kind for the same entity
	assert.True(t, p.Enqueue(model.TaskModeration, f.book.ID))
}

func seedReview(t *testing.T, f *fixture, comment string) *model.Review {
	t.Helper()
	review, err := f.store.CreateReview(&model.Review{
		BookID:  f.book.ID,
		UserID:  f.user.ID,
		Rating:  3,
		Comment: comment,
	})
	require.NoError(t, err)
	return review
}

// A broken moderator must never flag a legitimate review.
func TestModerationFailOpen(t *testing.T) {
	f := newFixture(t)
	review := seedReview(t, f, "a perfectly nice comment")

	capability := &fakeCapability{moderateErr: errors.New("backend down")}
	p := newTestPipeline(f, capability)

	require.NoError(t, p.processModeration(context.Background(), review.ID))

	got, err := f.store.GetReview(&model.FindReview{ID: &review.ID})
	require.NoError(t, err)
	assert.False(t, got.IsFlagged)
}

// With the AI down, the keyword fallback still catches obvious cases.
func TestModerationKeywordFallback(t *testing.T) {
	f := newFixture(t)
	review := seedReview(t, f, "this is SPAM and a scam")

	capability := &fakeCapability{moderateErr: errors.New("backend down")}
	p := newTestPipeline(f, capability)

	require.NoError(t, p.processModeration(context.Background(), review.ID))

	got, err := f.store.GetReview(&model.FindReview{ID: &review.ID})
	require.NoError(t, err)
	assert.True(t, got.IsFlagged)
}

func TestModerationFlagsInappropriate(t *testing.T) {
	f := newFixture(t)
	review := seedReview(t, f, "looks fine to a keyword filter")

	capability := &fakeCapability{
		moderation: model.ModerationResult{Appropriate: false, Reason: "hostile tone"},
	}
	p := newTestPipeline(f, capability)

	require.NoError(t, p.processModeration(context.Background(), review.ID))

	got, err := f.store.GetReview(&model.FindReview{ID: &review.ID})
	require.NoError(t, err)
	assert.True(t, got.IsFlagged)
}

func TestKeywordModeration(t *testing.T) {
	testCases := []struct {
		name        string
		comment     string
		appropriate bool
	}{
		{name: "clean", comment: "loved every chapter", appropriate: true},
		{name: "banned word", comment: "total scam", appropriate: false},
		{name: "case insensitive", comment: "OFFENSIVE nonsense", appropriate: false},
		{name: "substring", comment: "unhateful", appropriate: false},
		{name: "empty", comment: "", appropriate: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := keywordModeration(tc.comment)
			assert.Equal(t, tc.appropriate, result.Appropriate)
		})
	}
}

// returnLoan walks a loan through request/approve/return at the store level
// so the recommendation history has something to read.
func returnLoan(t *testing.T, f *fixture) {
	t.Helper()
	err := f.store.RunAtomically(func(tx *store.Tx) error {
		loan, err := tx.CreateLoan(&model.Loan{
			BookID:      f.book.ID,
			BorrowerID:  f.user.ID,
			Status:      model.LoanStatusPending,
			RequestedAt: time.Now().Unix(),
		})
		if err != nil {
			return err
		}
		if err := tx.SetLoanStatus(loan.ID, model.LoanStatusApproved); err != nil {
			return err
		}
		return tx.SetLoanStatus(loan.ID, model.LoanStatusReturned)
	})
	require.NoError(t, err)
}

func TestRecommendationsPopularFallbackWithoutHistory(t *testing.T) {
	f := newFixture(t)
	capability := &fakeCapability{}
	p := newTestPipeline(f, capability)

	recs, err := p.Recommendations(context.Background(), f.user.ID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Book X", recs[0].Title)
	assert.Equal(t, f.book.ID, recs[0].BookID)

	// no reading history means the AI is never consulted
	_, _, calls := capability.calls()
	assert.Zero(t, calls)
}

func TestRecommendationsCached(t *testing.T) {
	f := newFixture(t)
	returnLoan(t, f)

	capability := &fakeCapability{
		recs: []model.Recommendation{{Title: "Dune", Author: "Frank Herbert"}},
	}
	p := newTestPipeline(f, capability)
	ctx := context.Background()

	recs, err := p.Recommendations(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Dune", recs[0].Title)

	_, err = p.Recommendations(ctx, f.user.ID)
	require.NoError(t, err)
	_, _, calls := capability.calls()
	assert.Equal(t, 1, calls)
}

func TestRecommendationsFailureFallsBackToPopular(t *testing.T) {
	f := newFixture(t)
	returnLoan(t, f)

	var monitored []model.TaskKind
	var mu sync.Mutex
	capability := &fakeCapability{recommendErr: errors.New("backend down")}
	p := newTestPipeline(f, capability, WithMonitor(func(kind model.TaskKind, entityID int, err error) {
		mu.Lock()
		defer mu.Unlock()
		monitored = append(monitored, kind)
	}))

	recs, err := p.Recommendations(context.Background(), f.user.ID)
	require.NoError(t, err)
	// the fallback is the popular-books list, never an empty answer
	require.Len(t, recs, 1)
	assert.Equal(t, "Book X", recs[0].Title)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, monitored, 1)
	assert.Equal(t, model.TaskRecommendation, monitored[0])
}
