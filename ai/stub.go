package ai

import (
	"context"
	"fmt"
	"sync"

	"booklend/model"
)

// Stub is the deterministic Capability used when no AI backend is configured
// and by tests. It never fails and counts its invocations.
type Stub struct {
	mu             sync.Mutex
	summarizeCalls int
	moderateCalls  int
	recommendCalls int
}

func NewStub() *Stub {
	return &Stub{}
}

func (s *Stub) Summarize(_ context.Context, title, author, _ string) (string, error) {
	s.mu.Lock()
	s.summarizeCalls++
	s.mu.Unlock()
	return fmt.Sprintf("%s by %s is a book worth reading.", title, author), nil
}

func (s *Stub) Moderate(_ context.Context, _ string) (model.ModerationResult, error) {
	s.mu.Lock()
	s.moderateCalls++
	s.mu.Unlock()
	return model.ModerationResult{Appropriate: true}, nil
}

func (s *Stub) Recommend(_ context.Context, _ []string) ([]model.Recommendation, error) {
	s.mu.Lock()
	s.recommendCalls++
	s.mu.Unlock()
	return []model.Recommendation{
		{Title: "The Midnight Library", Author: "Matt Haig", Reason: "Based on your interest in thought-provoking fiction"},
		{Title: "Atomic Habits", Author: "James Clear", Reason: "Popular self-improvement book"},
		{Title: "Project Hail Mary", Author: "Andy Weir", Reason: "Science fiction recommendation"},
	}, nil
}

// Calls reports the number of invocations per method.
func (s *Stub) Calls() (summarize, moderate, recommend int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summarizeCalls, s.moderateCalls, s.recommendCalls
}
