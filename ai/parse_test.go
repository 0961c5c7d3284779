package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecommendationsJSON(t *testing.T) {
	content := `[
		{"title": "Dune", "author": "Frank Herbert", "reason": "Classic sci-fi"},
		{"title": "Hyperion", "author": "Dan Simmons"}
	]`

	recs := ParseRecommendations(content)
	require.Len(t, recs, 2)
	assert.Equal(t, "Dune", recs[0].Title)
	assert.Equal(t, "Frank Herbert", recs[0].Author)
	assert.Equal(t, "Classic sci-fi", recs[0].Reason)
	assert.Equal(t, "Hyperion", recs[1].Title)
}

func TestParseRecommendationsFencedJSON(t *testing.T) {
	content := "```json\n[{\"title\": \"Dune\", \"author\": \"Frank Herbert\"}]\n```"

	recs := ParseRecommendations(content)
	require.Len(t, recs, 1)
	assert.Equal(t, "Dune", recs[0].Title)
}

func TestParseRecommendationsSkipsUntitled(t *testing.T) {
	content := `[{"title": "", "author": "Nobody"}, {"title": "Dune", "author": "Frank Herbert"}]`

	recs := ParseRecommendations(content)
	require.Len(t, recs, 1)
	assert.Equal(t, "Dune", recs[0].Title)
}

func TestParseRecommendationsText(t *testing.T) {
	content := "Here are some picks:\n1. Dune by Frank Herbert\nThe Hobbit by J.R.R. Tolkien\n\nEnjoy!"

	recs := ParseRecommendations(content)
	require.Len(t, recs, 2)
	assert.Equal(t, "1. Dune", recs[0].Title)
	assert.Equal(t, "Frank Herbert", recs[0].Author)
	assert.Equal(t, "The Hobbit", recs[1].Title)
	assert.Equal(t, "J.R.R. Tolkien", recs[1].Author)
	assert.Equal(t, "Based on your reading history", recs[1].Reason)
}

func TestParseRecommendationsGarbage(t *testing.T) {
	assert.Empty(t, ParseRecommendations("I cannot help with that."))
	assert.Empty(t, ParseRecommendations(""))
	assert.Empty(t, ParseRecommendations("{not json at all"))
}

func TestParseModerationVerdict(t *testing.T) {
	testCases := []struct {
		name        string
		response    string
		appropriate bool
		reason      string
	}{
		{name: "appropriate", response: "APPROPRIATE", appropriate: true},
		{name: "appropriate verbose", response: "The comment is APPROPRIATE.", appropriate: true},
		{name: "inappropriate with reason", response: "INAPPROPRIATE: contains personal attacks", appropriate: false, reason: "contains personal attacks"},
		{name: "inappropriate bare", response: "INAPPROPRIATE", appropriate: false},
		{name: "lowercase", response: "inappropriate: spam", appropriate: false, reason: "spam"},
		{name: "surrounding whitespace", response: "  INAPPROPRIATE: spam  ", appropriate: false, reason: "spam"},
		{name: "empty fails open", response: "", appropriate: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := ParseModerationVerdict(tc.response)
			assert.Equal(t, tc.appropriate, result.Appropriate)
			assert.Equal(t, tc.reason, result.Reason)
		})
	}
}
