package ai

import (
	"encoding/json"
	"regexp"
	"strings"

	"booklend/model"
)

var titleByAuthorRe = regexp.MustCompile(`(?i)^(.+?)\s+by\s+(.+)$`)

// ParseRecommendations interprets an AI response either as a JSON list of
// recommendations or, failing that, as lines in "<title> by <author>" form.
// Unparseable content yields an empty list, never an error: a bad response is
// the same as no response.
func ParseRecommendations(content string) []model.Recommendation {
	trimmed := strings.TrimSpace(content)

	// Models sometimes wrap JSON in a markdown fence.
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var recs []model.Recommendation
	if err := json.Unmarshal([]byte(trimmed), &recs); err == nil {
		out := make([]model.Recommendation, 0, len(recs))
		for _, r := range recs {
			if r.Title != "" {
				out = append(out, r)
			}
		}
		return out
	}

	return parseTextRecommendations(content)
}

func parseTextRecommendations(content string) []model.Recommendation {
	recs := make([]model.Recommendation, 0)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		m := titleByAuthorRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		recs = append(recs, model.Recommendation{
			Title:  strings.TrimSpace(m[1]),
			Author: strings.TrimSpace(m[2]),
			Reason: "Based on your reading history",
		})
	}
	return recs
}

// ParseModerationVerdict maps the moderator's "APPROPRIATE" /
// "INAPPROPRIATE: reason" reply onto a result. Anything that does not start
// with INAPPROPRIATE counts as appropriate: moderation fails open.
func ParseModerationVerdict(response string) model.ModerationResult {
	trimmed := strings.TrimSpace(response)
	if !strings.HasPrefix(strings.ToUpper(trimmed), "INAPPROPRIATE") {
		return model.ModerationResult{Appropriate: true}
	}

	reason := strings.TrimSpace(trimmed[len("INAPPROPRIATE"):])
	reason = strings.TrimSpace(strings.TrimPrefix(reason, ":"))
	return model.ModerationResult{
		Appropriate: false,
		Reason:      reason,
	}
}
