package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"booklend/errs"
	"booklend/log"
	"booklend/model"
)

// OpenAI talks to an OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

type OpenAIOptions struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

func NewOpenAI(opts OpenAIOptions) *OpenAI {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAI{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimSuffix(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		model:   opts.Model,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (o *OpenAI) chat(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", errs.Infrastructure(err, "chat completion request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", errs.Infrastructure(err, "failed to read chat completion response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", errs.Infrastructure(nil, "chat completion returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", errs.Infrastructure(err, "failed to decode chat completion response")
	}
	if parsed.Error != nil {
		return "", errs.Infrastructure(errors.New(parsed.Error.Message), "chat completion error")
	}
	if len(parsed.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

func (o *OpenAI) Summarize(ctx context.Context, title, author, description string) (string, error) {
	prompt := fmt.Sprintf("Generate a 3-sentence summary for the book '%s' by %s.", title, author)
	if description != "" {
		prompt += " Book description: " + description
	}

	summary, err := o.chat(ctx,
		"You are a book expert who creates concise, engaging summaries.",
		prompt, 150, 0.7)
	if err != nil {
		return "", err
	}
	return summary, nil
}

func (o *OpenAI) Moderate(ctx context.Context, text string) (model.ModerationResult, error) {
	response, err := o.chat(ctx,
		`You are a content moderator. Analyze if the following review contains inappropriate, hateful, or offensive content. Respond with "APPROPRIATE" or "INAPPROPRIATE: [reason]".`,
		text, 100, 0.3)
	if err != nil {
		return model.ModerationResult{}, err
	}

	return ParseModerationVerdict(response), nil
}

func (o *OpenAI) Recommend(ctx context.Context, history []string) ([]model.Recommendation, error) {
	prompt := fmt.Sprintf(
		`Based on these books the user has read: %s, recommend 5 similar books. Format: [{"title": "Book Title", "author": "Author Name", "reason": "Brief reason"}]`,
		strings.Join(history, ", "))

	content, err := o.chat(ctx,
		"You are a book recommendation expert. Provide recommendations in JSON format with title and author.",
		prompt, 500, 0.8)
	if err != nil {
		return nil, err
	}
	if content == "" {
		log.Warn("AI returned no recommendation content")
		return []model.Recommendation{}, nil
	}

	recs := ParseRecommendations(content)
	if len(recs) == 0 {
		log.Warn("Failed to parse any recommendations", zap.String("content", content))
	}
	return recs, nil
}
