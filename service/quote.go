package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const quotePrompt = "Give me a warm, complimentary welcome quote for a user. " +
	"Prepare them to enjoy their novels and reading experience."

// QuoteService fetches a short welcome quote from an OpenAI-compatible chat
// completions endpoint.
type QuoteService struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewQuoteService(baseURL, apiKey, model string) *QuoteService {
	return &QuoteService{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// WelcomeQuote requests a welcome quote and returns its text.
func (q *QuoteService) WelcomeQuote(ctx context.Context) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: q.model,
		Messages: []chatMessage{
			{Role: "system", Content: quotePrompt},
		},
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, q.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+q.apiKey)

	resp, err := q.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("quote API returned %d", resp.StatusCode)
	}
	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("quote API returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}
