package matching

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/h-tadlaoui/nova-app/internal/model"
)

// LLMConfig configures the chat-completions backend used by LLMScorer.
type LLMConfig struct {
	Endpoint  string
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// LLMScorer asks an OpenAI-compatible chat-completions API to score a batch
// of candidates in one request.
type LLMScorer struct {
	cfg    LLMConfig
	client *http.Client
	log    zerolog.Logger
}

// NewLLMScorer creates an LLMScorer. Empty fields fall back to defaults.
func NewLLMScorer(cfg LLMConfig, log zerolog.Logger) *LLMScorer {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")

	return &LLMScorer{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log.With().Str("component", "llm_scorer").Logger(),
	}
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

const systemPrompt = "You are an expert at matching lost and found items. Always respond with valid JSON only."

// Score implements Scorer. Content the backend returns that cannot be read as
// scores yields no scores rather than an error.
func (s *LLMScorer) Score(ctx context.Context, source model.Item, candidates []model.Item) ([]Score, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	if s.cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: llm api key not configured", ErrScoringFailed)
	}

	body, err := json.Marshal(chatRequest{
		Model: s.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(source, candidates)},
		},
		MaxTokens: s.cfg.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling request: %v", ErrScoringFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", ErrScoringFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: sending request: %v", ErrScoringFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrScoringFailed, err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case http.StatusPaymentRequired:
		return nil, ErrQuotaExhausted
	default:
		s.log.Error().
			Int("status_code", resp.StatusCode).
			Str("body", truncate(string(respBody), 512)).
			Msg("scoring backend returned error")
		return nil, fmt.Errorf("%w: backend returned status %d", ErrScoringFailed, resp.StatusCode)
	}

	var chat chatResponse
	if err := json.Unmarshal(respBody, &chat); err != nil || len(chat.Choices) == 0 {
		s.log.Warn().Str("body", truncate(string(respBody), 512)).Msg("unreadable completion envelope")
		return nil, nil
	}

	content := chat.Choices[0].Message.Content
	matches, ok := extractMatches(content)
	if !ok {
		s.log.Warn().Str("content", truncate(content, 512)).Msg("no scores in completion")
		return nil, nil
	}

	scores := make([]Score, 0, len(matches))
	for _, m := range matches {
		if m.ID <= 0 {
			continue
		}
		scores = append(scores, Score{ItemID: int64(m.ID), Value: float64(m.Score), Reason: m.Reason})
	}
	s.log.Debug().Int("candidates", len(candidates)).Int("scores", len(scores)).Msg("batch scored")
	return scores, nil
}

func buildPrompt(source model.Item, candidates []model.Item) string {
	var sb strings.Builder
	sb.WriteString("You are an AI assistant that matches lost and found items. Analyze the following items and return match scores.\n\n")
	fmt.Fprintf(&sb, "SOURCE ITEM (%s):\n", source.Type)
	writeItemFields(&sb, source, "- ")

	sb.WriteString("\nPOTENTIAL MATCHES:\n")
	for i, c := range candidates {
		fmt.Fprintf(&sb, "\n%d. ID: %d\n", i+1, c.ID)
		writeItemFields(&sb, c, "   - ")
	}

	fmt.Fprintf(&sb, `
Analyze each potential match and provide a match score (0-100) based on:
1. Category similarity (%.0f%%)
2. Description and feature similarity (%.0f%%)
3. Brand/color match (%.0f%%)
4. Location proximity (%.0f%%)
5. Time relevance (%.0f%%)

Treat a detail missing on either item as neutral, neither a match nor a mismatch.

Return ONLY valid JSON in this exact format (no other text):
{"matches": [{"id": 123, "score": 85, "reason": "brief explanation"}]}
`, WeightCategory, WeightDescription, WeightBrandColor, WeightLocation, WeightDate)
	return sb.String()
}

func writeItemFields(sb *strings.Builder, item model.Item, prefix string) {
	fmt.Fprintf(sb, "%sCategory: %s\n", prefix, orNA(item.Category))
	fmt.Fprintf(sb, "%sDescription: %s\n", prefix, orNA(item.Description))
	fmt.Fprintf(sb, "%sBrand: %s\n", prefix, orNA(item.Brand))
	fmt.Fprintf(sb, "%sColor: %s\n", prefix, orNA(item.Color))
	fmt.Fprintf(sb, "%sLocation: %s\n", prefix, orNA(item.Location))
	fmt.Fprintf(sb, "%sDate: %s\n", prefix, orNA(item.Date))
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
