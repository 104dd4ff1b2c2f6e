package matching

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h-tadlaoui/nova-app/internal/model"
)

// completionServer fakes the chat-completions endpoint. It replies with
// status and, on 200, wraps content in a completion envelope.
func completionServer(t *testing.T, status int, content string) (*httptest.Server, *chatRequest) {
	t.Helper()
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		if status != http.StatusOK {
			http.Error(w, `{"error":{"message":"nope"}}`, status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func newTestLLMScorer(url string) *LLMScorer {
	return NewLLMScorer(LLMConfig{Endpoint: url, APIKey: "test-key", Model: "test-model"}, zerolog.Nop())
}

var llmCandidates = []model.Item{
	{ID: 11, Type: model.ItemTypeFound, Category: "Phone", Brand: "Apple", Location: "Central Park", Date: "2024-03-16"},
	{ID: 12, Type: model.ItemTypeFound, Category: "Wallet", Location: "Downtown", Date: "2024-03-10"},
}

func TestLLMScorerParsesScores(t *testing.T) {
	content := "```json\n" + `{"matches":[{"id":11,"score":92,"reason":"same phone"},{"id":"12","score":"40"}]}` + "\n```"
	srv, req := completionServer(t, http.StatusOK, content)

	scores, err := newTestLLMScorer(srv.URL).Score(context.Background(), lostPhone, llmCandidates)
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, Score{ItemID: 11, Value: 92, Reason: "same phone"}, scores[0])
	assert.Equal(t, int64(12), scores[1].ItemID)
	assert.InDelta(t, 40, scores[1].Value, 0.001)

	assert.Equal(t, "test-model", req.Model)
	require.Len(t, req.Messages, 2)
	prompt := req.Messages[1].Content
	assert.Contains(t, prompt, "SOURCE ITEM (lost)")
	assert.Contains(t, prompt, "ID: 11")
	assert.Contains(t, prompt, "ID: 12")
	assert.Contains(t, prompt, "Category similarity (30%)")
	assert.Contains(t, prompt, "Description: N/A")
}

func TestLLMScorerUnparsableContent(t *testing.T) {
	srv, _ := completionServer(t, http.StatusOK, "I'm sorry, I can't compare these items.")

	scores, err := newTestLLMScorer(srv.URL).Score(context.Background(), lostPhone, llmCandidates)
	require.NoError(t, err)
	assert.Empty(t, scores)
}

func TestLLMScorerStatusErrors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusPaymentRequired, ErrQuotaExhausted},
		{http.StatusInternalServerError, ErrScoringFailed},
		{http.StatusUnauthorized, ErrScoringFailed},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			srv, _ := completionServer(t, tt.status, "")

			_, err := newTestLLMScorer(srv.URL).Score(context.Background(), lostPhone, llmCandidates)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLLMScorerRequiresKey(t *testing.T) {
	s := NewLLMScorer(LLMConfig{Endpoint: "http://127.0.0.1:1"}, zerolog.Nop())

	_, err := s.Score(context.Background(), lostPhone, llmCandidates)
	assert.ErrorIs(t, err, ErrScoringFailed)
}

func TestLLMScorerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestLLMScorer(url).Score(context.Background(), lostPhone, llmCandidates)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrScoringFailed)
	assert.False(t, strings.Contains(err.Error(), "test-key"))
}
