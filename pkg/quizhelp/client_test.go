package quizhelp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"quickvest-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClarify(t *testing.T) {
	ctx := context.Background()

	t.Run("成功答疑", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "POST", r.Method)
			assert.Equal(t, "/quiz/help", r.URL.Path)

			var req struct {
				QuestionText string `json:"question_text"`
				UserMessage  string `json:"user_message"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "How risky?", req.QuestionText)
			assert.Equal(t, "what does that mean?", req.UserMessage)

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"answer":"It measures how much loss you can tolerate."}`))
		}))
		defer srv.Close()

		client := NewClient(config.QuizHelpConfig{BaseURL: srv.URL})
		answer, err := client.Clarify(ctx, "How risky?", "what does that mean?")
		require.NoError(t, err)
		assert.Equal(t, "It measures how much loss you can tolerate.", answer)
	})

	t.Run("非 2xx 状态返回错误", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad gateway", http.StatusBadGateway)
		}))
		defer srv.Close()

		client := NewClient(config.QuizHelpConfig{BaseURL: srv.URL})
		_, err := client.Clarify(ctx, "q", "m?")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "non-2xx")
	})

	t.Run("传输错误返回错误", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		client := NewClient(config.QuizHelpConfig{BaseURL: srv.URL})
		_, err := client.Clarify(ctx, "q", "m?")
		require.Error(t, err)
	})
}
