// Package quizhelp 提供了风险问卷答疑服务的客户端。
// 用户对当前问卷问题有疑问时，由远端服务生成一段解释性回答。
package quizhelp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"quickvest-go/internal/config"
)

// Client defines the interface for the quiz clarification service.
type Client interface {
	// Clarify 针对待回答的问卷问题与用户的追问，返回一段解释文本。
	Clarify(ctx context.Context, questionText, userMessage string) (string, error)
}

type httpClient struct {
	cfg    config.QuizHelpConfig
	client *http.Client
}

// NewClient 创建一个新的答疑客户端实例。
func NewClient(cfg config.QuizHelpConfig) Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if cfg.TimeoutSeconds == 0 {
		timeout = 30 * time.Second
	}
	return &httpClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

type helpRequest struct {
	QuestionText string `json:"question_text"`
	UserMessage  string `json:"user_message"`
}

type helpResponse struct {
	Answer string `json:"answer"`
}

// Clarify 调用 quiz/help 接口。非 2xx 状态或传输错误都作为失败返回。
func (c *httpClient) Clarify(ctx context.Context, questionText, userMessage string) (string, error) {
	reqBody := helpRequest{
		QuestionText: questionText,
		UserMessage:  userMessage,
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal help request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/quiz/help", bytes.NewReader(reqBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create help request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call help api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("help api returned non-2xx status: %s, body: %s", resp.Status, string(bodyBytes))
	}

	var helpResp helpResponse
	if err := json.NewDecoder(resp.Body).Decode(&helpResp); err != nil {
		return "", fmt.Errorf("failed to decode help response: %w", err)
	}

	return helpResp.Answer, nil
}
