// Package extract 提供了证件解析服务的客户端。
// 上传的驾照照片由远端服务解析出身份字段并直接完成开户。
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"quickvest-go/internal/config"
)

// Client defines the interface for the license extraction service.
type Client interface {
	// CreateAccountFromLicense 上传证件照片，返回解析出的身份字段与账户号。
	CreateAccountFromLicense(ctx context.Context, fileName string, file io.Reader) (*Result, error)
}

// Result 是证件解析服务的成功响应。
type Result struct {
	AccountID string
	Fields    map[string]string
}

type httpClient struct {
	cfg    config.ExtractionConfig
	client *http.Client
}

// NewClient 创建一个新的证件解析客户端实例。
func NewClient(cfg config.ExtractionConfig) Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if cfg.TimeoutSeconds == 0 {
		timeout = 60 * time.Second
	}
	return &httpClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

type extractResponse struct {
	AccountID     string            `json:"account_id"`
	Success       bool              `json:"success"`
	ExtractedData map[string]string `json:"extracted_data"`
}

// CreateAccountFromLicense 以 multipart 方式上传证件照片并解析响应。
// 非 2xx 状态或传输错误都作为失败返回，绝不降级成空字段的成功。
func (c *httpClient) CreateAccountFromLicense(ctx context.Context, fileName string, file io.Reader) (*Result, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart field: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to copy file into request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/account/create-from-license", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create extraction request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call extraction api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("extraction api returned non-2xx status: %s, body: %s", resp.Status, string(bodyBytes))
	}

	var extractResp extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&extractResp); err != nil {
		return nil, fmt.Errorf("failed to decode extraction response: %w", err)
	}
	if !extractResp.Success {
		return nil, fmt.Errorf("extraction api reported failure for account %q", extractResp.AccountID)
	}

	return &Result{
		AccountID: extractResp.AccountID,
		Fields:    extractResp.ExtractedData,
	}, nil
}
