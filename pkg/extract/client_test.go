package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"quickvest-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAccountFromLicense(t *testing.T) {
	ctx := context.Background()
	file := func() *strings.Reader { return strings.NewReader("fake-jpeg-bytes") }

	t.Run("成功解析", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "POST", r.Method)
			assert.Equal(t, "/account/create-from-license", r.URL.Path)

			f, header, err := r.FormFile("file")
			require.NoError(t, err)
			defer f.Close()
			assert.Equal(t, "license.jpg", header.Filename)

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"account_id":"ACC-001","success":true,"extracted_data":{"name":"Jane","license_number":"A1"}}`))
		}))
		defer srv.Close()

		client := NewClient(config.ExtractionConfig{BaseURL: srv.URL})
		result, err := client.CreateAccountFromLicense(ctx, "license.jpg", file())
		require.NoError(t, err)
		assert.Equal(t, "ACC-001", result.AccountID)
		assert.Equal(t, "Jane", result.Fields["name"])
		assert.Equal(t, "A1", result.Fields["license_number"])
	})

	t.Run("非 2xx 状态返回错误", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "internal error", http.StatusInternalServerError)
		}))
		defer srv.Close()

		client := NewClient(config.ExtractionConfig{BaseURL: srv.URL})
		result, err := client.CreateAccountFromLicense(ctx, "license.jpg", file())
		require.Error(t, err)
		assert.Nil(t, result)
		assert.Contains(t, err.Error(), "non-2xx")
	})

	t.Run("success 为 false 视为失败", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"account_id":"","success":false,"extracted_data":{}}`))
		}))
		defer srv.Close()

		client := NewClient(config.ExtractionConfig{BaseURL: srv.URL})
		result, err := client.CreateAccountFromLicense(ctx, "license.jpg", file())
		require.Error(t, err)
		assert.Nil(t, result)
	})

	t.Run("传输错误返回错误", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close() // 立即关闭，模拟服务不可达

		client := NewClient(config.ExtractionConfig{BaseURL: srv.URL})
		_, err := client.CreateAccountFromLicense(ctx, "license.jpg", file())
		require.Error(t, err)
	})
}
