package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"quickvest-go/internal/model"
	"quickvest-go/pkg/extract"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memAccountRepo struct {
	accounts []model.Account
	err      error
}

func (r *memAccountRepo) Create(account *model.Account) error {
	if r.err != nil {
		return r.err
	}
	r.accounts = append(r.accounts, *account)
	return nil
}

func (r *memAccountRepo) FindByAccountID(accountID string) (*model.Account, error) {
	for i := range r.accounts {
		if r.accounts[i].AccountID == accountID {
			return &r.accounts[i], nil
		}
	}
	return nil, errors.New("record not found")
}

func (r *memAccountRepo) FindByUserID(userID uint) ([]model.Account, error) {
	var out []model.Account
	for _, a := range r.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func TestCreateFromExtraction(t *testing.T) {
	ctx := context.Background()
	score := 7
	session := &model.OnboardingSession{
		ID:        "sess-1",
		UserID:    1,
		Goal:      "retirement",
		RiskScore: &score,
	}
	result := &extract.Result{
		AccountID: "ACC-001",
		Fields:    map[string]string{"full_name": "Jane Doe", "license_number": "A1"},
	}

	t.Run("账户记录合成会话与解析字段", func(t *testing.T) {
		repo := &memAccountRepo{}
		svc := NewAccountService(repo, nil, "accounts", "licenses")

		require.NoError(t, svc.CreateFromExtraction(ctx, session, result, "licenses/1/a.jpg"))
		require.Len(t, repo.accounts, 1)

		account := repo.accounts[0]
		assert.Equal(t, "ACC-001", account.AccountID)
		assert.Equal(t, uint(1), account.UserID)
		assert.Equal(t, "sess-1", account.SessionID)
		assert.Equal(t, "Jane Doe", account.FullName)
		assert.Equal(t, "A1", account.LicenseNumber)
		assert.Equal(t, 7, account.RiskScore)
		assert.Equal(t, "retirement", account.Goal)
		assert.Equal(t, "licenses/1/a.jpg", account.ObjectName)

		var fields map[string]string
		require.NoError(t, json.Unmarshal([]byte(account.ExtractedJSON), &fields))
		assert.Equal(t, "Jane Doe", fields["full_name"])
	})

	t.Run("落库失败时返回包装后的错误", func(t *testing.T) {
		repo := &memAccountRepo{err: errors.New("duplicate entry")}
		svc := NewAccountService(repo, nil, "accounts", "licenses")

		err := svc.CreateFromExtraction(ctx, session, result, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate entry")
	})

	t.Run("风险分缺失时落 0", func(t *testing.T) {
		repo := &memAccountRepo{}
		svc := NewAccountService(repo, nil, "accounts", "licenses")

		noScore := &model.OnboardingSession{ID: "sess-2", UserID: 2}
		require.NoError(t, svc.CreateFromExtraction(ctx, noScore, result, ""))
		assert.Equal(t, 0, repo.accounts[0].RiskScore)
	})
}

func TestGetLicenseURL(t *testing.T) {
	newSvc := func(repo *memAccountRepo) *accountService {
		svc := NewAccountService(repo, nil, "accounts", "licenses").(*accountService)
		svc.presign = func(bucketName, objectName string, expiry time.Duration) (string, error) {
			return "https://minio.local/" + bucketName + "/" + objectName, nil
		}
		return svc
	}

	repo := &memAccountRepo{accounts: []model.Account{
		{AccountID: "ACC-001", UserID: 1, ObjectName: "licenses/1/a.jpg"},
		{AccountID: "ACC-002", UserID: 2, ObjectName: ""},
	}}

	t.Run("所有者拿到下载链接", func(t *testing.T) {
		url, err := newSvc(repo).GetLicenseURL(1, "ACC-001")
		require.NoError(t, err)
		assert.Equal(t, "https://minio.local/licenses/licenses/1/a.jpg", url)
	})

	t.Run("非所有者拿不到", func(t *testing.T) {
		_, err := newSvc(repo).GetLicenseURL(2, "ACC-001")
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})

	t.Run("账户不存在", func(t *testing.T) {
		_, err := newSvc(repo).GetLicenseURL(1, "ACC-404")
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})

	t.Run("没有归档照片", func(t *testing.T) {
		_, err := newSvc(repo).GetLicenseURL(2, "ACC-002")
		assert.ErrorIs(t, err, ErrNoLicenseImage)
	})
}

func TestIdentityText(t *testing.T) {
	t.Run("字段按名字排序拼接", func(t *testing.T) {
		got := IdentityText(map[string]string{
			"name":           "Jane Doe",
			"address":        "12 Elm St",
			"license_number": "A1",
		})
		assert.Equal(t, "12 Elm St A1 Jane Doe", got)
	})

	t.Run("空值被跳过", func(t *testing.T) {
		got := IdentityText(map[string]string{"a": "", "b": "x"})
		assert.Equal(t, "x", got)
	})

	t.Run("空映射返回空串", func(t *testing.T) {
		assert.Equal(t, "", IdentityText(nil))
	})
}
