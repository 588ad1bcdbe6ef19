package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"quickvest-go/internal/model"
	"quickvest-go/internal/repository"
	"quickvest-go/pkg/extract"
	"quickvest-go/pkg/log"
	"quickvest-go/pkg/storage"

	"github.com/elastic/go-elasticsearch/v8"
)

// licenseURLExpiry 是归档证件照片下载链接的有效期。
const licenseURLExpiry = 15 * time.Minute

// ErrAccountNotFound 表示账户不存在或不属于当前用户。
var ErrAccountNotFound = errors.New("账户不存在")

// ErrNoLicenseImage 表示该账户没有归档的证件照片。
var ErrNoLicenseImage = errors.New("该账户没有归档的证件照片")

// AccountService 接口定义了账户相关的业务操作。
type AccountService interface {
	// CreateFromExtraction 用证件解析结果为会话落库一条账户记录。
	CreateFromExtraction(ctx context.Context, session *model.OnboardingSession, result *extract.Result, objectName string) error
	// ListByUser 返回某个用户名下的全部账户。
	ListByUser(userID uint) ([]model.Account, error)
	// GetLicenseURL 为归档的证件照片生成一个临时下载链接，仅限账户所有者。
	GetLicenseURL(userID uint, accountID string) (string, error)
	// Search 供后台按身份字段全文检索账户。
	Search(ctx context.Context, query string, size int) ([]model.AccountSearchResult, error)
}

type accountService struct {
	accountRepo repository.AccountRepository
	esClient    *elasticsearch.Client
	indexName   string
	bucketName  string

	// presign 生成对象的临时下载链接，测试中替换为假实现。
	presign func(bucketName, objectName string, expiry time.Duration) (string, error)
}

// NewAccountService 创建一个新的 AccountService 实例。
func NewAccountService(accountRepo repository.AccountRepository, esClient *elasticsearch.Client, indexName, bucketName string) AccountService {
	return &accountService{
		accountRepo: accountRepo,
		esClient:    esClient,
		indexName:   indexName,
		bucketName:  bucketName,
		presign:     storage.GetPresignedURL,
	}
}

// CreateFromExtraction 把会话采集到的信息和解析字段合成一条账户记录写入 MySQL。
func (s *accountService) CreateFromExtraction(ctx context.Context, session *model.OnboardingSession, result *extract.Result, objectName string) error {
	extractedJSON, err := json.Marshal(result.Fields)
	if err != nil {
		return fmt.Errorf("failed to marshal extracted fields: %w", err)
	}

	riskScore := 0
	if session.RiskScore != nil {
		riskScore = *session.RiskScore
	}

	account := &model.Account{
		AccountID:     result.AccountID,
		UserID:        session.UserID,
		SessionID:     session.ID,
		FullName:      result.Fields["full_name"],
		LicenseNumber: result.Fields["license_number"],
		RiskScore:     riskScore,
		Goal:          session.Goal,
		ExtractedJSON: string(extractedJSON),
		ObjectName:    objectName,
	}
	if err := s.accountRepo.Create(account); err != nil {
		return fmt.Errorf("failed to create account record: %w", err)
	}

	log.Infof("[AccountService] 账户记录已写入: account=%s, user=%d", account.AccountID, account.UserID)
	return nil
}

// ListByUser 查询某个用户名下的全部账户记录。
func (s *accountService) ListByUser(userID uint) ([]model.Account, error) {
	return s.accountRepo.FindByUserID(userID)
}

// GetLicenseURL 为归档的证件照片生成临时下载链接。
// 账户不存在和不属于当前用户返回同一个错误，避免泄露账户号是否存在。
func (s *accountService) GetLicenseURL(userID uint, accountID string) (string, error) {
	account, err := s.accountRepo.FindByAccountID(accountID)
	if err != nil {
		return "", ErrAccountNotFound
	}
	if account.UserID != userID {
		return "", ErrAccountNotFound
	}
	if account.ObjectName == "" {
		return "", ErrNoLicenseImage
	}
	return s.presign(s.bucketName, account.ObjectName, licenseURLExpiry)
}

// Search 在 Elasticsearch 账户索引上做全文检索。
func (s *accountService) Search(ctx context.Context, query string, size int) ([]model.AccountSearchResult, error) {
	if size <= 0 {
		size = 10
	}

	esQuery := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"full_name^2", "identity_text", "goal", "license_number"},
			},
		},
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(esQuery); err != nil {
		return nil, fmt.Errorf("failed to encode es query: %w", err)
	}

	res, err := s.esClient.Search(
		s.esClient.Search.WithContext(ctx),
		s.esClient.Search.WithIndex(s.indexName),
		s.esClient.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		bodyBytes, _ := io.ReadAll(res.Body)
		log.Errorf("[AccountService] Elasticsearch 返回错误, status: %s, body: %s", res.Status(), string(bodyBytes))
		return nil, fmt.Errorf("elasticsearch returned an error: %s", res.String())
	}

	var esResponse struct {
		Hits struct {
			Hits []struct {
				Source model.AccountDocument `json:"_source"`
				Score  float64               `json:"_score"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("failed to decode es response: %w", err)
	}

	results := make([]model.AccountSearchResult, 0, len(esResponse.Hits.Hits))
	for _, hit := range esResponse.Hits.Hits {
		results = append(results, model.AccountSearchResult{
			AccountID: hit.Source.AccountID,
			FullName:  hit.Source.FullName,
			RiskScore: hit.Source.RiskScore,
			Goal:      hit.Source.Goal,
			Score:     hit.Score,
		})
	}
	return results, nil
}

// IdentityText 把解析字段拼成一段可全文检索的文本，字段按名字排序保证稳定。
func IdentityText(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		if v := fields[k]; v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}
