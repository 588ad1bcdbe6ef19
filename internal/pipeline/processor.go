// Package pipeline 定义了开户完成后的账户索引流程。
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"quickvest-go/internal/config"
	"quickvest-go/internal/model"
	"quickvest-go/internal/repository"
	"quickvest-go/internal/service"
	"quickvest-go/pkg/es"
	"quickvest-go/pkg/log"
	"quickvest-go/pkg/tasks"
)

// Processor 消费移交事件，把完成开户的账户索引到 Elasticsearch。
type Processor struct {
	accountRepo repository.AccountRepository
	esCfg       config.ElasticsearchConfig
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(accountRepo repository.AccountRepository, esCfg config.ElasticsearchConfig) *Processor {
	return &Processor{
		accountRepo: accountRepo,
		esCfg:       esCfg,
	}
}

// Process 是账户索引任务的主函数，由 Kafka 消费者调用。
func (p *Processor) Process(ctx context.Context, task tasks.AccountIndexTask) error {
	log.Infof("[Processor] 开始索引账户, AccountID: %s, UserID: %d", task.AccountID, task.UserID)

	// 1. 从 MySQL 读取账户记录
	account, err := p.accountRepo.FindByAccountID(task.AccountID)
	if err != nil {
		return fmt.Errorf("读取账户记录失败: %w", err)
	}

	// 2. 还原解析字段，拼出全文检索用的身份文本
	fields := map[string]string{}
	if account.ExtractedJSON != "" {
		if err := json.Unmarshal([]byte(account.ExtractedJSON), &fields); err != nil {
			log.Warnf("[Processor] 解析账户身份字段失败, AccountID: %s, err: %v", task.AccountID, err)
		}
	}

	doc := model.AccountDocument{
		AccountID:     account.AccountID,
		UserID:        account.UserID,
		SessionID:     account.SessionID,
		FullName:      account.FullName,
		LicenseNumber: account.LicenseNumber,
		IdentityText:  service.IdentityText(fields),
		RiskScore:     account.RiskScore,
		Goal:          account.Goal,
		CreatedAt:     task.CompletedAt,
	}

	// 3. 写入 Elasticsearch
	if err := es.IndexAccount(ctx, p.esCfg.IndexName, doc); err != nil {
		return fmt.Errorf("索引账户到 Elasticsearch 失败: %w", err)
	}

	log.Infof("[Processor] 账户索引完成, AccountID: %s", task.AccountID)
	return nil
}
