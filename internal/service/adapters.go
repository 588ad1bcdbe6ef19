package service

import (
	"bytes"
	"context"

	"quickvest-go/internal/config"
	"quickvest-go/pkg/kafka"
	"quickvest-go/pkg/storage"
	"quickvest-go/pkg/tasks"
)

// kafkaHandoffPublisher 把移交事件发到 Kafka，由后台消费者驱动账户索引。
type kafkaHandoffPublisher struct{}

// NewKafkaHandoffPublisher 创建生产环境使用的 HandoffPublisher。
func NewKafkaHandoffPublisher() HandoffPublisher {
	return kafkaHandoffPublisher{}
}

func (kafkaHandoffPublisher) PublishHandoff(task tasks.AccountIndexTask) error {
	return kafka.ProduceAccountIndexTask(task)
}

// minioLicenseArchiver 把证件照片归档到 MinIO。
type minioLicenseArchiver struct {
	cfg config.MinIOConfig
}

// NewMinioLicenseArchiver 创建生产环境使用的 LicenseArchiver。
func NewMinioLicenseArchiver(cfg config.MinIOConfig) LicenseArchiver {
	return &minioLicenseArchiver{cfg: cfg}
}

func (a *minioLicenseArchiver) Archive(ctx context.Context, userID uint, fileName string, data []byte) (string, error) {
	return storage.ArchiveLicenseImage(ctx, a.cfg.BucketName, userID, fileName, bytes.NewReader(data), int64(len(data)), "image/jpeg")
}
