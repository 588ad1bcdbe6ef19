// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"

	"quickvest-go/internal/config"
	"quickvest-go/pkg/log"
	"quickvest-go/pkg/tasks"

	"github.com/segmentio/kafka-go"
)

// TaskProcessor defines the interface for any service that can process an
// account index task. This decouples the consumer from the concrete pipeline.
type TaskProcessor interface {
	Process(ctx context.Context, task tasks.AccountIndexTask) error
}

var producer *kafka.Writer

// InitProducer 初始化 Kafka 生产者。
func InitProducer(cfg config.KafkaConfig) {
	producer = &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Info("Kafka 生产者初始化成功")
}

// ProduceAccountIndexTask 发送一个账户索引任务到 Kafka。
func ProduceAccountIndexTask(task tasks.AccountIndexTask) error {
	taskBytes, err := json.Marshal(task)
	if err != nil {
		return err
	}

	return producer.WriteMessages(context.Background(),
		kafka.Message{
			Value: taskBytes,
		},
	)
}

// StartConsumer 启动一个 Kafka 消费者来处理账户索引任务。
func StartConsumer(cfg config.KafkaConfig, processor TaskProcessor) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{cfg.Brokers},
		Topic:    cfg.Topic,
		GroupID:  "quickvest-go-consumer",
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})

	log.Infof("Kafka 消费者已启动，正在监听主题 '%s'", cfg.Topic)

	for {
		m, err := r.FetchMessage(context.Background())
		if err != nil {
			log.Error("从 Kafka 读取消息失败", err)
			break
		}

		log.Infof("收到 Kafka 消息: offset %d", m.Offset)

		var task tasks.AccountIndexTask
		if err := json.Unmarshal(m.Value, &task); err != nil {
			log.Error("解析账户索引任务失败，跳过该消息", err)
			_ = r.CommitMessages(context.Background(), m)
			continue
		}

		if err := processor.Process(context.Background(), task); err != nil {
			// 处理失败只记录日志，消息仍然提交，避免坏消息阻塞整个分区
			log.Errorf("处理账户索引任务失败: account_id=%s, err=%v", task.AccountID, err)
		}

		if err := r.CommitMessages(context.Background(), m); err != nil {
			log.Error("提交 Kafka offset 失败", err)
		}
	}
}
