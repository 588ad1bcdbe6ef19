// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"quickvest-go/internal/model"

	"github.com/go-redis/redis/v8"
)

// SessionRepository 定义了开户会话状态的持久化接口。
// 每个用户同一时间只有一个进行中的会话。
type SessionRepository interface {
	// GetCurrent 返回用户当前的会话；不存在时返回 (nil, nil)。
	GetCurrent(ctx context.Context, userID uint) (*model.OnboardingSession, error)
	// Save 整体写入会话状态（阶段、待答问题、消息记录等一个 JSON）。
	Save(ctx context.Context, session *model.OnboardingSession) error
	// Delete 删除用户当前的会话，用于会话销毁。
	Delete(ctx context.Context, userID uint) error
}

type redisSessionRepository struct {
	redisClient *redis.Client
	ttl         time.Duration
}

// NewSessionRepository 创建一个新的 SessionRepository 实例。
func NewSessionRepository(redisClient *redis.Client, ttl time.Duration) SessionRepository {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &redisSessionRepository{redisClient: redisClient, ttl: ttl}
}

func sessionKey(userID uint) string {
	return fmt.Sprintf("user:%d:onboarding_session", userID)
}

// GetCurrent 从 Redis 获取用户当前的会话状态。
func (r *redisSessionRepository) GetCurrent(ctx context.Context, userID uint) (*model.OnboardingSession, error) {
	jsonData, err := r.redisClient.Get(ctx, sessionKey(userID)).Result()
	if err == redis.Nil {
		return nil, nil // 还没有会话
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get onboarding session: %w", err)
	}
	var session model.OnboardingSession
	if err := json.Unmarshal([]byte(jsonData), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal onboarding session: %w", err)
	}
	return &session, nil
}

// Save 在 Redis 中整体覆盖写入会话状态。
func (r *redisSessionRepository) Save(ctx context.Context, session *model.OnboardingSession) error {
	jsonData, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal onboarding session: %w", err)
	}
	if err := r.redisClient.Set(ctx, sessionKey(session.UserID), jsonData, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set onboarding session: %w", err)
	}
	return nil
}

// Delete 删除用户当前的会话状态。
func (r *redisSessionRepository) Delete(ctx context.Context, userID uint) error {
	if err := r.redisClient.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete onboarding session: %w", err)
	}
	return nil
}
