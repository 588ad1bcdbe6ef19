package model

import (
	"time"

	"github.com/google/uuid"
)

// Phase 是开户向导当前所处的阶段。
// 阶段只沿固定顺序单向前进，唯一的内部推进是问卷从第 1 题到第 2 题。
type Phase string

const (
	PhaseGreeting         Phase = "greeting"          // 等待用户报上名字
	PhaseGoalCapture      Phase = "goal_capture"      // 等待用户说明投资目标
	PhaseRiskPreQuestion  Phase = "risk_pre_question" // 等待 1-10 的风险承受度答案
	PhaseAwaitingDocument Phase = "awaiting_document" // 等待上传证件照片
	PhasePostDocQuiz      Phase = "post_doc_quiz"     // 证件解析后的适当性问卷（两题）
	PhaseComplete         Phase = "complete"          // 对话结束，等待移交主应用
)

// OnboardingSession 是单个开户对话的全部可变状态。
// 阶段、待答问题、风险分和消息记录集中放在一个值里，由 OnboardingService
// 的转移函数统一更新，整体序列化成一个 JSON 存入 Redis。
type OnboardingSession struct {
	ID     string `json:"id"`
	UserID uint   `json:"userId"`

	Phase Phase `json:"phase"`
	// QuizStep 仅在 Phase 为 PhasePostDocQuiz 时有意义，取值 1 或 2。
	QuizStep int `json:"quizStep,omitempty"`
	// PendingQuestion 是当前等待直接回答的问题原文；
	// 仅在 RiskPreQuestion 和 PostDocQuiz 两类提问阶段非空。
	PendingQuestion string `json:"pendingQuestion,omitempty"`
	// RiskScore 在用户首次给出有效答案时设置，此后不再改写。
	RiskScore *int `json:"riskScore,omitempty"`

	// Name 和 Goal 是前两个阶段采集到的原文，开户时一并落库。
	Name string `json:"name,omitempty"`
	Goal string `json:"goal,omitempty"`

	// 证件解析成功后的结果，仅存储展示，不做二次校验。
	AccountID         string            `json:"accountId,omitempty"`
	ExtractedIdentity map[string]string `json:"extractedIdentity,omitempty"`

	Messages []ChatMessage `json:"messages"`

	// HandedOff 在延迟移交真正触发后置位；提前销毁会话则永远不会置位。
	HandedOff bool `json:"handedOff"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewOnboardingSession 创建一个新的会话，并用开场白消息做种子。
// 消息记录因此从一开始就满足长度 ≥ 1。
func NewOnboardingSession(userID uint, greeting string) *OnboardingSession {
	now := time.Now()
	return &OnboardingSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		Phase:     PhaseGreeting,
		Messages:  []ChatMessage{NewChatMessage(RoleAssistant, greeting)},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append 向消息记录追加一条消息。记录只增不改。
func (s *OnboardingSession) Append(role, content string) {
	s.Messages = append(s.Messages, NewChatMessage(role, content))
	s.UpdatedAt = time.Now()
}

// AwaitingAnswer 报告当前是否有待直接回答的问卷/风险问题。
func (s *OnboardingSession) AwaitingAnswer() bool {
	return s.PendingQuestion != ""
}

// Progress 返回向导进度（0~1），对齐前端进度条的阶段划分。
func (s *OnboardingSession) Progress() float64 {
	switch s.Phase {
	case PhaseGreeting:
		return 0.1
	case PhaseGoalCapture:
		return 0.25
	case PhaseRiskPreQuestion:
		return 0.4
	case PhaseAwaitingDocument:
		return 0.6
	case PhasePostDocQuiz:
		if s.QuizStep >= 2 {
			return 0.9
		}
		return 0.75
	case PhaseComplete:
		return 1.0
	}
	return 0
}
