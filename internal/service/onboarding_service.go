// Package service 包含了应用的业务逻辑层。
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"quickvest-go/internal/model"
	"quickvest-go/internal/repository"
	"quickvest-go/pkg/extract"
	"quickvest-go/pkg/log"
	"quickvest-go/pkg/quizhelp"
	"quickvest-go/pkg/tasks"
)

// ErrBusy 表示上一条输入仍在处理中（远端调用未返回），新输入被拒绝。
// 同一会话严格串行，远端调用期间不接受新的提交。
var ErrBusy = errors.New("上一条输入仍在处理中")

// handoffRetryInterval 是移交定时器触发时撞上进行中输入的重试间隔。
const handoffRetryInterval = 50 * time.Millisecond

// HandoffPublisher 抽象了对话完成后向主应用侧发布移交事件的通道。
// 生产环境由 Kafka 实现，测试中用内存实现替代。
type HandoffPublisher interface {
	PublishHandoff(task tasks.AccountIndexTask) error
}

// LicenseArchiver 在证件照片送去解析前归档一份，返回归档对象名。
type LicenseArchiver interface {
	Archive(ctx context.Context, userID uint, fileName string, data []byte) (string, error)
}

// OnboardingService 是开户对话引擎的入口。
// 状态机的全部可变状态都在 model.OnboardingSession 里，本服务是唯一写者；
// SubmitText 和 SubmitDocument 是仅有的两个状态转移入口。
type OnboardingService interface {
	// GetOrCreateSession 返回用户当前会话，不存在时创建并写入开场白。
	GetOrCreateSession(ctx context.Context, userID uint) (*model.OnboardingSession, error)
	// SubmitText 处理一条用户文本输入，返回更新后的会话。
	// 空白输入是无操作；处理中的会话返回 ErrBusy。
	SubmitText(ctx context.Context, userID uint, text string) (*model.OnboardingSession, error)
	// SubmitDocument 处理一次证件照片上传，返回更新后的会话。
	// 文件缺失是无操作；处理中的会话返回 ErrBusy。
	SubmitDocument(ctx context.Context, userID uint, fileName string, data []byte) (*model.OnboardingSession, error)
	// Teardown 销毁用户当前会话，并取消尚未触发的延迟移交。
	Teardown(ctx context.Context, userID uint) error
}

// OnboardingOptions 汇总对话流程的时间参数。
type OnboardingOptions struct {
	// HandoffDelay 是到达 Complete 后移交主应用前的延迟。
	HandoffDelay time.Duration
	// TypingDelay 模拟助手打字的延迟，0 表示立即回复。
	TypingDelay time.Duration
}

type onboardingService struct {
	sessionRepo    repository.SessionRepository
	extractClient  extract.Client
	helpClient     quizhelp.Client
	accountService AccountService
	publisher      HandoffPublisher
	archiver       LicenseArchiver
	opts           OnboardingOptions

	// inFlight 按用户记录正在处理的输入，实现串行化的 busy 标志。
	inFlight sync.Map // key: userID, value: struct{}

	// timers 记录每个会话尚未触发的移交定时器，Teardown 时取消。
	timersMu sync.Mutex
	timers   map[string]*time.Timer
}

// NewOnboardingService 创建一个新的 OnboardingService 实例。
func NewOnboardingService(
	sessionRepo repository.SessionRepository,
	extractClient extract.Client,
	helpClient quizhelp.Client,
	accountService AccountService,
	publisher HandoffPublisher,
	archiver LicenseArchiver,
	opts OnboardingOptions,
) OnboardingService {
	if opts.HandoffDelay <= 0 {
		opts.HandoffDelay = 2 * time.Second
	}
	return &onboardingService{
		sessionRepo:    sessionRepo,
		extractClient:  extractClient,
		helpClient:     helpClient,
		accountService: accountService,
		publisher:      publisher,
		archiver:       archiver,
		opts:           opts,
		timers:         make(map[string]*time.Timer),
	}
}

// GetOrCreateSession 返回用户当前会话，不存在时创建一个以开场白为种子的新会话。
func (s *onboardingService) GetOrCreateSession(ctx context.Context, userID uint) (*model.OnboardingSession, error) {
	session, err := s.sessionRepo.GetCurrent(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session != nil {
		return session, nil
	}

	session = model.NewOnboardingSession(userID, msgGreeting)
	if err := s.sessionRepo.Save(ctx, session); err != nil {
		return nil, err
	}
	log.Infof("[Onboarding] 新建开户会话: user=%d, session=%s", userID, session.ID)
	return session, nil
}

// SubmitText 实现 §转移规则：一次完整的用户文本回合。
func (s *onboardingService) SubmitText(ctx context.Context, userID uint, text string) (*model.OnboardingSession, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		// 空输入：不追加消息，不转移阶段
		return s.GetOrCreateSession(ctx, userID)
	}

	if !s.acquire(userID) {
		return nil, ErrBusy
	}
	defer s.release(userID)

	session, err := s.GetOrCreateSession(ctx, userID)
	if err != nil {
		return nil, err
	}

	session.Append(model.RoleUser, text)
	s.advanceText(ctx, session, text)

	if err := s.sessionRepo.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// advanceText 是文本输入的转移函数，只在这里改写阶段与待答问题。
func (s *onboardingService) advanceText(ctx context.Context, session *model.OnboardingSession, text string) {
	switch {
	case session.AwaitingAnswer() && strings.HasSuffix(text, "?"):
		// 追问而非回答：转给答疑服务，阶段与待答问题都不动
		answer, err := s.helpClient.Clarify(ctx, session.PendingQuestion, text)
		if err != nil {
			log.Errorf("[Onboarding] 答疑服务调用失败: session=%s, err=%v", session.ID, err)
			s.reply(session, msgHelpApology)
			return
		}
		s.reply(session, answer)

	case session.Phase == model.PhaseRiskPreQuestion:
		n, err := strconv.Atoi(text)
		if err != nil || n < 1 || n > 10 {
			// 无效答案原地重试，RiskScore 不设置
			s.reply(session, msgRiskRetry)
			return
		}
		score := n
		session.RiskScore = &score
		session.PendingQuestion = ""
		session.Phase = model.PhaseAwaitingDocument
		s.reply(session, msgUploadInstruction)

	case session.Phase == model.PhaseGreeting:
		session.Name = text
		session.Phase = model.PhaseGoalCapture
		s.reply(session, msgGoalPrompt)

	case session.Phase == model.PhaseGoalCapture:
		session.Goal = text
		session.Phase = model.PhaseRiskPreQuestion
		session.PendingQuestion = questionRisk
		s.reply(session, questionRisk)

	case session.Phase == model.PhasePostDocQuiz && session.QuizStep == 1:
		session.QuizStep = 2
		session.PendingQuestion = questionQuizHorizon
		s.reply(session, questionQuizHorizon)

	case session.Phase == model.PhasePostDocQuiz && session.QuizStep == 2:
		session.QuizStep = 0
		session.PendingQuestion = ""
		session.Phase = model.PhaseComplete
		s.reply(session, msgClosing)
		s.scheduleHandoff(session)

	default:
		// AwaitingDocument、Complete 等兜底分支：只提示下一步，绝不改阶段
		s.reply(session, s.holdingMessage(session.Phase))
	}
}

// SubmitDocument 实现证件上传回合。
func (s *onboardingService) SubmitDocument(ctx context.Context, userID uint, fileName string, data []byte) (*model.OnboardingSession, error) {
	if fileName == "" || len(data) == 0 {
		// 没有文件：无操作
		return s.GetOrCreateSession(ctx, userID)
	}

	if !s.acquire(userID) {
		return nil, ErrBusy
	}
	defer s.release(userID)

	session, err := s.GetOrCreateSession(ctx, userID)
	if err != nil {
		return nil, err
	}

	session.Append(model.RoleUser, fmt.Sprintf("[Uploaded file: %s]", fileName))

	if session.Phase != model.PhaseAwaitingDocument {
		// 非收件阶段的上传走兜底分支，不调用解析服务
		s.reply(session, s.holdingMessage(session.Phase))
		if err := s.sessionRepo.Save(ctx, session); err != nil {
			return nil, err
		}
		return session, nil
	}

	// 先归档一份原图供后台审计；归档失败不阻断开户流程
	var objectName string
	if s.archiver != nil {
		objectName, err = s.archiver.Archive(ctx, userID, fileName, data)
		if err != nil {
			log.Warnf("[Onboarding] 证件照片归档失败: session=%s, err=%v", session.ID, err)
		}
	}

	result, err := s.extractClient.CreateAccountFromLicense(ctx, fileName, bytes.NewReader(data))
	if err != nil {
		// 解析失败：致歉并停留在收件阶段，等待重新上传
		log.Errorf("[Onboarding] 证件解析失败: session=%s, err=%v", session.ID, err)
		s.reply(session, msgExtractionApology)
		if err := s.sessionRepo.Save(ctx, session); err != nil {
			return nil, err
		}
		return session, nil
	}

	session.AccountID = result.AccountID
	session.ExtractedIdentity = result.Fields

	if s.accountService != nil {
		if err := s.accountService.CreateFromExtraction(ctx, session, result, objectName); err != nil {
			// 落库失败只记录，不打断对话；账户数据仍在会话里
			log.Errorf("[Onboarding] 账户落库失败: session=%s, account=%s, err=%v", session.ID, result.AccountID, err)
		}
	}

	s.reply(session, s.summaryMessage(result))
	session.Phase = model.PhasePostDocQuiz
	session.QuizStep = 1
	session.PendingQuestion = questionQuizDrawdown
	session.Append(model.RoleAssistant, questionQuizDrawdown)

	if err := s.sessionRepo.Save(ctx, session); err != nil {
		return nil, err
	}
	log.Infof("[Onboarding] 账户创建成功: session=%s, account=%s", session.ID, result.AccountID)
	return session, nil
}

// Teardown 销毁会话：取消尚未触发的移交定时器并删除状态。
func (s *onboardingService) Teardown(ctx context.Context, userID uint) error {
	session, err := s.sessionRepo.GetCurrent(ctx, userID)
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}

	s.cancelHandoff(session.ID)
	return s.sessionRepo.Delete(ctx, userID)
}

// reply 追加一条助手消息，按配置模拟打字延迟。
func (s *onboardingService) reply(session *model.OnboardingSession, content string) {
	if s.opts.TypingDelay > 0 {
		time.Sleep(s.opts.TypingDelay)
	}
	session.Append(model.RoleAssistant, content)
}

// summaryMessage 把解析结果拼成展示消息，字段按名字排序保证输出稳定。
func (s *onboardingService) summaryMessage(result *extract.Result) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf(summaryHeader, result.AccountID))

	keys := make([]string, 0, len(result.Fields))
	for k := range result.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(fmt.Sprintf("\n%s: %s", k, result.Fields[k]))
	}
	return b.String()
}

func (s *onboardingService) holdingMessage(phase model.Phase) string {
	if phase == model.PhaseComplete {
		return msgHoldingComplete
	}
	return msgHoldingAwaitingDocument
}

// scheduleHandoff 在到达 Complete 时安排一次性的延迟移交。
// 会话被提前销毁时定时器会被取消，移交不会发生。
func (s *onboardingService) scheduleHandoff(session *model.OnboardingSession) {
	sessionID := session.ID
	userID := session.UserID
	completedAt := time.Now().UnixMilli()

	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if _, ok := s.timers[sessionID]; ok {
		// Complete 只会到达一次，这里只是兜底
		return
	}
	s.timers[sessionID] = time.AfterFunc(s.opts.HandoffDelay, func() {
		s.fireHandoff(sessionID, userID, completedAt)
	})
	log.Infof("[Onboarding] 已安排延迟移交: session=%s, delay=%s", sessionID, s.opts.HandoffDelay)
}

// cancelHandoff 取消指定会话尚未触发的移交。
func (s *onboardingService) cancelHandoff(sessionID string) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if t, ok := s.timers[sessionID]; ok {
		t.Stop()
		delete(s.timers, sessionID)
		log.Infof("[Onboarding] 已取消延迟移交: session=%s", sessionID)
	}
}

// fireHandoff 是定时器回调：标记会话已移交，并向主应用侧发布事件。
// 回调和用户输入共用同一个 busy 标志，会话状态始终只有一个写者；
// 撞上进行中的输入时重置定时器稍后重试，Teardown 仍然可以取消。
func (s *onboardingService) fireHandoff(sessionID string, userID uint, completedAt int64) {
	if !s.acquire(userID) {
		s.timersMu.Lock()
		if t, ok := s.timers[sessionID]; ok {
			t.Reset(handoffRetryInterval)
		}
		s.timersMu.Unlock()
		return
	}
	defer s.release(userID)

	s.timersMu.Lock()
	if _, ok := s.timers[sessionID]; !ok {
		// 已被 Teardown 取消
		s.timersMu.Unlock()
		return
	}
	delete(s.timers, sessionID)
	s.timersMu.Unlock()

	ctx := context.Background()
	session, err := s.sessionRepo.GetCurrent(ctx, userID)
	if err != nil {
		log.Errorf("[Onboarding] 移交时读取会话失败: session=%s, err=%v", sessionID, err)
		return
	}
	if session == nil || session.ID != sessionID {
		// 会话已销毁或被新会话替换，丢弃这次移交
		return
	}

	session.HandedOff = true
	if err := s.sessionRepo.Save(ctx, session); err != nil {
		log.Errorf("[Onboarding] 移交时保存会话失败: session=%s, err=%v", sessionID, err)
		return
	}

	if s.publisher != nil {
		task := tasks.AccountIndexTask{
			AccountID:   session.AccountID,
			UserID:      userID,
			SessionID:   sessionID,
			CompletedAt: completedAt,
		}
		if err := s.publisher.PublishHandoff(task); err != nil {
			log.Errorf("[Onboarding] 发布移交事件失败: session=%s, err=%v", sessionID, err)
			return
		}
	}
	log.Infof("[Onboarding] 会话已移交主应用: session=%s, account=%s", sessionID, session.AccountID)
}

func (s *onboardingService) acquire(userID uint) bool {
	_, loaded := s.inFlight.LoadOrStore(userID, struct{}{})
	return !loaded
}

func (s *onboardingService) release(userID uint) {
	s.inFlight.Delete(userID)
}
