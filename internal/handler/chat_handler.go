package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"quickvest-go/internal/model"
	"quickvest-go/internal/service"
	"quickvest-go/pkg/log"
	"quickvest-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源
	},
}

// ChatHandler 负责处理开户对话的 WebSocket 连接。
// 每个连接上的消息严格串行处理：上一条的回复写回之前不读取下一条。
type ChatHandler struct {
	onboardingService service.OnboardingService
	jwtManager        *token.JWTManager
}

// NewChatHandler 创建一个新的 ChatHandler 实例。
func NewChatHandler(onboardingService service.OnboardingService, jwtManager *token.JWTManager) *ChatHandler {
	return &ChatHandler{
		onboardingService: onboardingService,
		jwtManager:        jwtManager,
	}
}

// wsReply 是写回前端的统一消息结构。
type wsReply struct {
	Type     string              `json:"type"` // "messages" | "busy" | "error"
	Messages []model.ChatMessage `json:"messages,omitempty"`
	Phase    model.Phase         `json:"phase,omitempty"`
	Progress float64             `json:"progress,omitempty"`
}

// Handle 处理一个传入的 WebSocket 连接。
func (h *ChatHandler) Handle(c *gin.Context) {
	tokenString := c.Param("token")
	claims, err := h.jwtManager.VerifyToken(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "无效的 token", "data": nil})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	log.Infof("WebSocket 连接已建立，用户: %s", claims.Username)

	// 连接建立后先下发完整历史
	session, err := h.onboardingService.GetOrCreateSession(c.Request.Context(), claims.UserID)
	if err != nil {
		log.Error("获取会话失败，关闭连接", err)
		return
	}
	lastLen := len(session.Messages)
	h.write(conn, wsReply{Type: "messages", Messages: session.Messages, Phase: session.Phase, Progress: session.Progress()})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Warnf("从 WebSocket 读取消息失败: %v", err)
			break
		}

		text := strings.TrimSpace(string(message))
		session, err := h.onboardingService.SubmitText(c.Request.Context(), claims.UserID, text)
		if err != nil {
			if errors.Is(err, service.ErrBusy) {
				h.write(conn, wsReply{Type: "busy"})
				continue
			}
			log.Error("处理 WebSocket 输入失败", err)
			h.write(conn, wsReply{Type: "error"})
			continue
		}

		// 只下发本回合新追加的消息
		var newMessages []model.ChatMessage
		if len(session.Messages) > lastLen {
			newMessages = session.Messages[lastLen:]
		}
		lastLen = len(session.Messages)
		h.write(conn, wsReply{Type: "messages", Messages: newMessages, Phase: session.Phase, Progress: session.Progress()})
	}
}

func (h *ChatHandler) write(conn *websocket.Conn, reply wsReply) {
	b, err := json.Marshal(reply)
	if err != nil {
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		log.Warnf("向 WebSocket 写入消息失败: %v", err)
	}
}
