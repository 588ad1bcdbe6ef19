package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"quickvest-go/internal/service"
	"quickvest-go/pkg/log"
	"quickvest-go/pkg/token"

	"github.com/gin-gonic/gin"
)

// maxLicenseImageSize 限制证件照片的大小 (10MB)。
const maxLicenseImageSize = 10 * 1024 * 1024

// OnboardingHandler 负责处理开户对话相关的 API 请求。
type OnboardingHandler struct {
	onboardingService service.OnboardingService
}

// NewOnboardingHandler 创建一个新的 OnboardingHandler 实例。
func NewOnboardingHandler(onboardingService service.OnboardingService) *OnboardingHandler {
	return &OnboardingHandler{onboardingService: onboardingService}
}

// GetSession 返回当前会话的完整状态（阶段、进度、消息记录）。
func (h *OnboardingHandler) GetSession(c *gin.Context) {
	claims := c.MustGet("claims").(*token.CustomClaims)

	session, err := h.onboardingService.GetOrCreateSession(c.Request.Context(), claims.UserID)
	if err != nil {
		log.Error("GetSession: 获取会话失败", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "服务器内部错误"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data": gin.H{
			"session":  session,
			"progress": session.Progress(),
		},
	})
}

// GetMessages 返回当前会话的消息记录。
func (h *OnboardingHandler) GetMessages(c *gin.Context) {
	claims := c.MustGet("claims").(*token.CustomClaims)

	session, err := h.onboardingService.GetOrCreateSession(c.Request.Context(), claims.UserID)
	if err != nil {
		log.Error("GetMessages: 获取会话失败", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "服务器内部错误"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    session.Messages,
	})
}

// SubmitMessageRequest 定义了发送消息接口的请求体结构。
type SubmitMessageRequest struct {
	Content string `json:"content"`
}

// SubmitMessage 处理一条用户文本输入。
func (h *OnboardingHandler) SubmitMessage(c *gin.Context) {
	claims := c.MustGet("claims").(*token.CustomClaims)

	var req SubmitMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载"})
		return
	}

	session, err := h.onboardingService.SubmitText(c.Request.Context(), claims.UserID, req.Content)
	if err != nil {
		if errors.Is(err, service.ErrBusy) {
			c.JSON(http.StatusConflict, gin.H{"error": "上一条输入仍在处理中"})
			return
		}
		log.Error("SubmitMessage: 处理输入失败", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "服务器内部错误"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data": gin.H{
			"messages": session.Messages,
			"phase":    session.Phase,
			"progress": session.Progress(),
		},
	})
}

// UploadDocument 处理证件照片上传。
func (h *OnboardingHandler) UploadDocument(c *gin.Context) {
	claims := c.MustGet("claims").(*token.CustomClaims)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未能获取上传的文件"})
		return
	}
	if fileHeader.Size > maxLicenseImageSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "文件过大"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未能读取上传的文件"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未能读取上传的文件"})
		return
	}

	session, err := h.onboardingService.SubmitDocument(c.Request.Context(), claims.UserID, fileHeader.Filename, data)
	if err != nil {
		if errors.Is(err, service.ErrBusy) {
			c.JSON(http.StatusConflict, gin.H{"error": "上一条输入仍在处理中"})
			return
		}
		log.Error("UploadDocument: 处理上传失败", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "服务器内部错误"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data": gin.H{
			"messages": session.Messages,
			"phase":    session.Phase,
			"progress": session.Progress(),
		},
	})
}

// Teardown 销毁当前会话，尚未触发的移交会被取消。
func (h *OnboardingHandler) Teardown(c *gin.Context) {
	claims := c.MustGet("claims").(*token.CustomClaims)

	if err := h.onboardingService.Teardown(c.Request.Context(), claims.UserID); err != nil {
		log.Error("Teardown: 销毁会话失败", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "服务器内部错误"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    nil,
	})
}

// GetConfig 返回前端需要的开户接口配置。
func (h *OnboardingHandler) GetConfig(c *gin.Context) {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	baseURL := fmt.Sprintf("%s://%s", scheme, c.Request.Host)

	c.JSON(http.StatusOK, gin.H{
		"api_base_url":    baseURL,
		"onboarding_base": baseURL + "/api/v1/onboarding",
	})
}
