package handler

import (
	"errors"
	"net/http"

	"quickvest-go/internal/service"
	"quickvest-go/pkg/log"
	"quickvest-go/pkg/token"

	"github.com/gin-gonic/gin"
)

// AccountHandler 负责处理账户查询相关的 API 请求。
type AccountHandler struct {
	accountService service.AccountService
}

// NewAccountHandler 创建一个新的 AccountHandler 实例。
func NewAccountHandler(accountService service.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// ListMine 返回当前登录用户名下的全部账户。
func (h *AccountHandler) ListMine(c *gin.Context) {
	claims := c.MustGet("claims").(*token.CustomClaims)

	accounts, err := h.accountService.ListByUser(claims.UserID)
	if err != nil {
		log.Error("ListMine: 查询账户失败", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "服务器内部错误"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    accounts,
	})
}

// GetLicenseURL 返回归档证件照片的临时下载链接，仅限账户所有者。
func (h *AccountHandler) GetLicenseURL(c *gin.Context) {
	claims := c.MustGet("claims").(*token.CustomClaims)
	accountID := c.Param("accountID")

	url, err := h.accountService.GetLicenseURL(claims.UserID, accountID)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) || errors.Is(err, service.ErrNoLicenseImage) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		log.Error("GetLicenseURL: 生成下载链接失败", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "服务器内部错误"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data": gin.H{
			"url": url,
		},
	})
}

// Search 按身份字段全文检索账户，供后台使用。
func (h *AccountHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少查询参数 q"})
		return
	}

	results, err := h.accountService.Search(c.Request.Context(), query, 10)
	if err != nil {
		log.Error("Search: 检索账户失败", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "服务器内部错误"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    results,
	})
}
