package model

// AccountDocument 代表存储在 Elasticsearch 中的账户文档结构，
// 供后台按身份字段检索已开户的账户。
type AccountDocument struct {
	AccountID     string `json:"account_id"`
	UserID        uint   `json:"user_id"`
	SessionID     string `json:"session_id"`
	FullName      string `json:"full_name"`
	LicenseNumber string `json:"license_number"`
	IdentityText  string `json:"identity_text"` // 全部解析字段拼接的全文
	RiskScore     int    `json:"risk_score"`
	Goal          string `json:"goal"`
	CreatedAt     int64  `json:"created_at"` // epoch millis
}

// AccountSearchResult 定义了返回给后台的账户搜索结果结构。
type AccountSearchResult struct {
	AccountID string  `json:"accountId"`
	FullName  string  `json:"fullName"`
	RiskScore int     `json:"riskScore"`
	Goal      string  `json:"goal"`
	Score     float64 `json:"score"`
}
