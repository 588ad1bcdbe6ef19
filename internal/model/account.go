// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// Account 定义了 accounts 表的 ORM 模型。
// 证件解析成功后由对话引擎创建，记录这次开户采集到的全部信息。
type Account struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID     string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"accountId"`
	UserID        uint      `gorm:"index;not null" json:"userId"`
	SessionID     string    `gorm:"type:varchar(64);not null" json:"sessionId"`
	FullName      string    `gorm:"type:varchar(255)" json:"fullName"`
	LicenseNumber string    `gorm:"type:varchar(64)" json:"licenseNumber"`
	RiskScore     int       `gorm:"type:tinyint" json:"riskScore"`
	Goal          string    `gorm:"type:varchar(255)" json:"goal"`
	ExtractedJSON string    `gorm:"type:text" json:"-"` // 解析出的全部字段，JSON 序列化
	ObjectName    string    `gorm:"type:varchar(255)" json:"-"` // MinIO 中归档的证件照片对象名
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Account) TableName() string {
	return "accounts"
}
