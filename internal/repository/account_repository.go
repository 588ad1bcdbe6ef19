package repository

import (
	"quickvest-go/internal/model"

	"gorm.io/gorm"
)

// AccountRepository 接口定义了账户数据的持久化操作。
type AccountRepository interface {
	Create(account *model.Account) error
	FindByAccountID(accountID string) (*model.Account, error)
	FindByUserID(userID uint) ([]model.Account, error)
}

// accountRepository 是 AccountRepository 接口的 GORM 实现。
type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository 创建一个新的 AccountRepository 实例。
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

// Create 在数据库中创建一条新的账户记录。
func (r *accountRepository) Create(account *model.Account) error {
	return r.db.Create(account).Error
}

// FindByAccountID 根据账户号查找账户记录。
func (r *accountRepository) FindByAccountID(accountID string) (*model.Account, error) {
	var account model.Account
	err := r.db.Where("account_id = ?", accountID).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// FindByUserID 查找某个用户名下的全部账户记录。
func (r *accountRepository) FindByUserID(userID uint) ([]model.Account, error) {
	var accounts []model.Account
	err := r.db.Where("user_id = ?", userID).Find(&accounts).Error
	return accounts, err
}
