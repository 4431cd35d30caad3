package customer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	customerDomain "shop-backoffice/internal/domain/customer"
)

var (
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Repository 顧客儲存介面。認證相關的讀寫（依 email 查詢、密碼、撤銷紀元）
// 走 authDomain.PrincipalStore，這裡只管後台管理需要的欄位。
type Repository interface {
	GetCustomer(ctx context.Context, id string) (customerDomain.Customer, error)
	ListCustomers(ctx context.Context, search string) ([]customerDomain.Customer, error)
	UpdateCustomer(ctx context.Context, c customerDomain.Customer) error
	DeleteCustomer(ctx context.Context, id string) error
	AdjustBalance(ctx context.Context, id string, deltaCents int64) (int64, error)
}

// UseCase 後台顧客管理。
type UseCase struct {
	repo Repository
	now  func() time.Time
}

func NewUseCase(repo Repository) *UseCase {
	return &UseCase{repo: repo, now: time.Now}
}

func (uc *UseCase) Get(ctx context.Context, id string) (customerDomain.Customer, error) {
	c, err := uc.repo.GetCustomer(ctx, id)
	if err != nil {
		return customerDomain.Customer{}, ErrCustomerNotFound
	}
	return c, nil
}

func (uc *UseCase) List(ctx context.Context, search string) ([]customerDomain.Customer, error) {
	return uc.repo.ListCustomers(ctx, strings.TrimSpace(search))
}

// Rename 後台更新顧客顯示名稱。
func (uc *UseCase) Rename(ctx context.Context, id, name string) (customerDomain.Customer, error) {
	c, err := uc.repo.GetCustomer(ctx, id)
	if err != nil {
		return customerDomain.Customer{}, ErrCustomerNotFound
	}
	c.Name = strings.TrimSpace(name)
	c.UpdatedAt = uc.now()
	if err := uc.repo.UpdateCustomer(ctx, c); err != nil {
		return customerDomain.Customer{}, fmt.Errorf("update customer: %w", err)
	}
	return c, nil
}

func (uc *UseCase) Delete(ctx context.Context, id string) error {
	if _, err := uc.repo.GetCustomer(ctx, id); err != nil {
		return ErrCustomerNotFound
	}
	return uc.repo.DeleteCustomer(ctx, id)
}

// AdjustBalance 後台手動調整餘額（正值加值、負值扣款），回傳調整後餘額。
// 餘額不可為負，儲存層以條件更新保證。
func (uc *UseCase) AdjustBalance(ctx context.Context, id string, deltaCents int64) (int64, error) {
	if _, err := uc.repo.GetCustomer(ctx, id); err != nil {
		return 0, ErrCustomerNotFound
	}
	balance, err := uc.repo.AdjustBalance(ctx, id, deltaCents)
	if err != nil {
		return 0, err
	}
	return balance, nil
}
