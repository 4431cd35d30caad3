package postgres

import (
	"context"
	"testing"
	"time"

	appCustomer "shop-backoffice/internal/application/customer"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestCustomerRepo_FindByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	repo := NewCustomerRepo(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "email", "display_name", "password_hash", "token_version", "balance_cents", "created_at", "updated_at"}).
		AddRow("c-1", "buyer@example.com", "Buyer", "hash", 2, 1500, now, now)

	mock.ExpectQuery("SELECT (.+) FROM customers").
		WithArgs("buyer@example.com").
		WillReturnRows(rows)

	p, err := repo.FindByEmail(context.Background(), "buyer@example.com")
	if err != nil {
		t.Fatalf("FindByEmail failed: %v", err)
	}
	if p.ID != "c-1" || p.TokenVersion != 2 {
		t.Errorf("unexpected principal: %+v", p)
	}
}

func TestCustomerRepo_AdjustBalance(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	repo := NewCustomerRepo(db)

	mock.ExpectQuery("UPDATE customers").
		WithArgs("c-1", int64(-500)).
		WillReturnRows(sqlmock.NewRows([]string{"balance_cents"}).AddRow(1000))

	balance, err := repo.AdjustBalance(context.Background(), "c-1", -500)
	if err != nil {
		t.Fatalf("AdjustBalance failed: %v", err)
	}
	if balance != 1000 {
		t.Errorf("expected balance 1000, got %d", balance)
	}
}

func TestCustomerRepo_AdjustBalance_Insufficient(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	repo := NewCustomerRepo(db)

	// 條件更新沒有命中任何列 = 餘額不足
	mock.ExpectQuery("UPDATE customers").
		WithArgs("c-1", int64(-99999)).
		WillReturnRows(sqlmock.NewRows([]string{"balance_cents"}))

	_, err = repo.AdjustBalance(context.Background(), "c-1", -99999)
	if err != appCustomer.ErrInsufficientBalance {
		t.Errorf("expected ErrInsufficientBalance, got %v", err)
	}
}
