package postgres

import (
	"context"
	"testing"

	appOrder "shop-backoffice/internal/application/order"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestCatalogRepo_ReserveStock(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	repo := NewCatalogRepo(db)

	mock.ExpectQuery("UPDATE products").
		WithArgs("p-1", 2).
		WillReturnRows(sqlmock.NewRows([]string{"price_cents"}).AddRow(int64(500)))

	price, err := repo.ReserveStock(context.Background(), "p-1", 2)
	if err != nil {
		t.Fatalf("ReserveStock failed: %v", err)
	}
	if price != 500 {
		t.Errorf("expected price 500, got %d", price)
	}
}

func TestCatalogRepo_ReserveStock_OutOfStock(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	repo := NewCatalogRepo(db)

	// 條件更新未命中，之後的庫存查詢找到商品 = 缺貨
	mock.ExpectQuery("UPDATE products").
		WithArgs("p-1", 99).
		WillReturnRows(sqlmock.NewRows([]string{"price_cents"}))
	mock.ExpectQuery("SELECT stock FROM products").
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows([]string{"stock"}).AddRow(3))

	_, err = repo.ReserveStock(context.Background(), "p-1", 99)
	if err != appOrder.ErrOutOfStock {
		t.Errorf("expected ErrOutOfStock, got %v", err)
	}
}

func TestCatalogRepo_ReserveStock_UnknownProduct(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	repo := NewCatalogRepo(db)

	mock.ExpectQuery("UPDATE products").
		WithArgs("ghost", 1).
		WillReturnRows(sqlmock.NewRows([]string{"price_cents"}))
	mock.ExpectQuery("SELECT stock FROM products").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"stock"}))

	_, err = repo.ReserveStock(context.Background(), "ghost", 1)
	if err != appOrder.ErrUnknownProduct {
		t.Errorf("expected ErrUnknownProduct, got %v", err)
	}
}
