package postgres

import (
	"context"
	"testing"
	"time"

	appGiftcode "shop-backoffice/internal/application/giftcode"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestGiftCodeRepo_GetByCode_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	repo := NewGiftCodeRepo(db)

	mock.ExpectQuery("SELECT (.+) FROM gift_codes").
		WithArgs("NOPE-NOPE-NOPE-NOPE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = repo.GetByCode(context.Background(), "NOPE-NOPE-NOPE-NOPE")
	if err != appGiftcode.ErrCodeNotFound {
		t.Errorf("expected ErrCodeNotFound, got %v", err)
	}
}

func TestGiftCodeRepo_MarkRedeemed_OnlyOnce(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	repo := NewGiftCodeRepo(db)
	now := time.Now()

	mock.ExpectExec("UPDATE gift_codes").
		WithArgs("g-1", "c-1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE gift_codes").
		WithArgs("g-1", "c-2", now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.MarkRedeemed(context.Background(), "g-1", "c-1", now); err != nil {
		t.Fatalf("first MarkRedeemed failed: %v", err)
	}
	if err := repo.MarkRedeemed(context.Background(), "g-1", "c-2", now); err != appGiftcode.ErrCodeRedeemed {
		t.Errorf("expected ErrCodeRedeemed, got %v", err)
	}
}
