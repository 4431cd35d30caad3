package postgres

import (
	"context"
	"testing"

	authDomain "shop-backoffice/internal/domain/auth"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPrincipalRepo_FindByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	repo := NewPrincipalRepo(db)

	rows := sqlmock.NewRows([]string{"id", "email", "display_name", "password_hash", "token_version"}).
		AddRow("a-1", "admin@example.com", "Admin", "hash", 3)

	mock.ExpectQuery("SELECT (.+) FROM admins").
		WithArgs("admin@example.com").
		WillReturnRows(rows)

	p, err := repo.FindByEmail(context.Background(), "admin@example.com")
	if err != nil {
		t.Fatalf("FindByEmail failed: %v", err)
	}
	if p.ID != "a-1" || p.TokenVersion != 3 {
		t.Errorf("unexpected principal: %+v", p)
	}
}

func TestPrincipalRepo_IncrementTokenVersion(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	repo := NewPrincipalRepo(db)

	mock.ExpectQuery("UPDATE admins").
		WithArgs("a-1").
		WillReturnRows(sqlmock.NewRows([]string{"token_version"}).AddRow(4))

	v, err := repo.IncrementTokenVersion(context.Background(), "a-1")
	if err != nil {
		t.Fatalf("IncrementTokenVersion failed: %v", err)
	}
	if v != 4 {
		t.Errorf("expected version 4, got %d", v)
	}
}

func TestPrincipalRepo_IncrementTokenVersion_Missing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	repo := NewPrincipalRepo(db)

	mock.ExpectQuery("UPDATE admins").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"token_version"}))

	_, err = repo.IncrementTokenVersion(context.Background(), "ghost")
	if err != authDomain.ErrPrincipalNotFound {
		t.Errorf("expected ErrPrincipalNotFound, got %v", err)
	}
}

func TestPrincipalRepo_RotateTokenVersion(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	repo := NewPrincipalRepo(db)

	mock.ExpectQuery("UPDATE admins").
		WithArgs("a-1", 3).
		WillReturnRows(sqlmock.NewRows([]string{"token_version"}).AddRow(4))

	v, err := repo.RotateTokenVersion(context.Background(), "a-1", 3)
	if err != nil {
		t.Fatalf("RotateTokenVersion failed: %v", err)
	}
	if v != 4 {
		t.Errorf("expected version 4, got %d", v)
	}
}

func TestPrincipalRepo_RotateTokenVersion_Mismatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	repo := NewPrincipalRepo(db)

	// 紀元已被他人輪替，條件更新不命中任何列
	mock.ExpectQuery("UPDATE admins").
		WithArgs("a-1", 3).
		WillReturnRows(sqlmock.NewRows([]string{"token_version"}))

	_, err = repo.RotateTokenVersion(context.Background(), "a-1", 3)
	if err != authDomain.ErrRevokedToken {
		t.Errorf("expected ErrRevokedToken, got %v", err)
	}
}

func TestPrincipalRepo_UpdatePassword(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	repo := NewPrincipalRepo(db)

	mock.ExpectExec("UPDATE admins").
		WithArgs("a-1", "new-hash").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdatePassword(context.Background(), "a-1", "new-hash"); err != nil {
		t.Fatalf("UpdatePassword failed: %v", err)
	}
}
