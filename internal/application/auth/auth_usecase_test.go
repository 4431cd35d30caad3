package auth

import (
	"context"
	"errors"
	"testing"

	authDomain "shop-backoffice/internal/domain/auth"
)

type fakeStore struct {
	principals map[string]authDomain.Principal
	created    []authDomain.Principal
}

func newFakeStore(ps ...authDomain.Principal) *fakeStore {
	s := &fakeStore{principals: make(map[string]authDomain.Principal)}
	for _, p := range ps {
		s.principals[p.ID] = p
	}
	return s
}

func (s *fakeStore) FindByID(_ context.Context, id string) (authDomain.Principal, error) {
	p, ok := s.principals[id]
	if !ok {
		return authDomain.Principal{}, authDomain.ErrPrincipalNotFound
	}
	return p, nil
}

func (s *fakeStore) FindByEmail(_ context.Context, email string) (authDomain.Principal, error) {
	for _, p := range s.principals {
		if p.Email == email {
			return p, nil
		}
	}
	return authDomain.Principal{}, authDomain.ErrPrincipalNotFound
}

func (s *fakeStore) Create(_ context.Context, p authDomain.Principal) error {
	s.principals[p.ID] = p
	s.created = append(s.created, p)
	return nil
}

func (s *fakeStore) IncrementTokenVersion(_ context.Context, id string) (int, error) {
	p, ok := s.principals[id]
	if !ok {
		return 0, authDomain.ErrPrincipalNotFound
	}
	p.TokenVersion++
	s.principals[id] = p
	return p.TokenVersion, nil
}

func (s *fakeStore) RotateTokenVersion(_ context.Context, id string, expected int) (int, error) {
	p, ok := s.principals[id]
	if !ok {
		return 0, authDomain.ErrPrincipalNotFound
	}
	if p.TokenVersion != expected {
		return 0, authDomain.ErrRevokedToken
	}
	p.TokenVersion++
	s.principals[id] = p
	return p.TokenVersion, nil
}

func (s *fakeStore) UpdatePassword(_ context.Context, id, hash string) error {
	p, ok := s.principals[id]
	if !ok {
		return authDomain.ErrPrincipalNotFound
	}
	p.PasswordHash = hash
	s.principals[id] = p
	return nil
}

type fakeHasher struct {
	match bool
}

func (f fakeHasher) Compare(_, _ string) bool      { return f.match }
func (f fakeHasher) Hash(p string) (string, error) { return "hashed:" + p, nil }

func testIssuer(codec TokenCodec) *SessionIssuer {
	return NewSessionIssuer(codec, CookiePolicy{
		AccessName:  "admin_access_token",
		RefreshName: "admin_refresh_token",
		RefreshPath: "/api/admin/auth/refresh",
	})
}

func TestLoginSuccess(t *testing.T) {
	p := authDomain.Principal{ID: "u1", Email: "admin@example.com", PasswordHash: "hash", TokenVersion: 2}
	store := newFakeStore(p)
	uc := NewLoginUseCase(store, fakeHasher{match: true}, testIssuer(newFakeCodec()))

	res, err := uc.Execute(context.Background(), LoginInput{Email: "Admin@Example.com", Password: "secret"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Pair.AccessToken == "" || res.Pair.RefreshToken == "" {
		t.Fatalf("expected token pair, got %+v", res.Pair)
	}
	if res.Pair.TokenVersion != 2 {
		t.Fatalf("issuance must carry the stored token version, got %d", res.Pair.TokenVersion)
	}
	if len(res.Cookies) != 2 {
		t.Fatalf("expected two cookie specs, got %d", len(res.Cookies))
	}
	// 簽發不得更動撤銷紀元
	stored, _ := store.FindByID(context.Background(), "u1")
	if stored.TokenVersion != 2 {
		t.Fatalf("login must not touch token version, got %d", stored.TokenVersion)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	p := authDomain.Principal{ID: "u1", Email: "admin@example.com", PasswordHash: "hash", TokenVersion: 1}
	store := newFakeStore(p)
	uc := NewLoginUseCase(store, fakeHasher{match: false}, testIssuer(newFakeCodec()))

	_, err := uc.Execute(context.Background(), LoginInput{Email: "admin@example.com", Password: "wrong"})
	if !errors.Is(err, authDomain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	stored, _ := store.FindByID(context.Background(), "u1")
	if stored.TokenVersion != 1 {
		t.Fatalf("failed login must not touch token version")
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	uc := NewLoginUseCase(newFakeStore(), fakeHasher{match: true}, testIssuer(newFakeCodec()))
	if _, err := uc.Execute(context.Background(), LoginInput{Email: "ghost@example.com", Password: "x"}); !errors.Is(err, authDomain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestRegisterRejectsTakenEmail(t *testing.T) {
	p := authDomain.Principal{ID: "u1", Email: "admin@example.com"}
	uc := NewRegisterUseCase(newFakeStore(p), fakeHasher{}, testIssuer(newFakeCodec()))
	if _, err := uc.Execute(context.Background(), RegisterInput{Email: "admin@example.com", Password: "longenough"}); !errors.Is(err, authDomain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestLogoutEverywhereBumpsVersion(t *testing.T) {
	p := authDomain.Principal{ID: "u1", Email: "a@b.c", TokenVersion: 3}
	store := newFakeStore(p)
	uc := NewLogoutUseCase(store, testIssuer(newFakeCodec()))

	cookies, err := uc.Everywhere(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored, _ := store.FindByID(context.Background(), "u1")
	if stored.TokenVersion != 4 {
		t.Fatalf("expected version bump to 4, got %d", stored.TokenVersion)
	}
	for _, c := range cookies {
		if c.MaxAge != -1 || c.Value != "" {
			t.Fatalf("logout cookies must expire immediately: %+v", c)
		}
	}
}

func TestChangePasswordBumpsVersion(t *testing.T) {
	p := authDomain.Principal{ID: "u1", Email: "a@b.c", PasswordHash: "old", TokenVersion: 0}
	store := newFakeStore(p)
	uc := NewChangePasswordUseCase(store, fakeHasher{match: true})

	if err := uc.Execute(context.Background(), "u1", "old-plain", "new-password"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored, _ := store.FindByID(context.Background(), "u1")
	if stored.TokenVersion != 1 {
		t.Fatalf("password change must bump token version")
	}
	if stored.PasswordHash != "hashed:new-password" {
		t.Fatalf("password hash not updated: %s", stored.PasswordHash)
	}
}
