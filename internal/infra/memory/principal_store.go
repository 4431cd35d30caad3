package memory

import (
	"context"
	"fmt"
	"sync"

	authDomain "shop-backoffice/internal/domain/auth"
	authinfra "shop-backoffice/internal/infrastructure/auth"

	"github.com/google/uuid"
)

// PrincipalStore 為後台管理員提供記憶體版儲存，供測試或無 DB 時使用。
type PrincipalStore struct {
	mu      sync.RWMutex
	byID    map[string]authDomain.Principal
	byEmail map[string]string // email -> id
}

// NewPrincipalStore 建立記憶體實例。
func NewPrincipalStore() *PrincipalStore {
	return &PrincipalStore{
		byID:    make(map[string]authDomain.Principal),
		byEmail: make(map[string]string),
	}
}

// SeedAdmins 建立預設管理員帳號供登入測試。
func (s *PrincipalStore) SeedAdmins() {
	hash, err := authinfra.HashPassword("password123")
	if err != nil {
		return
	}
	_ = s.Create(context.Background(), authDomain.Principal{
		ID:           uuid.NewString(),
		Email:        "admin@example.com",
		Name:         "Admin",
		PasswordHash: hash,
	})
}

func (s *PrincipalStore) FindByID(_ context.Context, id string) (authDomain.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	if !ok {
		return authDomain.Principal{}, fmt.Errorf("principal %s not found", id)
	}
	return p, nil
}

func (s *PrincipalStore) FindByEmail(_ context.Context, email string) (authDomain.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return authDomain.Principal{}, fmt.Errorf("principal %s not found", email)
	}
	return s.byID[id], nil
}

func (s *PrincipalStore) Create(_ context.Context, p authDomain.Principal) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[p.Email]; ok {
		return authDomain.ErrEmailTaken
	}
	s.byID[p.ID] = p
	s.byEmail[p.Email] = p.ID
	return nil
}

func (s *PrincipalStore) IncrementTokenVersion(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return 0, fmt.Errorf("principal %s not found", id)
	}
	p.TokenVersion++
	s.byID[id] = p
	return p.TokenVersion, nil
}

// RotateTokenVersion 比對並遞增，在鎖內完成，同一顆 refresh token
// 的並發換發恰好一個成功。
func (s *PrincipalStore) RotateTokenVersion(_ context.Context, id string, expected int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return 0, fmt.Errorf("principal %s not found", id)
	}
	if p.TokenVersion != expected {
		return 0, authDomain.ErrRevokedToken
	}
	p.TokenVersion++
	s.byID[id] = p
	return p.TokenVersion, nil
}

func (s *PrincipalStore) UpdatePassword(_ context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("principal %s not found", id)
	}
	p.PasswordHash = passwordHash
	s.byID[id] = p
	return nil
}
