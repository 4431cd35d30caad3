package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	appCustomer "shop-backoffice/internal/application/customer"
	authDomain "shop-backoffice/internal/domain/auth"
	customerDomain "shop-backoffice/internal/domain/customer"
)

// CustomerRepo 記憶體版顧客儲存。同一份資料同時支援後台管理
// (customer.Repository) 與商店端認證 (authDomain.PrincipalStore)。
type CustomerRepo struct {
	mu      sync.RWMutex
	byID    map[string]customerDomain.Customer
	byEmail map[string]string // email -> id
}

// NewCustomerRepo 建立記憶體實例。
func NewCustomerRepo() *CustomerRepo {
	return &CustomerRepo{
		byID:    make(map[string]customerDomain.Customer),
		byEmail: make(map[string]string),
	}
}

// --- authDomain.PrincipalStore ---

func (r *CustomerRepo) FindByID(_ context.Context, id string) (authDomain.Principal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if !ok {
		return authDomain.Principal{}, fmt.Errorf("customer %s not found", id)
	}
	return c.Principal(), nil
}

func (r *CustomerRepo) FindByEmail(_ context.Context, email string) (authDomain.Principal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return authDomain.Principal{}, fmt.Errorf("customer %s not found", email)
	}
	return r.byID[id].Principal(), nil
}

func (r *CustomerRepo) Create(_ context.Context, p authDomain.Principal) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[p.Email]; ok {
		return authDomain.ErrEmailTaken
	}
	now := time.Now()
	r.byID[p.ID] = customerDomain.Customer{
		ID:           p.ID,
		Email:        p.Email,
		Name:         p.Name,
		PasswordHash: p.PasswordHash,
		TokenVersion: p.TokenVersion,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.byEmail[p.Email] = p.ID
	return nil
}

func (r *CustomerRepo) IncrementTokenVersion(_ context.Context, id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return 0, fmt.Errorf("customer %s not found", id)
	}
	c.TokenVersion++
	r.byID[id] = c
	return c.TokenVersion, nil
}

// RotateTokenVersion 比對並遞增，在鎖內完成。
func (r *CustomerRepo) RotateTokenVersion(_ context.Context, id string, expected int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return 0, fmt.Errorf("customer %s not found", id)
	}
	if c.TokenVersion != expected {
		return 0, authDomain.ErrRevokedToken
	}
	c.TokenVersion++
	r.byID[id] = c
	return c.TokenVersion, nil
}

func (r *CustomerRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("customer %s not found", id)
	}
	c.PasswordHash = passwordHash
	c.UpdatedAt = time.Now()
	r.byID[id] = c
	return nil
}

// --- customer.Repository ---

func (r *CustomerRepo) GetCustomer(_ context.Context, id string) (customerDomain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if !ok {
		return customerDomain.Customer{}, fmt.Errorf("customer %s not found", id)
	}
	return c, nil
}

func (r *CustomerRepo) ListCustomers(_ context.Context, search string) ([]customerDomain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]customerDomain.Customer, 0, len(r.byID))
	needle := strings.ToLower(search)
	for _, c := range r.byID {
		if needle != "" && !strings.Contains(strings.ToLower(c.Email), needle) && !strings.Contains(strings.ToLower(c.Name), needle) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r *CustomerRepo) UpdateCustomer(_ context.Context, c customerDomain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.byID[c.ID]
	if !ok {
		return fmt.Errorf("customer %s not found", c.ID)
	}
	if old.Email != c.Email {
		delete(r.byEmail, old.Email)
		r.byEmail[c.Email] = c.ID
	}
	r.byID[c.ID] = c
	return nil
}

func (r *CustomerRepo) DeleteCustomer(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("customer %s not found", id)
	}
	delete(r.byEmail, c.Email)
	delete(r.byID, id)
	return nil
}

func (r *CustomerRepo) AdjustBalance(_ context.Context, id string, deltaCents int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return 0, fmt.Errorf("customer %s not found", id)
	}
	next := c.BalanceCents + deltaCents
	if next < 0 {
		return 0, appCustomer.ErrInsufficientBalance
	}
	c.BalanceCents = next
	c.UpdatedAt = time.Now()
	r.byID[id] = c
	return next, nil
}
