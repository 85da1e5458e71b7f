package service

import (
	"strings"
	"sync"

	"github.com/croche-da-t/server/internal/domain"
	"github.com/croche-da-t/server/internal/repository"
)

type inMemoryUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*domain.User
	byEmail map[string]*domain.User
}

func newInMemoryUserRepo() *inMemoryUserRepo {
	return &inMemoryUserRepo{
		byID:    map[string]*domain.User{},
		byEmail: map[string]*domain.User{},
	}
}

func (r *inMemoryUserRepo) FindByID(id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *inMemoryUserRepo) FindByEmail(email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byEmail[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *inMemoryUserRepo) Create(user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[user.Email]; exists {
		return repository.ErrUserNotFound // unique violation stand-in, never hit in tests
	}
	cp := *user
	r.byID[cp.ID] = &cp
	r.byEmail[cp.Email] = &cp
	return nil
}

type inMemoryTokenRepo struct {
	mu   sync.Mutex
	rows map[string]*domain.Token
}

func newInMemoryTokenRepo() *inMemoryTokenRepo {
	return &inMemoryTokenRepo{rows: map[string]*domain.Token{}}
}

func (r *inMemoryTokenRepo) Create(t *domain.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.rows[cp.ID] = &cp
	return nil
}

func (r *inMemoryTokenRepo) FindByIDWithUser(id string) (*domain.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrTokenNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *inMemoryTokenRepo) DeleteByID(id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return 0, nil
	}
	delete(r.rows, id)
	return 1, nil
}

func (r *inMemoryTokenRepo) Rotate(oldID string, replacement *domain.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[oldID]; !ok {
		return repository.ErrTokenNotFound
	}
	delete(r.rows, oldID)
	cp := *replacement
	r.rows[cp.ID] = &cp
	return nil
}

// attachUser wires the user snapshot into stored tokens the way the gorm
// preload would.
func (r *inMemoryTokenRepo) attachUser(u *domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.rows {
		if t.UserID == u.ID {
			t.User = *u
		}
	}
}

type inMemoryCategoryRepo struct {
	mu   sync.Mutex
	rows []domain.Category
}

func newInMemoryCategoryRepo() *inMemoryCategoryRepo { return &inMemoryCategoryRepo{} }

func (r *inMemoryCategoryRepo) Create(c *domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, *c)
	return nil
}

func (r *inMemoryCategoryRepo) FindByNameFold(name string) (*domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if strings.EqualFold(r.rows[i].Name, name) {
			cp := r.rows[i]
			return &cp, nil
		}
	}
	return nil, repository.ErrCategoryNotFound
}

func (r *inMemoryCategoryRepo) ListNewestFirst() ([]domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Category, len(r.rows))
	copy(out, r.rows)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
