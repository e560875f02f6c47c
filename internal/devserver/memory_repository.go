package devserver

import (
	"context"
	"strings"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	byEmail map[string]User
	nextID  int64
}

// NewMemoryRepository builds an in-memory account store. Used in tests and
// when no DATABASE_URL is configured.
func NewMemoryRepository() Repository {
	return &memoryRepository{byEmail: make(map[string]User), nextID: 1}
}

func (r *memoryRepository) Create(_ context.Context, user User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, exists := r.byEmail[key]; exists {
		return User{}, ErrEmailTaken
	}
	user.ID = r.nextID
	r.nextID++
	r.byEmail[key] = user
	return user, nil
}

func (r *memoryRepository) FindByEmail(_ context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (r *memoryRepository) FindByID(_ context.Context, id int64) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (r *memoryRepository) UpdatePassword(_ context.Context, id int64, hash []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, user := range r.byEmail {
		if user.ID == id {
			user.PasswordHash = hash
			r.byEmail[key] = user
			return nil
		}
	}
	return ErrUserNotFound
}
