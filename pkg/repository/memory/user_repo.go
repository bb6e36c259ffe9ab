package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/artem13815/accounts/pkg/auth"
	"github.com/artem13815/accounts/pkg/users"
)

// userOverhead approximates the per-record cost beyond the email and hash
// (id, timestamp, index entry).
const userOverhead = 64

// UserRepository implements auth.UserRepository and users.Repository in
// process memory.
type UserRepository struct {
	mu      sync.RWMutex
	byEmail map[string]auth.User
	order   []string
	bytes   int64
}

func NewUserRepository() *UserRepository {
	return &UserRepository{byEmail: make(map[string]auth.User)}
}

func (r *UserRepository) Create(_ context.Context, user auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[user.Email]; ok {
		return auth.ErrUserAlreadyExists
	}
	r.byEmail[user.Email] = user
	r.order = append(r.order, user.Email)
	r.bytes += userOverhead + int64(len(user.Email)+len(user.PasswordHash))
	return nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (auth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byEmail[email]
	if !ok {
		return auth.User{}, auth.ErrNotFound
	}
	return user, nil
}

func (r *UserRepository) CurrentStorageBytes(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.bytes, nil
}

// List returns users in registration order.
func (r *UserRepository) List(_ context.Context, f users.Filter) ([]auth.User, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	needle := strings.ToLower(f.Email)
	skip := f.Offset()
	var res []auth.User
	total := 0
	for _, email := range r.order {
		if needle != "" && !strings.Contains(strings.ToLower(email), needle) {
			continue
		}
		total++
		if total <= skip || len(res) >= f.Limit {
			continue
		}
		res = append(res, r.byEmail[email])
	}
	return res, total, nil
}
