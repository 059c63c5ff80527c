package auth

import "context"

// User is an account the gatekeeper can authenticate.
type User struct {
	Username     string
	UserID       string
	PasswordHash string
}

// UserStore resolves usernames to user records.
type UserStore interface {
	// Lookup returns the user with the given username or ErrUserNotFound.
	Lookup(ctx context.Context, username string) (*User, error)
}

type memoryUserStore struct {
	users map[string]User
}

var _ UserStore = (*memoryUserStore)(nil)

// NewMemoryUserStore returns a UserStore backed by a fixed set of users.
func NewMemoryUserStore(users []User) UserStore {
	m := make(map[string]User, len(users))
	for _, u := range users {
		m[u.Username] = u
	}
	return &memoryUserStore{users: m}
}

func (s *memoryUserStore) Lookup(_ context.Context, username string) (*User, error) {
	u, ok := s.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}
