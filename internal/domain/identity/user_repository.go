package identity

import "context"

// UserRepository reads and stores users
type UserRepository interface {
	// FindByEmail matches the email exactly and returns shared.ErrNotFound
	// when no user has it
	FindByEmail(ctx context.Context, email string) (*User, error)
	// Save inserts the user or replaces the one with the same email
	Save(ctx context.Context, user *User) error
}
