package models

import "github.com/rdietscht/ACME-NextJS-Tutorial/internal/domain/identity"

// UserModel is the persistence model for users. Password holds the bcrypt
// hash, never the plaintext.
type UserModel struct {
	BaseModel
	Name     string `gorm:"type:varchar(255);not null"`
	Email    string `gorm:"type:text;not null;uniqueIndex"`
	Password string `gorm:"type:text;not null"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the model to a domain user
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		PasswordHash: m.Password,
	}
}

// FromDomain populates the model from a domain user
func (m *UserModel) FromDomain(u *identity.User) {
	m.ID = u.ID
	m.Name = u.Name
	m.Email = u.Email
	m.Password = u.PasswordHash
}
