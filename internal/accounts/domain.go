// Package accounts implements shopkeeper accounts: signup, login, profile and
// password management.
package accounts

import "time"

// MinSecretLength is the shortest accepted password.
const MinSecretLength = 6

// Account is a shopkeeper login. Email is unique across all accounts.
type Account struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	SecretHash string    `json:"secretHash"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// EntityID implements kv.Entity.
func (a Account) EntityID() string { return a.ID }

// OwnerID implements kv.Entity. An account owns itself.
func (a Account) OwnerID() string { return a.ID }

// SignupInput carries the fields required to open an account.
type SignupInput struct {
	Name   string `json:"name" validate:"required,max=120"`
	Email  string `json:"email" validate:"required,email"`
	Secret string `json:"password" validate:"required,min=6"`
}

// ProfileUpdate patches the mutable profile fields. Nil fields are untouched.
type ProfileUpdate struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=120"`
	Email *string `json:"email" validate:"omitempty,email"`
}

// PasswordChange replaces the secret after verifying the current one.
type PasswordChange struct {
	Current string `json:"currentPassword" validate:"required"`
	Next    string `json:"newPassword" validate:"required,min=6"`
}
