// Package customers manages the customers a shopkeeper extends credit to.
package customers

import "time"

// Customer belongs to exactly one account and is visible only to it.
type Customer struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// EntityID implements kv.Entity.
func (c Customer) EntityID() string { return c.ID }

// OwnerID implements kv.Entity.
func (c Customer) OwnerID() string { return c.AccountID }

// CreateCustomerRequest carries add-customer input.
type CreateCustomerRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Phone   string `json:"phone" validate:"required,max=20"`
	Address string `json:"address,omitempty" validate:"omitempty,max=300"`
}
