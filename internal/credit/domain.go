// Package credit keeps the udhar ledger: credit given to customers, its
// repayment and the reminders raised as due dates approach.
package credit

import "time"

// Status is the repayment state of an entry.
type Status string

const (
	StatusUnpaid Status = "unpaid"
	StatusPaid   Status = "paid"
)

// Entry is one credit given to a customer. Amount never changes after
// creation; PaidAt is set the first time the entry becomes paid.
type Entry struct {
	ID         string     `json:"id"`
	AccountID  string     `json:"accountId"`
	CustomerID string     `json:"customerId"`
	Amount     float64    `json:"amount"`
	Note       string     `json:"note,omitempty"`
	Photo      string     `json:"photo,omitempty"`
	IssuedAt   time.Time  `json:"issuedAt"`
	DueDate    time.Time  `json:"dueDate"`
	Status     Status     `json:"status"`
	PaidAt     *time.Time `json:"paidAt,omitempty"`
}

// EntityID implements kv.Entity.
func (e Entry) EntityID() string { return e.ID }

// OwnerID implements kv.Entity.
func (e Entry) OwnerID() string { return e.AccountID }

// CreateEntryRequest carries add-credit input. DueDate is a calendar date in
// the service location; its time of day is ignored.
type CreateEntryRequest struct {
	CustomerID string    `validate:"required"`
	Amount     float64   `validate:"gt=0"`
	DueDate    time.Time `validate:"required"`
	Note       string    `validate:"max=500"`
	Photo      string
}

// EntryUpdate patches an entry. Nil fields are left untouched.
type EntryUpdate struct {
	Status  *Status
	PaidAt  *time.Time
	Note    *string
	Photo   *string
	DueDate *time.Time
}

// Reminder is a pending entry annotated for display. DaysUntilDue is negative
// for overdue entries.
type Reminder struct {
	Entry        Entry  `json:"entry"`
	CustomerName string `json:"customerName"`
	Phone        string `json:"phone"`
	DaysUntilDue int    `json:"daysUntilDue"`
	Label        string `json:"label"`
}

// Tone selects the wording of a reminder message.
type Tone string

const (
	TonePolite Tone = "polite"
	ToneHumble Tone = "humble"
	ToneFirm   Tone = "firm"
)
