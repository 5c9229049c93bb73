package credit

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/odyssey-erp/udharbook/internal/customers"
	"github.com/odyssey-erp/udharbook/internal/shared"
)

const defaultSender = "Your Shop"

// PendingReminders returns unpaid entries due within withinDays of today,
// overdue ones included, ordered by day count ascending. A negative window
// falls back to the configured default.
func (s *Service) PendingReminders(ctx context.Context, accountID string, withinDays int) ([]Reminder, error) {
	if withinDays < 0 {
		withinDays = s.window
	}
	entries, err := s.repo.List(ctx, accountID)
	if err != nil {
		return nil, err
	}
	list, err := s.customers.ListCustomers(ctx, accountID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]customers.Customer, len(list))
	for _, c := range list {
		byID[c.ID] = c
	}
	today := shared.Date(s.clock(), s.loc)
	return SelectReminders(entries, byID, today, withinDays), nil
}

// SelectReminders filters and orders reminders relative to today, a date at
// UTC midnight.
func SelectReminders(entries []Entry, byID map[string]customers.Customer, today time.Time, withinDays int) []Reminder {
	out := make([]Reminder, 0)
	for _, e := range entries {
		if e.Status != StatusUnpaid {
			continue
		}
		days := shared.DaysBetween(today, e.DueDate)
		if days > withinDays {
			continue
		}
		c := byID[e.CustomerID]
		out = append(out, Reminder{
			Entry:        e,
			CustomerName: c.Name,
			Phone:        c.Phone,
			DaysUntilDue: days,
			Label:        DueLabel(days),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DaysUntilDue < out[j].DaysUntilDue
	})
	return out
}

// DueLabel describes a day count for display.
func DueLabel(days int) string {
	switch {
	case days < 0:
		return fmt.Sprintf("Overdue by %d day(s)", -days)
	case days == 0:
		return "Due Today"
	default:
		return fmt.Sprintf("Due in %d day(s)", days)
	}
}

// ParseTone accepts a tone name case-insensitively; "hard" is an alias of
// firm.
func ParseTone(raw string) (Tone, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(TonePolite):
		return TonePolite, nil
	case string(ToneHumble):
		return ToneHumble, nil
	case string(ToneFirm), "hard":
		return ToneFirm, nil
	default:
		return "", shared.Invalid("unknown reminder tone %q", raw)
	}
}

// ReminderMessage builds the reminder text for an entry in the given tone,
// signed with the account's display name.
func (s *Service) ReminderMessage(ctx context.Context, accountID, entryID string, tone Tone) (string, customers.Customer, error) {
	entry, err := s.repo.Get(ctx, accountID, entryID)
	if err != nil {
		return "", customers.Customer{}, err
	}
	customer, err := s.customers.GetCustomer(ctx, accountID, entry.CustomerID)
	if err != nil {
		return "", customers.Customer{}, err
	}
	sender := ""
	if s.accounts != nil {
		if account, err := s.accounts.GetAccount(ctx, accountID); err == nil {
			sender = account.Name
		}
	}
	msg, err := ComposeMessage(entry, customer.Name, sender, tone)
	return msg, customer, err
}

// ComposeMessage renders the reminder text.
func ComposeMessage(entry Entry, customerName, sender string, tone Tone) (string, error) {
	amount := shared.FormatRupees(entry.Amount)
	due := entry.DueDate.Format("02/01/2006")
	var body string
	switch tone {
	case TonePolite:
		body = fmt.Sprintf("Hello %s,\nThis is a friendly reminder regarding your pending payment of %s, which is due on %s.\nPlease process the payment at your earliest convenience. Thank you.", customerName, amount, due)
	case ToneHumble:
		body = fmt.Sprintf("Hi %s,\nThis is a gentle reminder that your payment of %s is approaching its due date of %s. We would appreciate it if you could clear it soon. Thank you.", customerName, amount, due)
	case ToneFirm:
		body = fmt.Sprintf("URGENT REMINDER: Your payment of %s is overdue. The due date was %s.\nPlease clear the outstanding amount immediately to avoid any inconvenience.", amount, due)
	default:
		return "", shared.Invalid("unknown reminder tone %q", tone)
	}
	if strings.TrimSpace(sender) == "" {
		sender = defaultSender
	}
	return fmt.Sprintf("%s\n\n- Sent from *%s*", body, sender), nil
}

// WhatsAppLink builds a click-to-chat deep link. Only digits of phone are
// kept; nothing is sent.
func WhatsAppLink(phone, message string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return "https://wa.me/" + digits + "?text=" + text
}
