package analytics

import (
	"time"

	"github.com/odyssey-erp/udharbook/internal/credit"
	"github.com/odyssey-erp/udharbook/internal/shared"
)

// AgingBucket summarises unpaid credit inside an overdue band.
type AgingBucket struct {
	Bucket string  `json:"bucket"`
	Amount float64 `json:"amount"`
	Count  int     `json:"count"`
}

var agingBands = []struct {
	label string
	upTo  int
}{
	{"Not due", 0},
	{"1-30", 30},
	{"31-60", 60},
	{"61-90", 90},
}

// CreditAging groups unpaid credit by days past due as of today, a date at
// UTC midnight.
func CreditAging(entries []credit.Entry, today time.Time) []AgingBucket {
	buckets := make([]AgingBucket, len(agingBands)+1)
	for i, band := range agingBands {
		buckets[i].Bucket = band.label
	}
	buckets[len(agingBands)].Bucket = "90+"

	for _, e := range entries {
		if e.Status != credit.StatusUnpaid {
			continue
		}
		overdue := shared.DaysBetween(e.DueDate, today)
		idx := len(agingBands)
		for i, band := range agingBands {
			if overdue <= band.upTo {
				idx = i
				break
			}
		}
		buckets[idx].Amount += e.Amount
		buckets[idx].Count++
	}
	return buckets
}
