package shared

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDaysBetweenIgnoresTimeOfDay(t *testing.T) {
	today := time.Date(2024, 3, 10, 23, 59, 0, 0, time.UTC)
	require.Equal(t, 0, DaysBetween(today, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, 1, DaysBetween(today, time.Date(2024, 3, 11, 0, 0, 1, 0, time.UTC)))
	require.Equal(t, -3, DaysBetween(today, time.Date(2024, 3, 7, 12, 0, 0, 0, time.UTC)))
}

func TestDateUsesLocation(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	late := time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), Date(late, loc))
}

func TestMonthRange(t *testing.T) {
	start, end := MonthRange(time.Date(2024, 12, 15, 10, 0, 0, 0, time.UTC), time.UTC)
	require.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), start)
	require.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestFormatRupees(t *testing.T) {
	require.Equal(t, "₹500.00", FormatRupees(500))
	require.Equal(t, "₹12.50", FormatRupees(12.5))
}

func TestFanOutJoinsErrors(t *testing.T) {
	var got []EventKind
	okSink := EventSinkFunc(func(_ context.Context, evt LedgerEvent) error {
		got = append(got, evt.Kind)
		return nil
	})
	boom := errors.New("boom")
	badSink := EventSinkFunc(func(context.Context, LedgerEvent) error { return boom })

	err := FanOut{okSink, nil, badSink, okSink}.Publish(context.Background(), LedgerEvent{Kind: EventSaleRecorded})
	require.ErrorIs(t, err, boom)
	require.Equal(t, []EventKind{EventSaleRecorded, EventSaleRecorded}, got)
}

func TestValidateStructWrapsValidation(t *testing.T) {
	type input struct {
		Email string `validate:"required,email"`
	}
	err := ValidateStruct(input{Email: "nope"})
	require.ErrorIs(t, err, ErrValidation)
	require.NoError(t, ValidateStruct(input{Email: "a@b.co"}))
}
