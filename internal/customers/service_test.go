package customers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/udharbook/internal/platform/kv"
	"github.com/odyssey-erp/udharbook/internal/shared"
)

func newTestService() *Service {
	clock := func() time.Time { return time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC) }
	return NewService(NewRepository(kv.NewMemoryStore()), shared.NopSink, nil, clock)
}

func TestAddAndListCustomersScopedByAccount(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	a, err := svc.AddCustomer(ctx, "acc-1", CreateCustomerRequest{Name: "Suresh", Phone: "98765 43210"})
	require.NoError(t, err)
	require.Equal(t, "+919876543210", a.Phone)
	require.Equal(t, "acc-1", a.AccountID)

	_, err = svc.AddCustomer(ctx, "acc-1", CreateCustomerRequest{Name: "Meena", Phone: "9876543210", Address: "Lane 4"})
	require.NoError(t, err)
	_, err = svc.AddCustomer(ctx, "acc-2", CreateCustomerRequest{Name: "Other", Phone: "9000000000"})
	require.NoError(t, err)

	list, err := svc.ListCustomers(ctx, "acc-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "Suresh", list[0].Name)
	require.Equal(t, "Meena", list[1].Name)

	_, err = svc.GetCustomer(ctx, "acc-2", a.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	got, err := svc.GetCustomer(ctx, "acc-1", a.ID)
	require.NoError(t, err)
	require.Equal(t, a, got)
}

func TestAddCustomerValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.AddCustomer(ctx, "acc-1", CreateCustomerRequest{Name: "", Phone: "9876543210"})
	require.ErrorIs(t, err, shared.ErrValidation)
	_, err = svc.AddCustomer(ctx, "acc-1", CreateCustomerRequest{Name: "X", Phone: "12345"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestNormalisePhone(t *testing.T) {
	cases := map[string]string{
		"9876543210":       "+919876543210",
		"98765-43210":      "+919876543210",
		"+44 20 7946 0958": "+442079460958",
		"+91 98765 43210":  "+919876543210",
	}
	for in, want := range cases {
		got, err := NormalisePhone(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got)
	}
	for _, bad := range []string{"", "abc", "987654321", "09876543210x"} {
		_, err := NormalisePhone(bad)
		require.ErrorIs(t, err, shared.ErrValidation, bad)
	}
}
