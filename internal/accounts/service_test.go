package accounts

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/odyssey-erp/udharbook/internal/platform/kv"
	"github.com/odyssey-erp/udharbook/internal/shared"
)

type recordingSink struct {
	mu     sync.Mutex
	events []shared.LedgerEvent
}

func (s *recordingSink) Publish(_ context.Context, evt shared.LedgerEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
	return nil
}

func newTestService(t *testing.T) (*Service, *Repository, *recordingSink) {
	t.Helper()
	repo := NewRepository(kv.NewMemoryStore())
	sink := &recordingSink{}
	clock := func() time.Time { return time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC) }
	svc := NewService(repo, sink, nil, ServiceConfig{BcryptCost: bcrypt.MinCost, Clock: clock})
	return svc, repo, sink
}

func TestSignupAndLogin(t *testing.T) {
	svc, _, sink := newTestService(t)
	ctx := context.Background()

	account, err := svc.Signup(ctx, SignupInput{Name: "Ramesh Stores", Email: "Ramesh@Example.com ", Secret: "secret1"})
	require.NoError(t, err)
	require.Equal(t, "ramesh@example.com", account.Email)
	require.NotEqual(t, "secret1", account.SecretHash)
	require.Len(t, sink.events, 1)
	require.Equal(t, shared.EventAccountCreated, sink.events[0].Kind)

	logged, err := svc.Login(ctx, "ramesh@example.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, account.ID, logged.ID)

	_, err = svc.Login(ctx, "ramesh@example.com", "wrong")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody@example.com", "secret1")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupInput{Name: "A", Email: "a@example.com", Secret: "secret1"})
	require.NoError(t, err)

	_, err = svc.Signup(ctx, SignupInput{Name: "B", Email: "A@example.com", Secret: "secret2"})
	require.ErrorIs(t, err, shared.ErrEmailTaken)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestSignupValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupInput{Name: "A", Email: "a@example.com", Secret: "12345"})
	require.ErrorIs(t, err, shared.ErrValidation)
	_, err = svc.Signup(ctx, SignupInput{Name: "A", Email: "not-an-email", Secret: "123456"})
	require.ErrorIs(t, err, shared.ErrValidation)
	_, err = svc.Signup(ctx, SignupInput{Name: " ", Email: "a@example.com", Secret: "123456"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateProfileEmailUniquenessExcludesSelf(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.Signup(ctx, SignupInput{Name: "A", Email: "a@example.com", Secret: "secret1"})
	require.NoError(t, err)
	_, err = svc.Signup(ctx, SignupInput{Name: "B", Email: "b@example.com", Secret: "secret1"})
	require.NoError(t, err)

	same := "a@example.com"
	name := "A Kirana"
	updated, err := svc.UpdateProfile(ctx, a.ID, ProfileUpdate{Name: &name, Email: &same})
	require.NoError(t, err)
	require.Equal(t, "A Kirana", updated.Name)

	taken := "b@example.com"
	_, err = svc.UpdateProfile(ctx, a.ID, ProfileUpdate{Email: &taken})
	require.ErrorIs(t, err, shared.ErrEmailTaken)

	fresh := "new@example.com"
	updated, err = svc.UpdateProfile(ctx, a.ID, ProfileUpdate{Email: &fresh})
	require.NoError(t, err)
	require.Equal(t, fresh, updated.Email)

	_, err = svc.Login(ctx, fresh, "secret1")
	require.NoError(t, err)
}

func TestChangePassword(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.Signup(ctx, SignupInput{Name: "A", Email: "a@example.com", Secret: "secret1"})
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, a.ID, PasswordChange{Current: "wrong1", Next: "secret2"})
	require.ErrorIs(t, err, shared.ErrWrongCurrentSecret)

	require.NoError(t, svc.ChangePassword(ctx, a.ID, PasswordChange{Current: "secret1", Next: "secret2"}))
	_, err = svc.Login(ctx, "a@example.com", "secret1")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "a@example.com", "secret2")
	require.NoError(t, err)
}

func TestGetAccountNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.GetAccount(context.Background(), "missing")
	require.ErrorIs(t, err, shared.ErrNotFound)
}
