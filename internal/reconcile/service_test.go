package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallybook-dev/tallybook/internal/accounts"
	"github.com/tallybook-dev/tallybook/internal/model"
	"github.com/tallybook-dev/tallybook/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Memory, model.Account) {
	t.Helper()
	st := store.NewMemory()
	account := model.Account{
		ID:      uuid.New(),
		Code:    "1010",
		Name:    "Business Checking",
		Type:    model.AccountTypeAsset,
		Balance: decimal.Zero,
	}
	require.NoError(t, st.CreateAccount(context.Background(), &account))
	return NewService(st, nil, nil), st, account
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestReconcile_Match(t *testing.T) {
	svc, st, account := newTestService(t)
	ctx := context.Background()
	require.NoError(t, st.AddToBalance(ctx, account.ID, dec("500.00")))

	record, err := svc.Reconcile(ctx, account.ID, dec("500.00"), time.Now())
	require.NoError(t, err)

	assert.True(t, record.Reconciled)
	assert.True(t, record.Difference.IsZero())
	assert.True(t, record.BookBalance.Equal(dec("500.00")))
}

func TestReconcile_Mismatch(t *testing.T) {
	svc, st, account := newTestService(t)
	ctx := context.Background()
	require.NoError(t, st.AddToBalance(ctx, account.ID, dec("500.00")))

	record, err := svc.Reconcile(ctx, account.ID, dec("480.00"), time.Now())
	require.NoError(t, err)

	assert.False(t, record.Reconciled)
	assert.True(t, record.Difference.Equal(dec("-20.00")), "difference is statement minus book, got %s", record.Difference)
	assert.True(t, record.StatementBalance.Equal(dec("480.00")))
	assert.True(t, record.BookBalance.Equal(dec("500.00")))
}

func TestReconcile_NeverMutatesBalance(t *testing.T) {
	svc, st, account := newTestService(t)
	ctx := context.Background()
	require.NoError(t, st.AddToBalance(ctx, account.ID, dec("500.00")))

	_, err := svc.Reconcile(ctx, account.ID, dec("480.00"), time.Now())
	require.NoError(t, err)

	got, err := st.Account(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(dec("500.00")), "reconciling is read-only on the account")
}

func TestReconcile_UnknownAccount(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Reconcile(context.Background(), uuid.New(), dec("100.00"), time.Now())
	require.ErrorIs(t, err, accounts.ErrNotFound)
}

func TestHistory(t *testing.T) {
	svc, st, account := newTestService(t)
	ctx := context.Background()
	require.NoError(t, st.AddToBalance(ctx, account.ID, dec("500.00")))

	_, err := svc.Reconcile(ctx, account.ID, dec("480.00"), time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = svc.Reconcile(ctx, account.ID, dec("500.00"), time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	records, err := svc.History(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Records are immutable history; both outcomes survive.
	outcomes := []bool{records[0].Reconciled, records[1].Reconciled}
	assert.Contains(t, outcomes, true)
	assert.Contains(t, outcomes, false)
}

func TestHistory_UnknownAccount(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.History(context.Background(), uuid.New())
	require.ErrorIs(t, err, accounts.ErrNotFound)
}
