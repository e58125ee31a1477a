package journal

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallybook-dev/tallybook/internal/model"
	"github.com/tallybook-dev/tallybook/internal/store"
)

func newTestEngine(t *testing.T) (*Service, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	return NewService(st, nil, nil, Options{}), st
}

func seedAccount(t *testing.T, st *store.Memory, code, name string, accountType model.AccountType) model.Account {
	t.Helper()
	account := model.Account{
		ID:      uuid.New(),
		Code:    code,
		Name:    name,
		Type:    accountType,
		Balance: decimal.Zero,
	}
	require.NoError(t, st.CreateAccount(context.Background(), &account))
	return account
}

func balanceOf(t *testing.T, st *store.Memory, accountID uuid.UUID) decimal.Decimal {
	t.Helper()
	account, err := st.Account(context.Background(), accountID)
	require.NoError(t, err)
	return account.Balance
}

func TestPost(t *testing.T) {
	svc, st := newTestEngine(t)
	ctx := context.Background()
	cash := seedAccount(t, st, "1000", "Cash", model.AccountTypeAsset)
	sales := seedAccount(t, st, "4000", "Sales Revenue", model.AccountTypeRevenue)

	entry, err := svc.Post(ctx, PostParams{
		Date:        time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		Description: "Cash sale",
		Lines: []LineParams{
			{AccountID: cash.ID, Direction: model.Debit, Amount: dec("500.00")},
			{AccountID: sales.ID, Direction: model.Credit, Amount: dec("500.00")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "JE-2025-000001", entry.Code)
	assert.True(t, entry.Balanced())
	require.Len(t, entry.Lines, 2)

	// Debit increases the asset; credit increases the revenue. Both normal
	// sides, so both balances rise by the amount.
	assert.True(t, balanceOf(t, st, cash.ID).Equal(dec("500.00")))
	assert.True(t, balanceOf(t, st, sales.ID).Equal(dec("500.00")))
}

func TestPost_SequentialCodes(t *testing.T) {
	svc, st := newTestEngine(t)
	ctx := context.Background()
	cash := seedAccount(t, st, "1000", "Cash", model.AccountTypeAsset)
	sales := seedAccount(t, st, "4000", "Sales Revenue", model.AccountTypeRevenue)

	lines := []LineParams{
		{AccountID: cash.ID, Direction: model.Debit, Amount: dec("10.00")},
		{AccountID: sales.ID, Direction: model.Credit, Amount: dec("10.00")},
	}

	first, err := svc.Post(ctx, PostParams{Date: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), Lines: lines})
	require.NoError(t, err)
	second, err := svc.Post(ctx, PostParams{Date: time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC), Lines: lines})
	require.NoError(t, err)

	assert.Equal(t, "JE-2025-000001", first.Code)
	assert.Equal(t, "JE-2025-000002", second.Code)

	// Sequences are per year.
	next, err := svc.Post(ctx, PostParams{Date: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), Lines: lines})
	require.NoError(t, err)
	assert.Equal(t, "JE-2026-000001", next.Code)
}

func TestPost_ValidationOrder(t *testing.T) {
	svc, st := newTestEngine(t)
	ctx := context.Background()
	cash := seedAccount(t, st, "1000", "Cash", model.AccountTypeAsset)

	// Too few lines wins over everything else.
	_, err := svc.Post(ctx, PostParams{Lines: []LineParams{
		{AccountID: uuid.New(), Direction: model.Debit, Amount: dec("-1")},
	}})
	assert.ErrorIs(t, err, ErrInsufficientLines)

	// A bad amount is reported before the unknown account.
	_, err = svc.Post(ctx, PostParams{Lines: []LineParams{
		{AccountID: uuid.New(), Direction: model.Debit, Amount: dec("0")},
		{AccountID: cash.ID, Direction: model.Credit, Amount: dec("100.00")},
	}})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	// An unknown account is reported before the imbalance.
	_, err = svc.Post(ctx, PostParams{Lines: []LineParams{
		{AccountID: uuid.New(), Direction: model.Debit, Amount: dec("99.00")},
		{AccountID: cash.ID, Direction: model.Credit, Amount: dec("100.00")},
	}})
	assert.ErrorIs(t, err, ErrUnknownAccount)
}

func TestPost_UnbalancedLeavesBalancesUntouched(t *testing.T) {
	svc, st := newTestEngine(t)
	ctx := context.Background()
	cash := seedAccount(t, st, "1000", "Cash", model.AccountTypeAsset)
	sales := seedAccount(t, st, "4000", "Sales Revenue", model.AccountTypeRevenue)

	_, err := svc.Post(ctx, PostParams{Lines: []LineParams{
		{AccountID: cash.ID, Direction: model.Debit, Amount: dec("100.00")},
		{AccountID: sales.ID, Direction: model.Credit, Amount: dec("99.99")},
	}})
	require.ErrorIs(t, err, ErrUnbalanced)

	assert.True(t, balanceOf(t, st, cash.ID).IsZero())
	assert.True(t, balanceOf(t, st, sales.ID).IsZero())

	entries, err := svc.List(ctx, store.EntryFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected entries are never persisted")
}

func TestPost_MultiLine(t *testing.T) {
	svc, st := newTestEngine(t)
	ctx := context.Background()
	rent := seedAccount(t, st, "5100", "Rent", model.AccountTypeExpense)
	cash := seedAccount(t, st, "1010", "Business Checking", model.AccountTypeAsset)
	payable := seedAccount(t, st, "2000", "Accounts Payable", model.AccountTypeLiability)

	_, err := svc.Post(ctx, PostParams{
		Date:        time.Now(),
		Description: "Rent, partly on account",
		Lines: []LineParams{
			{AccountID: rent.ID, Direction: model.Debit, Amount: dec("1200.00")},
			{AccountID: cash.ID, Direction: model.Credit, Amount: dec("1000.00")},
			{AccountID: payable.ID, Direction: model.Credit, Amount: dec("200.00")},
		},
	})
	require.NoError(t, err)

	assert.True(t, balanceOf(t, st, rent.ID).Equal(dec("1200.00")))
	assert.True(t, balanceOf(t, st, cash.ID).Equal(dec("-1000.00")), "credit to a debit-normal account decreases it")
	assert.True(t, balanceOf(t, st, payable.ID).Equal(dec("200.00")))
}

func TestReverse(t *testing.T) {
	svc, st := newTestEngine(t)
	ctx := context.Background()
	cash := seedAccount(t, st, "1000", "Cash", model.AccountTypeAsset)
	sales := seedAccount(t, st, "4000", "Sales Revenue", model.AccountTypeRevenue)

	entry, err := svc.Post(ctx, PostParams{
		Date: time.Now(),
		Lines: []LineParams{
			{AccountID: cash.ID, Direction: model.Debit, Amount: dec("500.00")},
			{AccountID: sales.ID, Direction: model.Credit, Amount: dec("500.00")},
		},
	})
	require.NoError(t, err)

	reversal, err := svc.Reverse(ctx, entry.ID)
	require.NoError(t, err)

	assert.True(t, reversal.IsReversal())
	require.NotNil(t, reversal.ReversesID)
	assert.Equal(t, entry.ID, *reversal.ReversesID)
	assert.True(t, reversal.Balanced())

	// Every touched balance is back to its prior value.
	assert.True(t, balanceOf(t, st, cash.ID).IsZero())
	assert.True(t, balanceOf(t, st, sales.ID).IsZero())

	// The original survives and records the link.
	original, err := svc.Entry(ctx, entry.ID)
	require.NoError(t, err)
	assert.True(t, original.IsReversed())
	require.NotNil(t, original.ReversedByID)
	assert.Equal(t, reversal.ID, *original.ReversedByID)

	entries, err := svc.List(ctx, store.EntryFilter{})
	require.NoError(t, err)
	assert.Len(t, entries, 2, "reversal is an additional entry, not a deletion")
}

func TestReverse_Twice(t *testing.T) {
	svc, st := newTestEngine(t)
	ctx := context.Background()
	cash := seedAccount(t, st, "1000", "Cash", model.AccountTypeAsset)
	sales := seedAccount(t, st, "4000", "Sales Revenue", model.AccountTypeRevenue)

	entry, err := svc.Post(ctx, PostParams{
		Date: time.Now(),
		Lines: []LineParams{
			{AccountID: cash.ID, Direction: model.Debit, Amount: dec("500.00")},
			{AccountID: sales.ID, Direction: model.Credit, Amount: dec("500.00")},
		},
	})
	require.NoError(t, err)

	_, err = svc.Reverse(ctx, entry.ID)
	require.NoError(t, err)

	_, err = svc.Reverse(ctx, entry.ID)
	require.ErrorIs(t, err, ErrAlreadyReversed)
}

func TestReverse_NotFound(t *testing.T) {
	svc, _ := newTestEngine(t)
	_, err := svc.Reverse(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestList_Filter(t *testing.T) {
	svc, st := newTestEngine(t)
	ctx := context.Background()
	cash := seedAccount(t, st, "1000", "Cash", model.AccountTypeAsset)
	sales := seedAccount(t, st, "4000", "Sales Revenue", model.AccountTypeRevenue)
	rent := seedAccount(t, st, "5100", "Rent", model.AccountTypeExpense)

	post := func(date time.Time, lines []LineParams) {
		t.Helper()
		_, err := svc.Post(ctx, PostParams{Date: date, Lines: lines})
		require.NoError(t, err)
	}

	post(time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), []LineParams{
		{AccountID: cash.ID, Direction: model.Debit, Amount: dec("100.00")},
		{AccountID: sales.ID, Direction: model.Credit, Amount: dec("100.00")},
	})
	post(time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC), []LineParams{
		{AccountID: rent.ID, Direction: model.Debit, Amount: dec("800.00")},
		{AccountID: cash.ID, Direction: model.Credit, Amount: dec("800.00")},
	})

	from := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	entries, err := svc.List(ctx, store.EntryFilter{From: &from})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "JE-2025-000002", entries[0].Code)

	salesID := sales.ID
	entries, err = svc.List(ctx, store.EntryFilter{AccountID: &salesID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "JE-2025-000001", entries[0].Code)
}
