package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallybook-dev/tallybook/internal/model"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	return db
}

func TestDB_AccountRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	account := model.Account{
		ID:      uuid.New(),
		Code:    "1000",
		Name:    "Cash",
		Type:    model.AccountTypeAsset,
		Balance: decimal.Zero,
	}
	require.NoError(t, db.CreateAccount(ctx, &account))

	got, err := db.AccountByCode(ctx, "1000")
	require.NoError(t, err)
	assert.Equal(t, account.ID, got.ID)
	assert.Equal(t, model.AccountTypeAsset, got.Type)

	dup := model.Account{ID: uuid.New(), Code: "1000", Name: "Dup", Type: model.AccountTypeAsset}
	err = db.CreateAccount(ctx, &dup)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestDB_AddToBalance(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	account := model.Account{ID: uuid.New(), Code: "1000", Name: "Cash", Type: model.AccountTypeAsset, Balance: decimal.Zero}
	require.NoError(t, db.CreateAccount(ctx, &account))

	require.NoError(t, db.AddToBalance(ctx, account.ID, decimal.RequireFromString("12.34")))
	require.NoError(t, db.AddToBalance(ctx, account.ID, decimal.RequireFromString("-2.34")))

	got, err := db.Account(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(10)), "got %s", got.Balance)

	err = db.AddToBalance(ctx, uuid.New(), decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDB_EntryWithLines(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	cash := model.Account{ID: uuid.New(), Code: "1000", Name: "Cash", Type: model.AccountTypeAsset, Balance: decimal.Zero}
	sales := model.Account{ID: uuid.New(), Code: "4000", Name: "Sales", Type: model.AccountTypeRevenue, Balance: decimal.Zero}
	require.NoError(t, db.CreateAccount(ctx, &cash))
	require.NoError(t, db.CreateAccount(ctx, &sales))

	entry := model.JournalEntry{
		ID:   uuid.New(),
		Code: "JE-2025-000001",
		Date: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		Lines: []model.JournalEntryLine{
			{ID: uuid.New(), AccountID: cash.ID, Direction: model.Debit, Amount: decimal.NewFromInt(500), Position: 0},
			{ID: uuid.New(), AccountID: sales.ID, Direction: model.Credit, Amount: decimal.NewFromInt(500), Position: 1},
		},
	}
	require.NoError(t, db.CreateEntry(ctx, &entry))

	got, err := db.EntryByCode(ctx, "JE-2025-000001")
	require.NoError(t, err)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, cash.ID, got.Lines[0].AccountID, "lines preload in position order")
	assert.True(t, got.Balanced())

	accountID := sales.ID
	entries, err := db.Entries(ctx, EntryFilter{AccountID: &accountID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entry.ID, entries[0].ID)
}

func TestDB_NextEntrySeq(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	seq, err := db.NextEntrySeq(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, 1, seq)

	entry := model.JournalEntry{ID: uuid.New(), Code: "JE-2025-000009", Date: time.Now()}
	require.NoError(t, db.CreateEntry(ctx, &entry))

	seq, err = db.NextEntrySeq(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, 10, seq)

	seq, err = db.NextEntrySeq(ctx, 2024)
	require.NoError(t, err)
	assert.Equal(t, 1, seq, "sequences do not leak across years")
}

func TestDB_TransactRollsBack(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	account := model.Account{ID: uuid.New(), Code: "1000", Name: "Cash", Type: model.AccountTypeAsset, Balance: decimal.Zero}
	require.NoError(t, db.CreateAccount(ctx, &account))

	boom := errors.New("boom")
	err := db.Transact(ctx, func(tx Store) error {
		if err := tx.AddToBalance(ctx, account.ID, decimal.NewFromInt(100)); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := db.Account(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.IsZero(), "failed transaction leaves no trace")
}
