package accounts

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallybook-dev/tallybook/internal/model"
	"github.com/tallybook-dev/tallybook/internal/store"
)

func newTestService() (*Service, *store.Memory) {
	st := store.NewMemory()
	return NewService(st, nil), st
}

func create(t *testing.T, svc *Service, code, name string, accountType model.AccountType) model.Account {
	t.Helper()
	account, err := svc.Create(context.Background(), CreateParams{Code: code, Name: name, Type: accountType})
	require.NoError(t, err)
	return account
}

func TestCreate(t *testing.T) {
	svc, _ := newTestService()

	account := create(t, svc, "1000", "Cash", model.AccountTypeAsset)
	assert.Equal(t, "1000", account.Code)
	assert.Equal(t, model.AccountTypeAsset, account.Type)
	assert.True(t, account.Balance.IsZero(), "new accounts start at zero")
	assert.NotEqual(t, uuid.Nil, account.ID)
}

func TestCreate_DuplicateCode(t *testing.T) {
	svc, _ := newTestService()
	create(t, svc, "1000", "Cash", model.AccountTypeAsset)

	_, err := svc.Create(context.Background(), CreateParams{
		Code: "1000", Name: "Petty Cash", Type: model.AccountTypeAsset,
	})
	require.ErrorIs(t, err, ErrDuplicateCode)
}

func TestCreate_ParentNotFound(t *testing.T) {
	svc, _ := newTestService()

	missing := uuid.New()
	_, err := svc.Create(context.Background(), CreateParams{
		Code: "1010", Name: "Checking", Type: model.AccountTypeAsset, ParentID: &missing,
	})
	require.ErrorIs(t, err, ErrParentNotFound)
}

func TestCreate_InvalidInput(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateParams{Name: "No Code", Type: model.AccountTypeAsset})
	assert.ErrorIs(t, err, ErrInvalidAccount)

	_, err = svc.Create(ctx, CreateParams{Code: "1000", Type: model.AccountTypeAsset})
	assert.ErrorIs(t, err, ErrInvalidAccount)

	_, err = svc.Create(ctx, CreateParams{Code: "1000", Name: "Cash", Type: "plasma"})
	assert.ErrorIs(t, err, ErrInvalidAccount)
}

func TestUpdate_Rename(t *testing.T) {
	svc, _ := newTestService()
	account := create(t, svc, "1000", "Cash", model.AccountTypeAsset)

	newName := "Cash & Equivalents"
	updated, err := svc.Update(context.Background(), account.ID, Patch{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, newName, updated.Name)

	got, err := svc.Get(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, newName, got.Name)
}

func TestUpdate_NotFound(t *testing.T) {
	svc, _ := newTestService()

	name := "Ghost"
	_, err := svc.Update(context.Background(), uuid.New(), Patch{Name: &name})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdate_Reparent(t *testing.T) {
	svc, _ := newTestService()
	parent := create(t, svc, "1000", "Cash", model.AccountTypeAsset)
	child := create(t, svc, "1010", "Checking", model.AccountTypeAsset)

	parentID := parent.ID
	updated, err := svc.Update(context.Background(), child.ID, Patch{ParentID: &parentID})
	require.NoError(t, err)
	require.NotNil(t, updated.ParentID)
	assert.Equal(t, parent.ID, *updated.ParentID)
}

func TestUpdate_ReparentCycle(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	// 1000 <- 1010 <- 1011
	root := create(t, svc, "1000", "Cash", model.AccountTypeAsset)
	mid := create(t, svc, "1010", "Checking", model.AccountTypeAsset)
	leaf := create(t, svc, "1011", "Sweep", model.AccountTypeAsset)

	midID, rootID, leafID := mid.ID, root.ID, leaf.ID
	_, err := svc.Update(ctx, mid.ID, Patch{ParentID: &rootID})
	require.NoError(t, err)
	_, err = svc.Update(ctx, leaf.ID, Patch{ParentID: &midID})
	require.NoError(t, err)

	// Moving the root under its grandchild closes a cycle.
	_, err = svc.Update(ctx, root.ID, Patch{ParentID: &leafID})
	require.ErrorIs(t, err, ErrCycleDetected)

	// Self-parenting is the degenerate cycle.
	_, err = svc.Update(ctx, root.ID, Patch{ParentID: &rootID})
	require.ErrorIs(t, err, ErrCycleDetected)
}

func TestDelete(t *testing.T) {
	svc, _ := newTestService()
	account := create(t, svc, "9999", "Scratch", model.AccountTypeExpense)

	require.NoError(t, svc.Delete(context.Background(), account.ID))

	_, err := svc.Get(context.Background(), account.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete_NotFound(t *testing.T) {
	svc, _ := newTestService()
	err := svc.Delete(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDelete_AccountInUse(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()
	cash := create(t, svc, "1000", "Cash", model.AccountTypeAsset)
	sales := create(t, svc, "4000", "Sales Revenue", model.AccountTypeRevenue)

	entry := model.JournalEntry{
		ID:   uuid.New(),
		Code: "JE-2025-000001",
		Lines: []model.JournalEntryLine{
			{ID: uuid.New(), AccountID: cash.ID, Direction: model.Debit, Amount: decimal.NewFromInt(100)},
			{ID: uuid.New(), AccountID: sales.ID, Direction: model.Credit, Amount: decimal.NewFromInt(100)},
		},
	}
	require.NoError(t, st.CreateEntry(ctx, &entry))

	err := svc.Delete(ctx, cash.ID)
	require.ErrorIs(t, err, ErrAccountInUse)
}

func TestDelete_HasChildren(t *testing.T) {
	svc, _ := newTestService()
	parent := create(t, svc, "1000", "Cash", model.AccountTypeAsset)

	parentID := parent.ID
	_, err := svc.Create(context.Background(), CreateParams{
		Code: "1010", Name: "Checking", Type: model.AccountTypeAsset, ParentID: &parentID,
	})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), parent.ID)
	require.ErrorIs(t, err, ErrHasChildren)
}

func TestByCode(t *testing.T) {
	svc, _ := newTestService()
	create(t, svc, "4000", "Sales Revenue", model.AccountTypeRevenue)

	account, err := svc.ByCode(context.Background(), "4000")
	require.NoError(t, err)
	assert.Equal(t, "Sales Revenue", account.Name)

	_, err = svc.ByCode(context.Background(), "4040")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBalance_RollUp(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()

	parent := create(t, svc, "1000", "Cash", model.AccountTypeAsset)
	parentID := parent.ID
	child, err := svc.Create(ctx, CreateParams{
		Code: "1010", Name: "Checking", Type: model.AccountTypeAsset, ParentID: &parentID,
	})
	require.NoError(t, err)
	childID := child.ID
	grandchild, err := svc.Create(ctx, CreateParams{
		Code: "1011", Name: "Sweep", Type: model.AccountTypeAsset, ParentID: &childID,
	})
	require.NoError(t, err)

	require.NoError(t, st.AddToBalance(ctx, parent.ID, decimal.NewFromInt(100)))
	require.NoError(t, st.AddToBalance(ctx, child.ID, decimal.NewFromInt(250)))
	require.NoError(t, st.AddToBalance(ctx, grandchild.ID, decimal.NewFromInt(50)))

	own, err := svc.Balance(ctx, parent.ID, false)
	require.NoError(t, err)
	assert.True(t, own.Equal(decimal.NewFromInt(100)), "own balance excludes descendants, got %s", own)

	rolled, err := svc.Balance(ctx, parent.ID, true)
	require.NoError(t, err)
	assert.True(t, rolled.Equal(decimal.NewFromInt(400)), "roll-up sums all descendants, got %s", rolled)
}

func TestSeedDefaultChart(t *testing.T) {
	svc, _ := newTestService()
	require.NoError(t, svc.SeedDefaultChart(context.Background()))

	cash, err := svc.ByCode(context.Background(), "1000")
	require.NoError(t, err)
	assert.Equal(t, model.AccountTypeAsset, cash.Type)

	checking, err := svc.ByCode(context.Background(), "1010")
	require.NoError(t, err)
	require.NotNil(t, checking.ParentID)
	assert.Equal(t, cash.ID, *checking.ParentID)

	all, err := svc.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 18)
}
