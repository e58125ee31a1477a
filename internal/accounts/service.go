// Package accounts is the authoritative directory for the chart of
// accounts: hierarchy, type taxonomy and balance storage. Balances are
// mutated only by the posting engine.
package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tallybook-dev/tallybook/internal/model"
	"github.com/tallybook-dev/tallybook/internal/store"
)

var (
	// ErrNotFound is returned when the account does not exist.
	ErrNotFound = errors.New("account not found")
	// ErrDuplicateCode is returned when an account code is already taken.
	ErrDuplicateCode = errors.New("duplicate account code")
	// ErrParentNotFound is returned when a parent reference does not resolve.
	ErrParentNotFound = errors.New("parent account not found")
	// ErrCycleDetected is returned when re-parenting would make an account
	// its own ancestor.
	ErrCycleDetected = errors.New("account hierarchy cycle detected")
	// ErrAccountInUse is returned when deleting an account that journal
	// lines reference.
	ErrAccountInUse = errors.New("account has journal entries")
	// ErrHasChildren is returned when deleting an account that other
	// accounts still point to as parent.
	ErrHasChildren = errors.New("account has child accounts")
	// ErrInvalidAccount is returned for malformed create/update input.
	ErrInvalidAccount = errors.New("invalid account")
)

// Service provides chart-of-accounts operations over a Store.
type Service struct {
	store  store.Store
	logger *zap.Logger
}

// NewService creates an accounts Service. A nil logger disables logging.
func NewService(st store.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, logger: logger}
}

// CreateParams holds the input for creating an account.
type CreateParams struct {
	Code     string
	Name     string
	Type     model.AccountType
	ParentID *uuid.UUID
}

// Create adds an account with a zero balance.
func (s *Service) Create(ctx context.Context, params CreateParams) (model.Account, error) {
	if params.Code == "" {
		return model.Account{}, fmt.Errorf("%w: code is required", ErrInvalidAccount)
	}
	if params.Name == "" {
		return model.Account{}, fmt.Errorf("%w: name is required", ErrInvalidAccount)
	}
	if !params.Type.Valid() {
		return model.Account{}, fmt.Errorf("%w: unknown type %q", ErrInvalidAccount, params.Type)
	}

	account := model.Account{
		ID:       uuid.New(),
		Code:     params.Code,
		Name:     params.Name,
		Type:     params.Type,
		ParentID: params.ParentID,
		Balance:  decimal.Zero,
	}

	err := s.store.Transact(ctx, func(tx store.Store) error {
		if params.ParentID != nil {
			if _, err := tx.Account(ctx, *params.ParentID); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("parent %s: %w", *params.ParentID, ErrParentNotFound)
				}
				return err
			}
		}
		if err := tx.CreateAccount(ctx, &account); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return fmt.Errorf("code %q: %w", params.Code, ErrDuplicateCode)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return model.Account{}, err
	}

	s.logger.Info("account created",
		zap.String("code", account.Code),
		zap.String("type", string(account.Type)))
	return account, nil
}

// Patch holds optional field updates for an account. Nil fields are left
// unchanged; ClearParent moves the account to the top level.
type Patch struct {
	Code        *string
	Name        *string
	ParentID    *uuid.UUID
	ClearParent bool
}

// Update applies a patch. Re-parenting re-validates the cycle invariant.
func (s *Service) Update(ctx context.Context, accountID uuid.UUID, patch Patch) (model.Account, error) {
	var updated model.Account
	err := s.store.Transact(ctx, func(tx store.Store) error {
		account, err := tx.Account(ctx, accountID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("account %s: %w", accountID, ErrNotFound)
			}
			return err
		}

		if patch.Code != nil && *patch.Code != account.Code {
			if *patch.Code == "" {
				return fmt.Errorf("%w: code is required", ErrInvalidAccount)
			}
			if _, err := tx.AccountByCode(ctx, *patch.Code); err == nil {
				return fmt.Errorf("code %q: %w", *patch.Code, ErrDuplicateCode)
			} else if !errors.Is(err, store.ErrNotFound) {
				return err
			}
			account.Code = *patch.Code
		}
		if patch.Name != nil {
			if *patch.Name == "" {
				return fmt.Errorf("%w: name is required", ErrInvalidAccount)
			}
			account.Name = *patch.Name
		}

		switch {
		case patch.ClearParent:
			account.ParentID = nil
		case patch.ParentID != nil:
			if _, err := tx.Account(ctx, *patch.ParentID); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("parent %s: %w", *patch.ParentID, ErrParentNotFound)
				}
				return err
			}
			if err := s.checkNoCycle(ctx, tx, accountID, *patch.ParentID); err != nil {
				return err
			}
			parentID := *patch.ParentID
			account.ParentID = &parentID
		}

		if err := tx.UpdateAccount(ctx, &account); err != nil {
			return err
		}
		updated = account
		return nil
	})
	if err != nil {
		return model.Account{}, err
	}
	return updated, nil
}

// Delete removes an account. Accounts referenced by journal lines or by
// child accounts cannot be removed.
func (s *Service) Delete(ctx context.Context, accountID uuid.UUID) error {
	return s.store.Transact(ctx, func(tx store.Store) error {
		if _, err := tx.Account(ctx, accountID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("account %s: %w", accountID, ErrNotFound)
			}
			return err
		}

		inUse, err := tx.AccountHasLines(ctx, accountID)
		if err != nil {
			return err
		}
		if inUse {
			return fmt.Errorf("account %s: %w", accountID, ErrAccountInUse)
		}

		all, err := tx.Accounts(ctx)
		if err != nil {
			return err
		}
		for _, a := range all {
			if a.ParentID != nil && *a.ParentID == accountID {
				return fmt.Errorf("account %s: %w", accountID, ErrHasChildren)
			}
		}

		return tx.DeleteAccount(ctx, accountID)
	})
}

// Get returns an account by ID.
func (s *Service) Get(ctx context.Context, accountID uuid.UUID) (model.Account, error) {
	account, err := s.store.Account(ctx, accountID)
	if errors.Is(err, store.ErrNotFound) {
		return model.Account{}, fmt.Errorf("account %s: %w", accountID, ErrNotFound)
	}
	return account, err
}

// ByCode returns an account by its code.
func (s *Service) ByCode(ctx context.Context, code string) (model.Account, error) {
	account, err := s.store.AccountByCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return model.Account{}, fmt.Errorf("account code %q: %w", code, ErrNotFound)
	}
	return account, err
}

// All returns every account ordered by code.
func (s *Service) All(ctx context.Context) ([]model.Account, error) {
	return s.store.Accounts(ctx)
}

// Balance returns an account's balance. With rollUp false it is the
// account's own posted balance; with rollUp true it is the sum of the
// account and all of its descendants. Callers must choose explicitly.
func (s *Service) Balance(ctx context.Context, accountID uuid.UUID, rollUp bool) (decimal.Decimal, error) {
	if !rollUp {
		account, err := s.Get(ctx, accountID)
		if err != nil {
			return decimal.Zero, err
		}
		return account.Balance, nil
	}

	var total decimal.Decimal
	err := s.store.Transact(ctx, func(tx store.Store) error {
		if _, err := tx.Account(ctx, accountID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("account %s: %w", accountID, ErrNotFound)
			}
			return err
		}
		all, err := tx.Accounts(ctx)
		if err != nil {
			return err
		}

		children := childIndex(all)
		total = decimal.Zero
		stack := []uuid.UUID{accountID}
		byID := make(map[uuid.UUID]model.Account, len(all))
		for _, a := range all {
			byID[a.ID] = a
		}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			total = total.Add(byID[cur].Balance)
			for _, child := range children[cur] {
				stack = append(stack, child.ID)
			}
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// checkNoCycle walks ancestors from newParent; finding accountID on the
// walk means the new parent is a descendant of the account. The walk is
// bounded by the account count so a corrupted record cannot loop forever.
func (s *Service) checkNoCycle(ctx context.Context, tx store.Store, accountID, newParentID uuid.UUID) error {
	if accountID == newParentID {
		return fmt.Errorf("account %s cannot be its own parent: %w", accountID, ErrCycleDetected)
	}

	all, err := tx.Accounts(ctx)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]model.Account, len(all))
	for _, a := range all {
		byID[a.ID] = a
	}

	cur := newParentID
	for steps := 0; steps <= len(all); steps++ {
		account, ok := byID[cur]
		if !ok || account.ParentID == nil {
			return nil
		}
		if *account.ParentID == accountID {
			return fmt.Errorf("parent %s is a descendant of %s: %w", newParentID, accountID, ErrCycleDetected)
		}
		cur = *account.ParentID
	}
	return fmt.Errorf("ancestor walk exceeded account count: %w", ErrCycleDetected)
}

func childIndex(all []model.Account) map[uuid.UUID][]model.Account {
	children := make(map[uuid.UUID][]model.Account)
	for _, a := range all {
		if a.ParentID != nil {
			children[*a.ParentID] = append(children[*a.ParentID], a)
		}
	}
	return children
}
