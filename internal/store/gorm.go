package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tallybook-dev/tallybook/internal/id"
	"github.com/tallybook-dev/tallybook/internal/model"
)

// DB is the durable Store backed by gorm.
type DB struct {
	db *gorm.DB
}

// Open opens (or creates) a sqlite ledger database at path and migrates
// the schema.
func Open(path string) (*DB, error) {
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening ledger database: %w", err)
	}
	return New(gdb)
}

// New wraps an existing gorm connection and migrates the schema.
func New(gdb *gorm.DB) (*DB, error) {
	if err := gdb.AutoMigrate(
		&model.Account{},
		&model.JournalEntry{},
		&model.JournalEntryLine{},
		&model.ReconciliationRecord{},
	); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return &DB{db: gdb}, nil
}

// Transact runs fn inside a database transaction.
func (s *DB) Transact(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&DB{db: tx})
	})
}

func (s *DB) CreateAccount(ctx context.Context, a *model.Account) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Account{}).Where("code = ?", a.Code).Count(&count).Error; err != nil {
		return fmt.Errorf("checking account code: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("account code %q: %w", a.Code, ErrDuplicate)
	}
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("creating account: %w", err)
	}
	return nil
}

func (s *DB) UpdateAccount(ctx context.Context, a *model.Account) error {
	res := s.db.WithContext(ctx).Model(&model.Account{}).Where("id = ?", a.ID).
		Select("code", "name", "type", "parent_id", "updated_at").
		Updates(map[string]any{
			"code":       a.Code,
			"name":       a.Name,
			"type":       a.Type,
			"parent_id":  a.ParentID,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("updating account: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("account %s: %w", a.ID, ErrNotFound)
	}
	return nil
}

func (s *DB) DeleteAccount(ctx context.Context, accountID uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&model.Account{}, "id = ?", accountID)
	if res.Error != nil {
		return fmt.Errorf("deleting account: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("account %s: %w", accountID, ErrNotFound)
	}
	return nil
}

func (s *DB) Account(ctx context.Context, accountID uuid.UUID) (model.Account, error) {
	var a model.Account
	if err := s.db.WithContext(ctx).First(&a, "id = ?", accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Account{}, fmt.Errorf("account %s: %w", accountID, ErrNotFound)
		}
		return model.Account{}, fmt.Errorf("finding account: %w", err)
	}
	return a, nil
}

func (s *DB) AccountByCode(ctx context.Context, code string) (model.Account, error) {
	var a model.Account
	if err := s.db.WithContext(ctx).First(&a, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Account{}, fmt.Errorf("account code %q: %w", code, ErrNotFound)
		}
		return model.Account{}, fmt.Errorf("finding account: %w", err)
	}
	return a, nil
}

func (s *DB) Accounts(ctx context.Context) ([]model.Account, error) {
	var accounts []model.Account
	if err := s.db.WithContext(ctx).Order("code").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	return accounts, nil
}

func (s *DB) AddToBalance(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal) error {
	res := s.db.WithContext(ctx).Model(&model.Account{}).Where("id = ?", accountID).
		Updates(map[string]any{
			"balance":    gorm.Expr("balance + ?", delta),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("adjusting balance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("account %s: %w", accountID, ErrNotFound)
	}
	return nil
}

func (s *DB) AccountHasLines(ctx context.Context, accountID uuid.UUID) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.JournalEntryLine{}).
		Where("account_id = ?", accountID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("counting lines: %w", err)
	}
	return count > 0, nil
}

func (s *DB) CreateEntry(ctx context.Context, e *model.JournalEntry) error {
	if err := s.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("creating entry: %w", err)
	}
	return nil
}

func (s *DB) SetReversedBy(ctx context.Context, entryID, reversalID uuid.UUID) error {
	res := s.db.WithContext(ctx).Model(&model.JournalEntry{}).Where("id = ?", entryID).
		Updates(map[string]any{
			"reversed_by_id": reversalID,
			"updated_at":     time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("marking entry reversed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("entry %s: %w", entryID, ErrNotFound)
	}
	return nil
}

func (s *DB) Entry(ctx context.Context, entryID uuid.UUID) (model.JournalEntry, error) {
	var e model.JournalEntry
	err := s.db.WithContext(ctx).Preload("Lines", lineOrder).First(&e, "id = ?", entryID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.JournalEntry{}, fmt.Errorf("entry %s: %w", entryID, ErrNotFound)
		}
		return model.JournalEntry{}, fmt.Errorf("finding entry: %w", err)
	}
	return e, nil
}

func (s *DB) EntryByCode(ctx context.Context, code string) (model.JournalEntry, error) {
	var e model.JournalEntry
	err := s.db.WithContext(ctx).Preload("Lines", lineOrder).First(&e, "code = ?", code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.JournalEntry{}, fmt.Errorf("entry code %q: %w", code, ErrNotFound)
		}
		return model.JournalEntry{}, fmt.Errorf("finding entry: %w", err)
	}
	return e, nil
}

func (s *DB) Entries(ctx context.Context, f EntryFilter) ([]model.JournalEntry, error) {
	q := s.db.WithContext(ctx).Preload("Lines", lineOrder).Order("date, code")
	if f.From != nil {
		q = q.Where("date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("date <= ?", *f.To)
	}
	if f.AccountID != nil {
		q = q.Where("id IN (?)", s.db.Model(&model.JournalEntryLine{}).
			Select("entry_id").Where("account_id = ?", *f.AccountID))
	}

	var entries []model.JournalEntry
	if err := q.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	return entries, nil
}

func (s *DB) NextEntrySeq(ctx context.Context, year int) (int, error) {
	// Codes are zero-padded, so lexicographic max within a year prefix is
	// the numeric max.
	var e model.JournalEntry
	err := s.db.WithContext(ctx).
		Where("code LIKE ?", fmt.Sprintf("JE-%04d-%%", year)).
		Order("code DESC").First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("finding last entry code: %w", err)
	}

	_, seq, err := id.ParseEntryCode(e.Code)
	if err != nil {
		return 0, fmt.Errorf("parsing last entry code: %w", err)
	}
	return seq + 1, nil
}

func (s *DB) CreateReconciliation(ctx context.Context, r *model.ReconciliationRecord) error {
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return fmt.Errorf("creating reconciliation: %w", err)
	}
	return nil
}

func (s *DB) Reconciliations(ctx context.Context, accountID uuid.UUID) ([]model.ReconciliationRecord, error) {
	var records []model.ReconciliationRecord
	if err := s.db.WithContext(ctx).Where("account_id = ?", accountID).
		Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("listing reconciliations: %w", err)
	}
	return records, nil
}

func lineOrder(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}
