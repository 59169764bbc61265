package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerFilter narrows List queries. Zero values mean "no constraint".
type LedgerFilter struct {
	Ledger   string
	From     time.Time
	To       time.Time
	Category string
}

type LedgerRepository interface {
	Create(ctx context.Context, entry *model.LedgerEntry) error
	// CreateAll inserts the entries in one statement; used for linked pairs
	// so that both sides land (or fail) together within the caller's tx.
	CreateAll(ctx context.Context, entries []*model.LedgerEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.LedgerEntry, error)
	FindByLinkID(ctx context.Context, userID, linkID uuid.UUID) ([]model.LedgerEntry, error)
	// FindCounterparts implements the legacy lookup for pre-link rows:
	// same user, opposite ledger, exact date, exact sign-inverted amount,
	// marker category.
	FindCounterparts(ctx context.Context, userID uuid.UUID, ledger string, date time.Time, amount decimal.Decimal, category string) ([]model.LedgerEntry, error)
	List(ctx context.Context, userID uuid.UUID, filter LedgerFilter, page, limit int) ([]model.LedgerEntry, int64, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
	DeleteByLinkID(ctx context.Context, userID, linkID uuid.UUID) (int64, error)
	SumByLedger(ctx context.Context, userID uuid.UUID, ledger string) (decimal.Decimal, error)
	// SumByCategory nets each category over a date window (personal ledger
	// dashboards and budget overviews).
	SumByCategory(ctx context.Context, userID uuid.UUID, ledger string, from, to time.Time) (map[string]decimal.Decimal, error)
}

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) Create(ctx context.Context, entry *model.LedgerEntry) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *ledgerRepository) CreateAll(ctx context.Context, entries []*model.LedgerEntry) error {
	return GetDB(ctx, r.db).Create(entries).Error
}

func (r *ledgerRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.LedgerEntry, error) {
	var entry model.LedgerEntry
	if err := GetDB(ctx, r.db).First(&entry, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *ledgerRepository) FindByLinkID(ctx context.Context, userID, linkID uuid.UUID) ([]model.LedgerEntry, error) {
	var entries []model.LedgerEntry
	if err := GetDB(ctx, r.db).
		Where("user_id = ? AND link_id = ?", userID, linkID).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *ledgerRepository) FindCounterparts(ctx context.Context, userID uuid.UUID, ledger string, date time.Time, amount decimal.Decimal, category string) ([]model.LedgerEntry, error) {
	var entries []model.LedgerEntry
	if err := GetDB(ctx, r.db).
		Where("user_id = ? AND ledger = ? AND date = ? AND amount = ? AND category = ? AND link_id IS NULL",
			userID, ledger, date, amount, category).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *ledgerRepository) List(ctx context.Context, userID uuid.UUID, filter LedgerFilter, page, limit int) ([]model.LedgerEntry, int64, error) {
	var entries []model.LedgerEntry
	var total int64

	query := GetDB(ctx, r.db).Model(&model.LedgerEntry{}).Where("user_id = ?", userID)
	if filter.Ledger != "" {
		query = query.Where("ledger = ?", filter.Ledger)
	}
	if !filter.From.IsZero() {
		query = query.Where("date >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("date <= ?", filter.To)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("date DESC, created_at DESC").Offset(offset).Limit(limit).Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

func (r *ledgerRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.LedgerEntry{}).Error
}

func (r *ledgerRepository) DeleteByLinkID(ctx context.Context, userID, linkID uuid.UUID) (int64, error) {
	res := GetDB(ctx, r.db).
		Where("user_id = ? AND link_id = ?", userID, linkID).
		Delete(&model.LedgerEntry{})
	return res.RowsAffected, res.Error
}

func (r *ledgerRepository) SumByLedger(ctx context.Context, userID uuid.UUID, ledger string) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := GetDB(ctx, r.db).Model(&model.LedgerEntry{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ? AND ledger = ?", userID, ledger).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

func (r *ledgerRepository) SumByCategory(ctx context.Context, userID uuid.UUID, ledger string, from, to time.Time) (map[string]decimal.Decimal, error) {
	type row struct {
		Category string
		Total    decimal.Decimal
	}
	var rows []row
	if err := GetDB(ctx, r.db).Model(&model.LedgerEntry{}).
		Select("category, COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ? AND ledger = ? AND date >= ? AND date <= ?", userID, ledger, from, to).
		Group("category").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	totals := make(map[string]decimal.Decimal, len(rows))
	for _, r := range rows {
		totals[r.Category] = r.Total
	}
	return totals, nil
}
