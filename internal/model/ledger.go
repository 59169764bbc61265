package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ledger name constants
const (
	LedgerPersonal = "personal"
	LedgerBusiness = "business"
)

// EntryType enum constants for personal entries
const (
	EntryTypeIncome  = "INCOME"
	EntryTypeExpense = "EXPENSE"
)

// TreasuryOp enum constants for business entries
const (
	TreasuryDeposit    = "DEPOSIT"
	TreasuryWithdrawal = "WITHDRAWAL"
	TreasuryInitial    = "INITIAL"
)

// CategoryBusinessTransfer marks the personal side of a cross-ledger
// movement. Entries created before link ids existed carry only this
// marker, so the legacy deletion path matches on it.
const CategoryBusinessTransfer = "Business"

// LedgerEntry is one signed money movement in either the personal or the
// business ledger. The two sides of a cross-ledger transfer share a LinkID
// and carry sign-inverted amounts.
type LedgerEntry struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	LinkID      *uuid.UUID      `gorm:"type:uuid;index" json:"link_id"` // nil for unlinked entries
	Ledger      string          `gorm:"type:varchar(20);not null;index" json:"ledger"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"` // signed
	Date        time.Time       `gorm:"type:date;not null;index" json:"date"`
	Category    string          `gorm:"type:varchar(100);not null" json:"category"`
	Description string          `gorm:"type:text" json:"description"`
	EntryType   string          `gorm:"type:varchar(20);not null" json:"entry_type"` // INCOME/EXPENSE or DEPOSIT/WITHDRAWAL/INITIAL
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ValidLedger reports whether s names a known ledger.
func ValidLedger(s string) bool {
	return s == LedgerPersonal || s == LedgerBusiness
}
