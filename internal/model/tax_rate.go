package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxRegime enum constants
const (
	RegimeStandard   = "MICRO_STANDARD"
	RegimeACRE       = "MICRO_ACRE"
	RegimeUndeclared = "UNDECLARED"
)

// OperationType enum constants
const (
	OpTypeResale  = "RESALE"
	OpTypeService = "SERVICE"
)

// TaxRate stores the declared contribution rates for one fiscal year.
// At most one row per year; missing years fall back to the newest row.
type TaxRate struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Year        int             `gorm:"type:int;uniqueIndex;not null" json:"year"`
	ResaleRate  decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"resale_rate"`   // percent, e.g. 12.30
	ServiceRate decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"service_rate"`  // percent, e.g. 21.20
	Description string          `gorm:"type:text" json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ValidRegime reports whether s is a known tax regime.
func ValidRegime(s string) bool {
	return s == RegimeStandard || s == RegimeACRE || s == RegimeUndeclared
}

// ValidOperationType reports whether s is a known operation type.
func ValidOperationType(s string) bool {
	return s == OpTypeResale || s == OpTypeService
}
