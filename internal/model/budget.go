package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MonthlyBudget is the spending cap a user sets for one category in one
// month. MonthKey uses the "YYYY-MM" form so rows sort and group naturally.
type MonthlyBudget struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_budget_user_month_cat" json:"user_id"`
	MonthKey  string          `gorm:"type:varchar(7);not null;uniqueIndex:idx_budget_user_month_cat" json:"month_key"`
	Category  string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_budget_user_month_cat" json:"category"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
