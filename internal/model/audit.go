package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateTaxRate     = "CREATE_TAX_RATE"
	ActionUpdateTaxRate     = "UPDATE_TAX_RATE"
	ActionDeleteTaxRate     = "DELETE_TAX_RATE"
	ActionRecordTransaction = "RECORD_TRANSACTION"
	ActionRecordTreasuryOp  = "RECORD_TREASURY_OP"
	ActionDeleteEntry       = "DELETE_ENTRY"
	ActionDeleteLinkedPair  = "DELETE_LINKED_PAIR"
	ActionSetBudgets        = "SET_BUDGETS"
	ActionCreateBatch       = "CREATE_BATCH"
	ActionMarkItemSold      = "MARK_ITEM_SOLD"
	ActionRestockItem       = "RESTOCK_ITEM"
	ActionDeleteItem        = "DELETE_ITEM"
)

// AuditLog tracks Who, What, and When for critical financial changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:jsonb" json:"details"` // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
