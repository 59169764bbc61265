package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BatchType enum constants
const (
	BatchTypeManual = "MANUAL"
	BatchTypeBot    = "BOT"
)

// BatchStatus constants
const (
	BatchStatusDraft  = "DRAFT"
	BatchStatusActive = "ACTIVE"
)

// ItemStatus constants
const (
	ItemStatusAvailable = "Available"
	ItemStatusSold      = "Sold"
)

// InventoryBatch groups resale items bought together. TaxProfile is the
// regime applied to every sale from the batch.
type InventoryBatch struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	Name       string          `gorm:"type:varchar(255);not null" json:"name"`
	TotalCost  decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_cost"`
	ItemCount  int             `gorm:"type:int;not null;default:0" json:"item_count"`
	TaxProfile string          `gorm:"type:varchar(30);not null;default:'MICRO_STANDARD'" json:"tax_profile"`
	BatchType  string          `gorm:"type:varchar(20);not null;default:'MANUAL'" json:"batch_type"`
	Status     string          `gorm:"type:varchar(20);not null;default:'ACTIVE'" json:"status"`
	IsArchived bool            `gorm:"default:false" json:"is_archived"`
	Items      []ResaleItem    `gorm:"foreignKey:BatchID" json:"items,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ResaleItem is a single unit tracked from purchase to sale.
type ResaleItem struct {
	ID            uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BatchID       uuid.UUID        `gorm:"type:uuid;not null;index" json:"batch_id"`
	UserID        uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	Name          string           `gorm:"type:varchar(255);not null" json:"name"`
	PurchasePrice decimal.Decimal  `gorm:"type:decimal(18,2);not null" json:"purchase_price"`
	SoldPrice     *decimal.Decimal `gorm:"type:decimal(18,2)" json:"sold_price"`
	SoldDate      *time.Time       `gorm:"type:date;index" json:"sold_date"`
	Status        string           `gorm:"type:varchar(20);not null;default:'Available';index" json:"status"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}
