package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BatchRepository interface {
	Create(ctx context.Context, batch *model.InventoryBatch) error
	Update(ctx context.Context, batch *model.InventoryBatch) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.InventoryBatch, error)
	FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.InventoryBatch, error)
	List(ctx context.Context, userID uuid.UUID, includeArchived bool, page, limit int) ([]model.InventoryBatch, int64, error)
	SetArchived(ctx context.Context, id uuid.UUID, archived bool) error
}

type ResaleItemRepository interface {
	CreateAll(ctx context.Context, items []*model.ResaleItem) error
	Update(ctx context.Context, item *model.ResaleItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ResaleItem, error)
	CountByBatchAndStatus(ctx context.Context, batchID uuid.UUID, status string) (int64, error)
	ListByBatch(ctx context.Context, batchID uuid.UUID) ([]model.ResaleItem, error)
	// ListSoldInRange returns items sold within [from, to], the input of
	// monthly tax estimates.
	ListSoldInRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]model.ResaleItem, error)
}

type batchRepository struct {
	db *gorm.DB
}

func NewBatchRepository(db *gorm.DB) BatchRepository {
	return &batchRepository{db: db}
}

func (r *batchRepository) Create(ctx context.Context, batch *model.InventoryBatch) error {
	return GetDB(ctx, r.db).Create(batch).Error
}

func (r *batchRepository) Update(ctx context.Context, batch *model.InventoryBatch) error {
	return GetDB(ctx, r.db).Save(batch).Error
}

func (r *batchRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.InventoryBatch, error) {
	var batch model.InventoryBatch
	if err := GetDB(ctx, r.db).First(&batch, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *batchRepository) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.InventoryBatch, error) {
	var batch model.InventoryBatch
	if err := GetDB(ctx, r.db).Preload("Items").First(&batch, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *batchRepository) List(ctx context.Context, userID uuid.UUID, includeArchived bool, page, limit int) ([]model.InventoryBatch, int64, error) {
	var batches []model.InventoryBatch
	var total int64

	query := GetDB(ctx, r.db).Model(&model.InventoryBatch{}).Where("user_id = ?", userID)
	if !includeArchived {
		query = query.Where("is_archived = ?", false)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Preload("Items").Order("created_at DESC").Offset(offset).Limit(limit).Find(&batches).Error; err != nil {
		return nil, 0, err
	}

	return batches, total, nil
}

func (r *batchRepository) SetArchived(ctx context.Context, id uuid.UUID, archived bool) error {
	return GetDB(ctx, r.db).Model(&model.InventoryBatch{}).
		Where("id = ?", id).
		Update("is_archived", archived).Error
}

type resaleItemRepository struct {
	db *gorm.DB
}

func NewResaleItemRepository(db *gorm.DB) ResaleItemRepository {
	return &resaleItemRepository{db: db}
}

func (r *resaleItemRepository) CreateAll(ctx context.Context, items []*model.ResaleItem) error {
	return GetDB(ctx, r.db).Create(items).Error
}

func (r *resaleItemRepository) Update(ctx context.Context, item *model.ResaleItem) error {
	return GetDB(ctx, r.db).Save(item).Error
}

func (r *resaleItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.ResaleItem{}).Error
}

func (r *resaleItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ResaleItem, error) {
	var item model.ResaleItem
	if err := GetDB(ctx, r.db).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *resaleItemRepository) CountByBatchAndStatus(ctx context.Context, batchID uuid.UUID, status string) (int64, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.ResaleItem{}).
		Where("batch_id = ? AND status = ?", batchID, status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *resaleItemRepository) ListByBatch(ctx context.Context, batchID uuid.UUID) ([]model.ResaleItem, error) {
	var items []model.ResaleItem
	if err := GetDB(ctx, r.db).
		Where("batch_id = ?", batchID).
		Order("created_at").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *resaleItemRepository) ListSoldInRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]model.ResaleItem, error) {
	var items []model.ResaleItem
	if err := GetDB(ctx, r.db).
		Where("user_id = ? AND status = ? AND sold_date >= ? AND sold_date <= ?",
			userID, model.ItemStatusSold, from, to).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
