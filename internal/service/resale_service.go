package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/tax"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type BatchItemRequest struct {
	Name          string `json:"name" binding:"required"`
	PurchasePrice string `json:"purchase_price" binding:"required"` // Decimal string
}

type CreateBatchRequest struct {
	Name       string             `json:"name" binding:"required"`
	TaxProfile string             `json:"tax_profile" binding:"required,oneof=MICRO_STANDARD MICRO_ACRE UNDECLARED"`
	BatchType  string             `json:"batch_type" binding:"omitempty,oneof=MANUAL BOT"`
	Items      []BatchItemRequest `json:"items" binding:"required,min=1,dive"`
}

type MarkItemSoldRequest struct {
	SoldPrice string `json:"sold_price" binding:"required"` // Decimal string
	SoldDate  string `json:"sold_date" binding:"required"`  // YYYY-MM-DD
}

type ResaleItemResponse struct {
	ID            string  `json:"id"`
	BatchID       string  `json:"batch_id"`
	Name          string  `json:"name"`
	PurchasePrice string  `json:"purchase_price"`
	SoldPrice     *string `json:"sold_price"`
	SoldDate      *string `json:"sold_date"`
	Status        string  `json:"status"`
}

type BatchResponse struct {
	ID         string               `json:"id"`
	Name       string               `json:"name"`
	TotalCost  string               `json:"total_cost"`
	ItemCount  int                  `json:"item_count"`
	TaxProfile string               `json:"tax_profile"`
	BatchType  string               `json:"batch_type"`
	Status     string               `json:"status"`
	IsArchived bool                 `json:"is_archived"`
	Items      []ResaleItemResponse `json:"items"`
	CreatedAt  string               `json:"created_at"`
}

type ItemProfitResponse struct {
	Revenue   string `json:"revenue"`
	Cost      string `json:"cost"`
	Tax       string `json:"tax"`
	NetProfit string `json:"net_profit"`
	SaleYear  int    `json:"sale_year"`
	Degraded  bool   `json:"degraded"`
}

// --- Interface ---

type ResaleService interface {
	CreateBatch(ctx context.Context, userID string, req CreateBatchRequest) (BatchResponse, error)
	ListBatches(ctx context.Context, userID string, includeArchived bool, page, limit int) ([]BatchResponse, int64, error)
	// MarkItemSold records the sale; when every item of the batch is sold
	// the batch is archived.
	MarkItemSold(ctx context.Context, userID, itemID string, req MarkItemSoldRequest) (ResaleItemResponse, error)
	// RestockItem reverses a sale and unarchives the batch if needed.
	RestockItem(ctx context.Context, userID, itemID string) (ResaleItemResponse, error)
	DeleteItem(ctx context.Context, userID, itemID string) error
	// GetItemProfit reports revenue, cost, tax and net margin for a sold
	// item, taxed with the rates of its sale year and the batch regime.
	GetItemProfit(ctx context.Context, userID, itemID string) (ItemProfitResponse, error)
}

type resaleService struct {
	batchRepo repository.BatchRepository
	itemRepo  repository.ResaleItemRepository
	rateRepo  repository.TaxRateRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
}

func NewResaleService(
	batchRepo repository.BatchRepository,
	itemRepo repository.ResaleItemRepository,
	rateRepo repository.TaxRateRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) ResaleService {
	return &resaleService{
		batchRepo: batchRepo,
		itemRepo:  itemRepo,
		rateRepo:  rateRepo,
		auditRepo: auditRepo,
		txManager: txManager,
	}
}

// --- Implementation ---

func (s *resaleService) CreateBatch(ctx context.Context, userID string, req CreateBatchRequest) (BatchResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return BatchResponse{}, fmt.Errorf("invalid user id: %w", err)
	}

	items := make([]*model.ResaleItem, 0, len(req.Items))
	totalCost := decimal.Zero
	for _, itemReq := range req.Items {
		price, parseErr := decimal.NewFromString(itemReq.PurchasePrice)
		if parseErr != nil {
			return BatchResponse{}, fmt.Errorf("invalid purchase_price for %q: %w", itemReq.Name, parseErr)
		}
		if price.IsNegative() {
			return BatchResponse{}, fmt.Errorf("purchase_price for %q must not be negative", itemReq.Name)
		}
		totalCost = totalCost.Add(price)
		items = append(items, &model.ResaleItem{
			UserID:        uid,
			Name:          itemReq.Name,
			PurchasePrice: price,
			Status:        model.ItemStatusAvailable,
		})
	}

	batchType := req.BatchType
	if batchType == "" {
		batchType = model.BatchTypeManual
	}

	batch := model.InventoryBatch{
		UserID:     uid,
		Name:       req.Name,
		TotalCost:  totalCost,
		ItemCount:  len(items),
		TaxProfile: req.TaxProfile,
		BatchType:  batchType,
		Status:     model.BatchStatusActive,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.batchRepo.Create(txCtx, &batch); createErr != nil {
			return fmt.Errorf("failed to create batch: %w", createErr)
		}
		for _, item := range items {
			item.BatchID = batch.ID
		}
		if createErr := s.itemRepo.CreateAll(txCtx, items); createErr != nil {
			return fmt.Errorf("failed to create batch items: %w", createErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"name":        req.Name,
			"tax_profile": req.TaxProfile,
			"item_count":  len(items),
			"total_cost":  totalCost.StringFixed(2),
		})
		_ = s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     &uid,
			Action:     model.ActionCreateBatch,
			EntityID:   batch.ID.String(),
			EntityName: batch.Name,
			Details:    string(details),
		})
		return nil
	})
	if err != nil {
		return BatchResponse{}, err
	}

	for _, item := range items {
		batch.Items = append(batch.Items, *item)
	}
	return toBatchResponse(batch), nil
}

func (s *resaleService) ListBatches(ctx context.Context, userID string, includeArchived bool, page, limit int) ([]BatchResponse, int64, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid user id: %w", err)
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	batches, total, err := s.batchRepo.List(ctx, uid, includeArchived, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch batches: %w", err)
	}

	res := make([]BatchResponse, 0, len(batches))
	for _, b := range batches {
		res = append(res, toBatchResponse(b))
	}
	return res, total, nil
}

func (s *resaleService) MarkItemSold(ctx context.Context, userID, itemID string, req MarkItemSoldRequest) (ResaleItemResponse, error) {
	uid, item, err := s.findUserItem(ctx, userID, itemID)
	if err != nil {
		return ResaleItemResponse{}, err
	}
	if item.Status == model.ItemStatusSold {
		return ResaleItemResponse{}, fmt.Errorf("item is already sold")
	}

	soldPrice, err := decimal.NewFromString(req.SoldPrice)
	if err != nil {
		return ResaleItemResponse{}, fmt.Errorf("invalid sold_price: %w", err)
	}
	if soldPrice.LessThanOrEqual(decimal.Zero) {
		return ResaleItemResponse{}, fmt.Errorf("sold_price must be greater than 0")
	}
	soldDate, err := time.Parse("2006-01-02", req.SoldDate)
	if err != nil {
		return ResaleItemResponse{}, fmt.Errorf("invalid sold_date format (expected YYYY-MM-DD): %w", err)
	}

	item.Status = model.ItemStatusSold
	item.SoldPrice = &soldPrice
	item.SoldDate = &soldDate

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if saveErr := s.itemRepo.Update(txCtx, item); saveErr != nil {
			return fmt.Errorf("failed to update item: %w", saveErr)
		}

		// Archive the batch once nothing is left to sell.
		remaining, countErr := s.itemRepo.CountByBatchAndStatus(txCtx, item.BatchID, model.ItemStatusAvailable)
		if countErr != nil {
			return fmt.Errorf("failed to count remaining items: %w", countErr)
		}
		if remaining == 0 {
			if archErr := s.batchRepo.SetArchived(txCtx, item.BatchID, true); archErr != nil {
				return fmt.Errorf("failed to archive batch: %w", archErr)
			}
		}

		details, _ := json.Marshal(req)
		_ = s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     &uid,
			Action:     model.ActionMarkItemSold,
			EntityID:   item.ID.String(),
			EntityName: item.Name,
			Details:    string(details),
		})
		return nil
	})
	if err != nil {
		return ResaleItemResponse{}, err
	}

	return toResaleItemResponse(*item), nil
}

func (s *resaleService) RestockItem(ctx context.Context, userID, itemID string) (ResaleItemResponse, error) {
	uid, item, err := s.findUserItem(ctx, userID, itemID)
	if err != nil {
		return ResaleItemResponse{}, err
	}
	if item.Status != model.ItemStatusSold {
		return ResaleItemResponse{}, fmt.Errorf("item is not sold")
	}

	item.Status = model.ItemStatusAvailable
	item.SoldPrice = nil
	item.SoldDate = nil

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if saveErr := s.itemRepo.Update(txCtx, item); saveErr != nil {
			return fmt.Errorf("failed to update item: %w", saveErr)
		}
		if archErr := s.batchRepo.SetArchived(txCtx, item.BatchID, false); archErr != nil {
			return fmt.Errorf("failed to unarchive batch: %w", archErr)
		}

		_ = s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     &uid,
			Action:     model.ActionRestockItem,
			EntityID:   item.ID.String(),
			EntityName: item.Name,
			Details:    `{"restocked": true}`,
		})
		return nil
	})
	if err != nil {
		return ResaleItemResponse{}, err
	}

	return toResaleItemResponse(*item), nil
}

func (s *resaleService) DeleteItem(ctx context.Context, userID, itemID string) error {
	uid, item, err := s.findUserItem(ctx, userID, itemID)
	if err != nil {
		return err
	}

	batch, err := s.batchRepo.FindByID(ctx, item.BatchID)
	if err != nil {
		return fmt.Errorf("failed to fetch batch: %w", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if delErr := s.itemRepo.Delete(txCtx, item.ID); delErr != nil {
			return fmt.Errorf("failed to delete item: %w", delErr)
		}

		batch.ItemCount--
		batch.TotalCost = batch.TotalCost.Sub(item.PurchasePrice)
		if saveErr := s.batchRepo.Update(txCtx, batch); saveErr != nil {
			return fmt.Errorf("failed to update batch: %w", saveErr)
		}

		_ = s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     &uid,
			Action:     model.ActionDeleteItem,
			EntityID:   item.ID.String(),
			EntityName: item.Name,
			Details:    `{"deleted": true}`,
		})
		return nil
	})
}

func (s *resaleService) GetItemProfit(ctx context.Context, userID, itemID string) (ItemProfitResponse, error) {
	_, item, err := s.findUserItem(ctx, userID, itemID)
	if err != nil {
		return ItemProfitResponse{}, err
	}
	if item.Status != model.ItemStatusSold || item.SoldPrice == nil {
		return ItemProfitResponse{}, fmt.Errorf("item is not sold")
	}

	batch, err := s.batchRepo.FindByID(ctx, item.BatchID)
	if err != nil {
		return ItemProfitResponse{}, fmt.Errorf("failed to fetch batch: %w", err)
	}

	rates, err := s.rateRepo.ListAll(ctx)
	if err != nil {
		return ItemProfitResponse{}, fmt.Errorf("failed to load rate table: %w", err)
	}

	saleYear := time.Now().Year()
	if item.SoldDate != nil {
		saleYear = item.SoldDate.Year()
	}

	profit, res := tax.NetProfit(*item.SoldPrice, item.PurchasePrice, model.OpTypeResale, batch.TaxProfile, rates, saleYear)

	return ItemProfitResponse{
		Revenue:   item.SoldPrice.StringFixed(2),
		Cost:      item.PurchasePrice.StringFixed(2),
		Tax:       res.Tax.StringFixed(2),
		NetProfit: profit.StringFixed(2),
		SaleYear:  saleYear,
		Degraded:  res.Degraded,
	}, nil
}

// --- Helpers ---

func (s *resaleService) findUserItem(ctx context.Context, userID, itemID string) (uuid.UUID, *model.ResaleItem, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("invalid user id: %w", err)
	}
	id, err := uuid.Parse(itemID)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("invalid item id: %w", err)
	}

	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, nil, fmt.Errorf("item not found")
		}
		return uuid.Nil, nil, fmt.Errorf("failed to fetch item: %w", err)
	}
	if item.UserID != uid {
		return uuid.Nil, nil, fmt.Errorf("item not found")
	}
	return uid, item, nil
}

func toResaleItemResponse(item model.ResaleItem) ResaleItemResponse {
	resp := ResaleItemResponse{
		ID:            item.ID.String(),
		BatchID:       item.BatchID.String(),
		Name:          item.Name,
		PurchasePrice: item.PurchasePrice.StringFixed(2),
		Status:        item.Status,
	}
	if item.SoldPrice != nil {
		s := item.SoldPrice.StringFixed(2)
		resp.SoldPrice = &s
	}
	if item.SoldDate != nil {
		s := item.SoldDate.Format("2006-01-02")
		resp.SoldDate = &s
	}
	return resp
}

func toBatchResponse(b model.InventoryBatch) BatchResponse {
	resp := BatchResponse{
		ID:         b.ID.String(),
		Name:       b.Name,
		TotalCost:  b.TotalCost.StringFixed(2),
		ItemCount:  b.ItemCount,
		TaxProfile: b.TaxProfile,
		BatchType:  b.BatchType,
		Status:     b.Status,
		IsArchived: b.IsArchived,
		Items:      make([]ResaleItemResponse, 0, len(b.Items)),
		CreatedAt:  b.CreatedAt.Format(time.RFC3339),
	}
	for _, item := range b.Items {
		resp.Items = append(resp.Items, toResaleItemResponse(item))
	}
	return resp
}
