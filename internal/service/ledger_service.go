package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	ws "backend/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type RecordTransactionRequest struct {
	Amount      string `json:"amount" binding:"required"` // Decimal string, positive; sign comes from entry_type
	EntryType   string `json:"entry_type" binding:"required,oneof=INCOME EXPENSE"`
	Date        string `json:"date" binding:"required"` // YYYY-MM-DD
	Category    string `json:"category" binding:"required"`
	Description string `json:"description"`
}

type TreasuryOperationRequest struct {
	Amount      string `json:"amount" binding:"required"` // Decimal string, positive
	Type        string `json:"type" binding:"required,oneof=DEPOSIT WITHDRAWAL INITIAL"`
	Date        string `json:"date" binding:"required"` // YYYY-MM-DD
	Description string `json:"description"`
}

type LedgerEntryResponse struct {
	ID          string  `json:"id"`
	LinkID      *string `json:"link_id"`
	Ledger      string  `json:"ledger"`
	Amount      string  `json:"amount"`
	Date        string  `json:"date"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	EntryType   string  `json:"entry_type"`
	CreatedAt   string  `json:"created_at"`
}

type TreasuryOperationResponse struct {
	Business *LedgerEntryResponse `json:"business"`
	Personal *LedgerEntryResponse `json:"personal"` // nil for INITIAL operations
}

type BalancesResponse struct {
	Personal string `json:"personal"`
	Business string `json:"business"`
}

// --- Interface ---

type LedgerService interface {
	RecordTransaction(ctx context.Context, userID string, req RecordTransactionRequest) (LedgerEntryResponse, error)
	// RecordTreasuryOperation moves money into or out of the business
	// treasury. DEPOSIT and WITHDRAWAL write a linked pair: one business
	// row and one personal row with the inverse amount, sharing a fresh
	// link id, both inside one database transaction. INITIAL seeds the
	// treasury and writes the business side only.
	RecordTreasuryOperation(ctx context.Context, userID string, req TreasuryOperationRequest) (TreasuryOperationResponse, error)
	// DeleteEntry removes an entry. A linked entry takes its counterpart
	// with it; rows from before link ids existed fall back to a
	// date+amount+category heuristic which deletes the counterpart only
	// when the match is unambiguous.
	DeleteEntry(ctx context.Context, userID, entryID string) error
	ListEntries(ctx context.Context, userID string, filter repository.LedgerFilter, page, limit int) ([]LedgerEntryResponse, int64, error)
	GetBalances(ctx context.Context, userID string) (BalancesResponse, error)
}

type ledgerService struct {
	ledgerRepo repository.LedgerRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
	hub        *ws.Hub
}

func NewLedgerService(
	ledgerRepo repository.LedgerRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) LedgerService {
	return &ledgerService{
		ledgerRepo: ledgerRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
		hub:        hub,
	}
}

// --- Implementation ---

func (s *ledgerService) RecordTransaction(ctx context.Context, userID string, req RecordTransactionRequest) (LedgerEntryResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return LedgerEntryResponse{}, fmt.Errorf("invalid user id: %w", err)
	}

	amount, date, err := parseAmountAndDate(req.Amount, req.Date)
	if err != nil {
		return LedgerEntryResponse{}, err
	}

	// EXPENSE entries are stored negative, INCOME positive.
	if req.EntryType == model.EntryTypeExpense {
		amount = amount.Neg()
	}

	entry := model.LedgerEntry{
		UserID:      uid,
		Ledger:      model.LedgerPersonal,
		Amount:      amount,
		Date:        date,
		Category:    req.Category,
		Description: req.Description,
		EntryType:   req.EntryType,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.ledgerRepo.Create(txCtx, &entry); createErr != nil {
			return fmt.Errorf("failed to create ledger entry: %w", createErr)
		}
		s.writeAuditLog(txCtx, &uid, model.ActionRecordTransaction, entry.ID.String(), req.Category, req)
		return nil
	})
	if err != nil {
		return LedgerEntryResponse{}, err
	}

	return toLedgerEntryResponse(entry), nil
}

func (s *ledgerService) RecordTreasuryOperation(ctx context.Context, userID string, req TreasuryOperationRequest) (TreasuryOperationResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return TreasuryOperationResponse{}, fmt.Errorf("invalid user id: %w", err)
	}

	amount, date, err := parseAmountAndDate(req.Amount, req.Date)
	if err != nil {
		return TreasuryOperationResponse{}, err
	}

	businessAmount := amount
	if req.Type == model.TreasuryWithdrawal {
		businessAmount = amount.Neg()
	}

	description := req.Description
	if description == "" {
		description = defaultTreasuryDescription(req.Type)
	}

	business := &model.LedgerEntry{
		UserID:      uid,
		Ledger:      model.LedgerBusiness,
		Amount:      businessAmount,
		Date:        date,
		Category:    model.CategoryBusinessTransfer,
		Description: description,
		EntryType:   req.Type,
	}

	var personal *model.LedgerEntry
	if req.Type != model.TreasuryInitial {
		// One fresh correlation id shared by both sides of the pair.
		linkID := uuid.New()
		business.LinkID = &linkID

		personalAmount := businessAmount.Neg()
		personalType := model.EntryTypeIncome
		personalDesc := "Withdrawal from business"
		if personalAmount.IsNegative() {
			personalType = model.EntryTypeExpense
			personalDesc = "Transfer to business"
		}

		personal = &model.LedgerEntry{
			UserID:      uid,
			LinkID:      &linkID,
			Ledger:      model.LedgerPersonal,
			Amount:      personalAmount,
			Date:        date,
			Category:    model.CategoryBusinessTransfer,
			Description: personalDesc,
			EntryType:   personalType,
		}
	} else {
		business.Category = "Treasury"
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		entries := []*model.LedgerEntry{business}
		if personal != nil {
			entries = append(entries, personal)
		}
		if createErr := s.ledgerRepo.CreateAll(txCtx, entries); createErr != nil {
			return fmt.Errorf("failed to record treasury operation: %w", createErr)
		}
		s.writeAuditLog(txCtx, &uid, model.ActionRecordTreasuryOp, business.ID.String(), req.Type, req)
		return nil
	})
	if err != nil {
		return TreasuryOperationResponse{}, err
	}

	s.publish("treasury.recorded", map[string]interface{}{
		"type":   req.Type,
		"amount": businessAmount.StringFixed(2),
		"date":   req.Date,
	})

	resp := TreasuryOperationResponse{}
	b := toLedgerEntryResponse(*business)
	resp.Business = &b
	if personal != nil {
		p := toLedgerEntryResponse(*personal)
		resp.Personal = &p
	}
	return resp, nil
}

func (s *ledgerService) DeleteEntry(ctx context.Context, userID, entryID string) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}
	id, err := uuid.Parse(entryID)
	if err != nil {
		return fmt.Errorf("invalid entry id: %w", err)
	}

	entry, err := s.ledgerRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("entry not found")
		}
		return fmt.Errorf("failed to fetch entry: %w", err)
	}
	if entry.UserID != uid {
		return fmt.Errorf("entry not found")
	}

	switch {
	case entry.LinkID != nil:
		err = s.deleteLinkedPair(ctx, uid, entry)
	case entry.Category == model.CategoryBusinessTransfer:
		err = s.deleteWithLegacyHeuristic(ctx, uid, entry)
	default:
		err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			if delErr := s.ledgerRepo.DeleteByID(txCtx, entry.ID); delErr != nil {
				return fmt.Errorf("failed to delete entry: %w", delErr)
			}
			s.writeAuditLog(txCtx, &uid, model.ActionDeleteEntry, entry.ID.String(), entry.Category, nil)
			return nil
		})
	}
	if err != nil {
		return err
	}

	s.publish("ledger.deleted", map[string]interface{}{"id": entry.ID.String(), "ledger": entry.Ledger})
	return nil
}

// deleteLinkedPair removes every entry sharing the link id, across both
// ledgers, in one transaction.
func (s *ledgerService) deleteLinkedPair(ctx context.Context, uid uuid.UUID, entry *model.LedgerEntry) error {
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		deleted, delErr := s.ledgerRepo.DeleteByLinkID(txCtx, uid, *entry.LinkID)
		if delErr != nil {
			return fmt.Errorf("failed to delete linked entries: %w", delErr)
		}
		if deleted != 2 {
			log.Printf("[ledger] WARN: link %s removed %d entries, expected 2", entry.LinkID, deleted)
		}
		s.writeAuditLog(txCtx, &uid, model.ActionDeleteLinkedPair, entry.ID.String(), entry.Category,
			map[string]interface{}{"link_id": entry.LinkID.String(), "deleted": deleted})
		return nil
	})
}

// deleteWithLegacyHeuristic handles cross-ledger rows created before link
// ids existed: the counterpart is located by exact date, exact
// sign-inverted amount and the marker category. The match is best-effort;
// the counterpart is only removed when exactly one row qualifies.
func (s *ledgerService) deleteWithLegacyHeuristic(ctx context.Context, uid uuid.UUID, entry *model.LedgerEntry) error {
	counterLedger := model.LedgerPersonal
	if entry.Ledger == model.LedgerPersonal {
		counterLedger = model.LedgerBusiness
	}

	matches, err := s.ledgerRepo.FindCounterparts(ctx, uid, counterLedger, entry.Date, entry.Amount.Neg(), model.CategoryBusinessTransfer)
	if err != nil {
		return fmt.Errorf("failed to look up counterpart: %w", err)
	}

	switch len(matches) {
	case 0:
		log.Printf("[ledger] WARN: no counterpart found for legacy entry %s (%s %s on %s)",
			entry.ID, entry.Ledger, entry.Amount, entry.Date.Format("2006-01-02"))
	case 1:
		// ok
	default:
		log.Printf("[ledger] WARN: %d counterpart candidates for legacy entry %s, deleting requested entry only",
			len(matches), entry.ID)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if delErr := s.ledgerRepo.DeleteByID(txCtx, entry.ID); delErr != nil {
			return fmt.Errorf("failed to delete entry: %w", delErr)
		}
		deleted := []string{entry.ID.String()}
		if len(matches) == 1 {
			if delErr := s.ledgerRepo.DeleteByID(txCtx, matches[0].ID); delErr != nil {
				return fmt.Errorf("failed to delete counterpart: %w", delErr)
			}
			deleted = append(deleted, matches[0].ID.String())
		}
		s.writeAuditLog(txCtx, &uid, model.ActionDeleteEntry, entry.ID.String(), entry.Category,
			map[string]interface{}{"legacy_heuristic": true, "deleted_ids": deleted, "candidates": len(matches)})
		return nil
	})
}

func (s *ledgerService) ListEntries(ctx context.Context, userID string, filter repository.LedgerFilter, page, limit int) ([]LedgerEntryResponse, int64, error) {
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

	entries, total, err := s.ledgerRepo.List(ctx, uid, filter, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch entries: %w", err)
	}

	res := make([]LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		res = append(res, toLedgerEntryResponse(e))
	}
	return res, total, nil
}

func (s *ledgerService) GetBalances(ctx context.Context, userID string) (BalancesResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return BalancesResponse{}, fmt.Errorf("invalid user id: %w", err)
	}

	personal, err := s.ledgerRepo.SumByLedger(ctx, uid, model.LedgerPersonal)
	if err != nil {
		return BalancesResponse{}, fmt.Errorf("failed to sum personal ledger: %w", err)
	}
	business, err := s.ledgerRepo.SumByLedger(ctx, uid, model.LedgerBusiness)
	if err != nil {
		return BalancesResponse{}, fmt.Errorf("failed to sum business ledger: %w", err)
	}

	return BalancesResponse{
		Personal: personal.StringFixed(2),
		Business: business.StringFixed(2),
	}, nil
}

// --- Helpers ---

func parseAmountAndDate(amountStr, dateStr string) (decimal.Decimal, time.Time, error) {
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return decimal.Zero, time.Time{}, fmt.Errorf("invalid amount: %w", err)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, time.Time{}, fmt.Errorf("amount must be greater than 0")
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return decimal.Zero, time.Time{}, fmt.Errorf("invalid date format (expected YYYY-MM-DD): %w", err)
	}
	return amount, date, nil
}

func defaultTreasuryDescription(opType string) string {
	switch opType {
	case model.TreasuryInitial:
		return "Initial balance"
	case model.TreasuryDeposit:
		return "Deposit"
	default:
		return "Withdrawal"
	}
}

func toLedgerEntryResponse(e model.LedgerEntry) LedgerEntryResponse {
	resp := LedgerEntryResponse{
		ID:          e.ID.String(),
		Ledger:      e.Ledger,
		Amount:      e.Amount.StringFixed(2),
		Date:        e.Date.Format("2006-01-02"),
		Category:    e.Category,
		Description: e.Description,
		EntryType:   e.EntryType,
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
	}
	if e.LinkID != nil {
		s := e.LinkID.String()
		resp.LinkID = &s
	}
	return resp
}

func (s *ledgerService) writeAuditLog(ctx context.Context, userID *uuid.UUID, action, entityID, entityName string, details interface{}) {
	detailsJSON, _ := json.Marshal(details)

	entry := model.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(detailsJSON),
	}

	// Best-effort audit log — don't fail the operation if logging fails
	_ = s.auditRepo.Log(ctx, &entry)
}

// publish sends an event to the websocket hub without blocking when no
// clients are connected or the hub is not running.
func (s *ledgerService) publish(event string, data map[string]interface{}) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{"event": event, "data": data})
	if err != nil {
		return
	}
	select {
	case s.hub.Broadcast <- payload:
	default:
	}
}
