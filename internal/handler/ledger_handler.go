package handler

import (
	"net/http"
	"time"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type LedgerHandler struct {
	ledgerService service.LedgerService
}

func NewLedgerHandler(ledgerService service.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService}
}

func (h *LedgerHandler) RegisterRoutes(router *gin.RouterGroup) {
	ledger := router.Group("/ledger")
	ledger.Use(middleware.RequireAuth())
	{
		ledger.POST("/transactions", h.RecordTransaction)
		ledger.POST("/treasury", h.RecordTreasuryOperation)
		ledger.GET("/entries", h.ListEntries)
		ledger.DELETE("/entries/:id", h.DeleteEntry)
		ledger.GET("/balances", h.GetBalances)
	}
}

// RecordTransaction records an income or expense on the personal ledger
// @Summary      Record transaction
// @Description  Records an income or expense entry. Expenses are stored with a negative amount.
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.RecordTransactionRequest  true  "Transaction Payload"
// @Success      201      {object}  response.Response{data=service.LedgerEntryResponse}
// @Failure      400      {object}  response.Response
// @Router       /ledger/transactions [post]
func (h *LedgerHandler) RecordTransaction(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req service.RecordTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	entry, err := h.ledgerService.RecordTransaction(c.Request.Context(), userID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, entry))
}

// RecordTreasuryOperation moves money between the personal and business ledgers
// @Summary      Record treasury operation
// @Description  DEPOSIT and WITHDRAWAL write a linked pair (business entry plus inverse personal entry) atomically. INITIAL seeds the business treasury only.
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.TreasuryOperationRequest  true  "Treasury Payload"
// @Success      201      {object}  response.Response{data=service.TreasuryOperationResponse}
// @Failure      400      {object}  response.Response
// @Router       /ledger/treasury [post]
func (h *LedgerHandler) RecordTreasuryOperation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req service.TreasuryOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	res, err := h.ledgerService.RecordTreasuryOperation(c.Request.Context(), userID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, res))
}

// ListEntries returns a paginated, filtered slice of ledger entries
// @Summary      List ledger entries
// @Tags         ledger
// @Produce      json
// @Security     BearerAuth
// @Param        ledger    query     string  false  "personal or business"
// @Param        category  query     string  false  "Category filter"
// @Param        from      query     string  false  "Start date (YYYY-MM-DD)"
// @Param        to        query     string  false  "End date (YYYY-MM-DD)"
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Items per page (default 20)"
// @Success      200       {object}  response.Response{data=object}
// @Router       /ledger/entries [get]
func (h *LedgerHandler) ListEntries(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	filter := repository.LedgerFilter{
		Ledger:   c.Query("ledger"),
		Category: c.Query("category"),
	}
	if filter.Ledger != "" && !model.ValidLedger(filter.Ledger) {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid 'ledger' value"))
		return
	}
	if from := c.Query("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid 'from' date (expected YYYY-MM-DD)"))
			return
		}
		filter.From = t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid 'to' date (expected YYYY-MM-DD)"))
			return
		}
		filter.To = t
	}

	p := pagination.Parse(c)

	entries, total, err := h.ledgerService.ListEntries(c.Request.Context(), userID, filter, p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch entries"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"entries": entries,
		"total":   total,
		"page":    p.Page,
		"limit":   p.Limit,
	}))
}

// DeleteEntry removes an entry; linked entries take their counterpart with them
// @Summary      Delete ledger entry
// @Description  Deletes an entry. Entries that carry a link ID remove both sides of the pair atomically.
// @Tags         ledger
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Entry ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /ledger/entries/{id} [delete]
func (h *LedgerHandler) DeleteEntry(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.ledgerService.DeleteEntry(c.Request.Context(), userID, c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Entry deleted successfully"))
}

// GetBalances returns the summed balance of each ledger
func (h *LedgerHandler) GetBalances(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	balances, err := h.ledgerService.GetBalances(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to compute balances"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, balances))
}
