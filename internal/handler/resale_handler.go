package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ResaleHandler struct {
	resaleService service.ResaleService
}

func NewResaleHandler(resaleService service.ResaleService) *ResaleHandler {
	return &ResaleHandler{resaleService: resaleService}
}

func (h *ResaleHandler) RegisterRoutes(router *gin.RouterGroup) {
	resale := router.Group("/resale")
	resale.Use(middleware.RequireAuth())
	{
		resale.POST("/batches", h.CreateBatch)
		resale.GET("/batches", h.ListBatches)
		resale.POST("/items/:id/sold", h.MarkItemSold)
		resale.POST("/items/:id/restock", h.RestockItem)
		resale.DELETE("/items/:id", h.DeleteItem)
		resale.GET("/items/:id/profit", h.GetItemProfit)
	}
}

// CreateBatch creates an inventory batch with its items
func (h *ResaleHandler) CreateBatch(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req service.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	batch, err := h.resaleService.CreateBatch(c.Request.Context(), userID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, batch))
}

// ListBatches lists inventory batches, optionally including archived ones
func (h *ResaleHandler) ListBatches(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	includeArchived := c.Query("include_archived") == "true"
	p := pagination.Parse(c)

	batches, total, err := h.resaleService.ListBatches(c.Request.Context(), userID, includeArchived, p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch batches"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"batches": batches,
		"total":   total,
		"page":    p.Page,
		"limit":   p.Limit,
	}))
}

// MarkItemSold records a sale for an item; the batch archives itself once
// every item is sold
func (h *ResaleHandler) MarkItemSold(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req service.MarkItemSoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.resaleService.MarkItemSold(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// RestockItem reverts a sale, returning the item to Available
func (h *ResaleHandler) RestockItem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	item, err := h.resaleService.RestockItem(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// DeleteItem removes an item and adjusts the batch totals
func (h *ResaleHandler) DeleteItem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.resaleService.DeleteItem(c.Request.Context(), userID, c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Item deleted successfully"))
}

// GetItemProfit returns the net profit breakdown for a sold item
func (h *ResaleHandler) GetItemProfit(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	profit, err := h.resaleService.GetItemProfit(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, profit))
}
