package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type TaxRateHandler struct {
	taxRateService service.TaxRateService
}

func NewTaxRateHandler(taxRateService service.TaxRateService) *TaxRateHandler {
	return &TaxRateHandler{taxRateService: taxRateService}
}

func (h *TaxRateHandler) RegisterRoutes(router *gin.RouterGroup) {
	rates := router.Group("/tax-rates")
	rates.Use(middleware.RequireAuth())
	{
		rates.GET("", h.GetTaxRates)
		rates.POST("", h.CreateTaxRate)
		rates.PUT("/:id", h.UpdateTaxRate)
		rates.DELETE("/:id", h.DeleteTaxRate)
		rates.POST("/estimate", h.EstimateTax)
	}
}

// GetTaxRates returns all configured rate entries ordered by year DESC
func (h *TaxRateHandler) GetTaxRates(c *gin.Context) {
	rates, err := h.taxRateService.GetTaxRates(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, rates))
}

// CreateTaxRate creates a new per-year rate entry
func (h *TaxRateHandler) CreateTaxRate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req service.CreateTaxRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	rate, err := h.taxRateService.CreateTaxRate(c.Request.Context(), userID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, rate))
}

// UpdateTaxRate updates an existing rate entry
func (h *TaxRateHandler) UpdateTaxRate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req service.UpdateTaxRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	rate, err := h.taxRateService.UpdateTaxRate(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, rate))
}

// DeleteTaxRate removes a rate entry by ID
func (h *TaxRateHandler) DeleteTaxRate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.taxRateService.DeleteTaxRate(c.Request.Context(), userID, c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Tax rate deleted successfully"))
}

// EstimateTax computes the tax owed for an amount under a given regime
// @Summary      Estimate tax
// @Description  Computes the tax for an amount, operation type and regime using the configured rate table. The result rounds up to the cent.
// @Tags         tax-rates
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.EstimateTaxRequest  true  "Estimate Payload"
// @Success      200      {object}  response.Response{data=service.EstimateTaxResponse}
// @Failure      400      {object}  response.Response
// @Router       /tax-rates/estimate [post]
func (h *TaxRateHandler) EstimateTax(c *gin.Context) {
	var req service.EstimateTaxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	res, err := h.taxRateService.EstimateTax(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}
