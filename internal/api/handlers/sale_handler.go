package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/retail-platform/sales-service/internal/application"
	"github.com/retail-platform/sales-service/pkg/api"
	"github.com/retail-platform/sales-service/pkg/errors"
	"github.com/retail-platform/sales-service/pkg/logging"
	"github.com/retail-platform/sales-service/pkg/middleware"
)

// query parameters reserved for pagination and ordering; everything
// else on the list endpoint is treated as a filter
var reservedListParams = map[string]struct{}{
	"page":     {},
	"pageSize": {},
	"order":    {},
}

// SaleHandler handles HTTP requests for sales
type SaleHandler struct {
	service  *application.SaleService
	logger   *logging.Logger
	business *middleware.BusinessMetrics
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(service *application.SaleService, logger *logging.Logger, business *middleware.BusinessMetrics) *SaleHandler {
	return &SaleHandler{
		service:  service,
		logger:   logger,
		business: business,
	}
}

// RegisterRoutes registers the sale routes on the given router group
func (h *SaleHandler) RegisterRoutes(router *gin.RouterGroup) {
	sales := router.Group("/sales")
	{
		sales.POST("", h.CreateSale)
		sales.GET("", h.ListSales)
		sales.GET("/:saleId", h.GetSale)
		sales.PUT("/:saleId", h.UpdateSale)
		sales.DELETE("/:saleId", h.CancelSale)
	}
}

// CreateSale handles POST /api/v1/sales
func (h *SaleHandler) CreateSale(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var cmd application.CreateSaleCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	result, err := h.service.CreateSale(c.Request.Context(), cmd)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	if h.business != nil {
		h.business.RecordSaleCreated(result.BranchName)
	}

	c.JSON(http.StatusCreated, gin.H{"data": result})
}

// GetSale handles GET /api/v1/sales/:saleId
func (h *SaleHandler) GetSale(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	saleID := c.Param("saleId")

	result, err := h.service.GetSale(c.Request.Context(), saleID)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// ListSales handles GET /api/v1/sales
func (h *SaleHandler) ListSales(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	pageReq := api.ParsePagination(c)

	query := application.ListSalesQuery{
		Page:     pageReq.Page,
		PageSize: pageReq.PageSize,
		Order:    c.Query("order"),
		Filters:  filterParams(c),
	}

	result, err := h.service.ListSales(c.Request.Context(), query)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// UpdateSale handles PUT /api/v1/sales/:saleId
func (h *SaleHandler) UpdateSale(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	saleID := c.Param("saleId")

	var cmd application.UpdateSaleCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	result, err := h.service.UpdateSale(c.Request.Context(), saleID, cmd)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	if h.business != nil {
		h.business.RecordSaleUpdated("modified")
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// CancelSale handles DELETE /api/v1/sales/:saleId. The sale record is
// kept and marked cancelled rather than removed.
func (h *SaleHandler) CancelSale(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	saleID := c.Param("saleId")

	if err := h.service.CancelSale(c.Request.Context(), saleID); err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	if h.business != nil {
		h.business.RecordSaleCancelled()
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Sale cancelled successfully",
	})
}

func filterParams(c *gin.Context) map[string]string {
	filters := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if _, reserved := reservedListParams[key]; reserved {
			continue
		}
		if len(values) > 0 {
			filters[key] = values[0]
		}
	}
	return filters
}
