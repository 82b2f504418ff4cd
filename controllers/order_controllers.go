package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/shopfloor-app/hub"
	"github.com/yeremiapane/shopfloor-app/services"
	"github.com/yeremiapane/shopfloor-app/utils"
)

type OrderController struct {
	Bundles            *services.BundleService
	Publisher          services.Publisher
	DefaultBundleCount int
	Timeout            time.Duration
}

func NewOrderController(db *gorm.DB, publisher services.Publisher, operations []string, defaultBundleCount int, timeout time.Duration) *OrderController {
	return &OrderController{
		Bundles:            services.NewBundleService(db, operations),
		Publisher:          publisher,
		DefaultBundleCount: defaultBundleCount,
		Timeout:            timeout,
	}
}

// CreateOrder receives an order already parsed from an uploaded sheet and
// splits it into bundles.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var req struct {
		OrderNumber string   `json:"order_number" binding:"required"`
		TotalPieces *int     `json:"total_pieces" binding:"required"`
		BundleCount *int     `json:"bundle_count"`
		Brand       string   `json:"brand"`
		SourceFile  string   `json:"source_file"`
		Operations  []string `json:"operations"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	bundleCount := oc.DefaultBundleCount
	if req.BundleCount != nil {
		bundleCount = *req.BundleCount
	}

	ctx, cancel := requestContext(c, oc.Timeout)
	defer cancel()

	order, err := oc.Bundles.CreateOrderWithBundles(ctx, services.OrderInput{
		OrderNumber: req.OrderNumber,
		TotalPieces: *req.TotalPieces,
		BundleCount: bundleCount,
		Brand:       req.Brand,
		SourceFile:  req.SourceFile,
		Operations:  req.Operations,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	oc.Publisher.BroadcastToScanner(hub.AdminChannel, hub.Message{
		Event: hub.EventOrderCreated,
		Data: gin.H{
			"order_id":     order.ID,
			"order_number": order.OrderNumber,
			"total_pieces": order.TotalPieces,
			"bundle_count": order.BundleCount,
		},
	})
	utils.RespondJSON(c, http.StatusCreated, "Production order created", order)
}

func (oc *OrderController) GetAllOrders(c *gin.Context) {
	ctx, cancel := requestContext(c, oc.Timeout)
	defer cancel()

	orders, err := oc.Bundles.ListOrders(ctx)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Orders retrieved", orders)
}

func (oc *OrderController) GetOrderByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c, oc.Timeout)
	defer cancel()

	order, err := oc.Bundles.GetOrder(ctx, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order retrieved", order)
}

// GetOrderReport streams the bundle sheet as a PDF download.
func (oc *OrderController) GetOrderReport(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c, oc.Timeout)
	defer cancel()

	order, err := oc.Bundles.GetOrder(ctx, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := services.WriteOrderReport(&buf, order); err != nil {
		utils.ErrorLogger.Printf("Error rendering report for order %s: %v", order.OrderNumber, err)
		utils.RespondError(c, http.StatusInternalServerError, errInternal)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "order-"+order.OrderNumber+".pdf"))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
