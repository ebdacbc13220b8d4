package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "woodshop/internal/errors"
	"woodshop/internal/models"
	"woodshop/internal/pagination"
	"woodshop/internal/services"
)

// OrderHandler handles order and order item requests.
type OrderHandler struct {
	orderService services.OrderServicer
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderService services.OrderServicer) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// OrderItemRequest is one material line. Unit price is in cents and defaults
// to the material's current price.
type OrderItemRequest struct {
	MaterialID uint    `json:"material_id" binding:"required"`
	Quantity   float64 `json:"quantity" binding:"required,gt=0,max=1000000"`
	UnitPrice  *int64  `json:"unit_price" binding:"omitempty,min=0,max=10000000000"`
}

// CreateOrderRequest represents the order creation payload
type CreateOrderRequest struct {
	Number      string             `json:"number" binding:"required,max=50"`
	Customer    string             `json:"customer" binding:"required,max=200"`
	Description string             `json:"description"`
	EntryDate   string             `json:"entry_date" binding:"omitempty,date_ymd"`
	ExitDate    string             `json:"exit_date" binding:"omitempty,date_ymd"`
	CarpenterID *uint              `json:"carpenter_id"`
	Status      models.OrderStatus `json:"status" binding:"omitempty,order_status"`
	Notes       string             `json:"notes"`
	Items       []OrderItemRequest `json:"items" binding:"dive"`
}

// UpdateOrderRequest represents an order edit. An empty exit_date clears it.
type UpdateOrderRequest struct {
	Number      *string             `json:"number" binding:"omitempty,max=50"`
	Customer    *string             `json:"customer" binding:"omitempty,max=200"`
	Description *string             `json:"description"`
	EntryDate   *string             `json:"entry_date" binding:"omitempty,date_ymd"`
	ExitDate    *string             `json:"exit_date"`
	CarpenterID *uint               `json:"carpenter_id"`
	Status      *models.OrderStatus `json:"status" binding:"omitempty,order_status"`
	Notes       *string             `json:"notes"`
	Items       *[]OrderItemRequest `json:"items" binding:"omitempty,dive"`
}

// UpdateOrderItemRequest changes one line.
type UpdateOrderItemRequest struct {
	Quantity  *float64 `json:"quantity" binding:"omitempty,gt=0,max=1000000"`
	UnitPrice *int64   `json:"unit_price" binding:"omitempty,min=0,max=10000000000"`
}

// AssignCarpenterRequest assigns or, with a null carpenter_id, unassigns.
type AssignCarpenterRequest struct {
	CarpenterID *uint `json:"carpenter_id"`
}

func toItemInputs(items []OrderItemRequest) []services.OrderItemInput {
	out := make([]services.OrderItemInput, 0, len(items))
	for _, item := range items {
		out = append(out, services.OrderItemInput{
			MaterialID: item.MaterialID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
		})
	}
	return out
}

// CreateOrder handles order creation with its items.
// @Summary     Create order
// @Tags        orders
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateOrderRequest true "Order"
// @Success     201 {object} models.Order "Created order"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Material or carpenter not found"
// @Router      /orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	entryDate, err := parseDate(req.EntryDate, "entry_date")
	if err != nil {
		respondWithError(c, err)
		return
	}
	exitDate, err := parseDate(req.ExitDate, "exit_date")
	if err != nil {
		respondWithError(c, err)
		return
	}

	order, err := h.orderService.CreateOrder(actorFrom(c), services.CreateOrderInput{
		Number:      req.Number,
		Customer:    req.Customer,
		Description: req.Description,
		EntryDate:   entryDate,
		ExitDate:    exitDate,
		CarpenterID: req.CarpenterID,
		Status:      req.Status,
		Notes:       req.Notes,
		Items:       toItemInputs(req.Items),
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": order})
}

// ListOrders returns a filtered page of orders.
// @Summary     List orders
// @Tags        orders
// @Produce     json
// @Security    BearerAuth
// @Param       status       query string false "Status"
// @Param       carpenter_id query int    false "Carpenter ID"
// @Param       customer     query string false "Customer substring"
// @Param       page         query int    false "Page number"
// @Param       page_size    query int    false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Order] "Orders"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Router      /orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter := services.OrderFilter{Customer: strings.TrimSpace(c.Query("customer"))}
	if raw := c.Query("status"); raw != "" {
		status := models.OrderStatus(raw)
		if !status.Valid() {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid status"))
			return
		}
		filter.Status = &status
	}
	var err error
	if filter.CarpenterID, err = parseQueryID(c, "carpenter_id"); err != nil {
		respondWithError(c, err)
		return
	}

	orders, err := h.orderService.ListOrders(filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetOrder returns one order with its items.
// @Summary     Get order
// @Tags        orders
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Order ID"
// @Success     200 {object} models.Order "Order"
// @Failure     404 {object} ErrorResponse "Order not found"
// @Router      /orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	order, err := h.orderService.GetOrder(id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// UpdateOrder edits an order. Carpenters may not change customer,
// description or items.
// @Summary     Update order
// @Tags        orders
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                true "Order ID"
// @Param       request body UpdateOrderRequest true "Changes"
// @Success     200 {object} models.Order "Updated order"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Order not found"
// @Router      /orders/{id} [put]
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req UpdateOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	input := services.UpdateOrderInput{
		Number:      req.Number,
		Customer:    req.Customer,
		Description: req.Description,
		CarpenterID: req.CarpenterID,
		Status:      req.Status,
		Notes:       req.Notes,
	}
	if req.EntryDate != nil {
		if input.EntryDate, err = parseDate(*req.EntryDate, "entry_date"); err != nil {
			respondWithError(c, err)
			return
		}
	}
	if req.ExitDate != nil {
		if *req.ExitDate == "" {
			input.ClearExitDate = true
		} else if input.ExitDate, err = parseDate(*req.ExitDate, "exit_date"); err != nil {
			respondWithError(c, err)
			return
		}
	}
	if req.Items != nil {
		items := toItemInputs(*req.Items)
		input.Items = &items
	}

	order, err := h.orderService.UpdateOrder(actorFrom(c), id, input)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// DeleteOrder soft-deletes an order and its items.
// @Summary     Delete order
// @Tags        orders
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Order ID"
// @Success     200 {object} MessageResponse "Deleted"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Order not found"
// @Router      /orders/{id} [delete]
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	if err := h.orderService.DeleteOrder(actorFrom(c), id); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Order deleted"})
}

// AssignCarpenter sets or clears the order's carpenter.
// @Summary     Assign carpenter
// @Tags        orders
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                    true "Order ID"
// @Param       request body AssignCarpenterRequest true "Carpenter"
// @Success     200 {object} models.Order "Updated order"
// @Failure     400 {object} ErrorResponse "Carpenter inactive"
// @Failure     404 {object} ErrorResponse "Order or carpenter not found"
// @Router      /orders/{id}/carpenter [put]
func (h *OrderHandler) AssignCarpenter(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req AssignCarpenterRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.orderService.AssignCarpenter(actorFrom(c), id, req.CarpenterID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// AddItem appends a line to an order.
// @Summary     Add order item
// @Tags        orders
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int              true "Order ID"
// @Param       request body OrderItemRequest true "Item"
// @Success     201 {object} models.Order "Updated order"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Order or material not found"
// @Router      /orders/{id}/items [post]
func (h *OrderHandler) AddItem(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req OrderItemRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.orderService.AddItem(actorFrom(c), id, services.OrderItemInput{
		MaterialID: req.MaterialID,
		Quantity:   req.Quantity,
		UnitPrice:  req.UnitPrice,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": order})
}

// UpdateItem changes quantity or unit price of one line.
// @Summary     Update order item
// @Tags        orders
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                    true "Order ID"
// @Param       itemId  path int                    true "Item ID"
// @Param       request body UpdateOrderItemRequest true "Changes"
// @Success     200 {object} models.Order "Updated order"
// @Failure     404 {object} ErrorResponse "Order or item not found"
// @Router      /orders/{id}/items/{itemId} [put]
func (h *OrderHandler) UpdateItem(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	itemID, err := parsePathID(c, "itemId")
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req UpdateOrderItemRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.orderService.UpdateItem(actorFrom(c), id, itemID, services.UpdateOrderItemInput{
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// RemoveItem deletes one line.
// @Summary     Remove order item
// @Tags        orders
// @Produce     json
// @Security    BearerAuth
// @Param       id     path int true "Order ID"
// @Param       itemId path int true "Item ID"
// @Success     200 {object} models.Order "Updated order"
// @Failure     404 {object} ErrorResponse "Order or item not found"
// @Router      /orders/{id}/items/{itemId} [delete]
func (h *OrderHandler) RemoveItem(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	itemID, err := parsePathID(c, "itemId")
	if err != nil {
		respondWithError(c, err)
		return
	}
	order, err := h.orderService.RemoveItem(actorFrom(c), id, itemID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// Statistics returns order counts per status and the total value.
// @Summary     Order statistics
// @Tags        orders
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.OrderStatistics "Statistics"
// @Router      /orders/statistics [get]
func (h *OrderHandler) Statistics(c *gin.Context) {
	stats, err := h.orderService.Statistics()
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
