package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "woodshop/internal/errors"
	"woodshop/internal/models"
	"woodshop/internal/pagination"
	"woodshop/internal/services"
)

// DeliveryHandler handles delivery requests.
type DeliveryHandler struct {
	deliveryService services.DeliveryServicer
}

// NewDeliveryHandler creates a new DeliveryHandler.
func NewDeliveryHandler(deliveryService services.DeliveryServicer) *DeliveryHandler {
	return &DeliveryHandler{deliveryService: deliveryService}
}

// CreateDeliveryRequest represents a new delivery.
type CreateDeliveryRequest struct {
	OrderID      uint                  `json:"order_id" binding:"required"`
	DeliveryDate string                `json:"delivery_date" binding:"required,date_ymd"`
	Status       models.DeliveryStatus `json:"status" binding:"omitempty,delivery_status"`
	Address      string                `json:"address" binding:"max=255"`
	Notes        string                `json:"notes"`
}

// UpdateDeliveryRequest represents a delivery edit.
type UpdateDeliveryRequest struct {
	DeliveryDate *string                `json:"delivery_date" binding:"omitempty,date_ymd"`
	Status       *models.DeliveryStatus `json:"status" binding:"omitempty,delivery_status"`
	Address      *string                `json:"address" binding:"omitempty,max=255"`
	Notes        *string                `json:"notes"`
}

// CreateDelivery schedules a delivery for an existing order.
// @Summary     Create delivery
// @Tags        deliveries
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateDeliveryRequest true "Delivery"
// @Success     201 {object} models.Delivery "Delivery"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Order not found"
// @Router      /deliveries [post]
func (h *DeliveryHandler) CreateDelivery(c *gin.Context) {
	var req CreateDeliveryRequest
	if !bindJSON(c, &req) {
		return
	}
	date, err := parseDate(req.DeliveryDate, "delivery_date")
	if err != nil {
		respondWithError(c, err)
		return
	}

	input := services.DeliveryInput{
		OrderID:      &req.OrderID,
		DeliveryDate: date,
		Address:      &req.Address,
		Notes:        &req.Notes,
	}
	if req.Status != "" {
		input.Status = &req.Status
	}

	delivery, err := h.deliveryService.CreateDelivery(actorFrom(c), input)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"delivery": delivery})
}

// ListDeliveries returns a filtered page of deliveries ordered by date.
// @Summary     List deliveries
// @Tags        deliveries
// @Produce     json
// @Security    BearerAuth
// @Param       order_id  query int    false "Order ID"
// @Param       status    query string false "Status"
// @Param       from      query string false "From date (YYYY-MM-DD)"
// @Param       to        query string false "To date (YYYY-MM-DD)"
// @Param       page      query int    false "Page number"
// @Param       page_size query int    false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Delivery] "Deliveries"
// @Router      /deliveries [get]
func (h *DeliveryHandler) ListDeliveries(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var filter services.DeliveryFilter
	var err error
	if filter.OrderID, err = parseQueryID(c, "order_id"); err != nil {
		respondWithError(c, err)
		return
	}
	if raw := c.Query("status"); raw != "" {
		status := models.DeliveryStatus(raw)
		filter.Status = &status
	}
	if filter.From, filter.To, err = parseDateRange(c); err != nil {
		respondWithError(c, err)
		return
	}

	deliveries, err := h.deliveryService.ListDeliveries(filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, deliveries)
}

// GetDelivery returns one delivery.
// @Summary     Get delivery
// @Tags        deliveries
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Delivery ID"
// @Success     200 {object} models.Delivery "Delivery"
// @Failure     404 {object} ErrorResponse "Delivery not found"
// @Router      /deliveries/{id} [get]
func (h *DeliveryHandler) GetDelivery(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	delivery, err := h.deliveryService.GetDelivery(id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"delivery": delivery})
}

// UpdateDelivery edits a delivery.
// @Summary     Update delivery
// @Tags        deliveries
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                   true "Delivery ID"
// @Param       request body UpdateDeliveryRequest true "Changes"
// @Success     200 {object} models.Delivery "Delivery"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Delivery not found"
// @Router      /deliveries/{id} [put]
func (h *DeliveryHandler) UpdateDelivery(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req UpdateDeliveryRequest
	if !bindJSON(c, &req) {
		return
	}

	input := services.DeliveryInput{
		Status:  req.Status,
		Address: req.Address,
		Notes:   req.Notes,
	}
	if req.DeliveryDate != nil {
		if input.DeliveryDate, err = parseDate(*req.DeliveryDate, "delivery_date"); err != nil {
			respondWithError(c, err)
			return
		}
	}

	delivery, err := h.deliveryService.UpdateDelivery(actorFrom(c), id, input)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"delivery": delivery})
}

// DeleteDelivery removes a delivery.
// @Summary     Delete delivery
// @Tags        deliveries
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Delivery ID"
// @Success     200 {object} MessageResponse "Deleted"
// @Failure     404 {object} ErrorResponse "Delivery not found"
// @Router      /deliveries/{id} [delete]
func (h *DeliveryHandler) DeleteDelivery(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	if err := h.deliveryService.DeleteDelivery(actorFrom(c), id); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Delivery deleted"})
}
