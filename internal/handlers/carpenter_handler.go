package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"woodshop/internal/services"
)

// CarpenterHandler handles carpenter requests.
type CarpenterHandler struct {
	carpenterService services.CarpenterServicer
}

// NewCarpenterHandler creates a new CarpenterHandler.
func NewCarpenterHandler(carpenterService services.CarpenterServicer) *CarpenterHandler {
	return &CarpenterHandler{carpenterService: carpenterService}
}

// CarpenterRequest carries carpenter fields, all optional on update.
type CarpenterRequest struct {
	Name      *string `json:"name" binding:"omitempty,max=120"`
	Email     *string `json:"email" binding:"omitempty,email,max=120"`
	Phone     *string `json:"phone" binding:"omitempty,max=30"`
	Specialty *string `json:"specialty" binding:"omitempty,max=120"`
	IsActive  *bool   `json:"is_active"`
}

func (r CarpenterRequest) input() services.CarpenterInput {
	return services.CarpenterInput{
		Name:      r.Name,
		Email:     r.Email,
		Phone:     r.Phone,
		Specialty: r.Specialty,
		IsActive:  r.IsActive,
	}
}

// CreateCarpenter adds a carpenter or reactivates one with the same name.
// @Summary     Create carpenter
// @Tags        carpenters
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CarpenterRequest true "Carpenter"
// @Success     201 {object} models.Carpenter "Carpenter"
// @Failure     400 {object} ErrorResponse "Invalid input or duplicate name"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Router      /carpenters [post]
func (h *CarpenterHandler) CreateCarpenter(c *gin.Context) {
	var req CarpenterRequest
	if !bindJSON(c, &req) {
		return
	}
	carpenter, err := h.carpenterService.CreateCarpenter(actorFrom(c), req.input())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"carpenter": carpenter})
}

// ListCarpenters returns carpenters with per-status order counts.
// @Summary     List carpenters
// @Tags        carpenters
// @Produce     json
// @Security    BearerAuth
// @Param       include_inactive query bool false "Include inactive carpenters"
// @Success     200 {array} services.CarpenterWithStats "Carpenters"
// @Router      /carpenters [get]
func (h *CarpenterHandler) ListCarpenters(c *gin.Context) {
	carpenters, err := h.carpenterService.ListCarpenters(c.Query("include_inactive") != "true")
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"carpenters": carpenters})
}

// GetCarpenter returns one carpenter.
// @Summary     Get carpenter
// @Tags        carpenters
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Carpenter ID"
// @Success     200 {object} models.Carpenter "Carpenter"
// @Failure     404 {object} ErrorResponse "Carpenter not found"
// @Router      /carpenters/{id} [get]
func (h *CarpenterHandler) GetCarpenter(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	carpenter, err := h.carpenterService.GetCarpenter(id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"carpenter": carpenter})
}

// UpdateCarpenter edits a carpenter.
// @Summary     Update carpenter
// @Tags        carpenters
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int              true "Carpenter ID"
// @Param       request body CarpenterRequest true "Changes"
// @Success     200 {object} models.Carpenter "Carpenter"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Carpenter not found"
// @Router      /carpenters/{id} [put]
func (h *CarpenterHandler) UpdateCarpenter(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req CarpenterRequest
	if !bindJSON(c, &req) {
		return
	}
	carpenter, err := h.carpenterService.UpdateCarpenter(actorFrom(c), id, req.input())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"carpenter": carpenter})
}

// DeleteCarpenter deactivates a carpenter and unassigns their open orders.
// @Summary     Delete carpenter
// @Tags        carpenters
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Carpenter ID"
// @Success     200 {object} MessageResponse "Deactivated"
// @Failure     404 {object} ErrorResponse "Carpenter not found"
// @Router      /carpenters/{id} [delete]
func (h *CarpenterHandler) DeleteCarpenter(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	if err := h.carpenterService.DeleteCarpenter(actorFrom(c), id); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Carpenter deactivated"})
}
