package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "woodshop/internal/errors"
	"woodshop/internal/pagination"
	"woodshop/internal/services"
)

// MaterialHandler handles material catalogue and stock requests.
type MaterialHandler struct {
	materialService services.MaterialServicer
}

// NewMaterialHandler creates a new MaterialHandler.
func NewMaterialHandler(materialService services.MaterialServicer) *MaterialHandler {
	return &MaterialHandler{materialService: materialService}
}

// MaterialRequest carries material fields. Prices are in cents. On update
// every field is optional.
type MaterialRequest struct {
	Name         *string  `json:"name" binding:"omitempty,max=120"`
	Unit         *string  `json:"unit" binding:"omitempty,max=20"`
	UnitPrice    *int64   `json:"unit_price" binding:"omitempty,min=0,max=10000000000"`
	Stock        *float64 `json:"stock" binding:"omitempty,min=0"`
	MinimumStock *float64 `json:"minimum_stock" binding:"omitempty,min=0"`
	Supplier     *string  `json:"supplier" binding:"omitempty,max=120"`
	IsActive     *bool    `json:"is_active"`
}

func (r MaterialRequest) input() services.MaterialInput {
	return services.MaterialInput{
		Name:         r.Name,
		Unit:         r.Unit,
		UnitPrice:    r.UnitPrice,
		Stock:        r.Stock,
		MinimumStock: r.MinimumStock,
		Supplier:     r.Supplier,
		IsActive:     r.IsActive,
	}
}

// AdjustStockRequest adds to or removes from stock.
type AdjustStockRequest struct {
	Operation string  `json:"operation" binding:"required,stock_operation"`
	Quantity  float64 `json:"quantity" binding:"required,gt=0"`
	Note      string  `json:"note" binding:"max=500"`
}

// CreateMaterial adds a material.
// @Summary     Create material
// @Tags        materials
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body MaterialRequest true "Material"
// @Success     201 {object} models.Material "Created material"
// @Failure     400 {object} ErrorResponse "Invalid input or duplicate name"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Router      /materials [post]
func (h *MaterialHandler) CreateMaterial(c *gin.Context) {
	var req MaterialRequest
	if !bindJSON(c, &req) {
		return
	}
	material, err := h.materialService.CreateMaterial(actorFrom(c), req.input())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"material": material})
}

// ListMaterials returns a page of materials. Inactive ones are included
// only with include_inactive=true.
// @Summary     List materials
// @Tags        materials
// @Produce     json
// @Security    BearerAuth
// @Param       include_inactive query bool false "Include inactive materials"
// @Param       page             query int  false "Page number"
// @Param       page_size        query int  false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Material] "Materials"
// @Router      /materials [get]
func (h *MaterialHandler) ListMaterials(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	materials, err := h.materialService.ListMaterials(c.Query("include_inactive") != "true", page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, materials)
}

// GetMaterial returns one material.
// @Summary     Get material
// @Tags        materials
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Material ID"
// @Success     200 {object} models.Material "Material"
// @Failure     404 {object} ErrorResponse "Material not found"
// @Router      /materials/{id} [get]
func (h *MaterialHandler) GetMaterial(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	material, err := h.materialService.GetMaterial(id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"material": material})
}

// UpdateMaterial edits a material. Prices already on orders are unchanged.
// @Summary     Update material
// @Tags        materials
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int             true "Material ID"
// @Param       request body MaterialRequest true "Changes"
// @Success     200 {object} models.Material "Updated material"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Material not found"
// @Router      /materials/{id} [put]
func (h *MaterialHandler) UpdateMaterial(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req MaterialRequest
	if !bindJSON(c, &req) {
		return
	}
	material, err := h.materialService.UpdateMaterial(actorFrom(c), id, req.input())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"material": material})
}

// DeleteMaterial removes a material no order uses.
// @Summary     Delete material
// @Tags        materials
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Material ID"
// @Success     200 {object} MessageResponse "Deleted"
// @Failure     400 {object} ErrorResponse "Material in use"
// @Failure     404 {object} ErrorResponse "Material not found"
// @Router      /materials/{id} [delete]
func (h *MaterialHandler) DeleteMaterial(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	if err := h.materialService.DeleteMaterial(actorFrom(c), id); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Material deleted"})
}

// AdjustStock adds to or removes from a material's stock.
// @Summary     Adjust stock
// @Tags        materials
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                true "Material ID"
// @Param       request body AdjustStockRequest true "Adjustment"
// @Success     200 {object} models.Material "Updated material"
// @Failure     400 {object} ErrorResponse "Invalid input or insufficient stock"
// @Failure     404 {object} ErrorResponse "Material not found"
// @Router      /materials/{id}/stock [post]
func (h *MaterialHandler) AdjustStock(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req AdjustStockRequest
	if !bindJSON(c, &req) {
		return
	}
	material, err := h.materialService.AdjustStock(actorFrom(c), id, services.StockOperation(req.Operation), req.Quantity, req.Note)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"material": material})
}

// LowStock lists active materials at or below their minimum.
// @Summary     Low stock materials
// @Tags        materials
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.Material "Materials"
// @Router      /materials/low-stock [get]
func (h *MaterialHandler) LowStock(c *gin.Context) {
	materials, err := h.materialService.LowStock()
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"materials": materials})
}

// StockReport summarises stock levels and value.
// @Summary     Stock report
// @Tags        materials
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.StockReport "Report"
// @Router      /materials/stock-report [get]
func (h *MaterialHandler) StockReport(c *gin.Context) {
	report, err := h.materialService.StockReport()
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
