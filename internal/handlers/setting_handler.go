package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"woodshop/internal/models"
	"woodshop/internal/services"
)

// SettingHandler handles system setting requests.
type SettingHandler struct {
	settingService services.SettingServicer
}

// NewSettingHandler creates a new SettingHandler.
func NewSettingHandler(settingService services.SettingServicer) *SettingHandler {
	return &SettingHandler{settingService: settingService}
}

// UpsertSettingRequest sets a value. An empty description keeps the current one.
type UpsertSettingRequest struct {
	Value       string `json:"value" binding:"required"`
	Description string `json:"description" binding:"max=255"`
}

// BackendURLRequest sets the public backend address.
type BackendURLRequest struct {
	URL string `json:"url" binding:"required,http_url"`
}

// ListSettings returns every setting.
// @Summary     List settings
// @Tags        settings
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.Setting "Settings"
// @Router      /settings [get]
func (h *SettingHandler) ListSettings(c *gin.Context) {
	settings, err := h.settingService.ListSettings()
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// GetSetting returns one setting.
// @Summary     Get setting
// @Tags        settings
// @Produce     json
// @Security    BearerAuth
// @Param       key path string true "Setting key"
// @Success     200 {object} models.Setting "Setting"
// @Failure     404 {object} ErrorResponse "Setting not found"
// @Router      /settings/{key} [get]
func (h *SettingHandler) GetSetting(c *gin.Context) {
	setting, err := h.settingService.GetSetting(c.Param("key"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"setting": setting})
}

// UpsertSetting creates or updates a setting.
// @Summary     Set setting
// @Tags        settings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       key     path string               true "Setting key"
// @Param       request body UpsertSettingRequest true "Value"
// @Success     200 {object} models.Setting "Setting"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Router      /settings/{key} [put]
func (h *SettingHandler) UpsertSetting(c *gin.Context) {
	var req UpsertSettingRequest
	if !bindJSON(c, &req) {
		return
	}
	setting, err := h.settingService.UpsertSetting(actorFrom(c), c.Param("key"), req.Value, req.Description)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"setting": setting})
}

// DeleteSetting removes a setting. backend_url cannot be removed.
// @Summary     Delete setting
// @Tags        settings
// @Produce     json
// @Security    BearerAuth
// @Param       key path string true "Setting key"
// @Success     200 {object} MessageResponse "Deleted"
// @Failure     400 {object} ErrorResponse "Protected setting"
// @Failure     404 {object} ErrorResponse "Setting not found"
// @Router      /settings/{key} [delete]
func (h *SettingHandler) DeleteSetting(c *gin.Context) {
	if err := h.settingService.DeleteSetting(actorFrom(c), c.Param("key")); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Setting deleted"})
}

// GetBackendURL returns the public backend address. No authentication.
// @Summary     Backend URL
// @Tags        settings
// @Produce     json
// @Success     200 {object} map[string]string "Backend URL"
// @Router      /settings/backend-url [get]
func (h *SettingHandler) GetBackendURL(c *gin.Context) {
	url, err := h.settingService.BackendURL()
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"backend_url": url})
}

// SetBackendURL updates the public backend address.
// @Summary     Set backend URL
// @Tags        settings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body BackendURLRequest true "URL"
// @Success     200 {object} models.Setting "Setting"
// @Failure     400 {object} ErrorResponse "Invalid URL"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Router      /settings/backend-url [put]
func (h *SettingHandler) SetBackendURL(c *gin.Context) {
	var req BackendURLRequest
	if !bindJSON(c, &req) {
		return
	}
	setting, err := h.settingService.UpsertSetting(actorFrom(c), models.SettingBackendURL, req.URL, "")
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"setting": setting})
}
