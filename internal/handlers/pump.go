package handlers

import (
	"net/http"

	"controlling_pump/internal/models"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK = "ok"

	errGetStatus       = "failed to load status"
	errApplySettings   = "failed to apply settings"
	errInvalidBodyPref = "invalid body: "
	errEmptySettings   = "at least one setting is required"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// SettingsUpdateRequest is an exported model for Swagger docs of the settings payload.
type SettingsUpdateRequest struct {
	// Ambient switch-on threshold in Celsius, must be > 1.0
	MinAmbient float32 `json:"min_ambient,omitempty" example:"38"`
	// Ambient dead band in Celsius, must be > 1.0
	AmbientHysteresis float32 `json:"ambient_hysteresis,omitempty" example:"2"`
	// Water switch-on threshold in Celsius, must be > 1.0
	MinWater float32 `json:"min_water,omitempty" example:"35"`
	// Water dead band in Celsius, must be > 1.0
	WaterHysteresis float32 `json:"water_hysteresis,omitempty" example:"4"`
}

// SettingsUpdateResponse reports the outcome of a settings update.
type SettingsUpdateResponse struct {
	Accepted models.SettingsResult `json:"accepted"`
	Settings models.Settings       `json:"settings"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Get pump status
// @Tags         pump
// @Produce      json
// @Success      200  {object}  models.PumpStatus
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/status [get]
func (h *Handler) getStatus(c *gin.Context) {
	st, err := h.services.Monitoring.GetStatus(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetStatus, "pump_get_status_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Get control settings
// @Tags         settings
// @Produce      json
// @Success      200  {object}  models.Settings
// @Router       /api/v1/settings [get]
func (h *Handler) getSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Settings.Current())
}

// @Summary      Update control settings
// @Description  Each field is validated on its own (must be > 1.0); accepted fields are applied and persisted, rejected ones keep their value. Connected telemetry clients receive the resulting settings.
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        body  body      SettingsUpdateRequest  true  "Settings payload"
// @Success      200   {object}  SettingsUpdateResponse  "every field accepted"
// @Failure      400   {object}  map[string]string
// @Failure      422   {object}  SettingsUpdateResponse  "some fields rejected"
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/settings [put]
func (h *Handler) putSettings(c *gin.Context) {
	// omitted fields stay nil so a concurrent update to them is not reverted
	var req models.SettingsPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	if req.Empty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": errEmptySettings})
		return
	}

	res, err := h.services.Settings.ApplyPatch(c.Request.Context(), req)
	// Accepted fields are already live even when persisting failed.
	if h.hub != nil {
		h.hub.BroadcastSettings()
	}
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errApplySettings, "settings_apply_failed", err)
		return
	}

	code := http.StatusOK
	if !res.All() {
		code = http.StatusUnprocessableEntity
	}
	c.JSON(code, SettingsUpdateResponse{Accepted: res, Settings: h.services.Settings.Current()})
}

// @Summary      List websocket sessions
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, sessions"
// @Router       /api/v1/sessions [get]
func (h *Handler) getSessions(c *gin.Context) {
	if h.hub == nil {
		c.JSON(http.StatusOK, gin.H{"count": 0, "sessions": []interface{}{}})
		return
	}
	sessions := h.hub.Sessions()
	c.JSON(http.StatusOK, gin.H{
		"count":    len(sessions),
		"sessions": sessions,
	})
}
