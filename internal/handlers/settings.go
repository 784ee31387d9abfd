package handlers

import (
	"errors"
	"net/http"
	"time"

	"observo/internal/apperrors"
	"observo/internal/models"
	"observo/internal/service"

	"github.com/gin-gonic/gin"
)

const defaultCleanupDays = 30

type cleanupRequest struct {
	Days int `json:"days"`
}

// @Summary      Get settings
// @Description  Returns the whole settings document.
// @Tags         settings
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /api/settings [get]
func (h *Handler) getSettings(c *gin.Context) {
	st, err := h.services.Settings.GetSettings(c.Request.Context())
	if err != nil {
		h.writeError(c, "settings_get_failed", "Failed to fetch settings", err)
		return
	}
	c.JSON(http.StatusOK, st.Data)
}

// @Summary      Update settings
// @Description  Deep-merges a partial document. Every provided section is validated first; nothing is stored on failure.
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        body  body      map[string]interface{}  true  "Partial settings document"
// @Success      200   {object}  map[string]interface{}  "message, settings"
// @Failure      400   {object}  map[string]interface{}  "error, fields"
// @Router       /api/settings [put]
func (h *Handler) updateSettings(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil || body == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid settings format"})
		return
	}
	st, err := h.services.Settings.UpdateSettings(c.Request.Context(), body)
	if err != nil {
		h.writeError(c, "settings_update_failed", "Failed to update settings", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Settings updated successfully",
		"settings": st.Data,
	})
}

// @Summary      Get a settings section
// @Description  Section is one of dashboard, alerts, retention (alias of dataRetention), api, user, systemCheck.
// @Tags         settings
// @Produce      json
// @Param        section  path      string  true  "Section name"
// @Success      200      {object}  map[string]interface{}
// @Failure      404      {object}  map[string]string
// @Router       /api/settings/{section} [get]
func (h *Handler) getSection(c *gin.Context) {
	name := c.Param("section")
	section, err := h.services.Settings.GetSection(c.Request.Context(), name)
	if err != nil {
		h.writeError(c, "settings_section_get_failed", "Failed to fetch "+name+" settings", err)
		return
	}
	c.JSON(http.StatusOK, section)
}

// @Summary      Update a settings section
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        section  path      string                  true  "Section name"
// @Param        body     body      map[string]interface{}  true  "Partial section"
// @Success      200      {object}  map[string]interface{}  "message, settings"
// @Failure      400      {object}  map[string]interface{}  "error, fields"
// @Router       /api/settings/{section} [put]
func (h *Handler) updateSection(c *gin.Context) {
	name := c.Param("section")
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil || body == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + " settings format"})
		return
	}
	st, err := h.services.Settings.UpdateSection(c.Request.Context(), name, body)
	if err != nil {
		h.writeError(c, "settings_section_update_failed", "Failed to update "+name+" settings", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Settings updated successfully",
		"settings": st.Data[service.CanonicalSection(name)],
	})
}

// @Summary      Reset settings
// @Tags         settings
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "message, settings"
// @Router       /api/settings/reset [post]
func (h *Handler) resetSettings(c *gin.Context) {
	st, err := h.services.Settings.ResetToDefaults(c.Request.Context())
	if err != nil {
		h.writeError(c, "settings_reset_failed", "Failed to reset settings", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Settings reset to defaults",
		"settings": st.Data,
	})
}

// @Summary      Export settings
// @Tags         settings
// @Produce      json
// @Success      200  {object}  models.SettingsExport
// @Router       /api/settings/export [get]
func (h *Handler) exportSettings(c *gin.Context) {
	exp, err := h.services.Settings.Export(c.Request.Context())
	if err != nil {
		h.writeError(c, "settings_export_failed", "Failed to export settings", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="observo-settings.json"`)
	c.JSON(http.StatusOK, exp)
}

// @Summary      Import settings
// @Description  Validates and merges a previously exported document.
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        body  body      models.SettingsExport   true  "Exported settings"
// @Success      200   {object}  map[string]interface{}  "message, settings"
// @Failure      400   {object}  map[string]interface{}  "error, fields"
// @Router       /api/settings/import [post]
func (h *Handler) importSettings(c *gin.Context) {
	var payload models.SettingsExport
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid import data format"})
		return
	}
	st, err := h.services.Settings.Import(c.Request.Context(), payload)
	if err != nil {
		h.writeError(c, "settings_import_failed", "Failed to import settings", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Settings imported successfully",
		"settings": st.Data,
	})
}

// @Summary      Delete old log records
// @Description  Deletes records older than days (body) or the configured retention days.
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        body  body      cleanupRequest          false  "Optional day override"
// @Success      200   {object}  map[string]interface{}  "message, deletedCount, cutoffDate, retentionDays"
// @Failure      400   {object}  map[string]string
// @Router       /api/settings/retention/cleanup [post]
func (h *Handler) retentionCleanup(c *gin.Context) {
	ctx := c.Request.Context()
	var req cleanupRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cleanup request"})
			return
		}
	}

	days := req.Days
	if days == 0 {
		days = defaultCleanupDays
		if st, err := h.services.Settings.GetSettings(ctx); err == nil {
			if ret, err := st.Retention(); err == nil && ret.Days > 0 {
				days = ret.Days
			}
		}
	}
	if days < 1 || days > 365 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 1 and 365"})
		return
	}

	cutoff := time.Now().UTC().Add(-time.Duration(days) * 24 * time.Hour)
	n, err := h.services.Retention.Cleanup(ctx, days)
	if err != nil {
		h.writeError(c, "retention_cleanup_failed", "Failed to perform data cleanup", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":       "Data cleanup completed",
		"deletedCount":  n,
		"cutoffDate":    cutoff,
		"retentionDays": days,
	})
}

// writeError maps service errors onto status codes.
func (h *Handler) writeError(c *gin.Context, event, msg string, err error) {
	var ve *apperrors.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": msg, "fields": ve.Fields})
	case errors.Is(err, apperrors.ErrSectionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.log.Errorw(event, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg, "message": err.Error()})
	}
}
