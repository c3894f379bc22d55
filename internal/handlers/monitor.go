package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/statuscore-dev/statuscore/db"
	"github.com/statuscore-dev/statuscore/internal/models"
	"github.com/statuscore-dev/statuscore/internal/scheduler"
	"github.com/statuscore-dev/statuscore/internal/utils"
	"gorm.io/gorm"
)

type CreateMonitorRequest struct {
	Name     string                 `json:"name" binding:"required"`
	Type     string                 `json:"type" binding:"required"`     // "http", "dns", "database"
	Interval int                    `json:"interval" binding:"required"` // Interval in seconds
	Group    string                 `json:"group"`
	Tags     []string               `json:"tags"`
	Config   map[string]interface{} `json:"config" binding:"required"`
}

type UpdateMonitorRequest struct {
	Name     string                 `json:"name" binding:"required"`
	Type     string                 `json:"type" binding:"required"`
	Interval int                    `json:"interval" binding:"required"`
	Group    string                 `json:"group"`
	Tags     []string               `json:"tags"`
	Config   map[string]interface{} `json:"config" binding:"required"`
}

type MonitorSummary struct {
	ID             uint      `json:"id"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	Group          string    `json:"group"`
	Interval       int       `json:"interval"`
	Known          bool      `json:"known"`
	Up             bool      `json:"up"`
	ResponseTimeMs int       `json:"response_time_ms"`
	LastCheckedAt  time.Time `json:"last_checked_at"`
	Uptime24h      *float64  `json:"uptime_24h"`
	Uptime7d       *float64  `json:"uptime_7d"`
	Uptime30d      *float64  `json:"uptime_30d"`
}

func CreateMonitor(ctx *gin.Context) {
	var req CreateMonitorRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pageID, err := utils.GetStatusPageID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	page, ok := ownedStatusPage(ctx, pageID, userID)
	if !ok {
		return
	}

	configJSON, ok := marshalMonitorConfig(ctx, req.Type, req.Config)
	if !ok {
		return
	}

	tagsJSON, err := json.Marshal(req.Tags)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tags"})
		return
	}

	monitor := models.Monitor{
		StatusPageID: page.ID,
		Name:         req.Name,
		Type:         req.Type,
		GroupName:    req.Group,
		Tags:         tagsJSON,
		Interval:     req.Interval,
		Active:       true,
		Config:       configJSON,
	}

	if err := db.DB.Create(&monitor).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create monitor"})
		return
	}

	store.TrackMonitor(monitor)
	uptimes.RefreshMonitor(monitor.ID)
	scheduler.AddMonitor(monitor)

	ctx.JSON(http.StatusCreated, gin.H{"message": "Monitor created successfully", "monitor_id": monitor.ID})
}

func DeleteMonitor(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	pageID, monitorID, err := utils.GetPageMonitorID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var monitor models.Monitor

	if err := db.DB.Joins("JOIN status_pages ON status_pages.id = monitors.status_page_id").
		Where("monitors.id = ? AND monitors.status_page_id = ? AND status_pages.owner_id = ?", monitorID, pageID, userID).
		First(&monitor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Monitor not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve monitor"})
		}
		return
	}

	if err := db.DB.Delete(&monitor).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete monitor"})
		return
	}

	scheduler.RemoveMonitor(monitor.ID)
	store.DropMonitor(monitor.ID)
	uptimes.Forget(monitor.ID)

	ctx.Status(http.StatusNoContent)
}

func GetMonitors(ctx *gin.Context) {
	pageID, err := utils.GetStatusPageID(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	page, ok := ownedStatusPage(ctx, pageID, userID)
	if !ok {
		return
	}

	var monitors []models.Monitor
	if err := db.DB.Where("status_page_id = ?", page.ID).Find(&monitors).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve monitors"})
		return
	}

	summaries := make([]MonitorSummary, 0, len(monitors))
	for _, monitor := range monitors {
		summaries = append(summaries, buildMonitorSummary(monitor))
	}

	ctx.JSON(http.StatusOK, summaries)
}

func GetMonitorChecks(ctx *gin.Context) {
	pageID, monitorID, err := utils.GetPageMonitorID(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var monitor models.Monitor
	if err := db.DB.Joins("JOIN status_pages ON status_pages.id = monitors.status_page_id").
		Where("monitors.id = ? AND monitors.status_page_id = ? AND status_pages.owner_id = ?", monitorID, pageID, userID).
		First(&monitor).Error; err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Monitor not found"})
		return
	}

	var checks []models.MonitorCheck
	if err := db.DB.Select("id, monitor_id, up, response_time, message, checked_at, created_at").
		Where("monitor_id = ?", monitorID).
		Order("checked_at DESC").
		Limit(50).
		Find(&checks).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get checks"})
		return
	}

	ctx.JSON(http.StatusOK, checks)
}

func UpdateMonitor(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	pageID, monitorID, err := utils.GetPageMonitorID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req UpdateMonitorRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var monitor models.Monitor

	if err := db.DB.Joins("JOIN status_pages ON status_pages.id = monitors.status_page_id").
		Where("monitors.id = ? AND monitors.status_page_id = ? AND status_pages.owner_id = ?", monitorID, pageID, userID).
		First(&monitor).Error; err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Monitor not found"})
		return
	}

	configJSON, ok := marshalMonitorConfig(ctx, req.Type, req.Config)
	if !ok {
		return
	}

	tagsJSON, err := json.Marshal(req.Tags)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tags"})
		return
	}

	monitor.Name = req.Name
	monitor.Type = req.Type
	monitor.Interval = req.Interval
	monitor.GroupName = req.Group
	monitor.Tags = tagsJSON
	monitor.Config = configJSON

	if err := db.DB.Save(&monitor).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update monitor"})
		return
	}

	scheduler.UpdateMonitor(monitor)
	store.RenameMonitor(monitor)

	ctx.JSON(http.StatusOK, gin.H{"message": "Monitor updated successfully", "monitor_id": monitor.ID})
}

// marshalMonitorConfig validates and normalizes the per-type probe config.
// DNS domains are cleaned to a raw hostname.
func marshalMonitorConfig(ctx *gin.Context, monitorType string, config map[string]interface{}) ([]byte, bool) {
	configJSON, err := json.Marshal(config)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid config format"})
		return nil, false
	}

	if monitorType != "dns" {
		return configJSON, true
	}

	var dnsConfig map[string]interface{}
	if err := json.Unmarshal(configJSON, &dnsConfig); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid DNS config format"})
		return nil, false
	}

	if domainValue, exists := dnsConfig["domain"]; exists {
		if domainStr, ok := domainValue.(string); ok {
			cleanDomain, err := utils.ExtractRawDomain(domainStr)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid domain: " + err.Error()})
				return nil, false
			}
			dnsConfig["domain"] = cleanDomain

			configJSON, err = json.Marshal(dnsConfig)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Failed to process DNS config"})
				return nil, false
			}
		}
	}

	return configJSON, true
}

// buildMonitorSummary reads the registry and the uptime cache; it never
// recomputes statistics inline.
func buildMonitorSummary(monitor models.Monitor) MonitorSummary {
	summary := MonitorSummary{
		ID:       monitor.ID,
		Name:     monitor.Name,
		Type:     monitor.Type,
		Group:    monitor.GroupName,
		Interval: monitor.Interval,
	}

	if state, ok := store.MonitorState(monitor.ID); ok {
		summary.Known = state.Known
		summary.Up = state.Up
		summary.ResponseTimeMs = state.ResponseTimeMs
		summary.LastCheckedAt = state.LastCheckedAt
	}

	windows := uptimes.Windows(monitor.ID)
	summary.Uptime24h = windows.H24
	summary.Uptime7d = windows.D7
	summary.Uptime30d = windows.D30

	return summary
}
