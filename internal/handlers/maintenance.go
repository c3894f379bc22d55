package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/statuscore-dev/statuscore/db"
	"github.com/statuscore-dev/statuscore/internal/models"
	"github.com/statuscore-dev/statuscore/internal/utils"
	"gorm.io/gorm"
)

type CreateMaintenanceRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	StartsAt    time.Time `json:"starts_at" binding:"required"`
	EndsAt      time.Time `json:"ends_at" binding:"required"`
	MonitorIDs  []uint    `json:"monitor_ids"`
}

type RescheduleMaintenanceRequest struct {
	StartsAt time.Time `json:"starts_at" binding:"required"`
	EndsAt   time.Time `json:"ends_at" binding:"required"`
}

type MaintenanceResponse struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"` // derived from the window bounds at read time
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	MonitorIDs  []uint    `json:"monitor_ids"`
}

func CreateMaintenance(ctx *gin.Context) {
	var req CreateMaintenanceRequest

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

	window, err := store.ScheduleMaintenance(page.ID, req.Title, req.Description, req.StartsAt, req.EndsAt, req.MonitorIDs)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"message": "Maintenance window scheduled", "window_id": window.ID})
}

func ListMaintenance(ctx *gin.Context) {
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

	var windows []models.MaintenanceWindow
	if err := db.DB.Preload("Monitors").
		Where("status_page_id = ?", page.ID).
		Order("starts_at DESC").
		Limit(50).
		Find(&windows).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve maintenance windows"})
		return
	}

	now := time.Now()
	response := make([]MaintenanceResponse, 0, len(windows))

	for _, window := range windows {
		entry := MaintenanceResponse{
			ID:          window.ID,
			Title:       window.Title,
			Description: window.Description,
			Status:      window.LifecycleStatus(now),
			StartsAt:    window.StartsAt,
			EndsAt:      window.EndsAt,
		}
		for _, monitor := range window.Monitors {
			entry.MonitorIDs = append(entry.MonitorIDs, monitor.ID)
		}
		response = append(response, entry)
	}

	ctx.JSON(http.StatusOK, response)
}

func RescheduleMaintenance(ctx *gin.Context) {
	windowID, err := utils.GetMaintenanceID(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req RescheduleMaintenanceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var window models.MaintenanceWindow
	if err := db.DB.Joins("JOIN status_pages ON status_pages.id = maintenance_windows.status_page_id").
		Where("maintenance_windows.id = ? AND status_pages.owner_id = ?", windowID, userID).
		First(&window).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Maintenance window not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve maintenance window"})
		}
		return
	}

	updated, err := store.RescheduleMaintenance(window.ID, req.StartsAt, req.EndsAt)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Maintenance window rescheduled", "window_id": updated.ID})
}
