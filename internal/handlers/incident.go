package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/statuscore-dev/statuscore/db"
	"github.com/statuscore-dev/statuscore/internal/models"
	"github.com/statuscore-dev/statuscore/internal/registry"
	"github.com/statuscore-dev/statuscore/internal/status"
	"github.com/statuscore-dev/statuscore/internal/utils"
	"gorm.io/gorm"
)

type CreateIncidentRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Severity    string `json:"severity" binding:"required"`
	MonitorIDs  []uint `json:"monitor_ids"`
}

type TransitionIncidentRequest struct {
	Status  string `json:"status" binding:"required"`
	Message string `json:"message"`
}

type IncidentUpdateRequest struct {
	Message string `json:"message" binding:"required"`
}

type IncidentResponse struct {
	ID          uint                   `json:"id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Status      string                 `json:"status"`
	Severity    string                 `json:"severity"`
	MonitorIDs  []uint                 `json:"monitor_ids"`
	StartedAt   *time.Time             `json:"started_at"`
	ResolvedAt  *time.Time             `json:"resolved_at"`
	Updates     []IncidentUpdateDetail `json:"updates,omitempty"`
}

type IncidentUpdateDetail struct {
	Message  string    `json:"message"`
	PostedAt time.Time `json:"posted_at"`
}

// CreateIncident opens an operator-raised incident.
func CreateIncident(ctx *gin.Context) {
	var req CreateIncidentRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !status.ValidSeverity(req.Severity) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid severity: " + req.Severity})
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

	incident, err := store.OpenIncident(page.ID, req.Title, req.Description, req.Severity, req.MonitorIDs)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create incident"})
		return
	}

	notifier.IncidentCreated(page.ID, incident)

	ctx.JSON(http.StatusCreated, gin.H{"message": "Incident created successfully", "incident_id": incident.ID})
}

// ListIncidents returns the page's incidents, unresolved first.
func ListIncidents(ctx *gin.Context) {
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

	var incidents []models.Incident
	if err := db.DB.Preload("Monitors").
		Preload("Updates", func(tx *gorm.DB) *gorm.DB { return tx.Order("posted_at ASC") }).
		Where("status_page_id = ?", page.ID).
		Order("created_at DESC").
		Limit(50).
		Find(&incidents).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve incidents"})
		return
	}

	response := make([]IncidentResponse, 0, len(incidents))
	for _, incident := range incidents {
		response = append(response, incidentResponse(incident))
	}

	ctx.JSON(http.StatusOK, response)
}

// TransitionIncident moves an incident through its lifecycle. Resolving is
// terminal; resolved incidents stop influencing the snapshot but remain
// for history.
func TransitionIncident(ctx *gin.Context) {
	incidentID, err := utils.GetIncidentID(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req TransitionIncidentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !ownsIncident(ctx, incidentID) {
		return
	}

	incident, err := store.TransitionIncident(uint(incidentID), req.Status, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrIncidentResolved):
			ctx.JSON(http.StatusConflict, gin.H{"error": "Incident is already resolved"})
		case errors.Is(err, gorm.ErrRecordNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Incident not found"})
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}

	if incident.Status == status.IncidentResolved {
		notifier.IncidentResolved(incident.StatusPageID, incident)
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Incident updated successfully", "incident_id": incident.ID})
}

// AppendIncidentUpdate posts a timestamped update message without changing
// the lifecycle status.
func AppendIncidentUpdate(ctx *gin.Context) {
	incidentID, err := utils.GetIncidentID(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req IncidentUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !ownsIncident(ctx, incidentID) {
		return
	}

	update, err := store.AppendIncidentUpdate(uint(incidentID), req.Message)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Incident not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to append update"})
		}
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"message": "Update posted", "update_id": update.ID})
}

func ownsIncident(ctx *gin.Context, incidentID uint64) bool {
	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return false
	}

	var incident models.Incident
	if err := db.DB.Joins("JOIN status_pages ON status_pages.id = incidents.status_page_id").
		Where("incidents.id = ? AND status_pages.owner_id = ?", incidentID, userID).
		First(&incident).Error; err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Incident not found"})
		return false
	}

	return true
}

func incidentResponse(incident models.Incident) IncidentResponse {
	response := IncidentResponse{
		ID:          incident.ID,
		Title:       incident.Title,
		Description: incident.Description,
		Status:      incident.Status,
		Severity:    incident.Severity,
		StartedAt:   incident.StartedAt,
		ResolvedAt:  incident.ResolvedAt,
	}

	for _, monitor := range incident.Monitors {
		response.MonitorIDs = append(response.MonitorIDs, monitor.ID)
	}

	for _, update := range incident.Updates {
		response.Updates = append(response.Updates, IncidentUpdateDetail{
			Message:  update.Message,
			PostedAt: update.PostedAt,
		})
	}

	return response
}
