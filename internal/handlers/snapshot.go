package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/statuscore-dev/statuscore/db"
	"github.com/statuscore-dev/statuscore/internal/models"
	"github.com/statuscore-dev/statuscore/internal/status"
	"gorm.io/gorm"
)

// GetSnapshot serves the current authoritative snapshot for a public
// status page slug. This is the endpoint every push notification resolves
// to, and the polling fallback target.
func GetSnapshot(ctx *gin.Context) {
	slug := ctx.Param("slug")

	var page models.StatusPage
	if err := db.DB.Where("slug = ?", slug).First(&page).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Status page not found"})
		} else {
			log.Printf("Failed to load status page %q: %v", slug, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve status page"})
		}
		return
	}

	snapshot, err := engine.Current(page.ID)
	if err != nil {
		if errors.Is(err, status.ErrStatusPageNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Status page not found"})
		} else {
			log.Printf("Failed to compute snapshot for status page %d: %v", page.ID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute snapshot"})
		}
		return
	}

	ctx.JSON(http.StatusOK, snapshot)
}

// WebSocket hands the connection to the realtime hub. Viewers subscribe by
// sending subscribe_status_page messages once connected.
func WebSocket(ctx *gin.Context) {
	hub.Serve(ctx)
}
