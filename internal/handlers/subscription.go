package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/statuscore-dev/statuscore/db"
	"github.com/statuscore-dev/statuscore/internal/models"
	"gorm.io/gorm"
)

type SubscribeRequest struct {
	Email string   `json:"email" binding:"required,email"`
	Types []string `json:"types" binding:"required"`
}

var validSubscriptionTypes = map[string]bool{
	"incidents":   true,
	"maintenance": true,
}

// Subscribe accepts an email subscription for a public status page. The
// subscription is stored and acknowledged; delivery is handled by an
// external collaborator reading the subscriber table.
func Subscribe(ctx *gin.Context) {
	slug := ctx.Param("slug")

	var page models.StatusPage
	if err := db.DB.Where("slug = ?", slug).First(&page).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Status page not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve status page"})
		}
		return
	}

	var req SubscribeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	for _, t := range req.Types {
		if !validSubscriptionTypes[t] {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subscription type: " + t})
			return
		}
	}

	typesJSON, err := json.Marshal(req.Types)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subscription types"})
		return
	}

	subscriber := models.Subscriber{
		StatusPageID: page.ID,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Types:        typesJSON,
	}

	if err := db.DB.Create(&subscriber).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			ctx.JSON(http.StatusConflict, gin.H{"error": "Email is already subscribed"})
			return
		}
		log.Printf("Failed to store subscriber for status page %d: %v", page.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store subscription"})
		return
	}

	ctx.JSON(http.StatusAccepted, gin.H{"message": "Subscription accepted"})
}
