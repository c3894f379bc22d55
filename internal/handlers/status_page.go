package handlers

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/statuscore-dev/statuscore/db"
	"github.com/statuscore-dev/statuscore/internal/models"
	"github.com/statuscore-dev/statuscore/internal/utils"
	"gorm.io/gorm"
)

type CreateStatusPageRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug" binding:"required"`
	Description string `json:"description"`
}

type UpdateStatusPageRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type StatusPageResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	OwnerID     uint   `json:"owner_id"`
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func CreateStatusPage(ctx *gin.Context) {
	var body CreateStatusPageRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if !slugPattern.MatchString(body.Slug) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Slug must be lowercase letters, digits and hyphens"})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	page := models.StatusPage{
		Name:        body.Name,
		Slug:        body.Slug,
		Description: body.Description,
		OwnerID:     userID,
	}

	if err := db.DB.Create(&page).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			ctx.JSON(http.StatusConflict, gin.H{"error": "Slug is already taken"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create status page"})
		return
	}

	ctx.JSON(http.StatusCreated, statusPageResponse(page))
}

func ListStatusPages(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var pages []models.StatusPage

	if err := db.DB.Where("owner_id = ?", userID).Find(&pages).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve status pages"})
		return
	}

	response := make([]StatusPageResponse, 0, len(pages))
	for _, page := range pages {
		response = append(response, statusPageResponse(page))
	}

	ctx.JSON(http.StatusOK, response)
}

func UpdateStatusPage(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	pageID, err := utils.GetStatusPageID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var body UpdateStatusPageRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var page models.StatusPage

	if err := db.DB.Where("id = ? AND owner_id = ?", pageID, userID).First(&page).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Status page not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve status page"})
		}
		return
	}

	page.Name = body.Name
	page.Description = body.Description

	if err := db.DB.Save(&page).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update status page"})
		return
	}

	ctx.JSON(http.StatusOK, statusPageResponse(page))
}

func DeleteStatusPage(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	pageID, err := utils.GetStatusPageID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var page models.StatusPage

	if err := db.DB.Where("id = ? AND owner_id = ?", pageID, userID).First(&page).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Status page not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve status page"})
		}
		return
	}

	if err := db.DB.Delete(&page).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete status page"})
		return
	}

	engine.Forget(page.ID)

	ctx.Status(http.StatusNoContent)
}

func statusPageResponse(page models.StatusPage) StatusPageResponse {
	return StatusPageResponse{
		ID:          page.ID,
		Name:        page.Name,
		Slug:        page.Slug,
		Description: page.Description,
		OwnerID:     page.OwnerID,
	}
}

// ownedStatusPage loads a status page and verifies ownership.
func ownedStatusPage(ctx *gin.Context, pageID uint64, userID uint) (models.StatusPage, bool) {
	var page models.StatusPage

	if err := db.DB.Where("id = ? AND owner_id = ?", pageID, userID).First(&page).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Status page not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve status page"})
		}
		return models.StatusPage{}, false
	}

	return page, true
}
