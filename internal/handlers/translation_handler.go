package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/movapay/movapay/internal/helpers"
	"github.com/movapay/movapay/internal/models"
)

// Translations are produced exclusively by the fulfillment pipeline, so the
// HTTP surface is read-only plus an admin-only delete.

func ListTranslations(c *gin.Context) {
	userID, isAdmin, ok := requestUser(c)
	if !ok {
		return
	}
	gormDB, ok := requestDB(c)
	if !ok {
		return
	}

	query := gormDB.Model(&models.Translation{}).Order("created_at DESC")
	if !isAdmin {
		query = query.Where("user_id = ?", userID)
	}
	if lang := c.Query("source_lang"); lang != "" {
		query = query.Where("source_lang = ?", models.NormalizeLang(lang))
	}
	if lang := c.Query("target_lang"); lang != "" {
		query = query.Where("target_lang = ?", models.NormalizeLang(lang))
	}
	if from := helpers.ParseDateParam(c, "from"); from != nil {
		query = query.Where("created_at >= ?", *from)
	}
	if to := helpers.ParseDateParam(c, "to"); to != nil {
		query = query.Where("created_at < ?", to.AddDate(0, 0, 1))
	}

	limit, offset := helpers.ParsePagination(c)

	var translations []models.Translation
	if err := query.Limit(limit).Offset(offset).Find(&translations).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving translations.")
		return
	}

	c.JSON(http.StatusOK, translations)
}

func GetTranslation(c *gin.Context) {
	userID, isAdmin, ok := requestUser(c)
	if !ok {
		return
	}
	gormDB, ok := requestDB(c)
	if !ok {
		return
	}

	translationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid translation ID.")
		return
	}

	var translation models.Translation
	if err := gormDB.First(&translation, translationID).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Translation not found.")
		return
	}

	if translation.UserID != userID && !isAdmin {
		helpers.RespondWithError(c, http.StatusForbidden, "You don't have permission to view this translation.")
		return
	}

	c.JSON(http.StatusOK, translation)
}

func DeleteTranslation(c *gin.Context) {
	_, isAdmin, ok := requestUser(c)
	if !ok {
		return
	}
	if !isAdmin {
		helpers.RespondWithError(c, http.StatusForbidden, "Only admins can delete translations.")
		return
	}
	gormDB, ok := requestDB(c)
	if !ok {
		return
	}

	translationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid translation ID.")
		return
	}

	var translation models.Translation
	if err := gormDB.First(&translation, translationID).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Translation not found.")
		return
	}

	if err := gormDB.Delete(&translation).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to delete translation.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Translation deleted successfully."})
}
