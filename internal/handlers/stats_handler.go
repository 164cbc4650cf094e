package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/movapay/movapay/internal/helpers"
	"github.com/movapay/movapay/internal/middleware"
	"github.com/movapay/movapay/internal/models"
)

const statsCacheTTL = 5 * time.Minute

// GetStats recomputes the daily rollup over translations, successful
// payments and users. Results are cached in Redis for a few minutes and
// mirrored into the daily_stats table.
func GetStats(c *gin.Context) {
	_, isAdmin, ok := requestUser(c)
	if !ok {
		return
	}
	if !isAdmin {
		helpers.RespondWithError(c, http.StatusForbidden, "Only admins can access stats.")
		return
	}
	gormDB, ok := requestDB(c)
	if !ok {
		return
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	cacheKey := "stats:daily:" + today.Format("2006-01-02")

	rdb := middleware.GetRedisClient(c)
	if rdb != nil {
		if cached, err := rdb.Get(c.Request.Context(), cacheKey).Bytes(); err == nil {
			c.Data(http.StatusOK, "application/json", cached)
			return
		}
	}

	var totalTranslations int64
	if err := gormDB.Model(&models.Translation{}).Count(&totalTranslations).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error computing stats.")
		return
	}

	var revenue struct {
		Total decimal.Decimal
		Count int64
	}
	err := gormDB.Model(&models.Payment{}).
		Where("status = ?", models.PaymentStatusSuccess).
		Select("COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Scan(&revenue).Error
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error computing stats.")
		return
	}

	averageCheck := decimal.Zero
	if revenue.Count > 0 {
		averageCheck = revenue.Total.Div(decimal.NewFromInt(revenue.Count)).Round(2)
	}

	var totalUsers int64
	if err := gormDB.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error computing stats.")
		return
	}

	var usersWithTranslations int64
	if err := gormDB.Model(&models.Translation{}).Distinct("user_id").Count(&usersWithTranslations).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error computing stats.")
		return
	}

	stat := models.DailyStat{
		Date:                  today,
		TotalTranslations:     totalTranslations,
		TotalRevenue:          revenue.Total.Round(2),
		AverageCheck:          averageCheck,
		TotalUsers:            totalUsers,
		UsersWithTranslations: usersWithTranslations,
	}

	var existing models.DailyStat
	if err := gormDB.Where("date = ?", today).First(&existing).Error; err == nil {
		stat.ID = existing.ID
		if err := gormDB.Model(&existing).Updates(map[string]interface{}{
			"total_translations":      stat.TotalTranslations,
			"total_revenue":           stat.TotalRevenue,
			"average_check":           stat.AverageCheck,
			"total_users":             stat.TotalUsers,
			"users_with_translations": stat.UsersWithTranslations,
		}).Error; err != nil {
			log.Error().Err(err).Msg("failed to update daily stats row")
		}
	} else if err := gormDB.Create(&stat).Error; err != nil {
		log.Error().Err(err).Msg("failed to create daily stats row")
	}

	if rdb != nil {
		if payload, err := json.Marshal(stat); err == nil {
			if err := rdb.Set(c.Request.Context(), cacheKey, payload, statsCacheTTL).Err(); err != nil {
				log.Warn().Err(err).Msg("failed to cache daily stats")
			}
		}
	}

	c.JSON(http.StatusOK, stat)
}
