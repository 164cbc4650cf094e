package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/movapay/movapay/internal/gateway"
	"github.com/movapay/movapay/internal/helpers"
	"github.com/movapay/movapay/internal/middleware"
	"github.com/movapay/movapay/internal/models"
)

// WayForPayCallback handles the gateway's server-to-server notification.
// The endpoint is public, so the body is parsed defensively and the
// signature is verified before any state is touched. Unknown or already
// processed order references are a no-op, which makes duplicate callbacks
// harmless.
func WayForPayCallback(c *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("callback processing panicked")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		}
	}()

	gw := middleware.GetGatewayClient(c)
	if gw == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Payment gateway not configured.")
		return
	}
	gormDB, ok := requestDB(c)
	if !ok {
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid request format.")
		return
	}

	cb, err := gateway.ParseCallback(body)
	if err != nil {
		log.Warn().Err(err).Msg("unparsable gateway callback")
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid request format.")
		return
	}

	if cb.OrderReference == "" {
		helpers.RespondWithError(c, http.StatusBadRequest, "Missing orderReference.")
		return
	}

	if !gw.VerifyCallbackSignature(cb) {
		log.Warn().Str("order_reference", cb.OrderReference).Msg("callback signature mismatch")
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid callback signature.")
		return
	}

	var payment models.Payment
	err = gormDB.
		Where("order_reference = ? AND status = ?", cb.OrderReference, models.PaymentStatusPending).
		First(&payment).Error
	if err != nil {
		log.Info().Str("order_reference", cb.OrderReference).Msg("callback for unknown or non-pending payment")
		helpers.RespondWithError(c, http.StatusNotFound, "Payment not found.")
		return
	}

	if cb.ReasonCode == gateway.ReasonCodeApproved {
		closed, err := models.ClosePayment(gormDB, payment.ID, models.PaymentStatusSuccess)
		if err != nil {
			helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to close payment.")
			return
		}
		if closed {
			log.Info().Str("order_reference", cb.OrderReference).Msg("payment successful")
			fulfillPendingTranslation(c, gormDB, &payment)
		}
	} else {
		closed, err := models.ClosePayment(gormDB, payment.ID, models.PaymentStatusFailure)
		if err != nil {
			helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to close payment.")
			return
		}
		if closed {
			log.Info().
				Str("order_reference", cb.OrderReference).
				Int("reason_code", cb.ReasonCode).
				Msg("payment failed")
			if err := models.DeletePendingTranslation(gormDB, payment.ID); err != nil {
				log.Error().Err(err).Str("payment_id", payment.ID.String()).Msg("failed to delete pending translation")
			}
		}
	}

	c.JSON(http.StatusOK, gw.BuildAck(cb.OrderReference, "accept", time.Now().Unix()))
}

// fulfillPendingTranslation runs the provider against the staged request of
// a payment that just cleared. Provider failure demotes the payment to
// failure: a success row without its translation would be a lie. The
// pending row is removed on every outcome.
func fulfillPendingTranslation(c *gin.Context, gormDB *gorm.DB, payment *models.Payment) {
	var pending models.PendingTranslation
	if err := gormDB.Where("payment_id = ?", payment.ID).First(&pending).Error; err != nil {
		log.Warn().Str("payment_id", payment.ID.String()).Msg("no pending translation for payment")
		return
	}

	tr := middleware.GetTranslatorClient(c)
	if tr == nil {
		log.Error().Str("payment_id", payment.ID.String()).Msg("translation provider not configured")
		demoteAndCleanUp(gormDB, payment)
		return
	}

	translatedText, err := tr.Translate(
		c.Request.Context(),
		pending.SourceText,
		models.NormalizeLang(pending.SourceLang),
		models.NormalizeLang(pending.TargetLang),
	)
	if err != nil {
		log.Error().Err(err).Str("payment_id", payment.ID.String()).Msg("translation failed after successful payment")
		demoteAndCleanUp(gormDB, payment)
		return
	}

	translation := models.Translation{
		UserID:         payment.UserID,
		PaymentID:      payment.ID,
		SourceText:     pending.SourceText,
		TranslatedText: translatedText,
		SourceLang:     models.NormalizeLang(pending.SourceLang),
		TargetLang:     models.NormalizeLang(pending.TargetLang),
	}
	if err := gormDB.Create(&translation).Error; err != nil {
		log.Error().Err(err).Str("payment_id", payment.ID.String()).Msg("failed to save translation")
		demoteAndCleanUp(gormDB, payment)
		return
	}

	notifyTranslationOwner(c, gormDB, payment, &translation)

	if err := models.DeletePendingTranslation(gormDB, payment.ID); err != nil {
		log.Error().Err(err).Str("payment_id", payment.ID.String()).Msg("failed to delete pending translation")
	}
}

func demoteAndCleanUp(gormDB *gorm.DB, payment *models.Payment) {
	if err := models.DemotePayment(gormDB, payment.ID); err != nil {
		log.Error().Err(err).Str("payment_id", payment.ID.String()).Msg("failed to demote payment")
	}
	if err := models.DeletePendingTranslation(gormDB, payment.ID); err != nil {
		log.Error().Err(err).Str("payment_id", payment.ID.String()).Msg("failed to delete pending translation")
	}
}
