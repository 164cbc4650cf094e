package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/movapay/movapay/internal/gateway"
	"github.com/movapay/movapay/internal/helpers"
	"github.com/movapay/movapay/internal/middleware"
	"github.com/movapay/movapay/internal/models"
)

type TranslationOrderRequest struct {
	SourceText string `json:"source_text" binding:"required"`
	SourceLang string `json:"source_lang" binding:"required"`
	TargetLang string `json:"target_lang" binding:"required"`
	ReturnURL  string `json:"return_url"`
}

var (
	pricePerTenChars = decimal.NewFromInt(10)
	minimumCharge    = decimal.NewFromFloat(1.00)
)

// translationPrice charges 0.10 per character with a 1.00 minimum.
func translationPrice(sourceText string) decimal.Decimal {
	amount := decimal.NewFromInt(int64(len([]rune(sourceText)))).
		Div(pricePerTenChars).
		Round(2)
	if amount.LessThan(minimumCharge) {
		return minimumCharge
	}
	return amount
}

// CreatePayment stages a paid translation order: a pending payment plus its
// pending translation, then a signed invoice at the gateway. The payment
// stays pending until the gateway calls back or the owner confirms.
func CreatePayment(c *gin.Context) {
	var req TranslationOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Source text, source language and target language are required.")
		return
	}
	if err := models.ValidateTranslationRequest(req.SourceText, req.SourceLang, req.TargetLang); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	userID, _, ok := requestUser(c)
	if !ok {
		return
	}
	gormDB, ok := requestDB(c)
	if !ok {
		return
	}

	var user models.User
	if err := gormDB.First(&user, userID).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "User not found.")
		return
	}

	orderReference := uuid.New().String()
	payment := models.Payment{
		UserID:         user.ID,
		Amount:         translationPrice(req.SourceText),
		Status:         models.PaymentStatusPending,
		OrderReference: &orderReference,
	}

	err := gormDB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}
		pending := models.PendingTranslation{
			PaymentID:  payment.ID,
			SourceText: req.SourceText,
			SourceLang: models.NormalizeLang(req.SourceLang),
			TargetLang: models.NormalizeLang(req.TargetLang),
		}
		return tx.Create(&pending).Error
	})
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create payment.")
		return
	}

	gw := middleware.GetGatewayClient(c)
	if gw == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Payment gateway not configured.")
		return
	}

	invoice, err := gw.CreateInvoice(c.Request.Context(), gateway.Invoice{
		OrderReference: orderReference,
		OrderDate:      payment.CreatedAt.Unix(),
		Amount:         payment.Amount,
		Currency:       "UAH",
		ProductName:    "Translation",
		ClientEmail:    user.Email,
		ReturnURL:      req.ReturnURL,
	})
	if err != nil || invoice.URL == "" {
		log.Error().Err(err).Str("order_reference", orderReference).Msg("invoice creation failed")
		if _, casErr := models.ClosePayment(gormDB, payment.ID, models.PaymentStatusFailure); casErr != nil {
			helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to close payment.")
			return
		}
		if delErr := models.DeletePendingTranslation(gormDB, payment.ID); delErr != nil {
			log.Error().Err(delErr).Str("payment_id", payment.ID.String()).Msg("failed to delete pending translation")
		}
		details := gin.H{}
		if invoice != nil {
			details["reasonCode"] = invoice.ReasonCode
			details["reason"] = invoice.Reason
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to create payment URL",
			"details": details,
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"payment_id":      payment.ID,
		"order_reference": orderReference,
		"amount":          payment.Amount.StringFixed(2),
		"payment_url":     invoice.URL,
		"source_text":     req.SourceText,
		"source_lang":     models.NormalizeLang(req.SourceLang),
		"target_lang":     models.NormalizeLang(req.TargetLang),
	})
}

// ConfirmPayment resolves a pending payment synchronously: the owner (or an
// admin) supplies the text again, the provider is called inline and the
// payment is closed. Races against the gateway callback are settled by the
// conditional status update; the loser backs off without writing.
func ConfirmPayment(c *gin.Context) {
	var req TranslationOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Source text, source language and target language are required.")
		return
	}
	if err := models.ValidateTranslationRequest(req.SourceText, req.SourceLang, req.TargetLang); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	userID, isAdmin, ok := requestUser(c)
	if !ok {
		return
	}
	gormDB, ok := requestDB(c)
	if !ok {
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid payment ID.")
		return
	}

	var payment models.Payment
	if err := gormDB.First(&payment, paymentID).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Payment not found.")
		return
	}

	if payment.UserID != userID && !isAdmin {
		helpers.RespondWithError(c, http.StatusForbidden, "You are not authorized to confirm this payment.")
		return
	}

	if payment.Status != models.PaymentStatusPending {
		helpers.RespondWithError(c, http.StatusBadRequest, "Payment is already processed.")
		return
	}

	tr := middleware.GetTranslatorClient(c)
	if tr == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Translation provider not configured.")
		return
	}

	sourceLang := models.NormalizeLang(req.SourceLang)
	targetLang := models.NormalizeLang(req.TargetLang)

	translatedText, err := tr.Translate(c.Request.Context(), req.SourceText, sourceLang, targetLang)
	if err != nil {
		log.Error().Err(err).Str("payment_id", payment.ID.String()).Msg("translation failed during confirm")
		closed, casErr := models.ClosePayment(gormDB, payment.ID, models.PaymentStatusFailure)
		if casErr != nil {
			helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to close payment.")
			return
		}
		if !closed {
			helpers.RespondWithError(c, http.StatusBadRequest, "Payment is already processed.")
			return
		}
		if delErr := models.DeletePendingTranslation(gormDB, payment.ID); delErr != nil {
			log.Error().Err(delErr).Str("payment_id", payment.ID.String()).Msg("failed to delete pending translation")
		}
		helpers.RespondWithError(c, http.StatusBadRequest, "Translation failed.")
		return
	}

	closed, err := models.ClosePayment(gormDB, payment.ID, models.PaymentStatusSuccess)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to close payment.")
		return
	}
	if !closed {
		// The callback won the race; it owns the translation now.
		helpers.RespondWithError(c, http.StatusBadRequest, "Payment is already processed.")
		return
	}

	translation := models.Translation{
		UserID:         payment.UserID,
		PaymentID:      payment.ID,
		SourceText:     req.SourceText,
		TranslatedText: translatedText,
		SourceLang:     sourceLang,
		TargetLang:     targetLang,
	}
	if err := gormDB.Create(&translation).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to save translation.")
		return
	}

	if err := models.DeletePendingTranslation(gormDB, payment.ID); err != nil {
		log.Error().Err(err).Str("payment_id", payment.ID.String()).Msg("failed to delete pending translation")
	}

	if err := gormDB.First(&payment, payment.ID).Error; err == nil {
		notifyTranslationOwner(c, gormDB, &payment, &translation)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      payment.Status,
		"closed_at":   payment.ClosedAt,
		"translation": translation,
	})
}

// notifyTranslationOwner emails the result; a failure is logged and never
// affects the pipeline outcome.
func notifyTranslationOwner(c *gin.Context, gormDB *gorm.DB, payment *models.Payment, translation *models.Translation) {
	notifier := middleware.GetMailer(c)
	if notifier == nil {
		return
	}
	var user models.User
	if err := gormDB.First(&user, payment.UserID).Error; err != nil {
		log.Error().Err(err).Str("payment_id", payment.ID.String()).Msg("failed to load user for notification")
		return
	}
	if err := notifier.SendTranslationResult(&user, translation); err != nil {
		log.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to send translation email")
	}
}

func ListPayments(c *gin.Context) {
	userID, isAdmin, ok := requestUser(c)
	if !ok {
		return
	}
	gormDB, ok := requestDB(c)
	if !ok {
		return
	}

	query := gormDB.Model(&models.Payment{}).Order("created_at DESC")
	if !isAdmin {
		query = query.Where("user_id = ?", userID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if from := helpers.ParseDateParam(c, "from"); from != nil {
		query = query.Where("created_at >= ?", *from)
	}
	if to := helpers.ParseDateParam(c, "to"); to != nil {
		query = query.Where("created_at < ?", to.AddDate(0, 0, 1))
	}

	limit, offset := helpers.ParsePagination(c)

	var payments []models.Payment
	if err := query.Limit(limit).Offset(offset).Find(&payments).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving payments.")
		return
	}

	c.JSON(http.StatusOK, payments)
}

func GetPayment(c *gin.Context) {
	userID, isAdmin, ok := requestUser(c)
	if !ok {
		return
	}
	gormDB, ok := requestDB(c)
	if !ok {
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid payment ID.")
		return
	}

	var payment models.Payment
	if err := gormDB.First(&payment, paymentID).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Payment not found.")
		return
	}

	if payment.UserID != userID && !isAdmin {
		helpers.RespondWithError(c, http.StatusForbidden, "You don't have permission to view this payment.")
		return
	}

	c.JSON(http.StatusOK, payment)
}

// DeletePayment is an administrative action; payments are never removed by
// the normal flow.
func DeletePayment(c *gin.Context) {
	_, isAdmin, ok := requestUser(c)
	if !ok {
		return
	}
	if !isAdmin {
		helpers.RespondWithError(c, http.StatusForbidden, "Only admins can delete payments.")
		return
	}
	gormDB, ok := requestDB(c)
	if !ok {
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid payment ID.")
		return
	}

	var payment models.Payment
	if err := gormDB.First(&payment, paymentID).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Payment not found.")
		return
	}

	if err := gormDB.Transaction(func(tx *gorm.DB) error {
		if err := models.DeletePendingTranslation(tx, payment.ID); err != nil {
			return err
		}
		return tx.Delete(&payment).Error
	}); err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to delete payment.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Payment deleted successfully."})
}
