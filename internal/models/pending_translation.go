package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PendingTranslation stages the text of a paid translation request while its
// payment is still pending. It is deleted as soon as the payment reaches a
// terminal status.
type PendingTranslation struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	PaymentID  uuid.UUID `json:"payment_id" gorm:"type:uuid;not null;uniqueIndex"`
	SourceText string    `json:"source_text" gorm:"not null"`
	SourceLang string    `json:"source_lang" gorm:"not null"`
	TargetLang string    `json:"target_lang" gorm:"not null"`
}

func (pending *PendingTranslation) BeforeCreate(tx *gorm.DB) (err error) {
	if pending.ID == uuid.Nil {
		pending.ID = uuid.New()
	}
	return
}

// DeletePendingTranslation removes the staged request for a payment. Missing
// rows are not an error so terminal transitions stay idempotent.
func DeletePendingTranslation(db *gorm.DB, paymentID uuid.UUID) error {
	return db.Where("payment_id = ?", paymentID).Delete(&PendingTranslation{}).Error
}
