package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailure PaymentStatus = "failure"
)

type Payment struct {
	ID             uuid.UUID       `json:"id" gorm:"type:uuid;primary_key"`
	UserID         uuid.UUID       `json:"user_id" gorm:"type:uuid;not null;index"`
	User           *User           `json:"-" gorm:"foreignKey:UserID"`
	Amount         decimal.Decimal `json:"amount" gorm:"type:decimal(10,2);not null"`
	Status         PaymentStatus   `json:"status" gorm:"not null;default:'pending';index"`
	OrderReference *string         `json:"order_reference" gorm:"uniqueIndex"`
	CreatedAt      time.Time       `json:"created_at" gorm:"index"`
	ClosedAt       *time.Time      `json:"closed_at"`

	PendingTranslation *PendingTranslation `json:"-" gorm:"foreignKey:PaymentID;constraint:OnDelete:CASCADE"`
}

func (payment *Payment) BeforeCreate(tx *gorm.DB) (err error) {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	return
}

// ClosePayment flips a pending payment into a terminal status with a
// conditional update, so the synchronous confirm path and the gateway
// callback cannot both close the same payment. Returns false when the
// payment was no longer pending.
func ClosePayment(db *gorm.DB, paymentID uuid.UUID, status PaymentStatus) (bool, error) {
	now := time.Now().UTC()
	result := db.Model(&Payment{}).
		Where("id = ? AND status = ?", paymentID, PaymentStatusPending).
		Updates(map[string]interface{}{"status": status, "closed_at": now})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// DemotePayment downgrades a payment that was marked success but whose
// translation could not be produced afterwards.
func DemotePayment(db *gorm.DB, paymentID uuid.UUID) error {
	return db.Model(&Payment{}).
		Where("id = ? AND status = ?", paymentID, PaymentStatusSuccess).
		Update("status", PaymentStatusFailure).Error
}
