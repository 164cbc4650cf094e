package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DailyStat struct {
	ID                    uuid.UUID       `json:"id" gorm:"type:uuid;primary_key"`
	Date                  time.Time       `json:"date" gorm:"type:date;uniqueIndex;not null"`
	TotalTranslations     int64           `json:"total_translations" gorm:"not null;default:0"`
	TotalRevenue          decimal.Decimal `json:"total_revenue" gorm:"type:decimal(10,2);not null;default:0"`
	AverageCheck          decimal.Decimal `json:"average_check" gorm:"type:decimal(10,2);not null;default:0"`
	TotalUsers            int64           `json:"total_users" gorm:"not null;default:0"`
	UsersWithTranslations int64           `json:"users_with_translations" gorm:"not null;default:0"`
}

func (stat *DailyStat) BeforeCreate(tx *gorm.DB) (err error) {
	if stat.ID == uuid.Nil {
		stat.ID = uuid.New()
	}
	return
}
