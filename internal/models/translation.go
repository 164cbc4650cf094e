package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const MaxSourceTextLength = 50000

// Supported language codes. Both sides of a translation must come from
// this set and must differ.
var SupportedLanguages = map[string]bool{
	"EN": true,
	"UK": true,
	"FR": true,
	"DE": true,
	"ES": true,
}

type Translation struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	UserID         uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	User           *User     `json:"-" gorm:"foreignKey:UserID"`
	PaymentID      uuid.UUID `json:"payment_id" gorm:"type:uuid;not null;index"`
	Payment        *Payment  `json:"-" gorm:"foreignKey:PaymentID"`
	SourceText     string    `json:"source_text" gorm:"not null"`
	TranslatedText string    `json:"translated_text" gorm:"not null"`
	SourceLang     string    `json:"source_lang" gorm:"not null;index"`
	TargetLang     string    `json:"target_lang" gorm:"not null;index"`
	CreatedAt      time.Time `json:"created_at" gorm:"index"`
}

func (translation *Translation) BeforeCreate(tx *gorm.DB) (err error) {
	if translation.ID == uuid.Nil {
		translation.ID = uuid.New()
	}
	return
}

// NormalizeLang uppercases a language code the way the provider expects it.
func NormalizeLang(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateTranslationRequest checks the user-supplied text and language pair
// before any payment or translation record is written.
func ValidateTranslationRequest(sourceText, sourceLang, targetLang string) error {
	if sourceText == "" {
		return fmt.Errorf("source_text is required")
	}
	if len([]rune(sourceText)) > MaxSourceTextLength {
		return fmt.Errorf("source_text must be shorter than %d characters", MaxSourceTextLength)
	}
	src := NormalizeLang(sourceLang)
	dst := NormalizeLang(targetLang)
	if src == "" || dst == "" {
		return fmt.Errorf("source_lang and target_lang are required")
	}
	if !SupportedLanguages[src] {
		return fmt.Errorf("unsupported source_lang %q", sourceLang)
	}
	if !SupportedLanguages[dst] {
		return fmt.Errorf("unsupported target_lang %q", targetLang)
	}
	if src == dst {
		return fmt.Errorf("target_lang must be different than source_lang")
	}
	return nil
}
