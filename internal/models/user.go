package models

import (
	"database/sql"
	"time"
)

const (
	LanguageUzbek   = "uz"
	LanguageEnglish = "en"

	// DefaultLanguage используется, когда пользователь ещё не выбрал язык
	DefaultLanguage = LanguageUzbek
)

// KnownLanguage reports whether code is one of the supported catalog languages.
func KnownLanguage(code string) bool {
	return code == LanguageUzbek || code == LanguageEnglish
}

type User struct {
	ID           int64         `json:"id"`
	TelegramID   int64         `json:"telegram_id"`
	Username     string        `json:"username"`
	FirstName    string        `json:"first_name"`
	LastName     string        `json:"last_name"`
	ReferredBy   sql.NullInt64 `json:"referred_by"`
	Referrals    int64         `json:"referrals"` // кэшированный счётчик, только справочный
	Rewarded     bool          `json:"rewarded"`
	Language     string        `json:"language"`
	LastActivity time.Time     `json:"last_activity"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// DisplayName возвращает имя для вывода: first_name, иначе username, иначе "Unknown"
func (u *User) DisplayName() string {
	if u == nil {
		return "Unknown"
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.Username != "" {
		return u.Username
	}
	return "Unknown"
}

// LanguageOrDefault returns the stored language or the catalog default.
func (u *User) LanguageOrDefault() string {
	if u == nil || !KnownLanguage(u.Language) {
		return DefaultLanguage
	}
	return u.Language
}
