package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayName(t *testing.T) {
	u := &User{FirstName: "Aziza", Username: "azizaxon"}
	assert.Equal(t, "Aziza", u.DisplayName())

	u = &User{Username: "azizaxon"}
	assert.Equal(t, "azizaxon", u.DisplayName())

	u = &User{}
	assert.Equal(t, "Unknown", u.DisplayName())

	var nilUser *User
	assert.Equal(t, "Unknown", nilUser.DisplayName())
}

func TestLanguageOrDefault(t *testing.T) {
	u := &User{Language: LanguageEnglish}
	assert.Equal(t, "en", u.LanguageOrDefault())

	u = &User{Language: "fr"}
	assert.Equal(t, LanguageUzbek, u.LanguageOrDefault())

	u = &User{}
	assert.Equal(t, LanguageUzbek, u.LanguageOrDefault())

	var nilUser *User
	assert.Equal(t, LanguageUzbek, nilUser.LanguageOrDefault())
}

func TestReferralStatusRemaining(t *testing.T) {
	s := ReferralStatus{ReferralCount: 1}
	assert.Equal(t, int64(2), s.Remaining(3))

	s = ReferralStatus{ReferralCount: 3}
	assert.Equal(t, int64(0), s.Remaining(3))

	s = ReferralStatus{ReferralCount: 7}
	assert.Equal(t, int64(0), s.Remaining(3))
}

func TestUserStateGetters(t *testing.T) {
	s := &UserState{
		UserID:      42,
		CurrentStep: StateChoosingLanguage,
		TempData: map[string]interface{}{
			"referrer_id": float64(100500), // после JSON-раундтрипа числа приходят как float64
			"lang":        "en",
		},
	}

	assert.Equal(t, int64(100500), s.GetInt64("referrer_id"))
	assert.Equal(t, "en", s.GetString("lang"))
	assert.Equal(t, int64(0), s.GetInt64("missing"))
	assert.Equal(t, "", s.GetString("missing"))

	var nilState *UserState
	assert.Equal(t, int64(0), nilState.GetInt64("x"))
	assert.Equal(t, "", nilState.GetString("x"))
}
