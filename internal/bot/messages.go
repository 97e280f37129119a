package bot

import (
	"fmt"

	"marifkon/internal/models"
)

// Ключи сообщений каталога. Тексты можно переопределить в messages.yaml.
const (
	MsgWelcome        = "welcome"
	MsgStatus         = "status"
	MsgJoinPrompt     = "join_prompt"
	MsgBtnJoined      = "btn_joined"
	MsgBtnChannel     = "btn_channel"
	MsgJoinNotYet     = "join_not_yet"
	MsgUnlocked       = "unlocked"
	MsgAlreadyAccess  = "already_access"
	MsgNotRegistered  = "not_registered"
	MsgLeaderboard    = "leaderboard_title"
	MsgLeaderboardRow = "leaderboard_row"
	MsgLeaderboardNil = "leaderboard_empty"
	MsgLanguageAsk    = "language_prompt"
	MsgLanguageSet    = "language_set"
	MsgHelp           = "help"
	MsgReminder       = "reminder"
	MsgRateLimited    = "rate_limited"
	MsgErrorGeneric   = "error_generic"
)

// Catalog хранит шаблоны сообщений по языкам. Формат шаблонов — fmt.Sprintf.
type Catalog struct {
	templates map[string]map[string]string
}

// DefaultCatalog возвращает встроенные тексты uz/en.
func DefaultCatalog() *Catalog {
	return &Catalog{templates: map[string]map[string]string{
		models.LanguageUzbek: {
			MsgWelcome: "👋 *Marifkon Marafoniga* xush kelibsiz!",
			MsgStatus: "🔗 Sizning taklif havolangiz:\n%s\n\n" +
				"📊 Siz taklif qilgansiz: *%d* do'st.\n" +
				"🎯 Yopiq guruhga kirish uchun yana *%d* do'st taklif qiling.",
			MsgJoinPrompt:     "Avval kanalimizga a'zo bo'ling:\n👉 %s",
			MsgBtnJoined:      "A'zo bo'ldim ✅",
			MsgBtnChannel:     "📢 Kanalga o'tish",
			MsgJoinNotYet:     "Siz hali kanalga a'zo emassiz",
			MsgUnlocked:       "✅ MashaAllah! Darslar guruhiga kirish ochildi:\n👉 %s",
			MsgAlreadyAccess:  "✅ Sizda allaqachon kirish bor:\n👉 %s",
			MsgNotRegistered:  "❌ Siz hali ro'yxatdan o'tmagansiz. /start yuboring",
			MsgLeaderboard:    "🏆 *Eng faol ishtirokchilar:*\n\n",
			MsgLeaderboardRow: "%d. %s — *%d* do'st\n",
			MsgLeaderboardNil: "Hali hech kim do'st taklif qilmagan.",
			MsgLanguageAsk:    "Tilni tanlang / Choose a language:",
			MsgLanguageSet:    "✅ Til o'rnatildi: O'zbekcha",
			MsgHelp: "Buyruqlar:\n" +
				"/start — ro'yxatdan o'tish va holat\n" +
				"/myreferrals — taklif holatim\n" +
				"/leaderboard — eng faollar\n" +
				"/language — tilni o'zgartirish",
			MsgReminder:     "⏰ Marafon davom etmoqda! Yana *%d* do'st taklif qiling va yopiq guruhga kiring.\n\n🔗 Havolangiz:\n%s",
			MsgRateLimited:  "⚠️ Juda ko'p xabar yuboryapsiz. Biroz kuting.",
			MsgErrorGeneric: "❌ Xatolik yuz berdi. Keyinroq qayta urinib ko'ring.",
		},
		models.LanguageEnglish: {
			MsgWelcome: "👋 Welcome to *Marifkon Marathon*!",
			MsgStatus: "🔗 Your referral link:\n%s\n\n" +
				"📊 You have invited: *%d* friend(s).\n" +
				"🎯 Invite *%d* more to unlock access to the private group.",
			MsgJoinPrompt:     "Please join our channel first:\n👉 %s",
			MsgBtnJoined:      "I joined ✅",
			MsgBtnChannel:     "📢 Open channel",
			MsgJoinNotYet:     "You have not joined the channel yet",
			MsgUnlocked:       "✅ MashaAllah! You unlocked the lessons group:\n👉 %s",
			MsgAlreadyAccess:  "✅ You already have access:\n👉 %s",
			MsgNotRegistered:  "❌ You are not registered yet. Send /start",
			MsgLeaderboard:    "🏆 *Top inviters:*\n\n",
			MsgLeaderboardRow: "%d. %s — *%d* friend(s)\n",
			MsgLeaderboardNil: "Nobody has invited a friend yet.",
			MsgLanguageAsk:    "Tilni tanlang / Choose a language:",
			MsgLanguageSet:    "✅ Language set: English",
			MsgHelp: "Commands:\n" +
				"/start — register and see your status\n" +
				"/myreferrals — my referral status\n" +
				"/leaderboard — top inviters\n" +
				"/language — change language",
			MsgReminder:     "⏰ The marathon is on! Invite *%d* more friend(s) to unlock the private group.\n\n🔗 Your link:\n%s",
			MsgRateLimited:  "⚠️ You are sending messages too fast. Please wait a bit.",
			MsgErrorGeneric: "❌ Something went wrong. Please try again later.",
		},
	}}
}

// ApplyOverrides накладывает тексты из messages.yaml поверх встроенных.
// Незнакомые языки и ключи игнорируются.
func (c *Catalog) ApplyOverrides(overrides map[string]map[string]string) {
	for lang, msgs := range overrides {
		if !models.KnownLanguage(lang) {
			continue
		}
		if c.templates[lang] == nil {
			c.templates[lang] = make(map[string]string)
		}
		for key, text := range msgs {
			if text != "" {
				c.templates[lang][key] = text
			}
		}
	}
}

// T возвращает текст по ключу для языка; падение на uz, затем на сам ключ.
func (c *Catalog) T(lang, key string, args ...interface{}) string {
	if !models.KnownLanguage(lang) {
		lang = models.DefaultLanguage
	}

	tmpl, ok := c.templates[lang][key]
	if !ok {
		tmpl, ok = c.templates[models.DefaultLanguage][key]
		if !ok {
			return key
		}
	}

	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}
