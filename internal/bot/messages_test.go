package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalogLookup(t *testing.T) {
	c := DefaultCatalog()

	t.Run("known language", func(t *testing.T) {
		assert.Contains(t, c.T("en", MsgWelcome), "Welcome")
	})

	t.Run("unknown language falls back to uzbek", func(t *testing.T) {
		assert.Contains(t, c.T("fr", MsgWelcome), "Marafoniga")
	})

	t.Run("unknown key returns the key", func(t *testing.T) {
		assert.Equal(t, "no_such_key", c.T("uz", "no_such_key"))
	})

	t.Run("templating", func(t *testing.T) {
		text := c.T("en", MsgUnlocked, "https://t.me/+group")
		assert.Contains(t, text, "https://t.me/+group")
	})
}

func TestCatalogApplyOverrides(t *testing.T) {
	c := DefaultCatalog()

	c.ApplyOverrides(map[string]map[string]string{
		"en": {MsgWelcome: "Custom welcome"},
		"fr": {MsgWelcome: "Bienvenue"},
		"uz": {MsgHelp: ""},
	})

	assert.Equal(t, "Custom welcome", c.T("en", MsgWelcome))
	// Неизвестный язык игнорируется
	assert.NotEqual(t, "Bienvenue", c.T("fr", MsgWelcome))
	// Пустой текст не затирает встроенный
	assert.NotEmpty(t, c.T("uz", MsgHelp))
}
