package bot

import (
	"errors"

	"marifkon/internal/database"
)

func (b *Bot) getErrorMessage(lang string, err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, database.ErrUserNotFound) {
		return b.messages.T(lang, MsgNotRegistered)
	}

	return b.messages.T(lang, MsgErrorGeneric)
}
