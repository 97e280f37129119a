package bot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
)

// exportToExcel выгружает реестр и рейтинг в xlsx для организаторов.
func (b *Bot) exportToExcel(ctx context.Context) (string, error) {
	if err := os.MkdirAll(b.config.Exports.Path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	users, err := b.repo.GetAllUsers(ctx)
	if err != nil {
		return "", fmt.Errorf("error getting users: %v", err)
	}

	entries, err := b.ledger.Leaderboard(ctx, b.config.Bot.LeaderboardSize)
	if err != nil {
		return "", fmt.Errorf("error getting leaderboard: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	ledgerSheet := "Ledger"
	index, err := f.NewSheet(ledgerSheet)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	headers := []string{"ID", "Telegram ID", "Username", "First Name", "Last Name", "Referred By", "Referrals", "Rewarded", "Language", "Last Activity", "Created At"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(ledgerSheet, cell, header)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	lastHeaderCell, _ := excelize.CoordinatesToCellName(len(headers), 1)
	_ = f.SetCellStyle(ledgerSheet, "A1", lastHeaderCell, headerStyle)

	for rowIdx, user := range users {
		referredBy := ""
		if user.ReferredBy.Valid {
			referredBy = fmt.Sprintf("%d", user.ReferredBy.Int64)
		}
		row := []interface{}{
			user.ID,
			user.TelegramID,
			user.Username,
			user.FirstName,
			user.LastName,
			referredBy,
			user.Referrals,
			user.Rewarded,
			user.Language,
			user.LastActivity.Format("2006-01-02 15:04:05"),
			user.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for colIdx, value := range row {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			_ = f.SetCellValue(ledgerSheet, cell, value)
		}
	}

	_ = f.SetColWidth(ledgerSheet, "A", "K", 18)

	boardSheet := "Leaderboard"
	if _, err := f.NewSheet(boardSheet); err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}

	boardHeaders := []string{"Rank", "Telegram ID", "Name", "Referrals"}
	for i, header := range boardHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(boardSheet, cell, header)
	}
	_ = f.SetCellStyle(boardSheet, "A1", "D1", headerStyle)

	for i, entry := range entries {
		row := []interface{}{i + 1, entry.ReferrerID, entry.DisplayName, entry.Count}
		for colIdx, value := range row {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, i+2)
			_ = f.SetCellValue(boardSheet, cell, value)
		}
	}
	_ = f.SetColWidth(boardSheet, "A", "D", 18)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("ledger_%s.xlsx", time.Now().Format("2006-01-02_150405"))
	filePath := filepath.Join(b.config.Exports.Path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	b.logger.Info().Str("file_path", filePath).Msg("Excel file created")
	return filePath, nil
}
