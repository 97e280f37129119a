package google

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"marifkon/internal/models"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	ledgerSheetRange      = "Ledger"
	leaderboardSheetRange = "Leaderboard"
)

// SheetsService зеркалирует реестр рефералов в Google-таблицу организаторов.
// Таблица только для чтения людьми, источником правды остается SQLite.
type SheetsService struct {
	service       *sheets.Service
	spreadsheetID string
}

func NewSheetsService(credentialsFile, spreadsheetID string) (*SheetsService, error) {
	ctx := context.Background()

	// Читаем файл учетных данных сервисного аккаунта
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %v", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %v", err)
	}

	client := config.Client(ctx)

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %v", err)
	}

	return &SheetsService{
		service:       srv,
		spreadsheetID: spreadsheetID,
	}, nil
}

// TestConnection проверяет доступ к таблице.
func (s *SheetsService) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, ledgerSheetRange+"!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %v", err)
	}
	return nil
}

// GetServiceAccountEmail возвращает email сервисного аккаунта, чтобы его можно
// было добавить в доступы к таблице.
func (s *SheetsService) GetServiceAccountEmail(credentialsFile string) (string, error) {
	file, err := os.ReadFile(credentialsFile)
	if err != nil {
		return "", err
	}

	var creds struct {
		ClientEmail string `json:"client_email"`
	}

	if err := json.Unmarshal(file, &creds); err != nil {
		return "", err
	}

	return creds.ClientEmail, nil
}

// UpdateLedgerSheet полностью перезаписывает лист реестра.
func (s *SheetsService) UpdateLedgerSheet(ctx context.Context, users []*models.User) error {
	var values [][]interface{}

	headers := []interface{}{"ID", "Telegram ID", "Username", "First Name", "Last Name", "Referred By", "Referrals", "Rewarded", "Language", "Last Activity", "Created At"}
	values = append(values, headers)

	for _, user := range users {
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
		values = append(values, row)
	}

	rangeData := fmt.Sprintf("%s!A1:K%d", ledgerSheetRange, len(values))
	valueRange := &sheets.ValueRange{
		Values: values,
	}

	_, err := s.service.Spreadsheets.Values.Update(s.spreadsheetID, rangeData, valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()

	return err
}

// UpdateLeaderboardSheet перезаписывает лист с топом рефереров.
func (s *SheetsService) UpdateLeaderboardSheet(ctx context.Context, entries []models.LeaderboardEntry) error {
	var values [][]interface{}

	headers := []interface{}{"Rank", "Telegram ID", "Name", "Referrals"}
	values = append(values, headers)

	for i, entry := range entries {
		row := []interface{}{
			i + 1,
			entry.ReferrerID,
			entry.DisplayName,
			entry.Count,
		}
		values = append(values, row)
	}

	// Хвост листа от прошлой выгрузки чистим перед записью
	clearRange := leaderboardSheetRange + "!A:D"
	if _, err := s.service.Spreadsheets.Values.Clear(s.spreadsheetID, clearRange, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to clear leaderboard sheet: %v", err)
	}

	rangeData := fmt.Sprintf("%s!A1:D%d", leaderboardSheetRange, len(values))
	valueRange := &sheets.ValueRange{
		Values: values,
	}

	_, err := s.service.Spreadsheets.Values.Update(s.spreadsheetID, rangeData, valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()

	return err
}
