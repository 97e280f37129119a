package google

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"marifkon/internal/models"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

func setupMockServer(ctx context.Context, handler http.HandlerFunc) (*httptest.Server, *SheetsService) {
	server := httptest.NewServer(handler)
	srv, _ := sheets.NewService(ctx, option.WithEndpoint(server.URL), option.WithoutAuthentication())
	s := &SheetsService{
		service:       srv,
		spreadsheetID: "ledger_tid",
	}
	return server, s
}

func TestSheetsServiceTestConnection(t *testing.T) {
	ctx := context.Background()
	server, s := setupMockServer(ctx, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "ledger_tid/values/Ledger") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(sheets.ValueRange{Values: [][]interface{}{{"ID"}}})
	})
	defer server.Close()

	if err := s.TestConnection(ctx); err != nil {
		t.Errorf("TestConnection failed: %v", err)
	}
}

func TestUpdateLedgerSheet(t *testing.T) {
	ctx := context.Background()

	var gotRange string
	var gotBody sheets.ValueRange
	server, s := setupMockServer(ctx, func(w http.ResponseWriter, r *http.Request) {
		gotRange = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(sheets.UpdateValuesResponse{})
	})
	defer server.Close()

	users := []*models.User{
		{
			ID:           1,
			TelegramID:   100,
			FirstName:    "Ali",
			ReferredBy:   sql.NullInt64{Int64: 200, Valid: true},
			Referrals:    2,
			Language:     "uz",
			LastActivity: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
			CreatedAt:    time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			ID:         2,
			TelegramID: 200,
			Username:   "vali",
			Rewarded:   true,
			Language:   "en",
		},
	}

	if err := s.UpdateLedgerSheet(ctx, users); err != nil {
		t.Fatalf("UpdateLedgerSheet failed: %v", err)
	}

	if !strings.Contains(gotRange, "Ledger") {
		t.Errorf("unexpected range path: %s", gotRange)
	}
	// Заголовок + две строки данных
	if len(gotBody.Values) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(gotBody.Values))
	}
	if gotBody.Values[1][5] != "200" {
		t.Errorf("expected referred_by '200', got %v", gotBody.Values[1][5])
	}
	if gotBody.Values[2][5] != "" {
		t.Errorf("expected empty referred_by, got %v", gotBody.Values[2][5])
	}
}

func TestUpdateLeaderboardSheet(t *testing.T) {
	ctx := context.Background()

	var updateBody sheets.ValueRange
	var cleared bool
	server, s := setupMockServer(ctx, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ":clear") {
			cleared = true
			_ = json.NewEncoder(w).Encode(sheets.ClearValuesResponse{})
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&updateBody)
		_ = json.NewEncoder(w).Encode(sheets.UpdateValuesResponse{})
	})
	defer server.Close()

	entries := []models.LeaderboardEntry{
		{ReferrerID: 100, Count: 5, DisplayName: "Ali"},
		{ReferrerID: 200, Count: 3, DisplayName: "Vali"},
	}

	if err := s.UpdateLeaderboardSheet(ctx, entries); err != nil {
		t.Fatalf("UpdateLeaderboardSheet failed: %v", err)
	}

	if !cleared {
		t.Error("expected sheet to be cleared before update")
	}
	if len(updateBody.Values) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(updateBody.Values))
	}
	// Ранг проставляется по порядку
	if rank, ok := updateBody.Values[1][0].(float64); !ok || rank != 1 {
		t.Errorf("expected rank 1, got %v", updateBody.Values[1][0])
	}
}
