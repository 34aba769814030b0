package telegram

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"trenchwatch/clients/notifier"
	"trenchwatch/config"
)

func testTelegramClient(t *testing.T, handler http.HandlerFunc) *TelegramClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.Defaults()
	cfg.Telegram.BotToken = "test-token"
	cfg.Telegram.APIURL = srv.URL
	return NewTelegramClient(nil, cfg)
}

func TestSendCoinAlert_PostsToBotEndpoint(t *testing.T) {
	var gotPath string
	var gotPayload map[string]interface{}

	tc := testTelegramClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotPayload)
		w.WriteHeader(http.StatusOK)
	})

	alert := notifier.CoinAlert{
		Kind:            notifier.AlertKindMultiple,
		Symbol:          "TKN",
		ContractAddress: "CA1",
		MarketCap:       250_000,
		Multiple:        2.5,
		Threshold:       2,
	}
	if err := tc.SendCoinAlert("12345", alert); err != nil {
		t.Fatalf("SendCoinAlert() = %v", err)
	}

	if gotPath != "/bottest-token/sendMessage" {
		t.Errorf("path = %q", gotPath)
	}
	if gotPayload["chat_id"] != "12345" {
		t.Errorf("chat_id = %v", gotPayload["chat_id"])
	}
	if gotPayload["parse_mode"] != "Markdown" {
		t.Errorf("parse_mode = %v", gotPayload["parse_mode"])
	}
	if _, ok := gotPayload["disable_notification"]; ok {
		t.Error("disable_notification set for a loud alert")
	}

	text, _ := gotPayload["text"].(string)
	for _, want := range []string{"X ALERT", "TKN", "CA1", "2.50x", "$250.0K"} {
		if !strings.Contains(text, want) {
			t.Errorf("message missing %q:\n%s", want, text)
		}
	}
}

func TestSendCoinAlert_SilentSetsDisableNotification(t *testing.T) {
	var gotPayload map[string]interface{}
	tc := testTelegramClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotPayload)
		w.WriteHeader(http.StatusOK)
	})

	alert := notifier.CoinAlert{Kind: notifier.AlertKindMCTarget, ContractAddress: "CA1", Silent: true}
	if err := tc.SendCoinAlert("12345", alert); err != nil {
		t.Fatalf("SendCoinAlert() = %v", err)
	}

	if gotPayload["disable_notification"] != true {
		t.Error("disable_notification not set for a silent alert")
	}
}

func TestSendCoinAlert_APIErrorReturned(t *testing.T) {
	tc := testTelegramClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	err := tc.SendCoinAlert("12345", notifier.CoinAlert{Kind: notifier.AlertKindMCTarget})
	if err == nil {
		t.Error("expected error on API failure")
	}
}

func TestSendCoinAlert_UnconfiguredIsNoOp(t *testing.T) {
	cfg := config.Defaults()
	tc := NewTelegramClient(nil, cfg)

	if err := tc.SendCoinAlert("12345", notifier.CoinAlert{Kind: notifier.AlertKindMCTarget}); err != nil {
		t.Errorf("unconfigured client should not error, got %v", err)
	}
}

func TestSendCoinAlert_EmptyRecipient(t *testing.T) {
	tc := testTelegramClient(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("request sent despite empty recipient")
	})

	if err := tc.SendCoinAlert("", notifier.CoinAlert{Kind: notifier.AlertKindMCTarget}); err == nil {
		t.Error("expected error for empty recipient")
	}
}

func TestBuildAlertMessage_MetaNPumping(t *testing.T) {
	cfg := config.Defaults()
	cfg.Telegram.BotToken = "t"
	tc := NewTelegramClient(nil, cfg)

	alert := notifier.CoinAlert{
		Kind:      notifier.AlertKindNPumping,
		ListName:  "ai",
		Threshold: 10,
		PumpingCoins: []notifier.PumpingCoin{
			{Symbol: "AAA", PctChange: 15, MarketCap: 150_000},
			{Symbol: "BBB", PctChange: 30, MarketCap: 130_000},
		},
		Timestamp: time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC),
	}
	msg := tc.buildAlertMessage(alert)

	for _, want := range []string{"2 coins", "AAA", "+15.0%", "BBB", "+30.0%", "ai"} {
		if !strings.Contains(msg, want) {
			t.Errorf("meta message missing %q:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "*CA:*") {
		t.Error("meta message should not carry a single-coin CA line")
	}
}

func TestFmtUSD(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0"},
		{950, "$950"},
		{12_500, "$12.5K"},
		{3_400_000, "$3.40M"},
		{1_200_000_000, "$1.20B"},
		{-25_000, "$-25.0K"},
	}
	for _, tt := range tests {
		if got := fmtUSD(tt.in); got != tt.want {
			t.Errorf("fmtUSD(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestShortAddress(t *testing.T) {
	if got := shortAddress("abc"); got != "abc" {
		t.Errorf("short address mangled: %q", got)
	}
	long := "So11111111111111111111111111111111111111112"
	got := shortAddress(long)
	if !strings.HasPrefix(got, "So1111") || !strings.HasSuffix(got, "111112") {
		t.Errorf("shortAddress(%q) = %q", long, got)
	}
	if len(got) >= len(long) {
		t.Error("shortAddress did not shorten")
	}
}

func TestEscapeMarkdown(t *testing.T) {
	in := "a_b*c[d]e`f"
	want := "a\\_b\\*c\\[d\\]e\\`f"
	if got := escapeMarkdown(in); got != want {
		t.Errorf("escapeMarkdown(%q) = %q, want %q", in, got, want)
	}
}
