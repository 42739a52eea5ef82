package httpapi

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"proposalbot/internal/config"
	"proposalbot/internal/convert"
	"proposalbot/internal/registry"
	"proposalbot/internal/store"
)

type recordedMessage struct {
	userID, channel, text string
}

type fakeBot struct {
	messages chan recordedMessage
	files    chan string
}

func (f *fakeBot) HandleMessage(ctx context.Context, userID, channel, text string) {
	f.messages <- recordedMessage{userID, channel, text}
}

func (f *fakeBot) HandleFileShared(ctx context.Context, userID, channel, filename, downloadURL string) {
	f.files <- filename
}

func setupTest(t *testing.T, signingSecret string) (*http.ServeMux, *fakeBot, *store.Store) {
	t.Helper()
	cfg := config.Config{SlackSigningSecret: signingSecret}
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	reg := registry.New(t.TempDir())
	conv := convert.NewService(&convert.FallbackRenderer{}, 1)
	bot := &fakeBot{messages: make(chan recordedMessage, 4), files: make(chan string, 4)}
	router := NewRouter(cfg, st, reg, conv, bot)
	mux := http.NewServeMux()
	router.Register(mux)
	return mux, bot, st
}

func TestURLVerification(t *testing.T) {
	mux, _, _ := setupTest(t, "")
	body := `{"type":"url_verification","challenge":"challenge-token"}`
	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr.Body.String() != "challenge-token" {
		t.Errorf("body = %q", rr.Body.String())
	}
}

func TestMessageEventDispatch(t *testing.T) {
	mux, bot, _ := setupTest(t, "")
	body := `{"type":"event_callback","event":{"type":"message","user":"U1","channel":"C1","text":"two week proposal please"}}`
	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	select {
	case got := <-bot.messages:
		if got.userID != "U1" || got.channel != "C1" || got.text != "two week proposal please" {
			t.Errorf("dispatched = %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("message not dispatched")
	}
}

func TestBotMessagesIgnored(t *testing.T) {
	mux, bot, _ := setupTest(t, "")
	body := `{"type":"event_callback","event":{"type":"message","bot_id":"B9","channel":"C1","text":"echo"}}`
	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	select {
	case got := <-bot.messages:
		t.Errorf("bot message dispatched: %+v", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSignatureVerification(t *testing.T) {
	const secret = "test-signing-secret"
	mux, _, _ := setupTest(t, secret)
	body := `{"type":"url_verification","challenge":"ok"}`

	// Unsigned requests are rejected.
	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code == http.StatusOK {
		t.Fatal("unsigned request accepted")
	}

	// Properly signed requests pass.
	ts := fmt.Sprintf("%d", time.Now().Unix())
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "v0:%s:%s", ts, body)
	req = httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body))
	req.Header.Set("X-Slack-Request-Timestamp", ts)
	req.Header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(mac.Sum(nil)))
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("signed request rejected: %d %s", rr.Code, rr.Body.String())
	}
}

func TestHealthEndpoint(t *testing.T) {
	mux, _, _ := setupTest(t, "")
	req := httptest.NewRequest(http.MethodGet, "/ops/health", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	mux, _, _ := setupTest(t, "")
	req := httptest.NewRequest(http.MethodGet, "/ops/metrics", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatal(err)
	}
	if _, ok := payload["counters"]; !ok {
		t.Errorf("payload = %v", payload)
	}
}

func TestStatusEndpoint(t *testing.T) {
	mux, _, _ := setupTest(t, "")
	req := httptest.NewRequest(http.MethodGet, "/ops/status", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatal(err)
	}
	if payload["renderer"] != "builtin" || payload["fallback"] != true {
		t.Errorf("payload = %v", payload)
	}
}

func TestRefreshRequiresPost(t *testing.T) {
	mux, _, _ := setupTest(t, "")
	req := httptest.NewRequest(http.MethodGet, "/ops/refresh", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/ops/refresh", nil)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestExportEndpoint(t *testing.T) {
	mux, _, st := setupTest(t, "")
	if err := st.LogProposal(context.Background(), &store.Entry{
		SubmittedBy: "U1", ClientName: "Acme", DateGenerated: time.Now().UTC(),
		PackageType: "single", Locations: "The Gateway", TotalAmount: "AED 1,316,196",
	}); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/ops/export", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheet") {
		t.Errorf("content type = %q", ct)
	}
	if rr.Body.Len() == 0 {
		t.Error("empty export body")
	}
}

func TestSummaryEndpoint(t *testing.T) {
	mux, _, st := setupTest(t, "")
	for _, pkg := range []string{"single", "combined"} {
		if err := st.LogProposal(context.Background(), &store.Entry{
			SubmittedBy: "U1", ClientName: "Acme", DateGenerated: time.Now().UTC(), PackageType: pkg,
		}); err != nil {
			t.Fatal(err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/ops/summary", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	var sum store.Summary
	if err := json.Unmarshal(rr.Body.Bytes(), &sum); err != nil {
		t.Fatal(err)
	}
	if sum.Total != 2 || sum.ByPackage["combined"] != 1 {
		t.Errorf("summary = %+v", sum)
	}
}
