package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tradepal/assistant/internal/speech"
	"github.com/tradepal/assistant/internal/store"
)

type stubCompleter struct{ reply string }

func (c *stubCompleter) Complete(_ context.Context, _, _ string) string {
	return c.reply
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	st, err := store.Open(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	s := New(Config{
		Addr:          ":0",
		FrameInterval: 20 * time.Millisecond,
		Voice: speech.CaptureConfig{
			WakePhrase:       "hey trade",
			CommandTimeout:   2 * time.Second,
			FinalizeDelay:    30 * time.Millisecond,
			InterimExtension: 60 * time.Millisecond,
			WatchdogInterval: 10 * time.Second,
			RestartDelay:     10 * time.Millisecond,
			ReinitBackoff:    50 * time.Millisecond,
		},
		Completer: &stubCompleter{reply: "Here is what I found."},
		Store:     st,
		Log:       zerolog.Nop(),
	})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestAlertCRUDOverHTTP(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/alerts/", store.PriceAlert{
		Symbol:      "AAPL",
		TargetPrice: decimal.NewFromInt(190),
		Direction:   store.AlertAbove,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}
	var created store.PriceAlert
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode created alert: %v", err)
	}
	resp.Body.Close()
	if created.ID == "" {
		t.Fatal("created alert should carry an id")
	}

	listResp, err := http.Get(ts.URL + "/api/alerts/")
	if err != nil {
		t.Fatalf("GET alerts: %v", err)
	}
	var alerts []store.PriceAlert
	if err := json.NewDecoder(listResp.Body).Decode(&alerts); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	listResp.Body.Close()
	if len(alerts) != 1 || alerts[0].Symbol != "AAPL" {
		t.Fatalf("unexpected list: %+v", alerts)
	}

	execResp := postJSON(t, ts.URL+"/api/alerts/"+created.ID+"/execute", nil)
	var executed store.PriceAlert
	if err := json.NewDecoder(execResp.Body).Decode(&executed); err != nil {
		t.Fatalf("decode executed: %v", err)
	}
	execResp.Body.Close()
	if !executed.Executed {
		t.Error("execute should flip the flag")
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/alerts/"+created.ID, nil)
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", delResp.StatusCode)
	}
}

func TestUnknownAlertIs404(t *testing.T) {
	_, ts := newTestServer(t)
	resp := postJSON(t, ts.URL+"/api/alerts/nope/execute", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func dialSession(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/session"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil drains socket messages until one of the wanted type arrives.
// Frames stream continuously, so unrelated types are skipped.
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	conn.SetReadDeadline(deadline)
	for time.Now().Before(deadline) {
		var m map[string]any
		if err := conn.ReadJSON(&m); err != nil {
			t.Fatalf("read while waiting for %q: %v", msgType, err)
		}
		if m["type"] == msgType {
			return m
		}
	}
	t.Fatalf("no %q message before deadline", msgType)
	return nil
}

func TestSessionSocketChat(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dialSession(t, ts)

	if err := conn.WriteJSON(map[string]any{"type": "chat", "text": "what is an ETF"}); err != nil {
		t.Fatalf("write chat: %v", err)
	}

	first := readUntil(t, conn, "transcript")
	msg := first["message"].(map[string]any)
	if msg["role"] != "user" {
		t.Errorf("first transcript role = %v, want user", msg["role"])
	}

	second := readUntil(t, conn, "transcript")
	msg = second["message"].(map[string]any)
	if msg["role"] != "assistant" {
		t.Errorf("second transcript role = %v, want assistant", msg["role"])
	}
	if !strings.Contains(msg["content"].(string), "Here is what I found.") {
		t.Errorf("assistant content missing reply: %v", msg["content"])
	}
}

func TestSessionSocketStreamsFrames(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dialSession(t, ts)

	frame := readUntil(t, conn, "frame")
	if frame["status"] == nil || frame["emotion"] == nil {
		t.Errorf("frame missing status/emotion: %v", frame)
	}
}

func TestSessionSocketUnsupportedSpeechNotice(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dialSession(t, ts)

	if err := conn.WriteJSON(map[string]any{"type": "hello", "speechSupported": false}); err != nil {
		t.Fatalf("write hello: %v", err)
	}

	notice := readUntil(t, conn, "notice")
	if notice["key"] != "speech-unsupported" {
		t.Errorf("notice key = %v, want speech-unsupported", notice["key"])
	}
}

func TestSessionSocketWakeAndCommand(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dialSession(t, ts)

	if err := conn.WriteJSON(map[string]any{"type": "hello", "speechSupported": true}); err != nil {
		t.Fatalf("write hello: %v", err)
	}

	// Supported recognizers are started immediately.
	start := readUntil(t, conn, "recognizer")
	if start["action"] != "start" {
		t.Errorf("action = %v, want start", start["action"])
	}

	err := conn.WriteJSON(map[string]any{
		"type": "recognition", "text": "hey trade what is an ETF", "final": true,
	})
	if err != nil {
		t.Fatalf("write recognition: %v", err)
	}

	// After the finalize delay the held transcript dispatches as a chat turn.
	first := readUntil(t, conn, "transcript")
	msg := first["message"].(map[string]any)
	if msg["role"] != "user" || msg["content"] != "what is an ETF" {
		t.Errorf("unexpected dispatched command: %v", msg)
	}

	second := readUntil(t, conn, "transcript")
	if second["message"].(map[string]any)["role"] != "assistant" {
		t.Error("expected an assistant reply to the voice command")
	}
}
