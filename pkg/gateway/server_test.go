package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v5"

	"cordkit/pkg/builders"
	"cordkit/pkg/config"
	"cordkit/pkg/events"
	"cordkit/pkg/handler"
	"cordkit/pkg/logger"
	"cordkit/pkg/rest/resttest"
)

func newTestServer(t *testing.T, secret string) (*Server, *resttest.Recorder) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Gateway.JWTSecret = secret

	rec := resttest.New("app-1")
	h := handler.New(rec, logger.Nop(), handler.Options{SyncRate: 1000, SyncBurst: 100})
	if err := h.AddCommands(builders.NewChatCommand("ping", "pong")); err != nil {
		t.Fatal(err)
	}

	stream := events.NewLocalStream(logger.Nop(), 10)
	return NewServer(cfg, logger.Nop(), h, stream), rec
}

func signed(t *testing.T, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "ops",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.echo.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestHandleStatus(t *testing.T) {
	s, _ := newTestServer(t, "")
	_ = s.handler.Bind(builders.NewButton("refresh").SetLabel("Refresh"))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	w := httptest.NewRecorder()
	c := e.NewContext(req, w)

	if err := s.handleStatus(c); err != nil {
		t.Fatalf("handleStatus failed: %v", err)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal status payload: %v", err)
	}
	for _, key := range []string{"version", "uptime", "uptime_seconds", "bound", "local_commands", "event_metrics"} {
		if _, ok := payload[key]; !ok {
			t.Fatalf("expected key %q in payload, got %v", key, payload)
		}
	}
	bound := payload["bound"].(map[string]interface{})
	if bound["components"].(float64) != 1 {
		t.Fatalf("expected 1 bound component, got %v", bound)
	}
	if payload["local_commands"].(float64) != 1 {
		t.Fatalf("expected 1 local command, got %v", payload["local_commands"])
	}
}

func TestSyncAndCommands(t *testing.T) {
	s, rec := newTestServer(t, "")

	w := httptest.NewRecorder()
	s.echo.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("sync: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if n := rec.Count(resttest.MethodCreateCommand); n != 1 {
		t.Fatalf("expected 1 create, got %d", n)
	}

	w = httptest.NewRecorder()
	s.echo.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/commands", nil))
	var bound []handler.BoundCommand
	if err := json.Unmarshal(w.Body.Bytes(), &bound); err != nil {
		t.Fatalf("unmarshal commands: %v", err)
	}
	if len(bound) != 1 || bound[0].Name != "ping" {
		t.Fatalf("unexpected bound commands %+v", bound)
	}
}

func TestPlanReportsPendingChanges(t *testing.T) {
	s, rec := newTestServer(t, "")

	w := httptest.NewRecorder()
	s.echo.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/plan", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("plan: expected 200, got %d", w.Code)
	}
	var summaries []handler.Summary
	if err := json.Unmarshal(w.Body.Bytes(), &summaries); err != nil {
		t.Fatalf("unmarshal plan: %v", err)
	}
	if len(summaries) != 1 || len(summaries[0].Create) != 1 {
		t.Fatalf("unexpected plan %+v", summaries)
	}
	if n := rec.Count(resttest.MethodCreateCommand); n != 0 {
		t.Fatalf("plan must not mutate, saw %d creates", n)
	}
}

func TestSyncFailureIsBadGateway(t *testing.T) {
	s, _ := newTestServer(t, "")
	s.handler = handler.New(resttest.New(""), logger.Nop(), handler.Options{})

	w := httptest.NewRecorder()
	s.echo.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil))
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}

func TestAPIRequiresTokenWhenSecretSet(t *testing.T) {
	s, _ := newTestServer(t, "s3cret")

	w := httptest.NewRecorder()
	s.echo.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/commands", nil))
	if w.Code == http.StatusOK {
		t.Fatalf("expected unauthenticated request to be rejected")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/commands", nil)
	req.Header.Set("Authorization", "Bearer "+signed(t, "s3cret"))
	w = httptest.NewRecorder()
	s.echo.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", w.Code)
	}

	// Health stays public.
	w = httptest.NewRecorder()
	s.echo.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected public health, got %d", w.Code)
	}
}

func TestAuthenticate(t *testing.T) {
	s, _ := newTestServer(t, "s3cret")

	if _, err := s.authenticate(httptest.NewRequest(http.MethodGet, "/ws/dispatch", nil)); err == nil {
		t.Fatalf("expected missing token to fail")
	}
	if _, err := s.authenticate(httptest.NewRequest(http.MethodGet, "/ws/dispatch?token="+signed(t, "other"), nil)); err == nil {
		t.Fatalf("expected wrong secret to fail")
	}
	sub, err := s.authenticate(httptest.NewRequest(http.MethodGet, "/ws/dispatch?token="+signed(t, "s3cret"), nil))
	if err != nil || sub != "ops" {
		t.Fatalf("expected subject ops, got %q (%v)", sub, err)
	}
}

func TestDispatchFeed(t *testing.T) {
	s, _ := newTestServer(t, "")
	s.handler.SetObserver(s.broadcast)
	_ = s.handler.Bind(builders.NewButton("refresh").SetLabel("Refresh"))

	ts := httptest.NewServer(s.echo)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws/dispatch", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var welcome FeedMessage
	if err := conn.ReadJSON(&welcome); err != nil || welcome.Type != "system" {
		t.Fatalf("expected welcome, got %+v (%v)", welcome, err)
	}

	s.handler.HandleInteraction(context.Background(), &discordgo.Interaction{
		ID:    "i-1",
		Type:  discordgo.InteractionMessageComponent,
		Token: "token",
		User:  &discordgo.User{ID: "u-1"},
		Data: discordgo.MessageComponentInteractionData{
			CustomID:      "refresh",
			ComponentType: discordgo.ButtonComponent,
		},
	})

	var msg FeedMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read dispatch: %v", err)
	}
	if msg.Type != "dispatch" || msg.Dispatch == nil {
		t.Fatalf("unexpected frame %+v", msg)
	}
	if msg.Dispatch.Key != "refresh" || msg.Dispatch.Outcome != handler.OutcomeSucceeded {
		t.Fatalf("unexpected record %+v", msg.Dispatch)
	}
}
