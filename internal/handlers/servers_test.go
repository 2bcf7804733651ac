package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/chatgate/internal/presenter"
	"github.com/charlesng35/chatgate/internal/realtime"
	"github.com/charlesng35/chatgate/internal/retry"
	"github.com/charlesng35/chatgate/internal/rocketchat"
	"github.com/charlesng35/chatgate/internal/settings"
	"github.com/charlesng35/chatgate/pkg/response"
)

func newChatServer(t *testing.T, version string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/info", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"version":"` + version + `","success":true}`))
	})
	mux.HandleFunc("/api/v1/settings.oauth", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"services":[{"service":"github","clientId":"gh-client"}],"success":true}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestHandler(store settings.Store) *ServerHandler {
	cfg := presenter.Config{
		RequiredVersion:    "0.62.0",
		RecommendedVersion: "0.65.0",
		Retry:              retry.Policy{Attempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1},
	}
	factory := func(serverURL string) (presenter.Client, error) {
		return rocketchat.New(serverURL, rocketchat.Options{Timeout: time.Second})
	}
	return NewServerHandler(func(view presenter.View) *presenter.Presenter {
		return presenter.New(cfg, view, factory, store)
	}, store)
}

func serve(t *testing.T, h gin.HandlerFunc, target string) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)
	ctx.Request = httptest.NewRequest(http.MethodGet, target, nil)

	h(ctx)

	var payload response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return rec, payload
}

func TestServerHandlerCheck(t *testing.T) {
	store := settings.NewMemoryStore()
	srv := newChatServer(t, "0.63.0")
	require.NoError(t, store.Save(context.Background(), srv.URL, settings.NewSnapshot(map[string]any{
		settings.GithubEnabled:    true,
		settings.LoginFormEnabled: true,
	})))

	rec, payload := serve(t, newTestHandler(store).Check, "/api/servers/check?url="+srv.URL)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, payload.Success)

	data := payload.Data.(map[string]any)
	require.Equal(t, srv.URL, data["server_url"])
	require.Equal(t, "0.63.0", data["version"])
	require.Equal(t, presenter.VersionWarned.String(), data["version_state"])
	require.Equal(t, presenter.AuthReady.String(), data["auth_state"])
	require.Equal(t, []any{presenter.SignalNotRecommendedVersion}, data["signals"])

	opts := data["auth_options"].(map[string]any)
	require.EqualValues(t, 1, opts["total_social_accounts_enabled"])
	require.Equal(t, true, opts["login_form_enabled"])

	plan := data["login_options"].(map[string]any)
	require.Len(t, plan["buttons"], 1)
	require.Equal(t, true, plan["show_login_with_email"])
}

func TestServerHandlerCheckRejectsBadURL(t *testing.T) {
	h := newTestHandler(settings.NewMemoryStore())

	for _, target := range []string{"/api/servers/check", "/api/servers/check?url=ftp://chat.example"} {
		rec, payload := serve(t, h.Check, target)
		require.Equal(t, http.StatusBadRequest, rec.Code, target)
		require.False(t, payload.Success)
		require.Equal(t, "BAD_REQUEST", payload.Error.Code)
	}
}

func TestServerHandlerSettings(t *testing.T) {
	store := settings.NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), "https://chat.example", settings.NewSnapshot(map[string]any{
		settings.CasEnabled: true,
	})))
	h := newTestHandler(store)

	rec, payload := serve(t, h.Settings, "/api/servers/settings?url=https://chat.example/")
	require.Equal(t, http.StatusOK, rec.Code)
	data := payload.Data.(map[string]any)
	require.Equal(t, "https://chat.example", data["server_url"])
	require.Equal(t, true, data["settings"].(map[string]any)[settings.CasEnabled])

	rec, payload = serve(t, h.Settings, "/api/servers/settings?url=https://other.example")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "NOT_FOUND", payload.Error.Code)
}

func TestHealth(t *testing.T) {
	rec, payload := serve(t, Health("1.2.3"), "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", payload.Data.(map[string]any)["status"])
	require.Equal(t, "1.2.3", payload.Data.(map[string]any)["version"])
}

type watchFrame struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data"`
}

func dialWatch(t *testing.T, h *ServerHandler, serverURL string) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.GET("/watch", h.Watch)
	api := httptest.NewServer(engine)
	t.Cleanup(api.Close)

	socket, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(api.URL, "http")+"/watch?url="+serverURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = socket.Close() })
	require.NoError(t, socket.SetReadDeadline(time.Now().Add(5*time.Second)))
	return socket
}

// readUntilFinal collects frames up to and including the report or error frame.
func readUntilFinal(t *testing.T, socket *websocket.Conn) []watchFrame {
	t.Helper()
	var frames []watchFrame
	for {
		var frame watchFrame
		require.NoError(t, socket.ReadJSON(&frame))
		frames = append(frames, frame)
		if frame.Event == realtime.EventReport || frame.Event == realtime.EventError {
			return frames
		}
	}
}

func eventsOf(frames []watchFrame) []string {
	out := make([]string, 0, len(frames))
	for _, f := range frames {
		out = append(out, f.Event)
	}
	return out
}

func TestServerHandlerWatchStreamsSignalsThenReport(t *testing.T) {
	chat := newChatServer(t, "0.63.0")
	socket := dialWatch(t, newTestHandler(settings.NewMemoryStore()), chat.URL)

	frames := readUntilFinal(t, socket)
	require.Equal(t, []string{presenter.SignalNotRecommendedVersion, realtime.EventReport}, eventsOf(frames))

	report := frames[len(frames)-1].Data
	require.Equal(t, "0.63.0", report["version"])
	require.Equal(t, presenter.VersionWarned.String(), report["version_state"])

	// the stream is closed once the report is out
	_, _, err := socket.ReadMessage()
	require.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestServerHandlerWatchInvalidProtocol(t *testing.T) {
	missing := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(missing.Close)
	socket := dialWatch(t, newTestHandler(settings.NewMemoryStore()), missing.URL)

	frames := readUntilFinal(t, socket)
	require.Equal(t, []string{presenter.SignalInvalidProtocol, realtime.EventReport}, eventsOf(frames))
	require.Equal(t, presenter.ProtocolError.String(), frames[1].Data["version_state"])
}

type brokenStore struct{ settings.Store }

func (brokenStore) Get(context.Context, string) (settings.Snapshot, bool, error) {
	return settings.Snapshot{}, false, errors.New("disk on fire")
}

func TestServerHandlerWatchSendsErrorFrame(t *testing.T) {
	chat := newChatServer(t, "0.65.0")
	socket := dialWatch(t, newTestHandler(brokenStore{settings.NewMemoryStore()}), chat.URL)

	frames := readUntilFinal(t, socket)
	require.Equal(t, []string{realtime.EventError}, eventsOf(frames))
	require.Equal(t, "INTERNAL_SERVER_ERROR", frames[0].Data["code"])
}

func TestServerHandlerWatchRejectsMissingURL(t *testing.T) {
	rec, payload := serve(t, newTestHandler(settings.NewMemoryStore()).Watch, "/api/servers/watch")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.False(t, payload.Success)
}
