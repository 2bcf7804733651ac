package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/charlesng35/chatgate/internal/presenter"
)

func newChatServer(t *testing.T, version string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/info":
			_, _ = w.Write([]byte(`{"version":"` + version + `"}`))
		case "/api/v1/settings.oauth":
			_, _ = w.Write([]byte(`{"services":[{"service":"github","clientId":"gh"}]}`))
		case "/api/v1/settings.public":
			_, _ = w.Write([]byte(`{"settings":[{"_id":"Accounts_OAuth_Github","value":true},{"_id":"Accounts_ShowFormLogin","value":true}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	cfg := "log:\n  level: error\nretry:\n  attempts: 1\n  initial_delay: 1ms\n  max_delay: 1ms\ndatabase:\n  driver: memory\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(cfg), 0o600))
	return dir
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	code := ExitCodeSuccess
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			code = exit.code
		} else {
			code = ExitCodeError
		}
	}
	return code, stdout.String(), stderr.String()
}

func TestCheckCommandJSON(t *testing.T) {
	srv := newChatServer(t, "0.70.0")
	dir := writeConfig(t)

	code, out, _ := runCLI(t, "check", srv.URL, "--config", dir, "--no-cache", "-o", "json")
	require.Equal(t, ExitCodeSuccess, code)

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Equal(t, presenter.VersionOK.String(), result["version_state"])
	require.EqualValues(t, 1, result["auth_options"].(map[string]any)["total_social_accounts_enabled"])
}

func TestCheckCommandText(t *testing.T) {
	srv := newChatServer(t, "0.63.0")

	code, out, errOut := runCLI(t, "check", srv.URL, "--config", writeConfig(t), "--no-cache")
	require.Equal(t, ExitCodeSuccess, code)
	require.Contains(t, out, "version_warned")
	require.Contains(t, out, "github")
	require.Contains(t, errOut, "below the recommended version")
}

func TestCheckCommandExitCodes(t *testing.T) {
	blocked := newChatServer(t, "0.50.0")
	code, _, _ := runCLI(t, "check", blocked.URL, "--config", writeConfig(t), "--no-cache")
	require.Equal(t, ExitCodeBlocked, code)

	notChat := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(notChat.Close)
	code, _, _ = runCLI(t, "check", notChat.URL, "--config", writeConfig(t), "--no-cache")
	require.Equal(t, ExitCodeInvalidServer, code)

	code, _, _ = runCLI(t, "check", "ftp://nope", "--config", writeConfig(t), "--no-cache")
	require.Equal(t, ExitCodeError, code)
}

func TestExitCodeFor(t *testing.T) {
	require.Equal(t, ExitCodeSuccess, exitCodeFor(presenter.VersionOK))
	require.Equal(t, ExitCodeSuccess, exitCodeFor(presenter.VersionWarned))
	require.Equal(t, ExitCodeBlocked, exitCodeFor(presenter.VersionBlocked))
	require.Equal(t, ExitCodeInvalidServer, exitCodeFor(presenter.ProtocolError))
	require.Equal(t, ExitCodeError, exitCodeFor(presenter.CheckFailed))
}

func TestVersionCommand(t *testing.T) {
	code, out, _ := runCLI(t, "version")
	require.Equal(t, ExitCodeSuccess, code)
	require.Contains(t, out, "chatgate version")
	require.Contains(t, out, "required server version 0.62.0")
}

func TestLoadApplicationConfigMissingPath(t *testing.T) {
	_, err := loadApplicationConfig(filepath.Join(t.TempDir(), "missing"))
	require.ErrorContains(t, err, "does not exist")
}

func TestExecuteReportsErrors(t *testing.T) {
	require.Equal(t, ExitCodeError, execute(context.Background(), []string{"check"}))
	require.Equal(t, ExitCodeSuccess, execute(context.Background(), []string{"version"}))
}

func TestRuntimeStackRouter(t *testing.T) {
	cfg, err := loadApplicationConfig(writeConfig(t))
	require.NoError(t, err)

	stack, err := bootstrapRuntime(cfg, bootstrapOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { stack.Shutdown(zap.NewNop()) })
	require.NotNil(t, stack.DB)

	router, err := stack.Router()
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Contains(t, w.Body.String(), "database")
}
