//go:build integration

package integration

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/karolswdev/jirapro/cmd"
	"github.com/karolswdev/jirapro/internal/config"
)

// recordedRequest is what the fake Jira saw.
type recordedRequest struct {
	Method   string
	URI      string
	Username string
	Password string
	Bearer   string
	Body     string
}

// fakeJira serves canned bodies keyed by request URI and records every request.
type fakeJira struct {
	*httptest.Server
	mu       sync.Mutex
	bodies   map[string]string
	requests []recordedRequest
}

func newFakeJira(t *testing.T, bodies map[string]string) *fakeJira {
	t.Helper()
	f := &fakeJira{bodies: bodies}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		user, pass, _ := r.BasicAuth()
		f.mu.Lock()
		f.requests = append(f.requests, recordedRequest{
			Method:   r.Method,
			URI:      r.URL.RequestURI(),
			Username: user,
			Password: pass,
			Bearer:   strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "),
			Body:     string(body),
		})
		f.mu.Unlock()

		resp, ok := bodies[r.Method+" "+r.URL.RequestURI()]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errorMessages":["not found"]}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(resp))
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeJira) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

// setupTestEnvironment points JIRAPRO_CONFIG_DIR at a temp dir holding configYAML and
// oauthYAML, and swaps the OS keychain for an in-memory one.
func setupTestEnvironment(t *testing.T, configYAML, oauthYAML string) string {
	t.Helper()
	tempDir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(tempDir, config.DefaultConfigFileName), []byte(configYAML), 0600))
	if oauthYAML != "" {
		require.NoError(t, os.WriteFile(filepath.Join(tempDir, config.DefaultOAuthFileName), []byte(oauthYAML), 0600))
	}

	t.Setenv(config.ConfigDirEnvVar, tempDir)
	keyring.MockInit()
	return tempDir
}

// executeJproCommand runs a fresh jpro command tree in-process with args and stdin,
// capturing stdout and stderr.
func executeJproCommand(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	originalLevel := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(originalLevel) })

	var outBuf, errBuf bytes.Buffer
	rootCmd := cmd.NewRootCmd()
	rootCmd.SetOut(&outBuf)
	rootCmd.SetErr(&errBuf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append([]string{"--log-level", "debug"}, args...))

	execErr := rootCmd.ExecuteContext(context.Background())
	return outBuf.String(), errBuf.String(), execErr
}
