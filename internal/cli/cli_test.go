package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formassist-backend/internal/logging"
)

const formHTML = `<html><head><title>Newsletter</title>
<meta name="description" content="Join the list">
<script id="ai-config" type="application/json">{"targets":[{"name":"email","type":"text","selector":"#email"}]}</script>
</head><body>
<p data-ai-context="intro">Weekly news about forms.</p>
<input id="email" name="email">
</body></html>`

// testEnv isolates config lookup and points storage at a fresh sqlite file.
func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	t.Setenv("FORMASSIST_DATABASE_URL", "sqlite://"+filepath.Join(dir, "formassist.db"))
	t.Setenv("FORMASSIST_ENCRYPTION_KEY", strings.Repeat("0f", 32))
	t.Setenv("FORMASSIST_LOG_FORMAT", "json")
	t.Cleanup(func() { logging.SetDebug(false) })
	return dir
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd(strings.NewReader(stdin))
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "dev")
}

func TestExtract_LocalFile(t *testing.T) {
	dir := testEnv(t)
	path := filepath.Join(dir, "form.html")
	require.NoError(t, os.WriteFile(path, []byte(formHTML), 0o644))

	out, err := run(t, "", "extract", path)
	require.NoError(t, err)

	var got extraction
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.False(t, got.Activated)
	assert.Equal(t, "Newsletter", got.Context.Title)
	assert.Equal(t, "Join the list", got.Context.Description)
	require.Len(t, got.Context.ContextBlocks, 1)
	assert.Equal(t, "intro", got.Context.ContextBlocks[0].Label)
	require.Len(t, got.Context.Targets, 1)
	assert.Equal(t, "#email", got.Context.Targets[0].Selector)

	out, err = run(t, "", "extract", "--format", "yaml", path)
	require.NoError(t, err)
	assert.Contains(t, out, "title: Newsletter")
}

func TestOpen_ChatAndApply(t *testing.T) {
	dir := testEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-AI-Assist", "on")
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(formHTML))
	}))
	defer srv.Close()
	outPath := filepath.Join(dir, "filled.html")

	out, err := run(t, "", "open", srv.URL, "--out", outPath,
		"-m", "sign me up", "-m", "/preview", "-m", "/apply")
	require.NoError(t, err)

	assert.Contains(t, out, "AI assist enabled by "+srv.URL)
	assert.Contains(t, out, "sign me up")
	assert.Contains(t, out, "email: Mock content for email")
	assert.Contains(t, out, "Applied 1 field(s)")

	filled, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(filled), `value="Mock content for email"`)

	out, err = run(t, "", "export", "--format", "md")
	require.NoError(t, err)
	assert.Contains(t, out, "# sign me up")

	out, err = run(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "sign me up")
}

func TestOpen_InteractiveCommands(t *testing.T) {
	dir := testEnv(t)
	path := filepath.Join(dir, "form.html")
	require.NoError(t, os.WriteFile(path, []byte(formHTML), 0o644))

	stdin := strings.Join([]string{
		"/new Draft",
		"hello there",
		"/list",
		"/switch 9",
		"/bogus",
		"/quit",
		"never sent",
	}, "\n")
	out, err := run(t, stdin, "open", path)
	require.NoError(t, err)

	assert.Contains(t, out, "Draft")
	assert.Contains(t, out, "* 1. hello there")
	assert.Contains(t, out, "no conversation #9")
	assert.Contains(t, out, "unknown command /bogus")
	assert.NotContains(t, out, "never sent")
}

func TestOpen_UnreachablePage(t *testing.T) {
	testEnv(t)
	out, err := run(t, "", "open", "http://127.0.0.1:1/missing", "-m", "hi", "-m", "/apply")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not be read")
	assert.Contains(t, out, "hi")
}

func TestSettings_SetShowClear(t *testing.T) {
	testEnv(t)

	out, err := run(t, "", "settings", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "mock")

	out, err = run(t, "", "settings", "set", "--endpoint", "http://localhost:1234/v1/chat/completions", "--api-key", "sk-test", "--temperature", "0.5")
	require.NoError(t, err)
	assert.Contains(t, out, "Settings saved successfully!")

	out, err = run(t, "", "settings", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Mode:        live")
	assert.Contains(t, out, "API key:     set")
	assert.Contains(t, out, "Temperature: 0.50")

	_, err = run(t, "", "settings", "set", "--temperature", "5")
	assert.Error(t, err)

	_, err = run(t, "", "settings", "clear")
	require.NoError(t, err)
	out, err = run(t, "", "settings", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "mock")
}

func TestSettingsTest_NoEndpoint(t *testing.T) {
	testEnv(t)
	out, err := run(t, "", "settings", "test")
	assert.Error(t, err)
	assert.Contains(t, out, "Please enter an AI endpoint URL first")
}
