package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/diogo/cellchat/internal/api"
	"github.com/diogo/cellchat/internal/config"
	apierrors "github.com/diogo/cellchat/internal/errors"
	"github.com/diogo/cellchat/internal/models"
	"github.com/diogo/cellchat/internal/tui"
)

// testEnv isolates the config directory and resets the global flags
func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.EnvConfigDir, dir)
	t.Setenv(config.EnvEndpoint, "")
	t.Setenv(config.EnvModel, "")
	t.Setenv(config.EnvAPIKey, "")
	t.Setenv(config.EnvGroqAPIKey, "")

	modelFlag, endpointFlag, timeoutFlag, verboseFlag = "", "", 0, false
	fileFlag, jsonFlag, copyFlag, addrFlag = "", false, false, ""
	t.Cleanup(func() {
		modelFlag, endpointFlag, timeoutFlag, verboseFlag = "", "", 0, false
		fileFlag, jsonFlag, copyFlag, addrFlag = "", false, false, ""
	})
	return dir
}

type testDeps struct {
	*Dependencies
	stdout  *bytes.Buffer
	stderr  *bytes.Buffer
	client  *api.MockClient
	copied  string
	gotCfg  config.Config
	tuiOpts *tui.Options
}

func newTestDeps(client *api.MockClient) *testDeps {
	td := &testDeps{
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		client: client,
	}
	td.Dependencies = &Dependencies{
		NewClient: func(cfg config.Config, creds *config.Credentials) (api.Completer, error) {
			td.gotCfg = cfg
			return td.client, nil
		},
		LoadCredentials: func() (*config.Credentials, error) {
			return &config.Credentials{APIKey: "gsk_test_1234", Source: "test"}, nil
		},
		RunTUI: func(client api.Completer, opts tui.Options) error {
			td.tuiOpts = &opts
			return nil
		},
		CopyToClipboard: func(text string) error {
			td.copied = text
			return nil
		},
		TerminalSize: func() (int, int) { return 80, 30 },
		Stdin:        strings.NewReader(""),
		Stdout:       td.stdout,
		Stderr:       td.stderr,
	}
	return td
}

func twoCells() *models.Completion {
	return &models.Completion{
		Cells:    json.RawMessage(`[{"cell_0":"red","size":{"width":"1/2"}},{"cell_1":[{"text":"Hi","type":"caption"}]}]`),
		Response: "Done",
		Model:    "llama-test",
	}
}

func TestRunQuery_PrintsCells(t *testing.T) {
	testEnv(t)
	td := newTestDeps(&api.MockClient{Completion: twoCells()})

	if err := runQuery(td.Dependencies, "  two cells  "); err != nil {
		t.Fatalf("runQuery() error = %v", err)
	}

	if td.client.LastMessage() != "two cells" {
		t.Errorf("message = %q, want trimmed prompt", td.client.LastMessage())
	}
	want := []models.Message{models.AssistantMessage(models.WelcomeText)}
	if diff := cmp.Diff(want, td.client.LastHistory()); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}

	out := td.stdout.String()
	for _, s := range []string{"✦ Cells", "Done", "Hi"} {
		if !strings.Contains(out, s) {
			t.Errorf("output missing %q:\n%s", s, out)
		}
	}
}

func TestRunQuery_JSONAndCopy(t *testing.T) {
	testEnv(t)
	jsonFlag, copyFlag = true, true
	td := newTestDeps(&api.MockClient{Completion: twoCells()})

	if err := runQuery(td.Dependencies, "two cells"); err != nil {
		t.Fatalf("runQuery() error = %v", err)
	}

	var doc struct {
		Cells    []map[string]any `json:"cells"`
		Response string           `json:"response"`
		Model    string           `json:"model"`
	}
	if err := json.Unmarshal(td.stdout.Bytes(), &doc); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, td.stdout.String())
	}
	if len(doc.Cells) != 2 || doc.Response != "Done" || doc.Model != "llama-test" {
		t.Errorf("unexpected document: %+v", doc)
	}
	if strings.TrimSpace(td.copied) != strings.TrimSpace(td.stdout.String()) {
		t.Error("clipboard should receive the same document")
	}
	if !strings.Contains(td.stderr.String(), "Copied to clipboard") {
		t.Errorf("stderr = %q", td.stderr.String())
	}
}

func TestRunQuery_Errors(t *testing.T) {
	tests := []struct {
		name    string
		prompt  string
		client  *api.MockClient
		creds   error
		wantErr string
		calls   int
	}{
		{"empty prompt", "   ", &api.MockClient{}, nil, "prompt cannot be empty", 0},
		{"no key", "hi", &api.MockClient{}, apierrors.ErrNoAPIKey, "no API key", 0},
		{"request failure", "hi", &api.MockClient{Err: apierrors.NewAPIError(500, "ep", "boom")}, nil, "boom", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testEnv(t)
			td := newTestDeps(tt.client)
			if tt.creds != nil {
				td.LoadCredentials = func() (*config.Credentials, error) { return nil, tt.creds }
			}

			err := runQuery(td.Dependencies, tt.prompt)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("runQuery() error = %v, want containing %q", err, tt.wantErr)
			}
			if got := tt.client.Calls(); got != tt.calls {
				t.Errorf("Complete calls = %d, want %d", got, tt.calls)
			}
			if td.stdout.Len() != 0 {
				t.Errorf("nothing should be printed on failure, got %q", td.stdout.String())
			}
		})
	}
}

func TestLoadSettings_Precedence(t *testing.T) {
	testEnv(t)

	cfg := config.DefaultConfig()
	cfg.Model = "from-file"
	cfg.TimeoutSeconds = 30
	if err := config.SaveConfig(cfg); err != nil {
		t.Fatal(err)
	}

	got, err := loadSettings()
	if err != nil {
		t.Fatal(err)
	}
	if got.Model != "from-file" || got.TimeoutSeconds != 30 {
		t.Errorf("file values not applied: %+v", got)
	}

	t.Setenv(config.EnvModel, "from-env")
	got, _ = loadSettings()
	if got.Model != "from-env" {
		t.Errorf("Model = %q, want from-env", got.Model)
	}

	modelFlag, timeoutFlag, endpointFlag = "from-flag", 5, "http://localhost:9999/v1/chat"
	got, err = loadSettings()
	if err != nil {
		t.Fatal(err)
	}
	if got.Model != "from-flag" || got.TimeoutSeconds != 5 || got.Endpoint != "http://localhost:9999/v1/chat" {
		t.Errorf("flags not applied: %+v", got)
	}

	endpointFlag = "not a url"
	if _, err := loadSettings(); err == nil {
		t.Error("invalid endpoint should fail validation")
	}
}

func TestReadPrompt(t *testing.T) {
	testEnv(t)

	file := filepath.Join(t.TempDir(), "prompt.md")
	if err := os.WriteFile(file, []byte("from file"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		file   string
		stdin  string
		args   []string
		want   string
		wantOK bool
	}{
		{"argument", "", "", []string{"from arg"}, "from arg", true},
		{"stdin wins over argument", "", "from stdin", []string{"from arg"}, "from stdin", true},
		{"file wins", file, "from stdin", []string{"from arg"}, "from file", true},
		{"nothing", "", "", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fileFlag = tt.file
			got, ok, err := readPrompt(strings.NewReader(tt.stdin), tt.args)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("readPrompt() = %q, %v; want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}

	fileFlag = filepath.Join(t.TempDir(), "missing.md")
	if _, _, err := readPrompt(nil, nil); err == nil {
		t.Error("missing file should fail")
	}
}

func TestRunChat_PassesOptions(t *testing.T) {
	dir := testEnv(t)
	modelFlag = "llama-chat"
	td := newTestDeps(&api.MockClient{})

	if err := runChat(td.Dependencies); err != nil {
		t.Fatalf("runChat() error = %v", err)
	}
	if td.tuiOpts == nil {
		t.Fatal("TUI was not started")
	}
	if td.tuiOpts.ModelName != "llama-chat" {
		t.Errorf("ModelName = %q", td.tuiOpts.ModelName)
	}
	if td.tuiOpts.ExportDir != filepath.Join(dir, "exports") {
		t.Errorf("ExportDir = %q", td.tuiOpts.ExportDir)
	}
	if td.gotCfg.Model != "llama-chat" {
		t.Errorf("client built with model %q", td.gotCfg.Model)
	}
}

func TestRunChat_TUIError(t *testing.T) {
	testEnv(t)
	td := newTestDeps(&api.MockClient{})
	want := errors.New("no tty")
	td.RunTUI = func(api.Completer, tui.Options) error { return want }

	if err := runChat(td.Dependencies); !errors.Is(err, want) {
		t.Errorf("runChat() error = %v, want %v", err, want)
	}
}

func TestConfigShow_MasksKey(t *testing.T) {
	testEnv(t)
	td := newTestDeps(&api.MockClient{})

	if err := runConfigShow(td.Dependencies); err != nil {
		t.Fatal(err)
	}
	out := td.stdout.String()
	if strings.Contains(out, "gsk_test_1234") {
		t.Fatal("config show must not print the key")
	}
	if !strings.Contains(out, "********1234") || !strings.Contains(out, `"model"`) {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestSetKey(t *testing.T) {
	testEnv(t)
	td := newTestDeps(&api.MockClient{})
	td.Stdin = strings.NewReader("gsk_saved_5678\n")

	if err := runSetKey(td.Dependencies, readSecret); err != nil {
		t.Fatalf("runSetKey() error = %v", err)
	}

	creds, err := config.LoadCredentials()
	if err != nil {
		t.Fatal(err)
	}
	if creds.APIKey != "gsk_saved_5678" {
		t.Errorf("APIKey = %q", creds.APIKey)
	}

	path, _ := config.GetCredentialsPath()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("credentials mode = %o, want 600", perm)
	}
	if strings.Contains(td.stderr.String(), "gsk_saved_5678") {
		t.Error("confirmation must not echo the key")
	}
}

func TestSetKey_Empty(t *testing.T) {
	testEnv(t)
	td := newTestDeps(&api.MockClient{})
	td.Stdin = strings.NewReader("\n")

	if err := runSetKey(td.Dependencies, readSecret); !errors.Is(err, apierrors.ErrNoAPIKey) {
		t.Errorf("runSetKey() error = %v, want ErrNoAPIKey", err)
	}
}

func TestSetupLogging_TUIQuietByDefault(t *testing.T) {
	dir := testEnv(t)

	closeLog, err := setupLogging(logTUI, false, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	closeLog()
	if _, err := os.Stat(filepath.Join(dir, "cellchat.log")); !os.IsNotExist(err) {
		t.Error("no log file should be created without --verbose")
	}

	closeLog, err = setupLogging(logTUI, true, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	closeLog()
	if _, err := os.Stat(filepath.Join(dir, "cellchat.log")); err != nil {
		t.Errorf("verbose TUI should log to a file: %v", err)
	}
}

func TestRunServe_StopsOnCancel(t *testing.T) {
	testEnv(t)
	addrFlag = "127.0.0.1:0"
	td := newTestDeps(&api.MockClient{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- runServe(ctx, td.Dependencies) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("runServe() error = %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("runServe did not return after cancel")
	}
}
