package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ochairo/relmirror/internal/domain/entities"
)

// fakeUpstream serves vendor redirects, installer downloads and the release API
type fakeUpstream struct {
	server   *httptest.Server
	mu       sync.Mutex
	version  map[string]string
	releases []map[string]any
	uploads  []string
	// downloadsGone makes installer GETs fail while redirects still resolve
	downloadsGone bool
}

func newFakeUpstream(t *testing.T, version string) *fakeUpstream {
	t.Helper()

	u := &fakeUpstream{version: map[string]string{
		"win-x64": version,
		"mac":     version,
	}}

	mux := http.NewServeMux()
	mux.HandleFunc("/dl/", func(w http.ResponseWriter, r *http.Request) {
		platform := strings.TrimPrefix(r.URL.Path, "/dl/")
		u.mu.Lock()
		v := u.version[platform]
		u.mu.Unlock()
		http.Redirect(w, r, fmt.Sprintf("/files/Snipaste-%s-%s.zip", v, platform), http.StatusFound)
	})
	mux.HandleFunc("/files/", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		gone := u.downloadsGone
		u.mu.Unlock()
		if gone && r.Method == http.MethodGet {
			http.Error(w, "gone", http.StatusGone)
			return
		}
		_, _ = io.WriteString(w, "binary:"+r.URL.Path)
	})
	mux.HandleFunc("/repos/octo/mirror/releases", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		defer u.mu.Unlock()

		switch r.Method {
		case http.MethodGet:
			releases := u.releases
			if releases == nil || r.URL.Query().Get("page") != "1" {
				releases = []map[string]any{}
			}
			_ = json.NewEncoder(w).Encode(releases)
		case http.MethodPost:
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			id := len(u.releases) + 1
			body["id"] = id
			body["html_url"] = fmt.Sprintf("%s/releases/%d", u.server.URL, id)
			body["upload_url"] = fmt.Sprintf("%s/uploads/%d/assets{?name,label}", u.server.URL, id)
			u.releases = append(u.releases, body)
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(body)
		}
	})
	mux.HandleFunc("/uploads/", func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")
		_, _ = io.Copy(io.Discard, r.Body)
		u.mu.Lock()
		u.uploads = append(u.uploads, name)
		u.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 1, "name": name, "state": "uploaded"})
	})

	u.server = httptest.NewServer(mux)
	t.Cleanup(u.server.Close)
	return u
}

func writeTestConfig(t *testing.T, serverURL string) (configPath, ledgerPath, workDir string) {
	t.Helper()

	dir := t.TempDir()
	workDir = filepath.Join(dir, "work")
	ledgerPath = filepath.Join(dir, "versions.json")
	configPath = filepath.Join(dir, "mirror.yml")

	content := fmt.Sprintf(`product: Snipaste
work_dir: %s
ledger: %s
github:
  api_url: %s
targets:
  - name: win-x64
    redirect_url: %s/dl/win-x64
  - name: mac
    redirect_url: %s/dl/mac
`, workDir, ledgerPath, serverURL, serverURL, serverURL)

	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return configPath, ledgerPath, workDir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	root := newRootCommand(&app{stdout: &stdout, stderr: &stderr})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	if testing.Verbose() {
		t.Logf("stderr:\n%s", stderr.String())
	}
	return stdout.String(), err
}

func TestCLI_RunPublishesAndRecords(t *testing.T) {
	upstream := newFakeUpstream(t, "3.0.1")
	configPath, ledgerPath, workDir := writeTestConfig(t, upstream.server.URL)
	t.Setenv(envRepository, "octo/mirror")
	t.Setenv(envToken, "test-token")

	out, err := execute(t, "run", "--config", configPath, "--json", "--log-level", "error")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	var report runReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("run output is not JSON: %v\n%s", err, out)
	}
	if report.Outcome != "published" || report.Version != "3.0.1" || !report.Recorded {
		t.Errorf("unexpected report %+v", report)
	}
	if report.RunID == "" {
		t.Error("run_id missing")
	}

	if len(upstream.releases) != 1 || upstream.releases[0]["tag_name"] != "v3.0.1" {
		t.Errorf("releases = %v", upstream.releases)
	}
	wantUploads := []string{"Snipaste-3.0.1-win-x64.zip", "Snipaste-3.0.1-mac.zip"}
	if strings.Join(upstream.uploads, ",") != strings.Join(wantUploads, ",") {
		t.Errorf("uploads = %v, want %v", upstream.uploads, wantUploads)
	}

	ledger, err := os.ReadFile(ledgerPath)
	if err != nil {
		t.Fatalf("ledger not written: %v", err)
	}
	if strings.TrimSpace(string(ledger)) != "[\n  \"3.0.1\"\n]" {
		t.Errorf("ledger = %q", ledger)
	}

	entries, _ := os.ReadDir(workDir)
	if len(entries) != 0 {
		t.Errorf("work dir not cleaned: %d entries", len(entries))
	}

	// Second run is a no-op
	out, err = execute(t, "run", "--config", configPath, "--json", "--log-level", "error")
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if !strings.Contains(out, `"outcome": "already_mirrored"`) {
		t.Errorf("second run output:\n%s", out)
	}
	if len(upstream.releases) != 1 {
		t.Errorf("second run created a release")
	}
}

func TestCLI_RunInconsistentExitsZero(t *testing.T) {
	upstream := newFakeUpstream(t, "3.0.1")
	upstream.version["mac"] = "3.0.0"
	configPath, ledgerPath, _ := writeTestConfig(t, upstream.server.URL)
	t.Setenv(envRepository, "octo/mirror")
	t.Setenv(envToken, "test-token")

	out, err := execute(t, "run", "--config", configPath, "--log-level", "error")
	if err != nil {
		t.Fatalf("inconsistent run should not fail: %v", err)
	}
	if !strings.Contains(out, "Outcome: inconsistent") {
		t.Errorf("output:\n%s", out)
	}
	if len(upstream.releases) != 0 {
		t.Error("release created for inconsistent versions")
	}
	if data, _ := os.ReadFile(ledgerPath); strings.Contains(string(data), "3.0") {
		t.Errorf("ledger = %q", data)
	}
}

func TestCLI_RunRequiresToken(t *testing.T) {
	upstream := newFakeUpstream(t, "3.0.1")
	configPath, _, _ := writeTestConfig(t, upstream.server.URL)
	t.Setenv(envRepository, "octo/mirror")
	t.Setenv(envToken, "")
	t.Setenv(envTokenFallback, "")

	_, err := execute(t, "run", "--config", configPath)
	var exitErr *exitError
	if !errors.As(err, &exitErr) || exitErr.code != 1 {
		t.Fatalf("error = %v, want exit code 1", err)
	}
	if !strings.Contains(err.Error(), "GITHUB_TOKEN") {
		t.Errorf("error = %v", err)
	}

	// Dry run does not need credentials
	out, err := execute(t, "run", "--config", configPath, "--dry-run", "--log-level", "error")
	if err != nil {
		t.Fatalf("dry run failed: %v", err)
	}
	if !strings.Contains(out, "Outcome: dry_run") {
		t.Errorf("output:\n%s", out)
	}
}

func TestCLI_RunDownloadFailureExitsOne(t *testing.T) {
	upstream := newFakeUpstream(t, "3.0.1")
	configPath, ledgerPath, _ := writeTestConfig(t, upstream.server.URL)
	t.Setenv(envRepository, "octo/mirror")
	t.Setenv(envToken, "test-token")

	upstream.downloadsGone = true

	out, err := execute(t, "run", "--config", configPath, "--log-level", "error", "--json")
	var exitErr *exitError
	if !errors.As(err, &exitErr) || exitErr.code != 1 {
		t.Fatalf("error = %v, want exit code 1", err)
	}

	var report runReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("run output is not JSON: %v\n%s", err, out)
	}
	if report.Outcome != entities.OutcomeDownloadFailed || !report.Retryable {
		t.Errorf("outcome = %s, retryable = %v, want retryable download_failed", report.Outcome, report.Retryable)
	}
	if data, _ := os.ReadFile(ledgerPath); strings.Contains(string(data), "3.0.1") {
		t.Errorf("ledger = %q", data)
	}
}

func TestCLI_Check(t *testing.T) {
	upstream := newFakeUpstream(t, "3.0.1")
	configPath, ledgerPath, _ := writeTestConfig(t, upstream.server.URL)

	out, err := execute(t, "check", "--config", configPath, "--log-level", "error")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if data, err := os.ReadFile(ledgerPath); err != nil || strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("check should leave an empty ledger behind, got %q (%v)", data, err)
	}

	var result struct {
		Status       string `json:"status"`
		Version      string `json:"version"`
		UpdateNeeded bool   `json:"update_needed"`
		Platforms    []struct {
			Platform string `json:"platform"`
			Version  string `json:"version"`
		} `json:"platforms"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("check output is not JSON: %v\n%s", err, out)
	}
	if result.Status != "consistent" || result.Version != "3.0.1" || !result.UpdateNeeded {
		t.Errorf("unexpected check result %+v", result)
	}
	if len(result.Platforms) != 2 {
		t.Errorf("platforms = %+v", result.Platforms)
	}

	out, err = execute(t, "check", "--config", configPath, "--json=false", "--log-level", "error")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !strings.Contains(out, "3.0.1 is not mirrored yet") {
		t.Errorf("human output:\n%s", out)
	}
}

func TestCLI_Ledger(t *testing.T) {
	upstream := newFakeUpstream(t, "3.0.1")
	configPath, ledgerPath, _ := writeTestConfig(t, upstream.server.URL)

	if _, err := execute(t, "ledger", "add", "v2.10.8", "--config", configPath, "--log-level", "error"); err != nil {
		t.Fatalf("ledger add failed: %v", err)
	}
	if _, err := execute(t, "ledger", "add", "3.0.1", "--config", configPath, "--log-level", "error"); err != nil {
		t.Fatalf("ledger add failed: %v", err)
	}

	out, err := execute(t, "ledger", "list", "--config", configPath, "--log-level", "error")
	if err != nil {
		t.Fatalf("ledger list failed: %v", err)
	}
	if out != "2.10.8\n3.0.1\n" {
		t.Errorf("ledger list = %q", out)
	}
	if _, err := os.Stat(ledgerPath); err != nil {
		t.Errorf("ledger file: %v", err)
	}

	out, err = execute(t, "check", "--config", configPath, "--log-level", "error")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !strings.Contains(out, `"already_mirrored": true`) {
		t.Errorf("check after ledger add:\n%s", out)
	}
}

func TestCLI_InvalidFlags(t *testing.T) {
	if _, err := execute(t, "check", "--log-level", "loud"); err == nil {
		t.Error("invalid log level should fail")
	}
	if _, err := execute(t, "check", "--log-format", "xml"); err == nil {
		t.Error("invalid log format should fail")
	}
	if _, err := execute(t, "ledger", "add"); err == nil {
		t.Error("ledger add without version should fail")
	}
}
