package versioncheck

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

func TestIsOutdated(t *testing.T) {
	tests := []struct {
		name    string
		current string
		latest  string
		want    bool
	}{
		{"older patch", "v1.0.0", "v1.0.1", true},
		{"older minor", "v1.0.0", "v1.1.0", true},
		{"older major", "v1.0.0", "v2.0.0", true},
		{"equal", "v1.0.0", "v1.0.0", false},
		{"newer than latest", "v1.1.0", "v1.0.0", false},
		{"missing v prefix on current", "1.0.0", "v1.0.1", true},
		{"missing v prefix on latest", "v1.0.0", "1.0.1", true},
		{"both without prefix, equal", "1.2.3", "1.2.3", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isOutdated(tt.current, tt.latest); got != tt.want {
				t.Errorf("isOutdated(%q, %q) = %v, want %v", tt.current, tt.latest, got, tt.want)
			}
		})
	}
}

func TestParseGitHubRelease(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{"stable release", `{"tag_name": "v1.2.3", "prerelease": false}`, "v1.2.3", false},
		{"prerelease rejected", `{"tag_name": "v2.0.0-rc1", "prerelease": true}`, "", true},
		{"empty tag rejected", `{"prerelease": false}`, "", true},
		{"invalid JSON", `not json`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseGitHubRelease([]byte(tt.body))
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseGitHubRelease() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseGitHubRelease() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCacheRoundtrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if err := ensureGlobalConfigDir(); err != nil {
		t.Fatalf("ensureGlobalConfigDir: %v", err)
	}

	// No cache yet: load fails.
	if _, err := loadCache(); err == nil {
		t.Error("expected error loading missing cache")
	}

	checked := time.Now().Truncate(time.Second)
	if err := saveCache(&VersionCache{LastCheckTime: checked}); err != nil {
		t.Fatalf("saveCache: %v", err)
	}

	cache, err := loadCache()
	if err != nil {
		t.Fatalf("loadCache: %v", err)
	}
	if !cache.LastCheckTime.Equal(checked) {
		t.Errorf("LastCheckTime = %v, want %v", cache.LastCheckTime, checked)
	}
}

func TestFetchLatestVersion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "replay-cli" {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		w.Write([]byte(`{"tag_name": "v9.9.9", "prerelease": false}`))
	}))
	defer server.Close()

	orig := githubAPIURL
	githubAPIURL = server.URL
	defer func() { githubAPIURL = orig }()

	got, err := fetchLatestVersion()
	if err != nil {
		t.Fatalf("fetchLatestVersion: %v", err)
	}
	if got != "v9.9.9" {
		t.Errorf("fetchLatestVersion = %q, want v9.9.9", got)
	}
}

func TestFetchLatestVersion_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	orig := githubAPIURL
	githubAPIURL = server.URL
	defer func() { githubAPIURL = orig }()

	if _, err := fetchLatestVersion(); err == nil {
		t.Error("expected error on non-200 status")
	}
}

func TestCheckAndNotify(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"tag_name": "v9.9.9", "prerelease": false}`))
	}))
	defer server.Close()

	orig := githubAPIURL
	githubAPIURL = server.URL
	defer func() { githubAPIURL = orig }()

	var out bytes.Buffer
	cmd := &cobra.Command{Use: "test"}
	cmd.SetOut(&out)

	CheckAndNotify(cmd, "1.0.0")
	if !strings.Contains(out.String(), "v9.9.9") {
		t.Errorf("expected update notification, got %q", out.String())
	}

	// A second invocation inside the check interval stays silent.
	out.Reset()
	CheckAndNotify(cmd, "1.0.0")
	if out.String() != "" {
		t.Errorf("expected no output within check interval, got %q", out.String())
	}
}

func TestCheckAndNotify_SkipsDevBuilds(t *testing.T) {
	var out bytes.Buffer
	cmd := &cobra.Command{Use: "test"}
	cmd.SetOut(&out)

	CheckAndNotify(cmd, "dev")
	CheckAndNotify(cmd, "")
	if out.String() != "" {
		t.Errorf("dev builds should never notify, got %q", out.String())
	}

	hidden := &cobra.Command{Use: "hidden", Hidden: true}
	hidden.SetOut(&out)
	CheckAndNotify(hidden, "1.0.0")
	if out.String() != "" {
		t.Errorf("hidden commands should never notify, got %q", out.String())
	}
}
