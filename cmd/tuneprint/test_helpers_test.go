package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	audioPath  string
	stateDir   string
	lookups    *atomic.Int32
}

const lookupReply = `{"status":"ok","results":[{"id":"acid-1","score":1.0,"recordings":[
	{"id":"rec-low","title":"Low","sources":1},
	{"id":"rec-mid","title":"Mid","sources":2},
	{"id":"rec-top","title":"Top","sources":4,"artists":[{"id":"a1","name":"Band"}],
	 "releasegroups":[{"id":"rg-1","title":"Album","releases":[{"id":"rel-1","country":"GB"}]}]}]}]}`

func writeStub(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return path
}

// setupCLITestEnv writes stub fpcalc/ffprobe scripts, starts a fake lookup
// service, and points a config file at all of them.
func setupCLITestEnv(t *testing.T, apiKey string) *cliTestEnv {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs require a unix shell")
	}

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("ACOUSTID_API_KEY", "")

	binDir := filepath.Join(base, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}
	fpcalc := writeStub(t, binDir, "fpcalc", `echo '{"duration": 200.4, "fingerprint": "AQAAstub"}'`)
	ffprobe := writeStub(t, binDir, "ffprobe", `echo '{"format": {"duration": "200.400000", "tags": {}}}'`)

	lookups := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lookups.Add(1)
		if err := r.ParseForm(); err != nil || r.PostForm.Get("client") != "test-key" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"status":"error","error":{"code":4,"message":"invalid API key"}}`))
			return
		}
		_, _ = w.Write([]byte(lookupReply))
	}))
	t.Cleanup(srv.Close)

	audio := filepath.Join(base, "music", "song.flac")
	if err := os.MkdirAll(filepath.Dir(audio), 0o755); err != nil {
		t.Fatalf("mkdir music: %v", err)
	}
	if err := os.WriteFile(audio, []byte("not really flac"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}

	stateDir := filepath.Join(base, "state")
	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
state_dir = %q
log_dir = %q

[acoustid]
api_key = %q
base_url = %q

[fingerprint]
fpcalc_path = %q
ffprobe_path = %q

[logging]
level = "error"
`, stateDir, filepath.Join(stateDir, "logs"), apiKey, srv.URL+"/v2", fpcalc, ffprobe)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return &cliTestEnv{
		baseDir:    base,
		configPath: configPath,
		audioPath:  audio,
		stateDir:   stateDir,
		lookups:    lookups,
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}
