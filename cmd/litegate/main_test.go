package main

import (
	"bytes"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/matheus3301/litegate/internal/app"
	"github.com/matheus3301/litegate/internal/store"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	params = app.Params{}
	queryOne, queryValue, queryJSON, execJSON = false, false, false, false
	nowFormat, configForce = "", false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("litegate %s: %v\n%s", strings.Join(args, " "), err, out.String())
	}
	return out.String()
}

func TestExecAndQuery(t *testing.T) {
	dir := t.TempDir()
	global := []string{
		"--config", filepath.Join(dir, "absent.toml"),
		"--db", filepath.Join(dir, "cli.db"),
		"--log-level", "error",
	}
	with := func(args ...string) []string { return append(append([]string{}, args...), global...) }

	run(t, with("exec", "CREATE TABLE t(a INTEGER, b TEXT)")...)
	out := run(t, with("exec", "INSERT INTO t VALUES (?, ?)", "7", "seven")...)
	if !strings.Contains(out, "rows affected: 1") {
		t.Errorf("exec output = %q", out)
	}

	out = run(t, with("query", "--value", "SELECT a FROM t")...)
	if strings.TrimSpace(out) != "7" {
		t.Errorf("query --value = %q, want 7", out)
	}

	out = run(t, with("query", "SELECT a, b FROM t")...)
	if strings.TrimSpace(out) != "7\tseven" {
		t.Errorf("query = %q, want \"7\\tseven\"", out)
	}

	out = run(t, with("query", "--json", "SELECT a, b FROM t")...)
	if !strings.Contains(out, `"seven"`) {
		t.Errorf("query --json = %q", out)
	}

	out = run(t, with("query", "--one", "SELECT a FROM t WHERE a = ?", "0")...)
	if strings.TrimSpace(out) != "(no rows)" {
		t.Errorf("query --one on empty = %q", out)
	}
}

func TestNow(t *testing.T) {
	dir := t.TempDir()
	out := run(t, "now", "--format", "%Y",
		"--config", filepath.Join(dir, "absent.toml"),
		"--db", store.MemoryPath,
		"--log-level", "error",
	)
	if strings.TrimSpace(out) != strconv.Itoa(time.Now().Year()) {
		t.Errorf("now = %q", out)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	out := run(t, "config", "init", "--config", path)
	if !strings.Contains(out, path) {
		t.Errorf("config init output = %q", out)
	}

	out = run(t, "config", "show", "--config", path)
	if !strings.Contains(out, "datetime_format") {
		t.Errorf("config show output = %q", out)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "NULL"},
		{int64(3), "3"},
		{[]byte("abc"), "abc"},
		{[]byte{0xff, 0x00}, "x'ff00'"},
		{1.5, "1.5"},
		{"text", "text"},
	}
	for _, tt := range tests {
		if got := formatValue(tt.in); got != tt.want {
			t.Errorf("formatValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
