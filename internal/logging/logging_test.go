// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestInitialize_WritesToFile(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Dir = dir

	path, err := Initialize(cfg)
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if want := filepath.Join(dir, LogFileName); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
	if Path() != path {
		t.Errorf("Path() = %q, want %q", Path(), path)
	}

	InfoLog.Printf("AUDIT_WRITE | command=%s", "ping")
	if err := Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if Path() != "" {
		t.Errorf("Path() after Close = %q, want empty", Path())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	for _, want := range []string{"INFO: ", "AUDIT_WRITE | command=ping"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("log file missing %q:\n%s", want, data)
		}
	}
}

func TestInitialize_Disabled(t *testing.T) {
	path, err := Initialize(Config{Enabled: false})
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if path != "" {
		t.Errorf("path = %q, want empty when disabled", path)
	}
	ErrorLog.Printf("dropped")
	if err := Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestThrottled(t *testing.T) {
	var buf bytes.Buffer
	th := NewThrottled(log.New(&buf, "", 0), time.Hour, 2)

	want := []bool{true, true, false, false}
	for i, w := range want {
		if got := th.Printf("FAIL | n=%d", i+1); got != w {
			t.Errorf("Printf #%d = %v, want %v", i+1, got, w)
		}
	}
	if th.Suppressed() != 2 {
		t.Errorf("Suppressed() = %d, want 2", th.Suppressed())
	}

	if got := strings.TrimSpace(buf.String()); got != "FAIL | n=1\nFAIL | n=2" {
		t.Errorf("written lines = %q", got)
	}
}

func TestThrottled_ReportsSuppressed(t *testing.T) {
	var buf bytes.Buffer
	th := NewThrottled(log.New(&buf, "", 0), 20*time.Millisecond, 1)

	th.Printf("a")
	th.Printf("b")
	time.Sleep(30 * time.Millisecond)
	if !th.Printf("c") {
		t.Fatal("Printf should pass once the interval has elapsed")
	}

	if !strings.Contains(buf.String(), "c suppressed=1") {
		t.Errorf("expected suppressed count on next line, got %q", buf.String())
	}
	if th.Suppressed() != 0 {
		t.Errorf("Suppressed() = %d, want 0 after reporting", th.Suppressed())
	}
}
