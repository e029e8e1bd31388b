package logging

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRotatingWriterCreatesWeeklyFile(t *testing.T) {
	dir := t.TempDir()
	w := NewRotatingWriter(dir, 4, 0)
	defer w.Close()

	if _, err := w.Write([]byte("hello\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	want := filepath.Join(dir, fmt.Sprintf("reperto-%s.log", weekKey(time.Now())))
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("Expected log file %s: %v", want, err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("Log file does not contain written data: %q", data)
	}
}

func TestRotatingWriterRotatesOnSize(t *testing.T) {
	dir := t.TempDir()
	w := NewRotatingWriter(dir, 4, 32)
	defer w.Close()

	line := []byte("0123456789012345678901234\n") // 26 bytes
	if _, err := w.Write(line); err != nil {
		t.Fatalf("First write failed: %v", err)
	}
	// Second write would exceed the 32-byte cap and must land in an
	// overflow file.
	if _, err := w.Write(line); err != nil {
		t.Fatalf("Second write failed: %v", err)
	}

	overflow := filepath.Join(dir, fmt.Sprintf("reperto-%s_01.log", weekKey(time.Now())))
	if _, err := os.Stat(overflow); err != nil {
		t.Fatalf("Expected overflow file %s: %v", overflow, err)
	}
}

func TestRotatingWriterCleanupRemovesExpiredFiles(t *testing.T) {
	dir := t.TempDir()
	w := NewRotatingWriter(dir, 1, 0)
	defer w.Close()

	old := filepath.Join(dir, "reperto-2020-W01.log")
	if err := os.WriteFile(old, []byte("stale"), 0644); err != nil {
		t.Fatal(err)
	}
	expired := time.Now().Add(-30 * 24 * time.Hour)
	if err := os.Chtimes(old, expired, expired); err != nil {
		t.Fatal(err)
	}
	unrelated := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(unrelated, []byte("keep"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(unrelated, expired, expired); err != nil {
		t.Fatal(err)
	}

	if err := w.cleanup(); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("Expired log file was not removed")
	}
	if _, err := os.Stat(unrelated); err != nil {
		t.Error("Cleanup touched a non-log file")
	}
}

func TestSetupFallsBackToConsoleOnBadDir(t *testing.T) {
	blocked := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocked, nil, 0644); err != nil {
		t.Fatal(err)
	}

	// A file where the directory should be makes MkdirAll fail.
	logger, writer := Setup(filepath.Join(blocked, "logs"), slog.LevelInfo, 4, 0)
	if logger == nil {
		t.Fatal("Setup returned nil logger")
	}
	if writer != nil {
		t.Error("Expected nil writer when the log directory is unavailable")
	}
}

func TestRequestLoggerCapturesStatusAndSkipsProbes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/cases?limit=3", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	for _, want := range []string{"status_code=418", "path=/cases", "query=limit=3", "method=GET"} {
		if !strings.Contains(out, want) {
			t.Errorf("Log output missing %q: %s", want, out)
		}
	}

	buf.Reset()
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if buf.Len() != 0 {
		t.Errorf("Probe endpoint was logged: %s", buf.String())
	}
}
