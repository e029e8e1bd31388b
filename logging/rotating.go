package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// RotatingWriter is an io.Writer that rotates log files by ISO week and by
// size, and deletes files older than the retention window.
type RotatingWriter struct {
	dir         string
	retention   time.Duration
	maxFileSize int64

	mu          sync.Mutex
	file        *os.File
	week        string
	size        atomic.Int64
	ctx         context.Context
	cancel      context.CancelFunc
	cleanupDone chan struct{}
}

const defaultMaxFileSize = 100 * 1024 * 1024

// NewRotatingWriter creates a writer rotating under dir with the given
// retention in weeks and per-file size cap in bytes. A zero or negative
// maxFileSize applies the 100MB default.
func NewRotatingWriter(dir string, retentionWeeks int, maxFileSize int64) *RotatingWriter {
	if maxFileSize <= 0 {
		maxFileSize = defaultMaxFileSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &RotatingWriter{
		dir:         dir,
		retention:   time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxFileSize: maxFileSize,
		ctx:         ctx,
		cancel:      cancel,
		cleanupDone: make(chan struct{}),
	}
}

// weekKey returns the ISO week key, e.g. "2026-W35".
func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	week := weekKey(time.Now())
	rotate := w.week != week
	if !rotate {
		size := w.size.Load()
		if size >= w.maxFileSize || size+int64(len(p)) > w.maxFileSize {
			rotate = true
			w.size.Store(w.maxFileSize)
		}
	}

	if rotate {
		if err := w.rotate(week); err != nil {
			return 0, err
		}
	}
	if w.file == nil {
		return 0, fmt.Errorf("no log file available")
	}

	n, err := w.file.Write(p)
	w.size.Add(int64(n))
	return n, err
}

// rotate switches the writer to the right file for week. Caller holds mu.
func (w *RotatingWriter) rotate(week string) error {
	if w.file != nil {
		if err := w.file.Close(); err != nil {
			slog.Warn("Failed to close log file during rotation", "error", err)
		}
	}

	sizeRotation := w.size.Load() >= w.maxFileSize
	name, fresh := w.pickFile(week, sizeRotation)

	path := filepath.Join(w.dir, name)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	w.file = file
	w.week = week

	if fresh {
		w.size.Store(0)
	} else if info, err := os.Stat(path); err == nil {
		w.size.Store(info.Size())
	}
	return nil
}

// pickFile chooses the file name for week. The base file is used until it
// hits the size cap, then numbered overflow files take over. The second
// return reports whether the chosen file is brand new.
func (w *RotatingWriter) pickFile(week string, sizeRotation bool) (string, bool) {
	base := fmt.Sprintf("reperto-%s.log", week)

	if !sizeRotation {
		info, err := os.Stat(filepath.Join(w.dir, base))
		if err != nil || info.Size() < w.maxFileSize {
			return base, false
		}
	}

	highest, lastPath, lastSize := w.highestOverflow(week)
	if lastPath != "" && lastSize < w.maxFileSize {
		return filepath.Base(lastPath), false
	}
	return fmt.Sprintf("reperto-%s_%02d.log", week, highest+1), true
}

var overflowPattern = regexp.MustCompile(`reperto-\d{4}-W\d{2}_(\d{2})\.log$`)

func (w *RotatingWriter) highestOverflow(week string) (num int, path string, size int64) {
	matches, _ := filepath.Glob(filepath.Join(w.dir, fmt.Sprintf("reperto-%s_??.log", week)))
	for _, match := range matches {
		groups := overflowPattern.FindStringSubmatch(filepath.Base(match))
		if len(groups) < 2 {
			continue
		}
		n, _ := strconv.Atoi(groups[1])
		if n > num {
			num = n
			path = match
			if info, err := os.Stat(match); err == nil {
				size = info.Size()
			} else {
				size = 0
			}
		}
	}
	return num, path, size
}

// cleanup deletes log files whose modification time is past retention.
func (w *RotatingWriter) cleanup() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("failed to read log directory: %w", err)
	}

	cutoff := time.Now().Add(-w.retention)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "reperto-") || !strings.HasSuffix(entry.Name(), ".log") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			os.Remove(filepath.Join(w.dir, entry.Name()))
		}
	}
	return nil
}

// startCleanup runs retention cleanup once a day until Close.
func (w *RotatingWriter) startCleanup() {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		defer close(w.cleanupDone)

		for {
			select {
			case <-w.ctx.Done():
				return
			case <-ticker.C:
				if err := w.cleanup(); err != nil {
					slog.Warn("Failed to clean up old log files", "error", err)
				}
			}
		}
	}()
}

// Close stops the cleanup goroutine and closes the current file.
func (w *RotatingWriter) Close() error {
	w.cancel()

	select {
	case <-w.cleanupDone:
	case <-time.After(time.Second):
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file != nil {
		return w.file.Close()
	}
	return nil
}
