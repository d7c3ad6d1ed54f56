package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const resultsDir = "results"

// SubtitleWriter appends SRT-format report blocks to files under
// results/, one index counter and one open *os.File per filename.
// Subtitle format is treated as a generic time-indexed line log per
// not literal closed-caption output.
type SubtitleWriter struct {
	mu      sync.Mutex
	indices map[string]int
	files   map[string]*os.File
}

// NewSubtitleWriter ensures results/ exists and returns a writer ready
// to append blocks.
func NewSubtitleWriter() (*SubtitleWriter, error) {
	if err := os.MkdirAll(resultsDir, 0755); err != nil {
		return nil, NewError(err, ErrCodeIO, "SubtitleWriter", "MkdirAll").WithContext(resultsDir)
	}
	return &SubtitleWriter{
		indices: make(map[string]int),
		files:   make(map[string]*os.File),
	}, nil
}

// AppendBlock writes one SRT block covering [startPTS, endPTS] (in
// clockRate units) with body text to filename under results/.
// File I/O errors are per-line, best-effort.
func (w *SubtitleWriter) AppendBlock(filename string, startPTS, endPTS int64, clockRate uint32, text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.fileFor(filename)
	if err != nil {
		return err
	}

	w.indices[filename]++
	idx := w.indices[filename]

	startTime := ptsToDuration(startPTS, clockRate)
	endTime := ptsToDuration(endPTS, clockRate)

	block := fmt.Sprintf("%d\n%s --> %s\n%s\n\n", idx, formatSRTTime(startTime), formatSRTTime(endTime), text)
	if _, err := f.WriteString(block); err != nil {
		return NewError(err, ErrCodeIO, "SubtitleWriter", "AppendBlock").WithContext(filename)
	}
	return nil
}

func (w *SubtitleWriter) fileFor(filename string) (*os.File, error) {
	if f, ok := w.files[filename]; ok {
		return f, nil
	}

	f, err := os.OpenFile(filepath.Join(resultsDir, filename), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, NewError(err, ErrCodeIO, "SubtitleWriter", "Open").WithContext(filename)
	}
	w.files[filename] = f
	return f, nil
}

// Close flushes and closes every open subtitle file, ensuring no
// partial blocks remain on disk.
func (w *SubtitleWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var lastErr error
	for name, f := range w.files {
		if err := f.Close(); err != nil {
			lastErr = err
		}
		delete(w.files, name)
	}
	return lastErr
}

func ptsToDuration(pts int64, clockRate uint32) time.Duration {
	if clockRate == 0 {
		return 0
	}
	seconds := float64(pts) / float64(clockRate)
	return time.Duration(seconds * float64(time.Second))
}

func formatSRTTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	hours := ms / 3600000
	ms -= hours * 3600000
	minutes := ms / 60000
	ms -= minutes * 60000
	seconds := ms / 1000
	ms -= seconds * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, ms)
}
