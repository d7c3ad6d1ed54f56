package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSubtitleWriterAppendBlockWritesSRTFormat(t *testing.T) {
	t.Chdir(t.TempDir())

	w, err := NewSubtitleWriter()
	if err != nil {
		t.Fatalf("NewSubtitleWriter() error: %v", err)
	}
	defer w.Close()

	if err := w.AppendBlock("Net-Status.srt", 0, 90000, 90000, "first block"); err != nil {
		t.Fatalf("AppendBlock() error: %v", err)
	}
	if err := w.AppendBlock("Net-Status.srt", 90000, 180000, 90000, "second block"); err != nil {
		t.Fatalf("AppendBlock() error: %v", err)
	}
	w.Close()

	data, err := os.ReadFile(filepath.Join("results", "Net-Status.srt"))
	if err != nil {
		t.Fatalf("failed to read subtitle output: %v", err)
	}
	content := string(data)

	if !strings.Contains(content, "1\n00:00:00,000 --> 00:00:01,000\nfirst block") {
		t.Fatalf("first block not formatted as expected, got:\n%s", content)
	}
	if !strings.Contains(content, "2\n00:00:01,000 --> 00:00:02,000\nsecond block") {
		t.Fatalf("second block not formatted as expected, got:\n%s", content)
	}
}

func TestSubtitleWriterSeparatesFilesByName(t *testing.T) {
	t.Chdir(t.TempDir())

	w, err := NewSubtitleWriter()
	if err != nil {
		t.Fatalf("NewSubtitleWriter() error: %v", err)
	}
	defer w.Close()

	if err := w.AppendBlock("Video-Status.srt", 0, 1, 1, "video"); err != nil {
		t.Fatalf("AppendBlock() error: %v", err)
	}
	if err := w.AppendBlock("Audio-Status.srt", 0, 1, 1, "audio"); err != nil {
		t.Fatalf("AppendBlock() error: %v", err)
	}
	w.Close()

	for _, name := range []string{"Video-Status.srt", "Audio-Status.srt"} {
		if _, err := os.Stat(filepath.Join("results", name)); err != nil {
			t.Fatalf("expected %s to exist: %v", name, err)
		}
	}
}

func TestFormatSRTTimeClampsNegativeDuration(t *testing.T) {
	if got := formatSRTTime(-1); got != "00:00:00,000" {
		t.Fatalf("formatSRTTime(-1) = %q, want 00:00:00,000", got)
	}
}

func TestPTSToDurationZeroClockRate(t *testing.T) {
	if got := ptsToDuration(1000, 0); got != 0 {
		t.Fatalf("ptsToDuration with zero clock rate = %v, want 0", got)
	}
}
