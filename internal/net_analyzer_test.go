package internal

import "testing"

func TestSequenceGapForwardProgress(t *testing.T) {
	cases := []struct {
		name    string
		prev    uint16
		curr    uint16
		wantGap uint64
		wantOK  bool
	}{
		{"consecutive", 100, 101, 0, true},
		{"one dropped", 100, 102, 1, true},
		{"many dropped", 1000, 1010, 9, true},
		{"duplicate rejected", 100, 100, 0, false},
		{"stale rejected", 100, 50, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gap, ok := sequenceGap(tc.prev, tc.curr)
			if ok != tc.wantOK {
				t.Fatalf("accepted = %v, want %v", ok, tc.wantOK)
			}
			if ok && gap != tc.wantGap {
				t.Fatalf("gap = %d, want %d", gap, tc.wantGap)
			}
		})
	}
}

func TestSequenceGapWraparound(t *testing.T) {
	gap, ok := sequenceGap(65530, 5)
	if !ok {
		t.Fatalf("expected wraparound to be accepted")
	}
	if gap != 10 {
		t.Fatalf("gap = %d, want 10", gap)
	}
}

func TestSequenceGapRejectsOutOfWrapWindow(t *testing.T) {
	// prevSeq too low to be a legitimate pre-wrap value.
	if _, ok := sequenceGap(40000, 10); ok {
		t.Fatalf("expected rejection outside the wrap window")
	}
}

func TestTimestampWrapped(t *testing.T) {
	const clockRate = 90000

	if !timestampWrapped(1<<32-1000, 500, clockRate) {
		t.Fatalf("expected wrap to be detected near the 32-bit boundary")
	}

	if timestampWrapped(1000, 2000, clockRate) {
		t.Fatalf("did not expect a wrap for normal forward progress")
	}

	// currTimestamp < prevTimestamp but neither end is near the wrap
	// boundary: this is reordering, not a wrap.
	if timestampWrapped(50000, 10000, clockRate) {
		t.Fatalf("did not expect a wrap for plain reordering")
	}
}
