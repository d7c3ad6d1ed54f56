package internal

import "testing"

func TestLoudnessDBSilenceReturnsFloor(t *testing.T) {
	silence := make([]int16, 160)
	if db := LoudnessDB(silence); db != 0 {
		t.Fatalf("LoudnessDB(silence) = %v, want 0", db)
	}
}

func TestLoudnessDBEmptyBuffer(t *testing.T) {
	if db := LoudnessDB(nil); db != 0 {
		t.Fatalf("LoudnessDB(nil) = %v, want 0", db)
	}
}

func TestLoudnessDBLouderSignalHasHigherValue(t *testing.T) {
	quiet := make([]int16, 160)
	for i := range quiet {
		quiet[i] = 100
	}
	loud := make([]int16, 160)
	for i := range loud {
		loud[i] = 16000
	}

	quietDB := LoudnessDB(quiet)
	loudDB := LoudnessDB(loud)
	if loudDB <= quietDB {
		t.Fatalf("expected loud signal dB (%v) > quiet signal dB (%v)", loudDB, quietDB)
	}
}

func TestIsVoiceActive(t *testing.T) {
	silence := make([]int16, 160)
	if IsVoiceActive(silence) {
		t.Fatalf("silence should not be classified as voice activity")
	}

	loud := make([]int16, 160)
	for i := range loud {
		loud[i] = 20000
	}
	if !IsVoiceActive(loud) {
		t.Fatalf("a loud buffer should be classified as voice activity")
	}
}

func TestCalculateRMS(t *testing.T) {
	if rms := calculateRMS(nil); rms != 0 {
		t.Fatalf("calculateRMS(nil) = %v, want 0", rms)
	}

	samples := []int16{100, -100, 100, -100}
	if rms := calculateRMS(samples); rms != 100 {
		t.Fatalf("calculateRMS(constant-magnitude) = %v, want 100", rms)
	}
}

func TestPeakAmplitudeDBSilenceReturnsFloor(t *testing.T) {
	silence := make([]int16, 160)
	if db := PeakAmplitudeDB(silence); db != 0 {
		t.Fatalf("PeakAmplitudeDB(silence) = %v, want 0", db)
	}
}

func TestPeakAmplitudeDBEmptyBuffer(t *testing.T) {
	if db := PeakAmplitudeDB(nil); db != 0 {
		t.Fatalf("PeakAmplitudeDB(nil) = %v, want 0", db)
	}
}

func TestPeakAmplitudeDBFullScaleSampleIsAboveNinetyDB(t *testing.T) {
	samples := []int16{0, 32767, 0, -100}
	db := PeakAmplitudeDB(samples)
	if db < 90 || db > 91 {
		t.Fatalf("PeakAmplitudeDB(full-scale sample) = %v, want ~90.3 dB", db)
	}
}

func TestPeakAmplitudeDBUsesMagnitudeNotSign(t *testing.T) {
	positive := PeakAmplitudeDB([]int16{5000})
	negative := PeakAmplitudeDB([]int16{-5000})
	if positive != negative {
		t.Fatalf("PeakAmplitudeDB should use |sample|: got %v for +5000 and %v for -5000", positive, negative)
	}
}
