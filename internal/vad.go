package internal

import "math"

// Voice activity detection constants for the energy-threshold VAD.
const (
	vadThreshold    = -45.0 // dB threshold for voice activity
	pcmMaxAmplitude = 32767
)

// IsVoiceActive reports whether pcm contains voice energy above the
// VAD threshold. A silent (all-zero or empty) buffer is never voice.
func IsVoiceActive(pcm []int16) bool {
	if calculateRMS(pcm) == 0 {
		return false
	}
	db := LoudnessDB(pcm)
	return db > vadThreshold
}

// LoudnessDB computes normalized RMS loudness in dB, used only to drive
// the VAD energy threshold. An all-zero (silent) buffer returns a floor
// value of 0 rather than -Inf (log of zero).
func LoudnessDB(pcm []int16) float64 {
	if len(pcm) == 0 {
		return 0
	}

	var sumSquares float64
	for _, sample := range pcm {
		amplitude := float64(sample) / pcmMaxAmplitude
		sumSquares += amplitude * amplitude
	}

	rms := math.Sqrt(sumSquares / float64(len(pcm)))
	if rms == 0 {
		return 0
	}
	return 20 * math.Log10(rms)
}

// PeakAmplitudeDB computes 20*log10(peak absolute sample), unnormalized
// against full scale (so full-scale int16 reads ~90.3 dB, not 0 dB).
// This is the reported Max Voice/Max Noise statistic; it is a different
// measure from LoudnessDB's normalized RMS and must not be conflated
// with it. An all-zero buffer returns a floor value of 0.
func PeakAmplitudeDB(pcm []int16) float64 {
	if len(pcm) == 0 {
		return 0
	}

	var peak float64
	for _, sample := range pcm {
		abs := math.Abs(float64(sample))
		if abs > peak {
			peak = abs
		}
	}

	if peak == 0 {
		return 0
	}
	return 20 * math.Log10(peak)
}

// calculateRMS returns the root-mean-square amplitude of pcm.
func calculateRMS(pcm []int16) float64 {
	if len(pcm) == 0 {
		return 0
	}
	var sumSquares int64
	for _, sample := range pcm {
		sumSquares += int64(sample) * int64(sample)
	}
	return math.Sqrt(float64(sumSquares) / float64(len(pcm)))
}
