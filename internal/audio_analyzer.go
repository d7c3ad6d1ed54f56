package internal

import (
	"fmt"
	"log"
	"time"
)

const (
	audioReportIntervalFraction = 0.45
	vadFrameBytes               = 320 // 10ms @ 16kHz mono, 16-bit PCM
)

// AudioAnalyzer performs per-frame voice-activity detection and
// accumulates voice/noise loudness using an EMA rule.
type AudioAnalyzer struct {
	in     *DroppingQueue[AudioFrame]
	info   *StreamInfo
	writer *SubtitleWriter
	store  *ReportStore

	acc AudioAccumulator
}

// NewAudioAnalyzer subscribes in to the Stream Ingestor's audio fan-out.
func NewAudioAnalyzer(in *DroppingQueue[AudioFrame], info *StreamInfo, writer *SubtitleWriter, store *ReportStore) *AudioAnalyzer {
	return &AudioAnalyzer{in: in, info: info, writer: writer, store: store}
}

// Run blocks processing frames until stop returns true.
func (a *AudioAnalyzer) Run(stop func() bool) {
	a.info.WaitUntilStarted(stop)

	for {
		if stop() {
			return
		}
		select {
		case frame, ok := <-a.in.C():
			if !ok {
				return
			}
			a.ingest(frame)
		case <-time.After(50 * time.Millisecond):
		}
	}
}

// ingest implements the per-frame accumulation algorithm.
func (a *AudioAnalyzer) ingest(frame AudioFrame) {
	Heartbeat("audio_analyzer")

	pcm := padOrTruncateForVAD(frame.Samples)
	maxDB := PeakAmplitudeDB(frame.Samples)
	isSpeech := IsVoiceActive(pcm)

	if !a.acc.HaveLastPTS {
		a.acc.LastPTS = frame.PTS
		a.acc.HaveLastPTS = true
	}

	if maxDB != 0 {
		if isSpeech {
			if maxDB > a.acc.MaxVoice {
				a.acc.MaxVoice = maxDB
			}
			a.acc.AvgVoice = emaUpdate(a.acc.AvgVoice, maxDB, a.acc.HaveVoice)
			a.acc.HaveVoice = true
		} else {
			if maxDB > a.acc.MaxNoise {
				a.acc.MaxNoise = maxDB
			}
			a.acc.AvgNoise = emaUpdate(a.acc.AvgNoise, maxDB, a.acc.HaveNoise)
			a.acc.HaveNoise = true
		}
	}

	if frame.TimeBase <= 0 {
		return
	}
	clockRate := 1.0 / frame.TimeBase
	if float64(frame.PTS-a.acc.LastPTS) > audioReportIntervalFraction*clockRate {
		a.emitReport(frame.PTS)
		a.acc.MaxVoice = 0
		a.acc.MaxNoise = 0
		a.acc.LastPTS = frame.PTS
	}
}

// emaUpdate applies a non-arithmetic-mean exponential update: weight
// 0.5 on the newest sample, not a true running mean.
func emaUpdate(prevAvg, sample float64, havePrev bool) float64 {
	if !havePrev {
		return sample
	}
	return (prevAvg + sample) / 2
}

func padOrTruncateForVAD(samples []int16) []int16 {
	wantSamples := vadFrameBytes / 2
	if len(samples) == wantSamples {
		return samples
	}
	out := make([]int16, wantSamples)
	copy(out, samples)
	return out
}

func (a *AudioAnalyzer) emitReport(currentPTS int64) {
	start := time.Now()
	defer MeasureOperation("audio_analyzer", start)

	ratioText := "None"
	if a.acc.HaveVoice && a.acc.HaveNoise && a.acc.AvgNoise != 0 {
		ratioText = fmt.Sprintf("%.2f", a.acc.AvgVoice/a.acc.AvgNoise)
	}

	line := fmt.Sprintf("Max Voice:%.2f db, Max Noise:%.2f db, Voice(mean) to Noise(mean) Ratio: %s",
		a.acc.MaxVoice, a.acc.MaxNoise, ratioText)

	if a.writer != nil {
		if err := a.writer.AppendBlock("Audio-Status.srt", a.acc.LastPTS, currentPTS, a.info.AudioClockRate, line); err != nil {
			log.Printf("audio_analyzer: subtitle write error: %v", err)
		}
	}

	SetAudioVoiceDB(a.acc.MaxVoice)
	SetAudioNoiseDB(a.acc.MaxNoise)

	if a.store != nil {
		if err := a.store.InsertAudioReport(a.acc.MaxVoice, a.acc.MaxNoise); err != nil {
			log.Printf("audio_analyzer: mysql insert error: %v", err)
		}
	}
}
