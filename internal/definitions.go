package internal

// Media kinds as they appear in SDP m= lines.
const (
	MediaTypeAudio = "audio"
	MediaTypeVideo = "video"
)

// RTP payload type identifiers this probe recognizes.
const (
	CodecG711u = "PCMU"
	CodecG711a = "PCMA"
	CodecH264  = "H264"
)

const (
	RTPHeaderSize = 12 // bytes, before CSRC/extension
	MaxPacketSize = 1500
)

// CodecNameForPayloadType maps a static RTP payload type this probe
// accepts to its human-readable codec name, for status reporting.
func CodecNameForPayloadType(pt uint8) string {
	switch pt {
	case 0:
		return CodecG711u
	case 8:
		return CodecG711a
	case 96, 97, 98:
		return CodecH264
	default:
		return ""
	}
}

// Log levels, kept for future verbosity control even though this
// probe's own logging stays at Info by default.
const (
	LogLevelError = 1
	LogLevelWarn  = 2
	LogLevelInfo  = 3
	LogLevelDebug = 4
	LogLevelTrace = 5
)

var LogLevel = LogLevelInfo
