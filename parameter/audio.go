package parameter

import "time"

// Audio Hardware Settings
const (
	AudioSampleRate    = 44100
	AudioChannels      = 2
	AudioBitDepth      = 16
	AudioBytesPerFrame = AudioChannels * (AudioBitDepth / 8) // 4 bytes
)

// Audio Output Timing
const (
	// AudioBufferDuration determines latency and pipe writer tick rate
	AudioBufferDuration = 50 * time.Millisecond

	// SpeakerBufferDuration is the beep/speaker buffer size
	SpeakerBufferDuration = 100 * time.Millisecond
)

// Session Envelope
const (
	SessionLevel        = 0.5 // master gain target after fade-in
	SessionFadeIn       = 3.0 // seconds
	SessionFadeOut      = 3.0 // seconds
	EffectRampSeconds   = 1.0 // delay/feedback glide on re-theme
	GraphReleaseTail    = 5 * time.Second
	DefaultSessionLimit = 25 * time.Minute
)

// Note Envelope
const (
	NotePeak        = 0.2
	NoteAttack      = 0.02 // seconds
	NoteFloor       = 0.001
	NoteStopPadding = 1.0 // seconds past decay before the voice is dropped

	PadPeak   = 0.1
	PadAttack = 2.0 // seconds

	BellModRatio = 2.5
	BellModDepth = 0.5  // fraction of carrier frequency
	BellModFloor = 0.01 // Hz, exponential ramps cannot reach zero
	WoodCutoff   = 400.0
	LowpassQ     = 0.7071
)

// Scheduler Timing
const (
	TickBaseInterval = 1000 * time.Millisecond
	DensityWindow    = 2000 * time.Millisecond
	PadDensityWindow = 4000 * time.Millisecond
)

// Effects
const (
	MaxDelayTime = 5.0 // seconds

	CompressorThresholdDB = -18.0
	CompressorKneeDB      = 6.0
	CompressorRatio       = 4.0
	CompressorAttack      = 0.003 // seconds
	CompressorRelease     = 0.25  // seconds
)
