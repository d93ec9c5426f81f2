package metrics

import "time"

// NoopRecorder drops every sample. Components fall back to it when no
// Recorder is wired.
type NoopRecorder struct{}

var _ Recorder = NoopRecorder{}

func (NoopRecorder) IncCounter(string, map[string]string)                    {}
func (NoopRecorder) ObserveLatency(string, time.Duration, map[string]string) {}

// OrNoop returns rec, or a NoopRecorder when rec is nil.
func OrNoop(rec Recorder) Recorder {
	if rec == nil {
		return NoopRecorder{}
	}
	return rec
}

// Enabled reports whether rec keeps any samples.
func Enabled(rec Recorder) bool {
	switch rec.(type) {
	case nil, NoopRecorder, *NoopRecorder:
		return false
	}
	return true
}
