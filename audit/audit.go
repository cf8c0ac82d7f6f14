package audit

import (
	"log/slog"
	"time"
)

// Sink receives terminal pipeline events. Implementations must not block
// the extraction path on failure; errors are reported, not propagated.
type Sink interface {
	Append(event Event) error
}

// Auditor fans events out to zero or more sinks and always logs them.
type Auditor struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewAuditor creates an auditor writing to the given sinks.
func NewAuditor(sinks ...Sink) *Auditor {
	return &Auditor{
		sinks:  sinks,
		logger: slog.Default().With("component", "audit"),
	}
}

// Emit records one event. Sink failures are logged and swallowed so a
// broken trail never fails an extraction.
func (a *Auditor) Emit(event Event) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	a.logger.Info("audit event",
		"name", event.Name,
		"src_hash", event.SrcHash,
		"ok", event.OK,
		"abstained", event.Abstained,
		"reasons", event.Reasons,
		"model", event.Model,
		"prompt_tokens", event.Usage.PromptTokens,
		"completion_tokens", event.Usage.CompletionTokens,
		"keys", event.Keys)

	for _, sink := range a.sinks {
		if err := sink.Append(event); err != nil {
			a.logger.Error("audit sink append failed", "name", event.Name, "error", err)
		}
	}
}
