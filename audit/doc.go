// Package audit records terminal pipeline events without retaining raw
// input. Each event carries a short hash of the source text, the
// outcome (ok or abstained with reasons), the model used, and token
// usage. Events are logged through slog and optionally appended to a
// BadgerDB-backed Trail for later inspection.
package audit
