package sim

import "fmt"

// ConfigError is a fatal startup error: a non-power-of-two geometry parameter
// or an unknown protocol name.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// TraceParseError is a fatal trace-file error: a malformed line or an
// unknown opcode. It identifies the file and line.
type TraceParseError struct {
	File string
	Line int
	Text string
	Err  error
}

func (e *TraceParseError) Error() string {
	return fmt.Sprintf("trace parse error: %s:%d: %s: %v", e.File, e.Line, e.Text, e.Err)
}

func (e *TraceParseError) Unwrap() error { return e.Err }

// InvariantViolation reports an impossible transition reached by the engine
// itself — a bug, not a user error. Ident names the violated invariant
// (e.g. "bus-single-owner") so it can be grepped for.
type InvariantViolation struct {
	Ident  string
	Detail string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation [%s]: %s", e.Ident, e.Detail)
}

// violate panics with an InvariantViolation. Invariant violations are bugs in
// the engine, not recoverable runtime conditions, so they abort the process
// the same way a failed assertion would; cmd.Execute recovers at the top
// level only to attach a distinct process exit status.
func violate(ident, detail string, args ...any) {
	panic(&InvariantViolation{Ident: ident, Detail: fmt.Sprintf(detail, args...)})
}
