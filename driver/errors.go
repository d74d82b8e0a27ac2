package driver

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muskater/libelektra/store"
)

// ErrorKind classifies a diagnostic, per spec.md §7.
type ErrorKind int

const (
	ErrorInternal ErrorKind = iota
	ErrorMemory
	ErrorSyntactic
	ErrorSemantic
	ErrorResource
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorInternal:
		return "internal"
	case ErrorMemory:
		return "memory"
	case ErrorSyntactic:
		return "syntactic"
	case ErrorSemantic:
		return "semantic"
	case ErrorResource:
		return "resource"
	default:
		return "unknown"
	}
}

// Position is a one-based line:column location.
type Position struct {
	Line   int
	Column int
}

// Span is a start/end location range, per spec.md §4.H's "start/end
// line:column span from the lexer's location tracking".
type Span struct {
	Start Position
	End   Position
}

// Diagnostic is one positioned error message attached to the root key.
type Diagnostic struct {
	Kind    ErrorKind
	Line    int
	Span    Span
	Message string
}

// ErrorReporter is spec.md §6's error-reporting interface: set_error /
// set_out_of_memory, consumed by the driver and never by anyone else.
type ErrorReporter interface {
	SetError(root *store.Key, kind ErrorKind, line int, span Span, message string)
	SetOutOfMemory(root *store.Key)
}

// ZapReporter is the default ErrorReporter: it logs every diagnostic
// through a zap.Logger and mirrors it onto the root key's "error/#n"
// metadata, per SPEC_FULL.md §4.M.
type ZapReporter struct {
	log     *zap.Logger
	parseID uuid.UUID
	count   int
}

// NewZapReporter returns a reporter that tags every log line with a
// fresh parse-session id, for correlating diagnostics from one Parse
// call across a shared logger.
func NewZapReporter(log *zap.Logger) *ZapReporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &ZapReporter{log: log, parseID: uuid.New()}
}

func (r *ZapReporter) SetError(root *store.Key, kind ErrorKind, line int, span Span, message string) {
	fields := []zap.Field{
		zap.String("parse_id", r.parseID.String()),
		zap.String("kind", kind.String()),
		zap.Int("line", line),
		zap.String("span_start", fmt.Sprintf("%d:%d", span.Start.Line, span.Start.Column)),
		zap.String("span_end", fmt.Sprintf("%d:%d", span.End.Line, span.End.Column)),
	}
	switch kind {
	case ErrorInternal, ErrorResource:
		r.log.Error(message, fields...)
	default:
		r.log.Warn(message, fields...)
	}
	r.mirror(root, fmt.Sprintf("Line %d~(%d:%d-%d:%d): %s", line, span.Start.Line, span.Start.Column, span.End.Line, span.End.Column, message))
}

func (r *ZapReporter) SetOutOfMemory(root *store.Key) {
	const msg = "out of memory"
	r.log.DPanic(msg, zap.String("parse_id", r.parseID.String()))
	r.mirror(root, msg)
}

func (r *ZapReporter) mirror(root *store.Key, message string) {
	if root == nil {
		return
	}
	root.SetMeta(fmt.Sprintf("error/#%d", r.count), message)
	r.count++
}
