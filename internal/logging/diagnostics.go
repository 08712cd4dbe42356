package logging

import "log/slog"

// DiagnosticKey is the attribute key carried by every recoverable warning.
const DiagnosticKey = "warning"

// Diagnostic kinds. A warning never fails a scan; the kind says which item
// was degraded or dropped.
const (
	UnknownExtension      = "unknown_extension"
	InvalidDeclaration    = "invalid_declaration"
	AmbiguousInclude      = "ambiguous_include"
	DuplicateBasename     = "duplicate_basename"
	PairingViolation      = "pairing_violation"
	MissingHeaderInclude  = "missing_header_include"
	SymbolConflict        = "symbol_conflict"
	UnresolvedForwardDecl = "unresolved_forward_decl"
)

// Diagnostic tags a warning with its kind.
func Diagnostic(kind string) slog.Attr {
	return slog.String(DiagnosticKey, kind)
}
