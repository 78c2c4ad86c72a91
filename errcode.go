package sqlitec

import (
	"errors"
	"fmt"

	"github.com/orsinium-labs/enum"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrorKind classifies an engine result code into a closed taxonomy.
// Every primary result code has a member; KindRow and KindDone are
// control signals rather than failures and never reach callers inside
// an Error.
type ErrorKind = enum.Member[string]

var (
	KindError      = ErrorKind{Value: "error"}
	KindInternal   = ErrorKind{Value: "internal"}
	KindPerm       = ErrorKind{Value: "permission denied"}
	KindAbort      = ErrorKind{Value: "aborted"}
	KindBusy       = ErrorKind{Value: "busy"}
	KindLocked     = ErrorKind{Value: "locked"}
	KindNoMem      = ErrorKind{Value: "out of memory"}
	KindReadOnly   = ErrorKind{Value: "read-only"}
	KindInterrupt  = ErrorKind{Value: "interrupted"}
	KindIOErr      = ErrorKind{Value: "i/o error"}
	KindCorrupt    = ErrorKind{Value: "corrupt"}
	KindNotFound   = ErrorKind{Value: "not found"}
	KindFull       = ErrorKind{Value: "storage full"}
	KindCantOpen   = ErrorKind{Value: "cannot open"}
	KindProtocol   = ErrorKind{Value: "lock protocol"}
	KindEmpty      = ErrorKind{Value: "empty"}
	KindSchema     = ErrorKind{Value: "schema changed"}
	KindTooBig     = ErrorKind{Value: "too big"}
	KindConstraint = ErrorKind{Value: "constraint violation"}
	KindMismatch   = ErrorKind{Value: "type mismatch"}
	KindMisuse     = ErrorKind{Value: "misuse"}
	KindNoLFS      = ErrorKind{Value: "host feature unsupported"}
	KindAuth       = ErrorKind{Value: "authorization denied"}
	KindFormat     = ErrorKind{Value: "format"}
	KindRange      = ErrorKind{Value: "bind index out of range"}
	KindNotADB     = ErrorKind{Value: "not a database"}
	KindNotice     = ErrorKind{Value: "notice"}
	KindWarning    = ErrorKind{Value: "warning"}
	KindRow        = ErrorKind{Value: "row available"}
	KindDone       = ErrorKind{Value: "done"}

	// ErrorKinds registers every member of the taxonomy.
	ErrorKinds = enum.New(
		KindError, KindInternal, KindPerm, KindAbort, KindBusy,
		KindLocked, KindNoMem, KindReadOnly, KindInterrupt, KindIOErr,
		KindCorrupt, KindNotFound, KindFull, KindCantOpen, KindProtocol,
		KindEmpty, KindSchema, KindTooBig, KindConstraint, KindMismatch,
		KindMisuse, KindNoLFS, KindAuth, KindFormat, KindRange,
		KindNotADB, KindNotice, KindWarning, KindRow, KindDone,
	)
)

var kindByCode = map[int32]ErrorKind{
	sqlite3.SQLITE_ERROR:      KindError,
	sqlite3.SQLITE_INTERNAL:   KindInternal,
	sqlite3.SQLITE_PERM:       KindPerm,
	sqlite3.SQLITE_ABORT:      KindAbort,
	sqlite3.SQLITE_BUSY:       KindBusy,
	sqlite3.SQLITE_LOCKED:     KindLocked,
	sqlite3.SQLITE_NOMEM:      KindNoMem,
	sqlite3.SQLITE_READONLY:   KindReadOnly,
	sqlite3.SQLITE_INTERRUPT:  KindInterrupt,
	sqlite3.SQLITE_IOERR:      KindIOErr,
	sqlite3.SQLITE_CORRUPT:    KindCorrupt,
	sqlite3.SQLITE_NOTFOUND:   KindNotFound,
	sqlite3.SQLITE_FULL:       KindFull,
	sqlite3.SQLITE_CANTOPEN:   KindCantOpen,
	sqlite3.SQLITE_PROTOCOL:   KindProtocol,
	sqlite3.SQLITE_EMPTY:      KindEmpty,
	sqlite3.SQLITE_SCHEMA:     KindSchema,
	sqlite3.SQLITE_TOOBIG:     KindTooBig,
	sqlite3.SQLITE_CONSTRAINT: KindConstraint,
	sqlite3.SQLITE_MISMATCH:   KindMismatch,
	sqlite3.SQLITE_MISUSE:     KindMisuse,
	sqlite3.SQLITE_NOLFS:      KindNoLFS,
	sqlite3.SQLITE_AUTH:       KindAuth,
	sqlite3.SQLITE_FORMAT:     KindFormat,
	sqlite3.SQLITE_RANGE:      KindRange,
	sqlite3.SQLITE_NOTADB:     KindNotADB,
	sqlite3.SQLITE_NOTICE:     KindNotice,
	sqlite3.SQLITE_WARNING:    KindWarning,
	sqlite3.SQLITE_ROW:        KindRow,
	sqlite3.SQLITE_DONE:       KindDone,
}

// Kind maps a native result code to its ErrorKind. Extended result codes
// fall back to their primary code; anything the taxonomy does not know
// maps to KindInternal, so the mapping is total.
func Kind(rc int32) ErrorKind {
	if kind, ok := kindByCode[rc]; ok {
		return kind
	}
	if kind, ok := kindByCode[rc&0xff]; ok {
		return kind
	}
	return KindInternal
}

// Error is a failed engine call, carrying the mapped kind, the raw
// result code, and the engine's own diagnostic text.
type Error struct {
	Kind    ErrorKind
	RC      int32
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s (%d)", e.Kind.Value, e.RC)
	}
	return fmt.Sprintf("%s: %s (%d)", e.Kind.Value, e.Message, e.RC)
}

// Usage errors, detected before any native call is made.
var (
	// ErrArgCount reports a Bind call whose argument count does not
	// match the statement's declared parameter count.
	ErrArgCount = errors.New("argument count does not match parameter count")

	// ErrInvalidIndex reports an out-of-range Param or Column lookup.
	ErrInvalidIndex = errors.New("metadata index out of range")

	// ErrParamName reports a parameter whose name is missing or does not
	// start with ':', '$' or '@'.
	ErrParamName = errors.New("parameter name must start with ':', '$' or '@'")

	// ErrOpenOptions reports an open configuration with no valid flag
	// translation, such as read-only combined with create.
	ErrOpenOptions = errors.New("invalid open options")
)
