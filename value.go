package sqlitec

import (
	"fmt"

	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sqlitec/sqlitec/internal/cmem"
)

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	TypeNull ValueKind = iota
	TypeInt32
	TypeInt64
	TypeFloat64
	TypeText
	TypeBlob
)

func (k ValueKind) String() string {
	switch k {
	case TypeNull:
		return "null"
	case TypeInt32:
		return "int32"
	case TypeInt64:
		return "int64"
	case TypeFloat64:
		return "float64"
	case TypeText:
		return "text"
	case TypeBlob:
		return "blob"
	}
	return fmt.Sprintf("ValueKind(%d)", int(k))
}

// Value is a closed tagged union over the engine's storage classes:
// null, 32/64-bit integer, 64-bit float, text, and blob. The null
// variant represents an absent value and is distinct from empty text or
// an empty blob. TypeInt32 exists only as a write-side convenience;
// integer columns always decode as TypeInt64.
type Value struct {
	kind ValueKind
	i    int64
	f    float64
	s    string
	b    []byte
}

// Row is one decoded result row, one Value per column in column order.
// Rows are freshly allocated per step and owned by the caller.
type Row []Value

// Null returns the absent value.
func Null() Value { return Value{kind: TypeNull} }

// Int32 returns a 32-bit integer value.
func Int32(v int32) Value { return Value{kind: TypeInt32, i: int64(v)} }

// Int64 returns a 64-bit integer value.
func Int64(v int64) Value { return Value{kind: TypeInt64, i: v} }

// Float64 returns a 64-bit float value.
func Float64(v float64) Value { return Value{kind: TypeFloat64, f: v} }

// Text returns a text value.
func Text(s string) Value { return Value{kind: TypeText, s: s} }

// Blob returns a binary value. A nil or empty slice is a zero-length
// blob, not null.
func Blob(b []byte) Value { return Value{kind: TypeBlob, b: b} }

// Kind returns the variant tag.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether the value is absent.
func (v Value) IsNull() bool { return v.kind == TypeNull }

// Int64 returns the integer payload of a TypeInt32 or TypeInt64 value,
// and 0 for every other kind.
func (v Value) Int64() int64 { return v.i }

// Float64 returns the float payload, or 0 for non-float kinds.
func (v Value) Float64() float64 { return v.f }

// Text returns the text payload, or "" for non-text kinds.
func (v Value) Text() string { return v.s }

// Blob returns the binary payload, or nil for non-blob kinds.
func (v Value) Blob() []byte { return v.b }

// bindValue encodes one value into the parameter at the given 1-based
// position. Text and blob payloads are copied into the engine heap and
// bound with the static-ownership hint; the statement owns the copy
// until the next Reset or Finalize.
func (s *Stmt) bindValue(pos int, v Value) error {
	tls := s.conn.tls
	var rc int32

	switch v.kind {
	case TypeNull:
		rc = sqlite3.Xsqlite3_bind_null(tls, s.handle, int32(pos))
	case TypeInt32:
		rc = sqlite3.Xsqlite3_bind_int(tls, s.handle, int32(pos), int32(v.i))
	case TypeInt64:
		rc = sqlite3.Xsqlite3_bind_int64(tls, s.handle, int32(pos), v.i)
	case TypeFloat64:
		rc = sqlite3.Xsqlite3_bind_double(tls, s.handle, int32(pos), v.f)
	case TypeText:
		p, err := cmem.CString(tls, v.s)
		if err != nil {
			return fmt.Errorf("failed to bind text at %d: %w", pos, err)
		}
		s.allocs = append(s.allocs, p)
		rc = sqlite3.Xsqlite3_bind_text(tls, s.handle, int32(pos), p, int32(len(v.s)), 0)
	case TypeBlob:
		if len(v.b) == 0 {
			// A null data pointer would bind SQL NULL; a zero-length
			// zeroblob keeps "empty" distinct from "absent".
			rc = sqlite3.Xsqlite3_bind_zeroblob(tls, s.handle, int32(pos), 0)
			break
		}
		p, err := cmem.Bytes(tls, v.b)
		if err != nil {
			return fmt.Errorf("failed to bind blob at %d: %w", pos, err)
		}
		s.allocs = append(s.allocs, p)
		rc = sqlite3.Xsqlite3_bind_blob(tls, s.handle, int32(pos), p, int32(len(v.b)), 0)
	default:
		return fmt.Errorf("cannot bind value of kind %s", v.kind)
	}

	if rc != sqlite3.SQLITE_OK {
		return s.conn.nativeError(rc)
	}
	return nil
}

// columnValue decodes the column at the given 0-based index of the
// current row. Integer columns always decode as TypeInt64. Text and
// blob payloads are copied out of the engine-owned buffer, so the
// returned Value stays valid after the next step or reset.
func (s *Stmt) columnValue(i int) Value {
	tls := s.conn.tls
	ci := int32(i)

	switch sqlite3.Xsqlite3_column_type(tls, s.handle, ci) {
	case sqlite3.SQLITE_INTEGER:
		return Int64(sqlite3.Xsqlite3_column_int64(tls, s.handle, ci))
	case sqlite3.SQLITE_FLOAT:
		return Float64(sqlite3.Xsqlite3_column_double(tls, s.handle, ci))
	case sqlite3.SQLITE_TEXT:
		// column_text runs any needed conversion, so it must come
		// before column_bytes.
		p := sqlite3.Xsqlite3_column_text(tls, s.handle, ci)
		n := sqlite3.Xsqlite3_column_bytes(tls, s.handle, ci)
		if n < 0 {
			panic(fmt.Sprintf("sqlitec: engine reported negative text length %d for column %d", n, i))
		}
		return Text(cmem.GoStringN(p, int(n)))
	case sqlite3.SQLITE_BLOB:
		p := sqlite3.Xsqlite3_column_blob(tls, s.handle, ci)
		n := sqlite3.Xsqlite3_column_bytes(tls, s.handle, ci)
		if n < 0 {
			panic(fmt.Sprintf("sqlitec: engine reported negative blob length %d for column %d", n, i))
		}
		return Blob(cmem.GoBytes(p, int(n)))
	default:
		return Null()
	}
}
