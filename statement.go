package sqlitec

import (
	"fmt"
	"strings"

	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sqlitec/sqlitec/internal/cmem"
)

// paramMarkers are the recognized leading characters for parameter
// names. Nameless '?' and numbered '?NNN' placeholders are rejected at
// prepare time.
const paramMarkers = ":$@"

// Param describes one declared parameter. Index is the engine's
// 1-based bind position.
type Param struct {
	Index int
	Name  string
}

// Column describes one output column. Index is 0-based. DeclType is the
// declared type from the schema and may be empty for computed columns.
type Column struct {
	Index    int
	Name     string
	DeclType string
}

// Stmt represents a prepared statement: one compiled query handle plus
// parameter and column metadata fixed at prepare time.
//
// A Stmt must not outlive the Conn it was prepared against, and must be
// released exactly once with Finalize.
//
// https://www.sqlite.org/c3ref/stmt.html
type Stmt struct {
	conn   *Conn
	handle uintptr
	params []Param
	cols   []Column

	// engine-heap copies made by bindValue, released on Reset/Finalize
	allocs []uintptr

	// set when step reports completion; only Reset re-arms execution
	done bool
}

// Prepare compiles the given SQL query into a prepared statement and
// introspects its parameter and column metadata. Every parameter must
// carry a name starting with ':', '$' or '@'. On any failure the
// half-built handle is released before the error is returned.
//
// https://www.sqlite.org/c3ref/prepare.html
func (conn *Conn) Prepare(query string) (*Stmt, error) {
	tls := conn.tls

	zSQL, err := cmem.CString(tls, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer cmem.Free(tls, zSQL)

	cell, err := cmem.PtrCell(tls)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer cmem.Free(tls, cell)

	resCode := sqlite3.Xsqlite3_prepare_v2(tls, conn.handle, zSQL, -1, cell, 0)
	if resCode != sqlite3.SQLITE_OK {
		return nil, fmt.Errorf("failed to prepare statement: %w", conn.nativeError(resCode))
	}

	handle := cmem.ReadPtr(cell)
	if handle == 0 {
		// Whitespace or comment-only input compiles to nothing.
		return nil, fmt.Errorf("failed to prepare statement: query contains no statement")
	}

	stmt := &Stmt{conn: conn, handle: handle}
	if err := stmt.loadMetadata(); err != nil {
		sqlite3.Xsqlite3_finalize(tls, handle)
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}

	return stmt, nil
}

// loadMetadata walks the parameter range (1..count) and the column
// range (0..count), validating names as it goes. Metadata is immutable
// afterwards.
func (s *Stmt) loadMetadata() error {
	tls := s.conn.tls

	paramCount := int(sqlite3.Xsqlite3_bind_parameter_count(tls, s.handle))
	s.params = make([]Param, 0, paramCount)
	for i := 1; i <= paramCount; i++ {
		p := sqlite3.Xsqlite3_bind_parameter_name(tls, s.handle, int32(i))
		if p == 0 {
			return fmt.Errorf("parameter %d has no name: %w", i, ErrParamName)
		}
		name := cmem.GoString(p)
		if name == "" || !strings.ContainsRune(paramMarkers, rune(name[0])) {
			return fmt.Errorf("parameter %d (%q): %w", i, name, ErrParamName)
		}
		s.params = append(s.params, Param{Index: i, Name: name})
	}

	colCount := int(sqlite3.Xsqlite3_column_count(tls, s.handle))
	s.cols = make([]Column, 0, colCount)
	for i := 0; i < colCount; i++ {
		p := sqlite3.Xsqlite3_column_name(tls, s.handle, int32(i))
		if p == 0 {
			return fmt.Errorf("column %d name unavailable", i)
		}
		s.cols = append(s.cols, Column{
			Index:    i,
			Name:     cmem.GoString(p),
			DeclType: cmem.GoString(sqlite3.Xsqlite3_column_decltype(tls, s.handle, int32(i))),
		})
	}

	return nil
}

// ParamCount returns the number of declared parameters.
func (s *Stmt) ParamCount() int { return len(s.params) }

// ColumnCount returns the number of output columns.
func (s *Stmt) ColumnCount() int { return len(s.cols) }

// Param returns the metadata for the parameter at the given 1-based
// position without touching the engine.
func (s *Stmt) Param(i int) (Param, error) {
	if i < 1 || i > len(s.params) {
		return Param{}, fmt.Errorf("parameter %d of %d: %w", i, len(s.params), ErrInvalidIndex)
	}
	return s.params[i-1], nil
}

// Column returns the metadata for the column at the given 0-based index
// without touching the engine.
func (s *Stmt) Column(i int) (Column, error) {
	if i < 0 || i >= len(s.cols) {
		return Column{}, fmt.Errorf("column %d of %d: %w", i, len(s.cols), ErrInvalidIndex)
	}
	return s.cols[i], nil
}

// ReadOnly returns true if the statement makes no direct changes to the
// database.
//
// https://www.sqlite.org/c3ref/stmt_readonly.html
func (s *Stmt) ReadOnly() bool {
	return sqlite3.Xsqlite3_stmt_readonly(s.conn.tls, s.handle) != 0
}

// Bind attaches one value per declared parameter, index-aligned to the
// 1-based parameter positions. A count mismatch fails before any native
// call. A native bind failure aborts the call; the following Reset
// clears whatever was bound up to that point.
func (s *Stmt) Bind(args ...Value) error {
	if len(args) != len(s.params) {
		return fmt.Errorf("got %d arguments for %d parameters: %w", len(args), len(s.params), ErrArgCount)
	}

	for i, v := range args {
		if err := s.bindValue(i+1, v); err != nil {
			return err
		}
	}
	return nil
}

// Step advances execution by one row. It returns (row, true, nil) when a
// row was produced, (nil, false, nil) when execution completed normally,
// and a mapped error for any other engine outcome. Once execution has
// completed, further Step calls keep returning the no-more-rows
// sentinel until Reset; the engine's own step would silently re-execute
// the statement here. After a failed step the statement is reset in
// place; if that reset reports a different code than the step itself
// the engine's error reporting is internally inconsistent and Step
// panics.
//
// https://www.sqlite.org/c3ref/step.html
func (s *Stmt) Step() (Row, bool, error) {
	if s.done {
		return nil, false, nil
	}

	tls := s.conn.tls

	resCode := sqlite3.Xsqlite3_step(tls, s.handle)
	switch resCode {
	case sqlite3.SQLITE_ROW:
		row := make(Row, len(s.cols))
		for i := range s.cols {
			row[i] = s.columnValue(i)
		}
		return row, true, nil
	case sqlite3.SQLITE_DONE:
		s.done = true
		return nil, false, nil
	}

	err := s.conn.nativeError(resCode)
	resetCode := sqlite3.Xsqlite3_reset(tls, s.handle)
	if resetCode != resCode {
		panic(fmt.Sprintf("sqlitec: reset after failed step returned %d, step returned %d: %s",
			resetCode, resCode, s.conn.errmsg()))
	}
	return nil, false, fmt.Errorf("failed to step statement: %w", err)
}

// Reset clears any pending row state and all current bindings, returning
// the statement to its freshly prepared state. Reset does not fail under
// correct usage, so an engine failure here indicates state corruption
// and panics.
//
// https://www.sqlite.org/c3ref/reset.html
func (s *Stmt) Reset() {
	tls := s.conn.tls

	if resCode := sqlite3.Xsqlite3_reset(tls, s.handle); resCode != sqlite3.SQLITE_OK {
		panic(fmt.Sprintf("sqlitec: failed to reset statement: %s (%d)", s.conn.errmsg(), resCode))
	}
	if resCode := sqlite3.Xsqlite3_clear_bindings(tls, s.handle); resCode != sqlite3.SQLITE_OK {
		panic(fmt.Sprintf("sqlitec: failed to clear bindings: %s (%d)", s.conn.errmsg(), resCode))
	}
	s.freeAllocs()
	s.done = false
}

// Exec binds the given arguments, steps once, and resets. Any single
// produced row is discarded, so Exec suits DDL and DML statements while
// tolerating ones that return rows.
func (s *Stmt) Exec(args ...Value) error {
	if err := s.Bind(args...); err != nil {
		return err
	}
	_, _, err := s.Step()
	s.Reset()
	return err
}

// Finalize releases the statement's metadata and the compiled handle.
// It is safe to call more than once; only the first call does work. The
// engine does not fail a finalize whose prior step error was already
// collected, so a failure here has no well-defined recovery and panics
// with the engine's diagnostic text.
//
// https://www.sqlite.org/c3ref/finalize.html
func (s *Stmt) Finalize() {
	if s.handle == 0 {
		return
	}

	resCode := sqlite3.Xsqlite3_finalize(s.conn.tls, s.handle)
	s.handle = 0
	s.freeAllocs()
	s.params = nil
	s.cols = nil
	if resCode != sqlite3.SQLITE_OK {
		panic(fmt.Sprintf("sqlitec: failed to finalize statement: %s (%d)", s.conn.errmsg(), resCode))
	}
}

func (s *Stmt) freeAllocs() {
	for _, p := range s.allocs {
		cmem.Free(s.conn.tls, p)
	}
	s.allocs = nil
}
