package sqlitec

import (
	"fmt"

	"github.com/orsinium-labs/enum"
	"modernc.org/libc"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sqlitec/sqlitec/internal/cmem"
)

// OpenMode selects the access mode for Open.
type OpenMode = enum.Member[string]

var (
	ReadWrite = OpenMode{Value: "read-write"}
	ReadOnly  = OpenMode{Value: "read-only"}

	OpenModes = enum.New(ReadWrite, ReadOnly)
)

// Config captures everything Open needs to know about a connection.
type Config struct {
	// Path is the database file location. Empty opens a private
	// in-memory database.
	Path string

	// Mode is ReadWrite or ReadOnly. The zero value means ReadWrite.
	Mode OpenMode

	// Create allows a missing file to be created. Only meaningful with
	// ReadWrite and a non-empty Path.
	Create bool
}

// flags translates the configuration into the engine's open-flag
// bitmask, rejecting combinations with no valid translation before any
// native call.
func (cfg Config) flags() (int32, error) {
	mode := cfg.Mode
	if mode == (OpenMode{}) {
		mode = ReadWrite
	}

	switch mode {
	case ReadOnly:
		if cfg.Create {
			return 0, fmt.Errorf("create requires read-write mode: %w", ErrOpenOptions)
		}
		if cfg.Path == "" {
			return 0, fmt.Errorf("an in-memory database requires read-write mode: %w", ErrOpenOptions)
		}
		return sqlite3.SQLITE_OPEN_READONLY, nil
	case ReadWrite:
		flags := int32(sqlite3.SQLITE_OPEN_READWRITE)
		if cfg.Create || cfg.Path == "" {
			flags |= sqlite3.SQLITE_OPEN_CREATE
		}
		return flags, nil
	}

	return 0, fmt.Errorf("unknown open mode %q: %w", mode.Value, ErrOpenOptions)
}

// Conn represents one connection to a database. A Conn owns its native
// handle exclusively; it is created by Open or Import, destroyed exactly
// once by Close, and must not be shared across goroutines without
// external synchronization.
//
// https://www.sqlite.org/c3ref/sqlite3.html
type Conn struct {
	tls    *libc.TLS
	handle uintptr
}

// Open opens a database connection described by cfg. It either returns
// a usable connection or an error; a half-opened native handle is never
// exposed.
//
// https://www.sqlite.org/c3ref/open.html
func Open(cfg Config) (*Conn, error) {
	flags, err := cfg.flags()
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	tls := libc.NewTLS()
	conn, err := openConn(tls, path, flags)
	if err != nil {
		tls.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return conn, nil
}

func openConn(tls *libc.TLS, path string, flags int32) (*Conn, error) {
	zPath, err := cmem.CString(tls, path)
	if err != nil {
		return nil, err
	}
	defer cmem.Free(tls, zPath)

	cell, err := cmem.PtrCell(tls)
	if err != nil {
		return nil, err
	}
	defer cmem.Free(tls, cell)

	resCode := sqlite3.Xsqlite3_open_v2(tls, zPath, cell, flags, 0)
	handle := cmem.ReadPtr(cell)
	if resCode != sqlite3.SQLITE_OK {
		// The engine usually allocates a handle even on failure; take
		// its message, then release it.
		message := cmem.GoString(sqlite3.Xsqlite3_errstr(tls, resCode))
		if handle != 0 {
			message = cmem.GoString(sqlite3.Xsqlite3_errmsg(tls, handle))
			sqlite3.Xsqlite3_close_v2(tls, handle)
		}
		return nil, &Error{Kind: Kind(resCode), RC: resCode, Message: message}
	}
	if handle == 0 {
		return nil, fmt.Errorf("engine returned no connection handle")
	}

	return &Conn{tls: tls, handle: handle}, nil
}

// Import constructs a read-only in-memory connection from a serialized
// database image, such as one produced by Serialize. The image must not
// be in write-ahead-log mode; that precondition is inherited from the
// engine and not checked here.
//
// https://www.sqlite.org/c3ref/deserialize.html
func Import(data []byte) (*Conn, error) {
	conn, err := Open(Config{})
	if err != nil {
		return nil, err
	}

	if err := conn.deserialize(data); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to import database: %w", err)
	}

	// The engine accepts any image and reports corruption only on first
	// access; probe the schema so Import never hands out a dead handle.
	if err := conn.Exec("SELECT count(*) FROM sqlite_master"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to import database: %w", err)
	}
	return conn, nil
}

func (conn *Conn) deserialize(data []byte) error {
	tls := conn.tls

	buf, err := cmem.Bytes(tls, data)
	if err != nil {
		return err
	}

	zSchema, err := cmem.CString(tls, "main")
	if err != nil {
		cmem.Free(tls, buf)
		return err
	}
	defer cmem.Free(tls, zSchema)

	// With the free-on-close hint the engine owns buf from here on,
	// including the failure path.
	size := int64(len(data))
	resCode := sqlite3.Xsqlite3_deserialize(tls, conn.handle, zSchema, buf, size, size,
		sqlite3.SQLITE_DESERIALIZE_READONLY|sqlite3.SQLITE_DESERIALIZE_FREEONCLOSE)
	if resCode != sqlite3.SQLITE_OK {
		return conn.nativeError(resCode)
	}
	return nil
}

// Serialize returns a copy of the database as a serialized image, the
// same byte layout the database would have on disk, suitable for Import.
//
// https://www.sqlite.org/c3ref/serialize.html
func (conn *Conn) Serialize() ([]byte, error) {
	tls := conn.tls

	zSchema, err := cmem.CString(tls, "main")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize database: %w", err)
	}
	defer cmem.Free(tls, zSchema)

	sizeCell, err := cmem.Int64Cell(tls)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize database: %w", err)
	}
	defer cmem.Free(tls, sizeCell)

	buf := sqlite3.Xsqlite3_serialize(tls, conn.handle, zSchema, sizeCell, 0)
	if buf == 0 {
		return nil, fmt.Errorf("failed to serialize database: %w",
			&Error{Kind: KindNoMem, RC: sqlite3.SQLITE_NOMEM, Message: conn.errmsg()})
	}
	defer cmem.Free(tls, buf)

	return cmem.GoBytes(buf, int(cmem.ReadInt64(sizeCell))), nil
}

// Close releases the connection. Closing does not fail under correct
// usage; an engine failure here has no well-defined recovery and panics
// with the engine's diagnostic text. Close is safe to call more than
// once; only the first call does work.
//
// https://www.sqlite.org/c3ref/close.html
func (conn *Conn) Close() {
	if conn.handle == 0 {
		return
	}

	resCode := sqlite3.Xsqlite3_close_v2(conn.tls, conn.handle)
	if resCode != sqlite3.SQLITE_OK {
		panic(fmt.Sprintf("sqlitec: failed to close database: %s (%d)", conn.errmsg(), resCode))
	}
	conn.handle = 0
	conn.tls.Close()
	conn.tls = nil
}

// Exec compiles and runs a one-shot statement not worth retaining:
// prepare, bind, a single step, finalize.
func (conn *Conn) Exec(query string, args ...Value) error {
	stmt, err := conn.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Finalize()

	return stmt.Exec(args...)
}

// LastInsertRowID returns the row ID of the most recent successful
// INSERT on this connection.
//
// https://www.sqlite.org/c3ref/last_insert_rowid.html
func (conn *Conn) LastInsertRowID() int64 {
	return sqlite3.Xsqlite3_last_insert_rowid(conn.tls, conn.handle)
}

// RowsAffected returns the number of rows modified, inserted, or
// deleted by the most recent statement on this connection.
//
// https://www.sqlite.org/c3ref/changes.html
func (conn *Conn) RowsAffected() int64 {
	return int64(sqlite3.Xsqlite3_changes(conn.tls, conn.handle))
}

// errmsg returns the engine's most recent diagnostic text for this
// connection.
func (conn *Conn) errmsg() string {
	return cmem.GoString(sqlite3.Xsqlite3_errmsg(conn.tls, conn.handle))
}

// nativeError maps a failed call's result code into the error taxonomy,
// attaching the connection's diagnostic text.
func (conn *Conn) nativeError(rc int32) error {
	return &Error{Kind: Kind(rc), RC: rc, Message: conn.errmsg()}
}
