// Package sqlitec is a typed, lifecycle-safe access layer over the
// SQLite C call surface, built on the cgo-free engine from
// modernc.org/sqlite.
//
// A Conn owns one connection handle; a Stmt owns one compiled query
// with parameter and column metadata fixed at prepare time and a
// bind → step → reset lifecycle. Values cross the boundary as a closed
// tagged union over null, 32/64-bit integers, 64-bit floats, text, and
// blobs. Engine result codes are mapped into a closed error taxonomy.
//
//   - https://www.sqlite.org/cintro.html
//   - https://www.sqlite.org/c3ref/intro.html
package sqlitec
