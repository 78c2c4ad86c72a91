// Package cmem provides the marshaling helpers for crossing into the
// SQLite engine's C-style heap. All allocations come from the engine's
// own allocator, so buffers handed to the engine with a free-on-close
// hint are released by the correct free routine.
//
//   - https://www.sqlite.org/c3ref/free.html
package cmem

import (
	"fmt"
	"unsafe"

	"modernc.org/libc"
	sqlite3 "modernc.org/sqlite/lib"
)

// ptrSize is the size of a pointer cell in the engine heap.
const ptrSize = int(unsafe.Sizeof(uintptr(0)))

// Alloc returns n bytes of engine-heap memory. n must be positive.
func Alloc(tls *libc.TLS, n int) (uintptr, error) {
	p := sqlite3.Xsqlite3_malloc64(tls, uint64(n))
	if p == 0 {
		return 0, fmt.Errorf("failed to allocate %d bytes of engine memory", n)
	}
	return p, nil
}

// Free releases memory obtained from Alloc, CString, Bytes, or PtrCell,
// or any other buffer the engine expects to be released with its own
// free routine. Freeing the zero pointer is a no-op.
func Free(tls *libc.TLS, p uintptr) {
	sqlite3.Xsqlite3_free(tls, p)
}

// CString copies s into the engine heap as a NUL-terminated string.
func CString(tls *libc.TLS, s string) (uintptr, error) {
	p, err := Alloc(tls, len(s)+1)
	if err != nil {
		return 0, err
	}

	dst := unsafe.Slice((*byte)(unsafe.Pointer(p)), len(s)+1)
	copy(dst, s)
	dst[len(s)] = 0
	return p, nil
}

// Bytes copies b into the engine heap without a terminator. A zero-length
// slice still yields a valid, distinct allocation so that the pointer can
// stand in for "empty" rather than "absent".
func Bytes(tls *libc.TLS, b []byte) (uintptr, error) {
	n := len(b)
	if n == 0 {
		n = 1
	}

	p, err := Alloc(tls, n)
	if err != nil {
		return 0, err
	}
	copy(unsafe.Slice((*byte)(unsafe.Pointer(p)), n), b)
	return p, nil
}

// PtrCell returns a zeroed pointer-sized cell used as the out-parameter
// for engine calls that write a handle through a T** argument.
func PtrCell(tls *libc.TLS) (uintptr, error) {
	p, err := Alloc(tls, ptrSize)
	if err != nil {
		return 0, err
	}
	*(*uintptr)(unsafe.Pointer(p)) = 0
	return p, nil
}

// ReadPtr reads the pointer stored in a cell obtained from PtrCell.
func ReadPtr(cell uintptr) uintptr {
	return *(*uintptr)(unsafe.Pointer(cell))
}

// Int64Cell returns a zeroed 8-byte cell for engine calls that write a
// 64-bit size through an out-parameter.
func Int64Cell(tls *libc.TLS) (uintptr, error) {
	p, err := Alloc(tls, 8)
	if err != nil {
		return 0, err
	}
	*(*int64)(unsafe.Pointer(p)) = 0
	return p, nil
}

// ReadInt64 reads the value stored in a cell obtained from Int64Cell.
func ReadInt64(cell uintptr) int64 {
	return *(*int64)(unsafe.Pointer(cell))
}

// GoString copies a NUL-terminated engine string into a Go string.
// The zero pointer yields the empty string.
func GoString(p uintptr) string {
	return libc.GoString(p)
}

// GoStringN copies exactly n bytes starting at p into a Go string.
func GoStringN(p uintptr, n int) string {
	if p == 0 || n == 0 {
		return ""
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(p)), n))
}

// GoBytes copies exactly n bytes starting at p into a fresh Go slice.
func GoBytes(p uintptr, n int) []byte {
	if p == 0 || n == 0 {
		return []byte{}
	}
	out := make([]byte, n)
	copy(out, unsafe.Slice((*byte)(unsafe.Pointer(p)), n))
	return out
}
